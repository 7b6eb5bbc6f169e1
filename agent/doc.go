// Package agent contains the reference Meepo agent and its helpers:
//
//  1. BaseAgent: identity plus default state and close operations
//  2. MeepoAgent: conversation-keeping agent generating through a model.Model
//  3. Factories: NewAssistant, NewCodeExecutor, NewUserProxy, FromConfig
//  4. SyncAgent: blocking facade for callers without contexts
//
// Without an explicit model a MeepoAgent answers with model.PlaceholderText,
// streamed word by word. Substituting a real backend (see model/provider)
// does not change the agent contract.
package agent
