// Package core provides the foundational domain types and the agent contract
// used by Meepo. It defines:
//
//   - Value types (Role, Content, FunctionParameter/Definition/Call, AgentType, AgentConfig)
//   - Messages and Conversations (the ordered transcript an agent tracks)
//   - The framework-facing turn types (ChatMessage, Response, StreamEvent)
//   - The Agent contract plus optional capabilities (streaming, state, close)
//     with helpers applying the documented defaults
//   - Session checkpoints and the SessionStore interface
//   - The error taxonomy (validation, unsupported type, missing capability, cancellation)
//
// Concrete agents, adapters and model backends live in sibling packages so this
// package stays free of vendor dependencies.
package core
