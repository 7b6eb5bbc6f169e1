// Package model defines the provider‑agnostic generation seam used by Meepo
// agents and a deterministic PlaceholderModel.
//
// Core goals:
//   - Unify streaming + non‑streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Let a real backend replace the placeholder without changing callers
//
// Providers (OpenAI, Anthropic, LangChainGo) implement the Model interface in
// sub-packages so agents remain decoupled from vendor SDKs.
package model
