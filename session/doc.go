// Package session houses concrete implementations of core.SessionStore. The
// interface and the Session struct live in core so agents and the runner do
// not depend on a concrete storage backend.
//
// Additional backends belong in sub‑packages; only the wiring layer decides
// which implementation to instantiate.
package session
