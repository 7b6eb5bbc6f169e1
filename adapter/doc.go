// Package adapter makes agents written against an external chat-agent
// framework usable wherever a core.Agent is expected.
//
// A ChatAgentAdapter forwards every contract operation to the wrapped agent
// without transforming arguments or results. Name, description and produced
// message kinds are read live on every call, so the adapter never drifts from
// the wrapped agent. Optional operations the wrapped agent lacks fall back to
// the contract defaults (see core.OnMessagesStream and core.SaveState) unless
// the adapter is built with Options.Strict.
//
// Adapt detects the shape of an arbitrary value through an ordered Registry:
//
//	a, err := adapter.Adapt(external)
//	if errors.Is(err, core.ErrUnsupportedType) {
//		// external matches no registered shape
//	}
//
// New framework shapes are added with Register without touching existing
// adapters. Entries are checked in registration order.
package adapter
