// Package runner hosts one agent behind an exclusive lock.
//
// Agents do not protect their conversation against overlapping calls. A
// Runner serializes Run, RunStream, Reset, Resume and Close against the same
// agent, so hosts can share it between goroutines. A stream holds the lock
// until it has drained.
//
// After every successful turn the Runner checkpoints the agent's exported
// state into a core.SessionStore (in memory by default); Resume loads the
// last checkpoint back:
//
//	r := runner.New(a, func(o *runner.Options) { o.SessionStore = store })
//	resp, err := r.RunTask(ctx, "hello")
//	...
//	err = runner.New(fresh, func(o *runner.Options) { o.SessionStore = store }).Resume(ctx)
package runner
