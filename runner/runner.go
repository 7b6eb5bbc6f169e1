package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/meepo/core"
	"github.com/hupe1980/meepo/logging"
	"github.com/hupe1980/meepo/session"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// SessionStore receives a checkpoint of the agent state after every
	// successful turn and reset.
	SessionStore core.SessionStore
	// SessionID keys the checkpoint. Defaults to the agent name.
	SessionID string
	// DisableCheckpoints turns off checkpointing.
	DisableCheckpoints bool
	// TaskSource is the author of messages created by RunTask.
	TaskSource string
	// Logging services.
	Logger logging.Logger
}

// Runner serializes access to one agent. Every operation holds the agent
// exclusively for its whole duration, a stream until it has drained. Public
// methods are safe for concurrent use; waiting for the agent respects the
// caller's context.
type Runner struct {
	agent core.Agent

	sessionStore core.SessionStore
	sessionID    string
	checkpoint   bool
	taskSource   string
	logger       logging.Logger

	sem chan struct{}
}

// New constructs a Runner with optional overrides.
func New(agent core.Agent, optFns ...func(o *Options)) *Runner {
	opts := Options{
		SessionStore: session.NewInMemoryStore(),
		SessionID:    agent.Name(),
		TaskSource:   string(core.RoleUser),
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		agent:        agent,
		sessionStore: opts.SessionStore,
		sessionID:    opts.SessionID,
		checkpoint:   !opts.DisableCheckpoints && opts.SessionStore != nil,
		taskSource:   opts.TaskSource,
		logger:       logging.OrNoOp(opts.Logger),
		sem:          make(chan struct{}, 1),
	}
}

// Agent returns the wrapped agent. Calling it directly bypasses serialization.
func (r *Runner) Agent() core.Agent { return r.agent }

// SessionID returns the checkpoint key.
func (r *Runner) SessionID() string { return r.sessionID }

// Run feeds messages to the agent and returns its response.
func (r *Runner) Run(ctx context.Context, messages ...core.ChatMessage) (core.Response, error) {
	if err := r.acquire(ctx); err != nil {
		return core.Response{}, err
	}
	defer r.release()

	start := time.Now()
	resp, err := r.agent.OnMessages(ctx, messages)
	r.logTurn(len(messages), time.Since(start), err)
	if err != nil {
		return core.Response{}, fmt.Errorf("agent %s: %w", r.agent.Name(), err)
	}

	r.save(ctx)
	return resp, nil
}

// RunTask sends task as a single text message.
func (r *Runner) RunTask(ctx context.Context, task string) (core.Response, error) {
	return r.Run(ctx, core.NewTextMessage(r.taskSource, core.Text(task)))
}

// RunStream streams a turn. The agent stays locked until the returned
// channels are closed; callers must drain the events channel.
func (r *Runner) RunStream(ctx context.Context, messages ...core.ChatMessage) (<-chan core.StreamEvent, <-chan error) {
	eventsCh := make(chan core.StreamEvent)
	errorsCh := make(chan error, 1)

	go func() {
		defer func() { close(eventsCh); close(errorsCh) }()

		if err := r.acquire(ctx); err != nil {
			errorsCh <- err
			return
		}
		defer r.release()

		start := time.Now()
		agentEvents, agentErrs := core.OnMessagesStream(ctx, r.agent, messages)

		var final bool
		for ev := range agentEvents {
			select {
			case <-ctx.Done():
				go drain(agentEvents)
				err := core.Cancelled(ctx)
				r.logTurn(len(messages), time.Since(start), err)
				errorsCh <- err
				return
			case eventsCh <- ev:
				final = final || ev.IsFinal()
			}
		}

		err := <-agentErrs
		if err == nil && !final {
			err = &core.ValidationError{Field: "stream", Message: "stream ended without a terminal response"}
		}
		r.logTurn(len(messages), time.Since(start), err)
		if err != nil {
			errorsCh <- fmt.Errorf("agent %s: %w", r.agent.Name(), err)
			return
		}
		r.save(ctx)
	}()

	return eventsCh, errorsCh
}

// Reset resets the agent and checkpoints the fresh state.
func (r *Runner) Reset(ctx context.Context) error {
	if err := r.acquire(ctx); err != nil {
		return err
	}
	defer r.release()

	if err := r.agent.OnReset(ctx); err != nil {
		return fmt.Errorf("reset agent %s: %w", r.agent.Name(), err)
	}
	r.logger.Debug("runner.reset", "agent", r.agent.Name())
	r.save(ctx)
	return nil
}

// Resume loads the last checkpoint into the agent. The error matches
// core.ErrNotFound when no checkpoint exists.
func (r *Runner) Resume(ctx context.Context) error {
	if r.sessionStore == nil {
		return fmt.Errorf("resume agent %s: no session store: %w", r.agent.Name(), core.ErrNotFound)
	}
	if err := r.acquire(ctx); err != nil {
		return err
	}
	defer r.release()

	sess, err := r.sessionStore.Get(ctx, r.sessionID)
	if err != nil {
		return fmt.Errorf("resume agent %s: %w", r.agent.Name(), err)
	}
	if err := core.LoadState(ctx, r.agent, sess.State); err != nil {
		return fmt.Errorf("resume agent %s: %w", r.agent.Name(), err)
	}
	r.logger.Info("runner.resume", "agent", r.agent.Name(), "session_id", r.sessionID)
	return nil
}

// Close releases the agent's resources once no operation is running.
func (r *Runner) Close(ctx context.Context) error {
	if err := r.acquire(ctx); err != nil {
		return err
	}
	defer r.release()

	if err := core.Close(ctx, r.agent); err != nil {
		return fmt.Errorf("close agent %s: %w", r.agent.Name(), err)
	}
	return nil
}

func (r *Runner) acquire(ctx context.Context) error {
	select {
	case r.sem <- struct{}{}:
		if ctx.Err() != nil {
			<-r.sem
			return core.Cancelled(ctx)
		}
		return nil
	case <-ctx.Done():
		return core.Cancelled(ctx)
	}
}

func (r *Runner) release() { <-r.sem }

// save checkpoints the agent state. Failures are logged; the turn itself has
// already been committed by the agent.
func (r *Runner) save(ctx context.Context) {
	if !r.checkpoint {
		return
	}

	state, err := core.SaveState(ctx, r.agent)
	if err != nil {
		r.logger.Warn("runner.checkpoint.failed", "agent", r.agent.Name(), "error", err.Error())
		return
	}

	sess, err := r.sessionStore.Get(ctx, r.sessionID)
	if errors.Is(err, core.ErrNotFound) {
		sess, err = core.NewSession(r.sessionID, r.agent.Name()), nil
	}
	if err != nil {
		r.logger.Warn("runner.checkpoint.failed", "agent", r.agent.Name(), "error", err.Error())
		return
	}

	sess.SetState(state)
	if err := r.sessionStore.Save(ctx, sess); err != nil {
		r.logger.Warn("runner.checkpoint.failed", "agent", r.agent.Name(), "error", err.Error())
		return
	}
	r.logger.Debug("runner.checkpoint", "agent", r.agent.Name(), "session_id", r.sessionID)
}

func (r *Runner) logTurn(messages int, dur time.Duration, err error) {
	if ml, ok := r.logger.(*logging.MeepoLogger); ok {
		ml.LogTurn(r.agent.Name(), messages, dur, core.IsCancelled(err), err)
		return
	}
	if err != nil {
		r.logger.Error("runner.turn.failed", "agent", r.agent.Name(), "error", err.Error())
		return
	}
	r.logger.Info("runner.turn.complete", "agent", r.agent.Name(), "message_count", messages, "duration", dur)
}

func drain(ch <-chan core.StreamEvent) {
	for range ch {
	}
}
