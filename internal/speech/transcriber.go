package speech

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// Update describes what a handled event changed.
type Update struct {
	// TextChanged is set when Text() differs from before the event.
	TextChanged bool
	// PrevFinal holds the finalized text before a final result was appended.
	PrevFinal string
	// FinalChanged is set when a final result was appended.
	FinalChanged bool
	// Denied is set when the engine reported a permission error.
	Denied bool
	// Err carries a start failure or permission error.
	Err error
}

// Transcriber accumulates engine results and restarts a dropped engine.
// It is not safe for concurrent use; feed it events from a single loop.
type Transcriber struct {
	engine Engine
	logger *slog.Logger
	ctx    context.Context

	desired  bool
	actual   bool
	starting bool

	final   string
	interim string
}

// NewTranscriber wraps an engine.
func NewTranscriber(engine Engine, logger *slog.Logger) *Transcriber {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Transcriber{
		engine: engine,
		logger: logger,
		ctx:    context.Background(),
	}
}

// Events exposes the engine event stream.
func (t *Transcriber) Events() <-chan Event {
	return t.engine.Events()
}

// Start clears the transcript and asks for listening.
func (t *Transcriber) Start(ctx context.Context) error {
	if ctx != nil {
		t.ctx = ctx
	}
	t.final = ""
	t.interim = ""
	t.desired = true
	return t.reconcile()
}

// Stop withdraws the listening intent and asks the engine to stop.
func (t *Transcriber) Stop() {
	t.desired = false
	if err := t.reconcile(); err != nil {
		t.logger.Warn("speech stop failed", "err", err)
	}
}

// ResetBuffer clears the accumulated text without touching listening state.
func (t *Transcriber) ResetBuffer() {
	t.final = ""
	t.interim = ""
}

// Close withdraws the intent and releases the engine, so no restart can
// reach a detached engine.
func (t *Transcriber) Close() error {
	t.desired = false
	if t.actual || t.starting {
		if err := t.engine.Stop(); err != nil {
			t.logger.Warn("speech stop failed", "err", err)
		}
	}
	t.actual = false
	t.starting = false
	return t.engine.Close()
}

// Listening reports whether the engine is actually running.
func (t *Transcriber) Listening() bool {
	return t.actual
}

// Wanted reports the listening intent.
func (t *Transcriber) Wanted() bool {
	return t.desired
}

// Final returns the finalized transcript.
func (t *Transcriber) Final() string {
	return t.final
}

// Interim returns the pending, not yet finalized text.
func (t *Transcriber) Interim() string {
	return t.interim
}

// Text returns finalized and interim text combined.
func (t *Transcriber) Text() string {
	return strings.TrimSpace(t.final + " " + t.interim)
}

// Handle applies one engine event.
func (t *Transcriber) Handle(ev Event) Update {
	switch ev.Kind {
	case EventStarted:
		t.actual = true
		t.starting = false
		t.logger.Debug("speech started")
		return t.afterLifecycle()
	case EventStopped:
		t.actual = false
		t.starting = false
		if t.desired {
			t.logger.Info("speech engine stopped, restarting")
		} else {
			t.logger.Debug("speech stopped")
		}
		return t.afterLifecycle()
	case EventInterim:
		before := t.Text()
		t.interim = ev.Text
		return Update{TextChanged: t.Text() != before}
	case EventFinal:
		before := t.Text()
		prev := t.final
		if text := strings.TrimSpace(ev.Text); text != "" {
			t.final = strings.TrimSpace(t.final + " " + text)
		}
		t.interim = ""
		return Update{
			TextChanged:  t.Text() != before,
			PrevFinal:    prev,
			FinalChanged: t.final != prev,
		}
	case EventError:
		return t.handleError(ev.Err)
	default:
		return Update{}
	}
}

func (t *Transcriber) handleError(err error) Update {
	if errors.Is(err, ErrPermissionDenied) {
		t.logger.Error("speech permission denied", "err", err)
		t.desired = false
		t.actual = false
		t.starting = false
		return Update{Denied: true, Err: err}
	}
	// Transient errors recover through the restart on the following stop.
	t.logger.Warn("speech engine error", "err", err)
	return Update{}
}

func (t *Transcriber) afterLifecycle() Update {
	if err := t.reconcile(); err != nil {
		return Update{Denied: errors.Is(err, ErrPermissionDenied), Err: err}
	}
	return Update{}
}

// reconcile drives the engine toward the desired state.
func (t *Transcriber) reconcile() error {
	switch {
	case t.desired && !t.actual && !t.starting:
		t.starting = true
		if err := t.engine.Start(t.ctx); err != nil {
			t.starting = false
			t.desired = false
			t.logger.Error("speech start failed", "err", err)
			return err
		}
	case !t.desired && (t.actual || t.starting):
		if err := t.engine.Stop(); err != nil {
			return err
		}
	}
	return nil
}
