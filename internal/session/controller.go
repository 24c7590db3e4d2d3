package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/verte-zerg/lugemine/internal/exercise"
	"github.com/verte-zerg/lugemine/internal/model"
	"github.com/verte-zerg/lugemine/internal/speech"
)

// Effects tells the caller which delayed work to schedule after an input.
type Effects struct {
	// Settle asks for Settle(SettleGen) after SettleDelay.
	Settle    bool
	SettleGen int
	// WrongSeq asks for ClearWrong(WrongSeq) after WrongHighlight.
	WrongSeq int
	TimedOut bool
	Advanced bool
	Finished bool
	Denied   bool
	Err      error
}

// Controller binds an Attempt to a Transcriber and a Recorder. It is not safe
// for concurrent use.
type Controller struct {
	attempt     *Attempt
	transcriber *speech.Transcriber
	recorder    Recorder
	logger      *slog.Logger
	opts        []Option
}

// NewController starts a fresh attempt of ex.
func NewController(ex exercise.Exercise, difficulty model.Difficulty, tr *speech.Transcriber, rec Recorder, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		attempt:     NewAttempt(ex, difficulty, opts...),
		transcriber: tr,
		recorder:    rec,
		logger:      logger,
		opts:        opts,
	}
}

// Attempt returns the current attempt.
func (c *Controller) Attempt() *Attempt { return c.attempt }

// Transcriber returns the bound transcriber.
func (c *Controller) Transcriber() *speech.Transcriber { return c.transcriber }

// Listening reports whether recognition is actually running.
func (c *Controller) Listening() bool { return c.transcriber.Listening() }

// StartListening asks for recognition.
func (c *Controller) StartListening(ctx context.Context) Effects {
	if c.attempt.Phase() == PhaseFinished {
		return Effects{}
	}
	if err := c.transcriber.Start(ctx); err != nil {
		return c.startFailed(err)
	}
	return Effects{}
}

// StopListening withdraws the listening intent.
func (c *Controller) StopListening() {
	c.transcriber.Stop()
}

// ToggleListening flips the listening intent.
func (c *Controller) ToggleListening(ctx context.Context) Effects {
	if c.transcriber.Wanted() {
		c.StopListening()
		return Effects{}
	}
	return c.StartListening(ctx)
}

func (c *Controller) startFailed(err error) Effects {
	c.logger.Error("start listening failed", "err", err)
	return Effects{Denied: isDenied(err), Err: err}
}

// HandleEvent applies one speech event to the transcript and the attempt.
func (c *Controller) HandleEvent(ev speech.Event) Effects {
	up := c.transcriber.Handle(ev)
	if up.Denied {
		return Effects{Denied: true, Err: up.Err}
	}
	if up.Err != nil {
		return Effects{Err: up.Err}
	}
	// A final that repeats the interim leaves the text unchanged but still
	// feeds the wrong-word check.
	if !up.TextChanged && !up.FinalChanged {
		return Effects{}
	}
	obs := c.attempt.Observe(c.transcriber.Text(), up.PrevFinal, c.transcriber.Final(), up.FinalChanged)
	eff := Effects{WrongSeq: obs.WrongSeq}
	if obs.Completed {
		eff.Settle = true
		eff.SettleGen = c.attempt.Generation()
		c.logger.Debug("step complete", "attempt", c.attempt.ID(), "step", c.attempt.Step())
	}
	return eff
}

// Tick advances the countdown. A timeout clears the transcript so the phrase
// is read again from scratch.
func (c *Controller) Tick(elapsed time.Duration) Effects {
	if !c.attempt.Tick(elapsed, c.transcriber.Listening()) {
		return Effects{}
	}
	c.transcriber.ResetBuffer()
	c.logger.Info("step timed out", "attempt", c.attempt.ID(), "step", c.attempt.Step())
	return Effects{TimedOut: true}
}

// Settle completes the delayed step transition scheduled for gen.
func (c *Controller) Settle(ctx context.Context, gen int) Effects {
	if gen != c.attempt.Generation() {
		return Effects{}
	}
	finished, err := c.attempt.Settle(ctx, c.recorder)
	if !finished {
		if c.attempt.Generation() != gen {
			c.transcriber.ResetBuffer()
			return Effects{Advanced: true}
		}
		return Effects{}
	}
	c.transcriber.Stop()
	c.transcriber.ResetBuffer()
	if err != nil {
		c.logger.Error("record attempt", "err", err)
	} else {
		c.logger.Info("attempt finished",
			"attempt", c.attempt.ID(),
			"exercise", c.attempt.Exercise().Title,
			"duration_ms", c.attempt.Duration().Milliseconds(),
			"mistakes", len(c.attempt.mistakes),
		)
	}
	return Effects{Finished: true, Err: err}
}

// ClearWrong drops an expired wrong-word highlight.
func (c *Controller) ClearWrong(seq int) {
	c.attempt.ClearWrong(seq)
}

// Retry restarts the current step and logs a manual mistake.
func (c *Controller) Retry() {
	c.attempt.Retry()
	c.transcriber.ResetBuffer()
}

// Skip moves to the next step.
func (c *Controller) Skip() {
	c.attempt.Skip()
	c.transcriber.ResetBuffer()
}

// Restart replaces the attempt with a fresh one for the same exercise.
func (c *Controller) Restart() {
	c.attempt = NewAttempt(c.attempt.Exercise(), c.attempt.Difficulty(), c.opts...)
	c.transcriber.ResetBuffer()
}

// Close releases the speech engine.
func (c *Controller) Close() error {
	return c.transcriber.Close()
}

func isDenied(err error) bool {
	return errors.Is(err, speech.ErrPermissionDenied)
}
