// Package session drives one run through a pyramid exercise: step progression,
// countdowns, mistakes, and the history record written on completion.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/lugemine/internal/exercise"
	"github.com/verte-zerg/lugemine/internal/match"
	"github.com/verte-zerg/lugemine/internal/model"
)

const (
	// SettleDelay is the pause between completing a step and moving on.
	SettleDelay = time.Second
	// WrongHighlight is how long a wrong-word highlight stays visible.
	WrongHighlight = time.Second
	// ManualSuffix marks mistakes logged by a manual retry.
	ManualSuffix = " (Manuaalne)"
)

// Phase is the attempt lifecycle state.
type Phase int

// Attempt phases.
const (
	PhaseReading Phase = iota
	PhaseSettling
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseReading:
		return "reading"
	case PhaseSettling:
		return "settling"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Recorder stores a finished attempt.
type Recorder interface {
	Record(ctx context.Context, rec model.Record) error
}

// Option configures an Attempt.
type Option func(*Attempt)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Attempt) {
		a.now = now
	}
}

// WithMatchOptions passes options to every step tracker.
func WithMatchOptions(opts ...match.Option) Option {
	return func(a *Attempt) {
		a.matchOpts = append(a.matchOpts, opts...)
	}
}

// Attempt is one run through an exercise. A retry of the whole exercise is a
// new Attempt.
type Attempt struct {
	id         string
	exercise   exercise.Exercise
	difficulty model.Difficulty
	matchOpts  []match.Option
	now        func() time.Time

	phase     Phase
	step      int
	gen       int
	tracker   *match.Tracker
	remaining time.Duration
	mistakes  []string

	wrong    int
	wrongSeq int

	startedAt time.Time
	endedAt   time.Time
}

// Observation reports what a transcript update changed.
type Observation struct {
	Confirmed []int
	// WrongSeq is non-zero when a wrong-word highlight was raised.
	WrongSeq int
	// Completed is set when this update completed the step.
	Completed bool
}

// NewAttempt starts an attempt at step 0. The start time is taken now.
func NewAttempt(ex exercise.Exercise, difficulty model.Difficulty, opts ...Option) *Attempt {
	a := &Attempt{
		id:         uuid.NewString(),
		exercise:   ex,
		difficulty: difficulty,
		now:        time.Now,
		wrong:      -1,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.startedAt = a.now()
	a.loadStep(0)
	return a
}

func (a *Attempt) loadStep(step int) {
	a.step = step
	a.gen++
	a.phase = PhaseReading
	a.tracker = match.NewTracker(a.Phrase(), a.matchOpts...)
	a.remaining = a.Timeout()
	a.wrong = -1
}

// ID identifies the attempt.
func (a *Attempt) ID() string { return a.id }

// Exercise returns the exercise being read.
func (a *Attempt) Exercise() exercise.Exercise { return a.exercise }

// Difficulty returns the countdown tier.
func (a *Attempt) Difficulty() model.Difficulty { return a.difficulty }

// Phase returns the lifecycle state.
func (a *Attempt) Phase() Phase { return a.phase }

// Step returns the current step index.
func (a *Attempt) Step() int { return a.step }

// StepCount returns the number of steps.
func (a *Attempt) StepCount() int { return len(a.exercise.Steps) }

// Generation changes whenever the current step is reloaded or reset. Delayed
// work tagged with an older generation is stale.
func (a *Attempt) Generation() int { return a.gen }

// Phrase returns the current step text.
func (a *Attempt) Phrase() string {
	if len(a.exercise.Steps) == 0 {
		return ""
	}
	return a.exercise.Steps[a.step]
}

// Words returns the current step words.
func (a *Attempt) Words() []string { return a.tracker.Words() }

// Confirmed reports whether word i of the current step has been read.
func (a *Attempt) Confirmed(i int) bool { return a.tracker.Confirmed(i) }

// StepComplete reports whether every word of the current step is confirmed.
func (a *Attempt) StepComplete() bool { return a.tracker.Complete() }

// WrongIndex returns the highlighted wrong position, or -1.
func (a *Attempt) WrongIndex() int { return a.wrong }

// WrongSeq returns the sequence number of the latest wrong-word highlight.
func (a *Attempt) WrongSeq() int { return a.wrongSeq }

// Mistakes returns a copy of the logged mistakes.
func (a *Attempt) Mistakes() []string {
	return append([]string{}, a.mistakes...)
}

// Timeout returns the full countdown of the current step; zero means none.
func (a *Attempt) Timeout() time.Duration {
	return a.difficulty.StepTimeout(len(strings.Split(a.Phrase(), " ")))
}

// Remaining returns the countdown left on the current step.
func (a *Attempt) Remaining() time.Duration { return a.remaining }

// StartedAt returns the attempt start time.
func (a *Attempt) StartedAt() time.Time { return a.startedAt }

// EndedAt returns the finish time, zero until finished.
func (a *Attempt) EndedAt() time.Time { return a.endedAt }

// Duration returns the finished attempt length, never negative.
func (a *Attempt) Duration() time.Duration {
	if a.phase != PhaseFinished {
		return 0
	}
	d := a.endedAt.Sub(a.startedAt)
	if d < 0 {
		return 0
	}
	return d
}

// Observe feeds the current transcript. prevFinal and finalChanged come from
// the transcriber update and drive the wrong-word check.
func (a *Attempt) Observe(text, prevFinal, final string, finalChanged bool) Observation {
	if a.phase != PhaseReading {
		return Observation{}
	}
	wrongAt := -1
	if finalChanged {
		if idx, ok := a.tracker.CheckFinal(prevFinal, final); ok {
			wrongAt = idx
		}
	}
	var obs Observation
	obs.Confirmed = a.tracker.Observe(text)
	if len(obs.Confirmed) > 0 {
		a.wrong = -1
	}
	if wrongAt >= 0 && !a.tracker.Confirmed(wrongAt) {
		a.wrong = wrongAt
		a.wrongSeq++
		obs.WrongSeq = a.wrongSeq
	}
	if a.tracker.Complete() {
		a.phase = PhaseSettling
		obs.Completed = true
	}
	return obs
}

// ClearWrong drops the highlight raised with seq, unless a newer one replaced it.
func (a *Attempt) ClearWrong(seq int) {
	if seq == a.wrongSeq {
		a.wrong = -1
	}
}

// Tick advances the countdown by elapsed. It only runs while recognition is
// actually listening and the step is incomplete. On expiry it logs the phrase
// as a mistake, re-arms the countdown and returns true.
func (a *Attempt) Tick(elapsed time.Duration, listening bool) bool {
	if a.phase != PhaseReading || !listening || elapsed <= 0 {
		return false
	}
	if a.Timeout() <= 0 {
		return false
	}
	a.remaining -= elapsed
	if a.remaining > 0 {
		return false
	}
	a.mistakes = append(a.mistakes, a.Phrase())
	a.remaining = a.Timeout()
	return true
}

// Settle runs after SettleDelay on a completed step. It loads the next step or
// finishes the attempt and hands the record to rec. It returns true only on the
// call that finished the attempt.
func (a *Attempt) Settle(ctx context.Context, rec Recorder) (bool, error) {
	if a.phase != PhaseSettling {
		return false, nil
	}
	if a.step < a.StepCount()-1 {
		a.loadStep(a.step + 1)
		return false, nil
	}
	a.phase = PhaseFinished
	a.endedAt = a.now()
	if rec == nil {
		return true, nil
	}
	return true, rec.Record(ctx, a.Record())
}

// Record builds the history entry of a finished attempt.
func (a *Attempt) Record() model.Record {
	return model.Record{
		Date:          a.endedAt,
		ExerciseTitle: a.exercise.Title,
		DurationMs:    a.Duration().Milliseconds(),
		Mistakes:      a.Mistakes(),
		Difficulty:    a.difficulty,
	}
}

// Retry restarts the current step, logging a manual mistake.
func (a *Attempt) Retry() {
	if a.phase == PhaseFinished {
		return
	}
	a.mistakes = append(a.mistakes, a.Phrase()+ManualSuffix)
	a.loadStep(a.step)
}

// Skip moves to the next step without reading the current one. On the last
// step it reloads that step; skipping never finishes the attempt.
func (a *Attempt) Skip() {
	if a.phase == PhaseFinished {
		return
	}
	a.loadStep(min(a.step+1, a.StepCount()-1))
}
