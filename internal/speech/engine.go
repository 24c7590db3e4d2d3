// Package speech adapts a continuous speech recognition engine into a
// transcript that keeps running while the learner wants it to.
//
// An Engine stops on its own (silence, dropped connections, provider errors).
// The Transcriber keeps the desired listening state apart from the engine's
// actual state and reconciles the two on every lifecycle event, restarting the
// engine for as long as the intent is still "listening".
package speech

import (
	"context"
	"errors"
	"fmt"
)

// EventKind identifies an engine event.
type EventKind int

// Engine event kinds.
const (
	EventStarted EventKind = iota
	EventStopped
	EventInterim
	EventFinal
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	case EventInterim:
		return "interim"
	case EventFinal:
		return "final"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is delivered by an Engine in order.
type Event struct {
	Kind EventKind
	Text string
	Err  error
}

// Errors reported by engines.
var (
	// ErrPermissionDenied means the microphone or the provider refused access.
	ErrPermissionDenied = errors.New("speech: permission denied")
	// ErrAborted means the engine was interrupted before producing a result.
	ErrAborted = errors.New("speech: aborted")
	// ErrNoSpeech means the engine heard nothing before giving up.
	ErrNoSpeech = errors.New("speech: no speech detected")
	// ErrClosed is returned when starting an engine after Close.
	ErrClosed = errors.New("speech: engine closed")
)

// Engine is a continuous, interim-result-enabled recognizer.
//
// Start and Stop only request a state change; the engine confirms it with
// EventStarted and EventStopped. Both must be safe to call repeatedly.
type Engine interface {
	Start(ctx context.Context) error
	Stop() error
	Events() <-chan Event
	Close() error
}
