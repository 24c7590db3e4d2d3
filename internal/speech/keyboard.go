package speech

import (
	"context"
	"sync"
	"unicode"
)

const keyboardBuffer = 256

// Keyboard is an Engine fed by typed text instead of audio. A supervisor types
// what the reader says; the word being typed is interim text and a space or
// Flush finalizes it.
//
// Events are queued and never block the caller: while the channel has room
// they are delivered inline, the overflow is handed to a delivery goroutine.
type Keyboard struct {
	mu      sync.Mutex
	events  chan Event
	pending []Event
	pumping bool
	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	running bool
	closed  bool
	word    []rune
}

// NewKeyboard returns a stopped keyboard engine.
func NewKeyboard() *Keyboard {
	k := &Keyboard{
		events: make(chan Event, keyboardBuffer),
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go k.deliver()
	return k
}

// Start implements Engine.
func (k *Keyboard) Start(context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return ErrClosed
	}
	if k.running {
		return nil
	}
	k.running = true
	k.emitLocked(Event{Kind: EventStarted})
	return nil
}

// Stop implements Engine. Pending typed text is discarded.
func (k *Keyboard) Stop() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.running {
		return nil
	}
	k.running = false
	k.word = nil
	k.emitLocked(Event{Kind: EventStopped})
	return nil
}

// Events implements Engine.
func (k *Keyboard) Events() <-chan Event {
	return k.events
}

// Close implements Engine. Undelivered events are dropped.
func (k *Keyboard) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	k.running = false
	k.pending = nil
	k.mu.Unlock()

	close(k.stop)
	<-k.done
	close(k.events)
	return nil
}

// Running reports whether typed text is being accepted.
func (k *Keyboard) Running() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.running
}

// Type feeds runes; whitespace finalizes the current word. A call emits at most
// one interim result, for the word left unfinished at its end.
func (k *Keyboard) Type(runes []rune) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.running {
		return
	}
	typed := false
	for _, r := range runes {
		if unicode.IsSpace(r) {
			k.flushLocked()
			typed = false
			continue
		}
		k.word = append(k.word, r)
		typed = true
	}
	if typed {
		k.emitLocked(Event{Kind: EventInterim, Text: string(k.word)})
	}
}

// Backspace removes the last typed rune of the current word.
func (k *Keyboard) Backspace() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.running || len(k.word) == 0 {
		return
	}
	k.word = k.word[:len(k.word)-1]
	k.emitLocked(Event{Kind: EventInterim, Text: string(k.word)})
}

// Flush finalizes the current word.
func (k *Keyboard) Flush() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.running {
		return
	}
	k.flushLocked()
}

// Drop simulates the engine giving up, as a recognizer does after silence.
func (k *Keyboard) Drop(err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.running {
		return
	}
	if err != nil {
		k.emitLocked(Event{Kind: EventError, Err: err})
	}
	k.running = false
	k.word = nil
	k.emitLocked(Event{Kind: EventStopped})
}

func (k *Keyboard) flushLocked() {
	if len(k.word) == 0 {
		return
	}
	k.emitLocked(Event{Kind: EventFinal, Text: string(k.word)})
	k.word = nil
}

// emitLocked queues ev and delivers what fits without blocking.
func (k *Keyboard) emitLocked(ev Event) {
	if k.closed {
		return
	}
	k.pending = append(k.pending, ev)
	if k.pumping {
		return
	}
	for len(k.pending) > 0 {
		select {
		case k.events <- k.pending[0]:
			k.pending = k.pending[1:]
		default:
			k.pumping = true
			select {
			case k.wake <- struct{}{}:
			default:
			}
			return
		}
	}
}

// deliver flushes the overflow queue once the consumer catches up.
func (k *Keyboard) deliver() {
	defer close(k.done)
	for {
		select {
		case <-k.wake:
		case <-k.stop:
			return
		}
		for {
			k.mu.Lock()
			if len(k.pending) == 0 {
				k.pumping = false
				k.mu.Unlock()
				break
			}
			ev := k.pending[0]
			k.mu.Unlock()

			select {
			case k.events <- ev:
			case <-k.stop:
				return
			}

			k.mu.Lock()
			if len(k.pending) > 0 {
				k.pending = k.pending[1:]
			}
			k.mu.Unlock()
		}
	}
}
