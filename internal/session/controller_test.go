package session

import (
	"context"
	"testing"

	"github.com/verte-zerg/lugemine/internal/exercise"
	"github.com/verte-zerg/lugemine/internal/model"
	"github.com/verte-zerg/lugemine/internal/speech"
)

type harness struct {
	kb   *speech.Keyboard
	ctrl *Controller
	rec  *memRecorder
}

func newHarness(t *testing.T, sentence string, difficulty model.Difficulty) *harness {
	t.Helper()
	kb := speech.NewKeyboard()
	rec := &memRecorder{}
	ctrl := NewController(exercise.New(0, sentence), difficulty, speech.NewTranscriber(kb, nil), rec, nil)
	t.Cleanup(func() { _ = ctrl.Close() })
	return &harness{kb: kb, ctrl: ctrl, rec: rec}
}

// pump applies every queued engine event and merges the effects.
func (h *harness) pump() Effects {
	var merged Effects
	for {
		select {
		case ev, ok := <-h.kb.Events():
			if !ok {
				return merged
			}
			eff := h.ctrl.HandleEvent(ev)
			if eff.Settle {
				merged.Settle = true
				merged.SettleGen = eff.SettleGen
			}
			if eff.WrongSeq != 0 {
				merged.WrongSeq = eff.WrongSeq
			}
			if eff.Denied {
				merged.Denied = true
			}
			if eff.Err != nil {
				merged.Err = eff.Err
			}
		default:
			return merged
		}
	}
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	if eff := h.ctrl.StartListening(context.Background()); eff.Err != nil {
		t.Fatalf("start: %v", eff.Err)
	}
	h.pump()
	if !h.ctrl.Listening() {
		t.Fatalf("not listening after start")
	}
}

func TestControllerReadsWholeExercise(t *testing.T) {
	h := newHarness(t, "Kass sööb", model.Snail)
	h.start(t)
	ctx := context.Background()

	h.kb.Type([]rune("kass "))
	eff := h.pump()
	if !eff.Settle {
		t.Fatalf("expected settle request")
	}
	if got := h.ctrl.Settle(ctx, eff.SettleGen); !got.Advanced {
		t.Fatalf("expected advance, got %+v", got)
	}
	if h.ctrl.Transcriber().Text() != "" {
		t.Fatalf("transcript not reset on advance")
	}

	h.kb.Type([]rune("kass sööb "))
	eff = h.pump()
	if !eff.Settle {
		t.Fatalf("expected settle request on last step")
	}
	got := h.ctrl.Settle(ctx, eff.SettleGen)
	if !got.Finished || got.Err != nil {
		t.Fatalf("expected finish, got %+v", got)
	}
	if h.ctrl.Transcriber().Wanted() {
		t.Fatalf("listening intent kept after finish")
	}
	h.pump()
	if h.ctrl.Listening() {
		t.Fatalf("engine still running after finish")
	}
	if len(h.rec.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(h.rec.records))
	}
	if eff := h.ctrl.StartListening(ctx); eff.Err != nil || h.ctrl.Transcriber().Wanted() {
		t.Fatalf("finished attempt restarted listening")
	}
}

func TestStaleSettleIgnored(t *testing.T) {
	h := newHarness(t, "Kass sööb", model.Snail)
	h.start(t)
	h.kb.Type([]rune("kass "))
	eff := h.pump()
	h.ctrl.Retry()
	if got := h.ctrl.Settle(context.Background(), eff.SettleGen); got.Advanced || got.Finished {
		t.Fatalf("stale settle applied: %+v", got)
	}
	if h.ctrl.Attempt().Step() != 0 {
		t.Fatalf("step changed")
	}
}

func TestTimeoutResetsTranscript(t *testing.T) {
	h := newHarness(t, "Kass sööb", model.Tiger)
	h.start(t)
	h.kb.Type([]rune("koe"))
	h.pump()
	if h.ctrl.Transcriber().Text() != "koe" {
		t.Fatalf("unexpected transcript %q", h.ctrl.Transcriber().Text())
	}
	eff := h.ctrl.Tick(h.ctrl.Attempt().Timeout())
	if !eff.TimedOut {
		t.Fatalf("expected timeout")
	}
	if h.ctrl.Transcriber().Text() != "" {
		t.Fatalf("transcript not reset on timeout")
	}
	if h.ctrl.Attempt().Step() != 0 || len(h.ctrl.Attempt().Mistakes()) != 1 {
		t.Fatalf("unexpected attempt state")
	}
}

func TestTickIgnoredWhileStopped(t *testing.T) {
	h := newHarness(t, "Kass", model.Tiger)
	if eff := h.ctrl.Tick(h.ctrl.Attempt().Timeout()); eff.TimedOut {
		t.Fatalf("countdown ran without listening")
	}
}

func TestEngineDropRestartsListening(t *testing.T) {
	h := newHarness(t, "Kass sööb", model.Snail)
	h.start(t)
	h.kb.Drop(speech.ErrNoSpeech)
	h.pump()
	h.pump()
	if !h.ctrl.Listening() || !h.kb.Running() {
		t.Fatalf("engine not restarted after drop")
	}
}

func TestPermissionDenied(t *testing.T) {
	h := newHarness(t, "Kass sööb", model.Snail)
	h.start(t)
	h.kb.Drop(speech.ErrPermissionDenied)
	eff := h.pump()
	if !eff.Denied {
		t.Fatalf("expected denied effect")
	}
	if h.ctrl.Transcriber().Wanted() || h.kb.Running() {
		t.Fatalf("engine restarted after permission denial")
	}
}

func TestRestartBuildsFreshAttempt(t *testing.T) {
	h := newHarness(t, "Kass sööb", model.Snail)
	first := h.ctrl.Attempt()
	h.ctrl.Retry()
	h.ctrl.Restart()
	second := h.ctrl.Attempt()
	if first.ID() == second.ID() {
		t.Fatalf("restart reused attempt")
	}
	if len(second.Mistakes()) != 0 || second.Step() != 0 {
		t.Fatalf("restart kept state")
	}
}

func TestToggleListening(t *testing.T) {
	h := newHarness(t, "Kass", model.Snail)
	h.ctrl.ToggleListening(context.Background())
	h.pump()
	if !h.ctrl.Listening() {
		t.Fatalf("toggle did not start")
	}
	h.ctrl.ToggleListening(context.Background())
	h.pump()
	if h.ctrl.Listening() || h.kb.Running() {
		t.Fatalf("toggle did not stop")
	}
}

func TestFinalRepeatingInterimFlagsWrongWord(t *testing.T) {
	h := newHarness(t, "Poiss sööb", model.Snail)
	h.start(t)

	if eff := h.ctrl.HandleEvent(speech.Event{Kind: speech.EventInterim, Text: "Koer"}); eff.WrongSeq != 0 {
		t.Fatalf("interim text must not raise a highlight")
	}
	eff := h.ctrl.HandleEvent(speech.Event{Kind: speech.EventFinal, Text: "Koer"})
	if eff.WrongSeq == 0 {
		t.Fatalf("expected highlight for finalized wrong word")
	}
	if h.ctrl.Attempt().WrongIndex() != 0 {
		t.Fatalf("expected highlight on 0, got %d", h.ctrl.Attempt().WrongIndex())
	}
	h.ctrl.ClearWrong(eff.WrongSeq)
	if h.ctrl.Attempt().WrongIndex() != -1 {
		t.Fatalf("highlight not cleared")
	}
}

func TestTypedWrongWordFlagsHighlight(t *testing.T) {
	h := newHarness(t, "Poiss sööb", model.Snail)
	h.start(t)

	h.kb.Type([]rune("koer"))
	h.pump()
	h.kb.Type([]rune(" "))
	eff := h.pump()
	if eff.WrongSeq == 0 || h.ctrl.Attempt().WrongIndex() != 0 {
		t.Fatalf("expected highlight on 0, got %d (seq %d)", h.ctrl.Attempt().WrongIndex(), eff.WrongSeq)
	}
	if h.ctrl.Transcriber().Final() != "koer" {
		t.Fatalf("unexpected final %q", h.ctrl.Transcriber().Final())
	}
}

func TestFinalOfConfirmedWordIsNotFlagged(t *testing.T) {
	h := newHarness(t, "Poiss sööb", model.Snail)
	h.start(t)
	eff := h.ctrl.HandleEvent(speech.Event{Kind: speech.EventInterim, Text: "Poiss"})
	if !eff.Settle {
		t.Fatalf("expected first step complete")
	}
	if got := h.ctrl.Settle(context.Background(), eff.SettleGen); !got.Advanced {
		t.Fatalf("expected advance, got %+v", got)
	}

	h.ctrl.HandleEvent(speech.Event{Kind: speech.EventInterim, Text: "Poiss"})
	eff = h.ctrl.HandleEvent(speech.Event{Kind: speech.EventFinal, Text: "Poiss"})
	if eff.WrongSeq != 0 || h.ctrl.Attempt().WrongIndex() != -1 {
		t.Fatalf("confirmed word flagged the next target as wrong")
	}
}
