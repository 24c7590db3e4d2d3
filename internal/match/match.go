// Package match tracks which words of a phrase have been read aloud.
package match

import (
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// minFuzzyRunes is the shortest word that may match within a tolerance.
const minFuzzyRunes = 4

var punctReplacer = strings.NewReplacer(".", "", ",", "", "?", "", "!", "")

// Normalize lower-cases text and strips sentence punctuation.
func Normalize(text string) string {
	return punctReplacer.Replace(strings.ToLower(text))
}

// SpokenWords splits a transcript into normalized words.
func SpokenWords(text string) []string {
	return strings.Fields(Normalize(text))
}

// Tracker records confirmed word positions of one phrase.
// Confirmations are never withdrawn.
type Tracker struct {
	words     []string
	targets   []string
	confirmed []bool
	tolerance int
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithTolerance allows a Levenshtein distance of n for words of four or more runes.
func WithTolerance(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.tolerance = n
		}
	}
}

// NewTracker splits the phrase on single spaces and starts with nothing confirmed.
func NewTracker(phrase string, opts ...Option) *Tracker {
	words := strings.Split(phrase, " ")
	t := &Tracker{
		words:     words,
		targets:   make([]string, len(words)),
		confirmed: make([]bool, len(words)),
	}
	for i, w := range words {
		t.targets[i] = Normalize(w)
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Words returns the phrase words as displayed.
func (t *Tracker) Words() []string {
	return t.words
}

// Len returns the number of word positions.
func (t *Tracker) Len() int {
	return len(t.words)
}

// Confirmed reports whether position i has been read.
func (t *Tracker) Confirmed(i int) bool {
	if i < 0 || i >= len(t.confirmed) {
		return false
	}
	return t.confirmed[i]
}

// ConfirmedCount returns the number of confirmed positions.
func (t *Tracker) ConfirmedCount() int {
	n := 0
	for _, c := range t.confirmed {
		if c {
			n++
		}
	}
	return n
}

// Complete reports whether every position is confirmed.
func (t *Tracker) Complete() bool {
	for _, c := range t.confirmed {
		if !c {
			return false
		}
	}
	return true
}

// NextExpected returns the first unconfirmed position, or -1.
func (t *Tracker) NextExpected() int {
	for i, c := range t.confirmed {
		if !c {
			return i
		}
	}
	return -1
}

// Observe confirms every unconfirmed position whose word appears anywhere in
// the transcript and returns the newly confirmed positions.
func (t *Tracker) Observe(transcript string) []int {
	spoken := SpokenWords(transcript)
	if len(spoken) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(spoken))
	for _, w := range spoken {
		set[w] = struct{}{}
	}
	var added []int
	for i, target := range t.targets {
		if t.confirmed[i] {
			continue
		}
		if t.heard(target, set, spoken) {
			t.confirmed[i] = true
			added = append(added, i)
		}
	}
	return added
}

// CheckFinal compares the finalized transcript before and after an update.
// When words were finalized and the last one is not the next expected word,
// it returns that expected position and true. A finalized word that repeats an
// already confirmed position is not flagged.
func (t *Tracker) CheckFinal(prevFinal, final string) (int, bool) {
	newWords := SpokenWords(final)
	oldWords := SpokenWords(prevFinal)
	if len(newWords) <= len(oldWords) {
		return -1, false
	}
	next := t.NextExpected()
	if next == -1 {
		return -1, false
	}
	added := newWords[len(newWords)-1]
	if t.equal(added, t.targets[next]) {
		return -1, false
	}
	for i, target := range t.targets {
		if t.confirmed[i] && t.equal(added, target) {
			return -1, false
		}
	}
	return next, true
}

func (t *Tracker) heard(target string, set map[string]struct{}, spoken []string) bool {
	if _, ok := set[target]; ok {
		return true
	}
	if t.tolerance == 0 || utf8.RuneCountInString(target) < minFuzzyRunes {
		return false
	}
	for _, w := range spoken {
		if t.equal(w, target) {
			return true
		}
	}
	return false
}

func (t *Tracker) equal(spoken, target string) bool {
	if spoken == target {
		return true
	}
	if t.tolerance == 0 || utf8.RuneCountInString(target) < minFuzzyRunes {
		return false
	}
	return matchr.Levenshtein(spoken, target) <= t.tolerance
}
