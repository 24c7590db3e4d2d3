// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty selects the per-step countdown tier.
type Difficulty string

// Known difficulty tiers.
const (
	Snail  Difficulty = "snail"
	Rabbit Difficulty = "rabbit"
	Tiger  Difficulty = "tiger"
)

// Difficulties lists the tiers from slowest to fastest.
var Difficulties = []Difficulty{Snail, Rabbit, Tiger}

// ParseDifficulty validates a difficulty tag.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Difficulties {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q (use snail, rabbit or tiger)", s)
}

// StepTimeout returns the countdown for a phrase of the given word count.
// Zero means the tier has no countdown.
func (d Difficulty) StepTimeout(words int) time.Duration {
	switch d {
	case Tiger:
		return time.Duration(words)*1500*time.Millisecond + 2000*time.Millisecond
	case Rabbit:
		return time.Duration(words)*3000*time.Millisecond + 5000*time.Millisecond
	default:
		return 0
	}
}

// Label returns the display name shown to the learner.
func (d Difficulty) Label() string {
	switch d {
	case Snail:
		return "Tigu"
	case Rabbit:
		return "Jänes"
	case Tiger:
		return "Tiiger"
	default:
		return string(d)
	}
}

// Next cycles to the following tier.
func (d Difficulty) Next() Difficulty {
	for i, known := range Difficulties {
		if known == d {
			return Difficulties[(i+1)%len(Difficulties)]
		}
	}
	return Rabbit
}

// Config defines practice settings.
type Config struct {
	Difficulty     Difficulty
	Engine         string
	Lang           string
	SentencesPath  string
	Tolerance      int
	HighlightWrong bool
}

// HistoryConfig defines filters for the history views.
type HistoryConfig struct {
	Difficulty Difficulty
	Since      *time.Time
	Last       int
	Window     int
}

// Record is one completed exercise. Field names match the persisted JSON blob.
type Record struct {
	Date          time.Time  `json:"date"`
	ExerciseTitle string     `json:"exerciseTitle"`
	DurationMs    int64      `json:"duration"`
	Mistakes      []string   `json:"mistakes"`
	Difficulty    Difficulty `json:"difficulty"`
}

// Duration returns the record duration.
func (r Record) Duration() time.Duration {
	return time.Duration(r.DurationMs) * time.Millisecond
}

// Seconds formats the duration in seconds with one decimal.
func (r Record) Seconds() string {
	return fmt.Sprintf("%.1f", float64(r.DurationMs)/1000)
}
