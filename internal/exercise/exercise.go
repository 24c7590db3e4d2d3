// Package exercise builds pyramid reading exercises from sentences.
package exercise

import "strings"

// Exercise is an immutable pyramid built from one sentence.
type Exercise struct {
	ID           int
	Title        string
	FullSentence string
	Steps        []string
}

var builtinSentences = []string{
	"Ema loeb raamatut.",
	"Isal on uus auto.",
	"Kass magab pehme padja peal.",
	"Koer jookseb aias ringi.",
	"Poiss sööb punast õuna.",
	"Karusell keerleb kiiresti.",
	"Isa parandab vana autot.",
	"Väike kassipoeg mängib lõngakeraga.",
	"Ema küpsetab pühapäeval pannkooke.",
	"Poiss loeb põnevat raamatut.",
	"Tüdruk korjab aias lilli.",
	"Päike paistab helesinises taevas.",
	"Talvel sajab palju lund.",
	"Koolikell heliseb valjusti.",
	"Mulle maitseb külm jäätis.",
	"Vanaema koob sooja salli.",
	"Vanaisa käib metsas seenel.",
	"Lind ehitab puu otsa pesa.",
	"Mõmmi sööb magusat mett.",
	"Jänesel on pikad kõrvad.",
	"Siil kannab seljas õuna.",
	"Orav hüppab oksalt oksale.",
	"Kell seinal näitab aega.",
	"Suur buss sõidab linna.",
	"Rong viib reisijad koju.",
}

// Pyramid returns the cumulative word prefixes of a sentence.
// Words are separated by single spaces, so step i holds exactly i+1 words.
func Pyramid(sentence string) []string {
	words := strings.Split(sentence, " ")
	steps := make([]string, 0, len(words))
	for i := 1; i <= len(words); i++ {
		steps = append(steps, strings.Join(words[:i], " "))
	}
	return steps
}

// New builds the exercise at the given zero-based index.
func New(index int, sentence string) Exercise {
	words := strings.Split(sentence, " ")
	return Exercise{
		ID:           index + 1,
		Title:        words[0] + "...",
		FullSentence: sentence,
		Steps:        Pyramid(sentence),
	}
}

// FromSentences builds one exercise per sentence.
func FromSentences(sentences []string) []Exercise {
	out := make([]Exercise, 0, len(sentences))
	for i, s := range sentences {
		out = append(out, New(i, s))
	}
	return out
}

// Builtin returns the bundled exercises.
func Builtin() []Exercise {
	return FromSentences(builtinSentences)
}

// WordCount counts the words of a phrase the same way steps are built.
func WordCount(phrase string) int {
	return len(strings.Split(phrase, " "))
}

// Find returns the exercise with the given id.
func Find(exercises []Exercise, id int) (Exercise, bool) {
	for _, ex := range exercises {
		if ex.ID == id {
			return ex, true
		}
	}
	return Exercise{}, false
}
