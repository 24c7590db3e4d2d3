package exercise

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadSentences reads one sentence per line from the provided file path.
// Runs of whitespace inside a line collapse to single spaces.
func LoadSentences(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only sentence list.
			_ = cerr
		}
	}()

	var sentences []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.Join(strings.Fields(scanner.Text()), " ")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sentences = append(sentences, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(sentences) == 0 {
		return nil, fmt.Errorf("sentence list is empty")
	}
	return sentences, nil
}

// Load returns the bundled exercises when path is empty, otherwise the
// exercises built from the sentence file.
func Load(path string) ([]Exercise, error) {
	if path == "" {
		return Builtin(), nil
	}
	sentences, err := LoadSentences(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load sentences: %w", err)
	}
	return FromSentences(sentences), nil
}
