// Package answers loads the sources the quiz answerer draws from: the
// fallback free-text list, the known-answers table, the operator's
// credentials and the desired correct ratio.
package answers

import (
	"bufio"
	"math/rand"
	"os"
	"strings"
)

// DefaultTextAnswer is used when no fallback list is available.
const DefaultTextAnswer = "i don't know("

// TextAnswers is the ordered list of fallback free-text answers. It is never
// empty once loaded.
type TextAnswers []string

// LoadTextAnswers reads one answer per non-blank line, trimmed. A missing,
// unreadable or blank file yields the single built-in answer.
func LoadTextAnswers(path string) TextAnswers {
	f, err := os.Open(path)
	if err != nil {
		return TextAnswers{DefaultTextAnswer}
	}
	defer f.Close()

	var list TextAnswers
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			list = append(list, line)
		}
	}
	if scanner.Err() != nil || len(list) == 0 {
		return TextAnswers{DefaultTextAnswer}
	}
	return list
}

// Pick returns one answer chosen uniformly at random.
func (t TextAnswers) Pick(rng *rand.Rand) string {
	if len(t) == 0 {
		return DefaultTextAnswer
	}
	return t[rng.Intn(len(t))]
}
