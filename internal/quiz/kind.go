// Package quiz classifies the questions of a live quiz page, answers them and
// walks the quiz page by page until the results screen appears.
package quiz

import "strings"

// Kind is the question type derived from a question container's classes.
type Kind int

const (
	KindUnknown Kind = iota
	KindMultichoice
	KindGapselect
	KindShortanswer
)

// kindPriority is the order in which class tokens are tested.
var kindPriority = []Kind{KindMultichoice, KindGapselect, KindShortanswer}

func (k Kind) String() string {
	switch k {
	case KindMultichoice:
		return "multichoice"
	case KindGapselect:
		return "gapselect"
	case KindShortanswer:
		return "shortanswer"
	default:
		return "unknown"
	}
}

// Classify maps a class attribute value to a Kind. When several recognized
// tokens are present the first in multichoice, gapselect, shortanswer order
// wins.
func Classify(classAttr string) Kind {
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(classAttr) {
		tokens[tok] = struct{}{}
	}
	for _, k := range kindPriority {
		if _, ok := tokens[k.String()]; ok {
			return k
		}
	}
	return KindUnknown
}
