package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		class string
		want  Kind
	}{
		{"que multichoice deferredfeedback notyetanswered", KindMultichoice},
		{"que gapselect deferredfeedback", KindGapselect},
		{"que shortanswer", KindShortanswer},
		{"que match deferredfeedback", KindUnknown},
		{"", KindUnknown},
		{"   ", KindUnknown},
		{"que multichoiceset", KindUnknown},
		{"que\tshortanswer\n", KindShortanswer},
		// Precedence when several recognized tokens are present.
		{"shortanswer gapselect multichoice", KindMultichoice},
		{"shortanswer gapselect", KindGapselect},
		{"que shortanswer multichoice", KindMultichoice},
	}

	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.class))
		})
	}
}

func TestClassifyMultichoiceAlwaysWins(t *testing.T) {
	others := []string{"que", "gapselect", "shortanswer", "match", "deferredfeedback", "ddwtos"}
	for i := range others {
		for j := range others {
			class := others[i] + " multichoice " + others[j]
			assert.Equal(t, KindMultichoice, Classify(class), class)
		}
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "multichoice", KindMultichoice.String())
	assert.Equal(t, "gapselect", KindGapselect.String())
	assert.Equal(t, "shortanswer", KindShortanswer.String())
	assert.Equal(t, "unknown", KindUnknown.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "Which are even?", Normalize("Which   are\neven?"))
	assert.Equal(t, Normalize("a \n\n b"), Normalize(Normalize("a \n\n b")))
}
