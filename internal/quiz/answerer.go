package quiz

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/randomer/internal/answers"
	"github.com/xkilldash9x/randomer/internal/config"
)

// Question is a classified question container and its normalized text.
type Question struct {
	Element Element
	Kind    Kind
	Text    string
}

// Answerer holds the answer sources shared by all strategies.
type Answerer struct {
	TextAnswers answers.TextAnswers
	Table       answers.Table
	// Ratio is recorded for the run; selection never consults it.
	Ratio     answers.Ratio
	Selectors config.Selectors
	Rng       *rand.Rand
	Logger    *zap.Logger
}

// Supports reports whether the answerer has a strategy for k.
func (a *Answerer) Supports(k Kind) bool {
	return k != KindUnknown
}

// Answer performs the answer action for q according to its kind.
func (a *Answerer) Answer(ctx context.Context, q Question) error {
	switch q.Kind {
	case KindGapselect:
		return a.answerGapselect(ctx, q)
	case KindShortanswer:
		return a.answerShortanswer(ctx, q)
	case KindMultichoice:
		return a.answerMultichoice(ctx, q)
	default:
		return fmt.Errorf("no strategy for %s questions", q.Kind)
	}
}

type selectOption struct {
	value string
	text  string
}

// answerGapselect picks a random non-placeholder option in every dropdown.
func (a *Answerer) answerGapselect(ctx context.Context, q Question) error {
	selects, err := q.Element.QueryAll(ctx, a.Selectors.GapSelect)
	if err != nil {
		return fmt.Errorf("query dropdowns: %w", err)
	}
	for _, sel := range selects {
		options, err := listOptions(ctx, sel)
		if err != nil {
			return err
		}
		// The first option is the empty placeholder.
		if len(options) > 0 {
			options = options[1:]
		}
		if len(options) == 0 {
			return fmt.Errorf("dropdown in %q: %w", q.Text, ErrNoOptions)
		}
		chosen := options[a.Rng.Intn(len(options))]
		if err := sel.SelectValue(ctx, chosen.value); err != nil {
			return fmt.Errorf("select %q: %w", chosen.value, err)
		}
		a.Logger.Info("Selected value",
			zap.String("value", chosen.text),
			zap.String("question", q.Text),
		)
	}
	return nil
}

func listOptions(ctx context.Context, sel Element) ([]selectOption, error) {
	nodes, err := sel.QueryAll(ctx, "option")
	if err != nil {
		return nil, fmt.Errorf("query options: %w", err)
	}
	options := make([]selectOption, 0, len(nodes))
	for _, n := range nodes {
		text, err := ElementText(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("read option text: %w", err)
		}
		value, ok, err := n.Attribute(ctx, "value")
		if err != nil {
			return nil, fmt.Errorf("read option value: %w", err)
		}
		if !ok {
			value = text
		}
		options = append(options, selectOption{value: value, text: text})
	}
	return options, nil
}

// answerShortanswer types a random fallback answer into every text field.
// The answer key is not consulted for this kind.
func (a *Answerer) answerShortanswer(ctx context.Context, q Question) error {
	inputs, err := q.Element.QueryAll(ctx, a.Selectors.TextInput)
	if err != nil {
		return fmt.Errorf("query text inputs: %w", err)
	}
	if len(inputs) == 0 {
		a.Logger.Warn("Short answer question without a text field", zap.String("question", q.Text))
	}
	for _, in := range inputs {
		answer := a.TextAnswers.Pick(a.Rng)
		if err := in.SendKeys(ctx, answer); err != nil {
			return fmt.Errorf("type answer: %w", err)
		}
		a.Logger.Info("Typed answer",
			zap.String("answer", answer),
			zap.String("question", q.Text),
		)
	}
	return nil
}

type choice struct {
	input Element
	label string
}

// answerMultichoice clicks every option resolved for the question.
func (a *Answerer) answerMultichoice(ctx context.Context, q Question) error {
	choices, err := a.listChoices(ctx, q.Element)
	if err != nil {
		return err
	}
	if len(choices) == 0 {
		return fmt.Errorf("multichoice %q: %w", q.Text, ErrNoOptions)
	}

	labels := make([]string, len(choices))
	for i, c := range choices {
		labels[i] = c.label
	}
	picked := ResolveMultichoice(a.Table, q.Text, labels, a.Rng)

	for _, i := range picked {
		if err := choices[i].input.Click(ctx); err != nil {
			return fmt.Errorf("click option %q: %w", choices[i].label, err)
		}
		a.Logger.Info("Clicked option",
			zap.String("option", choices[i].label),
			zap.String("question", q.Text),
		)
	}
	if len(picked) == 0 {
		a.Logger.Warn("Known answers matched no option", zap.String("question", q.Text))
	}
	return nil
}

func (a *Answerer) listChoices(ctx context.Context, question Element) ([]choice, error) {
	boxes, err := question.QueryAll(ctx, a.Selectors.ChoiceBox)
	if err != nil {
		return nil, fmt.Errorf("query option boxes: %w", err)
	}
	choices := make([]choice, 0, len(boxes))
	for _, box := range boxes {
		input, err := First(ctx, box, a.Selectors.ChoiceInput)
		if err != nil {
			return nil, err
		}
		labelEl := box
		if found, err := box.QueryAll(ctx, a.Selectors.ChoiceLabel); err == nil && len(found) > 0 {
			labelEl = found[0]
		}
		label, err := ElementText(ctx, labelEl)
		if err != nil {
			return nil, fmt.Errorf("read option label: %w", err)
		}
		choices = append(choices, choice{input: input, label: label})
	}
	return choices, nil
}

// ResolveMultichoice returns the indexes of labels to click for the question
// titled title. With a loaded table and a record for the title, each accepted
// substring selects the first label containing it; substrings matching nothing
// are skipped and an option is never selected twice. Otherwise exactly one
// label is chosen uniformly at random. labels must not be empty.
func ResolveMultichoice(table answers.Table, title string, labels []string, rng *rand.Rand) []int {
	if table.Loaded() {
		if rec, ok := table.Lookup(answers.CategoryMultichoice, title); ok {
			picked := []int{}
			seen := make(map[int]bool)
			for _, want := range rec.Answers {
				for i, label := range labels {
					if strings.Contains(label, want) {
						if !seen[i] {
							seen[i] = true
							picked = append(picked, i)
						}
						break
					}
				}
			}
			return picked
		}
	}
	return []int{rng.Intn(len(labels))}
}
