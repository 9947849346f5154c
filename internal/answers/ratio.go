package answers

import (
	"context"
	"fmt"
)

// Ratio is the desired share of correct answers, a fraction in [0,1]. It is
// recorded with the run but does not steer answer selection.
type Ratio float64

// FloatAsker asks until the operator enters a number within bounds.
type FloatAsker interface {
	AskFloat(ctx context.Context, label string, min, max float64) (float64, error)
}

// RatioFromPercent converts a percentage in [0,100] to a Ratio.
func RatioFromPercent(percent float64) (Ratio, error) {
	if percent < 0 || percent > 100 {
		return 0, fmt.Errorf("ratio %g%% is outside [0, 100]", percent)
	}
	return Ratio(percent / 100), nil
}

// AskRatio prompts for the desired percentage of correct answers.
func AskRatio(ctx context.Context, p FloatAsker) (Ratio, error) {
	percent, err := p.AskFloat(ctx, "Desired correct answers, %: ", 0, 100)
	if err != nil {
		return 0, fmt.Errorf("ask ratio: %w", err)
	}
	return RatioFromPercent(percent)
}

// Percent returns the ratio as a percentage.
func (r Ratio) Percent() float64 {
	return float64(r) * 100
}
