package quiz

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/randomer/internal/config"
)

// Operator is the human at the console, asked to step in for layouts the
// answerer cannot handle.
type Operator interface {
	WaitEnter(ctx context.Context, message string) error
}

// RunnerConfig controls one traversal.
type RunnerConfig struct {
	Selectors     config.Selectors
	QuestionDelay time.Duration
	MaxPages      int
	// Submit enables the finish and confirm clicks on the results page.
	// Without it those controls are located and logged only.
	Submit        bool
	UnknownLayout string
}

// RunnerConfigFrom extracts the runner settings from the application config.
func RunnerConfigFrom(cfg *config.Config) RunnerConfig {
	return RunnerConfig{
		Selectors:     cfg.Quiz.Selectors,
		QuestionDelay: cfg.Quiz.QuestionDelay,
		MaxPages:      cfg.Quiz.MaxPages,
		Submit:        cfg.Run.Submit,
		UnknownLayout: cfg.Run.UnknownLayout,
	}
}

// Summary describes what a traversal did.
type Summary struct {
	Pages     int
	Answered  map[Kind]int
	Manual    int
	Skipped   int
	Finished  bool
	Submitted bool
}

// TotalAnswered returns the number of automatically answered questions.
func (s Summary) TotalAnswered() int {
	n := 0
	for _, c := range s.Answered {
		n += c
	}
	return n
}

// Runner walks the quiz page by page.
type Runner struct {
	page     Page
	answerer *Answerer
	operator Operator
	cfg      RunnerConfig
	logger   *zap.Logger
	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRunner builds a runner. operator may be nil, in which case unsupported
// layouts are skipped whatever the configured policy.
func NewRunner(page Page, answerer *Answerer, operator Operator, cfg RunnerConfig, logger *zap.Logger) *Runner {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 200
	}
	return &Runner{
		page:     page,
		answerer: answerer,
		operator: operator,
		cfg:      cfg,
		logger:   logger.Named("runner"),
		sleep:    Sleep,
	}
}

// Run answers every page until the results marker shows up. Lookup failures
// on the live page end the run with an error.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	summary := Summary{Answered: make(map[Kind]int)}

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		markers, err := r.page.QueryAll(ctx, r.cfg.Selectors.ResultsMarker)
		if err != nil {
			return summary, fmt.Errorf("look for results marker: %w", err)
		}
		if len(markers) > 0 {
			submitted, err := r.finish(ctx)
			summary.Finished = err == nil
			summary.Submitted = submitted
			return summary, err
		}

		if summary.Pages >= r.cfg.MaxPages {
			return summary, fmt.Errorf("results page not reached after %d pages", summary.Pages)
		}
		summary.Pages++

		if err := r.answerPage(ctx, &summary); err != nil {
			return summary, err
		}

		r.logger.Info("Going to the next page...", zap.Int("page", summary.Pages))
		next, err := First(ctx, r.page, r.cfg.Selectors.Next)
		if err != nil {
			return summary, err
		}
		if err := next.Click(ctx); err != nil {
			return summary, fmt.Errorf("click next: %w", err)
		}
		if err := r.page.WaitStable(ctx); err != nil {
			return summary, fmt.Errorf("load next page: %w", err)
		}
	}
}

func (r *Runner) answerPage(ctx context.Context, summary *Summary) error {
	containers, err := r.page.QueryAll(ctx, r.cfg.Selectors.Question)
	if err != nil {
		return fmt.Errorf("query questions: %w", err)
	}
	r.logger.Debug("Found questions", zap.Int("count", len(containers)), zap.Int("page", summary.Pages))

	for _, el := range containers {
		q, err := r.inspect(ctx, el)
		if err != nil {
			return err
		}

		if !r.answerer.Supports(q.Kind) {
			manual, err := r.handleUnsupported(ctx, q)
			if err != nil {
				return err
			}
			if manual {
				summary.Manual++
			} else {
				summary.Skipped++
			}
			continue
		}

		if err := r.answerer.Answer(ctx, q); err != nil {
			return fmt.Errorf("answer %s question %q: %w", q.Kind, q.Text, err)
		}
		summary.Answered[q.Kind]++

		// Give the page time to run its own validation.
		if err := r.sleep(ctx, r.cfg.QuestionDelay); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) inspect(ctx context.Context, el Element) (Question, error) {
	class, _, err := el.Attribute(ctx, "class")
	if err != nil {
		return Question{}, fmt.Errorf("read question class: %w", err)
	}
	q := Question{Element: el, Kind: Classify(class)}

	if textEl, err := el.QueryAll(ctx, r.cfg.Selectors.QuestionText); err != nil {
		return Question{}, fmt.Errorf("query question text: %w", err)
	} else if len(textEl) > 0 {
		if q.Text, err = ElementText(ctx, textEl[0]); err != nil {
			return Question{}, fmt.Errorf("read question text: %w", err)
		}
	}
	return q, nil
}

// handleUnsupported applies the unknown-layout policy. It reports whether the
// operator answered the question by hand.
func (r *Runner) handleUnsupported(ctx context.Context, q Question) (bool, error) {
	movingParts, err := q.Element.QueryAll(ctx, r.cfg.Selectors.MovingPartGroup)
	if err != nil {
		return false, fmt.Errorf("query moving parts: %w", err)
	}
	log := r.logger.With(zap.String("question", q.Text), zap.Bool("moving_parts", len(movingParts) > 0))

	if r.cfg.UnknownLayout != config.LayoutPause || r.operator == nil {
		log.Warn("Unknown question type")
		return false, nil
	}

	log.Warn("Cannot answer this question, waiting for the operator")
	if err := r.operator.WaitEnter(ctx, "Cannot answer this question. Please answer it (do not go to the next page!) and press Enter..."); err != nil {
		return false, fmt.Errorf("wait for operator: %w", err)
	}
	return true, nil
}

// finish handles the results page. The finish control is the button in the
// second submit block; the confirmation control is optional.
func (r *Runner) finish(ctx context.Context) (bool, error) {
	r.logger.Info("The test is over! Sending the results...", zap.Bool("submit", r.cfg.Submit))

	blocks, err := r.page.QueryAll(ctx, r.cfg.Selectors.SubmitBlocks)
	if err != nil {
		return false, fmt.Errorf("query submit blocks: %w", err)
	}
	if len(blocks) < 2 {
		return false, fmt.Errorf("%w: finish control (%s #2)", ErrElementNotFound, r.cfg.Selectors.SubmitBlocks)
	}
	finishBtn, err := First(ctx, blocks[1], "button")
	if err != nil {
		return false, err
	}
	if !r.cfg.Submit {
		r.logger.Info("Dry run: finish control located, not clicking.")
	} else {
		if err := finishBtn.Click(ctx); err != nil {
			return false, fmt.Errorf("click finish: %w", err)
		}
		if err := r.page.WaitStable(ctx); err != nil {
			return false, fmt.Errorf("wait after finish: %w", err)
		}
		// The confirmation dialog opens asynchronously.
		if err := r.sleep(ctx, r.cfg.QuestionDelay); err != nil {
			return false, err
		}
	}

	confirmBlocks, err := r.page.QueryAll(ctx, r.cfg.Selectors.ConfirmBlocks)
	if err != nil {
		return false, fmt.Errorf("query confirmation: %w", err)
	}
	if len(confirmBlocks) == 0 {
		return r.cfg.Submit, nil
	}
	confirmBtn, err := First(ctx, confirmBlocks[0], "input")
	if err != nil {
		return false, err
	}
	if !r.cfg.Submit {
		r.logger.Info("Dry run: confirmation control located, not clicking.")
		return false, nil
	}
	if err := confirmBtn.Click(ctx); err != nil {
		return false, fmt.Errorf("click confirm: %w", err)
	}
	if err := r.page.WaitStable(ctx); err != nil {
		return false, fmt.Errorf("wait after confirm: %w", err)
	}
	r.logger.Info("Confirmed the results")
	return true, nil
}

// Sleep pauses for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
