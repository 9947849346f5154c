// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/randomer/internal/answers"
	"github.com/xkilldash9x/randomer/internal/browser"
	"github.com/xkilldash9x/randomer/internal/config"
	"github.com/xkilldash9x/randomer/internal/observability"
	"github.com/xkilldash9x/randomer/internal/prompt"
	"github.com/xkilldash9x/randomer/internal/quiz"
)

// runFlagKeys maps the run flags to their configuration keys.
var runFlagKeys = map[string]string{
	"url":            "run.url",
	"submit":         "run.submit",
	"hold-open":      "run.hold_open",
	"unknown-layout": "run.unknown_layout",
	"ratio":          "run.ratio",
	"headless":       "browser.headless",
}

const releaseTimeout = 15 * time.Second

// openBrowser launches Chrome and opens the tab the quiz runs in. The
// returned release func closes both. Tests replace it.
var openBrowser = func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (quiz.Page, func(context.Context), error) {
	m, err := browser.NewManager(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	s, err := m.NewSession(ctx)
	if err != nil {
		_ = m.Shutdown(ctx)
		return nil, nil, err
	}
	release := func(ctx context.Context) {
		s.Close()
		if err := m.Shutdown(ctx); err != nil {
			logger.Warn("Browser shutdown failed", zap.Error(err))
		}
	}
	return s, release, nil
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Log in, take the quiz and stop on the results page",
		Long: `Run logs into the LMS with the saved credentials (asking for them on the
first run), opens the quiz and answers it page by page.

By default the results are not submitted: the finish and confirmation
controls are only located. Pass --submit to click them.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := loadConfig(cmd, runFlagKeys)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}
			console := prompt.New(cmd.InOrStdin(), cmd.OutOrStdout())
			return runQuiz(cmd.Context(), cfg, console, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("url", "", `URL of the "begin the testing" page (asked when empty)`)
	cmd.Flags().Bool("submit", false, "click the finish and confirmation controls on the results page")
	cmd.Flags().Bool("hold-open", true, "keep the browser open after the run until interrupted")
	cmd.Flags().String("unknown-layout", config.LayoutPause, `what to do with unsupported questions: "pause" or "skip"`)
	cmd.Flags().Float64("ratio", -1, "desired percentage of correct answers (asked when negative)")
	cmd.Flags().Bool("headless", false, "run Chrome without a window")
	return cmd
}

// runQuiz is the whole run: answer sources, login, the page loop and the
// final hold.
func runQuiz(ctx context.Context, cfg *config.Config, console *prompt.Console, out io.Writer) error {
	logger := observability.RunLogger(observability.NewRunID())
	logger.Info("Starting Randomer", zap.String("version", Version), zap.Bool("submit", cfg.Run.Submit))

	textAnswers := answers.LoadTextAnswers(cfg.Files.TextAnswers)
	logger.Info("Loaded text answers", zap.Int("count", len(textAnswers)))
	table := answers.LoadTable(cfg.Files.AnswerKey, logger)

	ratio, err := resolveRatio(ctx, cfg.Run.Ratio, console)
	if err != nil {
		return gracefulStop(logger, err)
	}
	logger.Info("Desired ratio recorded", zap.Float64("percent", ratio.Percent()))

	store := answers.CredentialStore{Path: cfg.Files.Credentials, Logger: logger}
	creds, err := store.Resolve(ctx, console)
	if err != nil {
		return gracefulStop(logger, err)
	}

	page, release, err := openBrowser(ctx, cfg.Browser, logger)
	if err != nil {
		return gracefulStop(logger, err)
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		release(releaseCtx)
	}()

	if err := quiz.Login(ctx, page, creds, cfg.LMS, logger); err != nil {
		return gracefulStop(logger, err)
	}

	url := cfg.Run.URL
	if url == "" {
		if url, err = console.Ask(ctx, `URL of "begin the testing" page: `); err != nil {
			return gracefulStop(logger, err)
		}
	}
	if err := quiz.Start(ctx, page, url, cfg.Quiz.Selectors, logger); err != nil {
		return gracefulStop(logger, err)
	}

	answerer := &quiz.Answerer{
		TextAnswers: textAnswers,
		Table:       table,
		Ratio:       ratio,
		Selectors:   cfg.Quiz.Selectors,
		Rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		Logger:      logger.Named("answerer"),
	}
	runner := quiz.NewRunner(page, answerer, console, quiz.RunnerConfigFrom(cfg), logger)
	summary, err := runner.Run(ctx)
	printSummary(out, summary)
	if err != nil {
		return gracefulStop(logger, fmt.Errorf("quiz run: %w", err))
	}

	if cfg.Run.HoldOpen {
		logger.Info("Do anything you need with this page")
		console.Println("The browser stays open. Press Ctrl+C to close it.")
		<-ctx.Done()
	}
	return nil
}

// resolveRatio uses the configured percentage, or asks when it is negative.
func resolveRatio(ctx context.Context, percent float64, asker answers.FloatAsker) (answers.Ratio, error) {
	if percent >= 0 {
		return answers.RatioFromPercent(percent)
	}
	return answers.AskRatio(ctx, asker)
}

// gracefulStop swallows errors caused by an interrupt.
func gracefulStop(logger *zap.Logger, err error) error {
	if errors.Is(err, context.Canceled) {
		logger.Warn("Run interrupted, releasing the browser")
		return nil
	}
	return err
}

func printSummary(out io.Writer, s quiz.Summary) {
	r := lipgloss.NewRenderer(out)
	title := r.NewStyle().Bold(true)
	value := r.NewStyle().Foreground(lipgloss.Color("39"))

	var perKind []string
	for _, k := range []quiz.Kind{quiz.KindMultichoice, quiz.KindGapselect, quiz.KindShortanswer} {
		if n := s.Answered[k]; n > 0 {
			perKind = append(perKind, fmt.Sprintf("%s %d", k, n))
		}
	}
	answered := fmt.Sprint(s.TotalAnswered())
	if len(perKind) > 0 {
		answered += " (" + strings.Join(perKind, ", ") + ")"
	}

	results := "not reached"
	if s.Finished {
		results = "reached"
	}
	submitted := "no"
	if s.Submitted {
		submitted = "yes"
	}

	rows := [][2]string{
		{"Pages visited", fmt.Sprint(s.Pages)},
		{"Answered", answered},
		{"Answered by hand", fmt.Sprint(s.Manual)},
		{"Skipped", fmt.Sprint(s.Skipped)},
		{"Results page", results},
		{"Submitted", submitted},
	}
	fmt.Fprintln(out, title.Render("Run summary"))
	for _, row := range rows {
		fmt.Fprintf(out, "  %-17s %s\n", row[0]+":", value.Render(row[1]))
	}
}
