// File: cmd/main_test.go
package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/randomer/internal/config"
	"github.com/xkilldash9x/randomer/internal/observability"
	"github.com/xkilldash9x/randomer/internal/quiz"
	"github.com/xkilldash9x/randomer/internal/testutil/htmlpage"
)

// resetForTest provides the single source of truth for resetting test state.
func resetForTest(t *testing.T) {
	t.Helper()

	cfgFile = ""
	osExit = os.Exit
	observability.ResetForTest()

	original := openBrowser
	t.Cleanup(func() {
		openBrowser = original
		observability.ResetForTest()
	})
}

// fakeBrowser serves page instead of launching Chrome and records the release.
type fakeBrowser struct {
	page     *htmlpage.Page
	released bool
	err      error
}

func (f *fakeBrowser) install() {
	openBrowser = func(ctx context.Context, _ config.BrowserConfig, _ *zap.Logger) (quiz.Page, func(context.Context), error) {
		if f.err != nil {
			return nil, nil, f.err
		}
		return f.page, func(context.Context) { f.released = true }, nil
	}
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
