package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/randomer/internal/config"
	"github.com/xkilldash9x/randomer/internal/quiz"
)

const testPage = `<!DOCTYPE html><html><body>
<div id="q1" class="que gapselect"><div class="qtext">  The sky
is <span class="control group1"><select id="sel"><option value="">&nbsp;</option><option value="1">blue</option><option value="2">green</option></select></span></div></div>
<div id="q2" class="que shortanswer"><input type="text" id="txt" class="form-control d-inline"></div>
<div id="q3" class="que multichoice"><div class="answer">
<div><input type="radio" id="r0" name="q3"><div data-region="answer-label">foobar</div></div>
<div><input type="radio" id="r1" name="q3"><div data-region="answer-label">baz</div></div>
</div></div>
<div id="status"></div>
<script>document.getElementById('sel').addEventListener('change', e => { document.getElementById('status').textContent = 'changed:' + e.target.value; });</script>
</body></html>`

// newTestSession launches a real Chrome. It runs only when
// RANDOMER_BROWSER_TESTS is set, since CI images do not ship a browser.
func newTestSession(t *testing.T) *Session {
	t.Helper()
	if os.Getenv("RANDOMER_BROWSER_TESTS") == "" {
		t.Skip("set RANDOMER_BROWSER_TESTS=1 to run tests against a real Chrome")
	}

	cfg := config.NewDefaultConfig().Browser
	cfg.Headless = true
	cfg.NavigationTimeout = 20 * time.Second
	cfg.ActionTimeout = 10 * time.Second

	ctx := context.Background()
	m, err := NewManager(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	s, err := m.NewSession(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		assert.NoError(t, m.Shutdown(shutdownCtx))
	})
	return s
}

func TestSessionDrivesElements(t *testing.T) {
	s := newTestSession(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, testPage)
	}))
	defer srv.Close()

	ctx := context.Background()
	require.NoError(t, s.Navigate(ctx, srv.URL))

	questions, err := s.QueryAll(ctx, ".que")
	require.NoError(t, err)
	require.Len(t, questions, 3)

	class, ok, err := questions[0].Attribute(ctx, "class")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, quiz.KindGapselect, quiz.Classify(class))

	qtext, err := quiz.First(ctx, questions[0], ".qtext")
	require.NoError(t, err)
	text, err := quiz.ElementText(ctx, qtext)
	require.NoError(t, err)
	assert.Contains(t, text, "The sky is")
	assert.NotContains(t, text, "\n")

	sel, err := quiz.First(ctx, questions[0], "span.control.group1 > select")
	require.NoError(t, err)
	require.NoError(t, sel.SelectValue(ctx, "2"))
	assert.Error(t, sel.SelectValue(ctx, "42"))

	input, err := s.Query(ctx, "#txt")
	require.NoError(t, err)
	require.NoError(t, input.SendKeys(ctx, "forty two"))

	radio, err := s.Query(ctx, "#r1")
	require.NoError(t, err)
	require.NoError(t, radio.Click(ctx))

	var status, typed string
	var checked bool
	require.NoError(t, s.RunActions(ctx,
		chromedp.Text("#status", &status, chromedp.ByQuery),
		chromedp.Value("#txt", &typed, chromedp.ByQuery),
		chromedp.Evaluate(`document.getElementById('r1').checked`, &checked),
	))
	assert.Equal(t, "changed:2", status)
	assert.Equal(t, "forty two", typed)
	assert.True(t, checked)

	missing, err := s.QueryAll(ctx, ".generaltable")
	require.NoError(t, err)
	assert.Empty(t, missing, "queries do not wait for absent elements")
}

const formPage = `<!DOCTYPE html><html><body>
<form method="post" action="/next"><input type="submit" name="next" id="next" value="Next page"></form>
</body></html>`

func TestSessionWaitStableCoversSlowSubmit(t *testing.T) {
	s := newTestSession(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/next" {
			time.Sleep(300 * time.Millisecond)
			fmt.Fprint(w, `<!DOCTYPE html><html><body><table class="generaltable"></table></body></html>`)
			return
		}
		fmt.Fprint(w, formPage)
	}))
	defer srv.Close()

	ctx := context.Background()
	require.NoError(t, s.Navigate(ctx, srv.URL))

	next, err := s.Query(ctx, "#next")
	require.NoError(t, err)
	require.NoError(t, next.Click(ctx))
	require.NoError(t, s.WaitStable(ctx))

	markers, err := s.QueryAll(ctx, ".generaltable")
	require.NoError(t, err)
	assert.Len(t, markers, 1, "the submitted form's response is displayed")
	stale, err := s.QueryAll(ctx, "#next")
	require.NoError(t, err)
	assert.Empty(t, stale)
}
