package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/randomer/internal/config"
	"github.com/xkilldash9x/randomer/internal/quiz"
)

// Session is one browser tab. It implements quiz.Page.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    config.BrowserConfig
	logger *zap.Logger
	loads  *loadTracker

	closeOnce sync.Once
	done      func()
}

var _ quiz.Page = (*Session)(nil)

// GetContext returns the chromedp context of the tab.
func (s *Session) GetContext() context.Context {
	return s.ctx
}

// RunActions runs chromedp actions in the tab, canceled when either the tab
// or ctx is done.
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// withTimeout applies d to ctx unless d is zero.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// Navigate loads url and waits for the body to be ready.
func (s *Session) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := withTimeout(ctx, s.cfg.NavigationTimeout)
	defer cancel()

	s.logger.Debug("Navigating", zap.String("url", url))
	if err := s.RunActions(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// WaitStable waits for loads started by a click to finish. The tab counts as
// stable once no frame has been loading for the post-load wait and the body
// is ready. A click that submits a form starts loading well within that
// window, so the wait also covers navigations that have not begun yet.
func (s *Session) WaitStable(ctx context.Context) error {
	quietPeriod := s.cfg.PostLoadWait
	if quietPeriod <= 0 {
		quietPeriod = defaultPostLoadWait
	}
	waitCtx, cancel := withTimeout(ctx, s.cfg.NavigationTimeout)
	defer cancel()
	waitCtx, stop := CombineContext(s.ctx, waitCtx)
	defer stop()

	s.logger.Debug("Waiting for the page to settle.", zap.Duration("quiet_period", quietPeriod))
	if s.loads != nil {
		if err := s.loads.waitIdle(waitCtx, quietPeriod); err != nil {
			return fmt.Errorf("page did not settle: %w", err)
		}
	}
	if err := s.RunActions(waitCtx, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("page did not settle: %w", err)
	}
	return nil
}

// QueryAll returns the elements currently matching selector. It does not
// wait for more to appear.
func (s *Session) QueryAll(ctx context.Context, selector string) ([]quiz.Element, error) {
	return s.queryAll(ctx, selector)
}

// Query returns the first element matching selector.
func (s *Session) Query(ctx context.Context, selector string) (quiz.Element, error) {
	return quiz.First(ctx, s, selector)
}

func (s *Session) queryAll(ctx context.Context, selector string, opts ...chromedp.QueryOption) ([]quiz.Element, error) {
	opCtx, cancel := withTimeout(ctx, s.cfg.ActionTimeout)
	defer cancel()

	var nodes []*cdp.Node
	opts = append([]chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}, opts...)
	if err := s.RunActions(opCtx, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, err
	}

	out := make([]quiz.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &element{session: s, node: n})
	}
	return out, nil
}

// Close closes the tab. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		if s.done != nil {
			s.done()
		}
	})
}
