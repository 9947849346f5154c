package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xkilldash9x/randomer/internal/textnorm"
)

var (
	// ErrElementNotFound marks a lookup that found nothing on the live page.
	ErrElementNotFound = errors.New("element not found")
	// ErrNoOptions marks a question control with nothing to choose from.
	ErrNoOptions = errors.New("no options to choose from")
)

// Querier finds elements below a root (a page or an element). It must not
// wait for elements to appear: an empty result means none exist right now.
type Querier interface {
	QueryAll(ctx context.Context, selector string) ([]Element, error)
}

// Element is one node of the quiz page.
type Element interface {
	Querier
	Attribute(ctx context.Context, name string) (string, bool, error)
	Text(ctx context.Context) (string, error)
	Click(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
	SelectValue(ctx context.Context, value string) error
}

// Page is a browser tab showing the LMS.
type Page interface {
	Querier
	// Navigate loads url and returns once its document is ready.
	Navigate(ctx context.Context, url string) error
	// WaitStable returns once any load started by the last click has
	// finished and the tab has been quiet for a while. Call it after every
	// click that may leave the page; queries made before it returns can see
	// the old document.
	WaitStable(ctx context.Context) error
}

// First returns the first element matching selector below root.
func First(ctx context.Context, root Querier, selector string) (Element, error) {
	found, err := root.QueryAll(ctx, selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return found[0], nil
}

// Normalize makes question and option text comparable with answer-key
// entries. See textnorm.Normalize.
func Normalize(s string) string {
	return textnorm.Normalize(s)
}

// ElementText returns the element's text, trimmed and normalized.
func ElementText(ctx context.Context, el Element) (string, error) {
	raw, err := el.Text(ctx)
	if err != nil {
		return "", err
	}
	return Normalize(strings.TrimSpace(raw)), nil
}
