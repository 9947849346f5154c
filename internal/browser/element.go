package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/randomer/internal/quiz"
)

// element is a DOM node of a session, addressed by its node id.
type element struct {
	session *Session
	node    *cdp.Node
}

var _ quiz.Element = (*element)(nil)

func (e *element) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

func (e *element) run(ctx context.Context, actions ...chromedp.Action) error {
	opCtx, cancel := withTimeout(ctx, e.session.cfg.ActionTimeout)
	defer cancel()
	return e.session.RunActions(opCtx, actions...)
}

func (e *element) QueryAll(ctx context.Context, selector string) ([]quiz.Element, error) {
	return e.session.queryAll(ctx, selector, chromedp.FromNode(e.node))
}

// Attribute reads from the node snapshot taken when the element was queried.
func (e *element) Attribute(_ context.Context, name string) (string, bool, error) {
	v, ok := e.node.Attribute(name)
	return v, ok, nil
}

// Text returns the rendered text, falling back to the text content for nodes
// that render nothing themselves, such as select options.
func (e *element) Text(ctx context.Context) (string, error) {
	var text string
	if err := e.run(ctx, chromedp.Text(e.ids(), &text, chromedp.ByNodeID)); err != nil {
		return "", fmt.Errorf("read text of <%s>: %w", strings.ToLower(e.node.NodeName), err)
	}
	if strings.TrimSpace(text) != "" {
		return text, nil
	}
	if err := e.run(ctx, chromedp.TextContent(e.ids(), &text, chromedp.ByNodeID)); err != nil {
		return "", fmt.Errorf("read text content of <%s>: %w", strings.ToLower(e.node.NodeName), err)
	}
	return text, nil
}

func (e *element) Click(ctx context.Context) error {
	return e.run(ctx, chromedp.Click(e.ids(), chromedp.ByNodeID))
}

func (e *element) SendKeys(ctx context.Context, text string) error {
	return e.run(ctx, chromedp.SendKeys(e.ids(), text, chromedp.ByNodeID))
}

// selectValueJS sets the value of a select and fires change, as a user
// selection would.
const selectValueJS = `function(value) {
	if (!Array.from(this.options).some(o => o.value === value)) return false;
	this.value = value;
	this.dispatchEvent(new Event('input', { bubbles: true }));
	this.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
}`

func (e *element) SelectValue(ctx context.Context, value string) error {
	var ok bool
	err := e.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = runtime.ReleaseObject(obj.ObjectID).Do(ctx) }()

		return chromedp.CallFunctionOn(selectValueJS, &ok,
			func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
				return p.WithObjectID(obj.ObjectID)
			},
			value,
		).Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("select value %q: %w", value, err)
	}
	if !ok {
		return fmt.Errorf("option with value %q not found", value)
	}
	return nil
}
