// Package htmlpage is an in-memory quiz.Page over static HTML documents. It
// lets the runner be exercised without a browser: clicks, typing and
// selections are recorded, and clicking an element that matches one of the
// advance selectors starts loading the next document.
//
// Like a real tab, the page keeps showing the old document for a while after
// such a click: the load commits on WaitStable, or on its own once LoadDelay
// further queries have been served from the old document.
package htmlpage

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/xkilldash9x/randomer/internal/quiz"
)

// Action types recorded by the page.
const (
	ActionNavigate = "navigate"
	ActionClick    = "click"
	ActionType     = "type"
	ActionSelect   = "select"
)

// Action is one recorded interaction.
type Action struct {
	Type  string
	ID    string
	Name  string
	Value string
}

// Page serves a fixed sequence of documents.
type Page struct {
	docs    []*goquery.Document
	current int
	// pending counts clicked advances whose documents have not committed.
	pending int
	stale   int

	// AdvanceOn lists selectors whose elements load the next document when clicked.
	AdvanceOn []string
	// Routes maps navigated URLs to document indexes.
	Routes map[string]int
	// LoadDelay is the number of queries answered from the old document
	// after an advancing click. New sets it to 2.
	LoadDelay int
	Actions   []Action
}

var _ quiz.Page = (*Page)(nil)

// New parses the documents in display order.
func New(docs ...string) (*Page, error) {
	p := &Page{Routes: make(map[string]int), LoadDelay: 2}
	for i, src := range docs {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("parse document %d: %w", i, err)
		}
		p.docs = append(p.docs, doc)
	}
	return p, nil
}

// Current returns the index of the displayed document.
func (p *Page) Current() int { return p.current }

// Loading reports whether a clicked advance has not committed yet.
func (p *Page) Loading() bool { return p.pending > 0 }

func (p *Page) commit() {
	p.current += p.pending
	p.pending = 0
	p.stale = 0
}

// Filter returns the recorded actions of type t.
func (p *Page) Filter(t string) []Action {
	var out []Action
	for _, a := range p.Actions {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

// Navigate records the URL and jumps to its routed document, if any.
func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.Actions = append(p.Actions, Action{Type: ActionNavigate, Value: url})
	if idx, ok := p.Routes[url]; ok {
		p.current = idx
		p.pending = 0
		p.stale = 0
	}
	return nil
}

// WaitStable commits any pending load.
func (p *Page) WaitStable(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.commit()
	return nil
}

// QueryAll runs selector against the displayed document.
func (p *Page) QueryAll(ctx context.Context, selector string) ([]quiz.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.pending > 0 {
		if p.stale >= p.LoadDelay {
			p.commit()
		} else {
			p.stale++
		}
	}
	if p.current >= len(p.docs) {
		return nil, fmt.Errorf("no document loaded after %d pages", len(p.docs))
	}
	return p.wrap(p.docs[p.current].Find(selector)), nil
}

func (p *Page) wrap(sel *goquery.Selection) []quiz.Element {
	out := make([]quiz.Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &element{page: p, sel: s})
	})
	return out
}

func (p *Page) record(t string, s *goquery.Selection, value string) {
	id, _ := s.Attr("id")
	name, _ := s.Attr("name")
	p.Actions = append(p.Actions, Action{Type: t, ID: id, Name: name, Value: value})
}

type element struct {
	page *Page
	sel  *goquery.Selection
}

func (e *element) QueryAll(ctx context.Context, selector string) ([]quiz.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.page.wrap(e.sel.Find(selector)), nil
}

func (e *element) Attribute(_ context.Context, name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

func (e *element) Text(_ context.Context) (string, error) {
	return e.sel.Text(), nil
}

func (e *element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, _ := e.sel.Attr("value")
	e.page.record(ActionClick, e.sel, value)

	if e.sel.Is("input[type=radio], input[type=checkbox]") {
		e.sel.SetAttr("checked", "checked")
	}
	for _, selector := range e.page.AdvanceOn {
		if e.sel.Is(selector) {
			e.page.pending++
			break
		}
	}
	return nil
}

func (e *element) SendKeys(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	current, _ := e.sel.Attr("value")
	e.sel.SetAttr("value", current+text)
	e.page.record(ActionType, e.sel, text)
	return nil
}

func (e *element) SelectValue(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var matched *goquery.Selection
	e.sel.Find("option").EachWithBreak(func(_ int, o *goquery.Selection) bool {
		v, ok := o.Attr("value")
		if !ok {
			v = o.Text()
		}
		if v == value {
			matched = o
			return false
		}
		return true
	})
	if matched == nil {
		return fmt.Errorf("option with value %q not found", value)
	}
	e.sel.Find("option").RemoveAttr("selected")
	matched.SetAttr("selected", "selected")
	e.page.record(ActionSelect, e.sel, value)
	return nil
}
