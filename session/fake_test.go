package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"watcher/browser"
)

// fakePage is an in-memory stand-in for the automation capability. Elements are keyed
// by Selector.String(); readyAfter makes a key invisible for the first N lookups.
type fakePage struct {
	mu          sync.Mutex
	elems       map[string][]*fakeEl
	readyAfter  map[string]int
	lookups     map[string]int
	waits       map[string][]time.Duration
	gotos       []string
	screenshots []string
	gotoErr     error
}

func newFakePage() *fakePage {
	return &fakePage{
		elems:      map[string][]*fakeEl{},
		readyAfter: map[string]int{},
		lookups:    map[string]int{},
		waits:      map[string][]time.Duration{},
	}
}

func (p *fakePage) add(sel browser.Selector, els ...*fakeEl) {
	for _, el := range els {
		el.page = p
	}
	p.elems[sel.String()] = append(p.elems[sel.String()], els...)
}

func (p *fakePage) lookup(scope string, sel browser.Selector, from map[string][]*fakeEl) []*fakeEl {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := scope + sel.String()
	p.lookups[key]++
	if p.lookups[key] <= p.readyAfter[key] {
		return nil
	}
	return from[sel.String()]
}

func first(els []*fakeEl) browser.Element {
	if len(els) == 0 {
		return nil
	}
	return els[0]
}

func all(els []*fakeEl) []browser.Element {
	out := make([]browser.Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out
}

func (p *fakePage) Goto(_ context.Context, url string) error {
	p.gotos = append(p.gotos, url)
	return p.gotoErr
}

func (p *fakePage) Screenshot(_ context.Context, path string) error {
	p.screenshots = append(p.screenshots, path)
	return nil
}

func (p *fakePage) Query(_ context.Context, sel browser.Selector) (browser.Element, error) {
	return first(p.lookup("", sel, p.elems)), nil
}

func (p *fakePage) QueryAll(_ context.Context, sel browser.Selector) ([]browser.Element, error) {
	return all(p.lookup("", sel, p.elems)), nil
}

func (p *fakePage) WaitFor(ctx context.Context, sel browser.Selector, timeout time.Duration) (browser.Element, error) {
	p.waits[sel.String()] = append(p.waits[sel.String()], timeout)
	if el := first(p.lookup("", sel, p.elems)); el != nil {
		return el, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, browser.ErrNotFound
}

type fakeEl struct {
	id       string
	page     *fakePage
	text     string
	children map[string][]*fakeEl
	closest  map[string]*fakeEl
	clickErr error

	clicks int
	filled string
	typed  string
}

func newEl(id string) *fakeEl {
	return &fakeEl{id: id, children: map[string][]*fakeEl{}, closest: map[string]*fakeEl{}}
}

func (e *fakeEl) add(sel browser.Selector, els ...*fakeEl) *fakeEl {
	for _, el := range els {
		el.page = e.page
	}
	e.children[sel.String()] = append(e.children[sel.String()], els...)
	return e
}

func (e *fakeEl) Query(_ context.Context, sel browser.Selector) (browser.Element, error) {
	return first(e.page.lookup(e.id+">", sel, e.children)), nil
}

func (e *fakeEl) QueryAll(_ context.Context, sel browser.Selector) ([]browser.Element, error) {
	return all(e.page.lookup(e.id+">", sel, e.children)), nil
}

func (e *fakeEl) WaitFor(ctx context.Context, sel browser.Selector, timeout time.Duration) (browser.Element, error) {
	if el := first(e.page.lookup(e.id+">", sel, e.children)); el != nil {
		return el, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, browser.ErrNotFound
}

func (e *fakeEl) Click(context.Context) error {
	e.clicks++
	return e.clickErr
}

func (e *fakeEl) Fill(_ context.Context, v string) error {
	e.filled = v
	return nil
}

func (e *fakeEl) Type(_ context.Context, text string, _ time.Duration) error {
	e.typed += text
	return nil
}

func (e *fakeEl) InnerText(context.Context) (string, error) { return e.text, nil }

func (e *fakeEl) Closest(_ context.Context, css string) (browser.Element, error) {
	if el, ok := e.closest[css]; ok {
		return el, nil
	}
	return nil, nil
}

// recordingLogger keeps log lines for assertions.
type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Printf(format string, v ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func (l *recordingLogger) Errorf(format string, v ...interface{}) {
	l.lines = append(l.lines, "ERROR: "+fmt.Sprintf(format, v...))
}

// sleepRecorder replaces real waiting; failOn makes one duration return an error.
type sleepRecorder struct {
	slept  []time.Duration
	failOn time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.slept = append(s.slept, d)
	if s.failOn != 0 && d == s.failOn {
		return context.Canceled
	}
	return ctx.Err()
}

var errClick = errors.New("element is disabled")
