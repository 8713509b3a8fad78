package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rodPage
}

func openRod(ctx context.Context, opts LaunchOptions) (*rodSession, error) {
	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage")
	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}
	executablePath := opts.ExecutablePath
	if executablePath == "" {
		executablePath = os.Getenv("PLAYWRIGHT_EXECUTABLE_PATH")
	}
	if executablePath != "" {
		l = l.Bin(executablePath)
		log.Printf("🚀 Using browser executable: %s", executablePath)
	}

	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	var page *rod.Page
	if pages, err := b.Pages(); err == nil && len(pages) > 0 {
		page = pages.First()
	} else if page, err = b.Page(proto.TargetCreateTarget{}); err != nil {
		_ = b.Close()
		l.Cleanup()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return &rodSession{
		launcher: l,
		browser:  b,
		page:     &rodPage{page: page, timeout: opts.DefaultTimeout},
	}, nil
}

func (s *rodSession) Page() Page { return s.page }

func (s *rodSession) Close() error {
	err := s.browser.Close()
	s.launcher.Cleanup()
	return err
}

// rodTextPattern turns Selector.Text into the JS regex rod's *R lookups expect.
func rodTextPattern(text string) string {
	return regexp.QuoteMeta(text)
}

func rodWaitErr(ctx context.Context, err error, sel Selector) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var nf *rod.ElementNotFoundError
	if errors.Is(err, ErrNotFound) || errors.Is(err, context.DeadlineExceeded) || errors.As(err, &nf) {
		return fmt.Errorf("%w: %s", ErrNotFound, sel)
	}
	return err
}

// rodFinder is the subset shared by *rod.Page and *rod.Element.
type rodFinder interface {
	Has(selector string) (bool, *rod.Element, error)
	HasR(selector, jsRegex string) (bool, *rod.Element, error)
	Element(selector string) (*rod.Element, error)
	ElementR(selector, jsRegex string) (*rod.Element, error)
	Elements(selector string) (rod.Elements, error)
}

func rodQuery(f rodFinder, sel Selector) (Element, error) {
	var (
		ok  bool
		el  *rod.Element
		err error
	)
	if sel.Text == "" {
		ok, el, err = f.Has(sel.CSS)
	} else {
		ok, el, err = f.HasR(sel.CSS, rodTextPattern(sel.Text))
	}
	if err != nil {
		return nil, err
	}
	if !ok || el == nil {
		return nil, nil
	}
	return &rodElement{el: el}, nil
}

func rodQueryAll(f rodFinder, sel Selector) ([]Element, error) {
	els, err := f.Elements(sel.CSS)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		if sel.Text != "" {
			txt, err := el.Text()
			if err != nil || !strings.Contains(txt, sel.Text) {
				continue
			}
		}
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func rodWait(f rodFinder, sel Selector) (Element, error) {
	var (
		el  *rod.Element
		err error
	)
	if sel.Text == "" {
		el, err = f.Element(sel.CSS)
	} else {
		el, err = f.ElementR(sel.CSS, rodTextPattern(sel.Text))
	}
	if err != nil {
		return nil, err
	}
	return &rodElement{el: el}, nil
}

const rodPollInterval = 100 * time.Millisecond

// rodPoll repeats an immediate lookup on f until it matches or timeout passes.
func rodPoll(ctx context.Context, f rodFinder, sel Selector, timeout, interval time.Duration) (Element, error) {
	deadline := time.Now().Add(timeout)
	for {
		el, err := rodQuery(f, sel)
		if err != nil {
			return nil, err
		}
		if el != nil {
			return el, nil
		}
		left := time.Until(deadline)
		if left <= 0 {
			return nil, ErrNotFound
		}
		if err := sleepCtx(ctx, min(interval, left)); err != nil {
			return nil, err
		}
	}
}

type rodPage struct {
	page    *rod.Page
	timeout time.Duration
}

func (p *rodPage) Goto(ctx context.Context, url string) error {
	pg := p.page.Context(ctx).Timeout(p.timeout)
	if err := pg.Navigate(url); err != nil {
		return err
	}
	return pg.WaitLoad()
}

func (p *rodPage) Screenshot(ctx context.Context, path string) error {
	data, err := p.page.Context(ctx).Screenshot(false, nil)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (p *rodPage) Query(ctx context.Context, sel Selector) (Element, error) {
	return rodQuery(p.page.Context(ctx), sel)
}

func (p *rodPage) QueryAll(ctx context.Context, sel Selector) ([]Element, error) {
	return rodQueryAll(p.page.Context(ctx), sel)
}

func (p *rodPage) WaitFor(ctx context.Context, sel Selector, timeout time.Duration) (Element, error) {
	el, err := rodWait(p.page.Context(ctx).Timeout(timeout), sel)
	if err != nil {
		return nil, rodWaitErr(ctx, err, sel)
	}
	return el, nil
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Query(ctx context.Context, sel Selector) (Element, error) {
	return rodQuery(e.el.Context(ctx), sel)
}

func (e *rodElement) QueryAll(ctx context.Context, sel Selector) ([]Element, error) {
	return rodQueryAll(e.el.Context(ctx), sel)
}

// WaitFor polls: element-scoped lookups in rod use the not-found sleeper and never
// retry on their own.
func (e *rodElement) WaitFor(ctx context.Context, sel Selector, timeout time.Duration) (Element, error) {
	el, err := rodPoll(ctx, e.el.Context(ctx), sel, timeout, rodPollInterval)
	if err != nil {
		return nil, rodWaitErr(ctx, err, sel)
	}
	return el, nil
}

func (e *rodElement) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Fill(ctx context.Context, value string) error {
	el := e.el.Context(ctx)
	// contenteditable nodes have no selection API; Input still works on them
	_ = el.SelectAllText()
	return el.Input(value)
}

func (e *rodElement) Type(ctx context.Context, text string, delay time.Duration) error {
	el := e.el.Context(ctx)
	if err := el.Focus(); err != nil {
		return err
	}
	page := el.Page()
	for _, r := range text {
		if err := page.InsertText(string(r)); err != nil {
			return err
		}
		if err := sleepCtx(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

func (e *rodElement) InnerText(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e *rodElement) Closest(ctx context.Context, css string) (Element, error) {
	el, err := e.el.Context(ctx).ElementByJS(rod.Eval(`(sel) => this.closest(sel)`, css))
	if err != nil {
		var nf *rod.ElementNotFoundError
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, err
	}
	return &rodElement{el: el}, nil
}
