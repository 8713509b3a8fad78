// Package browser is the automation boundary: the small set of page operations the
// session driver needs, with playwright-go and go-rod implementations behind it.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when no element matched before the wait ran out.
var ErrNotFound = errors.New("element not found")

// Selector is engine neutral: CSS picks candidates, Text (optional) keeps only those
// whose rendered text contains it.
type Selector struct {
	CSS  string `yaml:"css" json:"css"`
	Text string `yaml:"text,omitempty" json:"text,omitempty"`
}

func CSS(css string) Selector { return Selector{CSS: css} }

func (s Selector) WithText(text string) Selector {
	s.Text = text
	return s
}

func (s Selector) String() string {
	if s.Text == "" {
		return s.CSS
	}
	return fmt.Sprintf("%s[text~%q]", s.CSS, s.Text)
}

// Scope is anything selectors can be evaluated against: a page or an element.
type Scope interface {
	// Query returns nil, nil when nothing matches right now.
	Query(ctx context.Context, sel Selector) (Element, error)
	QueryAll(ctx context.Context, sel Selector) ([]Element, error)
	// WaitFor blocks until a match appears or timeout elapses (ErrNotFound).
	WaitFor(ctx context.Context, sel Selector, timeout time.Duration) (Element, error)
}

type Element interface {
	Scope
	Click(ctx context.Context) error
	Fill(ctx context.Context, value string) error
	// Type sends text one character at a time, pausing delay between characters.
	Type(ctx context.Context, text string, delay time.Duration) error
	InnerText(ctx context.Context) (string, error)
	// Closest evaluates element.closest(css) in the page; nil, nil when there is no
	// such ancestor.
	Closest(ctx context.Context, css string) (Element, error)
}

type Page interface {
	Scope
	Goto(ctx context.Context, url string) error
	Screenshot(ctx context.Context, path string) error
}

// Session owns one browsing context and the single page used for a whole run.
type Session interface {
	Page() Page
	Close() error
}

const (
	EnginePlaywright = "playwright"
	EngineRod        = "rod"
)

type LaunchOptions struct {
	Engine         string
	ProfileDir     string
	Headless       bool
	ExecutablePath string
	// DefaultTimeout bounds navigation and element actions that have no explicit wait.
	DefaultTimeout time.Duration
}

// Open launches a browser with a persistent profile and returns its session.
func Open(ctx context.Context, opts LaunchOptions) (Session, error) {
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = 30 * time.Second
	}
	switch strings.ToLower(opts.Engine) {
	case "", EnginePlaywright:
		s, err := openPlaywright(ctx, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	case EngineRod:
		s, err := openRod(ctx, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown browser engine %q", opts.Engine)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
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
