package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Pick string

const (
	PickFirst Pick = "first"
	PickLast  Pick = "last"
)

// Strategy is one way of finding an element. With a Timeout it waits for the selector,
// without one it only looks at what is on the page now. PickLast takes the last of all
// current matches.
type Strategy struct {
	Name     string        `yaml:"name"`
	Selector Selector      `yaml:",inline"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
	Pick     Pick          `yaml:"pick,omitempty"`
}

// Chain is an ordered fallback list; the first strategy that finds something wins.
type Chain []Strategy

func Single(name string, sel Selector, timeout time.Duration) Chain {
	return Chain{{Name: name, Selector: sel, Timeout: timeout}}
}

// Resolve walks the chain against scope. It returns ErrNotFound when every strategy
// missed, or the context error if ctx ended while waiting.
func (c Chain) Resolve(ctx context.Context, scope Scope) (Element, Strategy, error) {
	if len(c) == 0 {
		return nil, Strategy{}, fmt.Errorf("%w: empty locator chain", ErrNotFound)
	}
	var tried []string
	for _, s := range c {
		el, err := s.find(ctx, scope)
		if el != nil && err == nil {
			return el, s, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, s, ctxErr
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			tried = append(tried, fmt.Sprintf("%s (%v)", s.label(), err))
			continue
		}
		tried = append(tried, s.label())
	}
	return nil, Strategy{}, fmt.Errorf("%w: tried %s", ErrNotFound, strings.Join(tried, ", "))
}

func (s Strategy) find(ctx context.Context, scope Scope) (Element, error) {
	switch {
	case s.Pick == PickLast:
		els, err := scope.QueryAll(ctx, s.Selector)
		if err != nil {
			return nil, err
		}
		if len(els) == 0 {
			return nil, ErrNotFound
		}
		return els[len(els)-1], nil
	case s.Timeout > 0:
		return scope.WaitFor(ctx, s.Selector, s.Timeout)
	default:
		el, err := scope.Query(ctx, s.Selector)
		if err != nil {
			return nil, err
		}
		if el == nil {
			return nil, ErrNotFound
		}
		return el, nil
	}
}

func (s Strategy) label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Selector.String()
}

// Interpolate replaces ${key} placeholders in every selector of the chain.
func (c Chain) Interpolate(params map[string]string) Chain {
	out := make(Chain, len(c))
	for i, s := range c {
		s.Selector.CSS = interpolate(s.Selector.CSS, params)
		s.Selector.Text = interpolate(s.Selector.Text, params)
		out[i] = s
	}
	return out
}

func interpolate(s string, params map[string]string) string {
	for key, value := range params {
		s = strings.ReplaceAll(s, "${"+key+"}", value)
	}
	return s
}
