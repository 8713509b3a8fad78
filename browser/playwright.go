package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	pw "github.com/playwright-community/playwright-go"
)

type pwSession struct {
	pw   *pw.Playwright
	bctx pw.BrowserContext
	page *pwPage
}

func openPlaywright(ctx context.Context, opts LaunchOptions) (*pwSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	instance, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start Playwright: %w", err)
	}

	launch := pw.BrowserTypeLaunchPersistentContextOptions{
		Headless: pw.Bool(opts.Headless),
	}
	executablePath := opts.ExecutablePath
	if executablePath == "" {
		executablePath = os.Getenv("PLAYWRIGHT_EXECUTABLE_PATH")
	}
	if executablePath != "" {
		launch.ExecutablePath = pw.String(executablePath)
		log.Printf("🚀 Using browser executable: %s", executablePath)
	}

	bctx, err := instance.Chromium.LaunchPersistentContext(opts.ProfileDir, launch)
	if err != nil {
		_ = instance.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	var page pw.Page
	if pages := bctx.Pages(); len(pages) > 0 {
		page = pages[0]
	} else if page, err = bctx.NewPage(); err != nil {
		_ = bctx.Close()
		_ = instance.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(millis(opts.DefaultTimeout))
	page.SetDefaultNavigationTimeout(millis(opts.DefaultTimeout))

	return &pwSession{pw: instance, bctx: bctx, page: &pwPage{page: page}}, nil
}

func (s *pwSession) Page() Page { return s.page }

func (s *pwSession) Close() error {
	err := s.bctx.Close()
	if stopErr := s.pw.Stop(); err == nil {
		err = stopErr
	}
	return err
}

// pwSelector renders a Selector in Playwright's selector syntax.
func pwSelector(sel Selector) string {
	switch {
	case sel.Text == "":
		return sel.CSS
	case sel.CSS == "":
		return "text=" + sel.Text
	default:
		return sel.CSS + ":has-text(" + strconv.Quote(sel.Text) + ")"
	}
}

func millis(d time.Duration) float64 {
	return float64(d / time.Millisecond)
}

func pwWaitErr(err error, sel Selector) error {
	if errors.Is(err, pw.ErrTimeout) {
		return fmt.Errorf("%w: %s", ErrNotFound, sel)
	}
	return err
}

type pwPage struct {
	page pw.Page
}

func (p *pwPage) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, pw.PageGotoOptions{WaitUntil: pw.WaitUntilStateLoad})
	return err
}

func (p *pwPage) Screenshot(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Screenshot(pw.PageScreenshotOptions{
		Path:     pw.String(path),
		FullPage: pw.Bool(false),
	})
	return err
}

func (p *pwPage) Query(ctx context.Context, sel Selector) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, err := p.page.QuerySelector(pwSelector(sel))
	return wrapHandle(h, err)
}

func (p *pwPage) QueryAll(ctx context.Context, sel Selector) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hs, err := p.page.QuerySelectorAll(pwSelector(sel))
	return wrapHandles(hs, err)
}

func (p *pwPage) WaitFor(ctx context.Context, sel Selector, timeout time.Duration) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, err := p.page.WaitForSelector(pwSelector(sel), pw.PageWaitForSelectorOptions{
		Timeout: pw.Float(millis(timeout)),
	})
	if err != nil {
		return nil, pwWaitErr(err, sel)
	}
	return wrapHandle(h, nil)
}

type pwElement struct {
	h pw.ElementHandle
}

func wrapHandle(h pw.ElementHandle, err error) (Element, error) {
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, nil
	}
	return &pwElement{h: h}, nil
}

func wrapHandles(hs []pw.ElementHandle, err error) ([]Element, error) {
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			out = append(out, &pwElement{h: h})
		}
	}
	return out, nil
}

func (e *pwElement) Query(ctx context.Context, sel Selector) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, err := e.h.QuerySelector(pwSelector(sel))
	return wrapHandle(h, err)
}

func (e *pwElement) QueryAll(ctx context.Context, sel Selector) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hs, err := e.h.QuerySelectorAll(pwSelector(sel))
	return wrapHandles(hs, err)
}

func (e *pwElement) WaitFor(ctx context.Context, sel Selector, timeout time.Duration) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, err := e.h.WaitForSelector(pwSelector(sel), pw.ElementHandleWaitForSelectorOptions{
		Timeout: pw.Float(millis(timeout)),
	})
	if err != nil {
		return nil, pwWaitErr(err, sel)
	}
	return wrapHandle(h, nil)
}

func (e *pwElement) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.h.Click()
}

func (e *pwElement) Fill(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.h.Fill(value)
}

func (e *pwElement) Type(ctx context.Context, text string, delay time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.h.Type(text, pw.ElementHandleTypeOptions{Delay: pw.Float(millis(delay))})
}

func (e *pwElement) InnerText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.h.InnerText()
}

func (e *pwElement) Closest(ctx context.Context, css string) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	js, err := e.h.EvaluateHandle("(el, sel) => el.closest(sel)", css)
	if err != nil {
		return nil, err
	}
	return wrapHandle(js.AsElement(), nil)
}
