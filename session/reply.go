package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v5"

	"watcher/browser"
	"watcher/tasks"
)

var ErrReplyNotSent = errors.New("reply not sent")

// replyWithEndMarker finds the operator's own comment and answers it with the end
// timestamp. The returned message describes which step failed.
func (d *Driver) replyWithEndMarker(ctx context.Context) (string, error) {
	end := tasks.FormatTimestamp(d.opts.Now())
	sel := d.opts.Selectors

	own := sel.OwnComment.Interpolate(map[string]string{"channel": d.identity})
	author, _, err := own.Resolve(ctx, d.page)
	if err != nil {
		return "own comment not found, reply skipped", err
	}
	block, err := author.Closest(ctx, sel.CommentBlock)
	if err != nil {
		return "comment block lookup failed", err
	}
	if block == nil {
		return "comment block not found", browser.ErrNotFound
	}

	replyBtn, _, err := sel.ReplyButton.Resolve(ctx, block)
	if err != nil {
		return "reply control not found", err
	}
	if err := replyBtn.Click(ctx); err != nil {
		return "reply control click failed", err
	}
	_ = d.opts.Sleep(ctx, d.opts.ReplyClickPause)

	var (
		scope    browser.Scope = d.page
		sendWith               = sel.SendButtonFallback
		field    browser.Element
	)
	if wrapper, _, werr := sel.ReplyWrapper.Resolve(ctx, d.page); werr == nil {
		scope = wrapper
		sendWith = sel.SendButton
		field, _, err = sel.ReplyInput.Resolve(ctx, wrapper)
	} else {
		if ctx.Err() != nil {
			return "interrupted", ctx.Err()
		}
		d.log.Printf("⚠️  Reply wrapper did not appear (%v), using last reply input on the page", werr)
		field, _, err = sel.ReplyInputFallback.Resolve(ctx, d.page)
	}
	if err != nil {
		return "reply input not found", err
	}

	if err := field.Click(ctx); err != nil {
		return "reply input focus failed", err
	}
	_ = d.opts.Sleep(ctx, d.opts.FocusPause)
	if err := field.Type(ctx, end, d.opts.TypingDelay); err != nil {
		return "typing end marker failed", err
	}

	if err := d.send(ctx, scope, sendWith, field); err != nil {
		d.captureFailure(ctx)
		return "send control never became enabled", fmt.Errorf("%w: %v", ErrReplyNotSent, err)
	}
	d.log.Printf("✅ Reply posted: %s", end)
	return "", nil
}

// send retries locating and clicking an enabled send control; the reply field is
// clicked again after each miss so the page re-evaluates the button state.
func (d *Driver) send(ctx context.Context, scope browser.Scope, chain browser.Chain, field browser.Element) error {
	attempt := 0
	op := func() (struct{}, error) {
		attempt++
		btn, _, err := chain.Resolve(ctx, scope)
		if err == nil {
			err = btn.Click(ctx)
		}
		if err == nil {
			return struct{}{}, nil
		}
		if ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(ctx.Err())
		}
		d.log.Printf("⚠️  Attempt %d/%d: send control not ready (%v)", attempt, d.opts.SendAttempts, err)
		_ = field.Click(ctx)
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(d.opts.SendBackoff)),
		backoff.WithMaxTries(uint(d.opts.SendAttempts)),
	)
	if err != nil {
		return err
	}
	_ = d.opts.Sleep(ctx, d.opts.AfterSendPause)
	return nil
}

func (d *Driver) captureFailure(ctx context.Context) {
	if d.opts.ScreenshotPath == "" {
		return
	}
	if err := d.page.Screenshot(ctx, d.opts.ScreenshotPath); err != nil {
		d.log.Printf("⚠️  Screenshot failed: %v", err)
		return
	}
	d.log.Printf("📸 Screenshot saved: %s", d.opts.ScreenshotPath)
}
