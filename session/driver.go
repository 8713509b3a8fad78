// Package session drives one browser page through the watch protocol of a single
// video: start marker comment, real-time wait, reply with an end marker.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"watcher/browser"
	"watcher/tasks"
)

type Status string

const (
	// StatusCompleted: start marker and end-marker reply both posted.
	StatusCompleted Status = "completed"
	// StatusNoReply: start marker posted and duration waited, reply not posted.
	StatusNoReply Status = "no_reply"
	// StatusAborted: nothing durable happened, or the run was interrupted.
	StatusAborted Status = "aborted"
)

var ErrStartMarker = errors.New("start marker not posted")

// Result is the outcome of one Watch call. Task is the caller's task with the fields
// this session learned (the title); the caller decides what to persist.
type Result struct {
	Status  Status
	Message string
	Task    tasks.VideoTask
	Err     error
}

// Watched reports whether the task counts as processed.
func (r Result) Watched() bool {
	return r.Status == StatusCompleted || r.Status == StatusNoReply
}

type Options struct {
	Selectors       Selectors
	SettleDelay     time.Duration
	PopupPause      time.Duration
	ReplyClickPause time.Duration
	FocusPause      time.Duration
	AfterSendPause  time.Duration
	TypingDelay     time.Duration
	SendAttempts    int
	SendBackoff     time.Duration
	// ScreenshotPath receives a capture when the reply cannot be sent; empty disables.
	ScreenshotPath string

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultOptions() Options {
	return Options{
		Selectors:       DefaultSelectors(DefaultWaits()),
		SettleDelay:     3 * time.Second,
		PopupPause:      time.Second,
		ReplyClickPause: 500 * time.Millisecond,
		FocusPause:      200 * time.Millisecond,
		AfterSendPause:  500 * time.Millisecond,
		TypingDelay:     40 * time.Millisecond,
		SendAttempts:    3,
		SendBackoff:     time.Second,
		ScreenshotPath:  "debug_reply_failure.png",
	}
}

// Driver runs the protocol on a single page; it is not safe for concurrent use.
type Driver struct {
	page     browser.Page
	identity string
	opts     Options
	log      Logger
}

func NewDriver(page browser.Page, identity string, opts Options, logger Logger) *Driver {
	if logger == nil {
		logger = StdLogger{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	if opts.SendAttempts < 1 {
		opts.SendAttempts = 1
	}
	return &Driver{page: page, identity: identity, opts: opts, log: logger}
}

// Watch processes one task. Only failures before the start marker is posted (or an
// interrupted run) yield StatusAborted; anything that goes wrong afterwards is reported
// as StatusNoReply.
func (d *Driver) Watch(ctx context.Context, task tasks.VideoTask) Result {
	res := Result{Task: task}

	wait, err := task.WatchTime()
	if err != nil {
		return d.abort(res, "cannot parse duration", err)
	}

	if err := d.page.Goto(ctx, task.Link); err != nil {
		return d.abort(res, "navigation failed", err)
	}
	if err := d.opts.Sleep(ctx, d.opts.SettleDelay); err != nil {
		return d.abort(res, "interrupted", err)
	}

	d.dismissPopup(ctx)

	start := tasks.FormatTimestamp(d.opts.Now())
	if err := d.postStartMarker(ctx, start); err != nil {
		return d.abort(res, "start comment not posted", err)
	}
	d.log.Printf("✅ Start marker posted: %s", start)

	res.Task.Title = d.readTitle(ctx)
	d.log.Printf("🎬 Title: %s", res.Task.Title)

	d.log.Printf("▶️  Watching %s for %s", task.Link, wait)
	if err := d.opts.Sleep(ctx, wait); err != nil {
		return d.abort(res, "interrupted while watching", err)
	}

	if msg, err := d.replyWithEndMarker(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return d.abort(res, "interrupted while replying", ctxErr)
		}
		d.log.Printf("⚠️  %s: %v", msg, err)
		res.Status = StatusNoReply
		res.Message = msg
		res.Err = err
		return res
	}

	res.Status = StatusCompleted
	return res
}

func (d *Driver) abort(res Result, msg string, err error) Result {
	d.log.Errorf("%s for %s: %v", msg, res.Task.Link, err)
	res.Status = StatusAborted
	res.Message = msg
	res.Err = err
	return res
}

func (d *Driver) dismissPopup(ctx context.Context) {
	btn, _, err := d.opts.Selectors.PopupClose.Resolve(ctx, d.page)
	if err != nil {
		return
	}
	d.log.Printf("ℹ️  Pop-up detected, closing")
	if err := btn.Click(ctx); err != nil {
		d.log.Printf("⚠️  Could not close pop-up: %v", err)
		return
	}
	_ = d.opts.Sleep(ctx, d.opts.PopupPause)
}

func (d *Driver) postStartMarker(ctx context.Context, text string) error {
	input, _, err := d.opts.Selectors.CommentInput.Resolve(ctx, d.page)
	if err != nil {
		return fmt.Errorf("%w: comment input: %v", ErrStartMarker, err)
	}
	if err := input.Fill(ctx, text); err != nil {
		return fmt.Errorf("%w: fill comment: %v", ErrStartMarker, err)
	}
	submit, _, err := d.opts.Selectors.CommentSubmit.Resolve(ctx, d.page)
	if err != nil {
		return fmt.Errorf("%w: submit control: %v", ErrStartMarker, err)
	}
	if err := submit.Click(ctx); err != nil {
		return fmt.Errorf("%w: submit click: %v", ErrStartMarker, err)
	}
	return nil
}

func (d *Driver) readTitle(ctx context.Context) string {
	el, _, err := d.opts.Selectors.Title.Resolve(ctx, d.page)
	if err != nil {
		return tasks.UnknownTitle
	}
	title, err := el.InnerText(ctx)
	if err != nil {
		return tasks.UnknownTitle
	}
	if title = strings.TrimSpace(title); title == "" {
		return tasks.UnknownTitle
	}
	return title
}

func sleep(ctx context.Context, d time.Duration) error {
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
