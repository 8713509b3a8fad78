// Package runner walks the selected part of the queue, one video at a time, and persists
// the queue after every state change so an interrupted run can be resumed.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"watcher/eventbus"
	"watcher/progress"
	"watcher/session"
	"watcher/tasks"
)

// Driver watches a single task. session.Driver is the production implementation.
type Driver interface {
	Watch(ctx context.Context, task tasks.VideoTask) session.Result
}

// Summary counts what happened to the selected tasks in one run.
type Summary struct {
	Selected  int `json:"selected"`
	Skipped   int `json:"skipped"`
	Completed int `json:"completed"`
	NoReply   int `json:"no_reply"`
	Aborted   int `json:"aborted"`
}

func (s Summary) counts() map[string]int {
	return map[string]int{
		"selected":  s.Selected,
		"skipped":   s.Skipped,
		"completed": s.Completed,
		"no_reply":  s.NoReply,
		"aborted":   s.Aborted,
	}
}

type Runner struct {
	store  progress.Store
	driver Driver
	bus    eventbus.Publisher
	log    session.Logger
	now    func() time.Time
	runID  string

	mu    sync.RWMutex
	queue []tasks.VideoTask
}

type Option func(*Runner)

func WithPublisher(p eventbus.Publisher) Option { return func(r *Runner) { r.bus = p } }

func WithLogger(l session.Logger) Option { return func(r *Runner) { r.log = l } }

func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

func WithRunID(id string) Option { return func(r *Runner) { r.runID = id } }

func New(store progress.Store, driver Driver, opts ...Option) *Runner {
	r := &Runner{
		store:  store,
		driver: driver,
		bus:    eventbus.NopBus{},
		log:    session.StdLogger{},
		now:    time.Now,
		runID:  uuid.NewString(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Runner) RunID() string { return r.runID }

// Snapshot returns a copy of the queue as the run currently sees it.
func (r *Runner) Snapshot() []tasks.VideoTask {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return tasks.Clone(r.queue)
}

// Run processes the selected tasks of queue. The caller's slice is never modified.
// A persistence failure stops the run; a cancelled context stops it after the state of
// the in-flight task has been saved, and ctx.Err() is returned.
func (r *Runner) Run(ctx context.Context, queue []tasks.VideoTask, sel tasks.Selection) (Summary, error) {
	var sum Summary
	if err := sel.Validate(); err != nil {
		return sum, err
	}

	r.mu.Lock()
	r.queue = tasks.Clone(queue)
	r.mu.Unlock()

	picked := tasks.Select(queue, sel)
	sum.Selected = len(picked)
	r.log.Printf("🚀 Run %s: %d of %d videos selected (%s)", r.runID, len(picked), len(queue), sel)
	r.publish(ctx, eventbus.TypeRunStarted, nil, sel.String(), nil)

	for n, i := range picked {
		if err := ctx.Err(); err != nil {
			return r.finish(ctx, sum, err)
		}
		task := r.task(i)
		if task.IsWatched {
			r.log.Printf("⏭️  [%d/%d] Already watched: %s", n+1, len(picked), task.Link)
			sum.Skipped++
			continue
		}
		r.log.Printf("📺 [%d/%d] %s (%s)", n+1, len(picked), task.Link, task.Duration)

		task = r.update(i, func(t *tasks.VideoTask) {
			t.Start = tasks.FormatTimestamp(r.now())
		})
		if err := r.save(ctx); err != nil {
			return r.finish(ctx, sum, err)
		}
		r.publish(ctx, eventbus.TypeTaskStarted, ref(i, task), "", nil)

		res := r.driver.Watch(ctx, task)

		if res.Status == session.StatusAborted {
			task = r.update(i, func(t *tasks.VideoTask) { mergeTitle(t, res.Task) })
			sum.Aborted++
			r.log.Printf("❌ Aborted %s: %s", task.Link, describe(res))
			if err := r.save(ctx); err != nil {
				return r.finish(ctx, sum, err)
			}
			r.publish(ctx, eventbus.TypeTaskAborted, ref(i, task), describe(res), nil)
			if err := ctx.Err(); err != nil {
				return r.finish(ctx, sum, err)
			}
			continue
		}

		task = r.update(i, func(t *tasks.VideoTask) {
			mergeTitle(t, res.Task)
			t.End = tasks.FormatTimestamp(r.now())
			t.IsWatched = true
		})
		if err := r.save(ctx); err != nil {
			return r.finish(ctx, sum, err)
		}
		if res.Status == session.StatusNoReply {
			sum.NoReply++
			r.log.Printf("⚠️  Watched without reply: %s (%s)", task.Link, describe(res))
			r.publish(ctx, eventbus.TypeTaskNoReply, ref(i, task), describe(res), nil)
			continue
		}
		sum.Completed++
		r.log.Printf("✅ Watched: %s", task.Link)
		r.publish(ctx, eventbus.TypeTaskCompleted, ref(i, task), "", nil)
	}
	return r.finish(ctx, sum, nil)
}

func (r *Runner) finish(ctx context.Context, sum Summary, err error) (Summary, error) {
	msg := "finished"
	if err != nil {
		msg = err.Error()
		r.log.Errorf("Run %s stopped: %v", r.runID, err)
	} else {
		r.log.Printf("🏁 Run %s finished: %d completed, %d without reply, %d aborted, %d skipped",
			r.runID, sum.Completed, sum.NoReply, sum.Aborted, sum.Skipped)
	}
	r.publish(ctx, eventbus.TypeRunFinished, nil, msg, sum.counts())
	return sum, err
}

func (r *Runner) task(i int) tasks.VideoTask {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.queue[i]
}

func (r *Runner) update(i int, fn func(*tasks.VideoTask)) tasks.VideoTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.queue[i])
	return r.queue[i]
}

// save persists even after cancellation; the in-flight state must reach the store.
func (r *Runner) save(ctx context.Context) error {
	if err := r.store.Save(context.WithoutCancel(ctx), r.Snapshot()); err != nil {
		return fmt.Errorf("persist progress: %w", err)
	}
	return nil
}

func (r *Runner) publish(ctx context.Context, typ string, task *eventbus.TaskRef, msg string, counts map[string]int) {
	now := r.now()
	evt := eventbus.Event{
		EventID:   eventbus.NewEventID("evt_", now),
		Source:    "watcher",
		Type:      typ,
		Timestamp: now,
		RunID:     r.runID,
		Task:      task,
		Message:   msg,
		Counts:    counts,
	}
	if err := r.bus.Publish(context.WithoutCancel(ctx), evt); err != nil {
		r.log.Printf("⚠️  Failed to publish %s: %v", typ, err)
	}
}

func mergeTitle(dst *tasks.VideoTask, learned tasks.VideoTask) {
	if learned.Title != "" {
		dst.Title = learned.Title
	}
}

func ref(i int, t tasks.VideoTask) *eventbus.TaskRef {
	return &eventbus.TaskRef{Index: i, Link: t.Link, Title: t.Title}
}

func describe(res session.Result) string {
	if res.Err == nil {
		return res.Message
	}
	if res.Message == "" {
		return res.Err.Error()
	}
	return res.Message + ": " + res.Err.Error()
}
