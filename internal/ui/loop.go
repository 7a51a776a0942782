// Package ui provides the page's single-threaded event loop. Posted tasks,
// timers, animation frames and paint hooks all run on the goroutine that
// calls Run, so code driven by the loop needs no locking of its own.
package ui

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/harmonica"
)

// DefaultFPS is the frame rate used when Options.FPS is not positive.
const DefaultFPS = 60

// Options configures a Loop.
type Options struct {
	FPS    int
	Logger *slog.Logger
}

type callback struct {
	id int
	fn func()
}

type timer struct {
	callback
	due time.Time
}

// Loop is a single-threaded scheduler. Post may be called from any
// goroutine; the other methods are safe to call from any goroutine too, but
// callbacks only ever run on the loop goroutine.
type Loop struct {
	mu        sync.Mutex
	tasks     []func()
	timers    []timer
	frames    []callback
	paint     []func()
	dirty     bool
	nextID    int
	nextFrame time.Time

	interval time.Duration
	wake     chan struct{}
	log      *slog.Logger
}

// NewLoop creates a loop pacing animation frames at opts.FPS.
func NewLoop(opts Options) *Loop {
	fps := opts.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Loop{
		interval: time.Duration(harmonica.FPS(fps) * float64(time.Second)),
		wake:     make(chan struct{}, 1),
		log:      log,
	}
}

// FrameInterval returns the time between animation frames.
func (l *Loop) FrameInterval() time.Duration {
	return l.interval
}

func (l *Loop) id() int {
	l.nextID++
	return l.nextID
}

func (l *Loop) notify() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Post queues fn to run on the loop goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.notify()
}

// RequestAnimationFrame schedules fn for the next frame and returns a handle
// for CancelAnimationFrame. Callbacks requested while a frame is running run
// on the following frame.
func (l *Loop) RequestAnimationFrame(fn func()) int {
	l.mu.Lock()
	id := l.id()
	l.frames = append(l.frames, callback{id: id, fn: fn})
	l.mu.Unlock()
	l.notify()
	return id
}

// CancelAnimationFrame removes a pending frame callback. Unknown handles are
// ignored.
func (l *Loop) CancelAnimationFrame(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frames = slices.DeleteFunc(l.frames, func(c callback) bool { return c.id == id })
}

// SetTimeout runs fn once after d and returns a handle for ClearTimeout.
func (l *Loop) SetTimeout(fn func(), d time.Duration) int {
	l.mu.Lock()
	id := l.id()
	l.timers = append(l.timers, timer{callback: callback{id: id, fn: fn}, due: time.Now().Add(d)})
	l.mu.Unlock()
	l.notify()
	return id
}

// ClearTimeout cancels a pending timeout. Unknown handles are ignored.
func (l *Loop) ClearTimeout(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.timers = slices.DeleteFunc(l.timers, func(t timer) bool { return t.id == id })
}

// Invalidate marks the screen stale so paint hooks run after the current
// or next step. Frame callbacks that change what is on screen call it.
func (l *Loop) Invalidate() {
	l.mu.Lock()
	l.dirty = true
	l.mu.Unlock()
}

// OnPaint registers fn to run after a step that ran tasks or timers, or
// after Invalidate. Frame callbacks alone do not trigger a paint.
func (l *Loop) OnPaint(fn func()) {
	l.mu.Lock()
	l.paint = append(l.paint, fn)
	l.mu.Unlock()
}

// Pending reports how many tasks, timers and frame callbacks are queued.
func (l *Loop) Pending() (tasks, timers, frames int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks), len(l.timers), len(l.frames)
}

// Run processes callbacks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	t := time.NewTimer(time.Hour)
	defer t.Stop()

	for {
		next := l.Step(time.Now())

		var timerC <-chan time.Time
		if !next.IsZero() {
			t.Reset(max(0, time.Until(next)))
			timerC = t.C
		}

		select {
		case <-ctx.Done():
			return nil
		case <-l.wake:
		case <-timerC:
		}
	}
}

// Step runs everything due at now: posted tasks, expired timers, then the
// frame batch if a frame is due, then paint hooks if anything changed. It returns when the loop
// next has work, or the zero time if nothing is scheduled.
func (l *Loop) Step(now time.Time) time.Time {
	l.mu.Lock()
	tasks := l.tasks
	l.tasks = nil
	l.mu.Unlock()

	worked := len(tasks) > 0
	for _, fn := range tasks {
		l.call(fn)
	}

	for {
		t, ok := l.popDue(now)
		if !ok {
			break
		}
		worked = true
		l.call(t.fn)
	}

	l.mu.Lock()
	var frames []callback
	if len(l.frames) > 0 && !now.Before(l.nextFrame) {
		frames = l.frames
		l.frames = nil
		l.nextFrame = now.Add(l.interval)
	}
	l.mu.Unlock()

	for _, f := range frames {
		l.call(f.fn)
	}

	l.mu.Lock()
	worked = worked || l.dirty
	l.dirty = false
	paint := slices.Clone(l.paint)
	l.mu.Unlock()
	if worked {
		for _, fn := range paint {
			l.call(fn)
		}
	}

	return l.nextDeadline()
}

// popDue removes and returns the earliest timer due at now.
func (l *Loop) popDue(now time.Time) (timer, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	best := -1
	for i, t := range l.timers {
		if t.due.After(now) {
			continue
		}
		if best < 0 || t.due.Before(l.timers[best].due) {
			best = i
		}
	}
	if best < 0 {
		return timer{}, false
	}
	t := l.timers[best]
	l.timers = slices.Delete(l.timers, best, best+1)
	return t, true
}

func (l *Loop) nextDeadline() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	var next time.Time
	if len(l.tasks) > 0 {
		return time.Now()
	}
	if len(l.frames) > 0 {
		next = l.nextFrame
	}
	for _, t := range l.timers {
		if next.IsZero() || t.due.Before(next) {
			next = t.due
		}
	}
	return next
}

// call runs fn, recovering and logging a panic so one failing callback does
// not take down the loop.
func (l *Loop) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("uncaught panic in loop callback", "panic", r)
		}
	}()
	fn()
}
