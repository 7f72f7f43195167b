// Package controller owns the download lifecycle: the state machine, the
// polling loop, and shutdown coordination across completion, peer-starvation
// timeout, and operator interrupt.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/torentino/torentino/internal/engine"
	"github.com/torentino/torentino/internal/job"
	"github.com/torentino/torentino/internal/notify"
	"github.com/torentino/torentino/internal/watchdog"
)

// Engine is the narrow session facade the controller drives.
type Engine interface {
	Start(torrentPath string) error
	Poll() engine.Status
	Close()
}

// Notifier delivers lifecycle events best-effort; it never returns an error
// and never blocks longer than its own timeout.
type Notifier interface {
	Notify(ctx context.Context, ev notify.Event)
}

// Reporter renders per-tick progress and the terminal summary.
type Reporter interface {
	Update(st engine.Status)
	Finish(state job.State, elapsed time.Duration)
}

// SelectFunc resolves the torrent artifact to download.
type SelectFunc func() (string, error)

const notifyTimeout = 5 * time.Second

// Controller drives a single job from selection to a terminal state. All
// job mutation happens on the goroutine running Run; collaborators only see
// per-tick snapshots.
type Controller struct {
	sel      SelectFunc
	eng      Engine
	notifier Notifier
	reporter Reporter
	job      *job.Job
	tick     time.Duration

	name     string // torrent display name once known
	notified bool   // terminal notification guard
}

func New(sel SelectFunc, eng Engine, notifier Notifier, reporter Reporter, j *job.Job, tick time.Duration) *Controller {
	if tick <= 0 {
		tick = time.Second
	}
	return &Controller{
		sel:      sel,
		eng:      eng,
		notifier: notifier,
		reporter: reporter,
		job:      j,
		tick:     tick,
	}
}

// Run executes the job to a terminal state and returns it. ctx cancellation
// is the operator interrupt: it wins over any condition observed in the
// same tick.
func (c *Controller) Run(ctx context.Context) job.State {
	c.job.To(job.StateSelecting)
	if ctx.Err() != nil {
		return c.finish(job.StateCancelled, "interrupted", engine.Status{})
	}

	path, err := c.sel()
	if err != nil {
		slog.Error("source selection failed", "err", err)
		return c.finish(job.StateFailed, err.Error(), engine.Status{})
	}
	c.job.SourcePath = path
	slog.Info("selected torrent", "path", path)

	c.job.To(job.StateStarting)
	if ctx.Err() != nil {
		return c.finish(job.StateCancelled, "interrupted", engine.Status{})
	}
	if err := c.eng.Start(path); err != nil {
		slog.Error("engine start failed", "err", err)
		return c.finish(job.StateFailed, err.Error(), engine.Status{})
	}

	c.job.To(job.StateDownloading)
	c.job.StartedAt = time.Now()
	c.job.LastPeerSeenAt = c.job.StartedAt
	go c.notifier.Notify(ctx, notify.Event{Type: notify.EventStarted, Name: path})

	return c.loop(ctx)
}

func (c *Controller) loop(ctx context.Context) job.State {
	wd := watchdog.New(c.job.NoPeersTimeout)
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	var last engine.Status
	for {
		select {
		case <-ctx.Done():
			return c.finish(job.StateCancelled, "interrupted", last)

		case now := <-ticker.C:
			st := c.eng.Poll()
			last = st
			if st.Name != "" {
				c.name = st.Name
			}
			verdict := wd.Observe(c.job, st.Peers, now)
			c.reporter.Update(st)

			// Tie-break when several conditions hold in one tick:
			// Cancelled > Failed > TimedOut > Completed.
			switch {
			case ctx.Err() != nil:
				return c.finish(job.StateCancelled, "interrupted", st)
			case st.Err != nil:
				slog.Error("engine reported error", "err", st.Err)
				return c.finish(job.StateFailed, st.Err.Error(), st)
			case verdict == watchdog.Expired:
				slog.Warn("no peers for too long, aborting",
					"timeout", c.job.NoPeersTimeout, "last_seen", c.job.LastPeerSeenAt)
				return c.finish(job.StateTimedOut, "no peers for "+c.job.NoPeersTimeout.String(), st)
			case st.InfoReady && st.Progress >= 1.0:
				return c.finish(job.StateCompleted, "download complete", st)
			}

			if st.InfoReady {
				go c.notifier.Notify(ctx, notify.Event{
					Type:    notify.EventProgress,
					Name:    c.name,
					Percent: int(st.Progress * 100),
				})
			}
		}
	}
}

// finish is the single shutdown routine for every terminal path: record the
// terminal state, release the engine, emit the terminal notification at most
// once, and mark the job terminated.
func (c *Controller) finish(state job.State, reason string, last engine.Status) job.State {
	// A second trigger while shutdown is in progress lands here again via
	// the state machine, which rejects the transition.
	if !c.job.Finish(state, reason) {
		return c.job.State
	}
	slog.Info("job finished", "state", state, "reason", reason)

	c.eng.Close()
	c.reporter.Finish(state, time.Since(c.job.StartedAt))

	if !c.notified {
		c.notified = true
		ev := c.terminalEvent(state, reason, last)
		// Parent ctx may already be cancelled; the terminal attempt gets
		// its own budget.
		nctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		c.notifier.Notify(nctx, ev)
		cancel()
	}

	c.job.To(job.StateTerminated)
	return state
}

func (c *Controller) terminalEvent(state job.State, reason string, last engine.Status) notify.Event {
	name := c.name
	if name == "" {
		name = c.job.SourcePath
	}
	switch state {
	case job.StateCompleted:
		return notify.Event{Type: notify.EventCompleted, Name: name}
	case job.StateTimedOut:
		return notify.Event{Type: notify.EventAborted, Name: name, Reason: reason}
	case job.StateCancelled:
		return notify.Event{Type: notify.EventAborted, Name: name, Reason: reason}
	default:
		err := last.Err
		if err == nil {
			err = errors.New(reason)
		}
		return notify.Event{Type: notify.EventFailed, Name: name, Err: err}
	}
}
