package watchdog

import (
	"time"

	"github.com/torentino/torentino/internal/job"
)

// Verdict is the watchdog's per-tick decision.
type Verdict int

const (
	Healthy Verdict = iota
	Expired
)

func (v Verdict) String() string {
	if v == Expired {
		return "expired"
	}
	return "healthy"
}

// Watchdog aborts a download that has gone too long without peers.
// The job's LastPeerSeenAt starts at job creation, so a download that never
// sees a single peer expires exactly NoPeersTimeout after start.
type Watchdog struct {
	timeout time.Duration
}

func New(timeout time.Duration) *Watchdog {
	return &Watchdog{timeout: timeout}
}

// Observe folds one status sample into the job's peer history and decides
// whether the job has starved.
func (w *Watchdog) Observe(j *job.Job, peers int, now time.Time) Verdict {
	if peers > 0 {
		j.LastPeerSeenAt = now
		return Healthy
	}
	if now.Sub(j.LastPeerSeenAt) >= w.timeout {
		return Expired
	}
	return Healthy
}
