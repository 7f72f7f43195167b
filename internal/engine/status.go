package engine

import (
	"time"
)

// Status is a transient snapshot of the engine's view of the transfer.
// A new Status supersedes the previous one each tick; nothing holds onto
// one across ticks.
type Status struct {
	InfoReady      bool
	Name           string
	Progress       float64 // 0..1
	BytesCompleted int64
	BytesTotal     int64
	DownloadRate   int64 // bytes/sec
	Peers          int
	Seeders        int
	ETA            time.Duration
	Err            error
}

// rateSampler derives bytes/sec from the engine's cumulative useful-data
// counter, sampled across polls.
type rateSampler struct {
	lastAt    time.Time
	lastBytes int64
	lastRate  int64
}

func (r *rateSampler) sample(totalBytes int64, now time.Time) int64 {
	if r.lastAt.IsZero() {
		r.lastAt = now
		r.lastBytes = totalBytes
		return 0
	}

	elapsed := now.Sub(r.lastAt).Seconds()
	if elapsed <= 0 {
		return r.lastRate
	}

	delta := totalBytes - r.lastBytes
	r.lastAt = now
	r.lastBytes = totalBytes
	if delta < 0 {
		// Counter went backwards (engine re-verified pieces); keep the last
		// valid rate rather than reporting garbage.
		return r.lastRate
	}

	r.lastRate = int64(float64(delta) / elapsed)
	return r.lastRate
}

// eta estimates time remaining at the current rate; zero when unknowable.
func eta(completed, total, ratePerSec int64) time.Duration {
	if ratePerSec <= 0 || total <= 0 || completed >= total {
		return 0
	}
	secs := float64(total-completed) / float64(ratePerSec)
	return time.Duration(secs * float64(time.Second))
}
