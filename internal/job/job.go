package job

import (
	"time"
)

// State is the lifecycle state of a download job. Transitions are applied
// only by the controller and validated by CanTransition.
type State int

const (
	StateInit State = iota
	StateSelecting
	StateStarting
	StateDownloading
	StateCompleted
	StateTimedOut
	StateFailed
	StateCancelled
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateSelecting:
		return "selecting"
	case StateStarting:
		return "starting"
	case StateDownloading:
		return "downloading"
	case StateCompleted:
		return "completed"
	case StateTimedOut:
		return "timed_out"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further download activity follows s.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateTimedOut, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether the state machine allows from -> to.
// Cancellation wins from any non-terminated state.
func CanTransition(from, to State) bool {
	if to == StateCancelled {
		return from != StateTerminated
	}
	switch from {
	case StateInit:
		return to == StateSelecting
	case StateSelecting:
		return to == StateStarting || to == StateFailed
	case StateStarting:
		return to == StateDownloading || to == StateFailed
	case StateDownloading:
		return to == StateCompleted || to == StateTimedOut || to == StateFailed
	case StateCompleted, StateTimedOut, StateFailed, StateCancelled:
		return to == StateTerminated
	default:
		return false
	}
}

// Job is the single unit of work. It is owned by the controller goroutine
// for its whole life; collaborators only see per-tick snapshots.
type Job struct {
	SourcePath     string
	SaveDir        string
	PortStart      int
	PortEnd        int
	NoPeersTimeout time.Duration

	State          State
	StartedAt      time.Time
	LastPeerSeenAt time.Time
	TerminalReason string
}

func New(saveDir string, portStart, portEnd int, noPeersTimeout time.Duration) *Job {
	now := time.Now()
	return &Job{
		SaveDir:        saveDir,
		PortStart:      portStart,
		PortEnd:        portEnd,
		NoPeersTimeout: noPeersTimeout,
		State:          StateInit,
		StartedAt:      now,
		LastPeerSeenAt: now,
	}
}

// To applies a transition if the state machine allows it and reports
// whether it was applied. Repeated terminal transitions are rejected,
// which keeps the shutdown path idempotent.
func (j *Job) To(to State) bool {
	if !CanTransition(j.State, to) {
		return false
	}
	j.State = to
	return true
}

// Finish records the terminal state and its reason. The reason is set
// exactly once; later calls keep the first one.
func (j *Job) Finish(to State, reason string) bool {
	if !j.To(to) {
		return false
	}
	if j.TerminalReason == "" {
		j.TerminalReason = reason
	}
	return true
}

// Exit codes, distinct per terminal state so pipelines can tell
// "no peers" from "config/engine error" from "operator abort".
const (
	ExitCompleted = 0
	ExitFailed    = 1
	ExitTimedOut  = 2
	ExitCancelled = 3
)

// ExitCode maps a terminal state to the process exit code.
func ExitCode(s State) int {
	switch s {
	case StateCompleted:
		return ExitCompleted
	case StateTimedOut:
		return ExitTimedOut
	case StateCancelled:
		return ExitCancelled
	default:
		return ExitFailed
	}
}
