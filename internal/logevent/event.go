// Package logevent implements the log pipeline (C4): a multi-producer,
// single-consumer channel of timestamped process lifecycle events, and the
// consumer that renders and classifies them.
//
// Grounded on original_source/src/logs.rs's gather_logs, extended with the
// Killed variant spec §3 requires (the original never force-killed a process
// itself, since it had no stop-deadline timer).
package logevent

import (
	"time"

	"github.com/gosv/taskmaster/internal/exitcode"
)

// Kind identifies what happened to a supervised process.
type Kind int

const (
	KindStarting Kind = iota
	KindStarted
	KindFailed
	KindExited
	KindKilled
)

// Event is one timestamped occurrence for a named process replica.
type Event struct {
	Kind     Kind
	Time     time.Time
	Name     string // display form of ProcessName, e.g. "echo-0"
	Message  string // populated for KindFailed
	ExitCode exitcode.Code
}

// Sender is the producer side of the pipeline: every supervisor/timer
// goroutine holds one and never blocks for long, since the channel backing
// it is large enough to absorb bursts (see NewPipeline).
type Sender chan<- Event
