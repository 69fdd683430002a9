package logevent

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// pipelineBuffer is generous enough that a burst of exits across many
// replicas (e.g. registry-wide force-stop during shutdown) never blocks a
// producer goroutine on the consumer keeping up.
const pipelineBuffer = 4096

// ExpectedExitCodeLookup resolves the bash-equivalent exit code a process is
// configured to expect, so the consumer can relabel an Exited event as FAILED
// when the child didn't exit the way its program config says it should.
// internal/registry implements this; logevent accepts the interface instead
// of importing registry directly to avoid a dependency cycle (registry is the
// component that owns both the supervisors and, transitively, their log
// senders).
type ExpectedExitCodeLookup interface {
	ExpectedExitCode(name string) (code int, ok bool)
}

// Pipeline owns the channel and the single consumer goroutine draining it.
type Pipeline struct {
	events chan Event
	out    io.Writer
	lookup ExpectedExitCodeLookup
	color  bool

	wg   sync.WaitGroup
	once sync.Once
}

// NewPipeline creates a pipeline writing rendered lines to out, classifying
// exits against lookup. Call Start to begin consuming and Close to drain and
// stop.
func NewPipeline(out io.Writer, lookup ExpectedExitCodeLookup) *Pipeline {
	return &Pipeline{
		events: make(chan Event, pipelineBuffer),
		out:    out,
		lookup: lookup,
		color:  isTerminal(out),
	}
}

// SetLookup assigns the classifier used by Exited events. Exists because the
// registry that implements ExpectedExitCodeLookup is itself constructed with
// this pipeline's Sender, so the two can't be built in a single step; call it
// before Start so the consumer never sees a lookup race.
func (p *Pipeline) SetLookup(lookup ExpectedExitCodeLookup) {
	p.lookup = lookup
}

// Sender returns the producer-side handle for this pipeline.
func (p *Pipeline) Sender() Sender {
	return p.events
}

// Start launches the single consumer goroutine. It must be called exactly
// once before any producer sends.
func (p *Pipeline) Start() {
	start := time.Now()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for ev := range p.events {
			fmt.Fprintln(p.out, p.render(ev, start))
		}
	}()
}

// Close stops accepting new events and waits for the consumer to drain
// whatever is already queued.
func (p *Pipeline) Close() {
	p.once.Do(func() {
		close(p.events)
	})
	p.wg.Wait()
}

// render formats one event as the spec's fixed-width log line:
// HH:MM:SS.mmm  NAME  LABEL  DETAIL
func (p *Pipeline) render(ev Event, start time.Time) string {
	since := ev.Time.Sub(start)
	if since < 0 {
		since = 0
	}
	ts := formatElapsed(since)

	label, detail := p.labelAndDetail(ev)

	if p.color {
		return fmt.Sprintf("%s  \x1b[1m%-10s\x1b[0m  %s  %s", ts, ev.Name, label, detail)
	}
	return fmt.Sprintf("%s  %-10s  %s  %s", ts, ev.Name, label, detail)
}

func formatElapsed(d time.Duration) string {
	millis := d.Milliseconds() % 1000
	totalSec := int64(d.Seconds())
	secs := totalSec % 60
	mins := (totalSec / 60) % 60
	hours := totalSec / 3600
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, mins, secs, millis)
}

func (p *Pipeline) labelAndDetail(ev Event) (label, detail string) {
	switch ev.Kind {
	case KindStarting:
		return p.colorLabel("STARTING", 36), ""
	case KindStarted:
		return p.colorLabel("STARTED", 32), ""
	case KindFailed:
		return p.colorLabel("FAILED", 31), ev.Message
	case KindKilled:
		// A forced kill is reported before the observer's wait4 returns, so
		// there is no exit status yet to show — the paired Exited event that
		// follows carries that.
		return p.colorLabel("KILLED", 31), ""
	case KindExited:
		if p.isUnexpected(ev) {
			return p.colorLabel("FAILED", 31), ev.ExitCode.String()
		}
		return p.colorLabel("EXITED", 33), ev.ExitCode.String()
	default:
		return "UNKNOWN", ""
	}
}

func (p *Pipeline) isUnexpected(ev Event) bool {
	if p.lookup == nil {
		return false
	}
	expected, ok := p.lookup.ExpectedExitCode(ev.Name)
	if !ok {
		return false
	}
	return expected != ev.ExitCode.LikeBash()
}

func (p *Pipeline) colorLabel(label string, ansiCode int) string {
	if !p.color {
		return label
	}
	return fmt.Sprintf("\x1b[1;%dm%s\x1b[0m", ansiCode, label)
}

// isTerminal reports whether out looks like it writes to an interactive
// terminal, so color escape codes aren't sprayed into log files.
func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
