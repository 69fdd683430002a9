package logevent

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/gosv/taskmaster/internal/exitcode"
)

type fakeLookup struct {
	codes map[string]int
}

func (f fakeLookup) ExpectedExitCode(name string) (int, bool) {
	c, ok := f.codes[name]
	return c, ok
}

func exited(code int) exitcode.Code {
	return exitcode.New(unix.WaitStatus(code << 8))
}

func TestPipelineRendersExpectedExitAsExited(t *testing.T) {
	var buf bytes.Buffer
	p := NewPipeline(&buf, fakeLookup{codes: map[string]int{"echo-0": 0}})
	p.Start()

	start := time.Now()
	p.Sender() <- Event{Kind: KindStarted, Time: start, Name: "echo-0"}
	p.Sender() <- Event{Kind: KindExited, Time: start.Add(10 * time.Millisecond), Name: "echo-0", ExitCode: exited(0)}
	p.Close()

	out := buf.String()
	require.Contains(t, out, "STARTED")
	require.Contains(t, out, "EXITED")
	require.NotContains(t, out, "FAILED")
}

func TestPipelineRendersUnexpectedExitAsFailed(t *testing.T) {
	var buf bytes.Buffer
	p := NewPipeline(&buf, fakeLookup{codes: map[string]int{"boom-0": 0}})
	p.Start()

	p.Sender() <- Event{Kind: KindExited, Time: time.Now(), Name: "boom-0", ExitCode: exited(1)}
	p.Close()

	require.Contains(t, buf.String(), "FAILED")
}

func TestPipelineRendersFailedAndKilled(t *testing.T) {
	var buf bytes.Buffer
	p := NewPipeline(&buf, fakeLookup{})
	p.Start()

	p.Sender() <- Event{Kind: KindFailed, Time: time.Now(), Name: "x-0", Message: "boom"}
	p.Sender() <- Event{Kind: KindKilled, Time: time.Now(), Name: "x-0"}
	p.Close()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "FAILED")
	require.Contains(t, lines[0], "boom")
	require.Contains(t, lines[1], "KILLED")
}

func TestFormatElapsed(t *testing.T) {
	require.Equal(t, "00:00:00.000", formatElapsed(0))
	require.Equal(t, "00:01:05.250", formatElapsed(65*time.Second+250*time.Millisecond))
	require.Equal(t, "01:00:00.000", formatElapsed(time.Hour))
}
