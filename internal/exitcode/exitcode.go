// Package exitcode decodes a raw Unix wait status into the views the rest of
// the supervisor needs: a bash-equivalent integer and a one-line human label.
package exitcode

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Code wraps a raw wait status as returned by wait4/waitpid.
type Code struct {
	status unix.WaitStatus
}

// New wraps a raw wait status.
func New(status unix.WaitStatus) Code {
	return Code{status: status}
}

// LikeBash returns the exit code a shell would report for this status:
// the exit status on a normal exit, or 128+signal on termination by signal.
func (c Code) LikeBash() int {
	switch {
	case c.status.Exited():
		return c.status.ExitStatus()
	case c.status.Signaled():
		return 128 + int(c.status.Signal())
	default:
		return int(c.status)
	}
}

// String renders the human label used in log lines, e.g. "exited with code 0",
// "terminated by signal SIGTERM", "stopped by signal 19", or
// "unknown exit status: N" for anything else.
func (c Code) String() string {
	switch {
	case c.status.Exited():
		return fmt.Sprintf("exited with code %d", c.status.ExitStatus())
	case c.status.Signaled():
		return fmt.Sprintf("terminated by signal %s", signalName(c.status.Signal()))
	case c.status.Stopped():
		return fmt.Sprintf("stopped by signal %d", c.status.StopSignal())
	default:
		return fmt.Sprintf("unknown exit status: %d", int(c.status))
	}
}

// signalName maps a signal number to its symbolic name from the closed set
// this supervisor understands. Anything outside that set renders as "unknown".
func signalName(sig unix.Signal) string {
	name, ok := signalNames[sig]
	if !ok {
		return "unknown"
	}
	return name
}

var signalNames = map[unix.Signal]string{
	unix.SIGABRT:   "SIGABRT",
	unix.SIGALRM:   "SIGALRM",
	unix.SIGBUS:    "SIGBUS",
	unix.SIGCHLD:   "SIGCHLD",
	unix.SIGCONT:   "SIGCONT",
	unix.SIGFPE:    "SIGFPE",
	unix.SIGHUP:    "SIGHUP",
	unix.SIGILL:    "SIGILL",
	unix.SIGINT:    "SIGINT",
	unix.SIGKILL:   "SIGKILL",
	unix.SIGPIPE:   "SIGPIPE",
	unix.SIGQUIT:   "SIGQUIT",
	unix.SIGSEGV:   "SIGSEGV",
	unix.SIGSTOP:   "SIGSTOP",
	unix.SIGTERM:   "SIGTERM",
	unix.SIGTSTP:   "SIGTSTP",
	unix.SIGTTIN:   "SIGTTIN",
	unix.SIGTTOU:   "SIGTTOU",
	unix.SIGUSR1:   "SIGUSR1",
	unix.SIGUSR2:   "SIGUSR2",
	unix.SIGPROF:   "SIGPROF",
	unix.SIGSYS:    "SIGSYS",
	unix.SIGTRAP:   "SIGTRAP",
	unix.SIGURG:    "SIGURG",
	unix.SIGVTALRM: "SIGVTALRM",
	unix.SIGXCPU:   "SIGXCPU",
	unix.SIGXFSZ:   "SIGXFSZ",
}
