// Package supervisor implements C3, the per-process supervisor state machine
// that is the core of this system: spec §4.3.
//
// Grounded on original_source/src/program.rs's ProcessState/process_observer
// (the condvar + ObserverState protocol), restructured into the distilled
// spec's standby/restart/process_removed boolean intent plus the teacher's
// combined Process+Supervisor (process.go/supervisor.go) for the spawn/signal
// mechanics (process groups, SysProcAttr).
package supervisor

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/gosv/taskmaster/internal/cmdtemplate"
	"github.com/gosv/taskmaster/internal/logevent"
	"github.com/gosv/taskmaster/internal/procconfig"
)

// Supervisor is one independent controller for one replica, per spec §3/§4.3.
type Supervisor struct {
	name      Name
	config    procconfig.ProgramConfig
	template  *cmdtemplate.Template
	logSender logevent.Sender

	intent *intent
	child  runningChild

	// retryCount is owned exclusively by the observer goroutine; no other
	// goroutine reads or writes it, so it needs no synchronization.
	retryCount int

	done chan struct{}
}

// New creates a supervisor for name/config and starts its observer goroutine.
// If config.AtLaunch is set, the observer spawns immediately; otherwise it
// waits on standby until Launch is called.
func New(name Name, config procconfig.ProgramConfig, sender logevent.Sender) *Supervisor {
	s := &Supervisor{
		name:      name,
		config:    config,
		template:  cmdtemplate.New(config),
		logSender: sender,
		intent:    newIntent(!config.AtLaunch),
		done:      make(chan struct{}),
	}
	go s.observe()
	return s
}

// Name returns the identity of this supervisor.
func (s *Supervisor) Name() Name { return s.name }

// Config returns the program configuration this supervisor was built from.
func (s *Supervisor) Config() procconfig.ProgramConfig { return s.config }

// IsRunning reports whether a child currently exists for this supervisor.
func (s *Supervisor) IsRunning() bool {
	_, _, _, present := s.child.snapshot()
	return present
}

// PID returns the pid of the currently running child, if any.
func (s *Supervisor) PID() (pid int, ok bool) {
	pid, _, _, present := s.child.snapshot()
	return pid, present
}

// StartedAt returns when the currently running child was spawned, if any.
func (s *Supervisor) StartedAt() (t time.Time, ok bool) {
	_, started, _, present := s.child.snapshot()
	return started, present
}

// Close destroys the supervisor: force-stops any running child, tells the
// observer to exit, and waits for it to do so. Spec §3 Lifecycle.
func (s *Supervisor) Close() {
	pid, _, _, present := s.child.snapshot()
	s.intent.setStandby()
	if present {
		_ = s.sendSignal(pid, unix.SIGKILL)
	}
	s.intent.markRemoved()
	<-s.done
}

func (s *Supervisor) sendSignal(pid int, sig unix.Signal) error {
	// Negative pid signals the whole process group: the supervised process
	// was started with Setpgid so its own descendants are reachable too.
	// Grounded on teacher's Process.Signal (process.go).
	if err := unix.Kill(-pid, sig); err != nil {
		return errWrapIo(err)
	}
	return nil
}

