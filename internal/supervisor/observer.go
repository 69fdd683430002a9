package supervisor

import (
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/gosv/taskmaster/internal/exitcode"
	"github.com/gosv/taskmaster/internal/logevent"
	"github.com/gosv/taskmaster/internal/procconfig"
)

// observe is the observer goroutine: the heart of the design (spec §4.3).
// Exactly one runs per supervisor for its whole lifetime, serialising every
// spawn/wait so no two children ever race for the RunningChild cell.
func (s *Supervisor) observe() {
	defer close(s.done)

	for {
		state, resetRetries := s.intent.wait()
		if state == stateRemoved {
			return
		}
		if resetRetries {
			s.retryCount = 0
		}

		pid, ok := s.spawn()
		if !ok {
			s.intent.setStandby()
			continue
		}

		started, spawnID := s.child.set(pid)
		s.announceSpawn(started, spawnID)

		status := s.waitChild(pid)
		s.child.clear()
		s.emit(logevent.Event{Kind: logevent.KindExited, Time: time.Now(), Name: s.name.String(), ExitCode: status})

		s.applyRestartDecision(status)
	}
}

// spawn attempts one invocation of the command template. On failure it emits
// a Failed event and returns ok=false; per spec §7, a spawn failure never
// counts against the retry budget because the child never existed.
func (s *Supervisor) spawn() (pid int, ok bool) {
	cmd, err := s.template.Build()
	if err == nil {
		err = cmd.Start()
	}
	if err != nil {
		s.emit(logevent.Event{
			Kind:    logevent.KindFailed,
			Time:    time.Now(),
			Name:    s.name.String(),
			Message: "can't spawn child process: " + err.Error(),
		})
		return 0, false
	}

	closeParentStdio(cmd)
	return cmd.Process.Pid, true
}

// closeParentStdio closes the supervisor's own copy of any redirect files
// cmdtemplate opened for the child. os/exec dup2's them into the child's fd
// table during Start(); the child holds its own reference after that, so
// keeping ours open just leaks a descriptor on every respawn over a
// long-lived supervisor process.
func closeParentStdio(cmd *exec.Cmd) {
	for _, f := range []*os.File{asFile(cmd.Stdin), asFile(cmd.Stdout), asFile(cmd.Stderr)} {
		if f != nil {
			_ = f.Close()
		}
	}
}

func asFile(v interface{}) *os.File {
	f, _ := v.(*os.File)
	return f
}

// announceSpawn emits Starting/Started per the healthy_uptime rule in spec
// §4.3 step 4, and arms the health-promotion timer when needed.
func (s *Supervisor) announceSpawn(started time.Time, spawnID uuid.UUID) {
	healthy := healthyUptimeDuration(s.config)
	if healthy <= 0 {
		s.emit(logevent.Event{Kind: logevent.KindStarted, Time: time.Now(), Name: s.name.String()})
		return
	}

	s.emit(logevent.Event{Kind: logevent.KindStarting, Time: time.Now(), Name: s.name.String()})
	go func() {
		time.Sleep(healthy)
		if s.child.isStillSpawn(spawnID) {
			s.emit(logevent.Event{Kind: logevent.KindStarted, Time: time.Now(), Name: s.name.String()})
		}
	}()
}

// scheduleStopDeadline arms the one-shot timer backing RequestStop: if the
// spawn identified by spawnID is still the one running once exit_timeout
// elapses, force-kill it and emit Killed. Spec §4.3 "Stop-deadline
// interaction": never kills a later spawn, because it compares spawnID
// rather than just elapsed wall time.
func (s *Supervisor) scheduleStopDeadline(spawnID uuid.UUID) {
	timeout := exitTimeoutDuration(s.config)
	go func() {
		time.Sleep(timeout)
		if !s.child.isStillSpawn(spawnID) {
			return
		}
		pid, _, _, present := s.child.snapshot()
		if !present {
			return
		}
		s.emit(logevent.Event{Kind: logevent.KindKilled, Time: time.Now(), Name: s.name.String()})
		_ = s.sendSignal(pid, unix.SIGKILL)
	}()
}

// waitChild blocks until pid exits, per spec §4.3 step 5. Grounded on
// original_source/src/program.rs's wait_pid (libc::waitpid with WUNTRACED)
// and adapted to the pack's golang.org/x/sys/unix convention in place of the
// teacher's raw syscall package.
func (s *Supervisor) waitChild(pid int) exitcode.Code {
	var status unix.WaitStatus
	for {
		_, err := unix.Wait4(pid, &status, unix.WUNTRACED, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			// The pid vanished from under us (already reaped, e.g. by a
			// force-kill race): nothing more can be learned about it.
			return exitcode.New(0)
		}
		if status.Stopped() {
			// WUNTRACED reports job-control stops too; the supervisor only
			// cares about termination, so keep waiting for the real exit.
			continue
		}
		return exitcode.New(status)
	}
}

// applyRestartDecision evaluates the restart policy against the exit status,
// per spec §4.3 step 6.
func (s *Supervisor) applyRestartDecision(status exitcode.Code) {
	if status.LikeBash() == s.config.ExitCode {
		s.retryCount = 0
	}
	switch s.config.Restart {
	case procconfig.RestartOnFailure:
		if status.LikeBash() == s.config.ExitCode {
			s.intent.setStandby()
			return
		}
		s.retryCount++
		if s.retryCount > s.config.Retries {
			s.intent.setStandby()
		}
	case procconfig.RestartAlways:
		s.retryCount++
		if s.retryCount > s.config.Retries {
			s.intent.setStandby()
		}
	default: // RestartNever
		s.intent.setStandby()
	}
}

func (s *Supervisor) emit(ev logevent.Event) {
	if s.logSender == nil {
		return
	}
	s.logSender <- ev
}

func healthyUptimeDuration(cfg procconfig.ProgramConfig) time.Duration {
	if cfg.HealthyUptime <= 0 {
		return 0
	}
	return time.Duration(cfg.HealthyUptime * float64(time.Second))
}

func exitTimeoutDuration(cfg procconfig.ProgramConfig) time.Duration {
	if cfg.ExitTimeout <= 0 {
		return 0
	}
	return time.Duration(cfg.ExitTimeout * float64(time.Second))
}
