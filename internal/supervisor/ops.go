package supervisor

import "golang.org/x/sys/unix"

// Launch requests the observer to spawn a child. Fails with
// ErrAlreadyStarted if one is already running. Spec §4.3 operation table.
func (s *Supervisor) Launch() error {
	if s.IsRunning() {
		return ErrAlreadyStarted
	}
	s.intent.clearStandby()
	return nil
}

// RequestStop asks the running child to exit gracefully: it sets standby (so
// the observer won't respawn), sends the configured stop signal, and arms a
// deadline that force-kills the same spawn if it hasn't exited by
// exit_timeout. Fails with ErrNotStarted if no child is running.
func (s *Supervisor) RequestStop() error {
	pid, _, spawnID, present := s.child.snapshot()
	if !present {
		return ErrNotStarted
	}
	s.intent.setStandby()
	if err := s.sendSignal(pid, s.config.Signal.Unix()); err != nil {
		return err
	}
	s.scheduleStopDeadline(spawnID)
	return nil
}

// ForceStop sets standby and sends SIGKILL unconditionally; it has no
// precondition and is a no-op (beyond setting standby) if nothing is running.
func (s *Supervisor) ForceStop() error {
	pid, _, _, present := s.child.snapshot()
	s.intent.setStandby()
	if !present {
		return nil
	}
	return s.sendSignal(pid, unix.SIGKILL)
}

// RequestRestart resets the retry counter, arms the one-shot restart flag (so
// the observer respawns immediately regardless of restart policy once the
// current child exits), and sends the configured stop signal. Fails with
// ErrNotStarted if no child is running.
func (s *Supervisor) RequestRestart() error {
	pid, _, _, present := s.child.snapshot()
	if !present {
		return ErrNotStarted
	}
	s.intent.requestRestart()
	return s.sendSignal(pid, s.config.Signal.Unix())
}

// ForceRestart is RequestRestart but with SIGKILL instead of the configured
// signal.
func (s *Supervisor) ForceRestart() error {
	pid, _, _, present := s.child.snapshot()
	if !present {
		return ErrNotStarted
	}
	s.intent.requestRestart()
	return s.sendSignal(pid, unix.SIGKILL)
}
