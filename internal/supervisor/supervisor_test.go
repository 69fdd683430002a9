package supervisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gosv/taskmaster/internal/logevent"
	"github.com/gosv/taskmaster/internal/procconfig"
)

func baseConfig(command string, args ...string) procconfig.ProgramConfig {
	return procconfig.ProgramConfig{
		Command:     command,
		Args:        args,
		Replicas:    1,
		Restart:     procconfig.RestartNever,
		Retries:     3,
		ExitTimeout: 0.2,
		Signal:      procconfig.SignalTERM,
	}
}

func recvEvent(t *testing.T, events <-chan logevent.Event) logevent.Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for log event")
		return logevent.Event{}
	}
}

func TestAtLaunchSpawnsAndReportsExit(t *testing.T) {
	events := make(chan logevent.Event, 16)
	cfg := baseConfig("/bin/true")
	cfg.AtLaunch = true

	s := New(Name{Program: "p", Index: 0}, cfg, events)
	defer s.Close()

	ev := recvEvent(t, events)
	require.Equal(t, logevent.KindStarted, ev.Kind)

	ev = recvEvent(t, events)
	require.Equal(t, logevent.KindExited, ev.Kind)
	require.Equal(t, 0, ev.ExitCode.LikeBash())
}

func TestLaunchWhenNotAtLaunch(t *testing.T) {
	events := make(chan logevent.Event, 16)
	cfg := baseConfig("/bin/sleep", "0.3")
	cfg.AtLaunch = false

	s := New(Name{Program: "p", Index: 0}, cfg, events)
	defer s.Close()

	select {
	case ev := <-events:
		t.Fatalf("expected no spawn before Launch, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, s.Launch())
	ev := recvEvent(t, events)
	require.Equal(t, logevent.KindStarted, ev.Kind)

	require.True(t, s.IsRunning())
	require.Equal(t, ErrAlreadyStarted, causeOf(s.Launch()))

	recvEvent(t, events) // Exited
}

func TestRestartOnFailureGivesUpAfterRetries(t *testing.T) {
	events := make(chan logevent.Event, 64)
	cfg := baseConfig("/bin/sh", "-c", "exit 1")
	cfg.AtLaunch = true
	cfg.Restart = procconfig.RestartOnFailure
	cfg.ExitCode = 0
	cfg.Retries = 2

	s := New(Name{Program: "p", Index: 0}, cfg, events)
	defer s.Close()

	// 1 initial attempt + 2 retries = 3 STARTED/EXITED pairs, then standby.
	for i := 0; i < 3; i++ {
		ev := recvEvent(t, events)
		require.Equal(t, logevent.KindStarted, ev.Kind)
		ev = recvEvent(t, events)
		require.Equal(t, logevent.KindExited, ev.Kind)
	}

	select {
	case ev := <-events:
		t.Fatalf("expected no further spawn after giving up, got %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
	require.False(t, s.IsRunning())
}

func TestRestartNeverStopsAfterOneSpawn(t *testing.T) {
	events := make(chan logevent.Event, 16)
	cfg := baseConfig("/bin/true")
	cfg.AtLaunch = true
	cfg.Restart = procconfig.RestartNever

	s := New(Name{Program: "p", Index: 0}, cfg, events)
	defer s.Close()

	recvEvent(t, events) // Started
	recvEvent(t, events) // Exited

	select {
	case ev := <-events:
		t.Fatalf("expected no respawn under restart=never, got %+v", ev)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestRequestStopGracefulExit(t *testing.T) {
	events := make(chan logevent.Event, 16)
	cfg := baseConfig("/bin/sh", "-c", "trap 'exit 0' TERM; while true; do sleep 0.05; done")
	cfg.AtLaunch = true
	cfg.Signal = procconfig.SignalTERM
	cfg.ExitTimeout = 2

	s := New(Name{Program: "p", Index: 0}, cfg, events)
	defer s.Close()

	recvEvent(t, events) // Started

	require.NoError(t, s.RequestStop())

	ev := recvEvent(t, events)
	require.Equal(t, logevent.KindExited, ev.Kind)
}

func TestRequestStopDeadlineForcesKill(t *testing.T) {
	events := make(chan logevent.Event, 16)
	cfg := baseConfig("/bin/sh", "-c", "trap '' TERM; while true; do sleep 0.05; done")
	cfg.AtLaunch = true
	cfg.Signal = procconfig.SignalTERM
	cfg.ExitTimeout = 0.2

	s := New(Name{Program: "p", Index: 0}, cfg, events)
	defer s.Close()

	recvEvent(t, events) // Started

	require.NoError(t, s.RequestStop())

	ev := recvEvent(t, events)
	require.Equal(t, logevent.KindKilled, ev.Kind)

	ev = recvEvent(t, events)
	require.Equal(t, logevent.KindExited, ev.Kind)
}

func TestHealthyUptimePromotion(t *testing.T) {
	events := make(chan logevent.Event, 16)
	cfg := baseConfig("/bin/sleep", "0.3")
	cfg.AtLaunch = true
	cfg.HealthyUptime = 0.05

	s := New(Name{Program: "p", Index: 0}, cfg, events)
	defer s.Close()

	ev := recvEvent(t, events)
	require.Equal(t, logevent.KindStarting, ev.Kind)

	ev = recvEvent(t, events)
	require.Equal(t, logevent.KindStarted, ev.Kind)

	ev = recvEvent(t, events)
	require.Equal(t, logevent.KindExited, ev.Kind)
}

func causeOf(err error) error {
	type causer interface{ Cause() error }
	for err != nil {
		c, ok := err.(causer)
		if !ok {
			return err
		}
		err = c.Cause()
	}
	return err
}
