package procconfig

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// StopSignal is the graceful-stop signal configured for a program, restricted
// to the enumerated set this supervisor accepts.
type StopSignal int

const (
	SignalINT StopSignal = iota
	SignalTERM
	SignalHUP
	SignalQUIT
	SignalUSR1
	SignalUSR2
	SignalALRM
	SignalSTOP
	SignalKILL
)

var signalByName = map[string]StopSignal{
	"INT":  SignalINT,
	"TERM": SignalTERM,
	"HUP":  SignalHUP,
	"QUIT": SignalQUIT,
	"USR1": SignalUSR1,
	"USR2": SignalUSR2,
	"ALRM": SignalALRM,
	"STOP": SignalSTOP,
	"KILL": SignalKILL,
}

var signalToUnix = map[StopSignal]unix.Signal{
	SignalINT:  unix.SIGINT,
	SignalTERM: unix.SIGTERM,
	SignalHUP:  unix.SIGHUP,
	SignalQUIT: unix.SIGQUIT,
	SignalUSR1: unix.SIGUSR1,
	SignalUSR2: unix.SIGUSR2,
	SignalALRM: unix.SIGALRM,
	SignalSTOP: unix.SIGSTOP,
	SignalKILL: unix.SIGKILL,
}

// Unix returns the syscall-level signal to deliver for this StopSignal.
func (s StopSignal) Unix() unix.Signal {
	sig, ok := signalToUnix[s]
	if !ok {
		return unix.SIGINT
	}
	return sig
}

// ParseStopSignal parses one of the enumerated bare signal names (e.g.
// "TERM", not "SIGTERM"), matched exactly as config.go passes it through.
func ParseStopSignal(name string) (StopSignal, error) {
	sig, ok := signalByName[name]
	if !ok {
		return 0, fmt.Errorf("unknown signal %q", name)
	}
	return sig, nil
}

func (s StopSignal) String() string {
	for name, sig := range signalByName {
		if sig == s {
			return "SIG" + name
		}
	}
	return "SIGINT"
}
