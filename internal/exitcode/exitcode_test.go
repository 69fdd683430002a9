package exitcode

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// packExited builds a raw wait status as the kernel would for a normal exit.
func packExited(code int) unix.WaitStatus {
	return unix.WaitStatus(code << 8)
}

// packSignaled builds a raw wait status for termination by signal.
func packSignaled(sig unix.Signal) unix.WaitStatus {
	return unix.WaitStatus(sig)
}

func TestLikeBashExited(t *testing.T) {
	c := New(packExited(0))
	require.Equal(t, 0, c.LikeBash())
	require.Equal(t, "exited with code 0", c.String())

	c = New(packExited(17))
	require.Equal(t, 17, c.LikeBash())
	require.Equal(t, "exited with code 17", c.String())
}

func TestLikeBashSignaled(t *testing.T) {
	c := New(packSignaled(unix.SIGTERM))
	require.Equal(t, 128+int(unix.SIGTERM), c.LikeBash())
	require.Equal(t, "terminated by signal SIGTERM", c.String())
}

func TestLikeBashSignaledKill(t *testing.T) {
	c := New(packSignaled(unix.SIGKILL))
	require.Equal(t, 128+int(unix.SIGKILL), c.LikeBash())
	require.Equal(t, "terminated by signal SIGKILL", c.String())
}

func TestUnknownSignalName(t *testing.T) {
	// A signal number outside the closed set this supervisor recognises
	// (a real-time signal, not one of the classic POSIX signals decoded above).
	c := New(packSignaled(64))
	require.Contains(t, c.String(), "terminated by signal unknown")
}
