// Package cmdtemplate materialises a ready-to-spawn *exec.Cmd from a
// ProgramConfig: argv, a cleared-then-repopulated environment, stdio
// redirection, working directory, and umask.
//
// Grounded on original_source/src/program.rs's create_command and the
// teacher's Process.Start (process.go), generalised to cover redirection and
// umask, which the teacher's demo-oriented Process never needed.
package cmdtemplate

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"github.com/pkg/errors"

	"github.com/gosv/taskmaster/internal/procconfig"
)

// Template is a reusable recipe for spawning one program. It is built once
// per supervisor and used for every respawn; Build() is called again on every
// spawn attempt so append-mode redirection files are freshly opened rather
// than reused across process lifetimes (a stale *os.File survives a SIGKILL
// of the process that held it, but not a later supervisor restart).
type Template struct {
	config procconfig.ProgramConfig
}

// New returns a Template for the given program configuration.
func New(config procconfig.ProgramConfig) *Template {
	return &Template{config: config}
}

// Build constructs a fresh *exec.Cmd ready to Start(). Every call opens new
// file descriptors for any configured redirections, in append mode for
// stdout/stderr per spec §4.2.
func (t *Template) Build() (*exec.Cmd, error) {
	cfg := t.config

	var cmd *exec.Cmd
	if cfg.Umask.Set {
		// os/exec has no pre-fork/pre-exec hook (unlike the original's
		// libc::umask inside a pre_exec closure): the Go runtime explicitly
		// disallows running arbitrary code between fork and exec because of
		// goroutine/thread-state hazards. Apply the mask in a tiny shell
		// wrapper instead, the same trick the teacher's main.go uses for
		// single-command mode ("exec " + cmd, run through /bin/sh -c).
		script := fmt.Sprintf("umask %s; exec \"$0\" \"$@\"", strconv.FormatUint(uint64(cfg.Umask.Value), 8))
		args := append([]string{script, cfg.Command}, cfg.Args...)
		cmd = exec.Command("/bin/sh", append([]string{"-c"}, args...)...)
	} else {
		cmd = exec.Command(cfg.Command, cfg.Args...)
	}
	cmd.Env = envSlice(cfg.Environment)

	stdout, err := openRedirect(cfg.Stdout, redirectOut)
	if err != nil {
		return nil, errors.Wrap(err, "opening stdout redirection")
	}
	cmd.Stdout = stdout

	stderr, err := openRedirect(cfg.Stderr, redirectOut)
	if err != nil {
		return nil, errors.Wrap(err, "opening stderr redirection")
	}
	cmd.Stderr = stderr

	stdin, err := openRedirect(cfg.Stdin, redirectIn)
	if err != nil {
		return nil, errors.Wrap(err, "opening stdin redirection")
	}
	cmd.Stdin = stdin

	if cfg.Workdir != "" {
		cmd.Dir = cfg.Workdir
	}

	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	return cmd, nil
}

type redirectDirection int

const (
	redirectOut redirectDirection = iota
	redirectIn
)

// openRedirect opens path per spec §4.2: stdout/stderr are created if needed
// and opened in append mode, stdin is opened read-only. An empty path means
// /dev/null.
func openRedirect(path string, dir redirectDirection) (*os.File, error) {
	if path == "" {
		return os.OpenFile(os.DevNull, os.O_RDWR, 0)
	}
	if dir == redirectIn {
		return os.Open(path)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}

// envSlice clears the inherited environment and applies only what the
// program configuration specifies, per spec §4.2 and §6.
func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
