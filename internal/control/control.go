// Package control implements C7: the interactive command shell, per spec
// §4.7.
//
// Grounded on original_source/src/commands.rs's status/start/stop/restart/
// reload handlers and src/main.rs's run_shell line loop, adapted to dispatch
// on a verb table instead of one function per command and to read from any
// io.Reader (a *bufio.Scanner over stdin in production, a strings.Reader in
// tests) rather than the original's readline binding.
package control

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/gosv/taskmaster/internal/procconfig"
	"github.com/gosv/taskmaster/internal/procstatus"
	"github.com/gosv/taskmaster/internal/registry"
	"github.com/gosv/taskmaster/internal/reload"
)

// ConfigLoader loads the on-disk configuration, used by the reload verb.
// Abstracted so tests can supply a fixed in-memory config without touching
// the filesystem.
type ConfigLoader func() (procconfig.Config, error)

// Shell reads one command per line from in, dispatches it, and writes
// responses to out. The shell reads lines on a single goroutine; the SIGHUP
// watcher also runs concurrently with it (wired by the caller),
// so Reload takes reloadMu to give the two exclusive access to current and
// the registry mutations it drives, per spec §4.7/§5.
type Shell struct {
	reg        *registry.Registry
	out        io.Writer
	loadConfig ConfigLoader

	reloadMu sync.Mutex
	current  procconfig.Config
}

// NewShell builds a shell over reg. current is the configuration currently
// running, kept so `reload` can diff against it; loadConfig re-reads the
// config file from disk on demand.
func NewShell(reg *registry.Registry, out io.Writer, current procconfig.Config, loadConfig ConfigLoader) *Shell {
	return &Shell{reg: reg, out: out, loadConfig: loadConfig, current: current}
}

// Run reads commands from in until it hits EOF, per spec §4.7.
func (sh *Shell) Run(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		sh.Dispatch(scanner.Text())
	}
}

// Dispatch parses and executes a single line, per spec §4.7's verb table.
// Unlike the original's one-handler-per-line module, the verbs live in a
// table here so help can enumerate them.
func (sh *Shell) Dispatch(line string) {
	verb, rest := splitVerb(line)
	if verb == "" {
		return
	}

	handler, ok := verbs[verb]
	if !ok {
		fmt.Fprintf(sh.out, "Unknown command: %s (try `help`)\n", verb)
		return
	}
	handler(sh, strings.TrimSpace(rest))
}

// Reload re-reads the configuration, diffs it against what's running, and
// applies the result. Exported so the SIGHUP watcher can trigger the exact
// same path the `reload` verb uses. Guarded by reloadMu so a SIGHUP arriving
// mid-reload-verb (or vice versa) can't interleave.
func (sh *Shell) Reload() {
	sh.reloadMu.Lock()
	defer sh.reloadMu.Unlock()

	next, err := sh.loadConfig()
	if err != nil {
		fmt.Fprintf(sh.out, "\x1b[1;31merror\x1b[0m: can't reload config: %v\n", err)
		return
	}

	diffs := reload.Compute(sh.current, next)
	changed := false
	for _, d := range diffs {
		switch d.Kind {
		case reload.Added:
			fmt.Fprintf(sh.out, "adding %q\n", d.Name)
			changed = true
		case reload.Modified:
			fmt.Fprintf(sh.out, "reloading %q\n", d.Name)
			changed = true
		case reload.Removed:
			fmt.Fprintf(sh.out, "removing %q\n", d.Name)
			changed = true
		}
	}
	if !changed {
		fmt.Fprintln(sh.out, "No changes")
		return
	}

	reload.Apply(sh.reg, diffs)
	sh.current = next
}

type verbFunc func(sh *Shell, args string)

var verbs = map[string]verbFunc{
	"status":  verbStatus,
	"start":   verbStart,
	"stop":    verbStop,
	"restart": verbRestart,
	"reload":  func(sh *Shell, _ string) { sh.Reload() },
	"help":    verbHelp,
}

// splitVerb splits a line into its leading command word and the rest,
// tolerating leading/trailing whitespace and blank lines.
func splitVerb(line string) (verb, rest string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ""
	}
	verb, rest, _ = strings.Cut(line, " ")
	return verb, rest
}

func verbHelp(sh *Shell, _ string) {
	names := make([]string, 0, len(verbs))
	for name := range verbs {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintf(sh.out, "commands: %s\n", strings.Join(names, ", "))
}

func verbStatus(sh *Shell, args string) {
	names := strings.Fields(args)
	if len(names) == 0 {
		names = sh.reg.ProgramNames()
	}

	for _, name := range names {
		replicas, ok := sh.reg.Replicas(name)
		if !ok {
			fmt.Fprintf(sh.out, "%-12s | no such program\n", name)
			continue
		}
		for _, sv := range replicas {
			pid, running := sv.PID()
			if !running {
				fmt.Fprintf(sh.out, "%-12s | %-6s | not running\n", sv.Name().String(), "")
				continue
			}
			mem := procstatus.Format(pid)
			fmt.Fprintf(sh.out, "%-12s | %-6d | running | %s\n", sv.Name().String(), pid, mem)
		}
	}
}

// verbStart, verbStop and verbRestart mirror original_source/src/commands.rs's
// start/stop/restart: look up every replica named by args and apply the same
// operation to each, reporting per-replica errors without aborting the rest.
func verbStart(sh *Shell, args string) {
	forEachNamedReplica(sh, args, func(sv supervisorHandle) error { return sv.Launch() })
}

func verbStop(sh *Shell, args string) {
	forEachNamedReplica(sh, args, func(sv supervisorHandle) error { return sv.RequestStop() })
}

func verbRestart(sh *Shell, args string) {
	forEachNamedReplica(sh, args, func(sv supervisorHandle) error { return sv.RequestRestart() })
}

// supervisorHandle is the subset of *supervisor.Supervisor the shell verbs
// need; kept as a named interface only so forEachNamedReplica's signature
// stays readable.
type supervisorHandle interface {
	Launch() error
	RequestStop() error
	RequestRestart() error
}

func forEachNamedReplica(sh *Shell, programName string, op func(supervisorHandle) error) {
	if programName == "" {
		fmt.Fprintln(sh.out, "usage: <command> <program>")
		return
	}
	replicas, ok := sh.reg.Replicas(programName)
	if !ok {
		fmt.Fprintln(sh.out, "Process not found")
		return
	}
	for _, sv := range replicas {
		if err := op(sv); err != nil {
			fmt.Fprintf(sh.out, "error: %s: %v\n", sv.Name().String(), err)
		}
	}
}
