// Package registry implements C5: the live collection of supervisors, keyed
// by program name and replica index, per spec §4.5.
//
// Grounded on the teacher's Taskmaster struct (supervisor.go), which held a
// flat slice of Process and fanned operations out over it; reshaped here into
// a name-indexed map so control (C7) and reload (C6) can address one program
// or one replica without scanning.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gosv/taskmaster/internal/logevent"
	"github.com/gosv/taskmaster/internal/procconfig"
	"github.com/gosv/taskmaster/internal/supervisor"
)

// Registry owns every live supervisor. Safe for concurrent use: readers (the
// control surface's status/start/stop commands) take the read lock, and only
// Add/Remove (driven by reload or startup) and CloseAll (shutdown) take the
// write lock.
type Registry struct {
	mu        sync.RWMutex
	programs  map[string][]*supervisor.Supervisor
	logSender logevent.Sender
}

// New returns an empty registry that hands sender to every supervisor it creates.
func New(sender logevent.Sender) *Registry {
	return &Registry{
		programs:  make(map[string][]*supervisor.Supervisor),
		logSender: sender,
	}
}

// Add creates config.Replicas supervisors for name and starts the ones
// configured at_launch, per spec §4.5 `add`.
func (r *Registry) Add(name string, config procconfig.ProgramConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	replicas := make([]*supervisor.Supervisor, 0, config.Replicas)
	for i := 0; i < config.Replicas; i++ {
		replicas = append(replicas, supervisor.New(supervisor.Name{Program: name, Index: i}, config, r.logSender))
	}
	r.programs[name] = replicas
}

// Remove destroys every replica of name, closing them concurrently, per spec
// §4.5 `remove`. Grounded on the AMBIENT
// STACK's commitment to golang.org/x/sync/errgroup for fanned-out teardown,
// the same concern the teacher's Taskmaster.stop handled with a plain
// sequential loop.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	replicas := r.programs[name]
	delete(r.programs, name)
	r.mu.Unlock()

	var g errgroup.Group
	for _, sv := range replicas {
		sv := sv
		g.Go(func() error {
			sv.Close()
			return nil
		})
	}
	_ = g.Wait()
}

// Has reports whether a program by this name is currently registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.programs[name]
	return ok
}

// Replicas returns the supervisors for name, in replica-index order.
func (r *Registry) Replicas(name string) ([]*supervisor.Supervisor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	replicas, ok := r.programs[name]
	return replicas, ok
}

// ProgramNames returns every registered program name, sorted, for stable
// `status` output.
func (r *Registry) ProgramNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.programs))
	for name := range r.programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Find returns the single supervisor identified by name-index, e.g. "web-0".
// The control surface's start/stop/restart verbs do not use it: they address
// every replica of a program through Replicas.
func (r *Registry) Find(spec string) (*supervisor.Supervisor, error) {
	program, index, err := parseReplicaSpec(spec)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	replicas, ok := r.programs[program]
	if !ok || index < 0 || index >= len(replicas) {
		return nil, fmt.Errorf("no such process %q", spec)
	}
	return replicas[index], nil
}

// ExpectedExitCode implements logevent.ExpectedExitCodeLookup: the C4 log
// pipeline asks this to tell an expected exit apart from an unexpected one
// when rendering an Exited event.
func (r *Registry) ExpectedExitCode(name string) (code int, ok bool) {
	program, index, err := parseReplicaSpec(name)
	if err != nil {
		return 0, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	replicas, exists := r.programs[program]
	if !exists || index < 0 || index >= len(replicas) {
		return 0, false
	}
	return replicas[index].Config().ExitCode, true
}

// CloseAll destroys every supervisor in the registry concurrently, per spec
// §6 shutdown: "every registered supervisor is force-stopped concurrently".
func (r *Registry) CloseAll() {
	r.mu.Lock()
	programs := r.programs
	r.programs = make(map[string][]*supervisor.Supervisor)
	r.mu.Unlock()

	var g errgroup.Group
	for _, replicas := range programs {
		for _, sv := range replicas {
			sv := sv
			g.Go(func() error {
				sv.Close()
				return nil
			})
		}
	}
	_ = g.Wait()
}

func parseReplicaSpec(spec string) (program string, index int, err error) {
	for i := len(spec) - 1; i >= 0; i-- {
		if spec[i] == '-' {
			program = spec[:i]
			_, scanErr := fmt.Sscanf(spec[i+1:], "%d", &index)
			if scanErr != nil {
				return "", 0, fmt.Errorf("invalid replica name %q", spec)
			}
			return program, index, nil
		}
	}
	return "", 0, fmt.Errorf("invalid replica name %q", spec)
}
