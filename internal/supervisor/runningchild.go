package supervisor

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// runningChild is the RunningChild cell from spec §3: present iff a child
// process currently exists for this supervisor. spawnID is an addition over
// the original's plain started_at comparison (see SPEC_FULL.md AMBIENT
// STACK): it lets the stop-deadline timer recognise "is this still the spawn
// I was asked to kill" without depending on clock resolution.
type runningChild struct {
	mu      sync.Mutex
	present bool
	pid     int
	started time.Time
	spawnID uuid.UUID
}

// set records a newly spawned child. Spec invariant: the only place a pid is
// recorded is immediately after spawn.
func (c *runningChild) set(pid int) (started time.Time, spawnID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.present = true
	c.pid = pid
	c.started = time.Now()
	c.spawnID = uuid.New()
	return c.started, c.spawnID
}

// clear removes the current child. Spec invariant: the only place a pid is
// cleared is immediately after waitpid on the same pid.
func (c *runningChild) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.present = false
	c.pid = 0
}

// snapshot returns the current state without requiring the caller to hold
// any lock.
func (c *runningChild) snapshot() (pid int, started time.Time, spawnID uuid.UUID, present bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pid, c.started, c.spawnID, c.present
}

// isStillSpawn reports whether the child currently recorded is the one
// identified by id — used by the stop-deadline timer to avoid killing a
// later spawn (spec §4.3 "Stop-deadline interaction").
func (c *runningChild) isStillSpawn(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.present && c.spawnID == id
}
