// Package reload implements C6: diffing two configurations and applying the
// result to a live registry, per spec §4.6.
//
// Grounded on original_source/src/commands.rs's reload handling, but fixing
// the direction bug identified by reading it closely: the Rust original's
// `taskmaster.processes.retain(|p| p.name().name.as_ref() == name.as_str())`
// keeps exactly the replicas it should be dropping, both for a modified
// program (it should drop the OLD replicas before re-adding, not keep only
// them) and for a removed program (it should drop ALL of that program's
// replicas, not keep them). This package handles each diff kind with its own
// explicit registry calls (Remove then Add for Modified, Remove for Removed)
// instead of sharing one predicate between the two cases.
package reload

import (
	"github.com/gosv/taskmaster/internal/procconfig"
	"github.com/gosv/taskmaster/internal/registry"
)

// Kind classifies how a program's configuration changed between two loads.
type Kind int

const (
	Added Kind = iota
	Modified
	Removed
	Unchanged
)

// Diff is one program's classified change.
type Diff struct {
	Name   string
	Kind   Kind
	Config procconfig.ProgramConfig
}

// Compute classifies every program present in either config, per spec §4.6:
// "added" (in next but not prev), "removed" (in prev but not next),
// "modified" (in both, unequal), "unchanged" (in both, equal).
func Compute(prev, next procconfig.Config) []Diff {
	diffs := make([]Diff, 0, len(prev.Programs)+len(next.Programs))

	for name, nextCfg := range next.Programs {
		prevCfg, existed := prev.Programs[name]
		switch {
		case !existed:
			diffs = append(diffs, Diff{Name: name, Kind: Added, Config: nextCfg})
		case !prevCfg.Equal(nextCfg):
			diffs = append(diffs, Diff{Name: name, Kind: Modified, Config: nextCfg})
		default:
			diffs = append(diffs, Diff{Name: name, Kind: Unchanged, Config: nextCfg})
		}
	}
	for name, prevCfg := range prev.Programs {
		if _, stillThere := next.Programs[name]; !stillThere {
			diffs = append(diffs, Diff{Name: name, Kind: Removed, Config: prevCfg})
		}
	}

	return diffs
}

// Apply realises a computed diff against a live registry. Added and Modified
// both end with the program's new configuration running: Modified removes
// the stale replicas first so their supervisors are cleanly closed rather
// than orphaned. Removed drops the program outright. Unchanged is a no-op,
// left untouched so its running replicas and retry counters survive a
// reload; this is what makes an empty-diff reload a no-op on the registry
// (spec §8 round-trips).
func Apply(reg *registry.Registry, diffs []Diff) {
	for _, d := range diffs {
		switch d.Kind {
		case Added:
			reg.Add(d.Name, d.Config)
		case Modified:
			reg.Remove(d.Name)
			reg.Add(d.Name, d.Config)
		case Removed:
			reg.Remove(d.Name)
		case Unchanged:
			// intentionally left running
		}
	}
}
