package stairway

import (
	"github.com/rmazhuga/stairway/migration"
)

// plan is the ordered set of pending steps computed for a single
// MigrateTo call. Reverts run first, highest version first, then applies
// run lowest version first. With a history that was only ever driven
// through the migrator at most one of the two lists is non-empty.
type plan struct {
	revert migration.Versions
	apply  migration.Versions
}

// newPlan computes the steps needed to move from the applied set to the
// target version. registered must be sorted ascending. Applied versions
// missing from registered are left alone.
func newPlan(registered migration.Versions, applied migration.Versions, target migration.Version) plan {
	var p plan

	for i := len(registered) - 1; i >= 0; i-- {
		v := registered[i]
		if v > target && applied.Contains(v) {
			p.revert = append(p.revert, v)
		}
	}

	for _, v := range registered {
		if v <= target && !applied.Contains(v) {
			p.apply = append(p.apply, v)
		}
	}

	return p
}

func (p plan) isNoop() bool {
	return len(p.revert) == 0 && len(p.apply) == 0
}
