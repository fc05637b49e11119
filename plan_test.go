package stairway

import (
	"testing"

	"github.com/rmazhuga/stairway/migration"
	"github.com/stretchr/testify/assert"
)

func Test_PlanComputation(t *testing.T) {
	tt := []struct {
		name       string
		registered migration.Versions
		applied    migration.Versions
		target     migration.Version
		revert     migration.Versions
		apply      migration.Versions
	}{
		{
			name:       "everything pending",
			registered: migration.Versions{10, 20, 30},
			target:     30,
			apply:      migration.Versions{10, 20, 30},
		},
		{
			name:       "everything applied",
			registered: migration.Versions{10, 20, 30},
			applied:    migration.Versions{10, 20, 30},
			target:     30,
		},
		{
			name:       "partially applied moves forward",
			registered: migration.Versions{10, 20, 30},
			applied:    migration.Versions{10},
			target:     30,
			apply:      migration.Versions{20, 30},
		},
		{
			name:       "lower target reverts in descending order",
			registered: migration.Versions{10, 20, 30},
			applied:    migration.Versions{10, 20, 30},
			target:     10,
			revert:     migration.Versions{30, 20},
		},
		{
			name:       "zero target reverts everything",
			registered: migration.Versions{10, 20},
			applied:    migration.Versions{10, 20},
			target:     migration.NoVersion,
			revert:     migration.Versions{20, 10},
		},
		{
			name:       "unregistered target bounds the pending set",
			registered: migration.Versions{10, 20, 30},
			target:     25,
			apply:      migration.Versions{10, 20},
		},
		{
			name:       "mixed state converges",
			registered: migration.Versions{10, 20, 30},
			applied:    migration.Versions{10, 30},
			target:     20,
			revert:     migration.Versions{30},
			apply:      migration.Versions{20},
		},
		{
			name:       "unregistered applied versions are untouched",
			registered: migration.Versions{10, 20},
			applied:    migration.Versions{15, 99},
			target:     20,
			apply:      migration.Versions{10, 20},
		},
		{
			name:   "empty registry",
			target: 100,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			p := newPlan(tc.registered, tc.applied, tc.target)

			assert.Equal(t, tc.revert, p.revert)
			assert.Equal(t, tc.apply, p.apply)
			assert.Equal(t, len(tc.revert) == 0 && len(tc.apply) == 0, p.isNoop())
		})
	}
}
