package stairway

import (
	"fmt"

	"github.com/rmazhuga/stairway/migration"
)

const (
	OperationApply  = "apply"
	OperationRevert = "revert"
)

// StepError reports a failed apply or revert step. Steps completed before
// the failing one remain in effect as recorded by the adapter.
type StepError struct {
	Version   migration.Version
	Operation string
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("could not %s migration version %d: %s", e.Operation, e.Version, e.Err)
}

func (e *StepError) Cause() error {
	return e.Err
}

func (e *StepError) Unwrap() error {
	return e.Err
}
