package bill

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

// ValidationError describes a rejected draft or edit. It matches ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Step names one write of a multi-write operation.
type Step string

const (
	StepCreateRoot      Step = "create_root"
	StepMarkPaid        Step = "mark_paid"
	StepPostTransaction Step = "post_transaction"
	StepAdjustBalance   Step = "adjust_balance"
	StepCreateNext      Step = "create_next_occurrence"
	StepDeleteBill      Step = "delete_bill"
	StepUpdateBill      Step = "update_bill"
)

func occurrenceStep(n int) Step {
	return Step(fmt.Sprintf("create_occurrence_%d", n))
}

// PartialFailureError reports a multi-write operation that stopped after
// some of its writes were committed. Nothing is rolled back; Committed and
// Bills tell the caller what to reconcile.
type PartialFailureError struct {
	Op        string
	Failed    Step
	Committed []Step
	// Bills are the bills written before the failure: created, updated,
	// marked paid or deleted, depending on Op.
	Bills []*Bill
	Err   error
}

func (e *PartialFailureError) Error() string {
	done := make([]string, len(e.Committed))
	for i, s := range e.Committed {
		done[i] = string(s)
	}

	return fmt.Sprintf("%s: step %s failed after [%s]: %v", e.Op, e.Failed, strings.Join(done, ", "), e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a store failure that happened before any write of
// the operation was committed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
