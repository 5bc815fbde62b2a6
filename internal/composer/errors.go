package composer

import (
	"alcyxob/coach-app/internal/repository"
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

var (
	ErrPlanNotFound     = errors.New("plan not found")
	ErrSlotNotFound     = errors.New("no session or meal in this slot")
	ErrItemOutOfRange   = errors.New("item index out of range")
	ErrUnknownField     = errors.New("unknown item field")
	ErrInvalidValue     = errors.New("invalid value for item field")
	ErrInvalidSlot      = errors.New("invalid slot")
	ErrEmptyPlanName    = errors.New("plan name is required")
	ErrNoSessions       = errors.New("plan needs at least one session")
	ErrInvalidItemValue = errors.New("invalid item")
)

// ValidationError is returned before anything is written. Err may combine
// several problems; Problems lists them individually.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() []error {
	return multierr.Errors(e.Err)
}

// Problems returns each individual validation problem.
func (e *ValidationError) Problems() []string {
	errs := multierr.Errors(e.Err)
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}

func invalid(err error) error {
	return &ValidationError{Err: err}
}

// DuplicateSlotError reports an attempt to add a second session or meal in an
// occupied slot. The composer state is left unchanged.
type DuplicateSlotError struct {
	Slot string
}

func (e *DuplicateSlotError) Error() string {
	return fmt.Sprintf("slot %s is already occupied", e.Slot)
}

// PersistenceError reports the save step that failed together with the
// storage error's code and message.
type PersistenceError struct {
	Step    string
	Code    string
	Message string
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("save failed while %s: [%s] %s", e.Step, e.Code, e.Message)
	}
	return fmt.Sprintf("save failed while %s: %s", e.Step, e.Message)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistErr(step string, err error) error {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	pe = &PersistenceError{Step: step, Message: err.Error(), Err: err}
	var se *repository.StoreError
	if errors.As(err, &se) {
		pe.Code = se.Code
		pe.Message = se.Message
	}
	return pe
}
