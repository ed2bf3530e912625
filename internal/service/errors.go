package service

import (
	"errors"
	"fmt"

	"github.com/stemsi/cohortsched-backend/internal/cohort"
	"github.com/stemsi/cohortsched-backend/internal/lock"
	"github.com/stemsi/cohortsched-backend/internal/repository"
)

// Error kinds surfaced by schedule operations. Match them with errors.Is.
var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation error")
	ErrStorage        = errors.New("storage error")
	ErrPartialFailure = errors.New("partial failure")
	ErrPartitionBusy  = errors.New("cohort schedule is being modified")
)

// OpError is the error returned by every operation of this package.
type OpError struct {
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *OpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *OpError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

func (e *OpError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

func opErr(op string, kind error, message string, err error) *OpError {
	return &OpError{Op: op, Kind: kind, Message: message, Err: err}
}

// classify turns collaborator errors into an OpError of the matching kind.
func classify(op, message string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return opErr(op, ErrNotFound, message, err)
	case errors.Is(err, cohort.ErrInvalidKey):
		return opErr(op, ErrValidation, message, err)
	case errors.Is(err, lock.ErrLocked):
		return opErr(op, ErrPartitionBusy, message, err)
	default:
		return opErr(op, ErrStorage, message, err)
	}
}

// partialErr reports a committed operation whose secondary steps did not all complete.
func partialErr(op string, failed int) error {
	if failed == 0 {
		return nil
	}
	return opErr(op, ErrPartialFailure, fmt.Sprintf("%d secondary steps did not complete", failed), nil)
}
