package domain

import (
	"errors"
	"fmt"
)

// Input validation failures. The caller fixes the request, nothing is retried.
var (
	ErrImageRequired        = errors.New("image file is required")
	ErrImageTooLarge        = errors.New("image size exceeds limit")
	ErrUnsupportedMediaType = errors.New("only image files are supported")
	ErrInvalidInput         = errors.New("invalid input")
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDailyLimitExceeded = errors.New("daily analysis limit exceeded")
	ErrUnknownMembership  = errors.New("unknown membership tier")
)

// Vision provider failures.
var (
	ErrVisionTimeout         = errors.New("vision provider timeout")
	ErrVisionUpstream        = errors.New("vision provider error")
	ErrVisionInvalidResponse = errors.New("invalid response from vision provider")
	ErrNoMealDetected        = errors.New("no meal detected in image")
)

// ErrInfrastructure marks storage, persistence and counter-store failures.
var ErrInfrastructure = errors.New("infrastructure failure")

// IsValidation reports whether err is a user input problem.
func IsValidation(err error) bool {
	return errors.Is(err, ErrImageRequired) ||
		errors.Is(err, ErrImageTooLarge) ||
		errors.Is(err, ErrUnsupportedMediaType) ||
		errors.Is(err, ErrInvalidInput)
}

// IsBusiness reports whether err is a typed domain condition that the boundary
// maps directly to a status, as opposed to an upstream or infrastructure failure.
func IsBusiness(err error) bool {
	return IsValidation(err) ||
		errors.Is(err, ErrDailyLimitExceeded) ||
		errors.Is(err, ErrNoMealDetected) ||
		errors.Is(err, ErrUserNotFound)
}

// QuotaExceededError carries the quota context of a denied request.
type QuotaExceededError struct {
	UserID     string
	Membership Membership
	Limit      int
	Used       int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("user %s has exceeded daily limit (membership: %s, count: %d, limit: %d)",
		e.UserID, e.Membership, e.Used, e.Limit)
}

func (e *QuotaExceededError) Unwrap() error { return ErrDailyLimitExceeded }

// StepError wraps a non-business failure with the pipeline step and trace id
// it happened under.
type StepError struct {
	Step    string
	TraceID string
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed (trace_id=%s): %v", e.Step, e.TraceID, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
