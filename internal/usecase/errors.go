package usecase

import "errors"

// ErrRunInProgress means another dispatcher run holds the lock; the
// tick is a no-op, not a failure.
var ErrRunInProgress = errors.New("follow-up run already in progress")

// DomainError: expected business outcomes (suppression, bad input).
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError: infrastructure problems (database, queue, provider
// connectivity). Surfaced as non-2xx to the caller.
type TechnicalError struct {
	Code    string
	Message string
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}
