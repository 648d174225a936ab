package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyOrMalformedResponse is returned when the retrieval result is empty or not a list of candidates
	ErrEmptyOrMalformedResponse = errors.New("empty or malformed response")

	// ErrNoCandidates is returned when the retrieval result holds no candidates.
	// It reads and matches as ErrEmptyOrMalformedResponse.
	ErrNoCandidates = fmt.Errorf("%w", ErrEmptyOrMalformedResponse)

	// ErrMissingPayload is returned when the first candidate carries no text
	ErrMissingPayload = errors.New("missing payload")

	// ErrMissingRequiredField is returned when id, name or price is absent after parsing
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrRetrieverFailure is returned when the retrieval backend request fails
	ErrRetrieverFailure = errors.New("retrieval backend request failed")
)

// ParseError describes why a raw response could not be turned into a ProductRecord.
// It unwraps to one of ErrEmptyOrMalformedResponse, ErrMissingPayload or ErrMissingRequiredField.
type ParseError struct {
	Cause error
	Key   FieldKey // set only for ErrMissingRequiredField
}

func (e *ParseError) Error() string {
	if errors.Is(e.Cause, ErrMissingRequiredField) {
		return fmt.Sprintf("%s: %s", e.Cause, e.Key)
	}
	return e.Cause.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// NewMissingFieldError builds the failure for an absent required field
func NewMissingFieldError(key FieldKey) *ParseError {
	return &ParseError{Cause: ErrMissingRequiredField, Key: key}
}
