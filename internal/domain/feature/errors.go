package feature

import "errors"

var (
	// ErrFeatureNotFound is returned when no active feature matches the code
	ErrFeatureNotFound = errors.New("feature not found")

	// ErrAlreadyActive is returned when the user already holds a current
	// grant for the feature
	ErrAlreadyActive = errors.New("feature already active")
)
