// Package usecase holds the input-validation layer between callers and the
// repository. Each use case checks field-level rules — blanks, length
// limits, email shape, password minimum — and then delegates exactly once
// to the repository or auth service. Validation failures are
// *ValidationError values rejected before any I/O happens.
package usecase

import (
	"fmt"
	"regexp"
)

// Field limits enforced before any write reaches the repository.
const (
	MaxTitleLength   = 200
	MaxContentLength = 50000
	MaxTagsPerNote   = 10
	MaxTagLength     = 30
	MaxBatchNotes    = 50

	MinPasswordLength = 6
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// ValidationError reports a rejected input field. It is returned before any
// repository or network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}
