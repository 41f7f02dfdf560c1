package auth

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials is returned for both unknown emails and wrong
	// passwords so a caller cannot probe which half was wrong.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrUnauthenticated is returned for any missing, invalid, expired or
	// revoked token on a protected operation.
	ErrUnauthenticated = errors.New("auth: unauthenticated")
)

// ValidationError carries per-field messages for malformed input.
type ValidationError struct {
	Fields map[string][]string
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

func (e *ValidationError) add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fmt.Sprintf("auth: validation failed for %s", strings.Join(fields, ", "))
}
