package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError marks malformed or missing input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// BusinessError marks a rule violation: invalid transition, unresolved
// extra or pizza reference, duplicate unique field. Details carries the
// offending values when there are several.
type BusinessError struct {
	Code    string
	Message string
	Details []string
}

func (e *BusinessError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Details, ", ")
}

// NotFoundError marks an absent referenced entity.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

// ConflictError marks a lost race on a status transition: the order
// moved past the expected status before the write landed.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// DatabaseError wraps a transient persistence failure. Retry policy
// belongs to the persistence collaborator, never to the core.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsBusiness(err error) bool {
	var target *BusinessError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}
