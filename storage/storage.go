// Package storage implements the mock entity store: two independent scopes
// of type -> id -> entity records, validated against a schema index on write.
package storage

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrNoSuchEntity is returned when removing an entity that is not in the global scope
	ErrNoSuchEntity = errors.New("entity does not exist")

	// ErrMissingRequiredField is matched by every MissingRequiredFieldError
	ErrMissingRequiredField = errors.New("missing required field")
)

// Scope selects one of the two independent store scopes
type Scope uint8

const (
	// Global is the scope read by store.get and written by store.set
	Global Scope = iota
	// Cache is the block-scoped in-memory scope read by store.getInBlock
	Cache
)

func (s Scope) String() string {
	switch s {
	case Global:
		return "global"
	case Cache:
		return "cache"
	}
	return fmt.Sprintf("scope(%d)", uint8(s))
}

// MissingRequiredFieldError is returned by Set when a non-nullable,
// non-derived field is absent from the record or holds Null
type MissingRequiredFieldError struct {
	Field      string
	EntityType string
	// Null is set when the field is present with a Null value
	Null bool
}

func (e *MissingRequiredFieldError) Error() string {
	if e.Null {
		return fmt.Sprintf("The required field '%s' for an entity of type '%s' is null.", e.Field, e.EntityType)
	}
	return fmt.Sprintf("Missing value for non-nullable field '%s' for an entity of type '%s'.", e.Field, e.EntityType)
}

// Is lets errors.Is match ErrMissingRequiredField
func (e *MissingRequiredFieldError) Is(target error) bool {
	return target == ErrMissingRequiredField
}

// RemoveError is returned by Remove for an absent entity. It matches ErrNoSuchEntity.
type RemoveError struct {
	EntityType string
	ID         string
}

func (e *RemoveError) Error() string {
	return fmt.Sprintf("(store.remove) Entity with type '%s' and id '%s' does not exist.", e.EntityType, e.ID)
}

func (e *RemoveError) Unwrap() error { return ErrNoSuchEntity }
