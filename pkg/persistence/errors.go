// Package persistence provides standardized error types for persistence
// operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrGraphNotFound indicates a graph definition was not found.
	ErrGraphNotFound = errors.New("graph not found")

	// ErrRunNotFound indicates a run record was not found.
	ErrRunNotFound = errors.New("run not found")

	// ErrConnectionNotFound indicates a provider connection was not found.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrGraphAlreadyExists indicates a graph with the same ID already exists.
	ErrGraphAlreadyExists = errors.New("graph already exists")
)

// GraphError wraps graph-related errors with additional context.
type GraphError struct {
	Op      string // Operation being performed (e.g. "GetByID", "Save")
	GraphID string
	Err     error
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("%s operation failed for graph %s: %v", e.Op, e.GraphID, e.Err)
}

func (e *GraphError) Unwrap() error {
	return e.Err
}

func (e *GraphError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewGraphError creates a new graph error with context.
func NewGraphError(op, graphID string, err error) *GraphError {
	return &GraphError{Op: op, GraphID: graphID, Err: err}
}

// RunError wraps run-related errors with additional context.
type RunError struct {
	Op    string
	RunID string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s operation failed for run %s: %v", e.Op, e.RunID, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func (e *RunError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRunError creates a new run error with context.
func NewRunError(op, runID string, err error) *RunError {
	return &RunError{Op: op, RunID: runID, Err: err}
}

// IsGraphNotFound reports whether err is, or wraps, ErrGraphNotFound.
func IsGraphNotFound(err error) bool {
	return errors.Is(err, ErrGraphNotFound)
}

// IsRunNotFound reports whether err is, or wraps, ErrRunNotFound.
func IsRunNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}

// IsConnectionNotFound reports whether err is, or wraps, ErrConnectionNotFound.
func IsConnectionNotFound(err error) bool {
	return errors.Is(err, ErrConnectionNotFound)
}
