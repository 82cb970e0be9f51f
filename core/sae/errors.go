package sae

import (
	"fmt"

	"github.com/pkg/errors"
)

// Conflict is an expected business-rule violation. Conflicts always carry the
// entity names needed to render a precise user message and are never reported
// as system errors.
type Conflict interface {
	error
	conflict()
}

// IsConflict reports whether err (or its cause) is a business-rule conflict.
func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(Conflict)
	return ok
}

// AlreadyAssignedError: the SAE already has attributions under another
// supervisor.
type AlreadyAssignedError struct {
	SaeTitle       string
	SupervisorName string
}

func (e *AlreadyAssignedError) conflict() {}
func (e *AlreadyAssignedError) Error() string {
	return fmt.Sprintf("SAE %q is already assigned to students by %s", e.SaeTitle, e.SupervisorName)
}

// StudentAssignedError: the (sae, student) pair already exists.
type StudentAssignedError struct {
	SaeTitle    string
	StudentName string
}

func (e *StudentAssignedError) conflict() {}
func (e *StudentAssignedError) Error() string {
	return fmt.Sprintf("%s is already assigned to SAE %q", e.StudentName, e.SaeTitle)
}

// UnauthorizedUnassignError: only the attributing supervisor may remove
// students from an SAE.
type UnauthorizedUnassignError struct {
	SaeTitle string
}

func (e *UnauthorizedUnassignError) conflict() {}
func (e *UnauthorizedUnassignError) Error() string {
	return fmt.Sprintf("only the supervisor who assigned SAE %q may unassign its students", e.SaeTitle)
}

// SaeAssignedError: an SAE with one or more attributions cannot be deleted,
// regardless of who owns the attributions.
type SaeAssignedError struct {
	SaeTitle string
}

func (e *SaeAssignedError) conflict() {}
func (e *SaeAssignedError) Error() string {
	return fmt.Sprintf("SAE %q has assigned students and cannot be deleted", e.SaeTitle)
}

// NotCreatorError: only the creator of an SAE may delete it.
type NotCreatorError struct {
	SaeTitle string
}

func (e *NotCreatorError) conflict() {}
func (e *NotCreatorError) Error() string {
	return fmt.Sprintf("only the creator of SAE %q may delete it", e.SaeTitle)
}
