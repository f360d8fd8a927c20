package repository

import "errors"

// Common repository errors
var (
	// ErrTeamNotFound is returned when a team is not found or its
	// invite code does not resolve to an active team.
	ErrTeamNotFound = errors.New("team not found")

	// ErrTaskNotFound is returned when a task is not found
	ErrTaskNotFound = errors.New("task not found")

	// ErrProjectNotFound is returned when a project is not found
	ErrProjectNotFound = errors.New("project not found")

	// ErrInviteCodeExhausted is returned when invite code generation
	// keeps colliding; callers treat it as an internal failure.
	ErrInviteCodeExhausted = errors.New("could not generate a unique invite code")
)
