package core

import "errors"

var (
	ErrCompanyNotFound  = errors.New("company not found")
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrGoalNotFound     = errors.New("goal not found")
	ErrInvalidGoal      = errors.New("goal description is required")
	ErrDuplicateGoal    = errors.New("goal ids must be unique per employee")
)
