package models

import "errors"

// Structural input errors. These abort a solve before any optimization starts.
var (
	ErrInvalidParameters    = errors.New("bus count and bus size must be positive")
	ErrTooManyBuses         = errors.New("more buses than vertices")
	ErrInsufficientCapacity = errors.New("buses cannot seat every vertex")
	ErrUnknownVertex        = errors.New("unknown vertex")
	ErrConstraintTooSmall   = errors.New("rowdy group needs at least two members")
	ErrSelfLoop             = errors.New("self-loop")
	ErrEmptyGraph           = errors.New("graph has no vertices")
)
