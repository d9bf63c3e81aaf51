package graph

import "errors"

var (
	// ErrNotFound signals that a node addressed by business key does not exist.
	ErrNotFound = errors.New("graph: not found")
	// ErrInvalid signals bad caller input, for example an empty key.
	ErrInvalid = errors.New("graph: invalid input")
)
