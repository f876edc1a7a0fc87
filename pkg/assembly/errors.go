package assembly

import "errors"

var (
	// ErrInvalidMove is returned when a move or snap targets an unknown
	// part or a part that is already snapped. The state is left unchanged.
	ErrInvalidMove = errors.New("invalid move")

	// ErrMalformedSchema marks schema definitions that cannot be loaded,
	// or that fail a strict validation pass.
	ErrMalformedSchema = errors.New("malformed schema")
)
