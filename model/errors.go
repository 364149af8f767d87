package model

import "github.com/pkg/errors"

var (
	// ErrOutOfRange is returned when a coordinate falls outside the grid.
	ErrOutOfRange = errors.New("coordinate out of range")
	// ErrMalformedState is returned when a persisted snapshot has the wrong shape.
	ErrMalformedState = errors.New("malformed state")
	// ErrInvalidConfiguration is returned for fill parameters outside their domain.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInvalidNeighborCount is returned when a neighbor counter yields a value outside [0,8].
	ErrInvalidNeighborCount = errors.New("neighbor count out of range")
)
