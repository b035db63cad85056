package session

import "errors"

var (
	// ErrPipelineRequired is returned when a pipeline is not provided.
	ErrPipelineRequired = errors.New("pipeline required")

	// ErrTurnInFlight is returned when a turn is submitted while a
	// previous turn is still being processed.
	ErrTurnInFlight = errors.New("a turn is already in flight for this session")
)
