package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when the trigger configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrGatewayUnavailable is returned when the sync gateway cannot be reached
	ErrGatewayUnavailable = errors.New("sync gateway unavailable")

	// ErrGatewayRejected is returned when the gateway answers with a non-2xx status
	ErrGatewayRejected = errors.New("sync gateway rejected the trigger")

	// ErrRunInProgress is returned when a batch is still running at the next tick
	ErrRunInProgress = errors.New("batch sync already in progress")
)
