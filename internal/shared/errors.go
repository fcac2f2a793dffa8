package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")

	// Authentication errors
	ErrAuthRequired = fmt.Errorf("authentication required")

	// Driver and session errors
	ErrTimeout           = fmt.Errorf("operation timed out")
	ErrAPIRequest        = fmt.Errorf("API request failed")
	ErrDriverUnavailable = fmt.Errorf("driver unavailable")
	ErrSessionRestart    = fmt.Errorf("session restart failed")
	ErrNoSession         = fmt.Errorf("no active session")

	// Batch state errors
	ErrCorruptState    = fmt.Errorf("corrupt progress state")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
