package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Store errors
	ErrStoreFailure     = fmt.Errorf("store operation failed")
	ErrMigrationFailure = fmt.Errorf("schema migration failed")
	ErrConflict         = fmt.Errorf("conflicting state")

	// Catalog client errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTrackNotFound      = fmt.Errorf("track not found")

	// Request lifecycle errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
	ErrDisabled        = fmt.Errorf("recommendations disabled")
	ErrCancelled       = fmt.Errorf("operation cancelled")
	ErrTimeout         = fmt.Errorf("operation timed out")
	ErrInternal        = fmt.Errorf("internal error")
)
