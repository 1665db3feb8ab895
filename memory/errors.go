package memory

import "errors"

var (
	// ErrMemoryRepositoryRequired indicates a nil memory repository was provided.
	ErrMemoryRepositoryRequired = errors.New("memory repository is required")

	// ErrInvalidSchedule indicates a date/time string in no accepted layout.
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrInvalidWindow indicates a negative look-ahead window.
	ErrInvalidWindow = errors.New("window must not be negative")

	// ErrUnsupportedFormat indicates an export format other than csv or json.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)
