package review

import "errors"

var (
	// ErrReviewRepositoryRequired indicates a nil review repository was provided.
	ErrReviewRepositoryRequired = errors.New("review repository is required")

	// ErrWriterRequired indicates a nil corpus writer was provided.
	ErrWriterRequired = errors.New("corpus writer is required")
)
