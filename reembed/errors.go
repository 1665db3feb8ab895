package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrCorpusRepositoryRequired indicates a nil corpus repository was provided.
	ErrCorpusRepositoryRequired = errors.New("corpus repository is required")

	// ErrWriterRequired indicates a nil corpus writer was provided.
	ErrWriterRequired = errors.New("corpus writer is required")

	// ErrEmbedderRequired indicates a nil embedder was provided.
	ErrEmbedderRequired = errors.New("embedder is required")
)
