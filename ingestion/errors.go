package ingestion

import "errors"

var (
	// ErrCorpusRepositoryRequired is returned when a corpus repository is not provided.
	ErrCorpusRepositoryRequired = errors.New("corpus repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrIndexRequired is returned when an index manager is not provided.
	ErrIndexRequired = errors.New("index manager required")

	// ErrWriterRequired is returned when an importer is built without a writer.
	ErrWriterRequired = errors.New("corpus writer required")

	// ErrUnsupportedFormat is returned for import files that are neither CSV nor XLSX.
	ErrUnsupportedFormat = errors.New("unsupported import format")

	// ErrMissingColumns is returned when an import file lacks question/answer headers.
	ErrMissingColumns = errors.New("import file needs question and answer columns")
)
