package index

import "errors"

var (
	// ErrRepositoryRequired is returned when a passage repository is not provided.
	ErrRepositoryRequired = errors.New("passage repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidChunking is returned when the chunk size and overlap are inconsistent.
	ErrInvalidChunking = errors.New("chunk overlap must be smaller than chunk size")
)
