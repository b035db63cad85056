package storage

import (
	"context"

	"github.com/poiesic/docchat/core"
)

// PassageRepository provides operations for managing indexed document passages.
// Implementations must be thread-safe and support concurrent access.
type PassageRepository interface {
	// AddPassages adds one or more passages to storage.
	// IDs are derived from passage contents, so adding a passage whose text
	// is already stored overwrites it in place (idempotent re-indexing).
	// Sets InsertedAt/UpdatedAt timestamps.
	// Returns the passages with IDs and timestamps populated.
	AddPassages(ctx context.Context, passages ...*core.Passage) ([]*core.Passage, error)

	// UpdatePassages updates existing passages.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any passage doesn't exist.
	UpdatePassages(ctx context.Context, passages ...*core.Passage) ([]*core.Passage, error)

	// GetPassage retrieves a single passage by ID.
	// Returns ErrNotFound if the passage doesn't exist.
	GetPassage(ctx context.Context, id core.ID) (*core.Passage, error)

	// GetPassages retrieves multiple passages by their IDs.
	// Returns only the passages that exist (no error for missing passages).
	GetPassages(ctx context.Context, ids ...core.ID) ([]*core.Passage, error)

	// GetPassagesByDocument retrieves IDs of passages belonging to a document,
	// ordered by sequence number.
	GetPassagesByDocument(ctx context.Context, documentName string) ([]core.ID, error)

	// DeletePassages removes passages by their IDs.
	// Also removes associated indices.
	// Returns ErrNotFound if any passage doesn't exist.
	DeletePassages(ctx context.Context, ids ...core.ID) error

	// CountPassages returns the number of passages in storage.
	CountPassages(ctx context.Context) (int, error)

	// AllPassages returns every stored passage. Order is unspecified.
	AllPassages(ctx context.Context) ([]*core.Passage, error)

	// FindSimilar finds passages similar to the given vector.
	// Returns passages with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ScoredPassage, error)

	// Close closes the repository and releases resources.
	Close() error
}
