package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/storage"
)

// PassageRepository implements storage.PassageRepository for BadgerDB.
type PassageRepository struct {
	backend *Backend
}

var _ storage.PassageRepository = (*PassageRepository)(nil)

// NewPassageRepository creates a new PassageRepository.
func NewPassageRepository(backend *Backend) (storage.PassageRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &PassageRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database lifecycle.
func (r *PassageRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *PassageRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ScoredPassage, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// AddPassages adds one or more passages to storage.
// IDs are derived from passage contents, so re-adding identical text is
// idempotent.
func (r *PassageRepository) AddPassages(ctx context.Context, passages ...*core.Passage) ([]*core.Passage, error) {
	for _, passage := range passages {
		if err := core.ValidatePassage(passage); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, passage := range passages {
			passage.Id = core.IDFromContent(passage.Contents)
			passage.InsertedAt = time.Now().UTC()
			passage.UpdatedAt = passage.InsertedAt

			key := makePassageKey(passage.Id)
			if err := tx.Set(key, storage.MarshalPassage(passage)); err != nil {
				return err
			}

			docKey := makeDocumentKey(passage.DocumentName, passage.Seq, passage.Id)
			if err := tx.Set(docKey, storage.MarshalID(passage.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return passages, err
}

// UpdatePassages updates existing passages.
func (r *PassageRepository) UpdatePassages(ctx context.Context, passages ...*core.Passage) ([]*core.Passage, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, passage := range passages {
			key := makePassageKey(passage.Id)

			old, err := r.readPassage(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			passage.UpdatedAt = time.Now().UTC()

			if err := tx.Set(key, storage.MarshalPassage(passage)); err != nil {
				return err
			}

			// Refresh the document index if placement changed
			if old.DocumentName != passage.DocumentName || old.Seq != passage.Seq {
				oldDocKey := makeDocumentKey(old.DocumentName, old.Seq, old.Id)
				if err := tx.Delete(oldDocKey); err != nil {
					return err
				}
				newDocKey := makeDocumentKey(passage.DocumentName, passage.Seq, passage.Id)
				if err := tx.Set(newDocKey, storage.MarshalID(passage.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return passages, err
}

// DeletePassages removes passages by their IDs.
func (r *PassageRepository) DeletePassages(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makePassageKey(id)

			passage, err := r.readPassage(tx, key)
			if err != nil {
				return err
			}
			if passage == nil {
				return storage.ErrNotFound
			}

			if err := tx.Delete(key); err != nil {
				return err
			}

			docKey := makeDocumentKey(passage.DocumentName, passage.Seq, passage.Id)
			if err := tx.Delete(docKey); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetPassage retrieves a single passage by ID.
func (r *PassageRepository) GetPassage(ctx context.Context, id core.ID) (*core.Passage, error) {
	var passage *core.Passage

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		passage, err = r.readPassage(tx, makePassageKey(id))
		return err
	}, false)

	if err != nil {
		return nil, err
	}
	if passage == nil {
		return nil, storage.ErrNotFound
	}
	return passage, nil
}

// GetPassages retrieves multiple passages by their IDs.
// Missing passages are silently skipped.
func (r *PassageRepository) GetPassages(ctx context.Context, ids ...core.ID) ([]*core.Passage, error) {
	passages := make([]*core.Passage, 0, len(ids))

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			passage, err := r.readPassage(tx, makePassageKey(id))
			if err != nil {
				return err
			}
			if passage != nil {
				passages = append(passages, passage)
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return passages, nil
}

// GetPassagesByDocument retrieves IDs of passages belonging to a document,
// ordered by sequence number.
func (r *PassageRepository) GetPassagesByDocument(ctx context.Context, documentName string) ([]core.ID, error) {
	var ids []core.ID

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialDocumentKey(documentName)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				id, err := storage.UnmarshalID(val)
				if err != nil {
					return err
				}
				ids = append(ids, id)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return ids, nil
}

// CountPassages returns the number of passages in storage.
func (r *PassageRepository) CountPassages(ctx context.Context) (int, error) {
	count := 0

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(passagePrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)

	if err != nil {
		return 0, err
	}
	return count, nil
}

// AllPassages returns every stored passage.
func (r *PassageRepository) AllPassages(ctx context.Context) ([]*core.Passage, error) {
	var passages []*core.Passage

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(passagePrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var passage *core.Passage
			err := iter.Item().Value(func(val []byte) error {
				var err error
				passage, err = storage.UnmarshalPassage(val)
				return err
			})
			if err != nil {
				return err
			}
			if passage != nil {
				passages = append(passages, passage)
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return passages, nil
}

// readPassage reads a passage by key within a transaction.
// Returns nil (no error) if the key does not exist.
func (r *PassageRepository) readPassage(tx *badger.Txn, key []byte) (*core.Passage, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var passage *core.Passage
	err = item.Value(func(val []byte) error {
		var err error
		passage, err = storage.UnmarshalPassage(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return passage, nil
}
