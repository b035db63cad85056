package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/storage"
	"github.com/poiesic/docchat/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededRepo(t *testing.T, n int) storage.PassageRepository {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	for i := range n {
		_, err := repo.AddPassages(context.Background(), &core.Passage{
			DocumentName: "doc.txt",
			Seq:          i,
			Contents:     fmt.Sprintf("passage number %d", i),
		})
		require.NoError(t, err)
	}
	return repo
}

func TestPassageIterator_Batches(t *testing.T) {
	repo := newSeededRepo(t, 7)
	iterator := NewPassageIterator(repo, 3)

	var batchSizes []int
	seen := 0
	err := iterator.ForEach(context.Background(), func(passages []*core.Passage) error {
		batchSizes = append(batchSizes, len(passages))
		seen += len(passages)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 7, seen)
	assert.Equal(t, []int{3, 3, 1}, batchSizes)
}

func TestPassageIterator_Empty(t *testing.T) {
	repo := newSeededRepo(t, 0)
	iterator := NewPassageIterator(repo, 10)

	called := false
	err := iterator.ForEach(context.Background(), func(passages []*core.Passage) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.False(t, called)
}

func TestPassageIterator_StopsOnError(t *testing.T) {
	repo := newSeededRepo(t, 10)
	iterator := NewPassageIterator(repo, 2)

	batchErr := errors.New("batch failed")
	batches := 0
	err := iterator.ForEach(context.Background(), func(passages []*core.Passage) error {
		batches++
		if batches == 2 {
			return batchErr
		}
		return nil
	})

	assert.Equal(t, batchErr, err)
	assert.Equal(t, 2, batches)
}

func TestPassageIterator_InvalidBatchSizeUsesDefault(t *testing.T) {
	repo := newSeededRepo(t, 3)
	iterator := NewPassageIterator(repo, 0)
	assert.Equal(t, DefaultBatchSize, iterator.batchSize)
}

func TestPassageIterator_ContextCancelled(t *testing.T) {
	repo := newSeededRepo(t, 5)
	iterator := NewPassageIterator(repo, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := iterator.ForEach(ctx, func(passages []*core.Passage) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
