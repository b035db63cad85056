package index

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/storage"
)

const defaultEmbedBatchSize = 16

// Builder constructs the retrieval index from uploaded documents.
// It chunks each document, stores the passages, and embeds them
// concurrently on a worker pool. Build blocks until every passage is
// embedded, since the pipeline must never search a partially built index.
type Builder struct {
	repository storage.PassageRepository
	embedder   ai.Embedder
	chunker    *Chunker
	pool       *ants.Pool
	batchSize  int
	logger     *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) BuilderOption {
	return func(b *Builder) error {
		if size < 1 {
			size = 1
		}
		if b.pool != nil {
			b.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		b.pool = pool
		return nil
	}
}

// WithChunking sets the chunk size and overlap, in words.
func WithChunking(chunkSize, overlap int) BuilderOption {
	return func(b *Builder) error {
		chunker, err := NewChunker(chunkSize, overlap)
		if err != nil {
			return err
		}
		b.chunker = chunker
		return nil
	}
}

// WithEmbedBatchSize sets how many passages are embedded per backend call.
// Default is 16.
func WithEmbedBatchSize(size int) BuilderOption {
	return func(b *Builder) error {
		if size < 1 {
			size = 1
		}
		b.batchSize = size
		return nil
	}
}

// WithBuilderLogger sets a custom logger.
// Default is slog.Default().
func WithBuilderLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBuilder creates a new index builder.
func NewBuilder(
	repository storage.PassageRepository,
	embedder ai.Embedder,
	opts ...BuilderOption,
) (*Builder, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	chunker, err := NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	if err != nil {
		return nil, err
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		repository: repository,
		embedder:   embedder,
		chunker:    chunker,
		pool:       pool,
		batchSize:  defaultEmbedBatchSize,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(b); optErr != nil {
			b.Release()
			return nil, optErr
		}
	}

	return b, nil
}

// Build chunks the documents, stores the passages, and embeds them.
// It returns the number of passages indexed. Unlike fire-and-forget
// ingestion, Build fails if any passage could not be embedded: a partially
// embedded index would silently shrink retrieval results.
func (b *Builder) Build(ctx context.Context, documents ...core.Document) (int, error) {
	var passages []*core.Passage
	for _, document := range documents {
		chunks := b.chunker.Chunk(document)
		b.logger.Debug("chunked document", "document", document.Name, "passages", len(chunks))
		passages = append(passages, chunks...)
	}

	if len(passages) == 0 {
		return 0, nil
	}

	added, err := b.repository.AddPassages(ctx, passages...)
	if err != nil {
		return 0, err
	}

	if err := b.embedAll(ctx, added); err != nil {
		return 0, err
	}

	b.logger.Info("index built", "documents", len(documents), "passages", len(added))
	return len(added), nil
}

// embedAll embeds passages in batches on the worker pool and stores the
// vectors. Blocks until every batch completes; returns the first error.
func (b *Builder) embedAll(ctx context.Context, passages []*core.Passage) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	record := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for start := 0; start < len(passages); start += b.batchSize {
		end := start + b.batchSize
		if end > len(passages) {
			end = len(passages)
		}
		batch := passages[start:end]

		wg.Add(1)
		err := b.pool.Submit(func() {
			defer wg.Done()
			if err := b.embedBatch(ctx, batch); err != nil {
				record(err)
			}
		})
		if err != nil {
			wg.Done()
			record(err)
			break
		}
	}

	wg.Wait()
	return firstErr
}

func (b *Builder) embedBatch(ctx context.Context, batch []*core.Passage) error {
	texts := make([]string, len(batch))
	for i, passage := range batch {
		texts[i] = passage.Contents
	}

	vectors, err := b.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		b.logger.Error("error embedding passages", "count", len(texts), "err", err)
		return err
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(batch), len(vectors))
	}

	// Unit-length vectors let the store use dot product as cosine.
	for i := range vectors {
		batch[i].Vector = core.NormalizeVector(vectors[i])
	}

	_, err = b.repository.UpdatePassages(ctx, batch...)
	return err
}

// Release releases the worker pool.
// The builder should not be used after calling Release.
func (b *Builder) Release() {
	if b.pool != nil {
		b.pool.Release()
	}
}
