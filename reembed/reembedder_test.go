package reembed

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/poiesic/docchat/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		BatchSize:      2,
		ReportInterval: 1,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	}
}

func TestReembedder_Run(t *testing.T) {
	repo := newSeededRepo(t, 5)
	embedder := mock.NewMockEmbedder()
	var out bytes.Buffer

	reembedder := NewReembedder(repo, embedder, testConfig(), &out)
	err := reembedder.Run(context.Background())
	require.NoError(t, err)

	// Every passage now carries a unit-length vector.
	all, err := repo.AllPassages(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 5)
	for _, passage := range all {
		require.NotEmpty(t, passage.Vector)
		var magnitude float32
		for _, v := range passage.Vector {
			magnitude += v * v
		}
		assert.InDelta(t, 1.0, math.Sqrt(float64(magnitude)), 1e-4)
	}

	assert.Contains(t, out.String(), "Starting re-embedding of 5 passages")
	assert.Contains(t, out.String(), "Re-embedding complete")
}

func TestReembedder_EmptyIndex(t *testing.T) {
	repo := newSeededRepo(t, 0)
	var out bytes.Buffer

	reembedder := NewReembedder(repo, mock.NewMockEmbedder(), testConfig(), &out)
	err := reembedder.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "No passages found")
}

func TestReembedder_EmbeddingFailure(t *testing.T) {
	repo := newSeededRepo(t, 3)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedding service down")
	}
	var out bytes.Buffer

	reembedder := NewReembedder(repo, embedder, testConfig(), &out)
	err := reembedder.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding service down")
}

func TestReembedder_NilConfigUsesDefaults(t *testing.T) {
	repo := newSeededRepo(t, 0)
	reembedder := NewReembedder(repo, mock.NewMockEmbedder(), nil, &bytes.Buffer{})
	assert.Equal(t, DefaultConfig().BatchSize, reembedder.config.BatchSize)
}
