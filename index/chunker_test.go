package index

import (
	"fmt"
	"strings"
	"testing"

	"github.com/poiesic/docchat/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordDocument builds a document of n distinct words: "w0 w1 w2 ...".
func wordDocument(name string, n int) core.Document {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return core.Document{Name: name, Contents: strings.Join(words, " ")}
}

func TestNewChunker(t *testing.T) {
	t.Run("defaults for non-positive values", func(t *testing.T) {
		c, err := NewChunker(0, -1)
		require.NoError(t, err)
		assert.Equal(t, DefaultChunkSize, c.chunkSize)
		assert.Equal(t, DefaultChunkOverlap, c.overlap)
	})

	t.Run("overlap must be smaller than chunk size", func(t *testing.T) {
		_, err := NewChunker(10, 10)
		assert.ErrorIs(t, err, ErrInvalidChunking)
	})
}

func TestChunk_WindowsAndOverlap(t *testing.T) {
	c, err := NewChunker(50, 20)
	require.NoError(t, err)

	passages := c.Chunk(wordDocument("doc.txt", 120))
	require.Len(t, passages, 4)

	// Window starts advance by chunkSize-overlap words
	assert.Len(t, strings.Fields(passages[0].Contents), 50)
	assert.Len(t, strings.Fields(passages[1].Contents), 50)
	assert.Len(t, strings.Fields(passages[2].Contents), 50)
	assert.Len(t, strings.Fields(passages[3].Contents), 30)

	for i, p := range passages {
		assert.Equal(t, i, p.Seq)
		assert.Equal(t, "doc.txt", p.DocumentName)
	}

	// The last 20 words of one window are the first 20 of the next
	prev := strings.Fields(passages[0].Contents)
	next := strings.Fields(passages[1].Contents)
	assert.Equal(t, prev[30:], next[:20])
}

func TestChunk_ShortDocument(t *testing.T) {
	c, err := NewChunker(50, 20)
	require.NoError(t, err)

	passages := c.Chunk(core.Document{Name: "short.txt", Contents: "just a few words"})
	require.Len(t, passages, 1)
	assert.Equal(t, "just a few words", passages[0].Contents)
	assert.Equal(t, 0, passages[0].Seq)
}

func TestChunk_EmptyDocument(t *testing.T) {
	c, err := NewChunker(50, 20)
	require.NoError(t, err)

	assert.Empty(t, c.Chunk(core.Document{Name: "empty.txt", Contents: "   \n\t "}))
}

func TestChunk_CollapsesWhitespace(t *testing.T) {
	c, err := NewChunker(10, 2)
	require.NoError(t, err)

	passages := c.Chunk(core.Document{Name: "ws.txt", Contents: "one\n\ntwo   three\tfour"})
	require.Len(t, passages, 1)
	assert.Equal(t, "one two three four", passages[0].Contents)
}
