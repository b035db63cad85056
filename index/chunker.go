package index

import (
	"strings"

	"github.com/poiesic/docchat/core"
)

const (
	// DefaultChunkSize is the default passage length in words.
	// Short chunks keep similarity matching tightly scoped.
	DefaultChunkSize = 50

	// DefaultChunkOverlap is the default overlap between consecutive
	// passages, in words.
	DefaultChunkOverlap = 20
)

// Chunker splits documents into fixed-size word windows with overlap.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker with the given chunk size and overlap, both
// in words. Non-positive values fall back to the defaults.
func NewChunker(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= chunkSize {
		return nil, ErrInvalidChunking
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk splits a document into passages. Whitespace runs are collapsed.
// A document shorter than the chunk size yields a single passage; an empty
// document yields none.
func (c *Chunker) Chunk(document core.Document) []*core.Passage {
	words := strings.Fields(document.Contents)
	if len(words) == 0 {
		return nil
	}

	step := c.chunkSize - c.overlap
	var passages []*core.Passage

	for start, seq := 0, 0; start < len(words); start, seq = start+step, seq+1 {
		end := start + c.chunkSize
		if end > len(words) {
			end = len(words)
		}

		passages = append(passages, &core.Passage{
			DocumentName: document.Name,
			Seq:          seq,
			Contents:     strings.Join(words[start:end], " "),
		})

		if end == len(words) {
			break
		}
	}

	return passages
}
