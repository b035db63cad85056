package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated from content via hashing, so identical content
// always maps to the same ID.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Document is an uploaded source document before chunking.
type Document struct {
	Name     string
	Contents string
}

// Passage is a fixed-size fragment of a document, embedded and indexed
// for similarity search. Its ID is derived from the passage text, so
// re-indexing identical content is idempotent.
type Passage struct {
	Id           ID
	DocumentName string
	Seq          int // position of the passage within its document
	Contents     string
	Vector       []float32 // embedding vector (populated by the index builder)
	InsertedAt   time.Time
	UpdatedAt    time.Time
}

// ScoredPassage is a passage paired with a retrieval relevance score.
type ScoredPassage struct {
	Passage *Passage
	Score   float32
}

// Turn is one completed question/answer exchange in a conversation.
// Question holds what the user actually typed, never a rewritten form,
// since later turns resolve references against the user's own words.
type Turn struct {
	Question string
	Answer   string
	Asked    time.Time
}
