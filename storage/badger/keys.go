package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/docchat/core"
)

// Key prefixes for different data types
const (
	passagePrefix  = "pasrec"
	documentPrefix = "pasdoc"
)

// makePassageKey generates a key for a passage by ID.
func makePassageKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", passagePrefix, id))
}

// makeDocumentKey generates a composite key for the document index.
// Format: prefix:name\x00seq:id
// The NUL separator keeps document names from colliding with the
// fixed-width suffix, and BigEndian ordering keeps passages sorted
// by sequence within a document.
func makeDocumentKey(documentName string, seq int, id core.ID) []byte {
	prefix := makePartialDocumentKey(documentName)
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(seq))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialDocumentKey generates a prefix key for scanning all
// passages of a document.
func makePartialDocumentKey(documentName string) []byte {
	buf := make([]byte, 0, len(documentPrefix)+1+len(documentName)+1)
	buf = append(buf, documentPrefix...)
	buf = append(buf, ':')
	buf = append(buf, documentName...)
	buf = append(buf, 0x00)
	return buf
}
