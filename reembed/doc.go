// Package reembed re-embeds an existing passage index with a new or
// updated embedding model, without re-chunking the source documents.
//
// It processes passages in batches with progress reporting and retry
// logic with exponential backoff. Re-embedding an index that is
// currently serving sessions is unsupported; run it offline.
package reembed
