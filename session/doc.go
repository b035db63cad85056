// Package session provides the per-conversation context object that
// owns a pipeline and serializes turns against it. Each session has its
// own conversation memory and pipeline instance; sessions share nothing
// with each other beyond the read-only passage index.
package session
