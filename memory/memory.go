// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/poiesic/docchat/core"
)

// ConversationMemory is an append-only record of the turns taken in a
// single conversation. It is safe for concurrent use.
type ConversationMemory struct {
	mu    sync.RWMutex
	turns []core.Turn
}

// NewConversationMemory creates an empty conversation memory.
func NewConversationMemory() *ConversationMemory {
	return &ConversationMemory{}
}

// Append records a completed turn. An empty Asked timestamp is filled
// with the current time.
func (m *ConversationMemory) Append(turn core.Turn) error {
	if err := core.ValidateTurn(&turn); err != nil {
		return err
	}
	if turn.Asked.IsZero() {
		turn.Asked = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, turn)
	return nil
}

// Turns returns a copy of all recorded turns in the order they occurred.
func (m *ConversationMemory) Turns() []core.Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Len returns the number of recorded turns.
func (m *ConversationMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns)
}

// Reset discards all recorded turns.
func (m *ConversationMemory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
}

// Render formats the whole history as a transcript suitable for
// inclusion in a prompt. Returns the empty string when no turns exist.
func (m *ConversationMemory) Render() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return renderTurns(m.turns)
}

// RenderRecent formats the most recent n turns as a transcript. A
// non-positive n renders nothing.
func (m *ConversationMemory) RenderRecent(n int) string {
	if n <= 0 {
		return ""
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	turns := m.turns
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return renderTurns(turns)
}

func renderTurns(turns []core.Turn) string {
	if len(turns) == 0 {
		return ""
	}

	var b strings.Builder
	for i, turn := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("User: ")
		b.WriteString(turn.Question)
		b.WriteString("\nAssistant: ")
		b.WriteString(turn.Answer)
	}
	return b.String()
}
