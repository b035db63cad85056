package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/docchat/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend(t *testing.T) {
	m := NewConversationMemory()

	err := m.Append(core.Turn{Question: "What is the capital?", Answer: "Fredonia City."})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	turns := m.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, "What is the capital?", turns[0].Question)
	assert.Equal(t, "Fredonia City.", turns[0].Answer)
	assert.False(t, turns[0].Asked.IsZero())
}

func TestAppend_EmptyQuestionRejected(t *testing.T) {
	m := NewConversationMemory()

	err := m.Append(core.Turn{Question: "", Answer: "answer"})
	assert.ErrorIs(t, err, core.ErrEmptyQuestion)
	assert.Equal(t, 0, m.Len())
}

func TestAppend_PreservesTimestamp(t *testing.T) {
	m := NewConversationMemory()
	asked := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	err := m.Append(core.Turn{Question: "q", Answer: "a", Asked: asked})
	require.NoError(t, err)
	assert.Equal(t, asked, m.Turns()[0].Asked)
}

func TestTurns_ReturnsCopy(t *testing.T) {
	m := NewConversationMemory()
	require.NoError(t, m.Append(core.Turn{Question: "q", Answer: "a"}))

	turns := m.Turns()
	turns[0].Question = "mutated"

	assert.Equal(t, "q", m.Turns()[0].Question)
}

func TestReset(t *testing.T) {
	m := NewConversationMemory()
	require.NoError(t, m.Append(core.Turn{Question: "q1", Answer: "a1"}))
	require.NoError(t, m.Append(core.Turn{Question: "q2", Answer: "a2"}))

	m.Reset()

	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.Render())
}

func TestRender(t *testing.T) {
	m := NewConversationMemory()
	require.NoError(t, m.Append(core.Turn{Question: "Who founded it?", Answer: "Ada Quill."}))
	require.NoError(t, m.Append(core.Turn{Question: "When?", Answer: "In 1902."}))

	want := "User: Who founded it?\nAssistant: Ada Quill.\n" +
		"User: When?\nAssistant: In 1902."
	assert.Equal(t, want, m.Render())
}

func TestRender_Empty(t *testing.T) {
	assert.Empty(t, NewConversationMemory().Render())
}

func TestRenderRecent(t *testing.T) {
	m := NewConversationMemory()
	for i := range 5 {
		require.NoError(t, m.Append(core.Turn{
			Question: fmt.Sprintf("q%d", i),
			Answer:   fmt.Sprintf("a%d", i),
		}))
	}

	assert.Equal(t, "User: q3\nAssistant: a3\nUser: q4\nAssistant: a4", m.RenderRecent(2))
	assert.Equal(t, m.Render(), m.RenderRecent(10))
	assert.Empty(t, m.RenderRecent(0))
	assert.Empty(t, m.RenderRecent(-1))
}

func TestConcurrentAppend(t *testing.T) {
	m := NewConversationMemory()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = m.Append(core.Turn{
				Question: fmt.Sprintf("q%d", i),
				Answer:   "a",
			})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, m.Len())
}
