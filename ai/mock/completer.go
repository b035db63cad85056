package mock

import (
	"context"
	"sync"
)

// MockCompleter is a test double for ai.Completer.
// It allows custom behavior injection via a function field, or scripted
// responses returned in order.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, scripted responses (if any) are returned in order,
	// falling back to echoing the prompt.
	CompleteFunc func(ctx context.Context, system, prompt string) (string, error)

	mu        sync.Mutex
	responses []string
	prompts   []promptPair
	callCount int
}

type promptPair struct {
	System string
	Prompt string
}

// NewMockCompleter creates a mock completer with default echo behavior.
// Note: Returns concrete type to allow test assertions and behavior injection.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Script queues responses to be returned by successive Complete calls.
func (m *MockCompleter) Script(responses ...string) *MockCompleter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
	return m
}

// Complete records the prompts and returns the next scripted response,
// the CompleteFunc result, or the prompt itself.
func (m *MockCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.prompts = append(m.prompts, promptPair{System: system, Prompt: prompt})
	var scripted string
	hasScripted := len(m.responses) > 0
	if hasScripted {
		scripted = m.responses[0]
		m.responses = m.responses[1:]
	}
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, system, prompt)
	}
	if hasScripted {
		return scripted, nil
	}
	return prompt, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// SystemPrompt returns the system prompt recorded for call i (0-based).
func (m *MockCompleter) SystemPrompt(i int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.prompts) {
		return ""
	}
	return m.prompts[i].System
}

// Prompt returns the user prompt recorded for call i (0-based).
func (m *MockCompleter) Prompt(i int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.prompts) {
		return ""
	}
	return m.prompts[i].Prompt
}

// Reset clears recorded calls, scripted responses, and custom functions.
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.responses = nil
	m.prompts = nil
	m.CompleteFunc = nil
}
