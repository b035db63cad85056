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

package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/pipeline"
)

// DefaultTurnTimeout bounds a single turn, covering all of its backend
// calls. Generative backends are unbounded in latency otherwise.
const DefaultTurnTimeout = 2 * time.Minute

// Session serializes turns against one pipeline instance. A second turn
// submitted while one is outstanding is rejected with ErrTurnInFlight
// rather than queued.
type Session struct {
	pipeline *pipeline.Pipeline
	turnMu   sync.Mutex
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures a Session.
type Option func(*Session) error

// WithTurnTimeout sets the per-turn timeout. Zero disables the timeout.
// Default is DefaultTurnTimeout.
func WithTurnTimeout(timeout time.Duration) Option {
	return func(s *Session) error {
		if timeout < 0 {
			timeout = 0
		}
		s.timeout = timeout
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSession creates a session around the given pipeline.
func NewSession(p *pipeline.Pipeline, opts ...Option) (*Session, error) {
	if p == nil {
		return nil, ErrPipelineRequired
	}

	s := &Session{
		pipeline: p,
		timeout:  DefaultTurnTimeout,
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Ask runs one turn through the pipeline.
// Returns ErrTurnInFlight if a previous turn has not finished.
func (s *Session) Ask(ctx context.Context, query string) (*pipeline.Result, error) {
	return s.AskWithMonitor(ctx, query, nil)
}

// AskWithMonitor runs one turn with monitoring.
// The monitor receives callbacks as the turn moves through the pipeline.
func (s *Session) AskWithMonitor(ctx context.Context, query string, monitor pipeline.TurnMonitor) (*pipeline.Result, error) {
	if !s.turnMu.TryLock() {
		s.logger.Warn("turn rejected, previous turn still in flight")
		return nil, ErrTurnInFlight
	}
	defer s.turnMu.Unlock()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	return s.pipeline.RunWithMonitor(ctx, query, monitor)
}

// History returns the completed turns of this session in order.
func (s *Session) History() []core.Turn {
	return s.pipeline.Memory().Turns()
}

// Reset discards the session's conversation history. The passage index
// is unaffected.
func (s *Session) Reset() {
	s.pipeline.Memory().Reset()
}
