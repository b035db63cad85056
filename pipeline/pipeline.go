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

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/memory"
)

// Searcher retrieves passage texts relevant to a query, most relevant
// first. index.Retriever satisfies this.
type Searcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// stageRunner executes one stage against the turn state. Returning
// halt=true ends the turn early without running later stages.
type stageRunner func(ctx context.Context, state *State) (halt bool, err error)

type pipelineStage struct {
	stage Stage
	run   stageRunner
}

// Pipeline runs the four-stage query pipeline over one conversation.
// A Pipeline owns its conversation memory; concurrent runs against the
// same Pipeline must be serialized by the caller.
type Pipeline struct {
	searcher  Searcher
	completer ai.Completer
	memory    *memory.ConversationMemory
	stages    []pipelineStage
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a pipeline over the given searcher, completion
// backend, and conversation memory.
func NewPipeline(
	searcher Searcher,
	completer ai.Completer,
	mem *memory.ConversationMemory,
	opts ...Option,
) (*Pipeline, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if completer == nil {
		return nil, ErrCompleterRequired
	}
	if mem == nil {
		return nil, ErrMemoryRequired
	}

	p := &Pipeline{
		searcher:  searcher,
		completer: completer,
		memory:    mem,
		logger:    slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	// The control flow is linear with a single early exit at retrieval,
	// so the pipeline is an ordered list rather than a graph.
	p.stages = []pipelineStage{
		{StageRewrite, p.rewrite},
		{StageRetrieve, p.retrieve},
		{StageCondense, p.condense},
		{StageAnswer, p.answer},
	}

	return p, nil
}

// Memory returns the conversation memory backing this pipeline.
func (p *Pipeline) Memory() *memory.ConversationMemory {
	return p.memory
}

// Run processes one user turn through the full pipeline.
// Returns the turn result, or an error if a backend call failed. On
// error, conversation memory is left unchanged.
func (p *Pipeline) Run(ctx context.Context, query string) (*Result, error) {
	return p.RunWithMonitor(ctx, query, nil)
}

// RunWithMonitor processes one user turn with monitoring.
// The monitor receives callbacks as each stage starts and completes.
func (p *Pipeline) RunWithMonitor(ctx context.Context, query string, monitor TurnMonitor) (*Result, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	state := &State{
		OriginalQuery: query,
		Query:         query,
		History:       p.memory.Render(),
	}

	monitor.Start(query)

	for _, s := range p.stages {
		monitor.StageStarted(s.stage)
		halt, err := s.run(ctx, state)
		if err != nil {
			p.logger.Error("turn failed", "stage", s.stage.String(), "err", err)
			return nil, fmt.Errorf("%s stage: %w", s.stage.String(), err)
		}
		state.Completed = s.stage
		monitor.StageCompleted(s.stage, state)

		if halt {
			result := &Result{Outcome: OutcomeNoMatches, Answer: NoMatchesMessage}
			p.logger.Info("turn halted, no matching passages", "query", state.Query)
			monitor.Finish(result)
			return result, nil
		}
	}

	// Memory records what the user actually said, not the rewritten
	// form, so later rewrites resolve references against real wording.
	if err := p.memory.Append(core.Turn{
		Question: state.OriginalQuery,
		Answer:   state.Answer,
	}); err != nil {
		return nil, err
	}

	result := &Result{Outcome: OutcomeAnswered, Answer: state.Answer}
	monitor.Finish(result)
	return result, nil
}

// rewrite reformulates the query for retrieval using history. A failed
// or empty rewrite gets one retry; if that also fails the original
// query is used and the turn continues.
func (p *Pipeline) rewrite(ctx context.Context, state *State) (bool, error) {
	prompt := renderRewritePrompt(state)
	for attempt := range 2 {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		out, err := p.completer.Complete(ctx, rewriteSystemPrompt, prompt)
		if err == nil {
			if rewritten := strings.TrimSpace(out); rewritten != "" {
				state.Query = rewritten
				return false, nil
			}
			err = ErrEmptyCompletion
		}
		p.logger.Warn("query rewrite attempt failed", "attempt", attempt+1, "err", err)
	}

	p.logger.Warn("query rewrite failed, falling back to original query", "query", state.OriginalQuery)
	state.Query = state.OriginalQuery
	return false, nil
}

// retrieve fetches passages for the rewritten query. Zero passages
// halts the turn.
func (p *Pipeline) retrieve(ctx context.Context, state *State) (bool, error) {
	passages, err := p.searcher.Search(ctx, state.Query)
	if err != nil {
		return false, err
	}
	state.Passages = passages
	return len(passages) == 0, nil
}

// condense merges the retrieved passages into one context block.
func (p *Pipeline) condense(ctx context.Context, state *State) (bool, error) {
	out, err := p.completer.Complete(ctx, condenseSystemPrompt, renderCondensePrompt(state))
	if err != nil {
		return false, err
	}
	condensed := strings.TrimSpace(out)
	if condensed == "" {
		return false, ErrEmptyCompletion
	}
	state.Condensed = condensed
	return false, nil
}

// answer produces the final response from condensed context and history.
func (p *Pipeline) answer(ctx context.Context, state *State) (bool, error) {
	out, err := p.completer.Complete(ctx, answerSystemPrompt, renderAnswerPrompt(state))
	if err != nil {
		return false, err
	}
	answer := strings.TrimSpace(out)
	if answer == "" {
		return false, ErrEmptyCompletion
	}
	state.Answer = answer
	return false, nil
}
