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

package docchat

import (
	"context"
	"log/slog"

	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/ai/openai"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/index"
	"github.com/poiesic/docchat/memory"
	"github.com/poiesic/docchat/pipeline"
	"github.com/poiesic/docchat/session"
	"github.com/poiesic/docchat/storage"
	"github.com/poiesic/docchat/storage/badger"
)

// Agent bundles the passage store, the AI provider, and the index
// builder behind one handle. Sessions opened from an Agent share the
// read-only index but own independent conversation memory.
type Agent struct {
	backend     *badger.Backend
	passageRepo storage.PassageRepository
	provider    ai.AIProvider
	logger      *slog.Logger
}

// AgentOption configures an Agent.
type AgentOption func(*agentOptions)

type agentOptions struct {
	aiConfig *ai.Config
	inMemory bool
}

// WithAIConfig sets the AI backend configuration.
func WithAIConfig(config *ai.Config) AgentOption {
	return func(o *agentOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithInMemoryStore keeps the passage index in memory instead of on
// disk. The filePath argument to NewAgent is ignored.
func WithInMemoryStore() AgentOption {
	return func(o *agentOptions) {
		o.inMemory = true
	}
}

// NewAgent opens (or creates) the passage store at filePath and
// connects to the configured AI backends.
func NewAgent(filePath string, opts ...AgentOption) (*Agent, error) {
	// Apply options
	options := &agentOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	// Create passage repository
	passageRepo, err := badger.NewPassageRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create AI provider with configured settings
	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		passageRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Agent{
		backend:     backend,
		passageRepo: passageRepo,
		provider:    provider,
		logger:      slog.Default(),
	}, nil
}

func (a *Agent) Close() error {
	// Close AI provider first
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
	}

	if err := a.passageRepo.Close(); err != nil {
		a.logger.Error("error closing passage repository", "err", err)
		return err
	}

	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (a *Agent) PassageRepository() storage.PassageRepository {
	return a.passageRepo
}

// IndexDocuments chunks and embeds the given documents into the passage
// store. Returns the number of passages indexed.
func (a *Agent) IndexDocuments(ctx context.Context, documents []core.Document, opts ...index.BuilderOption) (int, error) {
	builder, err := index.NewBuilder(a.passageRepo, a.provider.Embedder(), opts...)
	if err != nil {
		return 0, err
	}
	defer builder.Release()

	return builder.Build(ctx, documents...)
}

// NewSession opens an independent conversation over the indexed
// documents. Each session gets its own memory and pipeline.
func (a *Agent) NewSession(retrieverOpts []index.RetrieverOption, sessionOpts ...session.Option) (*session.Session, error) {
	retriever, err := index.NewRetriever(a.passageRepo, a.provider.Embedder(), retrieverOpts...)
	if err != nil {
		return nil, err
	}

	p, err := pipeline.NewPipeline(retriever, a.provider.Completer(), memory.NewConversationMemory())
	if err != nil {
		return nil, err
	}

	return session.NewSession(p, sessionOpts...)
}
