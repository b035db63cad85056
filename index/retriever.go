package index

import (
	"context"
	"log/slog"

	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/storage"
)

const (
	// DefaultK is the number of passages returned per search.
	DefaultK = 5

	// DefaultFetchK is the number of similarity candidates gathered
	// before MMR re-ranking.
	DefaultFetchK = 20

	// DefaultLambda balances relevance against diversity in MMR.
	// 1.0 is pure similarity, 0.0 is pure diversity.
	DefaultLambda = 0.5

	// DefaultMinSimilarity filters out candidates with little relation
	// to the query before re-ranking.
	DefaultMinSimilarity = 0.25
)

// Retriever performs diversity-aware semantic search over the passage index.
type Retriever struct {
	repository    storage.PassageRepository
	embedder      ai.Embedder
	k             int
	fetchK        int
	lambda        float32
	minSimilarity float32
	logger        *slog.Logger
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever) error

// WithK sets the number of passages returned per search. Default is 5.
func WithK(k int) RetrieverOption {
	return func(r *Retriever) error {
		if k < 1 {
			k = 1
		}
		r.k = k
		return nil
	}
}

// WithFetchK sets the number of similarity candidates gathered before MMR
// re-ranking. Default is 20. FetchK is clamped to at least K.
func WithFetchK(fetchK int) RetrieverOption {
	return func(r *Retriever) error {
		if fetchK < 1 {
			fetchK = 1
		}
		r.fetchK = fetchK
		return nil
	}
}

// WithLambda sets the MMR relevance/diversity balance in [0, 1].
// Default is 0.5.
func WithLambda(lambda float32) RetrieverOption {
	return func(r *Retriever) error {
		if lambda < 0 {
			lambda = 0
		}
		if lambda > 1 {
			lambda = 1
		}
		r.lambda = lambda
		return nil
	}
}

// WithMinSimilarity sets the candidate similarity threshold. Default is 0.25.
func WithMinSimilarity(minSimilarity float32) RetrieverOption {
	return func(r *Retriever) error {
		r.minSimilarity = minSimilarity
		return nil
	}
}

// WithRetrieverLogger sets a custom logger.
// Default is slog.Default().
func WithRetrieverLogger(logger *slog.Logger) RetrieverOption {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a new retriever over the given passage repository.
func NewRetriever(
	repository storage.PassageRepository,
	embedder ai.Embedder,
	opts ...RetrieverOption,
) (*Retriever, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Retriever{
		repository:    repository,
		embedder:      embedder,
		k:             DefaultK,
		fetchK:        DefaultFetchK,
		lambda:        DefaultLambda,
		minSimilarity: DefaultMinSimilarity,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	if r.fetchK < r.k {
		r.fetchK = r.k
	}

	return r, nil
}

// Search returns the texts of up to K passages relevant to the query,
// selected with maximal marginal relevance. An empty result means the
// index holds nothing related to the query.
func (r *Retriever) Search(ctx context.Context, query string) ([]string, error) {
	scored, err := r.SearchPassages(ctx, query)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(scored))
	for i, s := range scored {
		texts[i] = s.Passage.Contents
	}
	return texts, nil
}

// SearchPassages returns up to K scored passages relevant to the query,
// re-ranked with maximal marginal relevance.
func (r *Retriever) SearchPassages(ctx context.Context, query string) ([]*core.ScoredPassage, error) {
	vector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		r.logger.Error("error generating embedding for query", "err", err)
		return nil, err
	}

	candidates, err := r.repository.FindSimilar(ctx, core.NormalizeVector(vector), r.minSimilarity, r.fetchK)
	if err != nil {
		r.logger.Error("error querying for similar passages", "err", err)
		return nil, err
	}

	selected := mmrSelect(candidates, r.lambda, r.k)
	r.logger.Debug("retrieved passages", "candidates", len(candidates), "selected", len(selected))
	return selected, nil
}

// mmrSelect re-ranks candidates with maximal marginal relevance: each pick
// maximizes lambda*relevance - (1-lambda)*redundancy, where redundancy is
// the highest similarity to an already selected passage. Candidates arrive
// ordered by relevance, so the first pick is always the top similarity hit.
func mmrSelect(candidates []*core.ScoredPassage, lambda float32, k int) []*core.ScoredPassage {
	if len(candidates) <= 1 || k <= 1 {
		if len(candidates) > k {
			return candidates[:k]
		}
		return candidates
	}

	selected := make([]*core.ScoredPassage, 0, k)
	remaining := make([]*core.ScoredPassage, len(candidates))
	copy(remaining, candidates)

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := 0
		bestScore := float32(-2.0)

		for i, candidate := range remaining {
			redundancy := float32(0)
			for _, picked := range selected {
				sim := passageSimilarity(candidate.Passage, picked.Passage)
				if sim > redundancy {
					redundancy = sim
				}
			}

			score := lambda*candidate.Score - (1-lambda)*redundancy
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

// passageSimilarity is the dot product of two passage vectors, which equals
// cosine similarity for normalized embeddings.
func passageSimilarity(a, b *core.Passage) float32 {
	var sum float32
	minLen := len(a.Vector)
	if len(b.Vector) < minLen {
		minLen = len(b.Vector)
	}
	for i := 0; i < minLen; i++ {
		sum += a.Vector[i] * b.Vector[i]
	}
	return sum
}
