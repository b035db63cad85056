package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/docchat/ai/mock"
	"github.com/poiesic/docchat/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSearcher is a function-field test double for Searcher that records
// the queries it receives.
type stubSearcher struct {
	SearchFunc func(ctx context.Context, query string) ([]string, error)
	queries    []string
}

func (s *stubSearcher) Search(ctx context.Context, query string) ([]string, error) {
	s.queries = append(s.queries, query)
	if s.SearchFunc != nil {
		return s.SearchFunc(ctx, query)
	}
	return nil, nil
}

func searcherReturning(passages ...string) *stubSearcher {
	return &stubSearcher{
		SearchFunc: func(ctx context.Context, query string) ([]string, error) {
			return passages, nil
		},
	}
}

func newPipelineFixture(t *testing.T, searcher Searcher, completer *mock.MockCompleter) (*Pipeline, *memory.ConversationMemory) {
	t.Helper()
	mem := memory.NewConversationMemory()
	p, err := NewPipeline(searcher, completer, mem)
	require.NoError(t, err)
	return p, mem
}

func TestNewPipeline(t *testing.T) {
	mem := memory.NewConversationMemory()
	completer := mock.NewMockCompleter()
	searcher := &stubSearcher{}

	t.Run("nil searcher", func(t *testing.T) {
		_, err := NewPipeline(nil, completer, mem)
		assert.Equal(t, ErrSearcherRequired, err)
	})

	t.Run("nil completer", func(t *testing.T) {
		_, err := NewPipeline(searcher, nil, mem)
		assert.Equal(t, ErrCompleterRequired, err)
	})

	t.Run("nil memory", func(t *testing.T) {
		_, err := NewPipeline(searcher, completer, nil)
		assert.Equal(t, ErrMemoryRequired, err)
	})
}

func TestRun_EmptyQuery(t *testing.T) {
	p, _ := newPipelineFixture(t, &stubSearcher{}, mock.NewMockCompleter())

	_, err := p.Run(context.Background(), "   ")
	assert.Equal(t, ErrEmptyQuery, err)
}

func TestRun_AnsweredTurn(t *testing.T) {
	searcher := searcherReturning(
		"The capital of Freedonia is Lumberton.",
		"Freedonia lies on the northern coast.",
	)
	completer := mock.NewMockCompleter().Script(
		"capital of Freedonia",
		"- The capital of Freedonia is Lumberton.",
		"The capital of Freedonia is Lumberton.",
	)
	p, mem := newPipelineFixture(t, searcher, completer)

	result, err := p.Run(context.Background(), "What is the capital of Freedonia?")
	require.NoError(t, err)

	assert.Equal(t, OutcomeAnswered, result.Outcome)
	assert.Contains(t, result.Answer, "Lumberton")
	assert.Equal(t, 3, completer.CallCount())

	// Memory records the original question, not the rewritten form.
	require.Equal(t, 1, mem.Len())
	turn := mem.Turns()[0]
	assert.Equal(t, "What is the capital of Freedonia?", turn.Question)
	assert.Equal(t, "The capital of Freedonia is Lumberton.", turn.Answer)
}

func TestRun_RewrittenQueryDrivesRetrieval(t *testing.T) {
	searcher := searcherReturning("some passage")
	completer := mock.NewMockCompleter().Script(
		"rewritten standalone query",
		"- condensed",
		"answer",
	)
	p, _ := newPipelineFixture(t, searcher, completer)

	_, err := p.Run(context.Background(), "what about that?")
	require.NoError(t, err)

	require.Len(t, searcher.queries, 1)
	assert.Equal(t, "rewritten standalone query", searcher.queries[0])
}

func TestRun_EmptyRetrievalHaltsTurn(t *testing.T) {
	completer := mock.NewMockCompleter().Script("asdkfjasldkf")
	p, mem := newPipelineFixture(t, &stubSearcher{}, completer)

	result, err := p.Run(context.Background(), "asdkfjasldkf")
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoMatches, result.Outcome)
	assert.Equal(t, NoMatchesMessage, result.Answer)
	// Only the rewrite call happened; condense and answer never ran.
	assert.Equal(t, 1, completer.CallCount())
	assert.Equal(t, 0, mem.Len())
}

func TestRun_RewritePromptPreservesDomainTerms(t *testing.T) {
	searcher := searcherReturning("passage")
	completer := mock.NewMockCompleter().Script(
		"hyperboloid gearing torque curve",
		"- condensed",
		"answer",
	)
	p, _ := newPipelineFixture(t, searcher, completer)

	_, err := p.Run(context.Background(), "explain hyperboloid gearing")
	require.NoError(t, err)

	// The original technical token reaches the rewrite backend verbatim,
	// along with the verbatim-preservation instruction.
	assert.Contains(t, completer.Prompt(0), "hyperboloid gearing")
	assert.Contains(t, completer.SystemPrompt(0), "EXACTLY as written")
}

func TestRun_HistoryVisibleToRewriteAndAnswer(t *testing.T) {
	searcher := searcherReturning("Freedonia has 40,000 inhabitants.")
	completer := mock.NewMockCompleter().Script(
		// turn 1
		"capital of Freedonia",
		"- The capital of Freedonia is Lumberton.",
		"The capital is Lumberton.",
		// turn 2
		"population of Freedonia",
		"- Freedonia has 40,000 inhabitants.",
		"Freedonia has 40,000 inhabitants.",
	)
	p, mem := newPipelineFixture(t, searcher, completer)

	_, err := p.Run(context.Background(), "What is the capital of Freedonia?")
	require.NoError(t, err)

	result, err := p.Run(context.Background(), "What about its population?")
	require.NoError(t, err)

	// Turn 2's rewrite prompt carries turn 1, enabling pronoun resolution.
	rewritePrompt := completer.Prompt(3)
	assert.Contains(t, rewritePrompt, "User: What is the capital of Freedonia?")
	assert.Contains(t, rewritePrompt, "Assistant: The capital is Lumberton.")
	assert.Contains(t, rewritePrompt, "What about its population?")

	// The resolved query, not the pronoun form, drives retrieval.
	assert.Equal(t, "population of Freedonia", searcher.queries[1])

	// The answer prompt sees history as of the previous turn only.
	answerPrompt := completer.Prompt(5)
	assert.Contains(t, answerPrompt, "User: What is the capital of Freedonia?")
	assert.NotContains(t, answerPrompt, "User: What about its population?\nAssistant:")

	assert.Equal(t, OutcomeAnswered, result.Outcome)
	assert.Equal(t, 2, mem.Len())
	assert.Equal(t, "What about its population?", mem.Turns()[1].Question)
}

func TestRun_GreetingAnsweredWithoutGrounding(t *testing.T) {
	searcher := searcherReturning("The capital of Freedonia is Lumberton.")
	completer := mock.NewMockCompleter().Script(
		"Hello",
		"- no relevant information",
		"Hello! How can I help you today?",
	)
	p, mem := newPipelineFixture(t, searcher, completer)

	result, err := p.Run(context.Background(), "Hello")
	require.NoError(t, err)

	assert.Equal(t, OutcomeAnswered, result.Outcome)
	assert.Contains(t, strings.ToLower(result.Answer), "hello")
	assert.NotContains(t, result.Answer, "Lumberton")
	assert.Equal(t, 1, mem.Len())
}

func TestRun_RewriteFailureFallsBackToOriginal(t *testing.T) {
	searcher := searcherReturning("passage")
	completer := mock.NewMockCompleter()
	calls := 0
	completer.CompleteFunc = func(ctx context.Context, system, prompt string) (string, error) {
		calls++
		if calls <= 2 {
			return "", errors.New("backend down")
		}
		return "ok", nil
	}
	p, mem := newPipelineFixture(t, searcher, completer)

	result, err := p.Run(context.Background(), "What is the capital of Freedonia?")
	require.NoError(t, err)

	assert.Equal(t, OutcomeAnswered, result.Outcome)
	// Both rewrite attempts failed, so retrieval used the original query.
	require.Len(t, searcher.queries, 1)
	assert.Equal(t, "What is the capital of Freedonia?", searcher.queries[0])
	assert.Equal(t, 1, mem.Len())
}

func TestRun_EmptyRewriteTreatedAsFailure(t *testing.T) {
	searcher := searcherReturning("passage")
	completer := mock.NewMockCompleter().Script("", "  ", "- condensed", "answer")
	p, _ := newPipelineFixture(t, searcher, completer)

	_, err := p.Run(context.Background(), "original question")
	require.NoError(t, err)

	require.Len(t, searcher.queries, 1)
	assert.Equal(t, "original question", searcher.queries[0])
}

func TestRun_RetrievalErrorFailsTurn(t *testing.T) {
	searcher := &stubSearcher{
		SearchFunc: func(ctx context.Context, query string) ([]string, error) {
			return nil, errors.New("index unavailable")
		},
	}
	completer := mock.NewMockCompleter().Script("rewritten")
	p, mem := newPipelineFixture(t, searcher, completer)

	_, err := p.Run(context.Background(), "question")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieve stage")
	assert.Equal(t, 0, mem.Len())
}

func TestRun_CondenseErrorLeavesMemoryUnchanged(t *testing.T) {
	searcher := searcherReturning("passage")
	completer := mock.NewMockCompleter()
	calls := 0
	completer.CompleteFunc = func(ctx context.Context, system, prompt string) (string, error) {
		calls++
		if calls == 2 {
			return "", errors.New("backend down")
		}
		return "ok", nil
	}
	p, mem := newPipelineFixture(t, searcher, completer)

	_, err := p.Run(context.Background(), "question")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "condense stage")
	assert.Equal(t, 0, mem.Len())
}

func TestRun_AnswerErrorLeavesMemoryUnchanged(t *testing.T) {
	searcher := searcherReturning("passage")
	completer := mock.NewMockCompleter()
	calls := 0
	completer.CompleteFunc = func(ctx context.Context, system, prompt string) (string, error) {
		calls++
		if calls == 3 {
			return "", errors.New("backend down")
		}
		return "ok", nil
	}
	p, mem := newPipelineFixture(t, searcher, completer)

	_, err := p.Run(context.Background(), "question")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "answer stage")
	assert.Equal(t, 0, mem.Len())
}

func TestRun_CondensePromptNumbersPassages(t *testing.T) {
	searcher := searcherReturning("first passage", "second passage")
	completer := mock.NewMockCompleter().Script("rewritten", "- condensed", "answer")
	p, _ := newPipelineFixture(t, searcher, completer)

	_, err := p.Run(context.Background(), "question")
	require.NoError(t, err)

	condensePrompt := completer.Prompt(1)
	assert.Contains(t, condensePrompt, "[1] first passage")
	assert.Contains(t, condensePrompt, "[2] second passage")
	assert.Contains(t, condensePrompt, "Query: rewritten")
}

// recordingMonitor captures monitor callbacks in order.
type recordingMonitor struct {
	events []string
	result *Result
}

func (r *recordingMonitor) Start(query string) { r.events = append(r.events, "start") }
func (r *recordingMonitor) StageStarted(stage Stage) {
	r.events = append(r.events, stage.String()+":start")
}
func (r *recordingMonitor) StageCompleted(stage Stage, state *State) {
	r.events = append(r.events, stage.String()+":done")
}
func (r *recordingMonitor) Finish(result *Result) {
	r.events = append(r.events, "finish")
	r.result = result
}

func TestRunWithMonitor_StageOrder(t *testing.T) {
	searcher := searcherReturning("passage")
	completer := mock.NewMockCompleter().Script("rewritten", "- condensed", "answer")
	p, _ := newPipelineFixture(t, searcher, completer)

	monitor := &recordingMonitor{}
	result, err := p.RunWithMonitor(context.Background(), "question", monitor)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"start",
		"rewrite:start", "rewrite:done",
		"retrieve:start", "retrieve:done",
		"condense:start", "condense:done",
		"answer:start", "answer:done",
		"finish",
	}, monitor.events)
	assert.Equal(t, result, monitor.result)
}

func TestRunWithMonitor_HaltedTurn(t *testing.T) {
	completer := mock.NewMockCompleter().Script("rewritten")
	p, _ := newPipelineFixture(t, &stubSearcher{}, completer)

	monitor := &recordingMonitor{}
	_, err := p.RunWithMonitor(context.Background(), "question", monitor)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"start",
		"rewrite:start", "rewrite:done",
		"retrieve:start", "retrieve:done",
		"finish",
	}, monitor.events)
	require.NotNil(t, monitor.result)
	assert.Equal(t, OutcomeNoMatches, monitor.result.Outcome)
}
