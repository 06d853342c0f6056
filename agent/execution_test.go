package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRetriever struct {
	names   []string
	err     error
	queries []string
	sizes   []int
}

func (s *stubRetriever) Retrieve(ctx context.Context, query string, n int) ([]string, error) {
	s.queries = append(s.queries, query)
	s.sizes = append(s.sizes, n)
	return s.names, s.err
}

func TestExecute_BuildsPromptFromContext(t *testing.T) {
	model := &scriptedLLM{execute: []reply{ok("Paris and Rome")}}
	retriever := &stubRetriever{names: []string{"Check budget", "Pick dates"}}

	result, err := NewExecutionAgent(model, retriever, 0).Execute(context.Background(), "Plan a trip", "Research destinations")
	require.NoError(t, err)
	assert.Equal(t, "Paris and Rome", result)

	assert.Equal(t, []string{"Plan a trip"}, retriever.queries)
	assert.Equal(t, []int{DefaultContextSize}, retriever.sizes)

	require.Len(t, model.calls, 1)
	prompt := model.calls[0].Prompt
	assert.Contains(t, prompt, "performs one task based on the following objective: Plan a trip.")
	assert.Contains(t, prompt, "Take into account these previously completed tasks: Check budget, Pick dates.")
	assert.Contains(t, prompt, "Your task: Research destinations\nResponse:")
	assert.Equal(t, ExecutionParams, model.calls[0].Params)
	assert.Equal(t, 0.7, model.calls[0].Params.Temperature)
	assert.Equal(t, 2000, model.calls[0].Params.MaxTokens)
}

func TestExecute_CustomContextSize(t *testing.T) {
	retriever := &stubRetriever{}
	_, err := NewExecutionAgent(&scriptedLLM{}, retriever, 2).Execute(context.Background(), "obj", "task")
	require.NoError(t, err)
	assert.Equal(t, []int{2}, retriever.sizes)
}

func TestExecute_RetrievalErrorSkipsModel(t *testing.T) {
	boom := errors.New("index down")
	model := &scriptedLLM{}
	_, err := NewExecutionAgent(model, &stubRetriever{err: boom}, 0).Execute(context.Background(), "obj", "task")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, model.calls)
}

func TestExecute_PropagatesModelErrors(t *testing.T) {
	boom := errors.New("boom")
	model := &scriptedLLM{execute: []reply{fail(boom)}}
	_, err := NewExecutionAgent(model, &stubRetriever{}, 0).Execute(context.Background(), "obj", "task")
	assert.ErrorIs(t, err, boom)
}
