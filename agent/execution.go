package agent

import (
	"context"
	"fmt"

	"github.com/martinemde/taskagent/llm"
)

// Generation settings for each sub-agent.
var (
	ExecutionParams      = llm.Params{Temperature: 0.7, MaxTokens: 2000}
	CreationParams       = llm.Params{Temperature: 0.5, MaxTokens: 100}
	PrioritizationParams = llm.Params{Temperature: 0.5, MaxTokens: 100}
)

// DefaultContextSize is how many prior results feed an execution prompt.
const DefaultContextSize = 5

// ExecutionAgent performs a single task.
type ExecutionAgent struct {
	llm         llm.Completer
	retriever   Retriever
	contextSize int
}

// NewExecutionAgent creates an ExecutionAgent. contextSize <= 0 uses
// DefaultContextSize.
func NewExecutionAgent(completer llm.Completer, retriever Retriever, contextSize int) *ExecutionAgent {
	if contextSize <= 0 {
		contextSize = DefaultContextSize
	}
	return &ExecutionAgent{llm: completer, retriever: retriever, contextSize: contextSize}
}

// Execute returns the model's raw result for task. Context is retrieved
// using the objective as the query.
func (a *ExecutionAgent) Execute(ctx context.Context, objective, task string) (string, error) {
	related, err := a.retriever.Retrieve(ctx, objective, a.contextSize)
	if err != nil {
		return "", fmt.Errorf("retrieving context: %w", err)
	}

	result, err := a.llm.Complete(ctx, executionPrompt(objective, related, task), ExecutionParams)
	if err != nil {
		return "", fmt.Errorf("executing task: %w", err)
	}
	return result, nil
}
