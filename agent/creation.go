package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/martinemde/taskagent/llm"
)

// EnrichedResult is a completed task's result as stored in memory.
type EnrichedResult struct {
	Data string `json:"data"`
}

// TaskCreationAgent proposes follow-up tasks from a completed result.
type TaskCreationAgent struct {
	llm         llm.Completer
	resultLimit int
}

// NewTaskCreationAgent creates a TaskCreationAgent. resultLimit bounds the
// result text placed in the prompt; 0 uses DefaultResultCharLimit and a
// negative value disables truncation.
func NewTaskCreationAgent(completer llm.Completer, resultLimit int) *TaskCreationAgent {
	if resultLimit == 0 {
		resultLimit = DefaultResultCharLimit
	}
	return &TaskCreationAgent{llm: completer, resultLimit: resultLimit}
}

// Create asks for tasks that do not overlap with pending. The returned tasks
// have no ids.
func (a *TaskCreationAgent) Create(ctx context.Context, objective string, result EnrichedResult, taskDescription string, pending []string) ([]Task, error) {
	prompt := creationPrompt(objective, truncateHeadTail(result.Data, a.resultLimit), taskDescription, pending)
	response, err := a.llm.Complete(ctx, prompt, CreationParams)
	if err != nil {
		return nil, fmt.Errorf("creating tasks: %w", err)
	}

	names := splitLines(response)
	tasks := make([]Task, len(names))
	for i, name := range names {
		tasks[i] = Task{Name: name}
	}
	return tasks, nil
}

// splitLines returns the trimmed, non-empty lines of s.
func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
