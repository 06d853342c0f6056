package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/martinemde/taskagent/llm"
)

// PrioritizationAgent reorders and renumbers the pending queue.
type PrioritizationAgent struct {
	llm llm.Completer
}

// NewPrioritizationAgent creates a PrioritizationAgent.
func NewPrioritizationAgent(completer llm.Completer) *PrioritizationAgent {
	return &PrioritizationAgent{llm: completer}
}

// Prioritize returns the replacement queue for pending. Ids start at
// completedID+1. Every non-empty line of the response becomes one task,
// whether or not the count matches pending.
func (a *PrioritizationAgent) Prioritize(ctx context.Context, objective string, pending []string, completedID int) ([]Task, error) {
	nextID := completedID + 1
	response, err := a.llm.Complete(ctx, prioritizationPrompt(objective, pending, nextID), PrioritizationParams)
	if err != nil {
		return nil, fmt.Errorf("prioritizing tasks: %w", err)
	}

	lines := splitLines(response)
	tasks := make([]Task, len(lines))
	for i, line := range lines {
		tasks[i] = Task{ID: nextID + i, Name: stripOrdinal(line)}
	}
	return tasks, nil
}

// stripOrdinal drops exactly the first two characters of a trimmed line of
// at least two characters. "4. Book flight" becomes "Book flight" but
// "10. Book flight" becomes ". Book flight".
func stripOrdinal(line string) string {
	r := []rune(strings.TrimSpace(line))
	if len(r) < 2 {
		return string(r)
	}
	return strings.TrimSpace(string(r[2:]))
}
