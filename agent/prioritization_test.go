package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrioritize_RenumbersFromCompletedID(t *testing.T) {
	model := &scriptedLLM{prioritize: []reply{ok("4. Book flight\n5. Book hotel")}}
	agent := NewPrioritizationAgent(model)

	tasks, err := agent.Prioritize(context.Background(), "Plan a trip", []string{"Book flight", "Book hotel"}, 3)
	require.NoError(t, err)
	assert.Equal(t, []Task{{ID: 4, Name: "Book flight"}, {ID: 5, Name: "Book hotel"}}, tasks)

	calls := model.callsFor("task prioritization AI")
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "reprioritizing the following tasks: Book flight, Book hotel.")
	assert.Contains(t, calls[0].Prompt, "Consider the ultimate objective of your team:Plan a trip.")
	assert.Contains(t, calls[0].Prompt, "Start the task list with number 4.")
	assert.Equal(t, PrioritizationParams, calls[0].Params)
}

func TestPrioritize_ReflectsCountDrift(t *testing.T) {
	model := &scriptedLLM{prioritize: []reply{ok("2. Only one\n\n   \n")}}
	tasks, err := NewPrioritizationAgent(model).Prioritize(context.Background(), "obj", []string{"a", "b", "c"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []Task{{ID: 2, Name: "Only one"}}, tasks)

	model = &scriptedLLM{prioritize: []reply{ok("2. a\n3. b\n4. extra")}}
	tasks, err = NewPrioritizationAgent(model).Prioritize(context.Background(), "obj", []string{"a", "b"}, 1)
	require.NoError(t, err)
	assert.Len(t, tasks, 3)
}

func TestPrioritize_EmptyResponse(t *testing.T) {
	model := &scriptedLLM{prioritize: []reply{ok("")}}
	tasks, err := NewPrioritizationAgent(model).Prioritize(context.Background(), "obj", []string{"a"}, 1)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestPrioritize_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	model := &scriptedLLM{prioritize: []reply{fail(boom)}}
	_, err := NewPrioritizationAgent(model).Prioritize(context.Background(), "obj", []string{"a"}, 1)
	assert.ErrorIs(t, err, boom)
}

func TestPrioritize_IDsStrictlyIncreasing(t *testing.T) {
	model := &scriptedLLM{prioritize: []reply{ok("8. a\n9. b\n10. c\n11. d")}}
	tasks, err := NewPrioritizationAgent(model).Prioritize(context.Background(), "obj", []string{"a", "b", "c", "d"}, 7)
	require.NoError(t, err)
	require.Len(t, tasks, 4)
	for i, task := range tasks {
		assert.Equal(t, 8+i, task.ID)
	}
}

func TestStripOrdinal(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"4. Book flight", "Book flight"},
		{"  5. Book hotel  ", "Book hotel"},
		{"#. First task", "First task"},
		// Fixed width: a two-digit ordinal leaves its dot behind.
		{"10. Task", ". Task"},
		{"Book flight", "ok flight"},
		{"ab", ""},
		{"a", "a"},
		{"é. Café", "Café"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripOrdinal(tt.line), "stripOrdinal(%q)", tt.line)
	}
}
