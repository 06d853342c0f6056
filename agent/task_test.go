package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskString(t *testing.T) {
	task := Task{ID: 4, Name: "Book flight"}
	assert.Equal(t, "4: Book flight", task.String())
	assert.Equal(t, "result_4", task.ResultID())
}

func TestQueueFIFO(t *testing.T) {
	var q Queue
	_, ok := q.Pop()
	assert.False(t, ok)

	q.Push(Task{ID: 1, Name: "a"}, Task{ID: 2, Name: "b"})
	q.Push(Task{ID: 3, Name: "c"})
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, []string{"a", "b", "c"}, q.Names())
	assert.Equal(t, 3, q.MaxID())

	head, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, Task{ID: 1, Name: "a"}, head)
	assert.Equal(t, "2: b\n3: c", q.String())
}

func TestQueueReplaceAndCopies(t *testing.T) {
	var q Queue
	q.Push(Task{ID: 1, Name: "a"})

	replacement := []Task{{ID: 7, Name: "x"}, {ID: 8, Name: "y"}}
	q.Replace(replacement)
	replacement[0].Name = "mutated"
	assert.Equal(t, []string{"x", "y"}, q.Names())

	snapshot := q.Tasks()
	snapshot[1].Name = "mutated"
	assert.Equal(t, []string{"x", "y"}, q.Names())

	q.Replace(nil)
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 0, q.MaxID())
	assert.Equal(t, "", q.String())
}
