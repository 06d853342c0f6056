package agent

import (
	"strconv"
	"strings"
)

// Task is one unit of work. Identity is the ID.
type Task struct {
	ID   int
	Name string
}

func (t Task) String() string {
	return strconv.Itoa(t.ID) + ": " + t.Name
}

// ResultID is the memory record id for the task's result.
func (t Task) ResultID() string {
	return "result_" + strconv.Itoa(t.ID)
}

// Queue is the ordered task list. It is owned by a single Orchestrator and
// is not safe for concurrent use.
type Queue struct {
	tasks []Task
}

// Push appends tasks to the tail.
func (q *Queue) Push(tasks ...Task) {
	q.tasks = append(q.tasks, tasks...)
}

// Pop removes and returns the head task.
func (q *Queue) Pop() (Task, bool) {
	if len(q.tasks) == 0 {
		return Task{}, false
	}
	t := q.tasks[0]
	q.tasks = q.tasks[1:]
	return t, true
}

// Len returns the number of queued tasks.
func (q *Queue) Len() int { return len(q.tasks) }

// Tasks returns a copy of the queue in order.
func (q *Queue) Tasks() []Task {
	out := make([]Task, len(q.tasks))
	copy(out, q.tasks)
	return out
}

// Names returns the queued task names in order.
func (q *Queue) Names() []string {
	names := make([]string, len(q.tasks))
	for i, t := range q.tasks {
		names[i] = t.Name
	}
	return names
}

// Replace swaps the whole queue for tasks.
func (q *Queue) Replace(tasks []Task) {
	q.tasks = append([]Task(nil), tasks...)
}

// MaxID returns the highest queued id, or 0 when empty.
func (q *Queue) MaxID() int {
	max := 0
	for _, t := range q.tasks {
		if t.ID > max {
			max = t.ID
		}
	}
	return max
}

// String renders one "id: name" line per task.
func (q *Queue) String() string {
	lines := make([]string, len(q.tasks))
	for i, t := range q.tasks {
		lines[i] = t.String()
	}
	return strings.Join(lines, "\n")
}
