package agent

import (
	"sync"

	"go.uber.org/zap"
)

// EventKind tags each piece of user-visible output.
type EventKind string

const (
	EventObjective   EventKind = "objective"
	EventInitialTask EventKind = "initial_task"
	EventTaskList    EventKind = "task_list"
	EventNextTask    EventKind = "next_task"
	EventTaskResult  EventKind = "task_result"
	EventCostWarning EventKind = "cost_warning"
	EventWarning     EventKind = "warning"
	EventError       EventKind = "error"
	EventInfo        EventKind = "info"
)

// OutputFunc receives every user-visible event. It is the only presentation
// boundary of the loop.
type OutputFunc func(text string, kind EventKind)

// Emitter forwards events to an OutputFunc and mirrors them to the logger.
type Emitter struct {
	runID  string
	out    OutputFunc
	logger *zap.Logger
	closed bool
	mu     sync.Mutex
}

// NewEmitter creates an Emitter. A nil out discards output; a nil logger
// disables mirroring.
func NewEmitter(runID string, out OutputFunc, logger *zap.Logger) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{runID: runID, out: out, logger: logger}
}

// RunID returns the id attached to every logged event.
func (e *Emitter) RunID() string { return e.runID }

// Emit delivers an event. After Close, events are silently dropped.
func (e *Emitter) Emit(kind EventKind, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	fields := []zap.Field{
		zap.String("run_id", e.runID),
		zap.String("kind", string(kind)),
		zap.String("text", text),
	}
	switch kind {
	case EventError:
		e.logger.Error("agent event", fields...)
	case EventWarning, EventCostWarning:
		e.logger.Warn("agent event", fields...)
	default:
		e.logger.Debug("agent event", fields...)
	}

	if e.out != nil {
		e.out(text, kind)
	}
}

// Close stops delivery. Safe to call multiple times.
func (e *Emitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}
