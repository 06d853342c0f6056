package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/martinemde/taskagent/llm"
	"github.com/martinemde/taskagent/memory"
)

// State is the lifecycle state of an Orchestrator.
type State string

const (
	StateIdle    State = "idle"    // queue empty
	StateRunning State = "running" // queue non-empty
)

// FailurePolicy decides what happens to a task whose execution fails.
type FailurePolicy string

const (
	// FailureDrop discards the task.
	FailureDrop FailurePolicy = "drop"
	// FailureRequeue appends the task to the tail under a fresh id until
	// MaxAttempts executions have failed.
	FailureRequeue FailurePolicy = "requeue"
)

// CostWarning is emitted when a premium model is configured.
const CostWarning = "USING GPT-4. POTENTIALLY EXPENSIVE. MONITOR YOUR COSTS"

// Config holds the run settings.
type Config struct {
	Objective       string
	InitialTask     string
	Model           string
	PollInterval    time.Duration
	FailurePolicy   FailurePolicy
	MaxAttempts     int
	ContextSize     int
	ResultCharLimit int
}

// DefaultConfig returns the default run settings without an objective.
func DefaultConfig() Config {
	return Config{
		PollInterval:    time.Second,
		FailurePolicy:   FailureDrop,
		MaxAttempts:     3,
		ContextSize:     DefaultContextSize,
		ResultCharLimit: DefaultResultCharLimit,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.FailurePolicy == "" {
		c.FailurePolicy = d.FailurePolicy
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.ContextSize <= 0 {
		c.ContextSize = d.ContextSize
	}
	if c.ResultCharLimit == 0 {
		c.ResultCharLimit = d.ResultCharLimit
	}
}

// Deps are the collaborators an Orchestrator drives.
type Deps struct {
	LLM      llm.Completer
	Embedder Embedder
	Store    memory.Store
	Output   OutputFunc
	Logger   *zap.Logger
	Metrics  *Metrics
	// Sleep pauses between cycles; defaults to llm.SleepContext.
	Sleep func(ctx context.Context, d time.Duration) error
	// RunID tags log lines; defaults to a random UUID.
	RunID string
}

// CycleError reports a failed cycle stage for a task.
type CycleError struct {
	Stage string
	Task  Task
	Err   error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s failed for task %s: %v", e.Stage, e.Task, e.Err)
}

func (e *CycleError) Unwrap() error { return e.Err }

// Orchestrator owns the task queue and id counter and runs the loop.
type Orchestrator struct {
	cfg Config

	executor    *ExecutionAgent
	creator     *TaskCreationAgent
	prioritizer *PrioritizationAgent
	embedder    Embedder
	store       memory.Store
	emitter     *Emitter
	logger      *zap.Logger
	metrics     *Metrics
	sleep       func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	queue    Queue
	counter  int
	seeded   bool
	state    State
	attempts map[string]int
}

// NewOrchestrator wires the sub-agents around deps.
func NewOrchestrator(cfg Config, deps Deps) *Orchestrator {
	cfg.applyDefaults()

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := deps.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	sleep := deps.Sleep
	if sleep == nil {
		sleep = llm.SleepContext
	}

	runLogger := logger.With(zap.String("run_id", runID))
	retriever := NewContextRetriever(deps.Embedder, deps.Store, cfg.Objective, runLogger)
	return &Orchestrator{
		cfg:         cfg,
		executor:    NewExecutionAgent(deps.LLM, retriever, cfg.ContextSize),
		creator:     NewTaskCreationAgent(deps.LLM, cfg.ResultCharLimit),
		prioritizer: NewPrioritizationAgent(deps.LLM),
		embedder:    deps.Embedder,
		store:       deps.Store,
		emitter:     NewEmitter(runID, deps.Output, logger),
		logger:      runLogger,
		metrics:     deps.Metrics,
		sleep:       sleep,
		state:       StateIdle,
		attempts:    make(map[string]int),
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Tasks returns a snapshot of the queue.
func (o *Orchestrator) Tasks() []Task {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.queue.Tasks()
}

// Counter returns the highest id handed out so far.
func (o *Orchestrator) Counter() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counter
}

// Seed queues the initial task as id 1. Only the first call has an effect.
func (o *Orchestrator) Seed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.seeded {
		return
	}
	o.seeded = true
	o.queue.Push(Task{ID: 1, Name: o.cfg.InitialTask})
	if o.counter < 1 {
		o.counter = 1
	}
	o.syncStateLocked()
}

// Run announces the objective, ensures the memory index, seeds the queue
// and cycles until ctx is done. It returns ctx.Err() on shutdown and an
// error only when the index cannot be prepared.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer o.emitter.Close()

	if llm.IsPremium(o.cfg.Model) {
		o.emitter.Emit(EventCostWarning, CostWarning)
	}
	o.emitter.Emit(EventObjective, o.cfg.Objective)
	o.emitter.Emit(EventInitialTask, o.cfg.InitialTask)

	if err := o.store.EnsureIndex(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("preparing memory index: %w", err)
	}

	o.Seed()
	o.logger.Info("task loop started",
		zap.String("objective", o.cfg.Objective),
		zap.String("initial_task", o.cfg.InitialTask),
		zap.String("failure_policy", string(o.cfg.FailurePolicy)),
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.Step(ctx); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		if err := o.sleep(ctx, o.cfg.PollInterval); err != nil {
			return ctx.Err()
		}
	}
}

// Step runs one cycle on the head task. With an empty queue it does
// nothing. A failed stage is reported through the output callback and
// returned as a *CycleError; the queue stays consistent either way.
func (o *Orchestrator) Step(ctx context.Context) error {
	start := time.Now()

	o.mu.Lock()
	if o.queue.Len() == 0 {
		o.syncStateLocked()
		o.mu.Unlock()
		return nil
	}
	o.state = StateRunning
	listing := o.queue.String()
	task, _ := o.queue.Pop()
	o.mu.Unlock()

	o.emitter.Emit(EventTaskList, listing)
	o.emitter.Emit(EventNextTask, task.String())

	defer func() {
		o.mu.Lock()
		o.syncStateLocked()
		n := o.queue.Len()
		o.mu.Unlock()
		o.metrics.queueLength(n)
		o.metrics.cycle(time.Since(start).Seconds())
	}()

	result, err := o.executor.Execute(ctx, o.cfg.Objective, task.Name)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return o.executionFailed(task, err)
	}
	o.emitter.Emit(EventTaskResult, result)
	o.metrics.completed()
	o.mu.Lock()
	delete(o.attempts, task.Name)
	o.mu.Unlock()

	enriched := EnrichedResult{Data: result}
	if err := o.persist(ctx, task, enriched); err != nil {
		return err
	}

	o.mu.Lock()
	pending := o.queue.Names()
	o.mu.Unlock()

	created, err := o.creator.Create(ctx, o.cfg.Objective, enriched, task.Name, pending)
	if err != nil {
		return o.stageFailed(ctx, StageCreate, task, err)
	}

	o.mu.Lock()
	for _, t := range created {
		o.counter++
		t.ID = o.counter
		o.queue.Push(t)
	}
	pending = o.queue.Names()
	o.mu.Unlock()
	o.metrics.created(len(created))
	o.logger.Debug("tasks created", zap.Int("task_id", task.ID), zap.Int("count", len(created)))

	prioritized, err := o.prioritizer.Prioritize(ctx, o.cfg.Objective, pending, task.ID)
	if err != nil {
		return o.stageFailed(ctx, StagePrioritize, task, err)
	}
	if len(prioritized) != len(pending) {
		msg := fmt.Sprintf("prioritization returned %d tasks for %d pending", len(prioritized), len(pending))
		o.emitter.Emit(EventWarning, msg)
		o.logger.Warn("prioritization count drift",
			zap.Int("task_id", task.ID),
			zap.Int("pending", len(pending)),
			zap.Int("returned", len(prioritized)),
		)
	}

	o.mu.Lock()
	o.queue.Replace(prioritized)
	if maxID := o.queue.MaxID(); maxID > o.counter {
		o.counter = maxID
	}
	o.mu.Unlock()
	return nil
}

// persist stores the task result. A missing embedding skips the write
// with a warning; anything else fails the cycle.
func (o *Orchestrator) persist(ctx context.Context, task Task, enriched EnrichedResult) error {
	vec, err := o.embedder.Embed(ctx, enriched.Data)
	if err != nil {
		if errors.Is(err, memory.ErrNoEmbedding) && ctx.Err() == nil {
			o.metrics.skippedWrite()
			o.emitter.Emit(EventWarning, fmt.Sprintf("result of task %d not stored in memory: %v", task.ID, err))
			o.logger.Warn("memory write skipped", zap.Int("task_id", task.ID), zap.Error(err))
			return nil
		}
		return o.stageFailed(ctx, StageEmbed, task, err)
	}

	err = o.store.Upsert(ctx, o.cfg.Objective, memory.Record{
		ID:     task.ResultID(),
		Vector: vec,
		Metadata: map[string]string{
			memory.MetaTask:   task.Name,
			memory.MetaResult: enriched.Data,
		},
	})
	if err != nil {
		return o.stageFailed(ctx, StagePersist, task, err)
	}
	return nil
}

func (o *Orchestrator) executionFailed(task Task, err error) error {
	o.metrics.failed(StageExecute)
	cerr := &CycleError{Stage: StageExecute, Task: task, Err: err}

	o.mu.Lock()
	o.attempts[task.Name]++
	attempts := o.attempts[task.Name]
	requeue := o.cfg.FailurePolicy == FailureRequeue && attempts < o.cfg.MaxAttempts
	if requeue {
		o.counter++
		o.queue.Push(Task{ID: o.counter, Name: task.Name})
	} else {
		delete(o.attempts, task.Name)
	}
	o.mu.Unlock()

	o.emitter.Emit(EventError, cerr.Error())
	o.logger.Error("task execution failed",
		zap.Int("task_id", task.ID),
		zap.String("task", task.Name),
		zap.Int("attempt", attempts),
		zap.Bool("requeued", requeue),
		zap.Error(err),
	)
	return cerr
}

func (o *Orchestrator) stageFailed(ctx context.Context, stage string, task Task, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	o.metrics.failed(stage)
	cerr := &CycleError{Stage: stage, Task: task, Err: err}
	o.emitter.Emit(EventError, cerr.Error())
	o.logger.Error("cycle stage failed",
		zap.String("stage", stage),
		zap.Int("task_id", task.ID),
		zap.Error(err),
	)
	return cerr
}

func (o *Orchestrator) syncStateLocked() {
	if o.queue.Len() == 0 {
		o.state = StateIdle
	} else {
		o.state = StateRunning
	}
}
