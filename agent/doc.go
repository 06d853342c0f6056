// Package agent implements the autonomous task loop.
//
// Given one objective, the loop keeps a queue of tasks and repeatedly
// executes the head task, stores its result in vector memory, asks the
// language model for follow-up tasks and has the model reprioritize the
// queue. It never decides the objective is done; it runs until its context
// is cancelled.
//
// # Architecture
//
//   - Orchestrator: owns the Queue and the id counter and drives one cycle
//     per Step.
//   - ContextRetriever: embeds a query and returns the task names of the
//     most similar stored results.
//   - ExecutionAgent, TaskCreationAgent, PrioritizationAgent: stateless
//     sub-agents, each a single prompt and response parse.
//   - Emitter: forwards user-visible events to an OutputFunc and the logger.
//
// # Quick Start
//
//	orch := agent.NewOrchestrator(agent.Config{
//	    Objective:   "Plan a trip",
//	    InitialTask: "Research destinations",
//	}, agent.Deps{
//	    LLM:      client,
//	    Embedder: embedder,
//	    Store:    store,
//	    Output:   func(text string, kind agent.EventKind) { fmt.Println(text) },
//	})
//	err := orch.Run(ctx) // returns ctx.Err() on shutdown
package agent
