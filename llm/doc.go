// Package llm provides the language model client used by the task agent.
//
// # Architecture
//
// The package has three layers:
//
//   - Backends: LocalProcessBackend, ChatBackend (gollm) and
//     CompletionBackend (langchaingo), each implementing Backend
//   - Retry: a RetryPolicy value object and the generic Retry helper
//   - Client: a single backend bound to a model and a retry policy
//
// The backend is chosen once, from the model name:
//
//	backend, err := llm.NewBackend(llm.BackendConfig{
//	    Model:  "gpt-3.5-turbo",
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	})
//	client := llm.NewClient(backend, "gpt-3.5-turbo")
//	text, err := client.Complete(ctx, prompt, llm.Params{Temperature: 0.7, MaxTokens: 2000})
//
// Names starting with "llama" run a local process, names starting with
// "gpt-" use chat completions, and anything else uses plain completions.
//
// # Rate limits
//
// A rate-limited call is retried after a fixed 20 second pause, forever by
// default. The wait honours context cancellation and returns an AbortError
// when the context is done. Every other error is returned immediately.
package llm
