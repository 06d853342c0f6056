// Package config loads taskagent settings from defaults, an optional YAML
// file and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/martinemde/taskagent/agent"
	"github.com/martinemde/taskagent/llm"
	"github.com/martinemde/taskagent/memory"
)

var (
	// ErrMissingSetting wraps every required setting that has no value.
	ErrMissingSetting = errors.New("missing required setting")
	// ErrInvalidSetting wraps every setting whose value is not accepted.
	ErrInvalidSetting = errors.New("invalid setting")
)

// Secret wraps strings that should be redacted in logs and serialization.
// Use Value() to access the actual secret value.
type Secret string

// String implements fmt.Stringer. Always returns redacted value.
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v formatting.
func (s Secret) GoString() string {
	return "Secret([REDACTED])"
}

// Value returns the actual secret value.
func (s Secret) Value() string {
	return string(s)
}

// IsSet returns true if the secret has a non-empty value.
func (s Secret) IsSet() bool {
	return s != ""
}

// MarshalJSON implements json.Marshaler. Always returns redacted value.
func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Config is the complete run configuration.
type Config struct {
	Objective   string        `koanf:"objective"`
	InitialTask string        `koanf:"initial_task"`
	LLM         LLMConfig     `koanf:"llm"`
	Memory      MemoryConfig  `koanf:"memory"`
	Loop        LoopConfig    `koanf:"loop"`
	Log         LogConfig     `koanf:"log"`
	Metrics     MetricsConfig `koanf:"metrics"`
}

// LLMConfig configures the completion backend.
type LLMConfig struct {
	Model       string `koanf:"model"`
	APIKey      Secret `koanf:"api_key"`
	BaseURL     string `koanf:"base_url"`
	LlamaBinary string `koanf:"llama_binary"`
}

// MemoryConfig configures embeddings and the vector index.
type MemoryConfig struct {
	Backend        string        `koanf:"backend"`
	Table          string        `koanf:"table"`
	EmbeddingModel string        `koanf:"embedding_model"`
	Qdrant         QdrantConfig  `koanf:"qdrant"`
	Chromem        ChromemConfig `koanf:"chromem"`
}

// QdrantConfig holds the qdrant connection settings.
type QdrantConfig struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	APIKey Secret `koanf:"api_key"`
	UseTLS bool   `koanf:"use_tls"`
}

// ChromemConfig holds the embedded store settings.
type ChromemConfig struct {
	Path     string `koanf:"path"`
	Compress bool   `koanf:"compress"`
}

// LoopConfig tunes the task loop.
type LoopConfig struct {
	PollInterval    time.Duration `koanf:"poll_interval"`
	FailurePolicy   string        `koanf:"failure_policy"`
	MaxAttempts     int           `koanf:"max_attempts"`
	ContextSize     int           `koanf:"context_size"`
	ResultCharLimit int           `koanf:"result_char_limit"`
}

// LogConfig selects the log level and encoding.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// Defaults.
const (
	DefaultMemoryBackend  = memory.BackendChromem
	DefaultQdrantPort     = 6334
	DefaultPollInterval   = time.Second
	DefaultMaxAttempts    = 3
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultFailurePolicy  = string(agent.FailureDrop)
	DefaultEmbeddingModel = memory.DefaultEmbeddingModel
)

func applyDefaults(cfg *Config) {
	if cfg.LLM.LlamaBinary == "" {
		cfg.LLM.LlamaBinary = llm.DefaultLocalBinary
	}
	if cfg.Memory.Backend == "" {
		cfg.Memory.Backend = DefaultMemoryBackend
	}
	if cfg.Memory.EmbeddingModel == "" {
		cfg.Memory.EmbeddingModel = DefaultEmbeddingModel
	}
	if cfg.Memory.Qdrant.Port == 0 {
		cfg.Memory.Qdrant.Port = DefaultQdrantPort
	}
	if cfg.Loop.PollInterval == 0 {
		cfg.Loop.PollInterval = DefaultPollInterval
	}
	if cfg.Loop.FailurePolicy == "" {
		cfg.Loop.FailurePolicy = DefaultFailurePolicy
	}
	if cfg.Loop.MaxAttempts == 0 {
		cfg.Loop.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Loop.ContextSize == 0 {
		cfg.Loop.ContextSize = agent.DefaultContextSize
	}
	if cfg.Loop.ResultCharLimit == 0 {
		cfg.Loop.ResultCharLimit = agent.DefaultResultCharLimit
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// Validate reports every missing or invalid setting at once. Each missing
// setting is wrapped in ErrMissingSetting and named by its environment
// variable.
func (c *Config) Validate() error {
	var errs []error
	missing := func(env string) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrMissingSetting, env))
	}
	invalid := func(env, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalidSetting, env, fmt.Sprintf(format, args...)))
	}

	if strings.TrimSpace(c.Objective) == "" {
		missing("OBJECTIVE")
	}
	if strings.TrimSpace(c.InitialTask) == "" {
		missing("INITIAL_TASK")
	}
	if !c.LLM.APIKey.IsSet() {
		missing("OPENAI_API_KEY")
	}
	if c.LLM.Model == "" {
		missing("OPENAI_API_MODEL")
	}
	if c.Memory.Table == "" {
		missing("TABLE_NAME")
	}

	switch c.Memory.Backend {
	case memory.BackendQdrant:
		if c.Memory.Qdrant.Host == "" {
			missing("QDRANT_HOST")
		}
		if c.Memory.Qdrant.Port <= 0 || c.Memory.Qdrant.Port > 65535 {
			invalid("QDRANT_PORT", "%d out of range", c.Memory.Qdrant.Port)
		}
	case memory.BackendChromem:
	default:
		invalid("MEMORY_BACKEND", "%q is not one of %s, %s", c.Memory.Backend, memory.BackendQdrant, memory.BackendChromem)
	}

	switch agent.FailurePolicy(c.Loop.FailurePolicy) {
	case agent.FailureDrop, agent.FailureRequeue:
	default:
		invalid("FAILURE_POLICY", "%q is not one of %s, %s", c.Loop.FailurePolicy, agent.FailureDrop, agent.FailureRequeue)
	}
	if c.Loop.PollInterval < 0 {
		invalid("POLL_INTERVAL", "%s is negative", c.Loop.PollInterval)
	}
	if c.Loop.MaxAttempts < 0 {
		invalid("MAX_ATTEMPTS", "%d is negative", c.Loop.MaxAttempts)
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		invalid("LOG_FORMAT", "%q is not one of json, console", c.Log.Format)
	}

	return errors.Join(errs...)
}

// AgentConfig returns the orchestrator settings.
func (c *Config) AgentConfig() agent.Config {
	return agent.Config{
		Objective:       c.Objective,
		InitialTask:     c.InitialTask,
		Model:           c.LLM.Model,
		PollInterval:    c.Loop.PollInterval,
		FailurePolicy:   agent.FailurePolicy(c.Loop.FailurePolicy),
		MaxAttempts:     c.Loop.MaxAttempts,
		ContextSize:     c.Loop.ContextSize,
		ResultCharLimit: c.Loop.ResultCharLimit,
	}
}

// BackendConfig returns the LLM backend settings.
func (c *Config) BackendConfig() llm.BackendConfig {
	return llm.BackendConfig{
		Model:       c.LLM.Model,
		APIKey:      c.LLM.APIKey.Value(),
		BaseURL:     c.LLM.BaseURL,
		LocalBinary: c.LLM.LlamaBinary,
	}
}

// EmbedderConfig returns the embedding client settings.
func (c *Config) EmbedderConfig() memory.EmbedderConfig {
	return memory.EmbedderConfig{
		Model:   c.Memory.EmbeddingModel,
		APIKey:  c.LLM.APIKey.Value(),
		BaseURL: c.LLM.BaseURL,
	}
}

// StoreConfig returns the vector index settings.
func (c *Config) StoreConfig() memory.Config {
	return memory.Config{
		Backend: c.Memory.Backend,
		Table:   c.Memory.Table,
		Qdrant: memory.QdrantConfig{
			Host:   c.Memory.Qdrant.Host,
			Port:   c.Memory.Qdrant.Port,
			APIKey: c.Memory.Qdrant.APIKey.Value(),
			UseTLS: c.Memory.Qdrant.UseTLS,
		},
		Chromem: memory.ChromemConfig{
			Path:     c.Memory.Chromem.Path,
			Compress: c.Memory.Chromem.Compress,
		},
	}
}
