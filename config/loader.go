package config

import (
	"fmt"
	"io"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// envKeys maps each recognised environment variable to its config key.
var envKeys = map[string]string{
	"OBJECTIVE":         "objective",
	"INITIAL_TASK":      "initial_task",
	"FIRST_TASK":        "first_task",
	"OPENAI_API_KEY":    "llm.api_key",
	"OPENAI_API_MODEL":  "llm.model",
	"OPENAI_BASE_URL":   "llm.base_url",
	"LLAMA_BINARY":      "llm.llama_binary",
	"TABLE_NAME":        "memory.table",
	"MEMORY_BACKEND":    "memory.backend",
	"EMBEDDING_MODEL":   "memory.embedding_model",
	"QDRANT_HOST":       "memory.qdrant.host",
	"QDRANT_PORT":       "memory.qdrant.port",
	"QDRANT_API_KEY":    "memory.qdrant.api_key",
	"QDRANT_USE_TLS":    "memory.qdrant.use_tls",
	"CHROMEM_PATH":      "memory.chromem.path",
	"CHROMEM_COMPRESS":  "memory.chromem.compress",
	"POLL_INTERVAL":     "loop.poll_interval",
	"FAILURE_POLICY":    "loop.failure_policy",
	"MAX_ATTEMPTS":      "loop.max_attempts",
	"CONTEXT_SIZE":      "loop.context_size",
	"RESULT_CHAR_LIMIT": "loop.result_char_limit",
	"LOG_LEVEL":         "log.level",
	"LOG_FORMAT":        "log.format",
	"METRICS_ADDR":      "metrics.addr",
}

// Load reads configuration from the YAML file at configPath, then
// overrides it with environment variables, then applies defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (OBJECTIVE, OPENAI_API_KEY, TABLE_NAME, ...)
//  2. YAML config file
//  3. Hardcoded defaults
//
// An empty configPath skips the file. Empty environment variables are
// ignored. INITIAL_TASK falls back to FIRST_TASK.
//
// The returned Config has not been validated; call Validate before use.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := readConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		mapped, ok := envKeys[key]
		if !ok || value == "" {
			return "", nil
		}
		return mapped, value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.InitialTask == "" {
		cfg.InitialTask = k.String("first_task")
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("config file %s is not a regular file", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}
