// Package config loads agent definitions and logging settings from YAML
// files. Environment variables referenced as $VAR or ${VAR} are expanded
// before parsing, so secrets such as API keys can stay in the environment
// or in a .env file loaded through LoadEnv.
//
// Example file:
//
//	logging:
//	  level: debug
//	  format: text
//	agents:
//	  - name: bot
//	    agent_type: assistant
//	    system_message: You are terse.
//	    max_context_tokens: 4000
//	    llm_config:
//	      provider: openai
//	      model: gpt-4o
//	      api_key: ${OPENAI_API_KEY}
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/hupe1980/meepo/agent"
	"github.com/hupe1980/meepo/core"
	"github.com/hupe1980/meepo/logging"
)

// Config is the root of a configuration file.
type Config struct {
	Logging Logging     `yaml:"logging"`
	Agents  []AgentSpec `yaml:"agents"`
}

// Logging selects the logger built by Config.Logger.
type Logging struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"` // json (default) or text
	AddSource bool   `yaml:"add_source"`
}

// AgentSpec declares one agent.
type AgentSpec struct {
	Name          string         `yaml:"name"`
	Type          string         `yaml:"agent_type"`
	Description   string         `yaml:"description"`
	SystemMessage string         `yaml:"system_message"`
	LLMConfig     map[string]any `yaml:"llm_config"`

	// MaxContextTokens bounds the history sent to the model; 0 disables it.
	MaxContextTokens int `yaml:"max_context_tokens"`
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse expands environment references in data, decodes it and validates
// the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalStrict([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, &core.ValidationError{Field: "config", Message: err.Error()}
	}
	for i := range cfg.Agents {
		cfg.Agents[i].LLMConfig = normalize(cfg.Agents[i].LLMConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that agents are named uniquely and carry known types.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return &core.ValidationError{Field: "logging.level", Value: c.Logging.Level, Message: err.Error()}
	}
	switch c.Logging.Format {
	case "", "json", "text":
	default:
		return &core.ValidationError{Field: "logging.format", Value: c.Logging.Format, Message: "expected json or text"}
	}

	seen := make(map[string]struct{}, len(c.Agents))
	for i, a := range c.Agents {
		if a.Name == "" {
			return &core.ValidationError{Field: fmt.Sprintf("agents[%d].name", i), Message: "name is required"}
		}
		if _, dup := seen[a.Name]; dup {
			return &core.ValidationError{Field: fmt.Sprintf("agents[%d].name", i), Value: a.Name, Message: "duplicate agent name"}
		}
		seen[a.Name] = struct{}{}
		if _, err := core.ParseAgentType(a.Type); err != nil {
			return err
		}
		if a.MaxContextTokens < 0 {
			return &core.ValidationError{Field: fmt.Sprintf("agents[%d].max_context_tokens", i), Value: a.MaxContextTokens, Message: "must not be negative"}
		}
	}
	return nil
}

// Spec converts the declaration into an agent.Spec. The config must have
// been validated.
func (a AgentSpec) Spec() agent.Spec {
	typ, _ := core.ParseAgentType(a.Type)
	return agent.Spec{
		AgentConfig:      core.AgentConfig{Name: a.Name, Type: typ, Description: a.Description},
		SystemMessage:    a.SystemMessage,
		LLMConfig:        a.LLMConfig,
		MaxContextTokens: a.MaxContextTokens,
	}
}

// Agent returns the declaration named name.
func (c *Config) Agent(name string) (AgentSpec, bool) {
	for _, a := range c.Agents {
		if a.Name == name {
			return a, true
		}
	}
	return AgentSpec{}, false
}

// Logger builds the configured logger writing to w (stderr when nil).
func (c *Config) Logger(w io.Writer) *logging.MeepoLogger {
	level, _ := logging.ParseLevel(c.Logging.Level)
	format := c.Logging.Format
	if format == "" {
		format = "json"
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    format,
		Output:    w,
		AddSource: c.Logging.AddSource,
		Component: "meepo",
	})
}

// LoadEnv loads .env files into the process environment without overriding
// variables that are already set. Without arguments it loads ./.env and
// ignores its absence.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		err := godotenv.Load()
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(files...)
}

// normalize turns the map[interface{}]interface{} values produced by yaml.v2
// into map[string]any so the result is JSON encodable.
func normalize(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[fmt.Sprint(k)] = normalizeValue(vv)
		}
		return m
	case map[string]any:
		return normalize(t)
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = normalizeValue(vv)
		}
		return out
	default:
		return v
	}
}
