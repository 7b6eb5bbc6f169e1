package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/meepo/core"
)

const sample = `
logging:
  level: debug
  format: text
agents:
  - name: bot
    agent_type: assistant
    system_message: You are terse.
    max_context_tokens: 2048
    llm_config:
      provider: placeholder
      model: gpt-4o
      temperature: 0.2
      extra:
        nested: true
  - name: proxy
    agent_type: user_proxy
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	require.Len(t, cfg.Agents, 2)

	bot, ok := cfg.Agent("bot")
	require.True(t, ok)
	assert.Equal(t, "You are terse.", bot.SystemMessage)
	assert.Equal(t, "gpt-4o", bot.LLMConfig["model"])
	assert.Equal(t, 0.2, bot.LLMConfig["temperature"])
	assert.Equal(t, map[string]any{"nested": true}, bot.LLMConfig["extra"])

	spec := bot.Spec()
	assert.Equal(t, core.AgentTypeAssistant, spec.Type)
	assert.Equal(t, "bot", spec.Name)
	assert.Equal(t, 2048, spec.MaxContextTokens)

	proxy, ok := cfg.Agent("proxy")
	require.True(t, ok)
	assert.Equal(t, core.AgentTypeUserProxy, proxy.Spec().Type)

	_, ok = cfg.Agent("nobody")
	assert.False(t, ok)
}

func TestParse_DefaultsToCustom(t *testing.T) {
	cfg, err := Parse([]byte("agents:\n  - name: x\n"))
	require.NoError(t, err)
	assert.Equal(t, core.AgentTypeCustom, cfg.Agents[0].Spec().Type)
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("MEEPO_TEST_KEY", "sk-123")

	cfg, err := Parse([]byte("agents:\n  - name: x\n    llm_config:\n      api_key: ${MEEPO_TEST_KEY}\n"))
	require.NoError(t, err)
	assert.Equal(t, "sk-123", cfg.Agents[0].LLMConfig["api_key"])
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing name", yaml: "agents:\n  - agent_type: assistant\n"},
		{name: "duplicate", yaml: "agents:\n  - name: a\n  - name: a\n"},
		{name: "bad type", yaml: "agents:\n  - name: a\n    agent_type: planner\n"},
		{name: "negative budget", yaml: "agents:\n  - name: a\n    max_context_tokens: -1\n"},
		{name: "bad level", yaml: "logging:\n  level: loud\n"},
		{name: "bad format", yaml: "logging:\n  format: xml\n"},
		{name: "unknown field", yaml: "agnets: []\n"},
		{name: "malformed", yaml: "agents: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, core.ErrValidation)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meepo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Agents, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLogger(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	var buf bytes.Buffer
	cfg.Logger(&buf).Debug("config.loaded", "agents", 2)
	assert.Contains(t, buf.String(), "config.loaded")
	assert.Contains(t, buf.String(), "agents=2")
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("MEEPO_ENV_TEST=from-file\n"), 0o600))

	t.Setenv("MEEPO_ENV_TEST", "")
	require.NoError(t, os.Unsetenv("MEEPO_ENV_TEST"))
	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "from-file", os.Getenv("MEEPO_ENV_TEST"))

	assert.Error(t, LoadEnv(filepath.Join(dir, "missing.env")))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()
	assert.NoError(t, LoadEnv(), "missing default .env is ignored")
}
