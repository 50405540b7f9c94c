package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("STATE_TABLE", "chat-state")
	t.Setenv("PARAM_PREFIX", "/chat-ai")
	t.Setenv("CHATKIT_BASE_URL", "https://chat.example.com")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 5000, cfg.HTTPPort)
	require.Equal(t, "chat-state", cfg.StateTable)
	require.Equal(t, "/chat-ai", cfg.ParamPrefix)
	require.Equal(t, "https://api.openai.com/v1", cfg.OpenAIBaseURL)
	require.Equal(t, "gpt-4o-mini", cfg.Model)
	require.Equal(t, 10, cfg.HistoryLimit)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("OPENAI_MODEL", "gpt-mock")
	t.Setenv("HISTORY_LIMIT", "5")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.HTTPPort)
	require.Equal(t, "gpt-mock", cfg.Model)
	require.Equal(t, 5, cfg.HistoryLimit)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("PARAM_PREFIX", "/chat-ai")
	t.Setenv("CHATKIT_BASE_URL", "https://chat.example.com")
	t.Setenv("STATE_TABLE", "")

	_, err := Load()
	require.Error(t, err)
}
