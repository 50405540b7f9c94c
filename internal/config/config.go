package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Config holds all environment backed configuration for chat-api.
type Config struct {
	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"5000"`

	// Conversation store
	StateTable string `env:"STATE_TABLE,notEmpty"`

	// Secrets live under this SSM prefix: <prefix>/open-ai-token and
	// <prefix>/chatkit-credentials.
	ParamPrefix string `env:"PARAM_PREFIX,notEmpty"`

	// Completion engine
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Model         string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	// Chat platform (identity + delivery)
	ChatkitBaseURL string `env:"CHATKIT_BASE_URL,notEmpty"`

	// Turn pipeline
	HistoryLimit int `env:"HISTORY_LIMIT" envDefault:"10"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}
