package services

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// GameConfig is read once at startup and never changes afterwards.
type GameConfig struct {
	Word string `env:"GAME_WORD,required,notEmpty"`
}

const (
	OracleProviderOpenAI = "openai"
	OracleProviderGemini = "gemini"
)

type OracleConfig struct {
	Provider string        `env:"ORACLE_PROVIDER" envDefault:"openai"`
	Model    string        `env:"ORACLE_MODEL"    envDefault:"llama3.2:3b"`
	BaseURL  string        `env:"ORACLE_BASE_URL" envDefault:"http://localhost:11434/v1"`
	APIKey   string        `env:"ORACLE_API_KEY"`
	Timeout  time.Duration `env:"ORACLE_TIMEOUT"  envDefault:"30s"`
}

type OperatorConfig struct {
	JWTSecret    string        `env:"OPERATOR_JWT_SECRET"`
	PasswordHash string        `env:"OPERATOR_PASSWORD_HASH"`
	TokenTTL     time.Duration `env:"OPERATOR_TOKEN_TTL" envDefault:"12h"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
