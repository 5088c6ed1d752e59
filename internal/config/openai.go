package config

import "github.com/sashabaranov/go-openai"

type OpenAIConfig struct {
	APIKey  string `validate:"required"`
	Model   string `validate:"required"`
	BaseURL string `validate:"omitempty,url"`
}

// GetOpenAIKey returns the current OpenAI key
func GetOpenAIKey() string {
	return GetEnvOrDefault("OPENAI_KEY", "")
}

func GetOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		APIKey:  GetOpenAIKey(),
		Model:   GetEnvOrDefault("OPENAI_MODEL", openai.GPT4oMini),
		BaseURL: GetEnvOrDefault("OPENAI_BASE_URL", ""),
	}
}
