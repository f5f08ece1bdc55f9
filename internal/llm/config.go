package llm

import "os"

// Config carries provider credentials, read once per process and passed into
// NewRegistry. An empty field means the provider is unavailable.
type Config struct {
	OpenAIKey    string
	AnthropicKey string
	TogetherKey  string
	VLLMHost     string
}

// ConfigFromEnv reads provider credentials from the environment.
func ConfigFromEnv() Config {
	return Config{
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		TogetherKey:  os.Getenv("TOGETHER_API_KEY"),
		VLLMHost:     os.Getenv("VLLM_HOST"),
	}
}
