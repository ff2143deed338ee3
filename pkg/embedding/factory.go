package embedding

import "fmt"

// NewProvider builds a provider from configuration. The endpoint is only
// meaningful for ollama; gemini and jina use their hosted APIs.
func NewProvider(name, apiKey, endpoint, model string, dim int) (Provider, error) {
	switch name {
	case "gemini":
		return NewGeminiProvider(apiKey, model, dim), nil
	case "ollama":
		return NewOllamaProvider(endpoint, model, dim), nil
	case "jina":
		return NewJinaProvider(apiKey, model, dim), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", name)
	}
}
