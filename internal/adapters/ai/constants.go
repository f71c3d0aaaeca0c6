package ai

// ProviderName represents an AI provider identifier
type ProviderName string

// Provider name constants
const (
	ProviderNameOpenAI ProviderName = "openai"
	ProviderNameGoogle ProviderName = "google"
)

// String returns the string representation of the provider name
func (p ProviderName) String() string {
	return string(p)
}

// IsValid checks if the provider name is supported
func (p ProviderName) IsValid() bool {
	switch p {
	case ProviderNameOpenAI, ProviderNameGoogle:
		return true
	default:
		return false
	}
}

// AllProviderNames returns all supported provider names
func AllProviderNames() []ProviderName {
	return []ProviderName{
		ProviderNameOpenAI,
		ProviderNameGoogle,
	}
}

type ProviderModelName string

// Model name constants
const (
	// OpenAI models
	ModelGPT4oMini ProviderModelName = "gpt-4o-mini"
	ModelGPT4o     ProviderModelName = "gpt-4o"

	// Google models
	ModelGeminiFlash ProviderModelName = "gemini-2.0-flash"
)
