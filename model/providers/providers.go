// Package providers wires the default provider registry: every
// hierarchy.ModelProvider tag mapped to its vendor adapter. Gemini and Groq
// are served through their OpenAI-compatible Chat Completions endpoints, so
// a single adapter covers three providers.
package providers

import (
	"os"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/teammesh/hierarchy"
	"github.com/hupe1980/teammesh/model"
	anthropicmodel "github.com/hupe1980/teammesh/model/anthropic"
	openaimodel "github.com/hupe1980/teammesh/model/openai"
)

// OpenAI-compatible endpoint base URLs for non-OpenAI vendors.
const (
	GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	GroqBaseURL   = "https://api.groq.com/openai/v1"
)

// DefaultRegistry builds a Registry covering all four providers. API keys
// are taken from the conventional environment variables of each vendor
// (OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY, GROQ_API_KEY).
func DefaultRegistry() *model.Registry {
	r := model.NewRegistry()

	r.Register(hierarchy.ProviderOpenAI, func(modelID string) (model.Model, error) {
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			o.Model = modelID
		}), nil
	})

	r.Register(hierarchy.ProviderClaude, func(modelID string) (model.Model, error) {
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.Model = anthropic.Model(modelID)
		}), nil
	})

	r.Register(hierarchy.ProviderGemini, func(modelID string) (model.Model, error) {
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			o.Model = modelID
			o.BaseURL = GeminiBaseURL
			o.APIKey = os.Getenv("GEMINI_API_KEY")
			o.Provider = string(hierarchy.ProviderGemini)
		}), nil
	})

	r.Register(hierarchy.ProviderGroq, func(modelID string) (model.Model, error) {
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			o.Model = modelID
			o.BaseURL = GroqBaseURL
			o.APIKey = os.Getenv("GROQ_API_KEY")
			o.Provider = string(hierarchy.ProviderGroq)
		}), nil
	})

	return r
}
