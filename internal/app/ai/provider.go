/*
Package ai adapts external speech and translation providers to the pipeline
stage interfaces.

Gemini (google.golang.org/genai) serves all three stages in production; Stub
returns deterministic results for development and tests.
*/
package ai

import (
	"context"
	"fmt"

	"voxpair/internal/app/pipeline"
	"voxpair/internal/configs"
)

// Provider serves every pipeline stage.
type Provider interface {
	pipeline.Recognizer
	pipeline.Translator
	pipeline.Synthesizer
}

// New builds the provider selected by cfg.AIProvider.
func New(ctx context.Context, cfg *configs.AppConfig) (Provider, error) {
	switch cfg.AIProvider {
	case configs.AIProviderStub:
		return NewStub(nil), nil
	case configs.AIProviderGemini:
		g, err := NewGemini(ctx, GeminiConfig{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.GeminiModel,
			SpeechModel: cfg.GeminiTTSModel,
			Voice:       cfg.GeminiVoice,
		})
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
}
