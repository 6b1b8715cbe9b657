package ai

import (
	"context"
	"time"

	"voxpair/internal/app/pipeline"
)

// StubConfig configures the stub provider.
type StubConfig struct {
	// Delay simulates provider latency per call.
	Delay time.Duration

	// Transcript is returned for every audio utterance.
	Transcript string

	// Dictionary maps target language, then source text, to a translation.
	// Unknown text is returned as "[lang] text".
	Dictionary map[string]map[string]string

	// Err, when set, fails every call.
	Err error
}

// DefaultStubConfig returns a small English/Spanish/French dictionary.
func DefaultStubConfig() *StubConfig {
	return &StubConfig{
		Delay:      20 * time.Millisecond,
		Transcript: "Hello",
		Dictionary: map[string]map[string]string{
			"es": {
				"Hello":            "Hola",
				"Good morning":     "Buenos días",
				"How are you?":     "¿Cómo estás?",
				"Thank you":        "Gracias",
				"Nice to meet you": "Encantado de conocerte",
			},
			"fr": {
				"Hello":            "Bonjour",
				"Good morning":     "Bonjour",
				"How are you?":     "Comment allez-vous ?",
				"Thank you":        "Merci",
				"Nice to meet you": "Enchanté",
			},
			"en": {
				"Hola":    "Hello",
				"Gracias": "Thank you",
				"Bonjour": "Hello",
				"Merci":   "Thank you",
			},
		},
	}
}

// Stub is a deterministic provider.
type Stub struct {
	config *StubConfig
}

// NewStub returns a stub provider; nil selects DefaultStubConfig.
func NewStub(config *StubConfig) *Stub {
	if config == nil {
		config = DefaultStubConfig()
	}
	return &Stub{config: config}
}

func (s *Stub) wait(ctx context.Context) error {
	if s.config.Delay > 0 {
		select {
		case <-time.After(s.config.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.config.Err
}

// Recognize returns the configured transcript in the hinted language.
func (s *Stub) Recognize(ctx context.Context, u pipeline.Utterance) (pipeline.Transcription, error) {
	if err := s.wait(ctx); err != nil {
		return pipeline.Transcription{}, err
	}

	lang := u.Language
	if lang == "" {
		lang = "en"
	}

	return pipeline.Transcription{Text: s.config.Transcript, Language: lang, Confidence: 0.95}, nil
}

// Translate looks text up in the dictionary.
func (s *Stub) Translate(ctx context.Context, text, _, targetLang string) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}

	if langDict, ok := s.config.Dictionary[targetLang]; ok {
		if translated, ok := langDict[text]; ok {
			return translated, nil
		}
	}

	return "[" + targetLang + "] " + text, nil
}

// Synthesize returns a silent WAV clip whose length grows with the text.
func (s *Stub) Synthesize(ctx context.Context, text, _ string) (pipeline.Audio, error) {
	if err := s.wait(ctx); err != nil {
		return pipeline.Audio{}, err
	}

	samples := 1600 * (1 + len(text)/10)
	pcm := make([]byte, samples*2)

	return pipeline.Audio{Data: wavFromPCM(pcm, stubSampleRate), MimeType: mimeWAV}, nil
}

const stubSampleRate = 16000
