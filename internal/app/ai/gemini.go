package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"voxpair/internal/app/pipeline"
	"voxpair/internal/pkg/logx"
)

const (
	defaultGeminiModel       = "gemini-2.5-flash"
	defaultGeminiSpeechModel = "gemini-2.5-flash-preview-tts"
	defaultGeminiVoice       = "Kore"
)

// GeminiConfig configures the Gemini provider.
type GeminiConfig struct {
	APIKey      string
	Model       string
	SpeechModel string
	Voice       string
}

// Gemini serves all pipeline stages through the Gemini API.
type Gemini struct {
	client *genai.Client
	config GeminiConfig

	logger zerolog.Logger
}

// NewGemini creates a Gemini API client.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = defaultGeminiSpeechModel
	}
	if cfg.Voice == "" {
		cfg.Voice = defaultGeminiVoice
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		config: cfg,
		logger: logx.Component("gemini"),
	}, nil
}

const recognizePrompt = `Transcribe the speech in the attached audio.
Respond with JSON: {"text": string, "language": BCP-47 code, "confidence": number between 0 and 1}.
The speaker most likely uses language %q.`

type recognizeResponse struct {
	Text       string  `json:"text"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// Recognize sends the audio inline and asks for a JSON transcription.
func (g *Gemini) Recognize(ctx context.Context, u pipeline.Utterance) (pipeline.Transcription, error) {
	if len(u.Audio) == 0 {
		return pipeline.Transcription{}, errors.New("no audio to recognize")
	}

	mimeType := u.MimeType
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(fmt.Sprintf(recognizePrompt, u.Language)),
			genai.NewPartFromBytes(u.Audio, mimeType),
		}, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.config.Model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
	})
	if err != nil {
		return pipeline.Transcription{}, fmt.Errorf("gemini recognize: %w", err)
	}

	var out recognizeResponse
	if err := json.Unmarshal([]byte(resp.Text()), &out); err != nil {
		return pipeline.Transcription{}, fmt.Errorf("gemini recognize: decode response: %w", err)
	}

	return pipeline.Transcription{Text: strings.TrimSpace(out.Text), Language: out.Language, Confidence: out.Confidence}, nil
}

const translateInstruction = `You are a real-time interpreter. Translate the user's message from %s to %s.
Reply with the translation only, no quotes or explanations.`

// Translate asks the text model for a bare translation.
func (g *Gemini) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	source := sourceLang
	if source == "" {
		source = "the detected language"
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(text), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(fmt.Sprintf(translateInstruction, source, targetLang), genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
	})
	if err != nil {
		return "", fmt.Errorf("gemini translate: %w", err)
	}

	translated := strings.TrimSpace(resp.Text())
	if translated == "" {
		return "", errors.New("gemini translate: empty response")
	}

	return translated, nil
}

// Synthesize uses the speech model with the configured prebuilt voice. PCM
// output is wrapped as WAV.
func (g *Gemini) Synthesize(ctx context.Context, text, lang string) (pipeline.Audio, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.config.Voice},
			},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.config.SpeechModel, genai.Text(text), cfg)
	if err != nil {
		return pipeline.Audio{}, fmt.Errorf("gemini synthesize: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}

			if rate, ok := pcmSampleRate(part.InlineData.MIMEType); ok {
				return pipeline.Audio{Data: wavFromPCM(part.InlineData.Data, rate), MimeType: mimeWAV}, nil
			}
			return pipeline.Audio{Data: part.InlineData.Data, MimeType: part.InlineData.MIMEType}, nil
		}
	}

	g.logger.Warn().Str("language", lang).Msg("Gemini speech response carried no audio part.")

	return pipeline.Audio{}, errors.New("gemini synthesize: no audio in response")
}
