package dispatch

import "voxpair/internal/app/pipeline"

// SpeechToTextResult is sent to the speaker only.
type SpeechToTextResult struct {
	Type       string            `json:"type"`
	SessionID  string            `json:"sessionId"`
	UserID     string            `json:"userId"`
	Text       string            `json:"text"`
	Language   string            `json:"language"`
	Confidence float64           `json:"confidence"`
	IsFinal    bool              `json:"isFinal"`
	Latency    *pipeline.Latency `json:"latency,omitempty"`
}

// TranslationRequest asks the other participant's client to translate a final transcript.
type TranslationRequest struct {
	Type           string `json:"type"`
	SessionID      string `json:"sessionId"`
	SenderID       string `json:"senderId"`
	Text           string `json:"text"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

// AudioReady announces synthesized speech for a translated message. Exactly
// one of AudioURL and AudioData is set.
type AudioReady struct {
	Type      string           `json:"type"`
	SessionID string           `json:"sessionId"`
	MessageID string           `json:"messageId"`
	AudioURL  string           `json:"audioUrl,omitempty"`
	AudioData string           `json:"audioData,omitempty"`
	MimeType  string           `json:"mimeType"`
	Latency   pipeline.Latency `json:"latency"`
}
