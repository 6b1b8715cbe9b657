/*
Package pipeline sequences speech-to-text, translation and text-to-speech calls
to an external AI provider and measures each stage.

Each stage is an interface so providers can be swapped: recognition may run in
the browser (the client sends a transcript) or on the backend.
*/
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"voxpair/internal/pkg/errs"
)

// Stage names a pipeline step.
type Stage string

const (
	StageSpeechToText Stage = "speech_to_text"
	StageTranslation  Stage = "translation"
	StageTextToSpeech Stage = "text_to_speech"
)

// Utterance is one inbound speech event.
type Utterance struct {
	// Audio is raw recorded audio; empty when the client recognized speech itself.
	Audio    []byte
	MimeType string

	// Transcript is the client-side recognition result, if any.
	Transcript string

	// Language is the language hint sent by the client.
	Language string
}

// Transcription is the speech-to-text result.
type Transcription struct {
	Text       string  `json:"text"`
	Language   string  `json:"detectedLanguage"`
	Confidence float64 `json:"confidence"`
}

// Audio is synthesized speech.
type Audio struct {
	Data     []byte
	MimeType string
}

// Recognizer converts speech to text.
type Recognizer interface {
	Recognize(ctx context.Context, u Utterance) (Transcription, error)
}

// Translator converts text between languages.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Synthesizer converts text to playable audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) (Audio, error)
}

// ErrNoTranscript is returned by ClientRecognizer when the utterance carries no transcript.
var ErrNoTranscript = errors.New("utterance has no transcript")

var errNoSynthesizer = errors.New("no speech synthesizer configured")

// ClientRecognizer accepts the transcript recognized by the client as is.
type ClientRecognizer struct{}

// Recognize returns the client transcript with full confidence.
func (ClientRecognizer) Recognize(_ context.Context, u Utterance) (Transcription, error) {
	if u.Transcript == "" {
		return Transcription{}, ErrNoTranscript
	}
	return Transcription{Text: u.Transcript, Language: u.Language, Confidence: 1}, nil
}

// StageError is a collaborator failure tagged with the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Code maps the stage to its application error code.
func (e *StageError) Code() int {
	switch e.Stage {
	case StageSpeechToText:
		return errs.ErrSpeechRecognitionFailed
	case StageTranslation:
		return errs.ErrTranslationFailed
	case StageTextToSpeech:
		return errs.ErrSpeechSynthesisFailed
	default:
		return errs.ErrUnknown
	}
}

// AsCustomError converts a pipeline error into the error surfaced to the
// requester. Provider details stay in the logs; the client gets the generic
// stage message.
func AsCustomError(err error) *errs.CustomError {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return errs.NewError(stageErr.Code())
	}

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		return customErr
	}
	return errs.NewError(errs.ErrUnknown, err)
}
