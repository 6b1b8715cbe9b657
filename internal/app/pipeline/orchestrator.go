package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"voxpair/internal/pkg/logx"
)

// Request describes one full pipeline run.
type Request struct {
	Utterance Utterance

	// SourceLanguage overrides the detected language when set.
	SourceLanguage string
	TargetLanguage string

	// Synthesize runs the text-to-speech stage after translation.
	Synthesize bool
}

// Result accumulates stage outputs. On failure it holds whatever completed.
type Result struct {
	Transcription  Transcription
	TranslatedText string
	SourceLanguage string
	TargetLanguage string
	Audio          *Audio
	Latency        Latency
}

// Orchestrator runs the pipeline stages against the configured providers.
type Orchestrator struct {
	recognizer  Recognizer
	client      Recognizer
	translator  Translator
	synthesizer Synthesizer

	logger zerolog.Logger
}

// NewOrchestrator wires the stage providers. recognizer handles audio; a nil
// synthesizer disables the text-to-speech stage.
func NewOrchestrator(recognizer Recognizer, translator Translator, synthesizer Synthesizer) *Orchestrator {
	return &Orchestrator{
		recognizer:  recognizer,
		client:      ClientRecognizer{},
		translator:  translator,
		synthesizer: synthesizer,
		logger:      logx.Component("pipeline"),
	}
}

// CanSynthesize reports whether a text-to-speech provider is configured.
func (o *Orchestrator) CanSynthesize() bool {
	return o.synthesizer != nil
}

// Transcribe runs speech-to-text. A client transcript takes precedence over audio.
func (o *Orchestrator) Transcribe(ctx context.Context, u Utterance) (Transcription, time.Duration, error) {
	recognizer := o.recognizer
	if u.Transcript != "" || recognizer == nil {
		recognizer = o.client
	}

	start := time.Now()
	tr, err := recognizer.Recognize(ctx, u)
	elapsed := time.Since(start)

	if err != nil {
		return Transcription{}, elapsed, &StageError{Stage: StageSpeechToText, Err: err}
	}
	if tr.Language == "" {
		tr.Language = u.Language
	}

	o.logger.Debug().Dur("elapsed", elapsed).Str("language", tr.Language).Msg("Speech recognized.")

	return tr, elapsed, nil
}

// Translate runs the translation stage. Identical languages short-circuit.
func (o *Orchestrator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, time.Duration, error) {
	if sourceLang != "" && sourceLang == targetLang {
		return text, 0, nil
	}

	start := time.Now()
	translated, err := o.translator.Translate(ctx, text, sourceLang, targetLang)
	elapsed := time.Since(start)

	if err != nil {
		return "", elapsed, &StageError{Stage: StageTranslation, Err: err}
	}

	o.logger.Debug().Dur("elapsed", elapsed).Str("source", sourceLang).Str("target", targetLang).Msg("Text translated.")

	return translated, elapsed, nil
}

// Synthesize runs the text-to-speech stage.
func (o *Orchestrator) Synthesize(ctx context.Context, text, lang string) (Audio, time.Duration, error) {
	if o.synthesizer == nil {
		return Audio{}, 0, &StageError{Stage: StageTextToSpeech, Err: errNoSynthesizer}
	}

	start := time.Now()
	audio, err := o.synthesizer.Synthesize(ctx, text, lang)
	elapsed := time.Since(start)

	if err != nil {
		return Audio{}, elapsed, &StageError{Stage: StageTextToSpeech, Err: err}
	}

	o.logger.Debug().Dur("elapsed", elapsed).Int("bytes", len(audio.Data)).Msg("Speech synthesized.")

	return audio, elapsed, nil
}

// Run executes the stages in order. onStage, if set, is called after each
// successful stage with the partial result. A failing stage stops the run;
// results already reported are not retracted and nothing is retried.
func (o *Orchestrator) Run(ctx context.Context, req Request, onStage func(Stage, Result)) (Result, error) {
	var res Result
	start := time.Now()

	notify := func(stage Stage) {
		res.Latency.Total = Millis(time.Since(start))
		if onStage != nil {
			onStage(stage, res)
		}
	}

	tr, d, err := o.Transcribe(ctx, req.Utterance)
	res.Latency.SpeechToText = Millis(d)
	if err != nil {
		res.Latency.Total = Millis(time.Since(start))
		return res, err
	}
	res.Transcription = tr
	notify(StageSpeechToText)

	res.SourceLanguage = req.SourceLanguage
	if res.SourceLanguage == "" {
		res.SourceLanguage = tr.Language
	}
	res.TargetLanguage = req.TargetLanguage

	translated, d, err := o.Translate(ctx, tr.Text, res.SourceLanguage, res.TargetLanguage)
	res.Latency.Translation = Millis(d)
	if err != nil {
		res.Latency.Total = Millis(time.Since(start))
		return res, err
	}
	res.TranslatedText = translated
	notify(StageTranslation)

	if !req.Synthesize || o.synthesizer == nil {
		return res, nil
	}

	audio, d, err := o.Synthesize(ctx, translated, res.TargetLanguage)
	res.Latency.TextToSpeech = Millis(d)
	if err != nil {
		res.Latency.Total = Millis(time.Since(start))
		return res, err
	}
	res.Audio = &audio
	notify(StageTextToSpeech)

	return res, nil
}
