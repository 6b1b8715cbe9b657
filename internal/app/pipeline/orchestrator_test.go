package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"voxpair/internal/pkg/errs"
)

type fakeRecognizer struct {
	text  string
	lang  string
	err   error
	calls int
}

func (f *fakeRecognizer) Recognize(_ context.Context, u Utterance) (Transcription, error) {
	f.calls++
	if f.err != nil {
		return Transcription{}, f.err
	}
	return Transcription{Text: f.text, Language: f.lang, Confidence: 0.9}, nil
}

type fakeTranslator struct {
	delay time.Duration
	err   error
	calls int
}

func (f *fakeTranslator) Translate(_ context.Context, text, _, targetLang string) (string, error) {
	f.calls++
	time.Sleep(f.delay)
	if f.err != nil {
		return "", f.err
	}
	return "[" + targetLang + "] " + text, nil
}

type fakeSynthesizer struct {
	err error
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, text, _ string) (Audio, error) {
	if f.err != nil {
		return Audio{}, f.err
	}
	return Audio{Data: []byte(text), MimeType: "audio/wav"}, nil
}

func TestRun_AllStages(t *testing.T) {
	t.Parallel()

	rec := &fakeRecognizer{text: "Hello", lang: "en"}
	tr := &fakeTranslator{delay: 5 * time.Millisecond}
	o := NewOrchestrator(rec, tr, &fakeSynthesizer{})

	var stages []Stage
	res, err := o.Run(context.Background(), Request{
		Utterance:      Utterance{Audio: []byte{1, 2, 3}, MimeType: "audio/webm"},
		TargetLanguage: "es",
		Synthesize:     true,
	}, func(s Stage, _ Result) { stages = append(stages, s) })
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.TranslatedText != "[es] Hello" || res.SourceLanguage != "en" {
		t.Fatalf("result=%+v", res)
	}
	if res.Audio == nil || string(res.Audio.Data) != "[es] Hello" {
		t.Fatalf("audio=%+v", res.Audio)
	}
	if len(stages) != 3 || stages[0] != StageSpeechToText || stages[2] != StageTextToSpeech {
		t.Fatalf("stages=%v", stages)
	}
	if res.Latency.Translation < 5 || res.Latency.Total < res.Latency.Translation {
		t.Fatalf("latency=%+v, want translation >= 5ms and total >= translation", res.Latency)
	}
}

func TestRun_ClientTranscriptSkipsBackendRecognizer(t *testing.T) {
	t.Parallel()

	rec := &fakeRecognizer{text: "ignored"}
	o := NewOrchestrator(rec, &fakeTranslator{}, nil)

	res, err := o.Run(context.Background(), Request{
		Utterance:      Utterance{Transcript: "Good morning", Language: "en"},
		TargetLanguage: "fr",
		Synthesize:     true,
	}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rec.calls != 0 {
		t.Fatalf("backend recognizer called %d times", rec.calls)
	}
	if res.Transcription.Confidence != 1 || res.TranslatedText != "[fr] Good morning" {
		t.Fatalf("result=%+v", res)
	}
	if res.Audio != nil {
		t.Fatalf("audio produced without a synthesizer")
	}
}

func TestRun_TranslationFailureKeepsTranscript(t *testing.T) {
	t.Parallel()

	boom := errors.New("provider down")
	o := NewOrchestrator(&fakeRecognizer{text: "Hello", lang: "en"}, &fakeTranslator{err: boom}, nil)

	var reported []Stage
	res, err := o.Run(context.Background(), Request{
		Utterance:      Utterance{Audio: []byte{1}},
		TargetLanguage: "es",
	}, func(s Stage, _ Result) { reported = append(reported, s) })

	if !errors.Is(err, boom) {
		t.Fatalf("err=%v, want wrapped provider error", err)
	}
	if len(reported) != 1 || reported[0] != StageSpeechToText {
		t.Fatalf("reported=%v, want only speech_to_text", reported)
	}
	if res.Transcription.Text != "Hello" {
		t.Fatalf("partial transcript lost: %+v", res)
	}

	cerr := AsCustomError(err)
	if cerr.Code != errs.ErrTranslationFailed || cerr.FrameType() != errs.TypeGeneric {
		t.Fatalf("custom error=%+v", cerr)
	}
	if strings.Contains(cerr.Message, "provider down") {
		t.Fatalf("message=%q leaks the provider error", cerr.Message)
	}
}

func TestTranslate_SameLanguageShortCircuits(t *testing.T) {
	t.Parallel()

	tr := &fakeTranslator{}
	o := NewOrchestrator(nil, tr, nil)

	out, _, err := o.Translate(context.Background(), "Hola", "es", "es")
	if err != nil || out != "Hola" || tr.calls != 0 {
		t.Fatalf("out=%q err=%v calls=%d", out, err, tr.calls)
	}
}

func TestClientRecognizer_RequiresTranscript(t *testing.T) {
	t.Parallel()

	if _, err := (ClientRecognizer{}).Recognize(context.Background(), Utterance{}); !errors.Is(err, ErrNoTranscript) {
		t.Fatalf("err=%v, want ErrNoTranscript", err)
	}
}
