package dispatch

import (
	"context"
	"encoding/base64"
	"time"

	"voxpair/internal/app/pipeline"
	"voxpair/internal/app/protocol"
	"voxpair/internal/app/session"
	"voxpair/internal/app/storage"
	"voxpair/internal/app/user"
	"voxpair/internal/pkg/errs"
)

// member returns the session snapshot after checking that u participates in it.
func (p *Peer) member(sessionID string, u user.Participant) (session.Session, *errs.CustomError) {
	sess, ok := p.d.deps.Sessions.Get(sessionID)
	if !ok {
		return session.Session{}, errs.NewError(errs.ErrSessionNotFound)
	}
	if !sess.Has(u.ID) {
		return session.Session{}, errs.NewError(errs.ErrNotInSession)
	}
	return sess, nil
}

// direction resolves source and target languages. Explicit values win; missing
// ones are derived from the sender's side of the session.
func direction(sess session.Session, senderID, source, target string) (string, string) {
	derivedSource, derivedTarget, _ := sess.Direction(senderID)
	if source == "" {
		source = derivedSource
	}
	if target == "" {
		target = derivedTarget
	}
	return source, target
}

func (p *Peer) onTextTranslation(f protocol.TextTranslation) *errs.CustomError {
	u, cerr := p.current()
	if cerr != nil {
		return cerr
	}

	sess, cerr := p.member(f.SessionID, u)
	if cerr != nil {
		return cerr
	}

	start := time.Now()
	source, target := direction(sess, u.ID, f.SourceLanguage, f.TargetLanguage)

	ctx, cancel := context.WithTimeout(context.Background(), pipelineTimeout)
	defer cancel()

	translated, elapsed, err := p.d.deps.Pipeline.Translate(ctx, f.Text, source, target)
	if err != nil {
		p.logger.Warn().Err(err).Str("session_id", f.SessionID).Msg("Translation failed")
		return pipeline.AsCustomError(err)
	}

	latency := pipeline.Latency{Translation: pipeline.Millis(elapsed)}
	latency.Total = pipeline.Millis(time.Since(start))

	return p.publish(session.Message{
		SessionID:      f.SessionID,
		SenderID:       u.ID,
		OriginalText:   f.Text,
		TranslatedText: translated,
		SourceLanguage: source,
		TargetLanguage: target,
		Latency:        &latency,
	})
}

func (p *Peer) onSpeechInput(f protocol.SpeechInput) *errs.CustomError {
	u, cerr := p.current()
	if cerr != nil {
		return cerr
	}

	sess, cerr := p.member(f.SessionID, u)
	if cerr != nil {
		return cerr
	}

	audio, err := base64.StdEncoding.DecodeString(f.AudioData)
	if err != nil {
		return errs.NewError(errs.ErrInvalidParams)
	}

	start := time.Now()
	lang := f.Language
	if lang == "" {
		lang, _, _ = sess.Direction(u.ID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pipelineTimeout)
	defer cancel()

	tr, elapsed, err := p.d.deps.Pipeline.Transcribe(ctx, pipeline.Utterance{
		Audio:      audio,
		MimeType:   f.MimeType,
		Transcript: f.Transcript,
		Language:   lang,
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("session_id", f.SessionID).Msg("Speech recognition failed")
		return pipeline.AsCustomError(err)
	}

	latency := pipeline.Latency{SpeechToText: pipeline.Millis(elapsed)}
	latency.Total = pipeline.Millis(time.Since(start))

	p.reply(SpeechToTextResult{
		Type:       protocol.TypeSpeechToTextResult,
		SessionID:  f.SessionID,
		UserID:     u.ID,
		Text:       tr.Text,
		Language:   tr.Language,
		Confidence: tr.Confidence,
		IsFinal:    f.IsFinal,
		Latency:    &latency,
	})

	if !f.IsFinal || tr.Text == "" {
		return nil
	}

	source, target := direction(sess, u.ID, tr.Language, "")

	if !p.d.deps.Features.AutoTranslate {
		_, cerr := p.d.deps.Sessions.Broadcast(f.SessionID, TranslationRequest{
			Type:           protocol.TypeTranslationRequest,
			SessionID:      f.SessionID,
			SenderID:       u.ID,
			Text:           tr.Text,
			SourceLanguage: source,
			TargetLanguage: target,
		}, u.ID)
		return cerr
	}

	translated, elapsed, err := p.d.deps.Pipeline.Translate(ctx, tr.Text, source, target)
	if err != nil {
		p.logger.Warn().Err(err).Str("session_id", f.SessionID).Msg("Translation failed")
		return pipeline.AsCustomError(err)
	}

	latency.Translation = pipeline.Millis(elapsed)
	latency.Total = pipeline.Millis(time.Since(start))

	return p.publish(session.Message{
		SessionID:      f.SessionID,
		SenderID:       u.ID,
		OriginalText:   tr.Text,
		TranslatedText: translated,
		SourceLanguage: source,
		TargetLanguage: target,
		Latency:        &latency,
	})
}

// publish appends msg (broadcasting translation_result to every participant),
// hands it to the history writer and schedules the audio follow-up.
func (p *Peer) publish(msg session.Message) *errs.CustomError {
	msg, cerr := p.d.deps.Sessions.Append(msg)
	if cerr != nil {
		return cerr
	}

	if p.d.deps.History != nil {
		p.d.deps.History.Enqueue(msg)
	}

	if !p.d.deps.Pipeline.CanSynthesize() {
		p.d.deps.Sessions.RecordLatency(msg.SessionID, *msg.Latency)
		return nil
	}

	scheduled := p.d.deps.Sessions.Schedule(msg.SessionID, p.d.deps.AudioReadyDelay, func() {
		p.d.deliverAudio(msg)
	})
	if !scheduled {
		p.d.deps.Sessions.RecordLatency(msg.SessionID, *msg.Latency)
	}

	return nil
}

// deliverAudio synthesizes the translated text and broadcasts audio_ready. A
// synthesis failure is reported to the sender only; the text result stands.
func (d *Dispatcher) deliverAudio(msg session.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), pipelineTimeout)
	defer cancel()

	latency := *msg.Latency

	audio, elapsed, err := d.deps.Pipeline.Synthesize(ctx, msg.TranslatedText, msg.TargetLanguage)
	if err != nil {
		d.logger.Warn().Err(err).Str("session_id", msg.SessionID).Msg("Speech synthesis failed")
		d.deps.Sessions.RecordLatency(msg.SessionID, latency)

		cerr := pipeline.AsCustomError(err)
		d.deps.Registry.Send(msg.SenderID, protocol.ErrorFrame{Type: cerr.FrameType(), Code: cerr.Code, Message: cerr.Message})
		return
	}

	latency.TextToSpeech = pipeline.Millis(elapsed)
	latency.Total += latency.TextToSpeech

	frame := AudioReady{
		Type:      protocol.TypeAudioReady,
		SessionID: msg.SessionID,
		MessageID: msg.ID,
		MimeType:  audio.MimeType,
		Latency:   latency,
	}

	if d.deps.Audio != nil {
		url, err := storage.Publish(ctx, d.deps.Audio, msg.SessionID, msg.ID, audio)
		if err != nil {
			d.logger.Warn().Err(err).Str("session_id", msg.SessionID).Msg("Audio upload failed; sending inline audio")
		} else {
			frame.AudioURL = url
		}
	}
	if frame.AudioURL == "" {
		frame.AudioData = base64.StdEncoding.EncodeToString(audio.Data)
	}

	d.deps.Sessions.RecordLatency(msg.SessionID, latency)

	if _, cerr := d.deps.Sessions.Broadcast(msg.SessionID, frame, ""); cerr != nil {
		d.logger.Debug().Str("session_id", msg.SessionID).Msg("Session gone before audio was ready")
	}
}
