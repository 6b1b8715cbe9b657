package handler

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"voxpair/internal/app/pipeline"
	"voxpair/internal/pkg/errs"
	"voxpair/internal/pkg/logx"
	"voxpair/internal/pkg/req"
	"voxpair/internal/pkg/resp"
)

const (
	maxTranslateChars = 5000
	translateTimeout  = 30 * time.Second
)

type TranslateRequest struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

type TranslateResponse struct {
	TranslatedText string  `json:"translatedText"`
	SourceLanguage string  `json:"sourceLanguage"`
	TargetLanguage string  `json:"targetLanguage"`
	Latency        float64 `json:"latency"`
}

// SessionStats counts the sessions of one session service.
type SessionStats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

type StatsResponse struct {
	Rooms            int               `json:"rooms"`
	Sessions         SessionStats      `json:"sessions"`
	EmbeddedSessions SessionStats      `json:"embeddedSessions"`
	Connections      map[string]int    `json:"connections"`
	AverageLatency   *pipeline.Latency `json:"averageLatency,omitempty"`
	LatencySamples   int               `json:"latencySamples"`
	UptimeSeconds    int64             `json:"uptimeSeconds"`
}

// HandleStats reports room, session and connection counts together with the
// aggregate pipeline latency.
func HandleStats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := StatsResponse{Connections: make(map[string]int)}

		if deps.Rooms != nil {
			stats.Rooms = deps.Rooms.Count()
		}

		var latencies []weightedLatency
		if deps.Sessions != nil {
			stats.Sessions.Total, stats.Sessions.Active = deps.Sessions.Count()
			avg, n := deps.Sessions.AverageLatency()
			latencies = append(latencies, weightedLatency{avg, n})
		}
		if deps.EmbeddedSessions != nil {
			stats.EmbeddedSessions.Total, stats.EmbeddedSessions.Active = deps.EmbeddedSessions.Count()
			avg, n := deps.EmbeddedSessions.AverageLatency()
			latencies = append(latencies, weightedLatency{avg, n})
		}

		if deps.Handshake != nil {
			stats.Connections["handshake"] = deps.Handshake.Registry().Count()
		}
		if deps.Translation != nil {
			stats.Connections["translation"] = deps.Translation.Registry().Count()
		}
		if deps.Embedded != nil {
			stats.Connections["main"] = deps.Embedded.Registry().Count()
		}

		if avg, n := combineLatency(latencies); n > 0 {
			stats.AverageLatency = &avg
			stats.LatencySamples = n
		}

		if !deps.StartedAt.IsZero() {
			stats.UptimeSeconds = int64(time.Since(deps.StartedAt).Seconds())
		}

		resp.RespondSuccess(w, r, stats)
	}
}

type weightedLatency struct {
	avg     pipeline.Latency
	samples int
}

// combineLatency merges per-service averages weighted by sample count.
func combineLatency(parts []weightedLatency) (pipeline.Latency, int) {
	var sum pipeline.Latency
	total := 0
	for _, p := range parts {
		if p.samples == 0 {
			continue
		}
		n := float64(p.samples)
		sum.SpeechToText += p.avg.SpeechToText * n
		sum.Translation += p.avg.Translation * n
		sum.TextToSpeech += p.avg.TextToSpeech * n
		sum.Total += p.avg.Total * n
		total += p.samples
	}
	if total == 0 {
		return pipeline.Latency{}, 0
	}

	n := float64(total)
	return pipeline.Latency{
		SpeechToText: sum.SpeechToText / n,
		Translation:  sum.Translation / n,
		TextToSpeech: sum.TextToSpeech / n,
		Total:        sum.Total / n,
	}, total
}

// HandleTranslate translates a piece of text without a session.
func HandleTranslate(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body TranslateRequest
		if customErr := req.BindJSON(w, r, &body); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		body.Text = strings.TrimSpace(body.Text)
		body.SourceLanguage = strings.TrimSpace(body.SourceLanguage)
		body.TargetLanguage = strings.TrimSpace(body.TargetLanguage)

		if body.Text == "" || body.TargetLanguage == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		if utf8.RuneCountInString(body.Text) > maxTranslateChars {
			resp.RespondError(w, r, errs.NewError(errs.ErrMessageContentTooLong))
			return
		}
		if body.SourceLanguage == "" {
			body.SourceLanguage = "auto"
		}

		ctx, cancel := context.WithTimeout(r.Context(), translateTimeout)
		defer cancel()

		translated, took, err := deps.Pipeline.Translate(ctx, body.Text, body.SourceLanguage, body.TargetLanguage)
		if err != nil {
			logx.Error(err, "REST translation failed", "target_language", body.TargetLanguage)
			resp.RespondError(w, r, pipeline.AsCustomError(err))
			return
		}

		resp.RespondSuccess(w, r, TranslateResponse{
			TranslatedText: translated,
			SourceLanguage: body.SourceLanguage,
			TargetLanguage: body.TargetLanguage,
			Latency:        pipeline.Millis(took),
		})
	}
}
