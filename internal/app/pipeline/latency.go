package pipeline

import (
	"sync"
	"time"
)

// Latency holds per-stage wall-clock durations in milliseconds.
type Latency struct {
	SpeechToText float64 `json:"speechToText"`
	Translation  float64 `json:"translation"`
	TextToSpeech float64 `json:"textToSpeech"`
	Total        float64 `json:"total"`
}

// Millis converts d to fractional milliseconds, the unit of every Latency field.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// LatencyTracker keeps an unweighted running average per stage with a shared
// sample counter. The zero value is ready to use.
type LatencyTracker struct {
	mu      sync.Mutex
	avg     Latency
	samples int
}

// Record folds sample into the averages and returns the new averages.
func (t *LatencyTracker) Record(sample Latency) Latency {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := float64(t.samples)
	t.avg.SpeechToText = (t.avg.SpeechToText*n + sample.SpeechToText) / (n + 1)
	t.avg.Translation = (t.avg.Translation*n + sample.Translation) / (n + 1)
	t.avg.TextToSpeech = (t.avg.TextToSpeech*n + sample.TextToSpeech) / (n + 1)
	t.avg.Total = (t.avg.Total*n + sample.Total) / (n + 1)
	t.samples++

	return t.avg
}

// Average returns the current averages and the number of samples behind them.
func (t *LatencyTracker) Average() (Latency, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.avg, t.samples
}
