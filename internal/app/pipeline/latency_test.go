package pipeline

import (
	"math"
	"testing"
	"time"
)

func TestLatencyTracker_MeanIndependentOfOrder(t *testing.T) {
	t.Parallel()

	samples := []Latency{
		{Total: 100, SpeechToText: 50, Translation: 40, TextToSpeech: 10},
		{Total: 200, SpeechToText: 80, Translation: 100, TextToSpeech: 20},
		{Total: 150, SpeechToText: 60, Translation: 70, TextToSpeech: 15},
	}
	want := Latency{Total: 150, SpeechToText: 190.0 / 3, Translation: 70, TextToSpeech: 15}

	orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}}

	for _, order := range orders {
		var tracker LatencyTracker
		for _, i := range order {
			tracker.Record(samples[i])
		}

		got, n := tracker.Average()
		if n != 3 {
			t.Fatalf("samples=%d, want 3", n)
		}

		checks := []struct {
			name      string
			got, want float64
		}{
			{"total", got.Total, want.Total},
			{"speechToText", got.SpeechToText, want.SpeechToText},
			{"translation", got.Translation, want.Translation},
			{"textToSpeech", got.TextToSpeech, want.TextToSpeech},
		}
		for _, c := range checks {
			if math.Abs(c.got-c.want) > 1e-9 {
				t.Fatalf("order %v: %s=%v, want %v", order, c.name, c.got, c.want)
			}
		}
	}
}

func TestLatencyTracker_ZeroValue(t *testing.T) {
	t.Parallel()

	var tracker LatencyTracker
	avg, n := tracker.Average()
	if n != 0 || avg != (Latency{}) {
		t.Fatalf("zero tracker avg=%+v n=%d", avg, n)
	}
}

func TestMillis_FractionalMilliseconds(t *testing.T) {
	t.Parallel()

	if got := Millis(1500 * time.Microsecond); got != 1.5 {
		t.Fatalf("Millis(1.5ms)=%v, want 1.5", got)
	}
}
