package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"voxpair/internal/app/pipeline"
)

type memStore struct {
	objects    map[string]pipeline.Audio
	presignErr error
	deleted    []string
}

func (m *memStore) Put(_ context.Context, key string, audio pipeline.Audio) error {
	m.objects[key] = audio
	return nil
}

func (m *memStore) PresignDownload(_ context.Context, key string, _ time.Duration) (string, error) {
	if m.presignErr != nil {
		return "", m.presignErr
	}
	return "https://cdn.example/" + key, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.objects, key)
	return nil
}

func TestAudioKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		session, message, mime, want string
	}{
		{"s1", "m1", "audio/wav", "audio/s1/m1.wav"},
		{"s1", "m1", "audio/mpeg", "audio/s1/m1.mp3"},
		{"s1", "m1", "audio/L16;rate=24000", "audio/s1/m1.bin"},
		{"../etc", "a/b", "audio/ogg", "audio/__etc/a_b.ogg"},
	}

	for _, tc := range cases {
		if got := AudioKey(tc.session, tc.message, tc.mime); got != tc.want {
			t.Fatalf("AudioKey(%q,%q,%q)=%q, want %q", tc.session, tc.message, tc.mime, got, tc.want)
		}
	}

	if got := AudioKey("s1", "", "audio/wav"); !strings.HasPrefix(got, "audio/s1/") || len(got) < len("audio/s1/.wav")+36 {
		t.Fatalf("generated key=%q", got)
	}
}

func TestPublish_ReturnsPresignedURL(t *testing.T) {
	t.Parallel()

	store := &memStore{objects: map[string]pipeline.Audio{}}
	url, err := Publish(context.Background(), store, "s1", "m1", pipeline.Audio{Data: []byte("x"), MimeType: "audio/wav"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if url != "https://cdn.example/audio/s1/m1.wav" {
		t.Fatalf("url=%q", url)
	}
	if _, ok := store.objects["audio/s1/m1.wav"]; !ok {
		t.Fatalf("object not stored")
	}
}

func TestPublish_CleansUpWhenPresignFails(t *testing.T) {
	t.Parallel()

	boom := errors.New("presign failed")
	store := &memStore{objects: map[string]pipeline.Audio{}, presignErr: boom}

	if _, err := Publish(context.Background(), store, "s1", "m1", pipeline.Audio{MimeType: "audio/wav"}); !errors.Is(err, boom) {
		t.Fatalf("err=%v, want presign error", err)
	}
	if len(store.deleted) != 1 || len(store.objects) != 0 {
		t.Fatalf("deleted=%v objects=%d, want cleanup", store.deleted, len(store.objects))
	}
}
