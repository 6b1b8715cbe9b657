/*
Package storage publishes synthesized speech to S3-compatible object storage.

Audio is uploaded under a per-session prefix and handed to clients as a
presigned download URL, so audio_ready frames stay small.
*/
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"voxpair/internal/app/pipeline"
	"voxpair/internal/configs"
)

// AudioURLDuration is how long a presigned audio URL stays valid.
const AudioURLDuration = 15 * time.Minute

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// ConfigFrom extracts the storage settings from the application config.
func ConfigFrom(cfg *configs.AppConfig) ServiceConfig {
	return ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	}
}

// AudioStore stores synthesized audio and returns a URL clients can fetch.
type AudioStore interface {
	// Put uploads audio under key.
	Put(ctx context.Context, key string, audio pipeline.Audio) error

	// PresignDownload generates a pre-signed URL for downloading an object.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error
}

// NewAudioStore is the factory function for AudioStore.
func NewAudioStore(ctx context.Context, cfg ServiceConfig) (AudioStore, error) {
	// Currently, only S3 compatible implementations are supported.
	return newS3Client(ctx, cfg)
}

// Publish uploads audio for a message and returns its presigned URL. The object
// is removed again if no URL can be produced.
func Publish(ctx context.Context, store AudioStore, sessionID, messageID string, audio pipeline.Audio) (string, error) {
	key := AudioKey(sessionID, messageID, audio.MimeType)

	if err := store.Put(ctx, key, audio); err != nil {
		return "", err
	}

	url, err := store.PresignDownload(ctx, key, AudioURLDuration)
	if err != nil {
		if delErr := store.Delete(ctx, key); delErr != nil {
			return "", fmt.Errorf("%w (cleanup failed: %v)", err, delErr)
		}
		return "", err
	}

	return url, nil
}

// AudioKey builds the object key "audio/<session>/<message>.<ext>". A missing
// message id is replaced with a random one.
func AudioKey(sessionID, messageID, mimeType string) string {
	if messageID == "" {
		messageID = uuid.New().String()
	}
	return fmt.Sprintf("audio/%s/%s%s", sanitizeSegment(sessionID), sanitizeSegment(messageID), audioExtension(mimeType))
}

func audioExtension(mimeType string) string {
	base, _, _ := strings.Cut(strings.ToLower(mimeType), ";")

	switch strings.TrimSpace(base) {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/ogg":
		return ".ogg"
	case "audio/webm":
		return ".webm"
	default:
		return ".bin"
	}
}

// sanitizeSegment keeps a key segment free of path separators.
func sanitizeSegment(s string) string {
	s = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
	if s == "" {
		return "_"
	}
	return s
}
