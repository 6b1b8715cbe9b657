/*
Package configs loads the application's configuration from environment variables.

It covers the three listener ports, CORS and WebSocket origins, identity token
verification, handshake and reaper timing, the AI provider selection and the
optional S3 audio storage and Postgres history sink.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// AIProviderStub selects the deterministic in-process provider.
	AIProviderStub = "stub"

	// AIProviderGemini selects the Gemini API through google.golang.org/genai.
	AIProviderGemini = "gemini"
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Server Settings
	Environment     string
	Port            int
	HandshakePort   int
	TranslationPort int

	// Security Settings
	AllowedOrigins []string
	JWTSecret      string

	// Timing Settings
	HandshakeDelay  time.Duration
	AudioReadyDelay time.Duration
	ReaperInterval  time.Duration
	IdleTTL         time.Duration

	// AI Provider Settings
	AIProvider     string
	GeminiAPIKey   string
	GeminiModel    string
	GeminiTTSModel string
	GeminiVoice    string

	// S3 Storage Settings (synthesized audio)
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// Database Settings (conversation history)
	DatabaseDSN string
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// StorageEnabled reports whether synthesized audio is uploaded to S3.
func (c *AppConfig) StorageEnabled() bool {
	return c.S3BucketName != ""
}

// HistoryEnabled reports whether translation messages are written to Postgres.
func (c *AppConfig) HistoryEnabled() bool {
	return c.DatabaseDSN != ""
}

// LoadConfig reads the configuration from the process environment.
func LoadConfig() (*AppConfig, error) {
	return LoadConfigFrom(os.Getenv)
}

// LoadConfigFrom reads the configuration through getenv, applies defaults and
// validates the result.
func LoadConfigFrom(getenv func(string) string) (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	// --- General Server Settings ---
	cfg.Environment = getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Port, err = portFromEnv(getenv, "PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.HandshakePort, err = portFromEnv(getenv, "HANDSHAKE_PORT", 3001); err != nil {
		return nil, err
	}
	if cfg.TranslationPort, err = portFromEnv(getenv, "TRANSLATION_PORT", 3002); err != nil {
		return nil, err
	}

	if cfg.Port == cfg.HandshakePort || cfg.Port == cfg.TranslationPort || cfg.HandshakePort == cfg.TranslationPort {
		return nil, fmt.Errorf("PORT, HANDSHAKE_PORT and TRANSLATION_PORT must be distinct (got %d, %d, %d)",
			cfg.Port, cfg.HandshakePort, cfg.TranslationPort)
	}

	// --- Security Settings ---
	if originsStr := getenv("ALLOWED_ORIGINS"); originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	cfg.JWTSecret = getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in %s environment for security", cfg.Environment)
		}
		cfg.JWTSecret = "your_default_insecure_secret_key_change_me"
	}

	// --- Timing Settings ---
	if cfg.HandshakeDelay, err = durationFromEnv(getenv, "HANDSHAKE_DELAY", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.AudioReadyDelay, err = durationFromEnv(getenv, "AUDIO_READY_DELAY", time.Second); err != nil {
		return nil, err
	}
	if cfg.ReaperInterval, err = durationFromEnv(getenv, "REAPER_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.IdleTTL, err = durationFromEnv(getenv, "IDLE_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ReaperInterval <= 0 || cfg.IdleTTL <= 0 {
		return nil, fmt.Errorf("REAPER_INTERVAL and IDLE_TTL must be positive")
	}

	// --- AI Provider Settings ---
	cfg.GeminiAPIKey = getenv("GEMINI_API_KEY")
	cfg.AIProvider = strings.ToLower(getenv("AI_PROVIDER"))
	if cfg.AIProvider == "" {
		cfg.AIProvider = AIProviderGemini
		if cfg.IsDevelopment() && cfg.GeminiAPIKey == "" {
			cfg.AIProvider = AIProviderStub
		}
	}

	switch cfg.AIProvider {
	case AIProviderStub:
	case AIProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required when AI_PROVIDER is %s", AIProviderGemini)
		}
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q", cfg.AIProvider)
	}

	cfg.GeminiModel = stringFromEnv(getenv, "GEMINI_MODEL", "gemini-2.5-flash")
	cfg.GeminiTTSModel = stringFromEnv(getenv, "GEMINI_TTS_MODEL", "gemini-2.5-flash-preview-tts")
	cfg.GeminiVoice = stringFromEnv(getenv, "GEMINI_VOICE", "Kore")

	// --- S3 Storage Settings ---
	cfg.S3BucketName = getenv("S3_BUCKET_NAME")
	cfg.S3Endpoint = getenv("S3_ENDPOINT")
	cfg.S3AccessKeyID = getenv("S3_ACCESS_KEY_ID")
	cfg.S3SecretAccessKey = getenv("S3_SECRET_ACCESS_KEY")

	if cfg.S3BucketName != "" {
		if cfg.S3Endpoint == "" {
			return nil, fmt.Errorf("S3_ENDPOINT environment variable is required when S3_BUCKET_NAME is set")
		}
		if cfg.S3AccessKeyID == "" || cfg.S3SecretAccessKey == "" {
			return nil, fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required when S3_BUCKET_NAME is set")
		}
	}

	// --- Database Settings ---
	cfg.DatabaseDSN = getenv("DATABASE_URL")

	return cfg, nil
}

func stringFromEnv(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

func portFromEnv(getenv func(string) string, key string, fallback int) (int, error) {
	raw := getenv(key)
	if raw == "" {
		return fallback, nil
	}

	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}

	if port < 1024 || port > 65535 {
		return 0, fmt.Errorf("%s %d is outside the recommended range (%d-%d) to avoid privileged ports", key, port, 1024, 65535)
	}

	return port, nil
}

func durationFromEnv(getenv func(string) string, key string, fallback time.Duration) (time.Duration, error) {
	raw := getenv(key)
	if raw == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}

	return d, nil
}
