// Package config loads service settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/castlemilk/regresponse/internal/generation"
	"github.com/castlemilk/regresponse/internal/inference"
)

// Store and blob backends.
const (
	StoreMemory    = "memory"
	StoreFirestore = "firestore"
	BlobDir        = "dir"
	BlobGCS        = "gcs"
)

// Config is the complete runtime configuration.
type Config struct {
	Port        string
	UploadDir   string
	OutputDir   string
	MaxUploadMB int64

	GenerationMode        generation.Mode
	InferenceProvider     string
	InferenceModelID      string
	AWSRegion             string
	GCPProject            string
	VertexRegion          string
	GeminiAPIKey          string
	GenerationTimeout     time.Duration
	GenerationTemperature float32
	GenerationMaxTokens   int32

	DocxEnabled bool

	StoreBackend string
	BlobBackend  string
	GCSBucket    string

	RetentionTTL      time.Duration
	RetentionInterval time.Duration

	AllowedOrigins []string

	LogLevel  string
	LogFormat string
}

var defaultOrigins = []string{
	"http://localhost:8111",
	"http://127.0.0.1:8111",
}

// Load reads .env (if present) and then the environment. Values already in
// the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function and validates it.
func FromEnv(getenv func(string) string) (*Config, error) {
	e := env{get: getenv}

	cfg := &Config{
		Port:        e.str("PORT", "8111"),
		UploadDir:   e.str("UPLOAD_DIR", "uploads"),
		OutputDir:   e.str("OUTPUT_DIR", "generated"),
		MaxUploadMB: int64(e.int("MAX_UPLOAD_MB", 10)),

		GenerationMode:        generation.Mode(strings.ToLower(e.str("GENERATION_MODE", string(generation.ModeMock)))),
		InferenceProvider:     strings.ToLower(e.str("INFERENCE_PROVIDER", inference.ProviderBedrock)),
		InferenceModelID:      e.str("INFERENCE_MODEL_ID", ""),
		AWSRegion:             e.str("AWS_REGION", "us-east-1"),
		GCPProject:            e.str("GOOGLE_CLOUD_PROJECT", ""),
		VertexRegion:          e.str("VERTEX_AI_REGION", "us-central1"),
		GeminiAPIKey:          e.str("GEMINI_API_KEY", ""),
		GenerationTimeout:     e.duration("GENERATION_TIMEOUT", generation.DefaultTimeout),
		GenerationTemperature: float32(e.float("GENERATION_TEMPERATURE", generation.DefaultTemperature)),
		GenerationMaxTokens:   int32(e.int("GENERATION_MAX_TOKENS", generation.DefaultMaxTokens)),

		DocxEnabled: e.bool("DOCX_ENABLED", true),

		StoreBackend: strings.ToLower(e.str("STORE_BACKEND", StoreMemory)),
		BlobBackend:  strings.ToLower(e.str("BLOB_BACKEND", BlobDir)),
		GCSBucket:    e.str("GCS_BUCKET", ""),

		RetentionTTL:      e.duration("RETENTION_TTL", 0),
		RetentionInterval: e.duration("RETENTION_INTERVAL", 10*time.Minute),

		AllowedOrigins: e.list("ALLOWED_ORIGINS", defaultOrigins),

		LogLevel:  e.str("LOG_LEVEL", "info"),
		LogFormat: e.str("LOG_FORMAT", "json"),
	}
	if cfg.InferenceModelID == "" {
		cfg.InferenceModelID = inference.DefaultModelID(cfg.InferenceProvider)
	}

	if len(e.errs) > 0 {
		return nil, errors.Join(e.errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown modes, providers and backends and non-positive limits.
func (c *Config) Validate() error {
	var errs []error

	if _, err := generation.ParseMode(string(c.GenerationMode)); err != nil {
		errs = append(errs, err)
	}
	switch c.InferenceProvider {
	case inference.ProviderBedrock, inference.ProviderVertex, inference.ProviderGemini, inference.ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("unknown INFERENCE_PROVIDER %q", c.InferenceProvider))
	}
	if c.GenerationMode == generation.ModeReal {
		switch {
		case c.InferenceProvider == inference.ProviderVertex && c.GCPProject == "":
			errs = append(errs, errors.New("GOOGLE_CLOUD_PROJECT is required for the vertex provider"))
		case c.InferenceProvider == inference.ProviderGemini && c.GeminiAPIKey == "":
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini provider"))
		}
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StoreFirestore:
		if c.GCPProject == "" {
			errs = append(errs, errors.New("GOOGLE_CLOUD_PROJECT is required for the firestore store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	switch c.BlobBackend {
	case BlobDir:
	case BlobGCS:
		if c.GCSBucket == "" {
			errs = append(errs, errors.New("GCS_BUCKET is required for the gcs blob backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend))
	}

	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be positive"))
	}
	if c.GenerationTimeout <= 0 {
		errs = append(errs, errors.New("GENERATION_TIMEOUT must be positive"))
	}
	if c.GenerationMaxTokens <= 0 {
		errs = append(errs, errors.New("GENERATION_MAX_TOKENS must be positive"))
	}
	if c.GenerationTemperature < 0 {
		errs = append(errs, errors.New("GENERATION_TEMPERATURE must not be negative"))
	}
	if c.RetentionTTL < 0 {
		errs = append(errs, errors.New("RETENTION_TTL must not be negative"))
	}
	if c.RetentionTTL > 0 && c.RetentionInterval <= 0 {
		errs = append(errs, errors.New("RETENTION_INTERVAL must be positive when RETENTION_TTL is set"))
	}
	return errors.Join(errs...)
}

// MaxUploadBytes is the multipart body limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// GeneratorConfig projects the generation settings.
func (c *Config) GeneratorConfig() generation.Config {
	return generation.Config{
		Mode:          c.GenerationMode,
		ModelID:       c.InferenceModelID,
		Temperature:   c.GenerationTemperature,
		MaxTokens:     c.GenerationMaxTokens,
		MaxInputChars: generation.DefaultMaxInputChars,
		Timeout:       c.GenerationTimeout,
	}
}

// InferenceConfig projects the provider settings.
func (c *Config) InferenceConfig() inference.Config {
	return inference.Config{
		Provider:     c.InferenceProvider,
		AWSRegion:    c.AWSRegion,
		GCPProject:   c.GCPProject,
		VertexRegion: c.VertexRegion,
		GeminiAPIKey: c.GeminiAPIKey,
	}
}

type env struct {
	get  func(string) string
	errs []error
}

func (e *env) str(key, def string) string {
	if v := strings.TrimSpace(e.get(key)); v != "" {
		return v
	}
	return def
}

func (e *env) int(key string, def int) int {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (e *env) float(key string, def float64) float64 {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (e *env) bool(key string, def bool) bool {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (e *env) list(key string, def []string) []string {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
