package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dgallion1/docoutline/internal/chunker"
	"github.com/dgallion1/docoutline/internal/outline"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Upload limits
	MaxUploadBytes int64

	// Heading classification
	HeadingSizeThreshold float64
	HeadingFontMarker    string
	FlushPolicy          string
	SkipBlankFragments   bool

	// Chunking defaults
	DefaultChunkSize    int
	DefaultChunkOverlap int
	MinChunk            int
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("DOCOUTLINE_API_KEY"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		HeadingSizeThreshold: envFloat("HEADING_SIZE_THRESHOLD", 12),
		HeadingFontMarker:    envSet("HEADING_FONT_MARKER", "Bold"),
		FlushPolicy:          envOr("FLUSH_POLICY", "heading"),
		SkipBlankFragments:   envBool("SKIP_BLANK_FRAGMENTS", false),

		DefaultChunkSize:    envInt("DEFAULT_CHUNK_SIZE", 1500),
		DefaultChunkOverlap: envInt("DEFAULT_CHUNK_OVERLAP", 200),
		MinChunk:            envInt("MIN_CHUNK", 100),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.HeadingSizeThreshold <= 0 {
		cfg.HeadingSizeThreshold = 12
	}
	if cfg.DefaultChunkSize <= 0 {
		cfg.DefaultChunkSize = 1500
	}
	if cfg.DefaultChunkOverlap < 0 {
		cfg.DefaultChunkOverlap = 200
	}
	if cfg.MinChunk <= 0 {
		cfg.MinChunk = 100
	}

	return cfg
}

// Validate checks settings shared by every entry point.
func (c Config) Validate() error {
	if _, err := outline.ParseFlushPolicy(c.FlushPolicy); err != nil {
		return fmt.Errorf("FLUSH_POLICY: %w", err)
	}
	return nil
}

// ValidateServer additionally requires the API key.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("DOCOUTLINE_API_KEY is required")
	}
	return nil
}

// Classifier returns the heading classifier described by the config.
func (c Config) Classifier() outline.Classifier {
	return outline.Classifier{
		SizeThreshold: c.HeadingSizeThreshold,
		FontMarker:    c.HeadingFontMarker,
	}
}

// Policy returns the configured flush policy, defaulting to FlushOnHeading.
func (c Config) Policy() outline.FlushPolicy {
	p, err := outline.ParseFlushPolicy(c.FlushPolicy)
	if err != nil {
		return outline.FlushOnHeading
	}
	return p
}

// ChunkConfig returns the default chunking parameters.
func (c Config) ChunkConfig() chunker.Config {
	return chunker.Config{
		ChunkSize:    c.DefaultChunkSize,
		ChunkOverlap: c.DefaultChunkOverlap,
		MinChunk:     c.MinChunk,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envSet is envOr for keys where an explicitly empty value means "off".
func envSet(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
