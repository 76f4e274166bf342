/*
 * This file is part of Loqa (https://github.com/loqalabs/loqa).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the transcript hub
type Config struct {
	Server      ServerConfig
	Detection   DetectionConfig
	Translation TranslationConfig
	Audio       AudioConfig
	Export      ExportConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Logging     LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DetectionConfig holds language detection engine configuration
type DetectionConfig struct {
	// FallbackLanguage is used when no language signal exists ("zh", "en", "ms")
	FallbackLanguage string
	// MinConfidence below which the fallback language is forced
	MinConfidence float64
	// MixedThreshold is the runner-up share above which a detection is "mixed".
	// Preserved from the reference heuristics; no documented derivation.
	MixedThreshold float64
	// BlendCurrentWeight is the weight of the current score when blending with
	// recent same-language history (history gets 1 - BlendCurrentWeight)
	BlendCurrentWeight float64
	// HistoryWindow caps the rolling detection history (ring semantics)
	HistoryWindow int
	// HistoryEnabled disables confidence blending entirely when false
	HistoryEnabled bool
	// DebounceInterval is the quiet period for live-text detection
	DebounceInterval time.Duration
}

// TranslationConfig holds translation orchestrator configuration
type TranslationConfig struct {
	RemoteURL     string        // REST API URL for the primary translation engine
	Timeout       time.Duration // Request timeout for the remote engine
	MaxConcurrent int           // Maximum concurrent remote requests
	CacheSize     int           // Translation cache capacity (FIFO eviction)
	StickyEngine  bool          // Prefer the last successfully used engine
}

// AudioConfig holds audio analysis configuration
type AudioConfig struct {
	SampleRate int // Samples per second of the capture collaborator
	Channels   int
	WindowSize int  // Expected length of time-domain buffers
	FFTBins    int  // Expected length of frequency-domain buffers
	Buckets    int  // Visualization vector size
	Synthetic  bool // Use the synthetic capture source (no hardware)
}

// ExportConfig holds default export inclusion flags
type ExportConfig struct {
	IncludeTimestamps   bool
	IncludeSpeakers     bool
	IncludeLanguage     bool
	IncludeTranslations bool
	IncludeMetadata     bool
}

// DatabaseConfig holds SQLite configuration
type DatabaseConfig struct {
	Path string
}

// NATSConfig holds NATS messaging configuration
type NATSConfig struct {
	URL           string
	Enabled       bool
	MaxReconnect  int
	ReconnectWait time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host:         getEnvString("LOQA_HOST", "0.0.0.0"),
			Port:         getEnvInt("LOQA_PORT", 8080),
			ReadTimeout:  getEnvDuration("LOQA_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("LOQA_WRITE_TIMEOUT", 30*time.Second),
		},
		Detection: DetectionConfig{
			FallbackLanguage:   getEnvString("DETECT_FALLBACK", "en"),
			MinConfidence:      getEnvFloat64("DETECT_MIN_CONFIDENCE", 0.3),
			MixedThreshold:     getEnvFloat64("DETECT_MIXED_THRESHOLD", 0.3),
			BlendCurrentWeight: getEnvFloat64("DETECT_BLEND_WEIGHT", 0.7),
			HistoryWindow:      getEnvInt("DETECT_HISTORY_WINDOW", 50),
			HistoryEnabled:     getEnvBool("DETECT_HISTORY_ENABLED", true),
			DebounceInterval:   getEnvDuration("DETECT_DEBOUNCE", 300*time.Millisecond),
		},
		Translation: TranslationConfig{
			RemoteURL:     getEnvString("TRANSLATE_URL", ""),
			Timeout:       getEnvDuration("TRANSLATE_TIMEOUT", 10*time.Second),
			MaxConcurrent: getEnvInt("TRANSLATE_MAX_CONCURRENT", 10),
			CacheSize:     getEnvInt("TRANSLATE_CACHE_SIZE", 100),
			StickyEngine:  getEnvBool("TRANSLATE_STICKY_ENGINE", true),
		},
		Audio: AudioConfig{
			SampleRate: getEnvInt("AUDIO_SAMPLE_RATE", 44100),
			Channels:   getEnvInt("AUDIO_CHANNELS", 1),
			WindowSize: getEnvInt("AUDIO_WINDOW_SIZE", 2048),
			FFTBins:    getEnvInt("AUDIO_FFT_BINS", 1024),
			Buckets:    getEnvInt("AUDIO_VIS_BUCKETS", 20),
			Synthetic:  getEnvBool("AUDIO_SYNTHETIC", false),
		},
		Export: ExportConfig{
			IncludeTimestamps:   getEnvBool("EXPORT_TIMESTAMPS", true),
			IncludeSpeakers:     getEnvBool("EXPORT_SPEAKERS", true),
			IncludeLanguage:     getEnvBool("EXPORT_LANGUAGE", false),
			IncludeTranslations: getEnvBool("EXPORT_TRANSLATIONS", false),
			IncludeMetadata:     getEnvBool("EXPORT_METADATA", false),
		},
		Database: DatabaseConfig{
			Path: getEnvString("DB_PATH", "./data/loqa-transcript.db"),
		},
		NATS: NATSConfig{
			URL:           getEnvString("NATS_URL", "nats://localhost:4222"),
			Enabled:       getEnvBool("NATS_ENABLED", false),
			MaxReconnect:  getEnvInt("NATS_MAX_RECONNECT", 10),
			ReconnectWait: getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Detection.FallbackLanguage {
	case "zh", "en", "ms":
	default:
		return fmt.Errorf("invalid fallback language: %q", c.Detection.FallbackLanguage)
	}

	if c.Detection.MinConfidence < 0 || c.Detection.MinConfidence > 1 {
		return fmt.Errorf("detection min confidence must be in [0,1]: %f", c.Detection.MinConfidence)
	}

	if c.Detection.MixedThreshold < 0 || c.Detection.MixedThreshold > 1 {
		return fmt.Errorf("mixed threshold must be in [0,1]: %f", c.Detection.MixedThreshold)
	}

	if c.Detection.BlendCurrentWeight < 0 || c.Detection.BlendCurrentWeight > 1 {
		return fmt.Errorf("blend weight must be in [0,1]: %f", c.Detection.BlendCurrentWeight)
	}

	if c.Detection.HistoryWindow < 0 {
		return fmt.Errorf("history window must be non-negative: %d", c.Detection.HistoryWindow)
	}

	if c.Translation.CacheSize <= 0 {
		return fmt.Errorf("translation cache size must be positive: %d", c.Translation.CacheSize)
	}

	if c.Translation.MaxConcurrent <= 0 {
		return fmt.Errorf("translation max concurrent must be positive: %d", c.Translation.MaxConcurrent)
	}

	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio sample rate must be positive: %d", c.Audio.SampleRate)
	}

	if c.Audio.Buckets <= 0 {
		return fmt.Errorf("visualization buckets must be positive: %d", c.Audio.Buckets)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
