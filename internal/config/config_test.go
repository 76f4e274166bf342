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
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	config, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", config.Server.Port)
	}
	if config.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", config.Server.Host)
	}
	if config.Detection.FallbackLanguage != "en" {
		t.Errorf("Detection.FallbackLanguage = %q, want en", config.Detection.FallbackLanguage)
	}
	if config.Detection.MixedThreshold != 0.3 {
		t.Errorf("Detection.MixedThreshold = %v, want 0.3", config.Detection.MixedThreshold)
	}
	if config.Detection.BlendCurrentWeight != 0.7 {
		t.Errorf("Detection.BlendCurrentWeight = %v, want 0.7", config.Detection.BlendCurrentWeight)
	}
	if config.Detection.HistoryWindow != 50 {
		t.Errorf("Detection.HistoryWindow = %d, want 50", config.Detection.HistoryWindow)
	}
	if !config.Detection.HistoryEnabled {
		t.Error("Detection.HistoryEnabled = false, want true")
	}
	if config.Translation.CacheSize != 100 {
		t.Errorf("Translation.CacheSize = %d, want 100", config.Translation.CacheSize)
	}
	if !config.Translation.StickyEngine {
		t.Error("Translation.StickyEngine = false, want true")
	}
	if config.Audio.SampleRate != 44100 {
		t.Errorf("Audio.SampleRate = %d, want 44100", config.Audio.SampleRate)
	}
	if config.Audio.Buckets != 20 {
		t.Errorf("Audio.Buckets = %d, want 20", config.Audio.Buckets)
	}
	if config.Database.Path != "./data/loqa-transcript.db" {
		t.Errorf("Database.Path = %q", config.Database.Path)
	}
	if config.NATS.Enabled {
		t.Error("NATS.Enabled = true, want false")
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("LOQA_PORT", "9090")
	t.Setenv("DETECT_FALLBACK", "ms")
	t.Setenv("DETECT_MIXED_THRESHOLD", "0.5")
	t.Setenv("TRANSLATE_CACHE_SIZE", "25")
	t.Setenv("AUDIO_SYNTHETIC", "true")
	t.Setenv("DETECT_DEBOUNCE", "150ms")
	t.Setenv("NATS_URL", "nats://broker:4222")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", config.Server.Port)
	}
	if config.Detection.FallbackLanguage != "ms" {
		t.Errorf("Detection.FallbackLanguage = %q, want ms", config.Detection.FallbackLanguage)
	}
	if config.Detection.MixedThreshold != 0.5 {
		t.Errorf("Detection.MixedThreshold = %v, want 0.5", config.Detection.MixedThreshold)
	}
	if config.Translation.CacheSize != 25 {
		t.Errorf("Translation.CacheSize = %d, want 25", config.Translation.CacheSize)
	}
	if !config.Audio.Synthetic {
		t.Error("Audio.Synthetic = false, want true")
	}
	if config.Detection.DebounceInterval != 150*time.Millisecond {
		t.Errorf("Detection.DebounceInterval = %v, want 150ms", config.Detection.DebounceInterval)
	}
	if config.NATS.URL != "nats://broker:4222" {
		t.Errorf("NATS.URL = %q", config.NATS.URL)
	}
}

func TestLoadMalformedValueFallsBackToDefault(t *testing.T) {
	t.Setenv("LOQA_PORT", "not-a-number")
	t.Setenv("DETECT_MIN_CONFIDENCE", "high")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if config.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", config.Server.Port)
	}
	if config.Detection.MinConfidence != 0.3 {
		t.Errorf("Detection.MinConfidence = %v, want 0.3", config.Detection.MinConfidence)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port out of range", "LOQA_PORT", "70000"},
		{"unsupported fallback language", "DETECT_FALLBACK", "fr"},
		{"min confidence above one", "DETECT_MIN_CONFIDENCE", "1.5"},
		{"mixed threshold negative", "DETECT_MIXED_THRESHOLD", "-0.1"},
		{"blend weight above one", "DETECT_BLEND_WEIGHT", "2"},
		{"history window negative", "DETECT_HISTORY_WINDOW", "-1"},
		{"cache size zero", "TRANSLATE_CACHE_SIZE", "0"},
		{"max concurrent zero", "TRANSLATE_MAX_CONCURRENT", "0"},
		{"sample rate zero", "AUDIO_SAMPLE_RATE", "0"},
		{"buckets zero", "AUDIO_VIS_BUCKETS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s succeeded, want error", tt.key, tt.value)
			}
		})
	}
}
