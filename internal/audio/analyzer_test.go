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

package audio

import (
	"math"
	"testing"
	"time"

	"github.com/loqalabs/loqa-transcript/internal/config"
)

func testAudioConfig() config.AudioConfig {
	return config.AudioConfig{
		SampleRate: 44100,
		WindowSize: 2048,
		FFTBins:    1024,
		Buckets:    20,
	}
}

func sine(freq float64, sampleRate, n int, amplitude float64) []float32 {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return samples
}

func TestAnalyzeEmptyInput(t *testing.T) {
	a := NewAnalyzer(testAudioConfig())

	m := a.Analyze(nil, nil)

	if m.Volume != 0 {
		t.Errorf("Volume = %f, want 0", m.Volume)
	}
	if m.Pitch != 0 {
		t.Errorf("Pitch = %f, want 0", m.Pitch)
	}
	if m.Quality != 0 {
		t.Errorf("Quality = %f, want 0", m.Quality)
	}
	if m.BackgroundNoise != 0 {
		t.Errorf("BackgroundNoise = %f, want 0", m.BackgroundNoise)
	}
	if len(m.Visualization) != 20 {
		t.Fatalf("Visualization length = %d, want 20", len(m.Visualization))
	}
	for i, v := range m.Visualization {
		if v != 0 {
			t.Errorf("Visualization[%d] = %f, want 0", i, v)
		}
	}
}

func TestAnalyzeSilence(t *testing.T) {
	a := NewAnalyzer(testAudioConfig())

	samples := make([]float32, 2048)
	magnitudes := make([]float32, 1024)
	m := a.Analyze(samples, magnitudes)

	if m.Volume != 0 {
		t.Errorf("Volume = %f, want 0 for silence", m.Volume)
	}
	if m.Pitch != 0 {
		t.Errorf("Pitch = %f, want 0 for silence", m.Pitch)
	}
}

func TestVolumeOfKnownSignal(t *testing.T) {
	a := NewAnalyzer(testAudioConfig())

	// A full-scale sine has RMS 1/sqrt(2)
	samples := sine(220, 44100, 4096, 1.0)
	m := a.Analyze(samples, nil)

	want := 1 / math.Sqrt2
	if math.Abs(m.Volume-want) > 0.01 {
		t.Errorf("Volume = %f, want ~%f", m.Volume, want)
	}
}

func TestPitchOfSine(t *testing.T) {
	a := NewAnalyzer(testAudioConfig())

	for _, freq := range []float64{110, 220} {
		samples := sine(freq, 44100, 4096, 0.8)
		m := a.Analyze(samples, nil)

		// The lag scan lands on the period or a harmonic of it; accept a
		// half-octave tolerance either way
		if m.Pitch < freq*0.5 || m.Pitch > freq*2.5 {
			t.Errorf("Pitch for %gHz sine = %f, want near %g", freq, m.Pitch, freq)
		}
	}
}

func TestQualityFavorsMidBand(t *testing.T) {
	a := NewAnalyzer(testAudioConfig())

	clean := make([]float32, 1024)
	for i := 128; i < 512; i++ {
		clean[i] = 200
	}
	noisy := make([]float32, 1024)
	for i := 512; i < 1024; i++ {
		noisy[i] = 200
	}

	cleanQ := a.Analyze(nil, clean).Quality
	noisyQ := a.Analyze(nil, noisy).Quality

	if cleanQ <= noisyQ {
		t.Errorf("Quality clean=%f noisy=%f, want clean > noisy", cleanQ, noisyQ)
	}
	if cleanQ <= 0.9 {
		t.Errorf("Quality for mid-band-only signal = %f, want > 0.9", cleanQ)
	}
}

func TestBackgroundNoiseFromLowBand(t *testing.T) {
	a := NewAnalyzer(testAudioConfig())

	magnitudes := make([]float32, 1024)
	for i := 0; i < 128; i++ {
		magnitudes[i] = 255
	}
	m := a.Analyze(nil, magnitudes)

	if math.Abs(m.BackgroundNoise-1) > 1e-9 {
		t.Errorf("BackgroundNoise = %f, want 1 for saturated low band", m.BackgroundNoise)
	}
}

func TestVisualizationBucketsAndBounds(t *testing.T) {
	a := NewAnalyzer(testAudioConfig())

	magnitudes := make([]float32, 1024)
	for i := range magnitudes {
		magnitudes[i] = float32(i % 256)
	}
	m := a.Analyze(nil, magnitudes)

	if len(m.Visualization) != 20 {
		t.Fatalf("Visualization length = %d, want 20", len(m.Visualization))
	}
	for i, v := range m.Visualization {
		if v < 0 || v > 1 {
			t.Errorf("Visualization[%d] = %f, out of [0,1]", i, v)
		}
	}
}

func TestSpeakingSpeed(t *testing.T) {
	tests := []struct {
		text     string
		duration time.Duration
		want     float64
	}{
		{"one two three four", 2 * time.Second, 120},
		{"hello", time.Minute, 1},
		{"", time.Second, 0},
		{"words here", 0, 0},
	}
	for _, tt := range tests {
		got := SpeakingSpeed(tt.text, tt.duration)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("SpeakingSpeed(%q, %v) = %f, want %f", tt.text, tt.duration, got, tt.want)
		}
	}
}

func TestTone(t *testing.T) {
	tests := []struct {
		vol   float64
		pitch float64
		want  string
	}{
		{0.8, 300, "excited"},
		{0.8, 120, "assertive"},
		{0.05, 120, "calm"},
		{0.3, 350, "tense"},
		{0.3, 150, "neutral"},
	}
	for _, tt := range tests {
		if got := Tone(tt.vol, tt.pitch); got != tt.want {
			t.Errorf("Tone(%f, %f) = %s, want %s", tt.vol, tt.pitch, got, tt.want)
		}
	}
}

func TestSyntheticCaptureShape(t *testing.T) {
	cfg := testAudioConfig()
	sc := NewSyntheticCapture(cfg, 1)
	defer sc.Close()

	samples, magnitudes, err := sc.Frame()
	if err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	if len(samples) != cfg.WindowSize {
		t.Errorf("samples length = %d, want %d", len(samples), cfg.WindowSize)
	}
	if len(magnitudes) != cfg.FFTBins {
		t.Errorf("magnitudes length = %d, want %d", len(magnitudes), cfg.FFTBins)
	}
	for i, m := range magnitudes {
		if m < 0 || m > 255 {
			t.Errorf("magnitudes[%d] = %f, out of analyser range", i, m)
			break
		}
	}

	a := NewAnalyzer(cfg)
	metrics := a.Analyze(samples, magnitudes)
	if metrics.Volume <= 0 {
		t.Errorf("Volume of synthetic frame = %f, want > 0", metrics.Volume)
	}
	if metrics.Pitch <= 0 {
		t.Errorf("Pitch of synthetic frame = %f, want > 0", metrics.Pitch)
	}
}
