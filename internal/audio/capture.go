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
	"math/rand"
	"sync"

	"github.com/loqalabs/loqa-transcript/internal/config"
)

// CaptureSource supplies one pair of sample buffers per sampling tick.
// The live implementation is the audio-capture collaborator's channel; the
// synthetic implementation below serves degraded/offline operation. The
// implementation is selected by configuration, never by runtime sniffing.
type CaptureSource interface {
	// Frame returns a time-domain sample window and a frequency-domain
	// magnitude buffer (0-255 scale)
	Frame() (samples []float32, magnitudes []float32, err error)
	Close() error
}

// SyntheticCapture generates plausible voice-shaped buffers without any
// hardware: a wandering sine fundamental plus noise in the time domain, and
// a mid-band energy hump in the frequency domain. Deterministic for a given
// seed.
type SyntheticCapture struct {
	sampleRate int
	windowSize int
	fftBins    int

	mu    sync.Mutex
	rng   *rand.Rand
	phase float64
	freq  float64
}

// NewSyntheticCapture creates a seeded synthetic capture source
func NewSyntheticCapture(cfg config.AudioConfig, seed int64) *SyntheticCapture {
	windowSize := cfg.WindowSize
	if windowSize <= 0 {
		windowSize = 2048
	}
	fftBins := cfg.FFTBins
	if fftBins <= 0 {
		fftBins = 1024
	}
	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 44100
	}

	return &SyntheticCapture{
		sampleRate: sampleRate,
		windowSize: windowSize,
		fftBins:    fftBins,
		rng:        rand.New(rand.NewSource(seed)),
		freq:       180,
	}
}

// Frame synthesizes one window of time and frequency data
func (sc *SyntheticCapture) Frame() ([]float32, []float32, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	// Wander the fundamental inside the voice range
	sc.freq += (sc.rng.Float64() - 0.5) * 20
	if sc.freq < pitchMinHz {
		sc.freq = pitchMinHz
	}
	if sc.freq > pitchMaxHz {
		sc.freq = pitchMaxHz
	}

	amplitude := 0.2 + 0.5*sc.rng.Float64()
	samples := make([]float32, sc.windowSize)
	step := 2 * math.Pi * sc.freq / float64(sc.sampleRate)
	for i := range samples {
		sc.phase += step
		noise := (sc.rng.Float64() - 0.5) * 0.05
		samples[i] = float32(amplitude*math.Sin(sc.phase) + noise)
	}

	magnitudes := make([]float32, sc.fftBins)
	peak := int(sc.freq / (float64(sc.sampleRate) / 2) * float64(sc.fftBins))
	for i := range magnitudes {
		// Energy hump around the fundamental, rolling off toward the
		// high bins, with a low noise floor
		distance := float64(i-peak) / float64(sc.fftBins)
		hump := 180 * math.Exp(-distance*distance*40) * amplitude
		floor := 20 * sc.rng.Float64()
		magnitudes[i] = float32(math.Min(hump+floor, magnitudeScale))
	}

	return samples, magnitudes, nil
}

// Close releases nothing; synthetic capture holds no resources
func (sc *SyntheticCapture) Close() error {
	return nil
}
