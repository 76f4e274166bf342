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
	"strings"
	"time"

	"github.com/loqalabs/loqa-transcript/internal/config"
)

// Pitch search range, bounded to the human voice
const (
	pitchMinHz = 80.0
	pitchMaxHz = 400.0
)

// magnitudeScale is the full-scale value of analyser-style frequency
// magnitude buffers
const magnitudeScale = 255.0

// Metrics are the per-window signal measurements attached to a transcript
// entry at capture time
type Metrics struct {
	// Volume is the RMS of the mean-centered time-domain window
	Volume float64 `json:"volume"`
	// Pitch is the estimated fundamental frequency in Hz, 0 when no
	// dominant periodicity is found
	Pitch float64 `json:"pitch"`
	// Quality contrasts mid-band energy against high-band noise, in [0,1]
	Quality float64 `json:"quality"`
	// BackgroundNoise is the normalized low-band average, in [0,1]
	BackgroundNoise float64 `json:"background_noise"`
	// Visualization is the frequency buffer block-averaged into a fixed
	// number of buckets, each in [0,1]
	Visualization []float64 `json:"visualization"`
}

// Analyzer converts raw sample buffers into signal metrics. Purely
// functional: no state beyond configuration, safe to call on a fixed
// cadence, and absent or invalid input yields all-zero metrics rather
// than an error.
type Analyzer struct {
	sampleRate int
	buckets    int
}

// NewAnalyzer creates an analyzer for the configured capture assumptions
func NewAnalyzer(cfg config.AudioConfig) *Analyzer {
	buckets := cfg.Buckets
	if buckets <= 0 {
		buckets = 20
	}
	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return &Analyzer{sampleRate: sampleRate, buckets: buckets}
}

// Analyze produces metrics from a time-domain sample window and a
// frequency-domain magnitude buffer (analyser-style, values in 0-255)
func (a *Analyzer) Analyze(samples []float32, magnitudes []float32) Metrics {
	metrics := Metrics{Visualization: make([]float64, a.buckets)}

	if len(samples) > 0 {
		metrics.Volume = volume(samples)
		metrics.Pitch = a.pitch(samples)
	}

	if len(magnitudes) > 0 {
		metrics.Quality = quality(magnitudes)
		metrics.BackgroundNoise = backgroundNoise(magnitudes)
		metrics.Visualization = visualize(magnitudes, a.buckets)
	}

	return metrics
}

// volume is the root-mean-square of the mean-centered samples
func volume(samples []float32) float64 {
	mean := 0.0
	for _, s := range samples {
		mean += float64(s)
	}
	mean /= float64(len(samples))

	sum := 0.0
	for _, s := range samples {
		d := float64(s) - mean
		sum += d * d
	}
	return clamp01(math.Sqrt(sum / float64(len(samples))))
}

// pitch estimates the fundamental period by scanning candidate lags and
// accumulating the sum of absolute products between the signal and its
// shifted self. This is a magnitude-correlation approximation, not true
// normalized autocorrelation: adequate for a rough per-utterance pitch
// tag, not a precise tracker. O(window x lag range).
func (a *Analyzer) pitch(samples []float32) float64 {
	minLag := int(float64(a.sampleRate) / pitchMaxHz)
	maxLag := int(float64(a.sampleRate) / pitchMinHz)
	if maxLag >= len(samples) {
		maxLag = len(samples) - 1
	}
	if minLag < 1 {
		minLag = 1
	}
	if minLag > maxLag {
		return 0
	}

	bestLag, bestSum := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		sum := 0.0
		for i := 0; i+lag < len(samples); i++ {
			sum += math.Abs(float64(samples[i]) * float64(samples[i+lag]))
		}
		if sum > bestSum {
			bestSum = sum
			bestLag = lag
		}
	}

	if bestLag == 0 || bestSum <= 0 {
		return 0
	}
	return float64(a.sampleRate) / float64(bestLag)
}

// quality contrasts average mid-band magnitude against the high band:
// strong mid-band energy with low high-band noise reads as higher quality
func quality(magnitudes []float32) float64 {
	n := len(magnitudes)
	mid := bandAverage(magnitudes, n/8, n/2)
	high := bandAverage(magnitudes, n/2, n)
	if mid+high == 0 {
		return 0
	}
	return clamp01(mid / (mid + high))
}

// backgroundNoise is the normalized average of the lowest-frequency band
func backgroundNoise(magnitudes []float32) float64 {
	n := len(magnitudes)
	low := bandAverage(magnitudes, 0, n/8)
	return clamp01(low / magnitudeScale)
}

// visualize downsamples the magnitude buffer into buckets by block-averaging
func visualize(magnitudes []float32, buckets int) []float64 {
	out := make([]float64, buckets)
	blockSize := len(magnitudes) / buckets
	if blockSize < 1 {
		blockSize = 1
	}

	for i := 0; i < buckets; i++ {
		start := i * blockSize
		if start >= len(magnitudes) {
			break
		}
		end := start + blockSize
		if end > len(magnitudes) {
			end = len(magnitudes)
		}
		out[i] = clamp01(bandAverage(magnitudes, start, end) / magnitudeScale)
	}
	return out
}

// bandAverage averages magnitudes[from:to), clamping the bounds
func bandAverage(magnitudes []float32, from, to int) float64 {
	if from < 0 {
		from = 0
	}
	if to > len(magnitudes) {
		to = len(magnitudes)
	}
	if from >= to {
		return 0
	}

	sum := 0.0
	for _, m := range magnitudes[from:to] {
		sum += float64(m)
	}
	return sum / float64(to-from)
}

// SpeakingSpeed estimates words per minute for text spoken over duration
func SpeakingSpeed(text string, duration time.Duration) float64 {
	words := len(strings.Fields(text))
	if words == 0 || duration <= 0 {
		return 0
	}
	return float64(words) / duration.Minutes()
}

// Tone maps volume and pitch onto a coarse emotional-tone tag
func Tone(vol, pitch float64) string {
	switch {
	case vol > 0.6 && pitch > 250:
		return "excited"
	case vol > 0.6:
		return "assertive"
	case vol < 0.15:
		return "calm"
	case pitch > 300:
		return "tense"
	default:
		return "neutral"
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
