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

package transcript

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/loqalabs/loqa-transcript/internal/language"
)

// Entry is one utterance in the transcript: recognized text plus the
// detection result and the audio metrics snapshot taken at capture time.
// Entries are exclusively owned by the Store and never aliased elsewhere;
// accessors hand out clones.
type Entry struct {
	ID        string    `json:"id"`
	Speaker   string    `json:"speaker"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	Language LanguageData  `json:"language"`
	Audio    AudioMetadata `json:"audio"`
}

// LanguageData is the detection block of an entry
type LanguageData struct {
	// Primary is the winning language code, or "mixed"
	Primary language.Language `json:"primary"`
	// Detections ranks (language, confidence) pairs, highest first
	Detections []language.Detection `json:"detections,omitempty"`
	// Confidence is the overall detection confidence in [0,1]
	Confidence float64 `json:"confidence"`
	// Translations maps target language to translated text
	Translations map[language.Language]string `json:"translations,omitempty"`
	// CulturalMarkers are "culture:keyword" tags from detection
	CulturalMarkers []string `json:"cultural_markers,omitempty"`
}

// AudioMetadata is the signal snapshot captured once at entry creation and
// immutable afterward
type AudioMetadata struct {
	Volume          float64 `json:"volume"`
	BackgroundNoise float64 `json:"background_noise"`
	AudioQuality    float64 `json:"audio_quality"`
	SpeakingSpeed   float64 `json:"speaking_speed"`
	EmotionalTone   string  `json:"emotional_tone"`
}

// NewEntry creates an entry from a detection result and an audio snapshot,
// with a generated id and the current timestamp
func NewEntry(speaker, content string, detection language.Result, audio AudioMetadata) *Entry {
	return &Entry{
		ID:        uuid.New().String(),
		Speaker:   speaker,
		Content:   content,
		Timestamp: time.Now(),
		Language: LanguageData{
			Primary:         detection.Primary,
			Detections:      detection.Detections,
			Confidence:      detection.Confidence,
			CulturalMarkers: detection.CulturalMarkers,
		},
		Audio: audio,
	}
}

// Clone deep-copies the entry, including maps and slices, so snapshots and
// accessors never share backing storage with the store
func (e *Entry) Clone() *Entry {
	clone := *e

	if e.Language.Detections != nil {
		clone.Language.Detections = make([]language.Detection, len(e.Language.Detections))
		copy(clone.Language.Detections, e.Language.Detections)
	}
	if e.Language.Translations != nil {
		clone.Language.Translations = make(map[language.Language]string, len(e.Language.Translations))
		for k, v := range e.Language.Translations {
			clone.Language.Translations[k] = v
		}
	}
	if e.Language.CulturalMarkers != nil {
		clone.Language.CulturalMarkers = make([]string, len(e.Language.CulturalMarkers))
		copy(clone.Language.CulturalMarkers, e.Language.CulturalMarkers)
	}

	return &clone
}

// WordCount counts whitespace-separated words in the content
func (e *Entry) WordCount() int {
	return len(strings.Fields(e.Content))
}

// IsValid performs basic validation on the entry
func (e *Entry) IsValid() error {
	if e.ID == "" {
		return fmt.Errorf("entry ID is required")
	}
	if e.Speaker == "" {
		return fmt.Errorf("speaker is required")
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	if e.Language.Confidence < 0 || e.Language.Confidence > 1 {
		return fmt.Errorf("confidence must be between 0 and 1")
	}
	return nil
}

// String returns a human-readable representation of the entry
func (e *Entry) String() string {
	return fmt.Sprintf("Entry{ID: %s, Speaker: %s, Language: %s, Content: %q, Confidence: %.2f}",
		e.ID, e.Speaker, e.Language.Primary, e.Content, e.Language.Confidence)
}
