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
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/loqalabs/loqa-transcript/internal/language"
	"github.com/loqalabs/loqa-transcript/internal/metrics"
)

// Format selects an export rendering. No auto-detection: callers name the
// format explicitly.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
	FormatSRT      Format = "srt"
	FormatVTT      Format = "vtt"
)

// Subtitle cue timing: a cue ends one second before the next entry starts;
// the last cue runs three seconds
const (
	cueGap         = time.Second
	lastCueRuntime = 3 * time.Second
)

// ExportOptions toggles which entry fields the rendering includes
type ExportOptions struct {
	IncludeTimestamps   bool `json:"include_timestamps"`
	IncludeSpeakers     bool `json:"include_speakers"`
	IncludeLanguage     bool `json:"include_language"`
	IncludeTranslations bool `json:"include_translations"`
	IncludeMetadata     bool `json:"include_metadata"`
}

// Export renders the collection in the named format
func (s *Store) Export(format Format, opts ExportOptions) (string, error) {
	entries := s.Entries()

	var out string
	var err error
	switch format {
	case FormatText:
		out = exportText(entries, opts)
	case FormatMarkdown:
		out = exportMarkdown(entries, opts, s.sessionID)
	case FormatJSON:
		out, err = exportJSON(entries, opts)
	case FormatSRT:
		out = exportSubtitles(entries, opts, true, "")
	case FormatVTT:
		out = exportSubtitles(entries, opts, false, "WEBVTT\n\n")
	default:
		return "", fmt.Errorf("unsupported export format: %q", format)
	}
	if err != nil {
		return "", err
	}

	metrics.Default.ExportsTotal.WithLabelValues(string(format)).Inc()
	return out, nil
}

// exportText renders plain lines, one entry each
func exportText(entries []*Entry, opts ExportOptions) string {
	var b strings.Builder
	for _, entry := range entries {
		if opts.IncludeTimestamps {
			fmt.Fprintf(&b, "[%s] ", entry.Timestamp.Format("15:04:05"))
		}
		if opts.IncludeSpeakers {
			fmt.Fprintf(&b, "%s: ", entry.Speaker)
		}
		b.WriteString(entry.Content)
		if opts.IncludeLanguage {
			fmt.Fprintf(&b, " (%s)", entry.Language.Primary)
		}
		b.WriteString("\n")

		if opts.IncludeTranslations {
			for _, lang := range sortedTranslationLangs(entry) {
				fmt.Fprintf(&b, "  [%s] %s\n", lang, entry.Language.Translations[lang])
			}
		}
		if opts.IncludeMetadata {
			fmt.Fprintf(&b, "  (confidence: %.2f, quality: %.2f, tone: %s)\n",
				entry.Language.Confidence, entry.Audio.AudioQuality, entry.Audio.EmotionalTone)
		}
	}
	return b.String()
}

// exportMarkdown renders a lightweight markup document
func exportMarkdown(entries []*Entry, opts ExportOptions, sessionID string) string {
	var b strings.Builder
	b.WriteString("# Transcript\n\n")
	if sessionID != "" {
		fmt.Fprintf(&b, "- Session: `%s`\n", sessionID)
	}
	fmt.Fprintf(&b, "- Entries: %d\n", len(entries))
	if len(entries) > 0 {
		duration := entries[len(entries)-1].Timestamp.Sub(entries[0].Timestamp)
		fmt.Fprintf(&b, "- Duration: %s\n", duration.Truncate(time.Second))
	}
	b.WriteString("\n---\n\n")

	for _, entry := range entries {
		if opts.IncludeSpeakers {
			fmt.Fprintf(&b, "**%s**", entry.Speaker)
			if opts.IncludeTimestamps {
				fmt.Fprintf(&b, " [%s]", entry.Timestamp.Format("15:04:05"))
			}
			b.WriteString(": ")
		} else if opts.IncludeTimestamps {
			fmt.Fprintf(&b, "[%s] ", entry.Timestamp.Format("15:04:05"))
		}
		b.WriteString(entry.Content)
		if opts.IncludeLanguage {
			fmt.Fprintf(&b, " _(%s)_", entry.Language.Primary)
		}
		b.WriteString("\n")

		if opts.IncludeTranslations {
			for _, lang := range sortedTranslationLangs(entry) {
				fmt.Fprintf(&b, "> %s: %s\n", lang, entry.Language.Translations[lang])
			}
		}
		if opts.IncludeMetadata {
			fmt.Fprintf(&b, "> confidence %.2f, quality %.2f, tone %s\n",
				entry.Language.Confidence, entry.Audio.AudioQuality, entry.Audio.EmotionalTone)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// jsonExport is the structured-data rendering shape
type jsonExport struct {
	Entries []*Entry `json:"entries"`
	Count   int      `json:"count"`
}

// exportJSON renders the collection as indented structured data. The
// inclusion flags prune fields before marshaling.
func exportJSON(entries []*Entry, opts ExportOptions) (string, error) {
	pruned := make([]*Entry, len(entries))
	for i, entry := range entries {
		clone := entry.Clone()
		if !opts.IncludeTranslations {
			clone.Language.Translations = nil
		}
		if !opts.IncludeMetadata {
			clone.Audio = AudioMetadata{}
		}
		if !opts.IncludeSpeakers {
			clone.Speaker = ""
		}
		pruned[i] = clone
	}

	data, err := json.MarshalIndent(jsonExport{Entries: pruned, Count: len(pruned)}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal transcript: %w", err)
	}
	return string(data) + "\n", nil
}

// exportSubtitles renders timed cues. Cue times are relative to the first
// entry; each cue ends one second before the next entry starts, and the
// last cue runs three seconds.
func exportSubtitles(entries []*Entry, opts ExportOptions, comma bool, header string) string {
	var b strings.Builder
	b.WriteString(header)

	if len(entries) == 0 {
		return b.String()
	}

	base := entries[0].Timestamp
	for i, entry := range entries {
		start := entry.Timestamp.Sub(base)
		var end time.Duration
		if i+1 < len(entries) {
			end = entries[i+1].Timestamp.Sub(base) - cueGap
		} else {
			end = start + lastCueRuntime
		}

		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", formatCueTime(start, comma), formatCueTime(end, comma))

		if opts.IncludeSpeakers {
			fmt.Fprintf(&b, "%s: ", entry.Speaker)
		}
		b.WriteString(entry.Content)
		b.WriteString("\n")

		if opts.IncludeTranslations {
			for _, lang := range sortedTranslationLangs(entry) {
				fmt.Fprintf(&b, "%s\n", entry.Language.Translations[lang])
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// formatCueTime renders HH:MM:SS,mmm (comma) or HH:MM:SS.mmm (dot)
func formatCueTime(d time.Duration, comma bool) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	separator := "."
	if comma {
		separator = ","
	}
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", hours, minutes, seconds, separator, millis)
}

// sortedTranslationLangs returns the entry's translation languages in a
// stable order
func sortedTranslationLangs(entry *Entry) []language.Language {
	langs := make([]language.Language, 0, len(entry.Language.Translations))
	for lang := range entry.Language.Translations {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}
