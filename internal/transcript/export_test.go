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
	"strings"
	"testing"
	"time"

	"github.com/loqalabs/loqa-transcript/internal/language"
)

func exportTestStore() *Store {
	s := NewStore("session-export")
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	a := testEntry("alice", "Good morning everyone", language.English, 0.9, base)
	a.Language.Translations = map[language.Language]string{language.Malay: "selamat pagi semua"}
	b := testEntry("bob", "Terima kasih", language.Malay, 0.8, base.Add(4*time.Second))
	c := testEntry("carol", "让我们开始吧", language.Chinese, 0.85, base.Add(9*time.Second))

	s.Append(a)
	s.Append(b)
	s.Append(c)
	return s
}

func TestExportSRTCueTiming(t *testing.T) {
	s := exportTestStore()

	out, err := s.Export(FormatSRT, ExportOptions{IncludeSpeakers: true})
	if err != nil {
		t.Fatalf("Export error = %v", err)
	}

	// Each cue ends exactly one second before the next entry starts;
	// the last cue runs three seconds
	wantTimings := []string{
		"00:00:00,000 --> 00:00:03,000",
		"00:00:04,000 --> 00:00:08,000",
		"00:00:09,000 --> 00:00:12,000",
	}
	for _, timing := range wantTimings {
		if !strings.Contains(out, timing) {
			t.Errorf("SRT output missing cue timing %q:\n%s", timing, out)
		}
	}

	if !strings.Contains(out, "alice: Good morning everyone") {
		t.Errorf("SRT output missing speaker-prefixed content:\n%s", out)
	}
	if strings.Contains(out, "WEBVTT") {
		t.Error("SRT output must not carry a WEBVTT header")
	}
	if !strings.HasPrefix(out, "1\n") {
		t.Errorf("SRT output must start with cue number 1:\n%s", out)
	}
}

func TestExportVTT(t *testing.T) {
	s := exportTestStore()

	out, err := s.Export(FormatVTT, ExportOptions{})
	if err != nil {
		t.Fatalf("Export error = %v", err)
	}

	if !strings.HasPrefix(out, "WEBVTT\n\n") {
		t.Errorf("VTT output must start with the WEBVTT header:\n%s", out)
	}
	if !strings.Contains(out, "00:00:04.000 --> 00:00:08.000") {
		t.Errorf("VTT cue times must use dot separators:\n%s", out)
	}
	if strings.Contains(out, "00:00:04,000") {
		t.Error("VTT output must not contain comma-separated cue times")
	}
}

func TestExportText(t *testing.T) {
	s := exportTestStore()

	out, err := s.Export(FormatText, ExportOptions{
		IncludeTimestamps: true,
		IncludeSpeakers:   true,
		IncludeLanguage:   true,
	})
	if err != nil {
		t.Fatalf("Export error = %v", err)
	}

	if !strings.Contains(out, "[10:00:00] alice: Good morning everyone (en)") {
		t.Errorf("text output missing expected line:\n%s", out)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Errorf("text output lines = %d, want 3", len(lines))
	}
}

func TestExportTextTranslations(t *testing.T) {
	s := exportTestStore()

	out, err := s.Export(FormatText, ExportOptions{IncludeTranslations: true})
	if err != nil {
		t.Fatalf("Export error = %v", err)
	}
	if !strings.Contains(out, "[ms] selamat pagi semua") {
		t.Errorf("text output missing translation line:\n%s", out)
	}
}

func TestExportMarkdown(t *testing.T) {
	s := exportTestStore()

	out, err := s.Export(FormatMarkdown, ExportOptions{
		IncludeSpeakers:   true,
		IncludeTimestamps: true,
	})
	if err != nil {
		t.Fatalf("Export error = %v", err)
	}

	if !strings.HasPrefix(out, "# Transcript\n") {
		t.Errorf("markdown output missing title:\n%s", out)
	}
	if !strings.Contains(out, "- Session: `session-export`") {
		t.Errorf("markdown output missing session line:\n%s", out)
	}
	if !strings.Contains(out, "**alice** [10:00:00]: Good morning everyone") {
		t.Errorf("markdown output missing entry line:\n%s", out)
	}
}

func TestExportJSON(t *testing.T) {
	s := exportTestStore()

	out, err := s.Export(FormatJSON, ExportOptions{
		IncludeSpeakers:     true,
		IncludeTranslations: true,
		IncludeMetadata:     true,
	})
	if err != nil {
		t.Fatalf("Export error = %v", err)
	}

	var decoded struct {
		Entries []*Entry `json:"entries"`
		Count   int      `json:"count"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("JSON output does not parse: %v", err)
	}
	if decoded.Count != 3 || len(decoded.Entries) != 3 {
		t.Errorf("JSON count = %d / %d entries, want 3", decoded.Count, len(decoded.Entries))
	}
	if decoded.Entries[0].Speaker != "alice" {
		t.Errorf("Speaker = %q, want alice", decoded.Entries[0].Speaker)
	}
}

func TestExportJSONPrunesExcludedFields(t *testing.T) {
	s := exportTestStore()

	out, err := s.Export(FormatJSON, ExportOptions{})
	if err != nil {
		t.Fatalf("Export error = %v", err)
	}

	var decoded struct {
		Entries []*Entry `json:"entries"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("JSON output does not parse: %v", err)
	}
	for _, entry := range decoded.Entries {
		if entry.Speaker != "" {
			t.Errorf("Speaker = %q, want pruned", entry.Speaker)
		}
		if entry.Language.Translations != nil {
			t.Errorf("Translations = %v, want pruned", entry.Language.Translations)
		}
	}
}

func TestExportUnknownFormat(t *testing.T) {
	s := exportTestStore()

	if _, err := s.Export(Format("docx"), ExportOptions{}); err == nil {
		t.Error("Export of unknown format succeeded, want error")
	}
}

func TestExportEmptyStore(t *testing.T) {
	s := NewStore("empty")

	srt, err := s.Export(FormatSRT, ExportOptions{})
	if err != nil {
		t.Fatalf("Export error = %v", err)
	}
	if srt != "" {
		t.Errorf("SRT of empty store = %q, want empty", srt)
	}

	vtt, err := s.Export(FormatVTT, ExportOptions{})
	if err != nil {
		t.Fatalf("Export error = %v", err)
	}
	if vtt != "WEBVTT\n\n" {
		t.Errorf("VTT of empty store = %q, want bare header", vtt)
	}
}
