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

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/loqalabs/loqa-transcript/internal/audio"
	"github.com/loqalabs/loqa-transcript/internal/config"
	"github.com/loqalabs/loqa-transcript/internal/language"
	"github.com/loqalabs/loqa-transcript/internal/logging"
	"github.com/loqalabs/loqa-transcript/internal/messaging"
	"github.com/loqalabs/loqa-transcript/internal/metrics"
	"github.com/loqalabs/loqa-transcript/internal/storage"
	"github.com/loqalabs/loqa-transcript/internal/transcript"
)

// TranscriptsHandler handles HTTP requests for transcript sessions
type TranscriptsHandler struct {
	cfg      *config.Config
	manager  *transcript.Manager
	detector *language.Engine
	analyzer *audio.Analyzer
	capture  audio.CaptureSource
	sessions *storage.SessionStore
	nats     *messaging.NATSService
}

// NewTranscriptsHandler creates a new transcripts handler. The capture
// source, session store and NATS service may be nil; the corresponding
// features are skipped when absent.
func NewTranscriptsHandler(
	cfg *config.Config,
	manager *transcript.Manager,
	detector *language.Engine,
	analyzer *audio.Analyzer,
	capture audio.CaptureSource,
	sessions *storage.SessionStore,
	nats *messaging.NATSService,
) *TranscriptsHandler {
	return &TranscriptsHandler{
		cfg:      cfg,
		manager:  manager,
		detector: detector,
		analyzer: analyzer,
		capture:  capture,
		sessions: sessions,
		nats:     nats,
	}
}

// IngestRequest represents the request for appending recognized text
type IngestRequest struct {
	Speaker    string `json:"speaker"`
	Content    string `json:"content"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

// IngestResponse returns the created entry with its detection outcome
type IngestResponse struct {
	Entry     *transcript.Entry `json:"entry"`
	Detection language.Result   `json:"detection"`
}

// UpdateEntryRequest represents the request for a partial entry update
type UpdateEntryRequest struct {
	Speaker         *string           `json:"speaker,omitempty"`
	Content         *string           `json:"content,omitempty"`
	Confidence      *float64          `json:"confidence,omitempty"`
	Primary         *string           `json:"primary,omitempty"`
	Translations    map[string]string `json:"translations,omitempty"`
	CulturalMarkers []string          `json:"cultural_markers,omitempty"`
}

// MergeRequest names the entries to merge, in collection order
type MergeRequest struct {
	EntryIDs []string `json:"entry_ids"`
}

// SplitRequest names the entry and the rune index to split at
type SplitRequest struct {
	EntryID string `json:"entry_id"`
	Index   int    `json:"index"`
}

// HandleSessions handles all /api/sessions and /api/sessions/... routes
func (h *TranscriptsHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sessions"), "/")
	if rest == "" {
		h.listSessions(w, r)
		return
	}

	parts := strings.Split(rest, "/")
	sessionID := parts[0]

	if len(parts) == 1 {
		h.sessionInfo(w, r, sessionID)
		return
	}

	store := h.manager.Get(sessionID)

	switch parts[1] {
	case "entries":
		if len(parts) == 2 {
			switch r.Method {
			case http.MethodGet:
				h.listEntries(w, store)
			case http.MethodPost:
				h.ingest(w, r, store)
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
			return
		}
		h.entryByID(w, r, store, parts[2])
	case "merge":
		h.merge(w, r, store)
	case "split":
		h.split(w, r, store)
	case "undo":
		h.undoRedo(w, r, store, "undo")
	case "redo":
		h.undoRedo(w, r, store, "redo")
	case "search":
		h.search(w, r, store)
	case "statistics":
		h.statistics(w, r, store)
	case "export":
		h.export(w, r, store)
	case "save":
		h.save(w, r, store)
	case "load":
		h.load(w, r, store)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// listSessions handles GET /api/sessions
func (h *TranscriptsHandler) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"live": h.manager.Sessions(),
	}

	if h.sessions != nil {
		persisted, err := h.sessions.List()
		if err != nil {
			logging.LogError(err, "Failed to list persisted sessions")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		response["persisted"] = persisted
	}

	WriteJSON(w, http.StatusOK, response)
}

// sessionInfo handles GET /api/sessions/{id}
func (h *TranscriptsHandler) sessionInfo(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	store, ok := h.manager.Lookup(sessionID)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":  store.SessionID(),
		"entry_count": store.Len(),
	})
}

// ingest handles POST /api/sessions/{id}/entries: recognized text comes
// in, gets language-detected and paired with the current audio frame's
// metrics, and lands in the session as a new entry.
func (h *TranscriptsHandler) ingest(w http.ResponseWriter, r *http.Request, store *transcript.Store) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}
	if req.Speaker == "" {
		req.Speaker = "unknown"
	}

	start := time.Now()
	detection := h.detector.Detect(req.Content)
	metrics.Default.DetectionDuration.Observe(time.Since(start).Seconds())
	metrics.Default.DetectionsTotal.WithLabelValues(string(detection.Primary)).Inc()
	if detection.Mixed {
		metrics.Default.DetectionMixed.Inc()
	}

	meta := h.audioMetadata(req)

	entry := transcript.NewEntry(req.Speaker, req.Content, detection, meta)
	store.Append(entry)

	if h.nats != nil && h.nats.IsConnected() {
		event := &messaging.EntryEvent{
			SessionID:  store.SessionID(),
			Entry:      entry,
			Language:   detection.Primary,
			Confidence: detection.Confidence,
			Timestamp:  time.Now().Unix(),
		}
		if err := h.nats.PublishEntryAppended(event); err != nil {
			logging.LogWarn("Failed to publish entry appended event",
				zap.String("session_id", store.SessionID()),
				zap.Error(err),
			)
		}
	}

	logging.LogInfo("Entry ingested via API",
		zap.String("session_id", store.SessionID()),
		zap.String("entry_id", entry.ID),
		zap.String("language", string(detection.Primary)),
		zap.Bool("mixed", detection.Mixed),
	)

	WriteJSON(w, http.StatusCreated, IngestResponse{Entry: entry, Detection: detection})
}

// audioMetadata analyzes the current capture frame, when a capture
// source is wired in, and derives the per-entry audio metadata
func (h *TranscriptsHandler) audioMetadata(req IngestRequest) transcript.AudioMetadata {
	var meta transcript.AudioMetadata
	if h.capture == nil || h.analyzer == nil {
		return meta
	}

	samples, magnitudes, err := h.capture.Frame()
	if err != nil {
		logging.LogWarn("Audio capture frame failed", zap.Error(err))
		return meta
	}

	m := h.analyzer.Analyze(samples, magnitudes)
	meta.Volume = m.Volume
	meta.BackgroundNoise = m.BackgroundNoise
	meta.AudioQuality = m.Quality
	meta.EmotionalTone = audio.Tone(m.Volume, m.Pitch)
	if req.DurationMs > 0 {
		meta.SpeakingSpeed = audio.SpeakingSpeed(req.Content, time.Duration(req.DurationMs)*time.Millisecond)
	}
	return meta
}

// listEntries handles GET /api/sessions/{id}/entries
func (h *TranscriptsHandler) listEntries(w http.ResponseWriter, store *transcript.Store) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": store.SessionID(),
		"entries":    store.Entries(),
		"total":      store.Len(),
	})
}

// entryByID handles GET/PATCH/DELETE /api/sessions/{id}/entries/{entryID}
func (h *TranscriptsHandler) entryByID(w http.ResponseWriter, r *http.Request, store *transcript.Store, entryID string) {
	switch r.Method {
	case http.MethodGet:
		entry, ok := store.Get(entryID)
		if !ok {
			http.Error(w, "Entry not found", http.StatusNotFound)
			return
		}
		WriteJSON(w, http.StatusOK, entry)
	case http.MethodPatch:
		h.updateEntry(w, r, store, entryID)
	case http.MethodDelete:
		if !store.Delete(entryID) {
			http.Error(w, "Entry not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// updateEntry applies a partial update to one entry
func (h *TranscriptsHandler) updateEntry(w http.ResponseWriter, r *http.Request, store *transcript.Store, entryID string) {
	var req UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	update := transcript.EntryUpdate{
		Speaker:         req.Speaker,
		Content:         req.Content,
		Confidence:      req.Confidence,
		CulturalMarkers: req.CulturalMarkers,
	}
	if req.Primary != nil {
		lang, err := language.Parse(*req.Primary)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		update.Primary = &lang
	}
	if len(req.Translations) > 0 {
		update.Translations = make(map[language.Language]string, len(req.Translations))
		for code, text := range req.Translations {
			lang, err := language.Parse(code)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			update.Translations[lang] = text
		}
	}

	if !store.Update(entryID, update) {
		http.Error(w, "Entry not found", http.StatusNotFound)
		return
	}

	entry, _ := store.Get(entryID)

	if h.nats != nil && h.nats.IsConnected() {
		event := &messaging.EntryEvent{
			SessionID:  store.SessionID(),
			Entry:      entry,
			Language:   entry.Language.Primary,
			Confidence: entry.Language.Confidence,
			Timestamp:  time.Now().Unix(),
		}
		if err := h.nats.PublishEntryUpdated(event); err != nil {
			logging.LogWarn("Failed to publish entry updated event", zap.Error(err))
		}
	}

	WriteJSON(w, http.StatusOK, entry)
}

// merge handles POST /api/sessions/{id}/merge
func (h *TranscriptsHandler) merge(w http.ResponseWriter, r *http.Request, store *transcript.Store) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	merged, err := store.Merge(req.EntryIDs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.publishSessionEvent(store, "merge")
	WriteJSON(w, http.StatusOK, merged)
}

// split handles POST /api/sessions/{id}/split
func (h *TranscriptsHandler) split(w http.ResponseWriter, r *http.Request, store *transcript.Store) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SplitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	first, second, err := store.Split(req.EntryID, req.Index)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, transcript.ErrEntryNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	h.publishSessionEvent(store, "split")
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"first":  first,
		"second": second,
	})
}

// undoRedo handles POST /api/sessions/{id}/undo and .../redo
func (h *TranscriptsHandler) undoRedo(w http.ResponseWriter, r *http.Request, store *transcript.Store, op string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var applied bool
	if op == "undo" {
		applied = store.Undo()
	} else {
		applied = store.Redo()
	}

	if applied {
		h.publishSessionEvent(store, op)
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"applied":     applied,
		"entry_count": store.Len(),
	})
}

// search handles GET /api/sessions/{id}/search
func (h *TranscriptsHandler) search(w http.ResponseWriter, r *http.Request, store *transcript.Store) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	q := query.Get("q")
	if q == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}

	opts := transcript.SearchOptions{
		CaseSensitive:      parseBoolParam(query.Get("case_sensitive")),
		WholeWord:          parseBoolParam(query.Get("whole_word")),
		SearchTranslations: parseBoolParam(query.Get("translations")),
		SearchSpeakers:     parseBoolParam(query.Get("speakers")),
		Speaker:            query.Get("speaker"),
		Language:           language.Language(query.Get("language")),
	}
	if fromStr := query.Get("from"); fromStr != "" {
		if from, err := time.Parse(time.RFC3339, fromStr); err == nil {
			opts.From = &from
		}
	}
	if toStr := query.Get("to"); toStr != "" {
		if to, err := time.Parse(time.RFC3339, toStr); err == nil {
			opts.To = &to
		}
	}

	matches, err := store.Search(q, opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
		"total":   len(matches),
	})
}

// statistics handles GET /api/sessions/{id}/statistics
func (h *TranscriptsHandler) statistics(w http.ResponseWriter, r *http.Request, store *transcript.Store) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	WriteJSON(w, http.StatusOK, store.Statistics())
}

// export content types per format
var exportContentTypes = map[transcript.Format]string{
	transcript.FormatText:     "text/plain; charset=utf-8",
	transcript.FormatMarkdown: "text/markdown; charset=utf-8",
	transcript.FormatJSON:     "application/json",
	transcript.FormatSRT:      "application/x-subrip",
	transcript.FormatVTT:      "text/vtt",
}

// export handles GET /api/sessions/{id}/export?format=srt
func (h *TranscriptsHandler) export(w http.ResponseWriter, r *http.Request, store *transcript.Store) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	format := transcript.Format(query.Get("format"))
	if format == "" {
		format = transcript.FormatText
	}

	opts := transcript.ExportOptions{
		IncludeTimestamps:   h.cfg.Export.IncludeTimestamps,
		IncludeSpeakers:     h.cfg.Export.IncludeSpeakers,
		IncludeLanguage:     h.cfg.Export.IncludeLanguage,
		IncludeTranslations: h.cfg.Export.IncludeTranslations,
		IncludeMetadata:     h.cfg.Export.IncludeMetadata,
	}
	if v := query.Get("timestamps"); v != "" {
		opts.IncludeTimestamps = parseBoolParam(v)
	}
	if v := query.Get("speakers"); v != "" {
		opts.IncludeSpeakers = parseBoolParam(v)
	}
	if v := query.Get("language"); v != "" {
		opts.IncludeLanguage = parseBoolParam(v)
	}
	if v := query.Get("translations"); v != "" {
		opts.IncludeTranslations = parseBoolParam(v)
	}
	if v := query.Get("metadata"); v != "" {
		opts.IncludeMetadata = parseBoolParam(v)
	}

	rendered, err := store.Export(format, opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	contentType := exportContentTypes[format]
	w.Header().Set("Content-Type", contentType)
	if _, err := w.Write([]byte(rendered)); err != nil {
		logging.LogError(err, "Failed to write export response")
	}
}

// save handles POST /api/sessions/{id}/save: persist the full snapshot
func (h *TranscriptsHandler) save(w http.ResponseWriter, r *http.Request, store *transcript.Store) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.sessions == nil {
		http.Error(w, "Persistence not configured", http.StatusServiceUnavailable)
		return
	}

	entries := store.Entries()
	if err := h.sessions.Save(store.SessionID(), entries); err != nil {
		logging.LogError(err, "Failed to save session",
			zap.String("session_id", store.SessionID()),
		)
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":  store.SessionID(),
		"entry_count": len(entries),
	})
}

// load handles POST /api/sessions/{id}/load: replace the in-memory
// collection with the persisted snapshot
func (h *TranscriptsHandler) load(w http.ResponseWriter, r *http.Request, store *transcript.Store) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.sessions == nil {
		http.Error(w, "Persistence not configured", http.StatusServiceUnavailable)
		return
	}

	entries, err := h.sessions.Load(store.SessionID())
	if err != nil {
		logging.LogError(err, "Failed to load session",
			zap.String("session_id", store.SessionID()),
		)
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return
	}

	store.ReplaceAll(entries)
	h.publishSessionEvent(store, "load")

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":  store.SessionID(),
		"entry_count": store.Len(),
	})
}

// publishSessionEvent pushes a session-level change to NATS, best effort
func (h *TranscriptsHandler) publishSessionEvent(store *transcript.Store, operation string) {
	if h.nats == nil || !h.nats.IsConnected() {
		return
	}

	event := &messaging.SessionEvent{
		SessionID:  store.SessionID(),
		Operation:  operation,
		EntryCount: store.Len(),
		Timestamp:  time.Now().Unix(),
	}
	if err := h.nats.PublishSessionReplaced(event); err != nil {
		logging.LogWarn("Failed to publish session event",
			zap.String("operation", operation),
			zap.Error(err),
		)
	}
}

// WriteJSON encodes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.LogError(err, "Failed to write JSON response")
	}
}

// parseBoolParam parses a query flag, treating garbage as false
func parseBoolParam(param string) bool {
	v, err := strconv.ParseBool(param)
	if err != nil {
		return false
	}
	return v
}
