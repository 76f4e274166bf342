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
	"net/http"
	"time"

	"github.com/loqalabs/loqa-transcript/internal/language"
	"github.com/loqalabs/loqa-transcript/internal/metrics"
)

// DetectHandler handles HTTP requests for standalone language detection
type DetectHandler struct {
	detector *language.Engine
	live     *language.Debouncer
}

// NewDetectHandler creates a new detection handler
func NewDetectHandler(detector *language.Engine) *DetectHandler {
	return &DetectHandler{
		detector: detector,
		live:     detector.Debouncer(),
	}
}

// DetectRequest represents the request for detecting a text's language
type DetectRequest struct {
	Text string `json:"text"`
}

// HandleDetect handles POST /api/detect
func (h *DetectHandler) HandleDetect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	start := time.Now()
	result := h.detector.Detect(req.Text)
	metrics.Default.DetectionDuration.Observe(time.Since(start).Seconds())
	metrics.Default.DetectionsTotal.WithLabelValues(string(result.Primary)).Inc()
	if result.Mixed {
		metrics.Default.DetectionMixed.Inc()
	}

	WriteJSON(w, http.StatusOK, result)
}

// HandleDetectLive handles POST /api/detect/live: each snapshot of live
// text supersedes the previous one, and only the last snapshot after the
// configured quiet period is detected. The settled result lands in the
// detection history.
func (h *DetectHandler) HandleDetectLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	h.live.Detect(h.detector, req.Text, func(result language.Result) {
		metrics.Default.DetectionsTotal.WithLabelValues(string(result.Primary)).Inc()
		if result.Mixed {
			metrics.Default.DetectionMixed.Inc()
		}
	})

	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"scheduled": true,
	})
}

// HandleDetectHistory handles GET and DELETE /api/detect/history
func (h *DetectHandler) HandleDetectHistory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"history": h.detector.History(),
		})
	case http.MethodDelete:
		h.detector.Reset()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleDetectStats handles GET /api/detect/stats
func (h *DetectHandler) HandleDetectStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	WriteJSON(w, http.StatusOK, h.detector.Stats())
}
