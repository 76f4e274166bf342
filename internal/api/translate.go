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
	"strings"

	"github.com/loqalabs/loqa-transcript/internal/logging"
	"github.com/loqalabs/loqa-transcript/internal/translation"
)

// TranslateHandler handles HTTP requests for the translation service
type TranslateHandler struct {
	orchestrator *translation.Orchestrator
}

// NewTranslateHandler creates a new translation handler
func NewTranslateHandler(orchestrator *translation.Orchestrator) *TranslateHandler {
	return &TranslateHandler{orchestrator: orchestrator}
}

// BatchTranslateRequest fans out several translations in one call
type BatchTranslateRequest struct {
	Requests []translation.Request `json:"requests"`
}

// BatchTranslateResponse returns one result per request, in order
type BatchTranslateResponse struct {
	Results []*translation.Result `json:"results"`
}

// HandleTranslate handles POST /api/translate
func (h *TranslateHandler) HandleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req translation.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	result, err := h.orchestrator.Translate(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, translation.ErrUnsupportedLanguagePair):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, translation.ErrAllEnginesUnavailable):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		default:
			logging.LogError(err, "Translation failed")
			http.Error(w, "Translation failed", http.StatusInternalServerError)
		}
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// HandleTranslateBatch handles POST /api/translate/batch
func (h *TranslateHandler) HandleTranslateBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req BatchTranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if len(req.Requests) == 0 {
		http.Error(w, "requests must not be empty", http.StatusBadRequest)
		return
	}

	results := h.orchestrator.TranslateBatch(r.Context(), req.Requests)
	WriteJSON(w, http.StatusOK, BatchTranslateResponse{Results: results})
}
