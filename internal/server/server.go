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

package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/loqalabs/loqa-transcript/internal/api"
	"github.com/loqalabs/loqa-transcript/internal/audio"
	"github.com/loqalabs/loqa-transcript/internal/config"
	"github.com/loqalabs/loqa-transcript/internal/language"
	"github.com/loqalabs/loqa-transcript/internal/logging"
	"github.com/loqalabs/loqa-transcript/internal/messaging"
	"github.com/loqalabs/loqa-transcript/internal/storage"
	"github.com/loqalabs/loqa-transcript/internal/transcript"
	"github.com/loqalabs/loqa-transcript/internal/translation"
)

// Server wires the detection, translation, transcript and persistence
// components behind an HTTP API
type Server struct {
	cfg    *config.Config
	mux    *http.ServeMux
	server *http.Server

	manager      *transcript.Manager
	detector     *language.Engine
	analyzer     *audio.Analyzer
	capture      audio.CaptureSource
	orchestrator *translation.Orchestrator
	database     *storage.Database
	sessions     *storage.SessionStore
	nats         *messaging.NATSService

	transcripts *api.TranscriptsHandler
	translate   *api.TranslateHandler
	detect      *api.DetectHandler

	// Server context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a server with all components wired from configuration
func New(cfg *config.Config) (*Server, error) {
	mux := http.NewServeMux()
	ctx, cancel := context.WithCancel(context.Background())

	detector := language.NewEngine(cfg.Detection)
	analyzer := audio.NewAnalyzer(cfg.Audio)

	var capture audio.CaptureSource
	if cfg.Audio.Synthetic {
		capture = audio.NewSyntheticCapture(cfg.Audio, time.Now().UnixNano())
	}

	engines := []translation.Engine{}
	if cfg.Translation.RemoteURL != "" {
		remote, err := translation.NewRemoteEngine(cfg.Translation)
		if err != nil {
			logging.LogWarn("Remote translation engine unavailable, continuing with offline dictionary")
		} else {
			engines = append(engines, remote)
		}
	}
	// The offline dictionary engine always goes last: it is the
	// guaranteed-available fallback.
	engines = append(engines, translation.NewOfflineEngine())

	orchestrator := translation.NewOrchestrator(cfg.Translation, engines...)
	orchestrator.SetSourceResolver(func(text string) language.Language {
		return detector.Detect(text).Primary
	})

	database, err := storage.NewDatabase(storage.DatabaseConfig{Path: cfg.Database.Path})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sessions := storage.NewSessionStore(database)

	var nats *messaging.NATSService
	if cfg.NATS.Enabled {
		nats, err = messaging.NewNATSService(cfg.NATS)
		if err != nil {
			logging.LogWarn("NATS service unavailable, events will not be published")
			nats = nil
		}
	}

	manager := transcript.NewManager()

	s := &Server{
		cfg:          cfg,
		mux:          mux,
		manager:      manager,
		detector:     detector,
		analyzer:     analyzer,
		capture:      capture,
		orchestrator: orchestrator,
		database:     database,
		sessions:     sessions,
		nats:         nats,
		ctx:          ctx,
		cancel:       cancel,
	}

	s.transcripts = api.NewTranscriptsHandler(cfg, manager, detector, analyzer, capture, sessions, nats)
	s.translate = api.NewTranslateHandler(orchestrator)
	s.detect = api.NewDetectHandler(detector)

	s.server = &http.Server{
		Addr:         ":" + strconv.Itoa(s.cfg.Server.Port),
		Handler:      s.mux,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.routes()

	return s, nil
}

// routes sets up HTTP routing
func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())

	s.mux.HandleFunc("/api/sessions", s.transcripts.HandleSessions)
	s.mux.HandleFunc("/api/sessions/", s.transcripts.HandleSessions)

	s.mux.HandleFunc("/api/translate", s.translate.HandleTranslate)
	s.mux.HandleFunc("/api/translate/batch", s.translate.HandleTranslateBatch)

	s.mux.HandleFunc("/api/detect", s.detect.HandleDetect)
	s.mux.HandleFunc("/api/detect/live", s.detect.HandleDetectLive)
	s.mux.HandleFunc("/api/detect/history", s.detect.HandleDetectHistory)
	s.mux.HandleFunc("/api/detect/stats", s.detect.HandleDetectStats)

	logging.LogInfo("🌐 HTTP routes configured",
		zap.String("sessions_endpoint", "/api/sessions"),
		zap.String("translate_endpoint", "/api/translate"),
		zap.String("detect_endpoint", "/api/detect"),
		zap.String("metrics_endpoint", "/metrics"))
}

// Start connects outbound services and starts the HTTP server
func (s *Server) Start() error {
	if s.nats != nil {
		if err := s.nats.Connect(); err != nil {
			logging.LogWarn("NATS connect failed, events will not be published")
			s.nats = nil
		}
	}

	logging.LogInfo("🚀 Loqa Transcript starting",
		zap.Int("http_port", s.cfg.Server.Port),
		zap.Bool("synthetic_audio", s.cfg.Audio.Synthetic),
		zap.Bool("nats_enabled", s.nats != nil))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	logging.LogInfo("🛑 Shutting down Loqa Transcript")

	s.cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.nats != nil {
		s.nats.Close()
	}
	if s.capture != nil {
		if err := s.capture.Close(); err != nil {
			logging.LogWarn("Failed to close capture source")
		}
	}
	if err := s.database.Close(); err != nil {
		logging.LogError(err, "Failed to close database")
	}

	logging.LogInfo("✅ Loqa Transcript shut down successfully")
	return nil
}

// handleHealth provides system health information
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"sessions":  len(s.manager.Sessions()),
		"nats":      s.nats != nil && s.nats.IsConnected(),
	}
	if err := s.database.Ping(); err != nil {
		health["status"] = "degraded"
		health["database_error"] = err.Error()
	}

	api.WriteJSON(w, http.StatusOK, health)
}
