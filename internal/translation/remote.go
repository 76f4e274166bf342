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

package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/loqalabs/loqa-transcript/internal/config"
	"github.com/loqalabs/loqa-transcript/internal/language"
	"github.com/loqalabs/loqa-transcript/internal/logging"
)

// healthProbeInterval caps how often Available re-probes the service
const healthProbeInterval = 30 * time.Second

// remoteRequest is the JSON payload for the translation REST API
type remoteRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// remoteResponse is the JSON response from the translation REST API
type remoteResponse struct {
	TranslatedText string  `json:"translated_text"`
	Confidence     float64 `json:"confidence"`
}

// RemoteEngine is the primary, higher-latency engine: a REST translation
// service. Concurrency is bounded by a semaphore; availability is a cached
// health probe.
type RemoteEngine struct {
	baseURL   string
	client    *http.Client
	timeout   time.Duration
	semaphore chan struct{} // Limits concurrent requests

	mu         sync.Mutex
	healthy    bool
	lastProbe  time.Time
	probedOnce bool
}

// NewRemoteEngine creates a remote engine client. The URL must be set; the
// caller decides whether a failed connection test is fatal or a reason to
// run offline-only.
func NewRemoteEngine(cfg config.TranslationConfig) (*RemoteEngine, error) {
	if cfg.RemoteURL == "" {
		return nil, fmt.Errorf("remote translation URL cannot be empty")
	}

	engine := &RemoteEngine{
		baseURL:   strings.TrimSuffix(cfg.RemoteURL, "/"),
		client:    &http.Client{Timeout: cfg.Timeout},
		timeout:   cfg.Timeout,
		semaphore: make(chan struct{}, cfg.MaxConcurrent),
	}

	if err := engine.testConnection(); err != nil {
		return nil, fmt.Errorf("failed to connect to translation service: %w", err)
	}

	if logging.Sugar != nil {
		logging.Sugar.Infow("🌐 Remote translation engine initialized",
			"url", cfg.RemoteURL,
			"max_concurrent", cfg.MaxConcurrent,
		)
	}

	return engine, nil
}

// Name identifies the engine
func (re *RemoteEngine) Name() string {
	return "remote"
}

// Available reports the cached health probe, re-probing at most every
// healthProbeInterval
func (re *RemoteEngine) Available() bool {
	re.mu.Lock()
	defer re.mu.Unlock()

	if re.probedOnce && time.Since(re.lastProbe) < healthProbeInterval {
		return re.healthy
	}

	re.healthy = re.probe() == nil
	re.lastProbe = time.Now()
	re.probedOnce = true
	return re.healthy
}

// Supports reports true for every ordered pair of the three languages
func (re *RemoteEngine) Supports(source, target language.Language) bool {
	if source == target {
		return false
	}
	valid := func(l language.Language) bool {
		return l == language.Chinese || l == language.English || l == language.Malay
	}
	return valid(source) && valid(target)
}

// Translate issues one translation round-trip
func (re *RemoteEngine) Translate(ctx context.Context, req Request) (*Result, error) {
	// Acquire semaphore slot for concurrency control
	select {
	case re.semaphore <- struct{}{}:
		defer func() { <-re.semaphore }()
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(re.timeout):
		return nil, fmt.Errorf("translation queue full, request timed out")
	}

	start := time.Now()

	payload, err := json.Marshal(remoteRequest{
		Text:       req.Text,
		SourceLang: string(req.Source),
		TargetLang: string(req.Target),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal translation request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, re.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, "POST", re.baseURL+"/v1/translate", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := re.client.Do(httpReq)
	if err != nil {
		re.markUnhealthy()
		if logging.Logger != nil {
			logging.LogError(err, "Remote translation HTTP request failed",
				zap.String("source_lang", string(req.Source)),
				zap.String("target_lang", string(req.Target)),
			)
		}
		return nil, fmt.Errorf("translation HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		re.markUnhealthy()
		return nil, fmt.Errorf("translation request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var remoteResp remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&remoteResp); err != nil {
		return nil, fmt.Errorf("failed to decode translation response: %w", err)
	}

	return &Result{
		TranslatedText: remoteResp.TranslatedText,
		SourceLang:     req.Source,
		TargetLang:     req.Target,
		Confidence:     remoteResp.Confidence,
		Engine:         re.Name(),
		ProcessingTime: time.Since(start).Milliseconds(),
	}, nil
}

// testConnection verifies the service is reachable
func (re *RemoteEngine) testConnection() error {
	if err := re.probe(); err != nil {
		return err
	}

	re.mu.Lock()
	re.healthy = true
	re.lastProbe = time.Now()
	re.probedOnce = true
	re.mu.Unlock()
	return nil
}

// probe hits the health endpoint
func (re *RemoteEngine) probe() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", re.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := re.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// markUnhealthy forces the next Available call to re-probe
func (re *RemoteEngine) markUnhealthy() {
	re.mu.Lock()
	re.healthy = false
	re.lastProbe = time.Now()
	re.mu.Unlock()
}
