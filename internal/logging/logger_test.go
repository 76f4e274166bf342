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

package logging

import (
	"errors"
	"testing"

	"go.uber.org/zap"
)

// Every helper must be a no-op before Initialize runs: handlers and
// libraries log through these without knowing whether the process
// bootstrapped logging.
func TestHelpersAreNoOpsBeforeInitialize(t *testing.T) {
	savedLogger, savedSugar := Logger, Sugar
	Logger, Sugar = nil, nil
	t.Cleanup(func() { Logger, Sugar = savedLogger, savedSugar })

	LogInfo("message", zap.String("key", "value"))
	LogError(errors.New("boom"), "message")
	LogWarn("message")
	LogDetection("en", 0.9)
	LogTranslation("offline", "en", "ms")
	LogStoreOperation("append", "session-1")
	LogAudioProcessing("synthetic", "analyze")
	LogNATSEvent("loqa.transcript.entry.appended", "publish")
	LogDatabaseOperation("save", "sessions")
	Sync()
}

func TestInitializeWithConfig(t *testing.T) {
	savedLogger, savedSugar := Logger, Sugar
	t.Cleanup(func() { Logger, Sugar = savedLogger, savedSugar })

	if err := InitializeWithConfig(LogConfig{Level: "debug", Format: "json"}); err != nil {
		t.Fatalf("InitializeWithConfig error = %v", err)
	}
	if Logger == nil || Sugar == nil {
		t.Fatal("globals not set after initialization")
	}

	// Unknown level falls back instead of failing
	if err := InitializeWithConfig(LogConfig{Level: "loud", Format: "console"}); err != nil {
		t.Errorf("InitializeWithConfig with unknown level error = %v", err)
	}
}
