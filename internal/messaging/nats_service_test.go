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

package messaging

import (
	"testing"
	"time"

	"github.com/loqalabs/loqa-transcript/internal/config"
)

func TestNewNATSServiceUsesConfig(t *testing.T) {
	ns, err := NewNATSService(config.NATSConfig{
		URL:           "nats://broker.internal:4222",
		MaxReconnect:  5,
		ReconnectWait: 500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewNATSService error = %v", err)
	}

	if ns.url != "nats://broker.internal:4222" {
		t.Errorf("url = %q, want the configured broker", ns.url)
	}
	if ns.maxReconnect != 5 {
		t.Errorf("maxReconnect = %d, want 5", ns.maxReconnect)
	}
	if ns.reconnectWait != 500*time.Millisecond {
		t.Errorf("reconnectWait = %v, want 500ms", ns.reconnectWait)
	}
}

func TestNewNATSServiceDefaults(t *testing.T) {
	ns, err := NewNATSService(config.NATSConfig{})
	if err != nil {
		t.Fatalf("NewNATSService error = %v", err)
	}

	if ns.url != "nats://localhost:4222" {
		t.Errorf("url = %q, want the local default", ns.url)
	}
	if ns.reconnectWait != 2*time.Second {
		t.Errorf("reconnectWait = %v, want 2s", ns.reconnectWait)
	}
}

func TestPublishWithoutConnection(t *testing.T) {
	ns, err := NewNATSService(config.NATSConfig{})
	if err != nil {
		t.Fatalf("NewNATSService error = %v", err)
	}

	if err := ns.PublishEntryAppended(&EntryEvent{SessionID: "s"}); err == nil {
		t.Error("publish without a connection succeeded, want error")
	}
	if ns.IsConnected() {
		t.Error("IsConnected() = true without a connection")
	}
}
