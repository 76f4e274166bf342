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
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/loqalabs/loqa-transcript/internal/config"
	"github.com/loqalabs/loqa-transcript/internal/language"
	"github.com/loqalabs/loqa-transcript/internal/transcript"
)

// NATSService handles NATS messaging for the transcript system
type NATSService struct {
	conn          *nats.Conn
	url           string
	maxReconnect  int
	reconnectWait time.Duration
}

// EntryEvent announces a change to a single transcript entry
type EntryEvent struct {
	SessionID  string            `json:"session_id"`
	Entry      *transcript.Entry `json:"entry"`
	Language   language.Language `json:"language"`
	Confidence float64           `json:"confidence"`
	Timestamp  int64             `json:"timestamp"`
}

// SessionEvent announces a session-level change such as undo, redo,
// merge, split or a persisted snapshot replace
type SessionEvent struct {
	SessionID  string `json:"session_id"`
	Operation  string `json:"operation"`
	EntryCount int    `json:"entry_count"`
	Timestamp  int64  `json:"timestamp"`
}

// NATS subjects for different event types
const (
	SubjectEntryAppended   = "loqa.transcript.entry.appended"
	SubjectEntryUpdated    = "loqa.transcript.entry.updated"
	SubjectSessionReplaced = "loqa.transcript.session.replaced"
)

// NewNATSService creates a new NATS service instance from configuration
func NewNATSService(cfg config.NATSConfig) (*NATSService, error) {
	url := cfg.URL
	if url == "" {
		url = "nats://localhost:4222"
	}

	reconnectWait := cfg.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}

	return &NATSService{
		url:           url,
		maxReconnect:  cfg.MaxReconnect,
		reconnectWait: reconnectWait,
	}, nil
}

// Connect establishes connection to NATS server
func (ns *NATSService) Connect() error {
	log.Printf("🔌 Connecting to NATS at %s", ns.url)

	// Connection options with retry logic
	opts := []nats.Option{
		nats.Name("loqa-transcript"),
		nats.ReconnectWait(ns.reconnectWait),
		nats.MaxReconnects(ns.maxReconnect),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("⚠️  NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("🔄 NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Println("🔌 NATS connection closed")
		}),
	}

	conn, err := nats.Connect(ns.url, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	ns.conn = conn
	log.Printf("✅ Connected to NATS server at %s", conn.ConnectedUrl())
	return nil
}

// PublishEntryAppended publishes an entry-appended event
func (ns *NATSService) PublishEntryAppended(event *EntryEvent) error {
	if ns.conn == nil {
		return fmt.Errorf("NATS connection not established")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal entry event: %w", err)
	}

	if err := ns.conn.Publish(SubjectEntryAppended, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", SubjectEntryAppended, err)
	}

	log.Printf("📤 Published entry appended to NATS - Session: %s, Language: %s",
		event.SessionID, event.Language)
	return nil
}

// PublishEntryUpdated publishes an entry-updated event
func (ns *NATSService) PublishEntryUpdated(event *EntryEvent) error {
	if ns.conn == nil {
		return fmt.Errorf("NATS connection not established")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal entry event: %w", err)
	}

	if err := ns.conn.Publish(SubjectEntryUpdated, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", SubjectEntryUpdated, err)
	}

	log.Printf("📤 Published entry updated to NATS - Session: %s, Entry: %s",
		event.SessionID, event.Entry.ID)
	return nil
}

// PublishSessionReplaced publishes a session-level change event
func (ns *NATSService) PublishSessionReplaced(event *SessionEvent) error {
	if ns.conn == nil {
		return fmt.Errorf("NATS connection not established")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal session event: %w", err)
	}

	if err := ns.conn.Publish(SubjectSessionReplaced, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", SubjectSessionReplaced, err)
	}

	log.Printf("📤 Published session change to NATS - Session: %s, Operation: %s",
		event.SessionID, event.Operation)
	return nil
}

// SubscribeToEntryEvents subscribes to appended and updated entry events
func (ns *NATSService) SubscribeToEntryEvents(handler func(subject string, event *EntryEvent)) (*nats.Subscription, error) {
	if ns.conn == nil {
		return nil, fmt.Errorf("NATS connection not established")
	}

	return ns.conn.Subscribe("loqa.transcript.entry.*", func(msg *nats.Msg) {
		var event EntryEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Printf("❌ Error unmarshaling entry event: %v", err)
			return
		}

		handler(msg.Subject, &event)
	})
}

// SubscribeToSessionEvents subscribes to session-level change events
func (ns *NATSService) SubscribeToSessionEvents(handler func(*SessionEvent)) (*nats.Subscription, error) {
	if ns.conn == nil {
		return nil, fmt.Errorf("NATS connection not established")
	}

	return ns.conn.Subscribe(SubjectSessionReplaced, func(msg *nats.Msg) {
		var event SessionEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Printf("❌ Error unmarshaling session event: %v", err)
			return
		}

		handler(&event)
	})
}

// Close closes the NATS connection
func (ns *NATSService) Close() {
	if ns.conn != nil {
		ns.conn.Close()
	}
}

// IsConnected returns true if connected to NATS
func (ns *NATSService) IsConnected() bool {
	return ns.conn != nil && ns.conn.IsConnected()
}
