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

package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/loqalabs/loqa-transcript/internal/metrics"
	"github.com/loqalabs/loqa-transcript/internal/transcript"
)

// SessionStore handles database operations for transcript sessions.
// A session is persisted as a full snapshot of its entries: every save
// replaces the previous snapshot wholesale. Clients that pull a session
// always receive the complete entry collection, so there is no diff
// protocol to keep consistent.
type SessionStore struct {
	db *Database
}

// SessionRecord describes a persisted session without its entries.
type SessionRecord struct {
	SessionID  string    `json:"session_id"`
	EntryCount int       `json:"entry_count"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewSessionStore creates a new session store
func NewSessionStore(db *Database) *SessionStore {
	return &SessionStore{db: db}
}

// Save replaces the persisted snapshot for the given session
func (s *SessionStore) Save(sessionID string, entries []*transcript.Entry) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to serialize entries: %w", err)
	}

	query := `
		INSERT INTO sessions (session_id, entries, entry_count, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			entries = excluded.entries,
			entry_count = excluded.entry_count,
			updated_at = excluded.updated_at`

	_, err = s.db.DB().Exec(query, sessionID, string(payload), len(entries), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	metrics.Default.SessionSaves.Inc()
	return nil
}

// Load returns the persisted snapshot for the given session.
// A session that has never been saved yields an empty slice, not an error.
func (s *SessionStore) Load(sessionID string) ([]*transcript.Entry, error) {
	query := `SELECT entries FROM sessions WHERE session_id = ?`

	var payload string
	err := s.db.DB().QueryRow(query, sessionID).Scan(&payload)
	if err == sql.ErrNoRows {
		return []*transcript.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var entries []*transcript.Entry
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		return nil, fmt.Errorf("failed to deserialize entries: %w", err)
	}

	metrics.Default.SessionLoads.Inc()
	return entries, nil
}

// Delete removes a persisted session snapshot
func (s *SessionStore) Delete(sessionID string) error {
	result, err := s.db.DB().Exec(`DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("session not found: %s", sanitizeLogInput(sessionID))
	}

	return nil
}

// List returns summaries of all persisted sessions, newest first
func (s *SessionStore) List() ([]SessionRecord, error) {
	query := `
		SELECT session_id, entry_count, updated_at
		FROM sessions
		ORDER BY updated_at DESC`

	rows, err := s.db.DB().Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		if err := rows.Scan(&rec.SessionID, &rec.EntryCount, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
