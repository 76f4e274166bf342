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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loqalabs/loqa-transcript/internal/language"
	"github.com/loqalabs/loqa-transcript/internal/transcript"
)

func setupTestStore(t *testing.T) *SessionStore {
	t.Helper()

	db, err := NewDatabase(DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewSessionStore(db)
}

func storageTestEntries() []*transcript.Entry {
	a := transcript.NewEntry("alice", "good morning", language.Result{
		Primary:    language.English,
		Confidence: 0.9,
	}, transcript.AudioMetadata{})
	b := transcript.NewEntry("bob", "selamat pagi", language.Result{
		Primary:    language.Malay,
		Confidence: 0.8,
	}, transcript.AudioMetadata{})
	return []*transcript.Entry{a, b}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	entries := storageTestEntries()

	require.NoError(t, store.Save("session-1", entries))

	loaded, err := store.Load("session-1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, entries[0].ID, loaded[0].ID)
	assert.Equal(t, "good morning", loaded[0].Content)
	assert.Equal(t, language.Malay, loaded[1].Language.Primary)
}

func TestSaveReplacesSnapshot(t *testing.T) {
	store := setupTestStore(t)
	entries := storageTestEntries()

	require.NoError(t, store.Save("session-1", entries))
	require.NoError(t, store.Save("session-1", entries[:1]))

	loaded, err := store.Load("session-1")
	require.NoError(t, err)
	assert.Len(t, loaded, 1)

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].EntryCount)
}

func TestSaveRequiresSessionID(t *testing.T) {
	store := setupTestStore(t)
	assert.Error(t, store.Save("", storageTestEntries()))
}

func TestLoadUnknownSessionIsEmpty(t *testing.T) {
	store := setupTestStore(t)

	loaded, err := store.Load("never-saved")
	require.NoError(t, err)
	assert.Empty(t, loaded)
	assert.NotNil(t, loaded)
}

func TestDeleteSession(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.Save("session-1", storageTestEntries()))
	require.NoError(t, store.Delete("session-1"))

	loaded, err := store.Load("session-1")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestDeleteUnknownSession(t *testing.T) {
	store := setupTestStore(t)
	assert.Error(t, store.Delete("missing"))
}

func TestListOrdersNewestFirst(t *testing.T) {
	store := setupTestStore(t)
	entries := storageTestEntries()

	require.NoError(t, store.Save("older", entries))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.Save("newer", entries))

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "newer", records[0].SessionID)
	assert.Equal(t, "older", records[1].SessionID)
}

func TestListEmpty(t *testing.T) {
	store := setupTestStore(t)

	records, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, records)
}
