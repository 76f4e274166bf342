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

package transcript

import (
	"sort"
	"sync"

	"github.com/loqalabs/loqa-transcript/internal/metrics"
)

// Manager hands out one Store per session id. Stores are created lazily
// on first access and live for the process lifetime; persistence across
// restarts is the session store's job, not the manager's.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*Store
}

// NewManager creates an empty session manager
func NewManager() *Manager {
	return &Manager{stores: make(map[string]*Store)}
}

// Get returns the store for a session, creating it if needed
func (m *Manager) Get(sessionID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	store, ok := m.stores[sessionID]
	if !ok {
		store = NewStore(sessionID)
		m.stores[sessionID] = store
	}
	return store
}

// Lookup returns the store for a session without creating one
func (m *Manager) Lookup(sessionID string) (*Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	store, ok := m.stores[sessionID]
	return store, ok
}

// Remove drops a session's in-memory store
func (m *Manager) Remove(sessionID string) {
	m.mu.Lock()
	store, ok := m.stores[sessionID]
	delete(m.stores, sessionID)
	m.mu.Unlock()

	if ok {
		// The dropped store's entries leave the live set
		metrics.Default.StoreEntries.Sub(float64(store.Len()))
	}
}

// Sessions returns the ids of all live in-memory sessions, sorted
func (m *Manager) Sessions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.stores))
	for id := range m.stores {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
