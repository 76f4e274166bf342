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
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/loqalabs/loqa-transcript/internal/language"
	"github.com/loqalabs/loqa-transcript/internal/logging"
	"github.com/loqalabs/loqa-transcript/internal/metrics"
)

// defaultUndoDepth bounds the undo/redo snapshot stacks
const defaultUndoDepth = 50

var (
	// ErrEntryNotFound means the referenced entry id does not exist
	ErrEntryNotFound = errors.New("transcript entry not found")
	// ErrInvalidMerge means a merge was attempted with fewer than two
	// existing entries
	ErrInvalidMerge = errors.New("merge requires at least two existing entries")
	// ErrInvalidSplitIndex means the split index is not strictly inside
	// the entry content
	ErrInvalidSplitIndex = errors.New("split index must be strictly inside the content")
)

// Store owns the ordered transcript entry collection for one session. Every
// structural mutation pushes an undo snapshot and clears the redo stack. All
// operations run under a single mutual-exclusion boundary: merge, split and
// undo read-then-write the whole collection and are not safe to interleave.
type Store struct {
	sessionID string
	undoDepth int

	mu      sync.Mutex
	entries []*Entry
	undo    [][]*Entry
	redo    [][]*Entry
}

// EntryUpdate carries the partial fields merged into an entry by Update.
// Nil pointers leave the existing value untouched.
type EntryUpdate struct {
	Speaker    *string
	Content    *string
	Confidence *float64
	Primary    *language.Language
	// Translations merge into the existing translation map
	Translations map[language.Language]string
	// CulturalMarkers append to the existing markers
	CulturalMarkers []string
}

// NewStore creates an empty store for a session
func NewStore(sessionID string) *Store {
	return &Store{
		sessionID: sessionID,
		undoDepth: defaultUndoDepth,
	}
}

// SessionID returns the owning session identifier
func (s *Store) SessionID() string {
	return s.sessionID
}

// Append pushes an entry to the end of the collection. Order is insertion
// order, not timestamp order.
func (s *Store) Append(entry *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pushUndo()
	s.entries = append(s.entries, entry.Clone())
	s.trackEntries(len(s.entries) - 1)
	s.logMutation("append", zap.String("entry_id", entry.ID))
}

// AppendMany pushes entries to the end of the collection in order
func (s *Store) AppendMany(entries []*Entry) {
	if len(entries) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pushUndo()
	before := len(s.entries)
	for _, entry := range entries {
		s.entries = append(s.entries, entry.Clone())
	}
	s.trackEntries(before)
	s.logMutation("append_many", zap.Int("count", len(entries)))
}

// Get returns a clone of the entry with the given id
func (s *Store) Get(id string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		return s.entries[i].Clone(), true
	}
	return nil, false
}

// Entries returns clones of all entries in collection order
func (s *Store) Entries() []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cloneEntries()
}

// Len returns the number of entries
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Update merges partial fields into an existing entry. Returns false when
// the id is unknown; an unknown id pushes no snapshot.
func (s *Store) Update(id string, update EntryUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}

	s.pushUndo()
	entry := s.entries[i]

	if update.Speaker != nil {
		entry.Speaker = *update.Speaker
	}
	if update.Content != nil {
		entry.Content = *update.Content
	}
	if update.Confidence != nil {
		entry.Language.Confidence = *update.Confidence
	}
	if update.Primary != nil {
		entry.Language.Primary = *update.Primary
	}
	if len(update.Translations) > 0 {
		if entry.Language.Translations == nil {
			entry.Language.Translations = make(map[language.Language]string, len(update.Translations))
		}
		for lang, text := range update.Translations {
			entry.Language.Translations[lang] = text
		}
	}
	if len(update.CulturalMarkers) > 0 {
		entry.Language.CulturalMarkers = append(entry.Language.CulturalMarkers, update.CulturalMarkers...)
	}

	s.logMutation("update", zap.String("entry_id", id))
	return true
}

// Delete removes the entry with the given id. Returns false when unknown.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}

	s.pushUndo()
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.trackEntries(len(s.entries) + 1)
	s.logMutation("delete", zap.String("entry_id", id))
	return true
}

// Merge combines two or more entries into one: speaker and timestamp from
// the first id, contents space-joined in the given id order, confidence
// averaged, detections from the first, translations concatenated
// per-language, cultural markers flattened without deduplication. The
// originals are removed and the whole collection re-sorted by timestamp.
func (s *Store) Merge(ids []string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ids) < 2 {
		return nil, ErrInvalidMerge
	}

	sources := make([]*Entry, 0, len(ids))
	for _, id := range ids {
		i := s.indexOf(id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
		}
		sources = append(sources, s.entries[i])
	}

	s.pushUndo()

	first := sources[0]
	merged := first.Clone()
	merged.ID = uuid.New().String()

	contents := make([]string, 0, len(sources))
	confidenceSum := 0.0
	translations := make(map[language.Language][]string)
	var markers []string

	for _, src := range sources {
		contents = append(contents, src.Content)
		confidenceSum += src.Language.Confidence
		for lang, text := range src.Language.Translations {
			translations[lang] = append(translations[lang], text)
		}
		markers = append(markers, src.Language.CulturalMarkers...)
	}

	merged.Content = strings.Join(contents, " ")
	merged.Language.Confidence = confidenceSum / float64(len(sources))
	merged.Language.CulturalMarkers = markers
	if len(translations) > 0 {
		merged.Language.Translations = make(map[language.Language]string, len(translations))
		for lang, texts := range translations {
			merged.Language.Translations[lang] = strings.Join(texts, " ")
		}
	} else {
		merged.Language.Translations = nil
	}

	before := len(s.entries)
	removed := make(map[string]bool, len(ids))
	for _, id := range ids {
		removed[id] = true
	}
	kept := s.entries[:0]
	for _, entry := range s.entries {
		if !removed[entry.ID] {
			kept = append(kept, entry)
		}
	}
	s.entries = append(kept, merged)

	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].Timestamp.Before(s.entries[j].Timestamp)
	})

	s.trackEntries(before)
	s.logMutation("merge", zap.Int("sources", len(ids)), zap.String("entry_id", merged.ID))
	return merged.Clone(), nil
}

// Split divides an entry at a rune index strictly inside its content. The
// first half keeps the original timestamp and id position, the second half
// starts one second later; both halves are whitespace-trimmed, which
// consumes any interior whitespace at the boundary.
func (s *Store) Split(id string, charIndex int) (*Entry, *Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}

	content := []rune(s.entries[i].Content)
	if charIndex <= 0 || charIndex >= len(content) {
		return nil, nil, fmt.Errorf("%w: index %d, length %d", ErrInvalidSplitIndex, charIndex, len(content))
	}

	s.pushUndo()

	original := s.entries[i]
	first := original.Clone()
	first.Content = strings.TrimSpace(string(content[:charIndex]))

	second := original.Clone()
	second.ID = uuid.New().String()
	second.Content = strings.TrimSpace(string(content[charIndex:]))
	second.Timestamp = original.Timestamp.Add(time.Second)

	// Replace in place, preserving the position in the ordered collection
	replaced := make([]*Entry, 0, len(s.entries)+1)
	replaced = append(replaced, s.entries[:i]...)
	replaced = append(replaced, first, second)
	replaced = append(replaced, s.entries[i+1:]...)
	s.entries = replaced

	s.trackEntries(len(s.entries) - 1)
	s.logMutation("split",
		zap.String("entry_id", id),
		zap.Int("char_index", charIndex),
	)
	return first.Clone(), second.Clone(), nil
}

// Clear removes all entries
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pushUndo()
	before := len(s.entries)
	s.entries = nil
	s.trackEntries(before)
	s.logMutation("clear")
}

// ReplaceAll swaps in a full entry collection, as delivered by the realtime
// persistence channel (full-replace, not an incremental diff)
func (s *Store) ReplaceAll(entries []*Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pushUndo()
	before := len(s.entries)
	s.entries = make([]*Entry, len(entries))
	for i, entry := range entries {
		s.entries[i] = entry.Clone()
	}
	s.trackEntries(before)
	s.logMutation("replace_all", zap.Int("count", len(entries)))
}

// Undo restores the collection to the state before the last mutation.
// Returns false when there is nothing to undo.
func (s *Store) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return false
	}

	before := len(s.entries)
	s.redo = append(s.redo, s.entries)
	s.entries = s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]

	s.trackEntries(before)
	s.logMutation("undo")
	return true
}

// Redo reapplies the last undone mutation. Returns false when there is
// nothing to redo.
func (s *Store) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.redo) == 0 {
		return false
	}

	before := len(s.entries)
	s.undo = append(s.undo, s.entries)
	s.entries = s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]

	s.trackEntries(before)
	s.logMutation("redo")
	return true
}

// pushUndo snapshots the current collection and clears the redo stack.
// Callers must hold the mutex.
func (s *Store) pushUndo() {
	s.undo = append(s.undo, s.cloneEntries())
	if len(s.undo) > s.undoDepth {
		s.undo = s.undo[len(s.undo)-s.undoDepth:]
	}
	s.redo = nil
}

// cloneEntries deep-copies the collection. Callers must hold the mutex.
func (s *Store) cloneEntries() []*Entry {
	clones := make([]*Entry, len(s.entries))
	for i, entry := range s.entries {
		clones[i] = entry.Clone()
	}
	return clones
}

// indexOf finds an entry by id. Callers must hold the mutex.
func (s *Store) indexOf(id string) int {
	for i, entry := range s.entries {
		if entry.ID == id {
			return i
		}
	}
	return -1
}

// logMutation records a store mutation. Callers must hold the mutex.
func (s *Store) logMutation(operation string, fields ...zap.Field) {
	metrics.Default.StoreMutations.WithLabelValues(operation).Inc()
	logging.LogStoreOperation(operation, s.sessionID, fields...)
}

// trackEntries adjusts the live-entry gauge by the change in collection
// size. Callers must hold the mutex.
func (s *Store) trackEntries(before int) {
	if delta := len(s.entries) - before; delta != 0 {
		metrics.Default.StoreEntries.Add(float64(delta))
	}
}
