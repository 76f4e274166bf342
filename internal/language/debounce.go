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

package language

import (
	"sync"
	"time"
)

// Debouncer schedules detection over live text with last-writer-wins
// semantics: a new Schedule call supersedes any pending one, and only the
// most recent call after the quiet period executes.
type Debouncer struct {
	interval time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet period
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Debouncer returns a debouncer using the engine's configured quiet period,
// for callers feeding live text snapshots
func (e *Engine) Debouncer() *Debouncer {
	interval := e.cfg.DebounceInterval
	if interval <= 0 {
		interval = 300 * time.Millisecond
	}
	return NewDebouncer(interval)
}

// Schedule queues fn after the quiet period, cancelling any pending call
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, fn)
}

// Detect schedules a detection of text, delivering the result to fn. Earlier
// pending detections for this stream are dropped, not accumulated.
func (d *Debouncer) Detect(engine *Engine, text string, fn func(Result)) {
	d.Schedule(func() {
		fn(engine.Detect(text))
	})
}

// Stop cancels any pending call
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
