// Package history keeps the session-scoped list of successful runs.
package history

import (
	"sync"
	"time"
)

// TimestampFormat is the wire format of Entry.Timestamp.
const TimestampFormat = time.RFC3339Nano

// Entry is one successful pipeline result. Entries are immutable once
// appended; Timestamp is unique within its session and is the delete key.
type Entry struct {
	Recognized string `json:"recognized"`
	Translated string `json:"translated"`
	AudioFile  string `json:"audio_file"`
	Timestamp  string `json:"timestamp"`
}

// Store is the history of a single session.
type Store struct {
	mu      sync.Mutex
	entries []Entry
	last    time.Time
	touched time.Time
	now     func() time.Time
}

// NewStore creates an empty store using the wall clock.
func NewStore() *Store {
	return newStore(time.Now)
}

func newStore(now func() time.Time) *Store {
	return &Store{now: now, touched: now()}
}

// Append stamps e and adds it to the end of the list. Any timestamp already
// set on e is replaced. If the clock has not advanced past the previous
// stamp, the new stamp is moved 1ns after it.
func (s *Store) Append(e Entry) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC()
	if !ts.After(s.last) {
		ts = s.last.Add(time.Nanosecond)
	}
	s.last = ts
	s.touched = ts

	e.Timestamp = ts.Format(TimestampFormat)
	s.entries = append(s.entries, e)
	return e
}

// List returns a copy of the entries in insertion order.
func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touched = s.now()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touched = s.now()
	s.entries = nil
}

// Delete removes every entry whose timestamp equals ts exactly and reports
// how many were removed.
func (s *Store) Delete(ts string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touched = s.now()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.Timestamp != ts {
			kept = append(kept, e)
		}
	}
	removed := len(s.entries) - len(kept)
	clear(s.entries[len(kept):])
	s.entries = kept
	return removed
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) lastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}
