/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package records

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"k8s.io/klog/v2"
)

// Record is any persistent entity keyed by a stable string id. Records
// clone themselves so the store can hand out isolated copies.
type Record[T any] interface {
	RecordId() string
	Clone() T
}

// Store maps record ids to typed records and persists the full set to one
// JSON file per kind. Mutations hold an exclusive per-kind lock spanning the
// read-modify-write, including the file rewrite; the rewrite itself is a
// temp-file rename so readers always observe a parseable array. Records are
// handed out and taken in as deep copies, so a caller mutation is never
// observable until the matching Put.
type Store[T Record[T]] struct {
	mu      sync.Mutex
	path    string
	order   []string
	records map[string]T
}

// NewStore opens the store file under dir, creating an empty one when absent.
// A file that fails to parse is renamed with a timestamp prefix and replaced
// with an empty list; the event is logged so operators can recover the data.
func NewStore[T Record[T]](dir, filename string) (*Store[T], error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	s := &Store[T]{
		path:    filepath.Join(dir, filename),
		records: make(map[string]T),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store[T]) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s.persistLocked()
	}
	if err != nil {
		return err
	}
	var items []T
	// Unknown fields are dropped on decode, so files written by a newer
	// schema still load.
	if err = json.Unmarshal(data, &items); err != nil {
		quarantine := filepath.Join(filepath.Dir(s.path),
			fmt.Sprintf("%d_%s", time.Now().Unix(), filepath.Base(s.path)))
		klog.ErrorS(err, "record file is corrupt, moving aside and starting empty",
			"file", s.path, "quarantine", quarantine)
		if err = os.Rename(s.path, quarantine); err != nil {
			return err
		}
		return s.persistLocked()
	}
	for _, item := range items {
		s.order = append(s.order, item.RecordId())
		s.records[item.RecordId()] = item
	}
	return nil
}

// persistLocked rewrites the store file atomically. Callers must hold mu (or
// be the only reference, as during construction).
func (s *Store[T]) persistLocked() error {
	items := make([]T, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, s.records[id])
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Get returns a copy of the record with the given id. Mutating the copy does
// not affect the store; write it back with Put.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		var zero T
		return zero, false
	}
	return rec.Clone(), true
}

// Put inserts or replaces a record and rewrites the file. The store keeps its
// own copy; after Put returns, any observer sees the mutation.
func (s *Store[T]) Put(rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := rec.RecordId()
	if _, ok := s.records[id]; !ok {
		s.order = append(s.order, id)
	}
	s.records[id] = rec.Clone()
	return s.persistLocked()
}

// Delete removes a record and rewrites the file. Deleting an absent id is a
// no-op.
func (s *Store[T]) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return nil
	}
	delete(s.records, id)
	for i, cur := range s.order {
		if cur == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return s.persistLocked()
}

// Iter returns copies of all records in insertion order. The slice and its
// records are a snapshot; mutating them does not affect the store.
func (s *Store[T]) Iter() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]T, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, s.records[id].Clone())
	}
	return items
}

// Len returns the number of records.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Contains reports whether the id exists.
func (s *Store[T]) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[id]
	return ok
}

// Reset empties the store and persists the empty list.
func (s *Store[T]) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.records = make(map[string]T)
	return s.persistLocked()
}
