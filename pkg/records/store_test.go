/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package records

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKey(id, name string) *PublicKey {
	return &PublicKey{
		Id:        id,
		Name:      name,
		PublicKey: "ssh-rsa AAAA test@host",
		Created:   time.Now().UTC(),
	}
}

func TestStorePutGetDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore[*PublicKey](dir, PublicKeysFile)
	require.NoError(t, err)

	require.NoError(t, store.Put(newTestKey("a", "first")))
	require.NoError(t, store.Put(newTestKey("b", "second")))

	got, ok := store.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "first", got.Name)
	assert.Equal(t, 2, store.Len())
	assert.True(t, store.Contains("b"))

	require.NoError(t, store.Delete("a"))
	_, ok = store.Get("a")
	assert.False(t, ok)

	// Deleting an absent id is a no-op.
	require.NoError(t, store.Delete("a"))
	assert.Equal(t, 1, store.Len())
}

func TestStoreIterKeepsInsertionOrder(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore[*PublicKey](dir, PublicKeysFile)
	require.NoError(t, err)

	ids := []string{"c", "a", "b"}
	for _, id := range ids {
		require.NoError(t, store.Put(newTestKey(id, id)))
	}
	var got []string
	for _, rec := range store.Iter() {
		got = append(got, rec.Id)
	}
	assert.Equal(t, ids, got)

	// Replacing a record keeps its original position.
	require.NoError(t, store.Put(newTestKey("a", "renamed")))
	got = nil
	for _, rec := range store.Iter() {
		got = append(got, rec.Id)
	}
	assert.Equal(t, ids, got)
}

func TestStoreReloadsPersistedRecords(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore[*PublicKey](dir, PublicKeysFile)
	require.NoError(t, err)
	require.NoError(t, store.Put(newTestKey("a", "first")))
	require.NoError(t, store.Put(newTestKey("b", "second")))

	reopened, err := NewStore[*PublicKey](dir, PublicKeysFile)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Len())
	got, ok := reopened.Get("b")
	require.True(t, ok)
	assert.Equal(t, "second", got.Name)
}

func TestStoreFileAlwaysParseable(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore[*PublicKey](dir, PublicKeysFile)
	require.NoError(t, err)
	require.NoError(t, store.Put(newTestKey("a", "first")))

	data, err := os.ReadFile(filepath.Join(dir, PublicKeysFile))
	require.NoError(t, err)
	var items []PublicKey
	require.NoError(t, json.Unmarshal(data, &items))
	assert.Len(t, items, 1)
}

func TestStoreDropsUnknownFieldsOnLoad(t *testing.T) {
	dir := t.TempDir()
	future := `[{"id":"a","name":"first","public_key":"ssh-rsa AAAA","created":"2026-01-02T03:04:05Z","new_field":42}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, PublicKeysFile), []byte(future), 0o644))

	store, err := NewStore[*PublicKey](dir, PublicKeysFile)
	require.NoError(t, err)
	got, ok := store.Get("a")
	require.True(t, ok)
	assert.Equal(t, "first", got.Name)
}

func TestStoreQuarantinesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, PublicKeysFile), []byte("not json"), 0o644))

	store, err := NewStore[*PublicKey](dir, PublicKeysFile)
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())

	// The corrupt content is moved aside, not destroyed.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var quarantined bool
	for _, entry := range entries {
		if entry.Name() != PublicKeysFile && filepath.Ext(entry.Name()) == ".json" {
			quarantined = true
		}
	}
	assert.True(t, quarantined)
}

func TestStoreHandsOutCopies(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore[*Image](dir, ImagesFile)
	require.NoError(t, err)

	image := &Image{
		Id:       "img-1",
		Name:     "original",
		Arch:     ArchX8664,
		Metadata: map[string]string{"flavor": "compute"},
		Created:  time.Now().UTC(),
	}
	require.NoError(t, store.Put(image))

	// Mutating the caller's record after Put changes nothing stored.
	image.Name = "mutated-after-put"
	image.Metadata["flavor"] = "gpu"
	got, ok := store.Get("img-1")
	require.True(t, ok)
	assert.Equal(t, "original", got.Name)
	assert.Equal(t, "compute", got.Metadata["flavor"])

	// Mutating a Get result changes nothing until it is Put back.
	got.Arch = ArchAarch64
	got.Metadata["flavor"] = "storage"
	again, ok := store.Get("img-1")
	require.True(t, ok)
	assert.Equal(t, ArchX8664, again.Arch)
	assert.Equal(t, "compute", again.Metadata["flavor"])

	// Iter results are isolated the same way.
	store.Iter()[0].Name = "mutated-via-iter"
	final, ok := store.Get("img-1")
	require.True(t, ok)
	assert.Equal(t, "original", final.Name)

	// Put publishes the mutation.
	got.Name = "replaced"
	require.NoError(t, store.Put(got))
	replaced, ok := store.Get("img-1")
	require.True(t, ok)
	assert.Equal(t, "replaced", replaced.Name)
}

func TestStoreReset(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore[*PublicKey](dir, PublicKeysFile)
	require.NoError(t, err)
	require.NoError(t, store.Put(newTestKey("a", "first")))
	require.NoError(t, store.Reset())
	assert.Equal(t, 0, store.Len())

	reopened, err := NewStore[*PublicKey](dir, PublicKeysFile)
	require.NoError(t, err)
	assert.Equal(t, 0, reopened.Len())
}
