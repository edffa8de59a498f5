/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryMoveToDeletedAndBack(t *testing.T) {
	dir := t.TempDir()
	reg, err := NewRegistry[*PublicKey](dir, PublicKeysFile, DeletedPublicKeysFile)
	require.NoError(t, err)

	rec := newTestKey("a", "first")
	require.NoError(t, reg.Live.Put(rec))

	require.NoError(t, reg.MoveToDeleted(rec))
	assert.False(t, reg.Live.Contains("a"))
	assert.True(t, reg.Deleted.Contains("a"))

	require.NoError(t, reg.MoveToLive(rec))
	assert.True(t, reg.Live.Contains("a"))
	assert.False(t, reg.Deleted.Contains("a"))
}

func TestRegistryLiveWinsDuplicate(t *testing.T) {
	dir := t.TempDir()

	// Simulate a crash between the two writes of MoveToLive: the id exists
	// in both files.
	live, err := NewStore[*PublicKey](dir, PublicKeysFile)
	require.NoError(t, err)
	require.NoError(t, live.Put(newTestKey("a", "live-copy")))
	deleted, err := NewStore[*PublicKey](dir, DeletedPublicKeysFile)
	require.NoError(t, err)
	require.NoError(t, deleted.Put(newTestKey("a", "deleted-copy")))

	reg, err := NewRegistry[*PublicKey](dir, PublicKeysFile, DeletedPublicKeysFile)
	require.NoError(t, err)
	assert.True(t, reg.Live.Contains("a"))
	assert.False(t, reg.Deleted.Contains("a"))
	got, ok := reg.Live.Get("a")
	require.True(t, ok)
	assert.Equal(t, "live-copy", got.Name)
}

func TestNewDatastoreOpensAllKinds(t *testing.T) {
	dir := t.TempDir()
	ds, err := NewDatastore(dir)
	require.NoError(t, err)
	assert.NotNil(t, ds.PublicKeys)
	assert.NotNil(t, ds.Recipes)
	assert.NotNil(t, ds.Images)
	assert.NotNil(t, ds.Jobs)
	assert.NotNil(t, ds.RemoteBuildNodes)
}
