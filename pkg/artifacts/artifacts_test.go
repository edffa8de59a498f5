/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package artifacts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	imserrors "github.com/Cray-HPE/ims/pkg/errors"
	"github.com/Cray-HPE/ims/pkg/records"
	"github.com/Cray-HPE/ims/pkg/s3store"
)

type fakeStore struct {
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) key(bucket, key string) string { return bucket + "/" + key }

func (f *fakeStore) Head(_ context.Context, bucket, key string) (*s3store.ObjectInfo, error) {
	body, ok := f.objects[f.key(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("no such key %s/%s", bucket, key)
	}
	return &s3store.ObjectInfo{Etag: "etag-" + key, ContentLength: int64(len(body))}, nil
}

func (f *fakeStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	body, ok := f.objects[f.key(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("no such key %s/%s", bucket, key)
	}
	return body, nil
}

func (f *fakeStore) Put(_ context.Context, bucket, key string, body []byte) (*s3store.ObjectInfo, error) {
	f.objects[f.key(bucket, key)] = body
	return &s3store.ObjectInfo{Etag: "etag-" + key}, nil
}

func (f *fakeStore) Delete(_ context.Context, bucket, key string) error {
	delete(f.objects, f.key(bucket, key))
	return nil
}

func (f *fakeStore) Copy(_ context.Context, srcBucket, srcKey, dstBucket, dstKey string) (*s3store.ObjectInfo, error) {
	body, ok := f.objects[f.key(srcBucket, srcKey)]
	if !ok {
		return nil, fmt.Errorf("no such key %s/%s", srcBucket, srcKey)
	}
	f.objects[f.key(dstBucket, dstKey)] = body
	return &s3store.ObjectInfo{Etag: "etag-" + dstKey}, nil
}

func (f *fakeStore) PresignGet(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return fmt.Sprintf("https://s3.local/%s/%s?signed", bucket, key), nil
}

func (f *fakeStore) has(bucket, key string) bool {
	_, ok := f.objects[f.key(bucket, key)]
	return ok
}

func s3Link(path string) *records.ArtifactLink {
	return &records.ArtifactLink{Path: path, Etag: "e1", Type: records.LinkTypeS3}
}

func TestSoftDeleteAndUndelete(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.objects["ims/recipes/abc"] = []byte("recipe")
	m := NewManager(store, store)

	moved, err := m.SoftDelete(ctx, s3Link("s3://ims/recipes/abc"))
	require.NoError(t, err)
	assert.Equal(t, "s3://ims/deleted/recipes/abc", moved.Path)
	assert.Equal(t, records.LinkTypeS3, moved.Type)
	assert.False(t, store.has("ims", "recipes/abc"))
	assert.True(t, store.has("ims", "deleted/recipes/abc"))

	restored, err := m.SoftUndelete(ctx, moved)
	require.NoError(t, err)
	assert.Equal(t, "s3://ims/recipes/abc", restored.Path)
	assert.True(t, store.has("ims", "recipes/abc"))
	assert.False(t, store.has("ims", "deleted/recipes/abc"))
}

func TestSoftDeleteMissingObject(t *testing.T) {
	m := NewManager(newFakeStore(), newFakeStore())
	_, err := m.SoftDelete(context.Background(), s3Link("s3://ims/recipes/abc"))
	assert.Equal(t, imserrors.ArtifactNotFound, imserrors.GetErrorCode(err))
}

func TestSoftUndeleteRequiresDeletedPrefix(t *testing.T) {
	m := NewManager(newFakeStore(), newFakeStore())
	_, err := m.SoftUndelete(context.Background(), s3Link("s3://ims/recipes/abc"))
	assert.Equal(t, imserrors.BadRequest, imserrors.GetErrorCode(err))
}

func TestHardDelete(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.objects["ims/recipes/abc"] = []byte("recipe")
	m := NewManager(store, store)

	require.NoError(t, m.HardDelete(ctx, s3Link("s3://ims/recipes/abc")))
	assert.False(t, store.has("ims", "recipes/abc"))
}

func imageFixture(store *fakeStore) *records.ArtifactLink {
	store.objects["boot-images/1/manifest.json"] = []byte(`{
		"version": "1.0",
		"artifacts": [
			{"type": "application/vnd.cray.image.rootfs.squashfs", "md5": "aa",
			 "link": {"path": "s3://boot-images/1/rootfs", "etag": "e1", "type": "s3"}},
			{"type": "application/vnd.cray.image.kernel", "md5": "bb",
			 "link": {"path": "s3://boot-images/1/kernel", "etag": "e2", "type": "s3"}}
		]
	}`)
	store.objects["boot-images/1/rootfs"] = []byte("rootfs")
	store.objects["boot-images/1/kernel"] = []byte("kernel")
	return s3Link("s3://boot-images/1/manifest.json")
}

func TestSoftDeleteImageCascade(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	link := imageFixture(store)
	m := NewManager(store, store)

	deletedLink, err := m.SoftDeleteImage(ctx, "1", link)
	require.NoError(t, err)
	assert.Equal(t, "s3://boot-images/deleted/1/deleted_manifest.json", deletedLink.Path)

	// Every live object moved under the deleted prefix.
	assert.False(t, store.has("boot-images", "1/manifest.json"))
	assert.False(t, store.has("boot-images", "1/rootfs"))
	assert.False(t, store.has("boot-images", "1/kernel"))
	assert.True(t, store.has("boot-images", "deleted/1/manifest.json"))
	assert.True(t, store.has("boot-images", "deleted/1/rootfs"))
	assert.True(t, store.has("boot-images", "deleted/1/kernel"))
	assert.True(t, store.has("boot-images", "deleted/1/deleted_manifest.json"))
}

func TestSoftUndeleteImageRestoresOriginalLink(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	link := imageFixture(store)
	m := NewManager(store, store)

	deletedLink, err := m.SoftDeleteImage(ctx, "1", link)
	require.NoError(t, err)

	original, err := m.SoftUndeleteImage(ctx, "1", deletedLink)
	require.NoError(t, err)
	assert.Equal(t, "s3://boot-images/1/manifest.json", original.Path)

	assert.True(t, store.has("boot-images", "1/manifest.json"))
	assert.True(t, store.has("boot-images", "1/rootfs"))
	assert.True(t, store.has("boot-images", "1/kernel"))
	assert.False(t, store.has("boot-images", "deleted/1/deleted_manifest.json"))
}

func TestSoftUndeleteImageToleratesMissingArtifact(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	link := imageFixture(store)
	m := NewManager(store, store)

	deletedLink, err := m.SoftDeleteImage(ctx, "1", link)
	require.NoError(t, err)

	// An operator removed one archived artifact by hand; the image still
	// comes back with what is left.
	delete(store.objects, "boot-images/deleted/1/kernel")

	original, err := m.SoftUndeleteImage(ctx, "1", deletedLink)
	require.NoError(t, err)
	assert.Equal(t, "s3://boot-images/1/manifest.json", original.Path)
	assert.True(t, store.has("boot-images", "1/rootfs"))
	assert.False(t, store.has("boot-images", "1/kernel"))
}

func TestHardDeleteImage(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	link := imageFixture(store)
	m := NewManager(store, store)

	deletedLink, err := m.SoftDeleteImage(ctx, "1", link)
	require.NoError(t, err)

	require.NoError(t, m.HardDeleteImage(ctx, deletedLink))
	assert.Empty(t, store.objects)
}
