/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package manifest

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

func validManifestBody() []byte {
	return []byte(`{
		"version": "1.0",
		"created": "2026-01-02 03:04:05",
		"artifacts": [
			{"type": "application/vnd.cray.image.rootfs.squashfs", "md5": "aa",
			 "link": {"path": "s3://boot-images/1/rootfs", "etag": "e1", "type": "s3"}},
			{"type": "application/vnd.cray.image.kernel", "md5": "bb",
			 "link": {"path": "s3://boot-images/1/kernel", "etag": "e2", "type": "s3"}}
		]
	}`)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		body    []byte
		wantErr string
	}{
		{
			name: "valid manifest",
			body: validManifestBody(),
		},
		{
			name:    "not utf8",
			body:    []byte{0xff, 0xfe, 0xfd},
			wantErr: imserrors.ManifestInvalid,
		},
		{
			name:    "not json",
			body:    []byte("version: 1.0"),
			wantErr: imserrors.ManifestInvalid,
		},
		{
			name:    "unknown version",
			body:    []byte(`{"version": "2.0", "artifacts": []}`),
			wantErr: imserrors.ManifestInvalid,
		},
		{
			name: "artifact without type",
			body: []byte(`{"version": "1.0", "artifacts": [
				{"link": {"path": "s3://b/k", "type": "s3"}}]}`),
			wantErr: imserrors.ManifestInvalid,
		},
		{
			name: "artifact without link",
			body: []byte(`{"version": "1.0", "artifacts": [
				{"type": "application/vnd.cray.image.kernel"}]}`),
			wantErr: imserrors.ManifestInvalid,
		},
		{
			name: "artifact with non-s3 link",
			body: []byte(`{"version": "1.0", "artifacts": [
				{"type": "application/vnd.cray.image.kernel",
				 "link": {"path": "http://b/k", "type": "http"}}]}`),
			wantErr: imserrors.ManifestInvalid,
		},
		{
			name: "artifact with empty path",
			body: []byte(`{"version": "1.0", "artifacts": [
				{"type": "application/vnd.cray.image.kernel",
				 "link": {"path": "", "type": "s3"}}]}`),
			wantErr: imserrors.ManifestInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(tt.body)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, imserrors.GetErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Version10, m.Version)
			assert.Len(t, m.Artifacts, 2)
		})
	}
}

func TestFindRootfs(t *testing.T) {
	rootfs := Artifact{
		Type: RootfsMimePrefix,
		Link: &records.ArtifactLink{Path: "s3://b/rootfs", Type: records.LinkTypeS3},
	}
	kernel := Artifact{
		Type: "application/vnd.cray.image.kernel",
		Link: &records.ArtifactLink{Path: "s3://b/kernel", Type: records.LinkTypeS3},
	}

	tests := []struct {
		name      string
		artifacts []Artifact
		wantPath  string
		wantErr   bool
	}{
		{
			name:      "single rootfs",
			artifacts: []Artifact{kernel, rootfs},
			wantPath:  "s3://b/rootfs",
		},
		{
			name: "type suffix still matches",
			artifacts: []Artifact{{
				Type: RootfsMimePrefix + "+gzip",
				Link: &records.ArtifactLink{Path: "s3://b/rootfs.gz", Type: records.LinkTypeS3},
			}},
			wantPath: "s3://b/rootfs.gz",
		},
		{
			name:      "no rootfs",
			artifacts: []Artifact{kernel},
			wantErr:   true,
		},
		{
			name:      "multiple rootfs",
			artifacts: []Artifact{rootfs, rootfs},
			wantErr:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindRootfs(&Manifest{Version: Version10, Artifacts: tt.artifacts})
			if tt.wantErr {
				assert.Equal(t, imserrors.ManifestInvalid, imserrors.GetErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, got.Link.Path)
		})
	}
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	link := &records.ArtifactLink{Path: "s3://boot-images/1/manifest.json", Type: records.LinkTypeS3}

	t.Run("valid manifest with resolvable artifacts", func(t *testing.T) {
		store := newFakeStore()
		store.objects["boot-images/1/manifest.json"] = validManifestBody()
		store.objects["boot-images/1/rootfs"] = []byte("rootfs")
		store.objects["boot-images/1/kernel"] = []byte("kernel")

		m, err := NewValidator(store).Validate(ctx, link)
		require.NoError(t, err)
		assert.Len(t, m.Artifacts, 2)
	})

	t.Run("manifest object missing", func(t *testing.T) {
		store := newFakeStore()
		_, err := NewValidator(store).Validate(ctx, link)
		assert.Equal(t, imserrors.ArtifactNotFound, imserrors.GetErrorCode(err))
	})

	t.Run("listed artifact missing", func(t *testing.T) {
		store := newFakeStore()
		store.objects["boot-images/1/manifest.json"] = validManifestBody()
		store.objects["boot-images/1/rootfs"] = []byte("rootfs")

		_, err := NewValidator(store).Validate(ctx, link)
		assert.Equal(t, imserrors.ArtifactNotFound, imserrors.GetErrorCode(err))
	})

	t.Run("malformed link path", func(t *testing.T) {
		store := newFakeStore()
		bad := &records.ArtifactLink{Path: "http://boot-images/1/manifest.json", Type: records.LinkTypeS3}
		_, err := NewValidator(store).Validate(ctx, bad)
		assert.Equal(t, imserrors.BadRequest, imserrors.GetErrorCode(err))
	})

	t.Run("no rootfs artifact", func(t *testing.T) {
		store := newFakeStore()
		store.objects["boot-images/1/manifest.json"] = []byte(`{
			"version": "1.0",
			"artifacts": [{"type": "application/vnd.cray.image.kernel",
				"link": {"path": "s3://boot-images/1/kernel", "type": "s3"}}]
		}`)
		store.objects["boot-images/1/kernel"] = []byte("kernel")

		_, err := NewValidator(store).Validate(ctx, link)
		assert.Equal(t, imserrors.ManifestInvalid, imserrors.GetErrorCode(err))
	})
}
