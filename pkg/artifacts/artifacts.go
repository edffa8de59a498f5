/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"k8s.io/klog/v2"

	imserrors "github.com/Cray-HPE/ims/pkg/errors"
	"github.com/Cray-HPE/ims/pkg/manifest"
	"github.com/Cray-HPE/ims/pkg/records"
	"github.com/Cray-HPE/ims/pkg/s3store"
)

const (
	// DeletedPrefix rekeys soft-deleted objects inside their bucket.
	DeletedPrefix = "deleted/"

	deletedManifestName = "deleted_manifest.json"
)

// Manager moves artifact objects between the live and deleted key spaces.
// Server-side copies run through the STS credential context because
// multi-part uploads can only be copied by the principal that created them.
type Manager struct {
	store s3store.Interface
	sts   s3store.Interface
}

func NewManager(store, sts s3store.Interface) *Manager {
	return &Manager{store: store, sts: sts}
}

// SoftDelete rekeys the object behind link under the deleted prefix by
// copy-then-delete and returns the rewritten link.
func (m *Manager) SoftDelete(ctx context.Context, link *records.ArtifactLink) (*records.ArtifactLink, error) {
	loc, err := s3store.ParseURL(link.Path)
	if err != nil {
		return nil, imserrors.NewBadRequest(err.Error())
	}
	if _, err = m.store.Head(ctx, loc.Bucket, loc.Key); err != nil {
		return nil, imserrors.NewArtifactNotFound(link.Path)
	}
	return m.move(ctx, link, loc, DeletedPrefix+loc.Key)
}

// SoftUndelete reverses SoftDelete. The link's key must carry the deleted
// prefix.
func (m *Manager) SoftUndelete(ctx context.Context, link *records.ArtifactLink) (*records.ArtifactLink, error) {
	loc, err := s3store.ParseURL(link.Path)
	if err != nil {
		return nil, imserrors.NewBadRequest(err.Error())
	}
	if !strings.HasPrefix(loc.Key, DeletedPrefix) {
		return nil, imserrors.NewBadRequest(fmt.Sprintf(
			"key %q is not under the %s prefix", loc.Key, DeletedPrefix))
	}
	return m.move(ctx, link, loc, strings.TrimPrefix(loc.Key, DeletedPrefix))
}

// HardDelete removes the object behind link permanently.
func (m *Manager) HardDelete(ctx context.Context, link *records.ArtifactLink) error {
	loc, err := s3store.ParseURL(link.Path)
	if err != nil {
		return imserrors.NewBadRequest(err.Error())
	}
	return m.store.Delete(ctx, loc.Bucket, loc.Key)
}

func (m *Manager) move(ctx context.Context, link *records.ArtifactLink, loc *s3store.Location, dstKey string) (*records.ArtifactLink, error) {
	info, err := m.sts.Copy(ctx, loc.Bucket, loc.Key, loc.Bucket, dstKey)
	if err != nil {
		return nil, imserrors.NewInternalError(fmt.Sprintf("copy %s to %s: %v", link.Path, dstKey, err))
	}
	if err = m.store.Delete(ctx, loc.Bucket, loc.Key); err != nil {
		return nil, imserrors.NewInternalError(fmt.Sprintf("delete %s after copy: %v", link.Path, err))
	}
	return &records.ArtifactLink{
		Path: s3store.Location{Bucket: loc.Bucket, Key: dstKey}.URL(),
		Etag: info.Etag,
		Type: link.Type,
	}, nil
}

// SoftDeleteImage soft-deletes every artifact of the image manifest, then the
// manifest itself, and writes a recovery manifest the returned link points to.
func (m *Manager) SoftDeleteImage(ctx context.Context, imageID string, link *records.ArtifactLink) (*records.ArtifactLink, error) {
	loc, err := s3store.ParseURL(link.Path)
	if err != nil {
		return nil, imserrors.NewBadRequest(err.Error())
	}
	body, err := m.store.Get(ctx, loc.Bucket, loc.Key)
	if err != nil {
		return nil, imserrors.NewArtifactNotFound(link.Path)
	}
	parsed, err := manifest.Parse(body)
	if err != nil {
		return nil, err
	}

	recovered := make([]manifest.Artifact, 0, len(parsed.Artifacts)+1)
	for _, artifact := range parsed.Artifacts {
		if artifact.Link == nil {
			continue
		}
		moved, err := m.SoftDelete(ctx, artifact.Link)
		if err != nil {
			return nil, err
		}
		recovered = append(recovered, manifest.Artifact{
			Type: artifact.Type,
			Md5:  artifact.Md5,
			Link: moved,
		})
	}

	movedManifest, err := m.SoftDelete(ctx, link)
	if err != nil {
		return nil, err
	}
	recovered = append(recovered, manifest.Artifact{
		Type: manifest.ManifestMimeType,
		Link: movedManifest,
	})

	deleted := &manifest.Manifest{
		Version:   manifest.Version10,
		Created:   time.Now().UTC().Format(time.RFC3339),
		Artifacts: recovered,
	}
	deletedBody, err := json.Marshal(deleted)
	if err != nil {
		return nil, imserrors.NewInternalError(err.Error())
	}
	deletedLoc := s3store.Location{
		Bucket: loc.Bucket,
		Key:    fmt.Sprintf("%s%s/%s", DeletedPrefix, imageID, deletedManifestName),
	}
	info, err := m.store.Put(ctx, deletedLoc.Bucket, deletedLoc.Key, deletedBody)
	if err != nil {
		return nil, imserrors.NewInternalError(fmt.Sprintf("write %s: %v", deletedLoc.URL(), err))
	}
	return &records.ArtifactLink{Path: deletedLoc.URL(), Etag: info.Etag, Type: link.Type}, nil
}

// SoftUndeleteImage restores every artifact listed in the recovery manifest
// and returns the original manifest link. Individual restore failures are
// logged and skipped so a partly damaged image still comes back.
func (m *Manager) SoftUndeleteImage(ctx context.Context, imageID string, link *records.ArtifactLink) (*records.ArtifactLink, error) {
	loc, err := s3store.ParseURL(link.Path)
	if err != nil {
		return nil, imserrors.NewBadRequest(err.Error())
	}
	body, err := m.store.Get(ctx, loc.Bucket, loc.Key)
	if err != nil {
		return nil, imserrors.NewArtifactNotFound(link.Path)
	}
	deleted, err := manifest.Parse(body)
	if err != nil {
		return nil, err
	}

	var original *records.ArtifactLink
	for _, artifact := range deleted.Artifacts {
		if artifact.Link == nil {
			continue
		}
		restored, err := m.SoftUndelete(ctx, artifact.Link)
		if err != nil {
			klog.ErrorS(err, "failed to restore artifact",
				"image", imageID, "path", artifact.Link.Path)
			continue
		}
		if artifact.Type == manifest.ManifestMimeType {
			original = restored
		}
	}
	if err = m.store.Delete(ctx, loc.Bucket, loc.Key); err != nil {
		klog.ErrorS(err, "failed to remove recovery manifest", "path", link.Path)
	}
	if original == nil {
		return nil, imserrors.NewInternalError(fmt.Sprintf(
			"recovery manifest %s does not name the original manifest", link.Path))
	}
	return original, nil
}

// HardDeleteImage permanently removes the recovery manifest and every
// artifact it lists.
func (m *Manager) HardDeleteImage(ctx context.Context, link *records.ArtifactLink) error {
	loc, err := s3store.ParseURL(link.Path)
	if err != nil {
		return imserrors.NewBadRequest(err.Error())
	}
	body, err := m.store.Get(ctx, loc.Bucket, loc.Key)
	if err != nil {
		return imserrors.NewArtifactNotFound(link.Path)
	}
	deleted, err := manifest.Parse(body)
	if err != nil {
		return err
	}
	for _, artifact := range deleted.Artifacts {
		if artifact.Link == nil {
			continue
		}
		if err := m.HardDelete(ctx, artifact.Link); err != nil {
			klog.ErrorS(err, "failed to remove artifact", "path", artifact.Link.Path)
		}
	}
	return m.store.Delete(ctx, loc.Bucket, loc.Key)
}
