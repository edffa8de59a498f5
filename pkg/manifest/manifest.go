/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"k8s.io/klog/v2"

	commonconfig "github.com/Cray-HPE/ims/pkg/config"
	imserrors "github.com/Cray-HPE/ims/pkg/errors"
	"github.com/Cray-HPE/ims/pkg/records"
	"github.com/Cray-HPE/ims/pkg/s3store"
)

const (
	Version10 = "1.0"

	// RootfsMimePrefix identifies the artifact a bootable image is built
	// around. Exactly one artifact per manifest carries it.
	RootfsMimePrefix = "application/vnd.cray.image.rootfs.squashfs"

	// ManifestMimeType marks a manifest object inside a deleted-manifest
	// artifact list, so undelete can recover the original link.
	ManifestMimeType = "application/vnd.cray.image.manifest"
)

// Artifact is one entry of an image manifest.
type Artifact struct {
	Type string                `json:"type"`
	Md5  string                `json:"md5,omitempty"`
	Link *records.ArtifactLink `json:"link"`
}

// Manifest is the JSON document an Image record's link points to.
type Manifest struct {
	Version   string     `json:"version"`
	Created   string     `json:"created"`
	Artifacts []Artifact `json:"artifacts"`
}

// Validator checks manifest well-formedness and the referential integrity of
// listed artifacts against the object store.
type Validator struct {
	store s3store.Interface
}

func NewValidator(store s3store.Interface) *Validator {
	return &Validator{store: store}
}

// Validate runs the full validation sequence for a candidate image link and
// returns the parsed manifest. Failures map to stable error kinds: missing
// objects are validation failures, malformed manifests are bad requests.
func (v *Validator) Validate(ctx context.Context, link *records.ArtifactLink) (*Manifest, error) {
	loc, err := s3store.ParseURL(link.Path)
	if err != nil {
		return nil, imserrors.NewBadRequest(err.Error())
	}
	info, err := v.store.Head(ctx, loc.Bucket, loc.Key)
	if err != nil {
		klog.ErrorS(err, "manifest object not found", "path", link.Path)
		return nil, imserrors.NewArtifactNotFound(link.Path)
	}
	if max := commonconfig.GetMaxManifestSizeBytes(); info.ContentLength >= max {
		return nil, imserrors.NewManifestInvalid(fmt.Sprintf(
			"manifest %s is %d bytes, limit is %d", link.Path, info.ContentLength, max))
	}

	body, err := v.store.Get(ctx, loc.Bucket, loc.Key)
	if err != nil {
		return nil, imserrors.NewArtifactNotFound(link.Path)
	}
	m, err := Parse(body)
	if err != nil {
		return nil, err
	}
	if err = v.checkArtifacts(ctx, m); err != nil {
		return nil, err
	}
	if _, err = FindRootfs(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Parse decodes and structurally validates a manifest body.
func Parse(body []byte) (*Manifest, error) {
	if !utf8.Valid(body) {
		return nil, imserrors.NewManifestInvalid("manifest body is not valid UTF-8")
	}
	m := &Manifest{}
	if err := json.Unmarshal(body, m); err != nil {
		return nil, imserrors.NewManifestInvalid("manifest body is not valid JSON: " + err.Error())
	}
	if m.Version != Version10 {
		return nil, imserrors.NewManifestInvalid(fmt.Sprintf("unknown manifest version %q", m.Version))
	}
	for i, artifact := range m.Artifacts {
		if artifact.Type == "" {
			return nil, imserrors.NewManifestInvalid(fmt.Sprintf("artifact %d has no type", i))
		}
		if artifact.Link == nil {
			return nil, imserrors.NewManifestInvalid(fmt.Sprintf("artifact %d has no link", i))
		}
		if artifact.Link.Type != records.LinkTypeS3 {
			return nil, imserrors.NewManifestInvalid(fmt.Sprintf(
				"artifact %d has unsupported link type %q", i, artifact.Link.Type))
		}
		if artifact.Link.Path == "" {
			return nil, imserrors.NewManifestInvalid(fmt.Sprintf("artifact %d has an empty link path", i))
		}
	}
	return m, nil
}

// checkArtifacts verifies every listed artifact resolves in the object store.
func (v *Validator) checkArtifacts(ctx context.Context, m *Manifest) error {
	for _, artifact := range m.Artifacts {
		loc, err := s3store.ParseURL(artifact.Link.Path)
		if err != nil {
			return imserrors.NewManifestInvalid(err.Error())
		}
		if _, err = v.store.Head(ctx, loc.Bucket, loc.Key); err != nil {
			return imserrors.NewArtifactNotFound(artifact.Link.Path)
		}
	}
	return nil
}

// FindRootfs returns the single rootfs artifact of the manifest.
func FindRootfs(m *Manifest) (*Artifact, error) {
	var found *Artifact
	for i := range m.Artifacts {
		if strings.HasPrefix(m.Artifacts[i].Type, RootfsMimePrefix) {
			if found != nil {
				return nil, imserrors.NewManifestInvalid("manifest lists more than one rootfs artifact")
			}
			found = &m.Artifacts[i]
		}
	}
	if found == nil {
		return nil, imserrors.NewManifestInvalid("manifest lists no rootfs artifact")
	}
	if found.Link == nil {
		return nil, imserrors.NewManifestInvalid("rootfs artifact has no link")
	}
	return found, nil
}
