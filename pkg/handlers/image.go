/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Cray-HPE/ims/pkg/apiutils"
	imserrors "github.com/Cray-HPE/ims/pkg/errors"
	"github.com/Cray-HPE/ims/pkg/handlers/types"
	"github.com/Cray-HPE/ims/pkg/records"
)

func (h *Handler) CreateImage(c *gin.Context) {
	handle(c, h.createImage)
}

func (h *Handler) ListImages(c *gin.Context) {
	handle(c, h.listImages)
}

func (h *Handler) GetImage(c *gin.Context) {
	handle(c, h.getImage)
}

func (h *Handler) PatchImage(c *gin.Context) {
	handle(c, h.patchImage)
}

func (h *Handler) DeleteImage(c *gin.Context) {
	handle(c, h.deleteImage)
}

func (h *Handler) DeleteAllImages(c *gin.Context) {
	handle(c, h.deleteAllImages)
}

func (h *Handler) createImage(c *gin.Context) (interface{}, error) {
	req := &types.CreateImageRequest{}
	if err := apiutils.ParseRequestBody(c.Request, req); err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, imserrors.NewValidationFailure("name is required")
	}
	arch := req.Arch
	if arch == "" {
		arch = records.ArchX8664
	}
	if !records.ValidArch(arch) {
		return nil, imserrors.NewValidationFailure(fmt.Sprintf("unknown arch %q", arch))
	}
	if req.Link != nil {
		if _, err := h.validator.Validate(c.Request.Context(), req.Link); err != nil {
			return nil, err
		}
	}
	image := &records.Image{
		Id:       uuid.NewString(),
		Name:     req.Name,
		Link:     req.Link,
		Arch:     arch,
		Metadata: req.Metadata,
		Created:  time.Now().UTC(),
	}
	if err := h.ds.Images.Live.Put(image); err != nil {
		return nil, imserrors.NewInternalError(err.Error())
	}
	c.Status(http.StatusCreated)
	return image, nil
}

func (h *Handler) listImages(_ *gin.Context) (interface{}, error) {
	return h.ds.Images.Live.Iter(), nil
}

func (h *Handler) getImage(c *gin.Context) (interface{}, error) {
	image, ok := h.ds.Images.Live.Get(c.Param("id"))
	if !ok {
		return nil, imserrors.NewNotFound("image", c.Param("id"))
	}
	return image, nil
}

// patchImage supports a set-once link, an arch replacement, and metadata
// upsert/remove operations.
func (h *Handler) patchImage(c *gin.Context) (interface{}, error) {
	image, ok := h.ds.Images.Live.Get(c.Param("id"))
	if !ok {
		return nil, imserrors.NewNotFound("image", c.Param("id"))
	}
	req := &types.PatchImageRequest{}
	if err := apiutils.ParseRequestBody(c.Request, req); err != nil {
		return nil, err
	}
	if req.Link == nil && req.Arch == "" && len(req.Metadata) == 0 {
		return nil, imserrors.NewValidationFailure("no patchable fields supplied")
	}

	if req.Link != nil {
		if image.Link != nil {
			if !image.Link.Equal(req.Link) {
				return nil, imserrors.NewPatchConflict(
					fmt.Sprintf("image %s link is already set", image.Id))
			}
		} else {
			if _, err := h.validator.Validate(c.Request.Context(), req.Link); err != nil {
				return nil, err
			}
			image.Link = req.Link
		}
	}
	if req.Arch != "" {
		if !records.ValidArch(req.Arch) {
			return nil, imserrors.NewValidationFailure(fmt.Sprintf("unknown arch %q", req.Arch))
		}
		image.Arch = req.Arch
	}
	for _, op := range req.Metadata {
		switch op.Operation {
		case types.MetadataOperationSet:
			if image.Metadata == nil {
				image.Metadata = map[string]string{}
			}
			image.Metadata[op.Key] = op.Value
		case types.MetadataOperationRemove:
			delete(image.Metadata, op.Key)
		default:
			return nil, imserrors.NewValidationFailure(
				fmt.Sprintf("unsupported metadata operation %q", op.Operation))
		}
	}

	if err := h.ds.Images.Live.Put(image); err != nil {
		return nil, imserrors.NewInternalError(err.Error())
	}
	return image, nil
}

func (h *Handler) deleteImage(c *gin.Context) (interface{}, error) {
	image, ok := h.ds.Images.Live.Get(c.Param("id"))
	if !ok {
		return nil, imserrors.NewNotFound("image", c.Param("id"))
	}
	if err := h.softDeleteImage(c, image); err != nil {
		return nil, err
	}
	c.Status(http.StatusNoContent)
	return nil, nil
}

func (h *Handler) deleteAllImages(c *gin.Context) (interface{}, error) {
	for _, image := range h.ds.Images.Live.Iter() {
		if err := h.softDeleteImage(c, image); err != nil {
			return nil, err
		}
	}
	c.Status(http.StatusNoContent)
	return nil, nil
}

// softDeleteImage cascades the image's manifest and artifacts into the
// deleted key space, then moves the record.
func (h *Handler) softDeleteImage(c *gin.Context, image *records.Image) error {
	if cascadeRequested(c) && image.Link != nil {
		moved, err := h.artifacts.SoftDeleteImage(c.Request.Context(), image.Id, image.Link)
		if err != nil {
			return err
		}
		image.Link = moved
	}
	now := time.Now().UTC()
	image.Deleted = &now
	if err := h.ds.Images.MoveToDeleted(image); err != nil {
		return imserrors.NewInternalError(err.Error())
	}
	return nil
}
