/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Cray-HPE/ims/pkg/apiutils"
	imserrors "github.com/Cray-HPE/ims/pkg/errors"
	"github.com/Cray-HPE/ims/pkg/handlers/types"
	"github.com/Cray-HPE/ims/pkg/records"
)

func (h *Handler) CreatePublicKey(c *gin.Context) {
	handle(c, h.createPublicKey)
}

func (h *Handler) ListPublicKeys(c *gin.Context) {
	handle(c, h.listPublicKeys)
}

func (h *Handler) GetPublicKey(c *gin.Context) {
	handle(c, h.getPublicKey)
}

func (h *Handler) DeletePublicKey(c *gin.Context) {
	handle(c, h.deletePublicKey)
}

func (h *Handler) DeleteAllPublicKeys(c *gin.Context) {
	handle(c, h.deleteAllPublicKeys)
}

func (h *Handler) createPublicKey(c *gin.Context) (interface{}, error) {
	req := &types.CreatePublicKeyRequest{}
	if err := apiutils.ParseRequestBody(c.Request, req); err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, imserrors.NewValidationFailure("name is required")
	}
	if req.PublicKey == "" {
		return nil, imserrors.NewValidationFailure("public_key is required")
	}
	key := &records.PublicKey{
		Id:        uuid.NewString(),
		Name:      req.Name,
		PublicKey: req.PublicKey,
		Created:   time.Now().UTC(),
	}
	if err := h.ds.PublicKeys.Live.Put(key); err != nil {
		return nil, imserrors.NewInternalError(err.Error())
	}
	c.Status(http.StatusCreated)
	return key, nil
}

func (h *Handler) listPublicKeys(_ *gin.Context) (interface{}, error) {
	return h.ds.PublicKeys.Live.Iter(), nil
}

func (h *Handler) getPublicKey(c *gin.Context) (interface{}, error) {
	key, ok := h.ds.PublicKeys.Live.Get(c.Param("id"))
	if !ok {
		return nil, imserrors.NewNotFound("public key", c.Param("id"))
	}
	return key, nil
}

func (h *Handler) deletePublicKey(c *gin.Context) (interface{}, error) {
	key, ok := h.ds.PublicKeys.Live.Get(c.Param("id"))
	if !ok {
		return nil, imserrors.NewNotFound("public key", c.Param("id"))
	}
	if err := h.softDeletePublicKey(key); err != nil {
		return nil, err
	}
	c.Status(http.StatusNoContent)
	return nil, nil
}

func (h *Handler) deleteAllPublicKeys(c *gin.Context) (interface{}, error) {
	for _, key := range h.ds.PublicKeys.Live.Iter() {
		if err := h.softDeletePublicKey(key); err != nil {
			return nil, err
		}
	}
	c.Status(http.StatusNoContent)
	return nil, nil
}

func (h *Handler) softDeletePublicKey(key *records.PublicKey) error {
	now := time.Now().UTC()
	key.Deleted = &now
	if err := h.ds.PublicKeys.MoveToDeleted(key); err != nil {
		return imserrors.NewInternalError(err.Error())
	}
	return nil
}
