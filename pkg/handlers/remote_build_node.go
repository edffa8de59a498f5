/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Cray-HPE/ims/pkg/apiutils"
	imserrors "github.com/Cray-HPE/ims/pkg/errors"
	"github.com/Cray-HPE/ims/pkg/handlers/types"
	"github.com/Cray-HPE/ims/pkg/records"
)

func (h *Handler) CreateRemoteBuildNode(c *gin.Context) {
	handle(c, h.createRemoteBuildNode)
}

func (h *Handler) ListRemoteBuildNodes(c *gin.Context) {
	handle(c, h.listRemoteBuildNodes)
}

func (h *Handler) GetRemoteBuildNodeStatus(c *gin.Context) {
	handle(c, h.getRemoteBuildNodeStatus)
}

func (h *Handler) DeleteRemoteBuildNode(c *gin.Context) {
	handle(c, h.deleteRemoteBuildNode)
}

func (h *Handler) DeleteAllRemoteBuildNodes(c *gin.Context) {
	handle(c, h.deleteAllRemoteBuildNodes)
}

func (h *Handler) createRemoteBuildNode(c *gin.Context) (interface{}, error) {
	req := &types.CreateRemoteBuildNodeRequest{}
	if err := apiutils.ParseRequestBody(c.Request, req); err != nil {
		return nil, err
	}
	if req.Xname == "" {
		return nil, imserrors.NewValidationFailure("xname is required")
	}
	node := &records.RemoteBuildNode{Xname: req.Xname}
	if err := h.ds.RemoteBuildNodes.Put(node); err != nil {
		return nil, imserrors.NewInternalError(err.Error())
	}
	c.Status(http.StatusCreated)
	return node, nil
}

func (h *Handler) listRemoteBuildNodes(_ *gin.Context) (interface{}, error) {
	return h.ds.RemoteBuildNodes.Iter(), nil
}

// getRemoteBuildNodeStatus probes the node on demand; nothing is cached.
func (h *Handler) getRemoteBuildNodeStatus(c *gin.Context) (interface{}, error) {
	xname := c.Param("xname")
	if !h.ds.RemoteBuildNodes.Contains(xname) {
		return nil, imserrors.NewNotFound("remote build node", xname)
	}
	return h.prober.Probe(xname), nil
}

func (h *Handler) deleteRemoteBuildNode(c *gin.Context) (interface{}, error) {
	xname := c.Param("xname")
	if !h.ds.RemoteBuildNodes.Contains(xname) {
		return nil, imserrors.NewNotFound("remote build node", xname)
	}
	if err := h.ds.RemoteBuildNodes.Delete(xname); err != nil {
		return nil, imserrors.NewInternalError(err.Error())
	}
	c.Status(http.StatusNoContent)
	return nil, nil
}

func (h *Handler) deleteAllRemoteBuildNodes(c *gin.Context) (interface{}, error) {
	if err := h.ds.RemoteBuildNodes.Reset(); err != nil {
		return nil, imserrors.NewInternalError(err.Error())
	}
	c.Status(http.StatusNoContent)
	return nil, nil
}
