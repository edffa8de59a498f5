/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Cray-HPE/ims/pkg/handlers/types"
)

// Version is stamped at build time.
var Version = "dev"

func (h *Handler) GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, types.VersionResponse{Version: Version})
}

func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether the persisted stores are reachable, which is the
// only dependency the service cannot run without.
func (h *Handler) Ready(c *gin.Context) {
	if h.ds == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "datastore unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
