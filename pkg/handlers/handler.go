/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Cray-HPE/ims/pkg/apiutils"
	"github.com/Cray-HPE/ims/pkg/artifacts"
	"github.com/Cray-HPE/ims/pkg/jobs"
	"github.com/Cray-HPE/ims/pkg/manifest"
	"github.com/Cray-HPE/ims/pkg/records"
	"github.com/Cray-HPE/ims/pkg/remotenode"
	"github.com/Cray-HPE/ims/pkg/s3store"
)

var jsonContentType = "application/json; charset=utf-8"

// Handler serves the record, job and remote-build-node APIs.
type Handler struct {
	ds        *records.Datastore
	store     s3store.Interface
	validator *manifest.Validator
	artifacts *artifacts.Manager
	jobs      *jobs.Controller
	prober    *remotenode.Prober
}

func NewHandler(ds *records.Datastore, store s3store.Interface,
	validator *manifest.Validator, artifactMgr *artifacts.Manager,
	jobController *jobs.Controller, prober *remotenode.Prober) *Handler {
	return &Handler{
		ds:        ds,
		store:     store,
		validator: validator,
		artifacts: artifactMgr,
		jobs:      jobController,
		prober:    prober,
	}
}

type handleFunc func(*gin.Context) (interface{}, error)

func handle(c *gin.Context, fn handleFunc) {
	rsp, err := fn(c)
	if err != nil {
		apiutils.AbortWithProblem(c, err)
		return
	}
	code := http.StatusOK
	// If a status was previously set, use that status in the response.
	if c.Writer.Status() > 0 {
		code = c.Writer.Status()
	}
	if rsp == nil {
		c.Status(code)
		return
	}
	switch rspType := rsp.(type) {
	case []byte:
		c.Data(code, jsonContentType, rspType)
	case string:
		c.Data(code, jsonContentType, []byte(rspType))
	default:
		c.JSON(code, rspType)
	}
}

// cascadeRequested reads the per-request cascade flag, defaulting to true.
func cascadeRequested(c *gin.Context) bool {
	val := c.Query("cascade")
	if val == "" {
		return true
	}
	cascade, err := strconv.ParseBool(val)
	if err != nil {
		return true
	}
	return cascade
}
