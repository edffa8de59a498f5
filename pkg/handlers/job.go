/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Cray-HPE/ims/pkg/apiutils"
	imserrors "github.com/Cray-HPE/ims/pkg/errors"
	"github.com/Cray-HPE/ims/pkg/handlers/types"
	"github.com/Cray-HPE/ims/pkg/jobs"
)

func (h *Handler) CreateJob(c *gin.Context) {
	handle(c, h.createJob)
}

func (h *Handler) ListJobs(c *gin.Context) {
	handle(c, h.listJobs)
}

func (h *Handler) GetJob(c *gin.Context) {
	handle(c, h.getJob)
}

func (h *Handler) PatchJob(c *gin.Context) {
	handle(c, h.patchJob)
}

func (h *Handler) DeleteJob(c *gin.Context) {
	handle(c, h.deleteJob)
}

func (h *Handler) DeleteJobCollection(c *gin.Context) {
	handle(c, h.deleteJobCollection)
}

func (h *Handler) createJob(c *gin.Context) (interface{}, error) {
	req := &types.CreateJobRequest{}
	if err := apiutils.ParseRequestBody(c.Request, req); err != nil {
		return nil, err
	}
	job, err := h.jobs.Create(c.Request.Context(), req)
	if err != nil {
		return nil, err
	}
	c.Status(http.StatusCreated)
	return job, nil
}

func (h *Handler) listJobs(c *gin.Context) (interface{}, error) {
	return h.jobs.List(jobFilter(c))
}

func (h *Handler) getJob(c *gin.Context) (interface{}, error) {
	return h.jobs.Get(c.Param("id"))
}

// patchJob accepts only status and resultant_image_id; any other field in
// the body is rejected.
func (h *Handler) patchJob(c *gin.Context) (interface{}, error) {
	fields := map[string]json.RawMessage{}
	body, err := apiutils.ReadBody(c.Request)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, imserrors.NewMissingInput("request body is empty")
	}
	if err = json.Unmarshal(body, &fields); err != nil {
		return nil, imserrors.NewBadRequest(err.Error())
	}
	for field := range fields {
		if field != "status" && field != "resultant_image_id" {
			return nil, imserrors.NewValidationFailure(
				fmt.Sprintf("field %q is not patchable", field))
		}
	}
	req := &types.PatchJobRequest{}
	if err = json.Unmarshal(body, req); err != nil {
		return nil, imserrors.NewBadRequest(err.Error())
	}
	return h.jobs.Patch(c.Request.Context(), c.Param("id"), req)
}

func (h *Handler) deleteJob(c *gin.Context) (interface{}, error) {
	if err := h.jobs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		return nil, err
	}
	c.Status(http.StatusNoContent)
	return nil, nil
}

func (h *Handler) deleteJobCollection(c *gin.Context) (interface{}, error) {
	if err := h.jobs.DeleteCollection(c.Request.Context(), jobFilter(c)); err != nil {
		return nil, err
	}
	c.Status(http.StatusNoContent)
	return nil, nil
}

func jobFilter(c *gin.Context) *jobs.Filter {
	return &jobs.Filter{
		Status:  c.Query("status"),
		JobType: c.Query("job_type"),
		Age:     c.Query("age"),
	}
}
