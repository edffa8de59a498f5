/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package apiutils

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	imserrors "github.com/Cray-HPE/ims/pkg/errors"
)

const ProblemContentType = "application/problem+json"

// Problem is an RFC 7807 error response body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func (p *Problem) Error() string {
	return p.Detail
}

// AbortWithProblem terminates the request with a problem+json rendering of
// the error. Errors that do not carry an IMS reason are mapped to the closest
// kind before rendering.
func AbortWithProblem(c *gin.Context, err error) {
	attachErrors(c, err)
	problem := cvtToProblem(err)
	problem.Instance = c.Request.URL.Path
	data, marshalErr := json.Marshal(problem)
	if marshalErr != nil {
		c.AbortWithStatus(500)
		return
	}
	c.Data(problem.Status, ProblemContentType, data)
	c.Abort()
}

func cvtToProblem(err error) Problem {
	var problem *Problem
	if errors.As(err, &problem) {
		return *problem
	}
	var statusErr *apierrors.StatusError
	if !errors.As(err, &statusErr) {
		switch {
		case apierrors.IsNotFound(err):
			statusErr = imserrors.NewNotFoundWithMessage(err.Error())
		case apierrors.IsBadRequest(err), apierrors.IsInvalid(err):
			statusErr = imserrors.NewBadRequest(err.Error())
		default:
			statusErr = imserrors.NewInternalError(err.Error())
		}
	}
	return Problem{
		Type:   "about:blank",
		Title:  string(statusErr.Status().Reason),
		Status: int(statusErr.Status().Code),
		Detail: statusErr.Error(),
	}
}

// attachErrors associates the error with the request so the logging
// middleware records it.
func attachErrors(c *gin.Context, err error) {
	var errs []error
	if aggregate, ok := err.(utilerrors.Aggregate); ok {
		errs = aggregate.Errors()
	} else {
		errs = []error{err}
	}
	for _, val := range errs {
		if val != nil {
			_ = c.Error(val)
		}
	}
}
