/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package apiutils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	imserrors "github.com/Cray-HPE/ims/pkg/errors"
)

const DefaultMaxRequestBodyBytes = int64(2 * 1024 * 1024)

// ReadBody reads the request body with a size limit to bound memory use.
func ReadBody(req *http.Request) ([]byte, error) {
	defer req.Body.Close()
	lr := &io.LimitedReader{
		R: req.Body,
		N: DefaultMaxRequestBodyBytes + 1,
	}
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, imserrors.NewInternalError(err.Error())
	}
	if lr.N <= 0 {
		return nil, imserrors.NewBadRequest(
			fmt.Sprintf("the max request body length is %d bytes", DefaultMaxRequestBodyBytes))
	}
	return data, nil
}

// ParseRequestBody reads and unmarshals the request body. An empty body is a
// missing-input error; malformed JSON is a bad request.
func ParseRequestBody(req *http.Request, bodyStruct interface{}) error {
	body, err := ReadBody(req)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return imserrors.NewMissingInput("request body is empty")
	}
	if err = json.Unmarshal(body, bodyStruct); err != nil {
		return imserrors.NewBadRequest(err.Error())
	}
	return nil
}

// Logger records one structured line per request, including any errors the
// handlers attached to the context.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		keysAndValues := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		}
		if len(c.Errors) > 0 {
			keysAndValues = append(keysAndValues, "errors", c.Errors.String())
		}
		klog.InfoS("http request", keysAndValues...)
	}
}
