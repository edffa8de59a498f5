/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      *apierrors.StatusError
		wantCode int
		wantIms  string
	}{
		{name: "missing input", err: NewMissingInput("name"), wantCode: http.StatusBadRequest, wantIms: MissingInput},
		{name: "bad request", err: NewBadRequest("oops"), wantCode: http.StatusBadRequest, wantIms: BadRequest},
		{name: "manifest invalid", err: NewManifestInvalid("no rootfs"), wantCode: http.StatusBadRequest, wantIms: ManifestInvalid},
		{name: "not found", err: NewNotFound("image", "abc"), wantCode: http.StatusNotFound, wantIms: NotFound},
		{name: "artifact not found", err: NewArtifactNotFound("s3://b/k"), wantCode: http.StatusUnprocessableEntity, wantIms: ArtifactNotFound},
		{name: "patch conflict", err: NewPatchConflict("link is set"), wantCode: http.StatusConflict, wantIms: PatchConflict},
		{name: "validation failure", err: NewValidationFailure("bad arch"), wantCode: http.StatusUnprocessableEntity, wantIms: ValidationFailure},
		{name: "internal", err: NewInternalError("boom"), wantCode: http.StatusInternalServerError, wantIms: InternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, int32(tt.wantCode), tt.err.Status().Code)
			assert.Equal(t, tt.wantIms, GetErrorCode(tt.err))
			assert.True(t, IsIms(tt.err))
		})
	}
}

func TestKindPredicates(t *testing.T) {
	assert.True(t, IsBadRequest(NewBadRequest("x")))
	assert.True(t, IsBadRequest(NewMissingInput("x")))
	assert.True(t, IsBadRequest(NewManifestInvalid("x")))
	assert.False(t, IsBadRequest(NewNotFound("image", "a")))

	assert.True(t, IsNotFound(NewNotFound("image", "a")))
	assert.True(t, IsNotFound(NewArtifactNotFound("s3://b/k")))
	assert.False(t, IsNotFound(NewBadRequest("x")))

	assert.True(t, IsPatchConflict(NewPatchConflict("x")))
	assert.True(t, IsValidationFailure(NewValidationFailure("x")))
	assert.True(t, IsInternal(NewInternalError("x")))

	assert.False(t, IsIms(fmt.Errorf("plain error")))
	assert.Empty(t, GetErrorCode(fmt.Errorf("plain error")))
	assert.Empty(t, GetErrorCode(nil))
}

func TestIgnoreNotFound(t *testing.T) {
	assert.NoError(t, IgnoreNotFound(nil))
	assert.NoError(t, IgnoreNotFound(NewNotFound("image", "a")))
	assert.Error(t, IgnoreNotFound(NewBadRequest("x")))
}
