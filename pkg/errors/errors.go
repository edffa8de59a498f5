/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package errors

import (
	"fmt"
	"net/http"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const ImsPrefix = "IMS."

/*
   5-digit Error Code Convention: [xx][yyy]
   [xx] Business ID (00-99), used to distinguish errors from different interfaces.
   00: General errors
   01: Artifact/manifest errors
   02: Job errors
   [yyy] Error code range (000-999)
*/

// public: 00xxx
const (
	InternalError     = ImsPrefix + "00001"
	BadRequest        = ImsPrefix + "00002"
	MissingInput      = ImsPrefix + "00003"
	NotFound          = ImsPrefix + "00004"
	PatchConflict     = ImsPrefix + "00005"
	ValidationFailure = ImsPrefix + "00006"
)

// artifact/manifest: 01xxx
const (
	ArtifactNotFound = ImsPrefix + "01001"
	ManifestInvalid  = ImsPrefix + "01002"
)

// job: 02xxx
const (
	JobNotFound = ImsPrefix + "02001"
)

// IsIms returns true if the specified error carries an IMS error reason.
func IsIms(err error) bool {
	if err == nil {
		return false
	}
	return strings.HasPrefix(string(apierrors.ReasonForError(err)), ImsPrefix)
}

func IsBadRequest(err error) bool {
	reason := apierrors.ReasonForError(err)
	return reason == BadRequest || reason == MissingInput || reason == ManifestInvalid
}

func IsInternal(err error) bool {
	return apierrors.ReasonForError(err) == InternalError
}

func IsNotFound(err error) bool {
	reason := apierrors.ReasonForError(err)
	if reason == NotFound || reason == ArtifactNotFound || reason == JobNotFound {
		return true
	}
	return apierrors.IsNotFound(err)
}

func IsPatchConflict(err error) bool {
	return apierrors.ReasonForError(err) == PatchConflict
}

func IsValidationFailure(err error) bool {
	return apierrors.ReasonForError(err) == ValidationFailure
}

func IgnoreNotFound(err error) error {
	if err == nil || IsNotFound(err) {
		return nil
	}
	return err
}

func GetErrorCode(err error) string {
	if err == nil || !IsIms(err) {
		return ""
	}
	return string(apierrors.ReasonForError(err))
}

func NewMissingInput(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusBadRequest,
		Reason:  MissingInput,
		Message: fmt.Sprintf("Missing input. %s", message),
	}}
}

func NewBadRequest(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusBadRequest,
		Reason:  BadRequest,
		Message: fmt.Sprintf("Bad request. %s", message),
	}}
}

func NewManifestInvalid(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusBadRequest,
		Reason:  ManifestInvalid,
		Message: fmt.Sprintf("Invalid image manifest. %s", message),
	}}
}

func NewNotFound(kind, id string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status: metav1.StatusFailure,
		Code:   http.StatusNotFound,
		Reason: NotFound,
		Details: &metav1.StatusDetails{
			Kind: kind,
			Name: id,
		},
		Message: fmt.Sprintf("%s %s not found.", kind, id),
	}}
}

func NewNotFoundWithMessage(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusNotFound,
		Reason:  NotFound,
		Message: message,
	}}
}

func NewArtifactNotFound(path string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusUnprocessableEntity,
		Reason:  ArtifactNotFound,
		Message: fmt.Sprintf("artifact %s does not exist in the object store", path),
	}}
}

func NewPatchConflict(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusConflict,
		Reason:  PatchConflict,
		Message: message,
	}}
}

func NewValidationFailure(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusUnprocessableEntity,
		Reason:  ValidationFailure,
		Message: fmt.Sprintf("Validation failure. %s", message),
	}}
}

func NewInternalError(message string) *apierrors.StatusError {
	return &apierrors.StatusError{ErrStatus: metav1.Status{
		Status:  metav1.StatusFailure,
		Code:    http.StatusInternalServerError,
		Reason:  InternalError,
		Message: fmt.Sprintf("Internal error. %s", message),
	}}
}
