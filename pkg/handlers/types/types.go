/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package types

import (
	"github.com/Cray-HPE/ims/pkg/records"
)

type CreatePublicKeyRequest struct {
	Name      string `json:"name"`
	PublicKey string `json:"public_key"`
}

type CreateRecipeRequest struct {
	Name               string                     `json:"name"`
	Link               *records.ArtifactLink      `json:"link,omitempty"`
	RecipeType         string                     `json:"recipe_type"`
	LinuxDistribution  string                     `json:"linux_distribution"`
	Arch               string                     `json:"arch"`
	RequireDkms        bool                       `json:"require_dkms"`
	TemplateDictionary []records.TemplateKeyValue `json:"template_dictionary,omitempty"`
}

type PatchRecipeRequest struct {
	Link *records.ArtifactLink `json:"link"`
}

type CreateImageRequest struct {
	Name     string                `json:"name"`
	Link     *records.ArtifactLink `json:"link,omitempty"`
	Arch     string                `json:"arch"`
	Metadata map[string]string     `json:"metadata,omitempty"`
}

const (
	MetadataOperationSet    = "set"
	MetadataOperationRemove = "remove"
)

// MetadataOperation is one change applied to an image's metadata map.
type MetadataOperation struct {
	Operation string `json:"operation"`
	Key       string `json:"key"`
	Value     string `json:"value,omitempty"`
}

type PatchImageRequest struct {
	Link     *records.ArtifactLink `json:"link,omitempty"`
	Arch     string                `json:"arch,omitempty"`
	Metadata []MetadataOperation   `json:"metadata,omitempty"`
}

type CreateJobRequest struct {
	JobType                  string                 `json:"job_type"`
	ArtifactId               string                 `json:"artifact_id"`
	PublicKeyId              string                 `json:"public_key_id,omitempty"`
	EnableDebug              bool                   `json:"enable_debug"`
	ImageRootArchiveName     string                 `json:"image_root_archive_name"`
	KernelFileName           string                 `json:"kernel_file_name,omitempty"`
	InitrdFileName           string                 `json:"initrd_file_name,omitempty"`
	KernelParametersFileName string                 `json:"kernel_parameters_file_name,omitempty"`
	SshContainers            []records.SshContainer `json:"ssh_containers,omitempty"`
	RequireDkms              *bool                  `json:"require_dkms,omitempty"`
	BuildEnvSizeGiB          int                    `json:"build_env_size,omitempty"`
	JobMemSizeGiB            int                    `json:"job_mem_size,omitempty"`
}

type PatchJobRequest struct {
	Status           string `json:"status,omitempty"`
	ResultantImageId string `json:"resultant_image_id,omitempty"`
}

const OperationUndelete = "undelete"

type PatchDeletedRequest struct {
	Operation string `json:"operation"`
}

type CreateRemoteBuildNodeRequest struct {
	Xname string `json:"xname"`
}

type VersionResponse struct {
	Version string `json:"version"`
}
