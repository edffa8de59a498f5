/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package records

import (
	"time"
)

// Record kinds, used in error details and log fields.
const (
	PublicKeyKind       = "PublicKey"
	RecipeKind          = "Recipe"
	ImageKind           = "Image"
	JobKind             = "Job"
	RemoteBuildNodeKind = "RemoteBuildNode"
)

// Schema-versioned file names. The version prefix ties a file to the record
// schema it was written with, so reads always align with the current schema.
const (
	PublicKeysFile        = "v2.1_public_keys.json"
	DeletedPublicKeysFile = "v3.1_deleted_public_keys.json"
	RecipesFile           = "v2.2_recipes.json"
	DeletedRecipesFile    = "v3.1_deleted_recipes.json"
	ImagesFile            = "v3.1_images.json"
	DeletedImagesFile     = "v3.1_deleted_images.json"
	JobsFile              = "v2.2_jobs.json"
	RemoteBuildNodesFile  = "v3.0_remote_build_nodes.json"
)

const (
	LinkTypeS3 = "s3"

	RecipeTypeKiwiNg = "kiwi-ng"
	RecipeTypePacker = "packer"

	DistroSles12  = "sles12"
	DistroSles15  = "sles15"
	DistroCentos7 = "centos7"

	ArchX8664   = "x86_64"
	ArchAarch64 = "aarch64"

	JobTypeCreate    = "create"
	JobTypeCustomize = "customize"
)

// Job statuses. Error and Success are terminal.
const (
	JobStatusCreating           = "creating"
	JobStatusFetchingImage      = "fetching_image"
	JobStatusFetchingRecipe     = "fetching_recipe"
	JobStatusWaitingForRepos    = "waiting_for_repos"
	JobStatusBuildingImage      = "building_image"
	JobStatusPackagingArtifacts = "packaging_artifacts"
	JobStatusWaitingOnUser      = "waiting_on_user"
	JobStatusError              = "error"
	JobStatusSuccess            = "success"
)

// ArtifactLink points into the object store. Path is an s3:// URL, Etag is
// the object etag without surrounding quotes.
type ArtifactLink struct {
	Path string `json:"path"`
	Etag string `json:"etag"`
	Type string `json:"type"`
}

// Equal reports whether two links reference the same object state.
func (l *ArtifactLink) Equal(other *ArtifactLink) bool {
	if l == nil || other == nil {
		return l == other
	}
	return l.Path == other.Path && l.Etag == other.Etag && l.Type == other.Type
}

type PublicKey struct {
	Id        string     `json:"id"`
	Name      string     `json:"name"`
	PublicKey string     `json:"public_key"`
	Created   time.Time  `json:"created"`
	Deleted   *time.Time `json:"deleted,omitempty"`
}

func (k *PublicKey) RecordId() string { return k.Id }

func (k *PublicKey) Clone() *PublicKey {
	if k == nil {
		return nil
	}
	out := *k
	out.Deleted = cloneTime(k.Deleted)
	return &out
}

type TemplateKeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Recipe struct {
	Id                 string             `json:"id"`
	Name               string             `json:"name"`
	Link               *ArtifactLink      `json:"link"`
	RecipeType         string             `json:"recipe_type"`
	LinuxDistribution  string             `json:"linux_distribution"`
	Arch               string             `json:"arch"`
	RequireDkms        bool               `json:"require_dkms"`
	TemplateDictionary []TemplateKeyValue `json:"template_dictionary"`
	Created            time.Time          `json:"created"`
	Deleted            *time.Time         `json:"deleted,omitempty"`
}

func (r *Recipe) RecordId() string { return r.Id }

func (r *Recipe) Clone() *Recipe {
	if r == nil {
		return nil
	}
	out := *r
	out.Link = cloneLink(r.Link)
	out.TemplateDictionary = append([]TemplateKeyValue(nil), r.TemplateDictionary...)
	out.Deleted = cloneTime(r.Deleted)
	return &out
}

type Image struct {
	Id       string            `json:"id"`
	Name     string            `json:"name"`
	Link     *ArtifactLink     `json:"link"`
	Arch     string            `json:"arch"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Created  time.Time         `json:"created"`
	Deleted  *time.Time        `json:"deleted,omitempty"`
}

func (i *Image) RecordId() string { return i.Id }

func (i *Image) Clone() *Image {
	if i == nil {
		return nil
	}
	out := *i
	out.Link = cloneLink(i.Link)
	out.Metadata = cloneStringMap(i.Metadata)
	out.Deleted = cloneTime(i.Deleted)
	return &out
}

// SshConnectionInfo describes one way to reach a job's ssh container.
type SshConnectionInfo struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type SshContainer struct {
	Name           string                       `json:"name"`
	Jail           bool                         `json:"jail"`
	Status         string                       `json:"status,omitempty"`
	ConnectionInfo map[string]SshConnectionInfo `json:"connection_info,omitempty"`
}

type Job struct {
	Id                       string         `json:"id"`
	JobType                  string         `json:"job_type"`
	ArtifactId               string         `json:"artifact_id"`
	PublicKeyId              string         `json:"public_key_id"`
	EnableDebug              bool           `json:"enable_debug"`
	ImageRootArchiveName     string         `json:"image_root_archive_name"`
	KernelFileName           string         `json:"kernel_file_name"`
	InitrdFileName           string         `json:"initrd_file_name"`
	KernelParametersFileName string         `json:"kernel_parameters_file_name"`
	SshContainers            []SshContainer `json:"ssh_containers"`
	RequireDkms              bool           `json:"require_dkms"`
	Arch                     string         `json:"arch"`
	BuildEnvSizeGiB          int            `json:"build_env_size"`
	JobMemSizeGiB            int            `json:"job_mem_size"`
	Status                   string         `json:"status"`
	ResultantImageId         string         `json:"resultant_image_id,omitempty"`
	KubernetesJob            string         `json:"kubernetes_job,omitempty"`
	KubernetesService        string         `json:"kubernetes_service,omitempty"`
	KubernetesConfigmap      string         `json:"kubernetes_configmap,omitempty"`
	KubernetesPvc            string         `json:"kubernetes_pvc,omitempty"`
	KubernetesSecret         string         `json:"kubernetes_secret,omitempty"`
	KubernetesNamespace      string         `json:"kubernetes_namespace,omitempty"`
	RemoteBuildNode          string         `json:"remote_build_node,omitempty"`
	Created                  time.Time      `json:"created"`
}

func (j *Job) RecordId() string { return j.Id }

func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	if j.SshContainers != nil {
		out.SshContainers = make([]SshContainer, len(j.SshContainers))
		for i, container := range j.SshContainers {
			out.SshContainers[i] = container
			if container.ConnectionInfo != nil {
				info := make(map[string]SshConnectionInfo, len(container.ConnectionInfo))
				for name, conn := range container.ConnectionInfo {
					info[name] = conn
				}
				out.SshContainers[i].ConnectionInfo = info
			}
		}
	}
	return &out
}

// IsTerminal reports whether the job reached a terminal status.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusError || j.Status == JobStatusSuccess
}

type RemoteBuildNode struct {
	Xname string `json:"xname"`
}

func (n *RemoteBuildNode) RecordId() string { return n.Xname }

func (n *RemoteBuildNode) Clone() *RemoteBuildNode {
	if n == nil {
		return nil
	}
	out := *n
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	out := *t
	return &out
}

func cloneLink(l *ArtifactLink) *ArtifactLink {
	if l == nil {
		return nil
	}
	out := *l
	return &out
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ValidRecipeType reports whether the given recipe type is supported.
func ValidRecipeType(t string) bool {
	return t == RecipeTypeKiwiNg || t == RecipeTypePacker
}

// ValidLinuxDistribution reports whether the given distribution is supported.
func ValidLinuxDistribution(d string) bool {
	return d == DistroSles12 || d == DistroSles15 || d == DistroCentos7
}

// ValidArch reports whether the given architecture is supported.
func ValidArch(a string) bool {
	return a == ArchX8664 || a == ArchAarch64
}

// ValidJobStatus reports whether the given status is a known job status.
func ValidJobStatus(s string) bool {
	switch s {
	case JobStatusCreating, JobStatusFetchingImage, JobStatusFetchingRecipe,
		JobStatusWaitingForRepos, JobStatusBuildingImage, JobStatusPackagingArtifacts,
		JobStatusWaitingOnUser, JobStatusError, JobStatusSuccess:
		return true
	}
	return false
}
