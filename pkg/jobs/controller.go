/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/klog/v2"

	commonconfig "github.com/Cray-HPE/ims/pkg/config"
	"github.com/Cray-HPE/ims/pkg/dispatcher"
	imserrors "github.com/Cray-HPE/ims/pkg/errors"
	"github.com/Cray-HPE/ims/pkg/handlers/types"
	"github.com/Cray-HPE/ims/pkg/manifest"
	"github.com/Cray-HPE/ims/pkg/metrics"
	"github.com/Cray-HPE/ims/pkg/records"
	"github.com/Cray-HPE/ims/pkg/remotenode"
	"github.com/Cray-HPE/ims/pkg/s3store"
)

const (
	kernelFileNameX86     = "vmlinuz"
	kernelFileNameAarch64 = "Image"

	debugContainerName     = "debug"
	customizeContainerName = "customize"

	sshContainerStatusPending = "pending"
	sshPort                   = 22
)

// Filter narrows job listing and collection deletes.
type Filter struct {
	Status  string
	JobType string
	Age     string
}

// Controller drives build jobs from request to cluster workload.
type Controller struct {
	ds         *records.Datastore
	store      s3store.Interface
	dispatcher *dispatcher.Dispatcher
	scheduler  *remotenode.Scheduler
}

func NewController(ds *records.Datastore, store s3store.Interface,
	d *dispatcher.Dispatcher, scheduler *remotenode.Scheduler) *Controller {
	return &Controller{ds: ds, store: store, dispatcher: d, scheduler: scheduler}
}

// Create validates the request, resolves the source artifact and public key,
// decides isolation and placement, and materializes the cluster workload.
func (c *Controller) Create(ctx context.Context, req *types.CreateJobRequest) (*records.Job, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	job := &records.Job{
		Id:                       uuid.NewString(),
		JobType:                  req.JobType,
		ArtifactId:               req.ArtifactId,
		PublicKeyId:              req.PublicKeyId,
		EnableDebug:              req.EnableDebug,
		ImageRootArchiveName:     req.ImageRootArchiveName,
		KernelFileName:           req.KernelFileName,
		InitrdFileName:           req.InitrdFileName,
		KernelParametersFileName: req.KernelParametersFileName,
		SshContainers:            req.SshContainers,
		BuildEnvSizeGiB:          req.BuildEnvSizeGiB,
		JobMemSizeGiB:            req.JobMemSizeGiB,
		Status:                   records.JobStatusCreating,
		Created:                  time.Now().UTC(),
	}
	if job.BuildEnvSizeGiB == 0 {
		job.BuildEnvSizeGiB = commonconfig.GetDefaultImageSizeGiB()
	}
	if job.JobMemSizeGiB == 0 {
		job.JobMemSizeGiB = commonconfig.GetDefaultJobMemSizeGiB()
	}
	if job.BuildEnvSizeGiB < 1 || job.JobMemSizeGiB < 1 {
		return nil, imserrors.NewValidationFailure("build_env_size and job_mem_size must be at least 1 GiB")
	}

	source, err := c.resolveSource(ctx, job, req)
	if err != nil {
		return nil, err
	}
	publicKey, err := c.resolvePublicKey(req.PublicKeyId)
	if err != nil {
		return nil, err
	}

	applyDefaults(job)
	if job.RequireDkms && !commonconfig.IsJobDkmsEnabled() {
		klog.InfoS("dkms builds are disabled, downgrading job", "job", job.Id)
		job.RequireDkms = false
	}
	if err = applySshContainerRules(job); err != nil {
		return nil, err
	}

	runtimeClass, privileged := selectIsolation(job)
	if xname := c.scheduler.Pick(job); xname != "" {
		job.RemoteBuildNode = xname
		// The remote node supplies isolation, no sandbox runtime needed.
		runtimeClass = ""
		metrics.RemoteBuildPlacements.WithLabelValues("remote").Inc()
	} else {
		metrics.RemoteBuildPlacements.WithLabelValues("cluster").Inc()
	}

	params, err := composeParams(job, source, publicKey, runtimeClass, privileged)
	if err != nil {
		return nil, err
	}
	created, err := c.dispatcher.CreateJobResources(ctx, job, source.recipeType, params)
	recordResources(job, created)
	if err != nil {
		// Keep the partial record so the resources that did get created
		// can still be cleaned up through a job DELETE.
		if putErr := c.ds.Jobs.Put(job); putErr != nil {
			klog.ErrorS(putErr, "failed to persist partially created job", "job", job.Id)
		}
		return nil, err
	}

	stampSshContainers(job)
	if err = c.ds.Jobs.Put(job); err != nil {
		return nil, imserrors.NewInternalError(err.Error())
	}
	metrics.JobsCreatedTotal.WithLabelValues(job.JobType).Inc()
	return job, nil
}

// Get returns the job record by id.
func (c *Controller) Get(id string) (*records.Job, error) {
	job, ok := c.ds.Jobs.Get(id)
	if !ok {
		return nil, imserrors.NewNotFound("job", id)
	}
	return job, nil
}

// List returns jobs matching the filter in creation order.
func (c *Controller) List(filter *Filter) ([]*records.Job, error) {
	return c.filterJobs(filter)
}

// Patch applies a status or resultant-image update. Transitions into a
// terminal status release the job's network resources while keeping the
// workload for log retrieval. Repeating a terminal patch is a no-op on the
// release step.
func (c *Controller) Patch(ctx context.Context, id string, req *types.PatchJobRequest) (*records.Job, error) {
	job, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	if req.Status != "" {
		if !records.ValidJobStatus(req.Status) {
			return nil, imserrors.NewValidationFailure(fmt.Sprintf("unknown job status %q", req.Status))
		}
		wasTerminal := job.IsTerminal()
		job.Status = req.Status
		if job.IsTerminal() && !wasTerminal {
			if err = c.dispatcher.ReleaseNetwork(ctx, job); err != nil {
				klog.ErrorS(err, "failed to release job network resources", "job", job.Id)
			}
		}
	}
	if req.ResultantImageId != "" {
		job.ResultantImageId = req.ResultantImageId
	}
	if err = c.ds.Jobs.Put(job); err != nil {
		return nil, imserrors.NewInternalError(err.Error())
	}
	return job, nil
}

// Delete removes the job's cluster resources, then the record.
func (c *Controller) Delete(ctx context.Context, id string) error {
	job, err := c.Get(id)
	if err != nil {
		return err
	}
	if err = c.dispatcher.DeleteJobResources(ctx, job); err != nil {
		return imserrors.NewInternalError(err.Error())
	}
	return c.ds.Jobs.Delete(id)
}

// DeleteCollection deletes every job matching the filter. Failures are
// collected; jobs whose resources were removed are purged regardless of
// other jobs' outcomes.
func (c *Controller) DeleteCollection(ctx context.Context, filter *Filter) error {
	matched, err := c.filterJobs(filter)
	if err != nil {
		return err
	}
	var errs []error
	for _, job := range matched {
		if err = c.dispatcher.DeleteJobResources(ctx, job); err != nil {
			errs = append(errs, fmt.Errorf("job %s: %w", job.Id, err))
			continue
		}
		if err = c.ds.Jobs.Delete(job.Id); err != nil {
			errs = append(errs, fmt.Errorf("job %s: %w", job.Id, err))
		}
	}
	return utilerrors.NewAggregate(errs)
}

func (c *Controller) filterJobs(filter *Filter) ([]*records.Job, error) {
	if filter == nil {
		filter = &Filter{}
	}
	if filter.Status != "" && !records.ValidJobStatus(filter.Status) {
		return nil, imserrors.NewBadRequest(fmt.Sprintf("unknown status filter %q", filter.Status))
	}
	if filter.JobType != "" && filter.JobType != records.JobTypeCreate &&
		filter.JobType != records.JobTypeCustomize {
		return nil, imserrors.NewBadRequest(fmt.Sprintf("unknown job_type filter %q", filter.JobType))
	}
	var minAge time.Duration
	if filter.Age != "" {
		var err error
		if minAge, err = ParseAge(filter.Age); err != nil {
			return nil, err
		}
	}

	var matched []*records.Job
	now := time.Now().UTC()
	for _, job := range c.ds.Jobs.Iter() {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if filter.JobType != "" && job.JobType != filter.JobType {
			continue
		}
		if minAge > 0 && now.Sub(job.Created) < minAge {
			continue
		}
		matched = append(matched, job)
	}
	return matched, nil
}

func validateRequest(req *types.CreateJobRequest) error {
	if req.JobType != records.JobTypeCreate && req.JobType != records.JobTypeCustomize {
		return imserrors.NewBadRequest(fmt.Sprintf("unsupported job type %q", req.JobType))
	}
	if req.ArtifactId == "" {
		return imserrors.NewValidationFailure("artifact_id is required")
	}
	if req.ImageRootArchiveName == "" {
		return imserrors.NewValidationFailure("image_root_archive_name is required")
	}
	if req.JobType == records.JobTypeCreate && len(req.SshContainers) > 0 {
		return imserrors.NewBadRequest("ssh_containers may not be supplied for create jobs")
	}
	return nil
}

// sourceArtifact carries what the job templates need to fetch the build
// input.
type sourceArtifact struct {
	downloadURL string
	md5         string
	recipeType  string
	templateEnv []records.TemplateKeyValue
}

// resolveSource loads the recipe or image behind artifact_id, fills the
// job's arch and dkms requirement from it, and presigns the download.
func (c *Controller) resolveSource(ctx context.Context, job *records.Job,
	req *types.CreateJobRequest) (*sourceArtifact, error) {
	if job.JobType == records.JobTypeCreate {
		recipe, ok := c.ds.Recipes.Live.Get(req.ArtifactId)
		if !ok {
			return nil, imserrors.NewNotFound("recipe", req.ArtifactId)
		}
		if recipe.Link == nil {
			return nil, imserrors.NewValidationFailure(
				fmt.Sprintf("recipe %s has no link", recipe.Id))
		}
		job.Arch = recipe.Arch
		if req.RequireDkms != nil {
			job.RequireDkms = *req.RequireDkms
		} else {
			job.RequireDkms = recipe.RequireDkms
		}
		url, err := c.presign(ctx, recipe.Link)
		if err != nil {
			return nil, err
		}
		return &sourceArtifact{
			downloadURL: url,
			md5:         recipe.Link.Etag,
			recipeType:  recipe.RecipeType,
			templateEnv: recipe.TemplateDictionary,
		}, nil
	}

	image, ok := c.ds.Images.Live.Get(req.ArtifactId)
	if !ok {
		return nil, imserrors.NewNotFound("image", req.ArtifactId)
	}
	if image.Link == nil {
		return nil, imserrors.NewValidationFailure(
			fmt.Sprintf("image %s has no link", image.Id))
	}
	job.Arch = image.Arch
	if req.RequireDkms != nil {
		job.RequireDkms = *req.RequireDkms
	}
	rootfs, err := c.resolveRootfs(ctx, image.Link)
	if err != nil {
		return nil, err
	}
	url, err := c.presign(ctx, rootfs.Link)
	if err != nil {
		return nil, err
	}
	return &sourceArtifact{downloadURL: url, md5: rootfs.Md5}, nil
}

// resolveRootfs reads the image manifest and returns its rootfs entry after
// confirming the object exists.
func (c *Controller) resolveRootfs(ctx context.Context, link *records.ArtifactLink) (*manifest.Artifact, error) {
	loc, err := s3store.ParseURL(link.Path)
	if err != nil {
		return nil, imserrors.NewBadRequest(err.Error())
	}
	body, err := c.store.Get(ctx, loc.Bucket, loc.Key)
	if err != nil {
		return nil, imserrors.NewArtifactNotFound(link.Path)
	}
	m, err := manifest.Parse(body)
	if err != nil {
		return nil, err
	}
	rootfs, err := manifest.FindRootfs(m)
	if err != nil {
		return nil, err
	}
	rootfsLoc, err := s3store.ParseURL(rootfs.Link.Path)
	if err != nil {
		return nil, imserrors.NewManifestInvalid(err.Error())
	}
	if _, err = c.store.Head(ctx, rootfsLoc.Bucket, rootfsLoc.Key); err != nil {
		return nil, imserrors.NewArtifactNotFound(rootfs.Link.Path)
	}
	return rootfs, nil
}

func (c *Controller) resolvePublicKey(id string) (string, error) {
	if id == "" {
		return "", nil
	}
	key, ok := c.ds.PublicKeys.Live.Get(id)
	if !ok {
		return "", imserrors.NewNotFound("public key", id)
	}
	return key.PublicKey, nil
}

func (c *Controller) presign(ctx context.Context, link *records.ArtifactLink) (string, error) {
	loc, err := s3store.ParseURL(link.Path)
	if err != nil {
		return "", imserrors.NewBadRequest(err.Error())
	}
	ttl := time.Duration(commonconfig.GetS3UrlExpirationSecond()) * time.Second
	url, err := c.store.PresignGet(ctx, loc.Bucket, loc.Key, ttl)
	if err != nil {
		return "", imserrors.NewInternalError(
			fmt.Sprintf("failed to presign %s: %v", link.Path, err))
	}
	return url, nil
}

func applyDefaults(job *records.Job) {
	if job.KernelFileName == "" {
		if job.Arch == records.ArchAarch64 {
			job.KernelFileName = kernelFileNameAarch64
		} else {
			job.KernelFileName = kernelFileNameX86
		}
	}
	if job.Arch == records.ArchAarch64 {
		job.RequireDkms = true
	}
}

func applySshContainerRules(job *records.Job) error {
	if job.JobType == records.JobTypeCreate && job.EnableDebug {
		job.SshContainers = append(job.SshContainers,
			records.SshContainer{Name: debugContainerName, Jail: false})
	}
	if job.JobType == records.JobTypeCustomize && len(job.SshContainers) == 0 {
		job.SshContainers = []records.SshContainer{{Name: customizeContainerName, Jail: false}}
	}
	if len(job.SshContainers) > 1 {
		return imserrors.NewBadRequest("at most one ssh container is supported per job")
	}
	return nil
}

// selectIsolation decides the sandbox runtime class and privilege level.
// DKMS builds need kernel-module access, so they run in a VM runtime with
// SYS_ADMIN; aarch64 builds use the aarch64 variant of that runtime.
func selectIsolation(job *records.Job) (runtimeClass string, privileged bool) {
	if !job.RequireDkms {
		return "", false
	}
	if job.Arch == records.ArchAarch64 {
		return commonconfig.GetAarch64RuntimeClass(), true
	}
	return commonconfig.GetKataRuntimeClass(), true
}

func composeParams(job *records.Job, source *sourceArtifact,
	publicKey, runtimeClass string, privileged bool) (map[string]string, error) {
	params := map[string]string{
		"id":                          job.Id,
		"job_type":                    job.JobType,
		"arch":                        job.Arch,
		"image_root_archive_name":     job.ImageRootArchiveName,
		"kernel_file_name":            job.KernelFileName,
		"initrd_file_name":            job.InitrdFileName,
		"kernel_parameters_file_name": job.KernelParametersFileName,
		"download_url":                source.downloadURL,
		"download_md5sum":             source.md5,
		"public_key":                  publicKey,
		"namespace":                   commonconfig.GetJobNamespace(),
		"s3_bucket":                   commonconfig.GetS3BootImagesBucket(),
		"build_env_size":              strconv.Itoa(job.BuildEnvSizeGiB) + "Gi",
		"job_mem_size":                strconv.Itoa(job.JobMemSizeGiB) + "Gi",
		"runtime_class":               runtimeClass,
		"security_privilege":          strconv.FormatBool(privileged),
		"remote_build_node":           job.RemoteBuildNode,
		"job_enable_dkms":             strconv.FormatBool(job.RequireDkms),
		"address_pool":                commonconfig.GetCustomerAccessPool(),
		"external_hostname":           externalHostname(job.Id),
	}
	if job.JobType == records.JobTypeCreate {
		dict, err := json.Marshal(source.templateEnv)
		if err != nil {
			return nil, imserrors.NewInternalError(err.Error())
		}
		params["template_dictionary"] = string(dict)
		params["recipe_type"] = source.recipeType
		params["recipe_bucket"] = commonconfig.GetS3ImsBucket()
	}
	return params, nil
}

func recordResources(job *records.Job, created *dispatcher.Resources) {
	if created == nil {
		return
	}
	job.KubernetesConfigmap = created.Configmap
	job.KubernetesService = created.Service
	job.KubernetesJob = created.Job
	job.KubernetesPvc = created.Pvc
	job.KubernetesSecret = created.Secret
	job.KubernetesNamespace = created.Namespace
}

// stampSshContainers sets the initial container status and both the external
// and in-cluster ways to reach it.
func stampSshContainers(job *records.Job) {
	for i := range job.SshContainers {
		job.SshContainers[i].Status = sshContainerStatusPending
		job.SshContainers[i].ConnectionInfo = map[string]records.SshConnectionInfo{
			"customer_access": {
				Host: externalHostname(job.Id),
				Port: sshPort,
			},
			"cluster_local": {
				Host: fmt.Sprintf("%s.%s.svc.cluster.local",
					job.KubernetesService, job.KubernetesNamespace),
				Port: sshPort,
			},
		}
	}
}

// externalHostname is the DNS name the load balancer exposes for the job.
func externalHostname(jobId string) string {
	return fmt.Sprintf("%s.ims.%s.%s", jobId,
		commonconfig.GetCustomerAccessSubnetName(), commonconfig.GetCustomerAccessDomain())
}
