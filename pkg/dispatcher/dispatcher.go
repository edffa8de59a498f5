/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package dispatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/klog/v2"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/yaml"

	commonconfig "github.com/Cray-HPE/ims/pkg/config"
	imserrors "github.com/Cray-HPE/ims/pkg/errors"
	"github.com/Cray-HPE/ims/pkg/records"
	"github.com/Cray-HPE/ims/pkg/utils/backoff"
)

const (
	applyRetryCount    = 3
	applyRetryInterval = time.Second
)

// jobResources orders the templated resources by apply time. The configmap
// and service must exist before the workload references them.
var jobResources = []string{"configmap", "service", "job", "pvc"}

// Resources holds the cluster-resource names recorded on a Job after a
// successful dispatch.
type Resources struct {
	Configmap string
	Service   string
	Job       string
	Pvc       string
	Secret    string
	Namespace string
}

// Dispatcher materializes build jobs as cluster workloads from per-resource
// YAML templates.
type Dispatcher struct {
	cli          client.Client
	templateRoot string
}

func New(cli client.Client) *Dispatcher {
	return &Dispatcher{cli: cli, templateRoot: commonconfig.GetJobTemplatePath()}
}

// NewWithTemplateRoot is intended for tests.
func NewWithTemplateRoot(cli client.Client, templateRoot string) *Dispatcher {
	return &Dispatcher{cli: cli, templateRoot: templateRoot}
}

// CreateJobResources renders and applies the configmap, service, workload and
// PVC templates for the job, creates the mesh destination rule for its
// service, and copies the signing-key secret into the job namespace. Every
// parameter referenced by a template must be present in params.
func (d *Dispatcher) CreateJobResources(ctx context.Context, job *records.Job,
	recipeType string, params map[string]string) (*Resources, error) {
	namespace := commonconfig.GetJobNamespace()
	created := &Resources{Namespace: namespace}
	for _, resource := range jobResources {
		obj, err := d.render(job.JobType, recipeType, resource, params)
		if err != nil {
			return created, err
		}
		obj.SetNamespace(namespace)
		if err = d.apply(ctx, obj); err != nil {
			return created, imserrors.NewInternalError(fmt.Sprintf(
				"failed to create %s for job %s: %v", resource, job.Id, err))
		}
		switch resource {
		case "configmap":
			created.Configmap = obj.GetName()
		case "service":
			created.Service = obj.GetName()
		case "job":
			created.Job = obj.GetName()
		case "pvc":
			created.Pvc = obj.GetName()
		}
	}

	if err := d.apply(ctx, destinationRule(created.Service, namespace)); err != nil {
		return created, imserrors.NewInternalError(fmt.Sprintf(
			"failed to create destination rule for job %s: %v", job.Id, err))
	}

	secretName, err := d.copySigningKeySecret(ctx, job, namespace)
	if err != nil {
		klog.ErrorS(err, "failed to copy signing-key secret", "job", job.Id)
	} else {
		created.Secret = secretName
	}
	return created, nil
}

// render loads the template for (jobType, recipeType, resource), substitutes
// the ${name} placeholders and parses the result.
func (d *Dispatcher) render(jobType, recipeType, resource string,
	params map[string]string) (*unstructured.Unstructured, error) {
	path := d.templatePath(jobType, recipeType, resource)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, imserrors.NewInternalError(fmt.Sprintf("failed to read template %s: %v", path, err))
	}
	rendered := os.Expand(string(data), func(key string) string {
		return params[key]
	})
	obj := map[string]interface{}{}
	if err = yaml.Unmarshal([]byte(rendered), &obj); err != nil {
		return nil, imserrors.NewInternalError(fmt.Sprintf("failed to parse template %s: %v", path, err))
	}
	u := &unstructured.Unstructured{Object: obj}
	if u.GetName() == "" {
		return nil, imserrors.NewInternalError(fmt.Sprintf("template %s has no metadata.name", path))
	}
	return u, nil
}

func (d *Dispatcher) templatePath(jobType, recipeType, resource string) string {
	if jobType == records.JobTypeCreate {
		return filepath.Join(d.templateRoot, "create", recipeType,
			fmt.Sprintf("image_%s_create.yaml.template", resource))
	}
	return filepath.Join(d.templateRoot, "customize",
		fmt.Sprintf("image_%s_customize.yaml.template", resource))
}

// apply creates the object, retrying apiserver timeouts up to three times
// with linearly increasing backoff.
func (d *Dispatcher) apply(ctx context.Context, obj *unstructured.Unstructured) error {
	return backoff.LinearRetry(func() error {
		err := d.cli.Create(ctx, obj)
		if apierrors.IsAlreadyExists(err) {
			return nil
		}
		return err
	}, applyRetryCount, applyRetryInterval, isApiserverTimeout)
}

func isApiserverTimeout(err error) bool {
	return apierrors.IsTimeout(err) || apierrors.IsServerTimeout(err)
}

// destinationRule disables mesh mTLS toward the job's service so build
// clients can reach the SSH containers directly.
func destinationRule(serviceName, namespace string) *unstructured.Unstructured {
	u := &unstructured.Unstructured{}
	u.SetAPIVersion("networking.istio.io/v1beta1")
	u.SetKind("DestinationRule")
	u.SetName(serviceName)
	u.SetNamespace(namespace)
	u.Object["spec"] = map[string]interface{}{
		"host": fmt.Sprintf("%s.%s.svc.cluster.local", serviceName, namespace),
		"trafficPolicy": map[string]interface{}{
			"tls": map[string]interface{}{"mode": "DISABLE"},
		},
	}
	return u
}

func (d *Dispatcher) copySigningKeySecret(ctx context.Context, job *records.Job, namespace string) (string, error) {
	source := &corev1.Secret{}
	key := client.ObjectKey{
		Name:      commonconfig.GetSigningKeySecretName(),
		Namespace: commonconfig.GetSystemNamespace(),
	}
	if err := d.cli.Get(ctx, key, source); err != nil {
		return "", err
	}
	copied := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      fmt.Sprintf("ims-%s-keys", job.Id),
			Namespace: namespace,
		},
		Type: source.Type,
		Data: source.Data,
	}
	if err := d.cli.Create(ctx, copied); err != nil && !apierrors.IsAlreadyExists(err) {
		return "", err
	}
	return copied.Name, nil
}

// DeleteJobResources removes everything dispatched for the job. Missing
// resources are tolerated; other failures accumulate into the returned error.
func (d *Dispatcher) DeleteJobResources(ctx context.Context, job *records.Job) error {
	return d.delete(ctx, job, false)
}

// ReleaseNetwork removes only the service and destination rule, keeping the
// workload and its logs for retrieval after a terminal status.
func (d *Dispatcher) ReleaseNetwork(ctx context.Context, job *records.Job) error {
	return d.delete(ctx, job, true)
}

func (d *Dispatcher) delete(ctx context.Context, job *records.Job, networkOnly bool) error {
	namespace := job.KubernetesNamespace
	if namespace == "" {
		return nil
	}
	var objs []client.Object
	if job.KubernetesService != "" {
		objs = append(objs, object("v1", "Service", job.KubernetesService, namespace))
	}
	if !networkOnly {
		if job.KubernetesJob != "" {
			objs = append(objs, object("batch/v1", "Job", job.KubernetesJob, namespace))
		}
		if job.KubernetesConfigmap != "" {
			objs = append(objs, object("v1", "ConfigMap", job.KubernetesConfigmap, namespace))
		}
		if job.KubernetesPvc != "" {
			objs = append(objs, object("v1", "PersistentVolumeClaim", job.KubernetesPvc, namespace))
		}
		if job.KubernetesSecret != "" {
			objs = append(objs, object("v1", "Secret", job.KubernetesSecret, namespace))
		}
	}
	// The destination rule is always removed last.
	if job.KubernetesService != "" {
		objs = append(objs, object("networking.istio.io/v1beta1", "DestinationRule",
			job.KubernetesService, namespace))
	}

	var errs []error
	for _, obj := range objs {
		if err := d.cli.Delete(ctx, obj); err != nil && !apierrors.IsNotFound(err) {
			errs = append(errs, fmt.Errorf("delete %s %s: %w",
				obj.GetObjectKind().GroupVersionKind().Kind, obj.GetName(), err))
		}
	}
	return utilerrors.NewAggregate(errs)
}

func object(apiVersion, kind, name, namespace string) *unstructured.Unstructured {
	u := &unstructured.Unstructured{}
	u.SetAPIVersion(apiVersion)
	u.SetKind(kind)
	u.SetName(name)
	u.SetNamespace(namespace)
	return u
}
