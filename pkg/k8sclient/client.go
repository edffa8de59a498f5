/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package k8sclient

import (
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/controller-runtime/pkg/client/config"
)

const (
	defaultQPS   = 50
	defaultBurst = 100
)

// NewClientSet creates a Kubernetes clientset from the given kubeconfig path,
// falling back to the in-cluster service account when the path is empty.
func NewClientSet(kubeconfig string) (kubernetes.Interface, *rest.Config, error) {
	restConfig, err := GetRestConfig(kubeconfig)
	if err != nil {
		return nil, nil, err
	}
	cli, err := NewClientSetWithRestConfig(restConfig)
	return cli, restConfig, err
}

// NewClientSetWithRestConfig creates a clientset from an existing REST config.
func NewClientSetWithRestConfig(cfg *rest.Config) (kubernetes.Interface, error) {
	return kubernetes.NewForConfig(cfg)
}

// GetRestConfig resolves the REST configuration for cluster access.
func GetRestConfig(kubeconfig string) (*rest.Config, error) {
	var restCfg *rest.Config
	var err error
	if kubeconfig != "" {
		restCfg, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	} else {
		restCfg, err = config.GetConfig()
	}
	if err != nil {
		return nil, err
	}
	restCfg.QPS = defaultQPS
	restCfg.Burst = defaultBurst
	return restCfg, nil
}
