/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package signingkey

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/klog/v2"

	commonconfig "github.com/Cray-HPE/ims/pkg/config"
	"github.com/Cray-HPE/ims/pkg/utils/httpclient"
)

const (
	privateKeyField  = "private_key"
	publicKeyField   = "public_key"
	certificateField = "certificate"
)

// Provisioner bootstraps the cluster-wide SSH CA keypair used for remote
// build nodes. It runs once at process start; a failure leaves the service
// without remote-node capability but otherwise functional.
type Provisioner struct {
	k8s   kubernetes.Interface
	vault *vaultClient
}

func NewProvisioner(k8s kubernetes.Interface) *Provisioner {
	return &Provisioner{
		k8s:   k8s,
		vault: newVaultClient(httpclient.NewClient(), commonconfig.GetVaultAddr()),
	}
}

// NewProvisionerWithClients is intended for tests.
func NewProvisionerWithClients(k8s kubernetes.Interface, http httpclient.Interface, vaultAddr string) *Provisioner {
	return &Provisioner{k8s: k8s, vault: newVaultClient(http, vaultAddr)}
}

// Provision makes sure the transit signing key, its certificate and the
// published ConfigMaps exist, and writes the private key to the path the
// node prober reads. Safe to call on every start.
func (p *Provisioner) Provision(ctx context.Context) error {
	if err := p.vault.login(commonconfig.GetVaultRole()); err != nil {
		return fmt.Errorf("vault login: %v", err)
	}
	keyName := commonconfig.GetTransitKeyName()

	exists, err := p.vault.keyExists(keyName)
	if err != nil {
		return err
	}
	if exists {
		if published, cm := p.published(ctx); published {
			klog.InfoS("signing key already provisioned", "key", keyName)
			return writePrivateKey(cm.Data[privateKeyField])
		}
	} else {
		if err = p.vault.createKey(keyName); err != nil {
			return err
		}
		klog.InfoS("created transit signing key", "key", keyName)
	}

	privateKey, err := p.vault.exportPrivateKey(keyName)
	if err != nil {
		return err
	}
	publicKey, err := derivePublicKey(privateKey)
	if err != nil {
		return err
	}
	certificate, err := p.vault.signCertificate(commonconfig.GetVaultRole(), publicKey)
	if err != nil {
		return err
	}

	data := map[string]string{
		privateKeyField:  privateKey,
		publicKeyField:   publicKey,
		certificateField: certificate,
	}
	for _, namespace := range commonconfig.GetKeysNamespaces() {
		if err = p.publish(ctx, namespace, data); err != nil {
			return err
		}
	}
	return writePrivateKey(privateKey)
}

// published reports whether the key ConfigMap already exists in every target
// namespace, returning the last one seen for its key material.
func (p *Provisioner) published(ctx context.Context) (bool, *corev1.ConfigMap) {
	var last *corev1.ConfigMap
	for _, namespace := range commonconfig.GetKeysNamespaces() {
		cm, err := p.k8s.CoreV1().ConfigMaps(namespace).Get(ctx,
			commonconfig.GetKeysConfigMapName(), metav1.GetOptions{})
		if err != nil {
			return false, nil
		}
		last = cm
	}
	return last != nil, last
}

func (p *Provisioner) publish(ctx context.Context, namespace string, data map[string]string) error {
	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      commonconfig.GetKeysConfigMapName(),
			Namespace: namespace,
		},
		Data: data,
	}
	_, err := p.k8s.CoreV1().ConfigMaps(namespace).Create(ctx, cm, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		_, err = p.k8s.CoreV1().ConfigMaps(namespace).Update(ctx, cm, metav1.UpdateOptions{})
	}
	if err != nil {
		return fmt.Errorf("failed to publish %s to namespace %s: %v",
			commonconfig.GetKeysConfigMapName(), namespace, err)
	}
	return nil
}

// derivePublicKey computes the OpenSSH public key of a PEM private key.
func derivePublicKey(privateKey string) (string, error) {
	signer, err := ssh.ParsePrivateKey([]byte(privateKey))
	if err != nil {
		return "", fmt.Errorf("failed to parse exported private key: %v", err)
	}
	return string(ssh.MarshalAuthorizedKey(signer.PublicKey())), nil
}

func writePrivateKey(privateKey string) error {
	if privateKey == "" {
		return fmt.Errorf("published ConfigMap has no %s field", privateKeyField)
	}
	path := commonconfig.GetPrivateKeyPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(privateKey), 0o600)
}
