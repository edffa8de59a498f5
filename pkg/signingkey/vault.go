/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package signingkey

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Cray-HPE/ims/pkg/utils/httpclient"
)

const (
	serviceAccountTokenPath = "/var/run/secrets/kubernetes.io/serviceaccount/token"

	vaultTokenHeader = "X-Vault-Token"

	// Certificates are long-lived; rotation happens by recreating the
	// transit key, not by reissuing.
	certificateTTL = "87600h"
)

// vaultClient speaks the secret-manager HTTP API: Kubernetes-JWT auth, the
// transit engine for key material, and an SSH role for certificate signing.
type vaultClient struct {
	http  httpclient.Interface
	addr  string
	token string
}

func newVaultClient(http httpclient.Interface, addr string) *vaultClient {
	return &vaultClient{http: http, addr: addr}
}

// login exchanges the pod service-account JWT for a client token.
func (v *vaultClient) login(role string) error {
	jwt, err := os.ReadFile(serviceAccountTokenPath)
	if err != nil {
		return fmt.Errorf("failed to read service account token: %v", err)
	}
	result, err := v.http.Post(v.addr+"/v1/auth/kubernetes/login", map[string]string{
		"role": role,
		"jwt":  string(jwt),
	})
	if err != nil {
		return err
	}
	if !result.IsSuccess() {
		return fmt.Errorf("vault login failed: %s", result.String())
	}
	var rsp struct {
		Auth struct {
			ClientToken string `json:"client_token"`
		} `json:"auth"`
	}
	if err = json.Unmarshal(result.Body, &rsp); err != nil {
		return err
	}
	if rsp.Auth.ClientToken == "" {
		return fmt.Errorf("vault login returned no client token")
	}
	v.token = rsp.Auth.ClientToken
	return nil
}

// keyExists reports whether the named transit key is already provisioned.
func (v *vaultClient) keyExists(name string) (bool, error) {
	result, err := v.http.Get(v.addr+"/v1/transit/keys/"+name, vaultTokenHeader, v.token)
	if err != nil {
		return false, err
	}
	if result.StatusCode == 404 {
		return false, nil
	}
	if !result.IsSuccess() {
		return false, fmt.Errorf("failed to read transit key %s: %s", name, result.String())
	}
	return true, nil
}

// createKey provisions an exportable transit signing key.
func (v *vaultClient) createKey(name string) error {
	result, err := v.http.Post(v.addr+"/v1/transit/keys/"+name, map[string]interface{}{
		"type":       "rsa-4096",
		"exportable": true,
	}, vaultTokenHeader, v.token)
	if err != nil {
		return err
	}
	if !result.IsSuccess() {
		return fmt.Errorf("failed to create transit key %s: %s", name, result.String())
	}
	return nil
}

// exportPrivateKey returns the PEM private key of the transit key.
func (v *vaultClient) exportPrivateKey(name string) (string, error) {
	result, err := v.http.Get(v.addr+"/v1/transit/export/signing-key/"+name,
		vaultTokenHeader, v.token)
	if err != nil {
		return "", err
	}
	if !result.IsSuccess() {
		return "", fmt.Errorf("failed to export transit key %s: %s", name, result.String())
	}
	var rsp struct {
		Data struct {
			Keys map[string]string `json:"keys"`
		} `json:"data"`
	}
	if err = json.Unmarshal(result.Body, &rsp); err != nil {
		return "", err
	}
	key, ok := rsp.Data.Keys["1"]
	if !ok || key == "" {
		return "", fmt.Errorf("transit key %s export has no version 1", name)
	}
	return key, nil
}

// signCertificate issues a long-lived user certificate for the public key.
func (v *vaultClient) signCertificate(role, publicKey string) (string, error) {
	result, err := v.http.Post(v.addr+"/v1/ssh/sign/"+role, map[string]string{
		"public_key": publicKey,
		"cert_type":  "user",
		"ttl":        certificateTTL,
	}, vaultTokenHeader, v.token)
	if err != nil {
		return "", err
	}
	if !result.IsSuccess() {
		return "", fmt.Errorf("failed to sign certificate with role %s: %s", role, result.String())
	}
	var rsp struct {
		Data struct {
			SignedKey string `json:"signed_key"`
		} `json:"data"`
	}
	if err = json.Unmarshal(result.Body, &rsp); err != nil {
		return "", err
	}
	if rsp.Data.SignedKey == "" {
		return "", fmt.Errorf("sign response has no signed key")
	}
	return rsp.Data.SignedKey, nil
}
