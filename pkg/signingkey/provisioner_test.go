/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package signingkey

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8sfake "k8s.io/client-go/kubernetes/fake"

	commonconfig "github.com/Cray-HPE/ims/pkg/config"
	"github.com/Cray-HPE/ims/pkg/utils/httpclient"
)

// fakeHttp routes requests to canned responders keyed by "METHOD path".
type fakeHttp struct {
	responders map[string]func(body interface{}) *httpclient.Result
	calls      []string
}

func newFakeHttp() *fakeHttp {
	return &fakeHttp{responders: map[string]func(interface{}) *httpclient.Result{}}
}

func (f *fakeHttp) respond(method, path string, status int, body interface{}) {
	data, _ := json.Marshal(body)
	f.responders[method+" "+path] = func(interface{}) *httpclient.Result {
		return &httpclient.Result{StatusCode: status, Body: data}
	}
}

func (f *fakeHttp) dispatch(method, url string, body interface{}) (*httpclient.Result, error) {
	path := url
	if idx := strings.Index(url, "/v1/"); idx >= 0 {
		path = url[idx:]
	}
	f.calls = append(f.calls, method+" "+path)
	responder, ok := f.responders[method+" "+path]
	if !ok {
		return &httpclient.Result{StatusCode: 404, Body: []byte(`{"errors":["no handler"]}`)}, nil
	}
	return responder(body), nil
}

func (f *fakeHttp) Get(url string, _ ...string) (*httpclient.Result, error) {
	return f.dispatch(http.MethodGet, url, nil)
}

func (f *fakeHttp) Post(url string, body interface{}, _ ...string) (*httpclient.Result, error) {
	return f.dispatch(http.MethodPost, url, body)
}

func (f *fakeHttp) Put(url string, body interface{}, _ ...string) (*httpclient.Result, error) {
	return f.dispatch(http.MethodPut, url, body)
}

func (f *fakeHttp) Delete(url string, _ ...string) (*httpclient.Result, error) {
	return f.dispatch(http.MethodDelete, url, nil)
}

func (f *fakeHttp) Do(req *http.Request) (*httpclient.Result, error) {
	return f.dispatch(req.Method, req.URL.Path, nil)
}

func testPrivateKeyPEM(t *testing.T) string {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}))
}

func TestVaultKeyExists(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    interface{}
		want    bool
		wantErr bool
	}{
		{name: "key present", status: 200, body: map[string]string{"name": "k"}, want: true},
		{name: "key absent", status: 404, body: map[string]interface{}{"errors": []string{}}, want: false},
		{name: "server error", status: 500, body: map[string]interface{}{"errors": []string{"sealed"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := newFakeHttp()
			hc.respond("GET", "/v1/transit/keys/test-key", tt.status, tt.body)
			v := newVaultClient(hc, "http://vault:8200")

			got, err := v.keyExists("test-key")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVaultExportPrivateKey(t *testing.T) {
	hc := newFakeHttp()
	hc.respond("GET", "/v1/transit/export/signing-key/test-key", 200, map[string]interface{}{
		"data": map[string]interface{}{"keys": map[string]string{"1": "PEM-KEY"}},
	})
	v := newVaultClient(hc, "http://vault:8200")

	key, err := v.exportPrivateKey("test-key")
	require.NoError(t, err)
	assert.Equal(t, "PEM-KEY", key)

	// An export without version 1 is unusable.
	hc.respond("GET", "/v1/transit/export/signing-key/test-key", 200, map[string]interface{}{
		"data": map[string]interface{}{"keys": map[string]string{}},
	})
	_, err = v.exportPrivateKey("test-key")
	assert.Error(t, err)
}

func TestVaultSignCertificate(t *testing.T) {
	hc := newFakeHttp()
	hc.respond("POST", "/v1/ssh/sign/ims-compute", 200, map[string]interface{}{
		"data": map[string]string{"signed_key": "ssh-rsa-cert AAAA"},
	})
	v := newVaultClient(hc, "http://vault:8200")

	cert, err := v.signCertificate("ims-compute", "ssh-rsa AAAA")
	require.NoError(t, err)
	assert.Equal(t, "ssh-rsa-cert AAAA", cert)

	hc.respond("POST", "/v1/ssh/sign/ims-compute", 200, map[string]interface{}{
		"data": map[string]string{},
	})
	_, err = v.signCertificate("ims-compute", "ssh-rsa AAAA")
	assert.Error(t, err)
}

func TestVaultCreateKey(t *testing.T) {
	hc := newFakeHttp()
	hc.respond("POST", "/v1/transit/keys/test-key", 204, nil)
	v := newVaultClient(hc, "http://vault:8200")
	assert.NoError(t, v.createKey("test-key"))

	hc.respond("POST", "/v1/transit/keys/test-key", 403, map[string]interface{}{
		"errors": []string{"permission denied"},
	})
	assert.Error(t, v.createKey("test-key"))
}

func TestDerivePublicKey(t *testing.T) {
	publicKey, err := derivePublicKey(testPrivateKeyPEM(t))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(publicKey, "ssh-rsa "))

	_, err = derivePublicKey("not a key")
	assert.Error(t, err)
}

func TestWritePrivateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "id_ecdsa_ca")
	commonconfig.SetValue("keys.private_key_path", path)

	require.NoError(t, writePrivateKey("PEM-KEY"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PEM-KEY", string(data))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assert.Error(t, writePrivateKey(""))
}

func TestPublishCreatesAndUpdates(t *testing.T) {
	ctx := context.Background()
	k8s := k8sfake.NewSimpleClientset()
	p := NewProvisionerWithClients(k8s, newFakeHttp(), "http://vault:8200")

	data := map[string]string{privateKeyField: "PEM-KEY", publicKeyField: "ssh-rsa AAAA"}
	require.NoError(t, p.publish(ctx, "ims", data))

	cm, err := k8s.CoreV1().ConfigMaps("ims").Get(ctx,
		commonconfig.GetKeysConfigMapName(), metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "PEM-KEY", cm.Data[privateKeyField])

	// Publishing again overwrites the existing ConfigMap.
	data[privateKeyField] = "NEW-PEM-KEY"
	require.NoError(t, p.publish(ctx, "ims", data))
	cm, err = k8s.CoreV1().ConfigMaps("ims").Get(ctx,
		commonconfig.GetKeysConfigMapName(), metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "NEW-PEM-KEY", cm.Data[privateKeyField])
}

func TestProvisionFailsWithoutServiceAccount(t *testing.T) {
	// Outside a pod there is no service account token, so provisioning
	// reports the login failure and the caller degrades to in-cluster
	// builds only.
	p := NewProvisionerWithClients(k8sfake.NewSimpleClientset(), newFakeHttp(), "http://vault:8200")
	err := p.Provision(context.Background())
	require.Error(t, err)
	assert.Contains(t, fmt.Sprintf("%v", err), "vault login")
}
