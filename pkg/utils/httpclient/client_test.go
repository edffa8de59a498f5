/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package httpclient

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequest(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		method     string
		body       interface{}
		headers    []string
		wantURL    string
		wantBody   string
		wantHeader map[string]string
	}{
		{
			name:    "bare host defaults to https",
			url:     "vault.services.svc:8200/v1/sys/health",
			method:  http.MethodGet,
			wantURL: "https://vault.services.svc:8200/v1/sys/health",
		},
		{
			name:    "explicit http scheme kept",
			url:     "http://localhost:8080/ping",
			method:  http.MethodGet,
			wantURL: "http://localhost:8080/ping",
		},
		{
			name:     "string body passed through",
			url:      "https://example.com",
			method:   http.MethodPost,
			body:     `{"raw":true}`,
			wantURL:  "https://example.com",
			wantBody: `{"raw":true}`,
		},
		{
			name:     "struct body marshalled to json",
			url:      "https://example.com",
			method:   http.MethodPut,
			body:     map[string]string{"name": "ims"},
			wantURL:  "https://example.com",
			wantBody: `{"name":"ims"}`,
		},
		{
			name:       "header pairs applied",
			url:        "https://example.com",
			method:     http.MethodGet,
			headers:    []string{"X-Vault-Token", "abc"},
			wantURL:    "https://example.com",
			wantHeader: map[string]string{"X-Vault-Token": "abc"},
		},
		{
			name:    "dangling header key ignored",
			url:     "https://example.com",
			method:  http.MethodGet,
			headers: []string{"X-Orphan"},
			wantURL: "https://example.com",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := BuildRequest(tt.url, tt.method, tt.body, tt.headers...)
			require.NoError(t, err)
			assert.Equal(t, tt.method, req.Method)
			assert.Equal(t, tt.wantURL, req.URL.String())
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			for k, v := range tt.wantHeader {
				assert.Equal(t, v, req.Header.Get(k))
			}
			if tt.wantBody != "" {
				data, err := io.ReadAll(req.Body)
				require.NoError(t, err)
				assert.Equal(t, tt.wantBody, string(data))
			}
			if tt.name == "dangling header key ignored" {
				assert.Empty(t, req.Header.Get("X-Orphan"))
			}
		})
	}
}

func TestResultIsSuccess(t *testing.T) {
	assert.True(t, (&Result{StatusCode: 200}).IsSuccess())
	assert.True(t, (&Result{StatusCode: 204}).IsSuccess())
	assert.False(t, (&Result{StatusCode: 301}).IsSuccess())
	assert.False(t, (&Result{StatusCode: 404}).IsSuccess())
	assert.False(t, (*Result)(nil).IsSuccess())
}

func TestResultString(t *testing.T) {
	r := &Result{StatusCode: 403, Body: []byte("denied")}
	assert.Equal(t, "http code: 403, body: denied", r.String())
}

func TestNewClientIsSingleton(t *testing.T) {
	assert.Same(t, NewClient(), NewClient())
}
