/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package s3store

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	commonconfig "github.com/Cray-HPE/ims/pkg/config"
)

type Config struct {
	aws.Config
}

// Location is a parsed s3:// URL.
type Location struct {
	Bucket string
	Key    string
}

// NewImsConfig builds the object-store configuration for the ims principal.
func NewImsConfig() (*Config, error) {
	return newConfigFromCredentials(commonconfig.GetS3AccessKey(),
		commonconfig.GetS3SecretKey(), commonconfig.GetS3Endpoint())
}

// NewStsConfig builds the object-store configuration for the sts principal.
// Multi-part uploads can only be copied by the principal that created them,
// so key rewrites run under this identity.
func NewStsConfig() (*Config, error) {
	return newConfigFromCredentials(commonconfig.GetS3StsAccessKey(),
		commonconfig.GetS3StsSecretKey(), commonconfig.GetS3StsEndpoint())
}

func newConfigFromCredentials(ak, sk, endpoint string) (*Config, error) {
	if ak == "" {
		return nil, fmt.Errorf("the s3 AccessKey is empty")
	}
	if sk == "" {
		return nil, fmt.Errorf("the s3 SecretKey is empty")
	}
	if endpoint == "" {
		return nil, fmt.Errorf("the s3 endpoint is empty")
	}

	credProvider := aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     ak,
			SecretAccessKey: sk,
			Source:          "StaticCredentials",
		}, nil
	})

	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: !commonconfig.IsS3SslValidate(),
			},
		},
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(""),
		awsconfig.WithCredentialsProvider(credProvider),
		awsconfig.WithHTTPClient(httpClient),
		awsconfig.WithEndpointResolverWithOptions(
			aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL: endpoint,
				}, nil
			}),
		),
	)
	if err != nil {
		return nil, err
	}
	return &Config{Config: cfg}, nil
}

// ParseURL parses an object-store URL in the form s3://<bucket>/<key>[?query].
func ParseURL(s3url string) (*Location, error) {
	if s3url == "" {
		return nil, fmt.Errorf("URL is empty")
	}
	u, err := url.Parse(s3url)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "s3" {
		return nil, fmt.Errorf("only the s3 scheme is supported, got %q", u.Scheme)
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("invalid URL %q: expected s3://<bucket>/<key>", s3url)
	}
	return &Location{Bucket: bucket, Key: key}, nil
}

// URL renders the location back to its s3:// form.
func (l Location) URL() string {
	return fmt.Sprintf("s3://%s/%s", l.Bucket, l.Key)
}

// StripEtagQuotes removes the quote characters the object store wraps etags
// in, so etag comparisons work across client implementations.
func StripEtagQuotes(etag string) string {
	return strings.Trim(etag, `"`)
}
