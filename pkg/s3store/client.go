/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package s3store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	commonconfig "github.com/Cray-HPE/ims/pkg/config"
)

// ObjectInfo carries the subset of object metadata the service cares about.
// Etag is stored without surrounding quotes.
type ObjectInfo struct {
	Etag          string
	ContentLength int64
	Metadata      map[string]string
}

// Interface is the uniform gateway over the S3-compatible object store.
type Interface interface {
	Head(ctx context.Context, bucket, key string) (*ObjectInfo, error)
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, body []byte) (*ObjectInfo, error)
	Delete(ctx context.Context, bucket, key string) error
	Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) (*ObjectInfo, error)
	PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// Client implements Interface against one credential context.
type Client struct {
	*Config
	s3Client *s3.Client
}

// NewImsClient creates the gateway for the ims principal.
func NewImsClient() (Interface, error) {
	cfg, err := NewImsConfig()
	if err != nil {
		return nil, err
	}
	return NewClientFromConfig(cfg), nil
}

// NewStsClient creates the gateway for the sts principal.
func NewStsClient() (Interface, error) {
	cfg, err := NewStsConfig()
	if err != nil {
		return nil, err
	}
	return NewClientFromConfig(cfg), nil
}

// NewClientFromConfig creates a gateway from an explicit config.
func NewClientFromConfig(cfg *Config) Interface {
	s3Client := s3.NewFromConfig(cfg.Config, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return &Client{Config: cfg, s3Client: s3Client}
}

// Head returns metadata for an object without fetching its body.
func (c *Client) Head(ctx context.Context, bucket, key string) (*ObjectInfo, error) {
	timeoutCtx, cancel := withTimeout(ctx, commonconfig.GetS3ConnectTimeoutSecond())
	defer cancel()

	out, err := c.s3Client.HeadObject(timeoutCtx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	return &ObjectInfo{
		Etag:          StripEtagQuotes(aws.ToString(out.ETag)),
		ContentLength: aws.ToInt64(out.ContentLength),
		Metadata:      out.Metadata,
	}, nil
}

// Get downloads the full object body.
func (c *Client) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	timeoutCtx, cancel := withTimeout(ctx, commonconfig.GetS3ReadTimeoutSecond())
	defer cancel()

	out, err := c.s3Client.GetObject(timeoutCtx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// Put uploads the body as a single object.
func (c *Client) Put(ctx context.Context, bucket, key string, body []byte) (*ObjectInfo, error) {
	if key == "" {
		return nil, fmt.Errorf("the object key is empty")
	}
	timeoutCtx, cancel := withTimeout(ctx, commonconfig.GetS3ReadTimeoutSecond())
	defer cancel()

	out, err := c.s3Client.PutObject(timeoutCtx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return nil, err
	}
	return &ObjectInfo{Etag: StripEtagQuotes(aws.ToString(out.ETag))}, nil
}

// Delete removes an object.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	if key == "" {
		return fmt.Errorf("the object key is empty")
	}
	timeoutCtx, cancel := withTimeout(ctx, commonconfig.GetS3ConnectTimeoutSecond())
	defer cancel()

	_, err := c.s3Client.DeleteObject(timeoutCtx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return err
}

// Copy performs a server-side copy between keys.
func (c *Client) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) (*ObjectInfo, error) {
	timeoutCtx, cancel := withTimeout(ctx, commonconfig.GetS3ReadTimeoutSecond())
	defer cancel()

	out, err := c.s3Client.CopyObject(timeoutCtx, &s3.CopyObjectInput{
		Bucket:     aws.String(dstBucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(fmt.Sprintf("%s/%s", srcBucket, srcKey)),
	})
	if err != nil {
		return nil, err
	}
	info := &ObjectInfo{}
	if out.CopyObjectResult != nil {
		info.Etag = StripEtagQuotes(aws.ToString(out.CopyObjectResult.ETag))
	}
	return info, nil
}

// PresignGet generates a presigned download URL for temporary object access.
func (c *Client) PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	presigner := s3.NewPresignClient(c.s3Client)

	resp, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) {
		o.Expires = ttl
	})
	if err != nil {
		return "", err
	}
	return resp.URL, nil
}

func withTimeout(parent context.Context, timeoutSecond int) (context.Context, context.CancelFunc) {
	if timeoutSecond <= 0 {
		return parent, func() {}
	}
	return context.WithTimeout(parent, time.Duration(timeoutSecond)*time.Second)
}
