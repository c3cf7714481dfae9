// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package s3store uploads processed reports to S3-compatible object storage.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/ctxlog"
)

// ErrInvalidURI is returned by ParseURI for anything but s3://bucket/key.
var ErrInvalidURI = errors.New("invalid s3 uri")

// Object describes an uploaded object.
type Object struct {
	Bucket string
	Key    string
	Size   int64
	ETag   string
}

// URI returns s3://bucket/key.
func (o Object) URI() string {
	return "s3://" + o.Bucket + "/" + o.Key
}

// Uploader stores one object.
type Uploader interface {
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string) (Object, error)
}

// ParseURI splits s3://bucket/key. The key may contain slashes.
func ParseURI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("%w %q: missing s3:// prefix", ErrInvalidURI, uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w %q: expected s3://bucket/key", ErrInvalidURI, uri)
	}
	return bucket, key, nil
}

// IsURI reports whether s looks like an s3:// location.
func IsURI(s string) bool {
	return strings.HasPrefix(s, "s3://")
}

// =============================================================================
// MINIO UPLOADER
// =============================================================================

// Options configure a MinioUploader.
type Options struct {
	// Endpoint is host[:port]; a scheme, if present, is stripped
	Endpoint string
	Region   string
	UseSSL   bool

	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// UseIAM resolves credentials from the environment, the shared
	// credentials file and instance metadata when no static keys are given
	UseIAM bool
}

// MinioUploader uploads through minio-go, which speaks to AWS S3 and any
// S3-compatible store.
type MinioUploader struct {
	client *minio.Client
}

// NewMinioUploader creates an uploader for opts.
func NewMinioUploader(opts Options) (*MinioUploader, error) {
	endpoint := opts.Endpoint
	if strings.HasPrefix(endpoint, "https://") {
		endpoint = strings.TrimPrefix(endpoint, "https://")
		opts.UseSSL = true
	} else if strings.HasPrefix(endpoint, "http://") {
		endpoint = strings.TrimPrefix(endpoint, "http://")
		opts.UseSSL = false
	}
	endpoint = strings.TrimSuffix(endpoint, "/")
	if endpoint == "" {
		return nil, errors.New("s3 endpoint is required")
	}

	var creds *credentials.Credentials
	switch {
	case opts.AccessKeyID != "" && opts.SecretAccessKey != "":
		creds = credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, opts.SessionToken)
	case opts.UseIAM:
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.FileAWSCredentials{},
			&credentials.IAM{},
		})
	default:
		return nil, errors.New("s3 credentials are required: set AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY or enable s3.use_iam")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	return &MinioUploader{client: client}, nil
}

func (u *MinioUploader) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) (Object, error) {
	info, err := u.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Object{}, fmt.Errorf("failed to upload s3://%s/%s: %w", bucket, key, err)
	}
	ctxlog.FromContext(ctx).Debug("s3 upload", "bucket", bucket, "key", key, "size", info.Size)
	return Object{Bucket: bucket, Key: key, Size: info.Size, ETag: info.ETag}, nil
}
