// Copyright 2026 The msgpush Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/msgpush/pusher/internal/config"
	"github.com/msgpush/pusher/internal/constant"
)

// ObjectStore reads each option from an object named <prefix>/<key> in an
// S3-compatible bucket.
type ObjectStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewObjectStore builds a minio client for cfg. No request is made until Get.
func NewObjectStore(cfg config.S3Config) (*ObjectStore, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("store: s3 endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("store: create s3 client: %w", err)
	}
	return &ObjectStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *ObjectStore) objectName(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

// Get implements OptionReader. A missing object counts as absent.
func (s *ObjectStore) Get(ctx context.Context, key string) (string, bool, error) {
	name := s.objectName(key)
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		if isObjectNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("store: get object %s/%s: %w", s.bucket, name, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, constant.MaxOptionValueSize+1))
	if err != nil {
		if isObjectNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("store: read object %s/%s: %w", s.bucket, name, err)
	}
	if len(data) > constant.MaxOptionValueSize {
		return "", false, fmt.Errorf("store: object %s/%s exceeds %d bytes", s.bucket, name, constant.MaxOptionValueSize)
	}
	return string(data), true, nil
}

// Close implements Store.
func (s *ObjectStore) Close() error { return nil }

func isObjectNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || (resp.StatusCode == http.StatusNotFound && resp.Code != "NoSuchBucket")
}
