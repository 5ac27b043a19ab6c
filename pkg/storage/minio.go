// Package storage provides the MinIO-backed blob store.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/diegopaiva1/file-search-poc/internal/config"
	"github.com/diegopaiva1/file-search-poc/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient is the global MinIO client instance.
var MinioClient *minio.Client

// InitMinIO creates the MinIO client and ensures the configured bucket exists.
func InitMinIO(cfg config.MinIOConfig) {
	var err error

	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatal("failed to initialize MinIO client", err)
	}

	log.Info("MinIO client initialized successfully")

	ctx := context.Background()
	bucketName := cfg.BucketName
	exists, err := MinioClient.BucketExists(ctx, bucketName)
	if err != nil {
		log.Fatal("failed to check MinIO bucket", err)
	}

	if !exists {
		log.Infof("bucket '%s' does not exist, creating...", bucketName)
		if err := MinioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			log.Fatal("failed to create MinIO bucket", err)
		}
		log.Infof("bucket '%s' created successfully", bucketName)
	} else {
		log.Infof("bucket '%s' already exists", bucketName)
	}
}

// MinioStore binds a MinIO client to a single bucket and exposes the
// whole-object operations the pipeline needs.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore creates a MinioStore over the given client and bucket.
func NewMinioStore(client *minio.Client, bucket string) *MinioStore {
	return &MinioStore{client: client, bucket: bucket}
}

// Put stores the payload under objectName with its content type.
func (s *MinioStore) Put(ctx context.Context, objectName string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object %q: %w", objectName, err)
	}
	return nil
}

// Get reads the whole object back into memory.
func (s *MinioStore) Get(ctx context.Context, objectName string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %q: %w", objectName, err)
	}
	defer object.Close()

	// GetObject is lazy; the first read reports a missing object.
	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("read object %q: %w", objectName, err)
	}
	return data, nil
}

// Delete removes the object.
func (s *MinioStore) Delete(ctx context.Context, objectName string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %q: %w", objectName, err)
	}
	return nil
}
