package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/partsbay/partsbay/pkg/utils"
)

// Storager is the object-storage surface the upload pipeline and product
// service run on.
type Storager interface {
	SaveImage(ctx context.Context, bucket, objectKey string, data []byte) (string, error)
	GetFile(ctx context.Context, bucket, objectKey string) ([]byte, error)
	GetFileUrl(ctx context.Context, bucket, objectKey string) (string, error)
	DeleteFile(ctx context.Context, bucket, objectKey string) error
}

type MinioStorage struct {
	client *minio.Client
}

func NewMinioStorage() (*MinioStorage, error) {
	endpoint := utils.GetEnv("MINIO_ENDPOINT", "localhost:9000")
	accessKeyID := utils.GetEnv("MINIO_ACCESS_KEY", "minioadmin")
	secretAccessKey := utils.GetEnv("MINIO_SECRET_KEY", "minioadmin")
	useSSL := utils.GetEnv("MINIO_USE_SSL", "false") == "true"

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioStorage{
		client: minioClient,
	}, nil
}

func (s *MinioStorage) SaveImage(ctx context.Context, bucket, objectKey string, data []byte) (string, error) {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return "", fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return "", fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	info, err := s.client.PutObject(ctx, bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "image/jpeg",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return info.Key, nil
}

func (s *MinioStorage) GetFile(ctx context.Context, bucket, objectKey string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

func (s *MinioStorage) DeleteFile(ctx context.Context, bucket, objectKey string) error {
	return s.client.RemoveObject(ctx, bucket, objectKey, minio.RemoveObjectOptions{})
}

func (s *MinioStorage) GetFileUrl(ctx context.Context, bucket, objectKey string) (string, error) {
	reqParams := make(url.Values)
	presignedURL, err := s.client.PresignedGetObject(ctx, bucket, objectKey, 24*time.Hour, reqParams)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return presignedURL.String(), nil
}
