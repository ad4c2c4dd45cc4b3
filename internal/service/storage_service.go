package service

import (
	"bytes"
	"context"
	"fmt"
	"map_survey_backend/internal/config"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// StorageProvider stores export artifacts. Put returns a provider-specific
// location string for logging.
type StorageProvider interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// NewStorageProvider builds the provider named in the configuration. An empty
// type defaults to local disk.
func NewStorageProvider(cfg *config.StorageConfig) (StorageProvider, error) {
	switch cfg.Type {
	case "minio":
		return newMinioProvider(cfg)
	case "local", "":
		return &LocalProvider{BasePath: cfg.LocalPath}, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// LocalProvider writes exports under a base directory on disk.
type LocalProvider struct {
	BasePath string
}

func (p *LocalProvider) Put(_ context.Context, name string, data []byte, _ string) (string, error) {
	path := filepath.Join(p.BasePath, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// MinioProvider stores exports in an S3-compatible bucket.
type MinioProvider struct {
	Client *minio.Client
	Bucket string
}

func newMinioProvider(cfg *config.StorageConfig) (*MinioProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds: credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio bucket create: %w", err)
		}
	}
	return &MinioProvider{Client: client, Bucket: cfg.MinioBucket}, nil
}

func (p *MinioProvider) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return p.Bucket + "/" + name, nil
}
