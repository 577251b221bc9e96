package files

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"assetflow/config"
	"assetflow/models"
)

// MinioFileStore keeps attachments in an S3-compatible bucket.
type MinioFileStore struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// NewMinioFileStore connects to the endpoint and creates the bucket when missing.
func NewMinioFileStore(ctx context.Context, cfg config.MinIOConfig, logger *zap.Logger) (*MinioFileStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info("Created MinIO bucket", zap.String("bucket", cfg.Bucket))
	}
	return &MinioFileStore{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// ObjectKey builds bills/<year>/<uuid>_<filename>.
func ObjectKey(now time.Time, filename string) string {
	return fmt.Sprintf("bills/%d/%s_%s", now.Year(), uuid.New().String(), SanitizeFilename(filename))
}

func (s *MinioFileStore) Save(ctx context.Context, u Upload) (*models.FileRef, error) {
	key := ObjectKey(time.Now().UTC(), u.Filename)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(u.Data), int64(len(u.Data)), minio.PutObjectOptions{
		ContentType: u.ContentType,
		UserMetadata: map[string]string{
			"asset-id":   u.AssetID.Hex(),
			"item-index": fmt.Sprint(u.ItemIndex),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}
	return &models.FileRef{
		Storage:     BackendMinIO,
		Key:         key,
		Filename:    u.Filename,
		ContentType: u.ContentType,
		Size:        int64(len(u.Data)),
	}, nil
}

func (s *MinioFileStore) Open(ctx context.Context, ref models.FileRef) (io.ReadCloser, error) {
	if ref.Storage != BackendMinIO {
		return nil, ErrWrongBackend
	}
	obj, err := s.client.GetObject(ctx, s.bucket, ref.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces a missing key before streaming starts.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return obj, nil
}

func (s *MinioFileStore) Delete(ctx context.Context, ref models.FileRef) error {
	if ref.Storage != BackendMinIO {
		return ErrWrongBackend
	}
	return s.client.RemoveObject(ctx, s.bucket, ref.Key, minio.RemoveObjectOptions{})
}
