// Package objectstore keeps receiving photos in an S3-compatible bucket.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/procurement"
)

// AllowedContentTypes lists the accepted upload types.
var AllowedContentTypes = []string{"image/jpeg", "image/png", "image/webp", "application/pdf"}

// Config configures the bucket connection.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL prefixes object keys in returned URLs. Defaults to the endpoint.
	PublicURL string
}

// objectAPI is the part of *minio.Client the store needs.
type objectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
}

// Store implements procurement.PhotoStore.
type Store struct {
	api       objectAPI
	bucket    string
	publicURL string
}

var _ procurement.PhotoStore = (*Store)(nil)

// New connects to the object store.
func New(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("object storage endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint
	}
	return newStore(client, cfg.Bucket, publicURL), nil
}

func newStore(api objectAPI, bucket, publicURL string) *Store {
	return &Store{api: api, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

// EnsureBucket creates the bucket when it does not exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	ok, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if ok {
		return nil
	}
	if err := s.api.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// PutPhoto uploads a receiving photo under receipts/<orderID>/ and returns its URL.
func (s *Store) PutPhoto(ctx context.Context, orderID id.ID, photo procurement.Photo) (string, error) {
	if !slices.Contains(AllowedContentTypes, photo.ContentType) {
		return "", apperror.NewValidation("unsupported file type").
			WithDetail("contentType", photo.ContentType)
	}

	key := ObjectKey(orderID, photo.Filename)
	_, err := s.api.PutObject(ctx, s.bucket, key, photo.Body, photo.Size, minio.PutObjectOptions{
		ContentType: photo.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload photo %s: %w", key, err)
	}
	return s.publicURL + "/" + path.Join(s.bucket, key), nil
}

// ObjectKey builds a collision-free key keeping the original extension.
func ObjectKey(orderID id.ID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("receipts/%s/%s%s", orderID.String(), uuid.NewString(), ext)
}
