package objectstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/procurement"
)

type fakeAPI struct {
	buckets map[string]bool
	objects map[string]string
	types   map[string]string
	putErr  error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{buckets: map[string]bool{}, objects: map[string]string{}, types: map[string]string{}}
}

func (f *fakeAPI) PutObject(_ context.Context, bucket, object string, r io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	b, _ := io.ReadAll(r)
	f.objects[bucket+"/"+object] = string(b)
	f.types[bucket+"/"+object] = opts.ContentType
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: int64(len(b))}, nil
}

func (f *fakeAPI) BucketExists(_ context.Context, bucket string) (bool, error) {
	return f.buckets[bucket], nil
}

func (f *fakeAPI) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.buckets[bucket] = true
	return nil
}

func TestStore_PutPhoto(t *testing.T) {
	api := newFakeAPI()
	s := newStore(api, "stock", "https://files.example.test/")
	orderID := id.New()

	url, err := s.PutPhoto(context.Background(), orderID, procurement.Photo{
		Filename:    "Delivery.JPG",
		ContentType: "image/jpeg",
		Size:        4,
		Body:        strings.NewReader("jpeg"),
	})
	require.NoError(t, err)

	prefix := "https://files.example.test/stock/receipts/" + orderID.String() + "/"
	assert.True(t, strings.HasPrefix(url, prefix), url)
	assert.True(t, strings.HasSuffix(url, ".jpg"), url)

	key := strings.TrimPrefix(url, "https://files.example.test/")
	assert.Equal(t, "jpeg", api.objects[key])
	assert.Equal(t, "image/jpeg", api.types[key])
}

func TestStore_PutPhotoRejectsType(t *testing.T) {
	s := newStore(newFakeAPI(), "stock", "http://localhost:9000")
	_, err := s.PutPhoto(context.Background(), id.New(), procurement.Photo{
		Filename: "notes.txt", ContentType: "text/plain", Body: strings.NewReader("x"),
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestStore_PutPhotoUploadError(t *testing.T) {
	api := newFakeAPI()
	api.putErr = errors.New("bucket offline")
	s := newStore(api, "stock", "http://localhost:9000")
	_, err := s.PutPhoto(context.Background(), id.New(), procurement.Photo{
		Filename: "a.png", ContentType: "image/png", Body: strings.NewReader("x"),
	})
	assert.ErrorContains(t, err, "bucket offline")
}

func TestStore_EnsureBucket(t *testing.T) {
	api := newFakeAPI()
	s := newStore(api, "stock", "http://localhost:9000")
	require.NoError(t, s.EnsureBucket(context.Background()))
	assert.True(t, api.buckets["stock"])
	require.NoError(t, s.EnsureBucket(context.Background()))
}

func TestObjectKey_Unique(t *testing.T) {
	orderID := id.New()
	a, b := ObjectKey(orderID, "x.PNG"), ObjectKey(orderID, "x.PNG")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".png"))
}
