package storage_test

import (
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grimbang/nailart/pkg/storage"
)

type fakeS3 struct {
	putKey     string
	putBody    []byte
	putType    string
	putErr     error
	deletedKey string
	deleteErr  error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.putKey = *params.Key
	f.putType = *params.ContentType
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.putBody = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deletedKey = *params.Key
	return &s3.DeleteObjectOutput{}, nil
}

func newTestStore(t *testing.T, cfg storage.Config, client storage.Client) *storage.S3Store {
	t.Helper()
	store, err := storage.New(context.Background(), cfg, storage.WithClient(client))
	require.NoError(t, err)
	return store
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := storage.New(context.Background(), storage.Config{Region: "us-east-1"})
	assert.ErrorIs(t, err, storage.ErrInvalidConfig)
}

func TestUpload(t *testing.T) {
	t.Parallel()

	cfg := storage.Config{
		Bucket:  "thumbnails",
		Region:  "us-east-1",
		BaseURL: "https://cdn.example.com/thumbnails",
	}

	t.Run("stores object and returns public url", func(t *testing.T) {
		t.Parallel()

		client := &fakeS3{}
		store := newTestStore(t, cfg, client)

		url, err := store.Upload(context.Background(), "user-1/thumb-1.png", []byte("png-bytes"), "image/png")
		require.NoError(t, err)

		assert.Equal(t, "https://cdn.example.com/thumbnails/user-1/thumb-1.png", url)
		assert.Equal(t, "user-1/thumb-1.png", client.putKey)
		assert.Equal(t, []byte("png-bytes"), client.putBody)
		assert.Equal(t, "image/png", client.putType)
	})

	t.Run("wraps upload failure", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t, cfg, &fakeS3{putErr: assert.AnError})
		_, err := store.Upload(context.Background(), "k", nil, "image/png")
		assert.ErrorIs(t, err, storage.ErrUploadFailed)
	})
}

func TestDelete(t *testing.T) {
	t.Parallel()

	cfg := storage.Config{Bucket: "thumbnails", Region: "us-east-1"}

	client := &fakeS3{}
	store := newTestStore(t, cfg, client)
	require.NoError(t, store.Delete(context.Background(), "user-1/thumb-1.png"))
	assert.Equal(t, "user-1/thumb-1.png", client.deletedKey)

	failing := newTestStore(t, cfg, &fakeS3{deleteErr: assert.AnError})
	assert.ErrorIs(t, failing.Delete(context.Background(), "k"), storage.ErrDeleteFailed)
}

func TestURLDefaults(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, storage.Config{Bucket: "b", Region: "eu-west-1"}, &fakeS3{})
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com/k.png", store.URL("k.png"))
}
