package media

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jualapa/internal/config"
)

type recordedRequest struct {
	method string
	path   string
	body   []byte
}

type fakeS3 struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{method: r.Method, path: r.URL.Path, body: body})
	f.mu.Unlock()
	w.WriteHeader(f.status)
}

func newTestStore(t *testing.T, status int) (*S3Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{status: status}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.S3Config{Bucket: "media", Region: "us-east-1", Endpoint: srv.URL}
	client := s3.New(s3.Options{
		Region:                     cfg.Region,
		BaseEndpoint:               aws.String(srv.URL),
		UsePathStyle:               true,
		Credentials:                credentials.NewStaticCredentialsProvider("key", "secret", ""),
		RetryMaxAttempts:           1,
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
	})
	return newS3Store(client, cfg), fake
}

func TestS3Store_Upload(t *testing.T) {
	store, fake := newTestStore(t, http.StatusOK)
	payload := []byte("\x89PNG fake image")

	asset, err := store.Upload(context.Background(), Upload{
		Filename:    "Cake.PNG",
		ContentType: "image/png",
		Size:        int64(len(payload)),
		Body:        bytes.NewReader(payload),
	})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(asset.PublicID, "uploads/"))
	assert.True(t, strings.HasSuffix(asset.PublicID, ".png"))
	assert.True(t, strings.HasSuffix(asset.URL, "/media/"+asset.PublicID))

	require.Len(t, fake.requests, 1)
	assert.Equal(t, http.MethodPut, fake.requests[0].method)
	assert.Equal(t, "/media/"+asset.PublicID, fake.requests[0].path)
	assert.Equal(t, payload, fake.requests[0].body)
}

func TestS3Store_Delete(t *testing.T) {
	t.Run("deletes object", func(t *testing.T) {
		store, fake := newTestStore(t, http.StatusNoContent)

		require.NoError(t, store.Delete(context.Background(), "uploads/abc.png"))

		require.Len(t, fake.requests, 1)
		assert.Equal(t, http.MethodDelete, fake.requests[0].method)
		assert.Equal(t, "/media/uploads/abc.png", fake.requests[0].path)
	})

	t.Run("empty handle is a no-op", func(t *testing.T) {
		store, fake := newTestStore(t, http.StatusNoContent)

		require.NoError(t, store.Delete(context.Background(), ""))
		assert.Empty(t, fake.requests)
	})

	t.Run("surfaces store failure", func(t *testing.T) {
		store, _ := newTestStore(t, http.StatusInternalServerError)

		err := store.Delete(context.Background(), "uploads/abc.png")
		assert.Error(t, err)
	})
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example", publicBaseURL(config.S3Config{PublicURL: "https://cdn.example/"}))
	assert.Equal(t, "http://minio:9000/media", publicBaseURL(config.S3Config{Endpoint: "http://minio:9000", Bucket: "media"}))
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com", publicBaseURL(config.S3Config{Bucket: "media", Region: "eu-west-1"}))
}
