package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-events/internal/apperr"
)

var pngHeader = []byte("\x89PNG\x0D\x0A\x1A\x0A\x00\x00\x00\x0DIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func TestLocalStoreSaveServeRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalStore(dir, 1024)
	require.NoError(t, err)

	ref, err := store.Save(context.Background(), "Poster.PNG", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".png"))

	onDisk, err := os.ReadFile(filepath.Join(dir, ref))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, onDisk)

	rec := httptest.NewRecorder()
	store.Serve(rec, httptest.NewRequest(http.MethodGet, "/uploads/"+ref, nil), ref)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cross-origin", rec.Header().Get("Cross-Origin-Resource-Policy"))
	assert.Equal(t, pngHeader, rec.Body.Bytes())

	require.NoError(t, store.Remove(context.Background(), ref))
	_, err = os.Stat(filepath.Join(dir, ref))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// removing twice is fine
	assert.NoError(t, store.Remove(context.Background(), ref))
}

func TestLocalStoreRejectsNonImagesAndOversize(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), 16)
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "notes.txt", strings.NewReader("just text"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = store.Save(context.Background(), "big.png", bytes.NewReader(append(pngHeader, make([]byte, 64)...)))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = store.Save(context.Background(), "empty.png", bytes.NewReader(nil))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(dir, "uploads"), 1024)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("secret"), 0o600))

	for _, ref := range []string{"../secret.txt", "..", "a/b.png", `..\secret.txt`, ""} {
		rec := httptest.NewRecorder()
		store.Serve(rec, httptest.NewRequest(http.MethodGet, "/uploads/x", nil), ref)
		assert.Equal(t, http.StatusNotFound, rec.Code, ref)
		assert.ErrorIs(t, store.Remove(context.Background(), ref), apperr.ErrValidation, ref)
	}

	_, err = os.Stat(filepath.Join(dir, "secret.txt"))
	assert.NoError(t, err)
}

func TestLocalStoreServeMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), 1024)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	store.Serve(rec, httptest.NewRequest(http.MethodGet, "/uploads/nope.png", nil), "nope.png")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeS3 struct {
	s3iface.S3API
	puts    []*s3.PutObjectInput
	bodies  [][]byte
	deletes []*s3.DeleteObjectInput
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, in)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StoreSaveAndRemove(t *testing.T) {
	fake := &fakeS3{}
	store := &S3Store{client: fake, bucket: "campus-images", maxBytes: 1024}

	ref, err := store.Save(context.Background(), "poster.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	require.Len(t, fake.puts, 1)
	assert.Equal(t, "campus-images", aws.StringValue(fake.puts[0].Bucket))
	assert.Equal(t, "events/"+ref, aws.StringValue(fake.puts[0].Key))
	assert.Equal(t, "image/png", aws.StringValue(fake.puts[0].ContentType))
	assert.Equal(t, pngHeader, fake.bodies[0])

	require.NoError(t, store.Remove(context.Background(), ref))
	require.Len(t, fake.deletes, 1)
	assert.Equal(t, "events/"+ref, aws.StringValue(fake.deletes[0].Key))

	_, err = store.Save(context.Background(), "notes.txt", strings.NewReader("text"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Len(t, fake.puts, 1)
}

func TestS3StoreServeRedirectsToPresignedURL(t *testing.T) {
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String("us-east-1"),
		Credentials: credentials.NewStaticCredentials("id", "secret", ""),
	})
	require.NoError(t, err)
	store := &S3Store{client: s3.New(sess), bucket: "campus-images", maxBytes: 1024}

	rec := httptest.NewRecorder()
	store.Serve(rec, httptest.NewRequest(http.MethodGet, "/uploads/a.png", nil), "a.png")
	assert.Equal(t, http.StatusFound, rec.Code)
	location := rec.Header().Get("Location")
	assert.Contains(t, location, "campus-images")
	assert.Contains(t, location, "events/a.png")
	assert.Contains(t, location, "X-Amz-Signature")
}
