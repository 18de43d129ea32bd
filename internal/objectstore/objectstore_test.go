package objectstore_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blossoms/internal/objectstore"
)

func TestProductImageKey(t *testing.T) {
	now := time.UnixMilli(1718000000123)
	assert.Equal(t, "products/1718000000123-rose.png", objectstore.ProductImageKey(now, "rose.png"))
	assert.Equal(t, "products/1718000000123-rose.png", objectstore.ProductImageKey(now, `C:\Users\me\rose.png`))
	assert.Equal(t, "products/1718000000123-rose.png", objectstore.ProductImageKey(now, "../../rose.png"))
	assert.Equal(t, "products/1718000000123-image", objectstore.ProductImageKey(now, ""))
}

func TestLocalPut(t *testing.T) {
	dir := t.TempDir()
	store, err := objectstore.NewLocal(dir, "http://localhost:5000/")
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "products/1-summer dress.jpg", strings.NewReader("jpeg"), 4, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/media/products/1-summer%20dress.jpg", url)

	data, err := os.ReadFile(filepath.Join(dir, "products", "1-summer dress.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	entries, err := os.ReadDir(filepath.Join(dir, "products"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalPutRejectsEscapingKey(t *testing.T) {
	store, err := objectstore.NewLocal(t.TempDir(), "http://localhost:5000")
	require.NoError(t, err)
	_, err = store.Put(context.Background(), "../outside.txt", strings.NewReader("x"), 1, "text/plain")
	require.Error(t, err)
}

type fakeS3 struct {
	in  *s3.PutObjectInput
	err error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	if _, err := io.ReadAll(in.Body); err != nil {
		return nil, err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Put(t *testing.T) {
	fake := &fakeS3{}
	store := objectstore.NewS3WithClient(fake, objectstore.S3Options{Bucket: "blossoms", Region: "us-east-1"})

	url, err := store.Put(context.Background(), "products/5-rose.png", strings.NewReader("png"), 3, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://blossoms.s3.us-east-1.amazonaws.com/products/5-rose.png", url)

	require.NotNil(t, fake.in)
	assert.Equal(t, "blossoms", aws.ToString(fake.in.Bucket))
	assert.Equal(t, "products/5-rose.png", aws.ToString(fake.in.Key))
	assert.Equal(t, "image/png", aws.ToString(fake.in.ContentType))
	assert.Equal(t, "inline", aws.ToString(fake.in.ContentDisposition))
	assert.Equal(t, "image", fake.in.Metadata["fieldName"])
	assert.EqualValues(t, 3, aws.ToInt64(fake.in.ContentLength))
}

func TestS3PublicURLAndFailure(t *testing.T) {
	fake := &fakeS3{err: errors.New("access denied")}
	store := objectstore.NewS3WithClient(fake, objectstore.S3Options{
		Bucket: "blossoms", Region: "eu-west-1", PublicURL: "https://cdn.blossomsbotique.com/",
	})
	assert.Equal(t, "https://cdn.blossomsbotique.com/products/1-a.png", store.URL("products/1-a.png"))

	_, err := store.Put(context.Background(), "products/1-a.png", strings.NewReader("x"), 1, "image/png")
	require.ErrorContains(t, err, "access denied")
}
