package output

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SayaAndy/saya-today-webp-converter/config"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestS3_Store(t *testing.T) {
	api := &fakeS3{}
	c := NewS3OutputClientWithAPI(api, "media", "uploads/")

	require.NoError(t, c.Store(context.Background(), "photo.webp", upload(t, "RIFF1234WEBP"), "image/webp"))

	assert.Equal(t, "media", aws.ToString(api.input.Bucket))
	assert.Equal(t, "uploads/photo.webp", aws.ToString(api.input.Key))
	assert.Equal(t, "image/webp", aws.ToString(api.input.ContentType))
	assert.Equal(t, int64(12), aws.ToInt64(api.input.ContentLength))
	assert.Equal(t, "RIFF1234WEBP", string(api.body))
	assert.Equal(t, "s3://media/uploads/photo.webp", c.ID("photo.webp"))
}

func TestS3_StoreError(t *testing.T) {
	c := NewS3OutputClientWithAPI(&fakeS3{err: errors.New("access denied")}, "media", "")
	err := c.Store(context.Background(), "photo.webp", upload(t, "x"), "image/webp")
	assert.ErrorContains(t, err, "access denied")
}

func TestNewS3OutputClient_WrongType(t *testing.T) {
	_, err := NewS3OutputClient(&config.OutputConfig{Storage: config.StorageConfig{Type: "local-unix"}})
	assert.Error(t, err)
}

func TestNewB2OutputClient_WrongType(t *testing.T) {
	_, err := NewB2OutputClient(&config.OutputConfig{Storage: config.StorageConfig{Type: "s3"}})
	assert.Error(t, err)
}
