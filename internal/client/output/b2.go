package output

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Backblaze/blazer/b2"

	"github.com/SayaAndy/saya-today-webp-converter/config"
)

var _ OutputClient = (*B2OutputClient)(nil)

type B2OutputClient struct {
	prefix     string
	bucketName string
	bucket     *b2.Bucket
	b2cl       *b2.Client
}

func NewB2OutputClient(cfg *config.OutputConfig) (OutputClient, error) {
	if cfg.Storage.Type != "b2" {
		return nil, fmt.Errorf("invalid storage type for B2OutputClient")
	}
	b2cfg := cfg.Storage.Config.(*config.B2Config)

	b2cl, err := b2.NewClient(context.Background(), b2cfg.KeyID, b2cfg.ApplicationKey)
	if err != nil {
		return nil, err
	}

	bucket, err := b2cl.Bucket(context.Background(), b2cfg.BucketName)
	if err != nil {
		return nil, err
	}

	return &B2OutputClient{b2cl: b2cl, bucket: bucket, bucketName: b2cfg.BucketName, prefix: b2cfg.Prefix}, nil
}

func (c *B2OutputClient) Store(ctx context.Context, name string, localPath string, contentType string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("fail to open upload: %w", err)
	}
	defer src.Close()

	obj := c.bucket.Object(c.prefix + name)
	if obj == nil {
		return fmt.Errorf("failed to reference object in B2 bucket")
	}

	writer := obj.NewWriter(ctx, b2.WithAttrsOption(&b2.Attrs{ContentType: contentType}))
	if _, err := io.Copy(writer, src); err != nil {
		writer.Close()
		return fmt.Errorf("fail to upload object to B2: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("fail to finish B2 upload: %w", err)
	}

	return nil
}

func (c *B2OutputClient) ID(name string) string {
	return fmt.Sprintf("b2://%s/%s%s", c.bucketName, c.prefix, name)
}
