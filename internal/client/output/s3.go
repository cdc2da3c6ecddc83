package output

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/SayaAndy/saya-today-webp-converter/config"
)

var _ OutputClient = (*S3OutputClient)(nil)

// S3API is the part of *s3.Client the output client needs.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3OutputClient struct {
	prefix     string
	bucketName string
	client     S3API
}

func NewS3OutputClient(cfg *config.OutputConfig) (OutputClient, error) {
	if cfg.Storage.Type != "s3" {
		return nil, fmt.Errorf("invalid storage type for S3OutputClient")
	}
	s3cfg := cfg.Storage.Config.(*config.S3Config)

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(s3cfg.Region)}
	if s3cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3cfg.AccessKeyID, s3cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("fail to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s3cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
		}
		o.UsePathStyle = s3cfg.UsePathStyle
	})

	return NewS3OutputClientWithAPI(client, s3cfg.BucketName, s3cfg.Prefix), nil
}

func NewS3OutputClientWithAPI(client S3API, bucketName, prefix string) *S3OutputClient {
	return &S3OutputClient{client: client, bucketName: bucketName, prefix: prefix}
}

func (c *S3OutputClient) Store(ctx context.Context, name string, localPath string, contentType string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("fail to open upload: %w", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("fail to stat upload: %w", err)
	}

	_, err = c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucketName),
		Key:           aws.String(c.prefix + name),
		Body:          src,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		return fmt.Errorf("fail to put object to S3: %w", err)
	}

	return nil
}

func (c *S3OutputClient) ID(name string) string {
	return fmt.Sprintf("s3://%s/%s%s", c.bucketName, c.prefix, name)
}
