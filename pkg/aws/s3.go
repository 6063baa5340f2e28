package aws

import (
	"bytes"
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter stores a single object.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error
}

type S3Client struct {
	client *s3.Client
}

// NewS3Client creates an S3 client. Path-style addressing is used when a
// custom endpoint is configured.
func NewS3Client(cfg sdkaws.Config) *S3Client {
	pathStyle := UsesCustomEndpoint()
	return &S3Client{client: s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = pathStyle
	})}
}

func (c *S3Client) PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        sdkaws.String(bucket),
		Key:           sdkaws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   sdkaws.String(contentType),
		ContentLength: sdkaws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("failed to put object s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}
