package objectstore

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used for publishing.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Backend writes objects to Amazon S3. Client is created from the default
// AWS credential chain on first use when not set.
type S3Backend struct {
	Client S3API
}

// NewS3Backend returns a backend that resolves credentials lazily.
func NewS3Backend() *S3Backend {
	return &S3Backend{}
}

// Put uploads body to s3://bucket/key.
func (b *S3Backend) Put(ctx context.Context, loc Location, body io.Reader) error {
	if b.Client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("load AWS config: %w", err)
		}
		b.Client = s3.NewFromConfig(cfg)
	}

	_, err := b.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(loc.Bucket),
		Key:         aws.String(loc.Key),
		Body:        body,
		ContentType: aws.String(contentType(loc)),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}
