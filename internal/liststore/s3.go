package liststore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/quotecast/quotecast/internal/model"
)

// S3API is the subset of the S3 client used by S3Backend.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Backend keeps each list as a text object under bucket/prefix.
// Append is a read-modify-write because objects cannot be appended to.
type S3Backend struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Client builds an S3 client from the default AWS credential chain.
// A non-empty endpoint targets an S3-compatible store with path-style
// addressing.
func NewS3Client(ctx context.Context, region, endpoint string) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for list storage: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewS3Backend creates an S3Backend.
func NewS3Backend(client S3API, bucket, prefix string) *S3Backend {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Backend{client: client, bucket: bucket, prefix: prefix}
}

func (b *S3Backend) key(list model.ListName) string {
	return b.prefix + string(list) + ".txt"
}

// Read implements Backend.
func (b *S3Backend) Read(ctx context.Context, list model.ListName) ([]string, bool, error) {
	resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(list)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("S3 GetObject %s/%s: %w", b.bucket, b.key(list), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("reading S3 object body: %w", err)
	}
	return strings.Split(string(body), "\n"), true, nil
}

// Write implements Backend.
func (b *S3Backend) Write(ctx context.Context, list model.ListName, lines []string) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.key(list)),
		Body:        bytes.NewReader([]byte(joinLines(lines))),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("S3 PutObject %s/%s: %w", b.bucket, b.key(list), err)
	}
	return nil
}

// Append implements Backend.
func (b *S3Backend) Append(ctx context.Context, list model.ListName, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	existing, _, err := b.Read(ctx, list)
	if err != nil {
		return err
	}
	return b.Write(ctx, list, append(cleanLines(existing), lines...))
}
