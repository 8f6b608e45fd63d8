// Package archive keeps off-target copies of uploaded media in an
// S3-compatible bucket (Cloudflare R2). Archival is best effort; the
// generation pipeline treats failures as log-only.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/yazgan/pressgen/internal/logger"
	"github.com/yazgan/pressgen/internal/utils"
)

// R2Archive writes media files to an R2 bucket keyed by date and
// content hash so re-archiving the same bytes is idempotent.
type R2Archive struct {
	client *s3.Client
	bucket string
}

// Config carries the R2 connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// NewR2Archive builds an S3 client pointed at the R2 endpoint. R2 only
// accepts the "auto" region.
func NewR2Archive(ctx context.Context, cfg Config) (*R2Archive, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load archive credentials: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &R2Archive{client: client, bucket: cfg.Bucket}, nil
}

// Archive stores the file and returns its object key.
func (a *R2Archive) Archive(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	key := objectKey(filename, data)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", filename, err)
	}

	logger.Debug().
		Str("bucket", a.bucket).
		Str("key", key).
		Int("size", len(data)).
		Msg("media archived")
	return key, nil
}

func objectKey(filename string, data []byte) string {
	return fmt.Sprintf("media/%s/%s-%s",
		time.Now().UTC().Format("2006/01/02"),
		utils.ShortHash(string(data)),
		filename,
	)
}
