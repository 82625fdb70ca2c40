// Package storage uploads report attachments to an S3 compatible bucket
// (Cloudflare R2 in production).
package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"hvac-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrNotConfigured is returned by the uploader used when no bucket is set.
var ErrNotConfigured = errors.New("storage: not configured")

// ErrInvalidImage reports an attachment that is not a decodable image.
var ErrInvalidImage = errors.New("storage: invalid image data")

// Uploader stores body under path and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, path string, body []byte, contentType string) (string, error)
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Uploader struct {
	client        objectPutter
	bucket        string
	publicBaseURL string
}

// NewS3Uploader builds a client for cfg.Storage. It returns a Disabled
// uploader when the bucket or credentials are missing.
func NewS3Uploader(ctx context.Context, cfg *config.Config) (Uploader, error) {
	sc := cfg.Storage
	if sc.Bucket == "" || sc.AccessKeyID == "" || sc.SecretAccessKey == "" {
		return Disabled{}, nil
	}

	region := sc.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			sc.AccessKeyID,
			sc.SecretAccessKey,
			"",
		)),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if sc.Endpoint != "" {
			o.BaseEndpoint = aws.String(sc.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Uploader(client, sc.Bucket, sc.PublicBaseURL), nil
}

func newS3Uploader(client objectPutter, bucket, publicBaseURL string) *S3Uploader {
	return &S3Uploader{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (u *S3Uploader) Upload(ctx context.Context, path string, body []byte, contentType string) (string, error) {
	key := strings.TrimLeft(path, "/")
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return u.publicBaseURL + "/" + key, nil
}

// Disabled rejects every upload.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, []byte, string) (string, error) {
	return "", ErrNotConfigured
}

// DecodeImage accepts raw base64 or a data: URL and returns the bytes with
// their content type and a file extension.
func DecodeImage(data string) ([]byte, string, string, error) {
	data = strings.TrimSpace(data)
	if i := strings.Index(data, ","); strings.HasPrefix(data, "data:") && i > 0 {
		data = data[i+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		if raw, err = base64.RawStdEncoding.DecodeString(data); err != nil {
			return nil, "", "", ErrInvalidImage
		}
	}
	if len(raw) == 0 {
		return nil, "", "", ErrInvalidImage
	}

	contentType := http.DetectContentType(raw)
	switch contentType {
	case "image/png":
		return raw, contentType, "png", nil
	case "image/jpeg":
		return raw, contentType, "jpg", nil
	case "image/webp":
		return raw, contentType, "webp", nil
	}
	return nil, "", "", ErrInvalidImage
}
