// Package s3sheet keeps each trial's roster as a CSV sheet object in an
// S3-compatible bucket (AWS S3 or MinIO). Credentials are resolved once, when
// the backend is constructed.
package s3sheet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/example/enroll/internal/models"
	"github.com/example/enroll/internal/ports/secondary"
	"github.com/example/enroll/internal/rostercodec"
)

const csvContentType = "text/csv; charset=utf-8"

// Backend implements secondary.RosterBackend over S3 objects.
type Backend struct {
	client *s3.Client
	bucket string
	prefix string
}

// Config holds explicit construction parameters. Empty credentials fall back
// to the default AWS credentials chain.
type Config struct {
	Region          string
	Bucket          string
	Prefix          string // object key prefix, e.g. "rosters/"
	Endpoint        string // optional; custom endpoint such as MinIO
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	PathStyle       bool
}

// New creates an S3 sheet backend from Config.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		// S3-compatible stores do not all accept the default trailing checksums.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	return newWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

func newWithClient(client *s3.Client, bucket, prefix string) *Backend {
	return &Backend{client: client, bucket: bucket, prefix: prefix}
}

// Name returns the driver name.
func (b *Backend) Name() string { return "s3" }

// Key returns the object key for a trial's sheet.
func (b *Backend) Key(trialID string) string {
	return b.prefix + trialID + ".csv"
}

// Load downloads and decodes the trial's sheet.
func (b *Backend) Load(ctx context.Context, trialID string) (models.Roster, error) {
	key := b.Key(trialID)
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &b.bucket, Key: &key})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("s3://%s/%s: %w", b.bucket, key, secondary.ErrNotFound)
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", b.bucket, key, err)
	}
	defer out.Body.Close()

	roster, err := rostercodec.DecodeCSV(out.Body)
	if err != nil {
		return nil, fmt.Errorf("parse s3://%s/%s: %w", b.bucket, key, err)
	}
	return roster, nil
}

// Save encodes the roster and overwrites the trial's sheet.
func (b *Backend) Save(ctx context.Context, trialID string, roster models.Roster) error {
	data, err := rostercodec.MarshalCSV(roster)
	if err != nil {
		return err
	}

	key := b.Key(trialID)
	contentType := csvContentType
	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &b.bucket,
		Key:           &key,
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   &contentType,
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", b.bucket, key, err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources needing release.
func (b *Backend) Close() error { return nil }

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}

var _ secondary.RosterBackend = (*Backend)(nil)
