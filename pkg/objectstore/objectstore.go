package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/cuemby/fnerd-orchestrator/pkg/config"
	"github.com/cuemby/fnerd-orchestrator/pkg/metrics"
)

// s3API is the subset of *s3.Client this package calls, so tests can
// supply a fake without standing up a real endpoint.
type s3API interface {
	manager.UploadAPIClient
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Uploader streams artifacts to an S3-compatible object store and
// verifies them afterward.
type Uploader struct {
	client   s3API
	uploader *manager.Uploader
	bucket   string
	cfg      config.Upload
}

// Credentials carries the access key pair the calling layer resolves;
// this package never reads them from the environment.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// New builds an Uploader against an AWS or S3-compatible endpoint.
// endpointURL is empty for AWS itself, or a custom URL for another
// S3-compatible store (a self-hosted MinIO, etc). A forward proxy is
// carried by httpClient; this package does not read config.Proxy.
func New(ctx context.Context, region, bucket, endpointURL string, creds Credentials, httpClient *http.Client, cfg config.Upload) (*Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken)),
	}
	if httpClient != nil {
		opts = append(opts, awsconfig.WithHTTPClient(httpClient))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("objectstore: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpointURL != "" {
			o.BaseEndpoint = &endpointURL
			o.UsePathStyle = true
		}
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = cfg.ChunkSize
		u.Concurrency = cfg.MaxConcurrency
		if cfg.ChunkSize <= 0 {
			u.PartSize = manager.MinUploadPartSize
		}
		if cfg.MaxConcurrency <= 0 {
			u.Concurrency = manager.DefaultUploadConcurrency
		}
	})

	return &Uploader{client: client, uploader: uploader, bucket: bucket, cfg: cfg}, nil
}

// Result is the uploaded object's location and terminal size/etag.
type Result struct {
	Key          string
	UploadedSize int64
	ETag         string
}

// Upload streams local (already opened by the caller so it can be
// closed in the same scope) to key, using multipart when its size
// reaches config.Upload.MultipartThreshold. Upload completion is
// advisory only: the caller must still call Head to confirm success
// (spec §4.3 VERIFY).
func (u *Uploader) Upload(ctx context.Context, key string, local io.Reader, size int64) (Result, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.UploadDuration)

	in := &s3.PutObjectInput{
		Bucket: &u.bucket,
		Key:    &key,
		Body:   local,
	}
	var etagPtr *string
	if size < u.cfg.MultipartThreshold {
		in.ContentLength = &size
		out, err := u.client.PutObject(ctx, in)
		if err != nil {
			return Result{}, fmt.Errorf("objectstore: upload %s: %w", key, err)
		}
		etagPtr = out.ETag
	} else {
		out, err := u.uploader.Upload(ctx, in)
		if err != nil {
			return Result{}, fmt.Errorf("objectstore: upload %s: %w", key, err)
		}
		etagPtr = out.ETag
	}

	metrics.UploadBytesTotal.Add(float64(size))

	etag := ""
	if etagPtr != nil {
		etag = *etagPtr
	}
	return Result{Key: key, UploadedSize: size, ETag: etag}, nil
}

// NotFound is returned by Head when the object does not exist.
type NotFound struct {
	Key string
}

func (e *NotFound) Error() string { return fmt.Sprintf("objectstore: %s not found", e.Key) }

// Head is the VERIFY phase's sole authoritative success signal: it
// issues a fresh HEAD request and returns the object's actual size and
// etag, independent of whatever Upload reported.
func (u *Uploader) Head(ctx context.Context, key string) (Result, error) {
	out, err := u.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &u.bucket, Key: &key})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			code := apiErr.ErrorCode()
			if code == "NotFound" || code == "NoSuchKey" {
				return Result{}, &NotFound{Key: key}
			}
		}
		return Result{}, fmt.Errorf("objectstore: head %s: %w", key, err)
	}

	size := int64(0)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	etag := ""
	if out.ETag != nil {
		etag = *out.ETag
	}
	return Result{Key: key, UploadedSize: size, ETag: etag}, nil
}

