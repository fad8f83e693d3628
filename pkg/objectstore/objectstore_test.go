package objectstore

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithy "github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/fnerd-orchestrator/pkg/config"
)

type fakeS3 struct {
	putObjectFn  func(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	headObjectFn func(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return f.putObjectFn(ctx, in, opts...)
}

func (f *fakeS3) UploadPart(ctx context.Context, in *s3.UploadPartInput, opts ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return &s3.UploadPartOutput{}, nil
}

func (f *fakeS3) CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, opts ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	id := "upload-1"
	return &s3.CreateMultipartUploadOutput{UploadId: &id}, nil
}

func (f *fakeS3) CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, opts ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return &s3.CompleteMultipartUploadOutput{}, nil
}

func (f *fakeS3) AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, opts ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return &s3.AbortMultipartUploadOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return f.headObjectFn(ctx, in, opts...)
}

func newTestUploader(t *testing.T, api s3API) *Uploader {
	t.Helper()
	return &Uploader{
		client:   api,
		uploader: manager.NewUploader(api),
		bucket:   "forensics",
		cfg:      config.Default().Upload,
	}
}

func TestUploadReturnsETagAndSize(t *testing.T) {
	etag := `"abc123"`
	api := &fakeS3{
		putObjectFn: func(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			return &s3.PutObjectOutput{ETag: &etag}, nil
		},
	}
	u := newTestUploader(t, api)

	result, err := u.Upload(context.Background(), "kape/WIN-1/out.vhdx", strings.NewReader("data"), 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.UploadedSize)
	assert.Equal(t, etag, result.ETag)
}

func TestHeadReturnsNotFound(t *testing.T) {
	api := &fakeS3{
		headObjectFn: func(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
			return nil, &smithy.GenericAPIError{Code: "NotFound", Message: "no such key"}
		},
	}
	u := newTestUploader(t, api)

	_, err := u.Head(context.Background(), "kape/WIN-1/missing.vhdx")
	require.Error(t, err)
	var nf *NotFound
	require.ErrorAs(t, err, &nf)
}

func TestHeadReturnsVerifiedSize(t *testing.T) {
	size := int64(2048)
	api := &fakeS3{
		headObjectFn: func(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
			return &s3.HeadObjectOutput{ContentLength: &size}, nil
		},
	}
	u := newTestUploader(t, api)

	result, err := u.Head(context.Background(), "kape/WIN-1/out.vhdx")
	require.NoError(t, err)
	assert.Equal(t, int64(2048), result.UploadedSize)
}
