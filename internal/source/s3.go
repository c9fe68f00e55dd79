package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3 serves objects from one bucket as seekable sources. Seeking is cheap:
// the object body is fetched lazily with a ranged GET starting at the
// cursor, so a session that seeks once and reads forward costs a single
// request.
type S3 struct {
	client *s3.Client
	bucket string
}

// NewS3 builds a store over the bucket using the default AWS credential
// chain. A non-empty endpoint switches to path-style addressing for
// S3-compatible services.
func NewS3(ctx context.Context, bucket, region, endpoint string) (*S3, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3{client: client, bucket: bucket}, nil
}

// Open stats the object and returns a lazily-reading source positioned at
// offset zero. Missing keys surface as fs.ErrNotExist, matching the local
// store.
func (s *S3) Open(ctx context.Context, key string) (File, error) {
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil, fs.ErrNotExist
		}
		return nil, fmt.Errorf("head object %q: %w", key, err)
	}
	obj := &s3Object{
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   aws.ToInt64(head.ContentLength),
		ctx:    ctx,
	}
	if head.LastModified != nil {
		obj.modTime = *head.LastModified
	}
	return obj, nil
}

// s3Object reads an object through ranged GETs. The body stream opens at
// the cursor on first Read and is dropped by any repositioning Seek. The
// request context is captured at Open; the object lives within that
// request.
type s3Object struct {
	client  *s3.Client
	bucket  string
	key     string
	size    int64
	modTime time.Time
	ctx     context.Context

	offset int64
	body   io.ReadCloser
}

func (o *s3Object) Read(p []byte) (int, error) {
	if o.offset >= o.size {
		return 0, io.EOF
	}
	if o.body == nil {
		out, err := o.client.GetObject(o.ctx, &s3.GetObjectInput{
			Bucket: aws.String(o.bucket),
			Key:    aws.String(o.key),
			Range:  aws.String(fmt.Sprintf("bytes=%d-", o.offset)),
		})
		if err != nil {
			return 0, fmt.Errorf("get object %q: %w", o.key, err)
		}
		o.body = out.Body
	}
	n, err := o.body.Read(p)
	o.offset += int64(n)
	return n, err
}

func (o *s3Object) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = o.offset + offset
	case io.SeekEnd:
		abs = o.size + offset
	default:
		return 0, fs.ErrInvalid
	}
	if abs < 0 {
		return 0, fs.ErrInvalid
	}
	if abs != o.offset && o.body != nil {
		o.body.Close()
		o.body = nil
	}
	o.offset = abs
	return abs, nil
}

func (o *s3Object) Close() error {
	if o.body == nil {
		return nil
	}
	err := o.body.Close()
	o.body = nil
	return err
}

func (o *s3Object) Size() int64 {
	return o.size
}

func (o *s3Object) ModTime() time.Time {
	return o.modTime
}
