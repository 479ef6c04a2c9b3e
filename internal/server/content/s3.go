package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/cloudrive/internal/common"
)

// DefaultPartSize is the S3 minimum for every multipart part but the last.
const DefaultPartSize = 5 * 1024 * 1024

// s3API is the subset of *s3.Client used by S3Store.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPart(ctx context.Context, in *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config carries connection settings for an S3-compatible endpoint.
type S3Config struct {
	User     string
	Password string
	Bucket   string
	Region   string
	Endpoint string
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Store keeps one object per ref. Uploads are streamed in parts of
// partSize bytes, so at most one part is held in memory.
type S3Store struct {
	client   s3API
	bucket   string
	partSize int
}

// NewS3Store builds a client with static credentials. A non-empty Endpoint
// switches to path-style addressing, as required by MinIO.
func NewS3Store(ctx context.Context, c S3Config) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.User, c.Password, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Store(client, c.Bucket, DefaultPartSize), nil
}

func newS3Store(client s3API, bucket string, partSize int) *S3Store {
	return &S3Store{client: client, bucket: bucket, partSize: partSize}
}

func (s *S3Store) Put(ctx context.Context, owner string, r io.Reader) (string, int64, error) {
	ref, err := NewRef(owner)
	if err != nil {
		return "", 0, err
	}
	src := &ctxReader{ctx: ctx, r: r}
	buf := make([]byte, s.partSize)

	n, last, err := readPart(src, buf)
	if err != nil {
		return "", 0, fmt.Errorf("%w: read %s: %w", common.ErrorIO, ref, err)
	}
	if last {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(ref),
			Body:          bytes.NewReader(buf[:n]),
			ContentLength: aws.Int64(int64(n)),
		})
		if err != nil {
			return "", 0, fmt.Errorf("%w: put %s: %v", common.ErrorIO, ref, err)
		}
		return ref, int64(n), nil
	}

	size, err := s.putMultipart(ctx, ref, src, buf, n)
	if err != nil {
		return "", 0, err
	}
	return ref, size, nil
}

// putMultipart uploads buf[:n] as the first part and keeps reading src until
// it is exhausted. Any failure aborts the upload.
func (s *S3Store) putMultipart(ctx context.Context, ref string, src io.Reader, buf []byte, n int) (int64, error) {
	created, err := s.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: begin multipart %s: %v", common.ErrorIO, ref, err)
	}
	uploadID := created.UploadId

	abort := func(cause error) (int64, error) {
		// the request context may already be gone
		_, _ = s.client.AbortMultipartUpload(context.WithoutCancel(ctx), &s3.AbortMultipartUploadInput{
			Bucket:   aws.String(s.bucket),
			Key:      aws.String(ref),
			UploadId: uploadID,
		})
		return 0, cause
	}

	var (
		parts []types.CompletedPart
		total int64
		last  bool
	)
	for partNumber := int32(1); ; partNumber++ {
		out, err := s.client.UploadPart(ctx, &s3.UploadPartInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(ref),
			UploadId:      uploadID,
			PartNumber:    aws.Int32(partNumber),
			Body:          bytes.NewReader(buf[:n]),
			ContentLength: aws.Int64(int64(n)),
		})
		if err != nil {
			return abort(fmt.Errorf("%w: upload part %d of %s: %v", common.ErrorIO, partNumber, ref, err))
		}
		parts = append(parts, types.CompletedPart{ETag: out.ETag, PartNumber: aws.Int32(partNumber)})
		total += int64(n)

		if last {
			break
		}
		n, last, err = readPart(src, buf)
		if err != nil {
			return abort(fmt.Errorf("%w: read %s: %w", common.ErrorIO, ref, err))
		}
		if n == 0 {
			break
		}
	}

	_, err = s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(s.bucket),
		Key:             aws.String(ref),
		UploadId:        uploadID,
		MultipartUpload: &types.CompletedMultipartUpload{Parts: parts},
	})
	if err != nil {
		return abort(fmt.Errorf("%w: complete multipart %s: %v", common.ErrorIO, ref, err))
	}
	return total, nil
}

// readPart fills buf as far as src allows. last is true when src ended
// before buf was full.
func readPart(src io.Reader, buf []byte) (n int, last bool, err error) {
	n, err = io.ReadFull(src, buf)
	switch {
	case err == nil:
		return n, false, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return n, true, nil
	default:
		return n, false, err
	}
}

func (s *S3Store) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if _, _, err := ParseRef(ref); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("content %s: %w", ref, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("%w: get %s: %v", common.ErrorIO, ref, err)
	}
	return out.Body, nil
}

// Remove relies on DeleteObject succeeding for absent keys.
func (s *S3Store) Remove(ctx context.Context, ref string) error {
	if _, _, err := ParseRef(ref); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", common.ErrorIO, ref, err)
	}
	return nil
}

func (s *S3Store) Walk(ctx context.Context, fn func(ObjectInfo) error) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("%w: list objects: %v", common.ErrorIO, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if _, _, err := ParseRef(key); err != nil {
				continue
			}
			info := ObjectInfo{Ref: key, Size: aws.ToInt64(obj.Size), ModTime: aws.ToTime(obj.LastModified)}
			if err := fn(info); err != nil {
				return err
			}
		}
	}
	return nil
}
