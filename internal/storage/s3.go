package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Config works for AWS S3 and S3-compatible stores such as Cloudflare R2 or MinIO.
type S3Config struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

type S3Store struct {
	Client  *s3.Client
	Presign *s3.PresignClient
	Bucket  string
}

var _ BlobStore = (*S3Store)(nil)

func NewS3Store(ctx context.Context, c S3Config) (*S3Store, error) {
	if strings.TrimSpace(c.Bucket) == "" {
		return nil, errors.New("s3 bucket is required")
	}
	region := c.Region
	if region == "" {
		region = "auto"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if c.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		Client:  client,
		Presign: s3.NewPresignClient(client),
		Bucket:  c.Bucket,
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, objectPath string, r io.Reader, contentType string) (int64, error) {
	// PutObject needs a seekable body to sign the payload over plain HTTP endpoints.
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read upload: %w", err)
	}

	in := &s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(objectPath),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.Client.PutObject(ctx, in); err != nil {
		return 0, fmt.Errorf("failed to upload to s3: %w", err)
	}
	return int64(len(data)), nil
}

func (s *S3Store) Open(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(objectPath),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrObjectNotExist
		}
		return nil, err
	}
	return out.Body, nil
}

func (s *S3Store) Copy(ctx context.Context, srcPath, dstPath string) error {
	_, err := s.Client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.Bucket),
		CopySource: aws.String(s.Bucket + "/" + url.PathEscape(srcPath)),
		Key:        aws.String(dstPath),
	})
	if isNoSuchKey(err) {
		return ErrObjectNotExist
	}
	return err
}

// isNoSuchKey also matches the generic API error CopyObject returns for a
// missing source, which carries the code but not the typed error.
func isNoSuchKey(err error) bool {
	if err == nil {
		return false
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey"
}

func (s *S3Store) Delete(ctx context.Context, objectPath string) error {
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(objectPath),
	})
	return err
}

func (s *S3Store) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	p := s3.NewListObjectsV2Paginator(s.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.Bucket),
		Prefix: aws.String(strings.TrimSuffix(prefix, "/") + "/"),
	})

	deleted := 0
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return deleted, err
		}
		for _, obj := range page.Contents {
			if err := s.Delete(ctx, aws.ToString(obj.Key)); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	return deleted, nil
}

func (s *S3Store) SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error) {
	req, err := s.Presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(objectPath),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
