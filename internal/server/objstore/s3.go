package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dmitrijs2005/fileshare/internal/common"
	sc "github.com/dmitrijs2005/fileshare/internal/server/config"
)

// S3Store implements Store on an S3-compatible backend (AWS S3, MinIO).
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store wraps an existing S3 client.
func NewS3Store(client *s3.Client, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// NewS3StoreFromConfig builds the S3 client from static credentials and an
// optional base endpoint (MinIO-style deployments).
func NewS3StoreFromConfig(ctx context.Context, cfg *sc.Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config error: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return NewS3Store(client, cfg.S3Bucket), nil
}

func (s *S3Store) Initiate(ctx context.Context, key, contentType string, metadata map[string]string) (string, error) {
	result, err := s.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})
	if err != nil {
		return "", opError("upload", err)
	}

	return aws.ToString(result.UploadId), nil
}

func (s *S3Store) PutPart(ctx context.Context, key, uploadID string, partNumber int32, data []byte) (string, error) {
	result, err := s.client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		UploadId:      aws.String(uploadID),
		PartNumber:    aws.Int32(partNumber),
		ContentLength: aws.Int64(int64(len(data))),
		Body:          bytes.NewReader(data),
	})
	if err != nil {
		return "", opError("upload", err)
	}

	return aws.ToString(result.ETag), nil
}

func (s *S3Store) Complete(ctx context.Context, key, uploadID string, parts map[int32]string) error {
	completed := make([]types.CompletedPart, 0, len(parts))
	for number, etag := range parts {
		completed = append(completed, types.CompletedPart{
			PartNumber: aws.Int32(number),
			ETag:       aws.String(etag),
		})
	}
	sort.Slice(completed, func(i, j int) bool {
		return *completed[i].PartNumber < *completed[j].PartNumber
	})

	_, err := s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	if err != nil {
		return opError("upload", err)
	}

	return nil
}

func (s *S3Store) Abort(ctx context.Context, key, uploadID string) error {
	_, err := s.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	if err != nil {
		// aborting an already-gone upload is fine
		var noSuchUpload *types.NoSuchUpload
		if errors.As(err, &noSuchUpload) {
			return nil
		}
		return opError("upload", err)
	}

	return nil
}

func (s *S3Store) GetObject(ctx context.Context, key string) (*Object, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, opError("download", err)
	}

	return &Object{
		ContentType:   aws.ToString(result.ContentType),
		ContentLength: aws.ToInt64(result.ContentLength),
		Metadata:      result.Metadata,
		Body:          result.Body,
	}, nil
}

func (s *S3Store) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return opError("delete", err)
	}

	return nil
}

// opError converts an SDK error into *common.OpError, recovering the HTTP
// status of the store response when the call reached the store at all.
func opError(op string, err error) error {
	e := &common.OpError{Op: op, Err: err}

	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		e.Code = re.HTTPStatusCode()
		if re.Response != nil && re.Response.Response != nil {
			e.Text = re.Response.Status
		}
	}

	return e
}
