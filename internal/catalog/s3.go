package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sony/gobreaker/v2"

	"estatehub/internal/types"
)

// S3API is the subset of the S3 client used to read and publish catalog
// documents.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Breaker returns the circuit breaker guarding catalog object reads.
func NewS3Breaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
	})
}

// S3Source reads a catalog Document from an S3 object.
type S3Source struct {
	client  S3API
	bucket  string
	key     string
	breaker *gobreaker.CircuitBreaker[[]byte]
	now     func() time.Time
}

// NewS3Source creates an S3Source. A nil breaker gets the default settings.
func NewS3Source(client S3API, bucket, key string, breaker *gobreaker.CircuitBreaker[[]byte]) *S3Source {
	if breaker == nil {
		breaker = NewS3Breaker("catalog-s3")
	}
	return &S3Source{
		client:  client,
		bucket:  bucket,
		key:     key,
		breaker: breaker,
		now:     time.Now,
	}
}

func (s *S3Source) Name() string { return "s3://" + s.bucket + "/" + s.key }

func (s *S3Source) Load(ctx context.Context) (*Catalog, error) {
	data, err := s.breaker.Execute(func() ([]byte, error) {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key),
		})
		if err != nil {
			return nil, err
		}
		defer out.Body.Close()
		return io.ReadAll(out.Body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, types.NewAppError(types.ErrCodeUpstreamStorage, "catalog storage circuit open", err)
		}
		return nil, types.NewAppError(types.ErrCodeUpstreamStorage,
			fmt.Sprintf("fetching catalog object %s", s.Name()), err)
	}

	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, err
	}
	return doc.Build(s.now)
}

// S3Exporter publishes catalog snapshots as Documents to S3.
type S3Exporter struct {
	client   S3API
	bucket   string
	key      string
	compress bool
}

// NewS3Exporter creates an exporter writing to bucket/key.
func NewS3Exporter(client S3API, bucket, key string, compress bool) *S3Exporter {
	return &S3Exporter{client: client, bucket: bucket, key: key, compress: compress}
}

// Export writes c, tagging the object with the catalog version.
func (e *S3Exporter) Export(ctx context.Context, c *Catalog) error {
	body, err := EncodeDocument(DocumentOf(c), e.compress)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(e.key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{"catalog-version": c.Version()},
	}
	if e.compress {
		input.ContentEncoding = aws.String("zstd")
	}

	if _, err := e.client.PutObject(ctx, input); err != nil {
		return types.NewAppError(types.ErrCodeUpstreamStorage,
			fmt.Sprintf("writing catalog object s3://%s/%s", e.bucket, e.key), err)
	}
	return nil
}
