package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/errors"
	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
)

// S3Config configures the S3-backed stores.
type S3Config struct {
	Bucket string
	Region string
}

// S3ObjectStore implements ObjectStore on top of an S3 bucket. Writes go
// through the upload manager so large columnar objects are uploaded in parts.
type S3ObjectStore struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	logger   *zap.Logger
}

// NewS3ObjectStore builds a store using the default AWS credential chain and
// verifies bucket access.
func NewS3ObjectStore(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3ObjectStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New(errors.KindPermanent, "s3 bucket is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, errors.Wrap(err, errors.KindPermanent, "failed to load AWS configuration")
	}

	client := s3.NewFromConfig(awsCfg)
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, errors.Wrap(err, errors.KindPermanent, "s3 bucket is not accessible").
			WithDetail("bucket", cfg.Bucket)
	}

	return &S3ObjectStore{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		logger:   logger.With(zap.String("component", "s3_object_store")),
	}, nil
}

func (s *S3ObjectStore) Read(ctx context.Context, reference string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(reference),
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.Classify(err), "failed to get s3 object").
			WithDetail("reference", reference)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindTransient, "failed to read s3 object body").
			WithDetail("reference", reference)
	}
	return data, nil
}

func (s *S3ObjectStore) Write(ctx context.Context, reference string, data []byte) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(reference),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return errors.Wrap(err, errors.Classify(err), "failed to upload s3 object").
			WithDetail("reference", reference)
	}
	s.logger.Debug("object written",
		zap.String("reference", reference),
		zap.Int("bytes", len(data)))
	return nil
}

// S3DeadLetterStore persists error records as JSON objects under a prefix.
// The record ID maps to the object key, so Delete and Update address the
// record directly.
type S3DeadLetterStore struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3DeadLetterStore builds a dead-letter store sharing the object store's
// client.
func NewS3DeadLetterStore(store *S3ObjectStore, prefix string) *S3DeadLetterStore {
	if prefix == "" {
		prefix = "dead-letter"
	}
	return &S3DeadLetterStore{
		client: store.client,
		bucket: store.bucket,
		prefix: strings.TrimSuffix(prefix, "/"),
	}
}

func (s *S3DeadLetterStore) key(id string) string {
	return path.Join(s.prefix, fmt.Sprintf("%s.json", id))
}

func (s *S3DeadLetterStore) Enqueue(ctx context.Context, rec models.ErrorRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, errors.KindPermanent, "failed to marshal error record")
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(rec.ID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return errors.Wrap(err, errors.Classify(err), "failed to enqueue dead-letter record").
			WithDetail("id", rec.ID)
	}
	return nil
}

func (s *S3DeadLetterStore) Dequeue(ctx context.Context, max int) ([]models.ErrorRecord, error) {
	list, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(s.prefix + "/"),
		MaxKeys: aws.Int32(int32(max)),
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.Classify(err), "failed to list dead-letter records")
	}

	records := make([]models.ErrorRecord, 0, len(list.Contents))
	for _, obj := range list.Contents {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    obj.Key,
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.Classify(err), "failed to get dead-letter object").
				WithDetail("key", aws.ToString(obj.Key))
		}
		data, err := io.ReadAll(out.Body)
		out.Body.Close()
		if err != nil {
			return nil, errors.Wrap(err, errors.KindTransient, "failed to read dead-letter object")
		}
		var rec models.ErrorRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, errors.Wrap(err, errors.KindPermanent, "corrupt dead-letter record").
				WithDetail("key", aws.ToString(obj.Key))
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *S3DeadLetterStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		return errors.Wrap(err, errors.Classify(err), "failed to delete dead-letter record").
			WithDetail("id", id)
	}
	return nil
}

func (s *S3DeadLetterStore) Update(ctx context.Context, rec models.ErrorRecord) error {
	return s.Enqueue(ctx, rec)
}
