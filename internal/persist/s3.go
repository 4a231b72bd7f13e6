package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/hashicorp/go-hclog"
)

// S3Sink stores every batch as a JSON object under prefix/<run id>/.
type S3Sink struct {
	uploader s3manageriface.UploaderAPI
	bucket   string
	prefix   string
	logger   hclog.Logger
}

// NewS3Sink creates a sink uploading to bucket with the default AWS
// credential chain.
func NewS3Sink(region, bucket, prefix string, logger hclog.Logger) (*S3Sink, error) {
	awsCfg := &aws.Config{}
	if region != "" {
		awsCfg.Region = aws.String(region)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}
	return newS3Sink(s3manager.NewUploader(sess), bucket, prefix, logger), nil
}

func newS3Sink(uploader s3manageriface.UploaderAPI, bucket, prefix string, logger hclog.Logger) *S3Sink {
	return &S3Sink{uploader: uploader, bucket: bucket, prefix: prefix, logger: logger}
}

func (s *S3Sink) Name() string {
	return "s3"
}

// ObjectKey returns the key a batch is stored under.
func (s *S3Sink) ObjectKey(b Batch) string {
	return path.Join(s.prefix, b.RunID, fmt.Sprintf("batch-%04d.json", b.Index))
}

// Persist uploads b as one object.
func (s *S3Sink) Persist(ctx context.Context, b Batch) error {
	body, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}

	key := s.ObjectKey(b)
	result, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %q: %w", key, err)
	}
	s.logger.Debug("uploaded batch", "bucket", s.bucket, "key", key, "location", result.Location)
	return nil
}
