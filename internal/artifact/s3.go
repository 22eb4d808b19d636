package artifact

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"otasync/internal/config"
	"otasync/internal/telemetry"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	otelScopeName    = "artifact"
	otelAttrFileName = "file_name"
	otelAttrBucket   = "bucket"
)

// S3 uploads captures to an S3-compatible bucket.
type S3 struct {
	client    *s3.Client
	bucket    string
	directory string
	otel      telemetry.Otel
}

func NewS3(cfg *config.Config, otl telemetry.Otel) (*S3, error) {
	s3cfg := cfg.External.S3

	staticProvider := credentials.NewStaticCredentialsProvider(s3cfg.AccessKeyID, s3cfg.SecretAccessKey, "")

	awsCfg, err := awsConfig.LoadDefaultConfig(
		context.TODO(),
		awsConfig.WithCredentialsProvider(staticProvider),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s3cfg.APIEndpoint != "" {
			o.BaseEndpoint = aws.String(s3cfg.APIEndpoint)
			o.UsePathStyle = true
		}
		o.Region = s3cfg.Region
	})

	return &S3{
		client:    client,
		bucket:    s3cfg.BucketName,
		directory: s3cfg.Directory,
		otel:      otl,
	}, nil
}

func (s *S3) Save(ctx context.Context, name, contentType string, data []byte) (_ string, err error) {
	ctx, scope := s.otel.NewScope(ctx, otelScopeName, otelScopeName+".Save")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttributes(map[string]any{
		otelAttrFileName: name,
		otelAttrBucket:   s.bucket,
	})

	key := path.Join(s.directory, path.Base(name))
	reader := bytes.NewReader(data)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          reader,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(reader.Size()),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload artifact to S3: %w", err)
	}

	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
