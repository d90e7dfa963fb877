package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"nonprofit-backend/internal/config"
)

// S3Service handles object storage for documents and exports
type S3Service struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	region        string
	presignExpiry time.Duration
}

// PresignedUpload is the response for a presigned PUT request
type PresignedUpload struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewS3Service creates an S3 service from static credentials
func NewS3Service(cfg *config.S3Config) (*S3Service, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)

	return &S3Service{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.BucketName,
		region:        cfg.Region,
		presignExpiry: cfg.PresignExpiry,
	}, nil
}

// GenerateUploadURL creates a presigned PUT URL for a new document object
func (s *S3Service) GenerateUploadURL(orgID int64, fileName, contentType string) (*PresignedUpload, error) {
	key := buildObjectKey(orgID, fileName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.presignExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &PresignedUpload{
		URL:       req.URL,
		Key:       key,
		ExpiresAt: time.Now().Add(s.presignExpiry),
	}, nil
}

// GetFileURL creates a presigned GET URL for an existing object
func (s *S3Service) GetFileURL(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}

	return req.URL, nil
}

// GetPublicURL returns the canonical object URL (for public documents)
func (s *S3Service) GetPublicURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// UploadBytes writes a generated file (PDF export) directly to the bucket
func (s *S3Service) UploadBytes(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// DeleteFile removes an object (errors are logged by callers, not fatal)
func (s *S3Service) DeleteFile(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// buildObjectKey namespaces objects per organization with a random prefix
func buildObjectKey(orgID int64, fileName string) string {
	safe := strings.ReplaceAll(fileName, "/", "_")
	return fmt.Sprintf("orgs/%d/%s-%s", orgID, uuid.New().String(), safe)
}
