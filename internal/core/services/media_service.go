package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	appconfig "malita-clinic/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// MediaService stores uploaded patient images and valid IDs in S3.
// When no bucket is configured the service is disabled and uploads
// resolve to an empty key.
type MediaService struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
}

// NewMediaService creates a new media service
func NewMediaService(cfg appconfig.S3Config) (*MediaService, error) {
	if cfg.Bucket == "" {
		log.Println("⚠️ S3 bucket not configured, media uploads disabled")
		return &MediaService{}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config, %v", err)
	}

	client := s3.NewFromConfig(awsCfg)
	log.Println("✅ S3 client initialized")

	return &MediaService{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
	}, nil
}

// IsEnabled reports whether uploads are backed by a real bucket
func (s *MediaService) IsEnabled() bool {
	return s.client != nil
}

// Upload stores a file under a random key within the given folder and
// returns the object key
func (s *MediaService) Upload(ctx context.Context, folder, filename, contentType string, file io.Reader) (string, error) {
	if !s.IsEnabled() {
		return "", nil
	}

	ext := strings.ToLower(path.Ext(filename))
	objectKey := fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %v", err)
	}

	return objectKey, nil
}

// PresignedURL generates a temporary download URL for an object key
func (s *MediaService) PresignedURL(ctx context.Context, objectKey string) (string, error) {
	if !s.IsEnabled() || objectKey == "" {
		return "", nil
	}

	request, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(1*time.Hour))
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %v", err)
	}

	return request.URL, nil
}
