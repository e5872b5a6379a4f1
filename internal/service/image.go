package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/foodgram/backend/config"
)

// ImageService stores uploaded images in S3 and returns their public URLs.
type ImageService struct {
	s3Config *config.S3Config
}

// NewImageService creates a new ImageService instance
func NewImageService(s3Config *config.S3Config) *ImageService {
	return &ImageService{s3Config: s3Config}
}

// DecodeBase64Image parses a "data:image/<ext>;base64,<payload>" data URI
// and returns the raw bytes and content type.
func DecodeBase64Image(dataURI string) ([]byte, string, error) {
	if !strings.HasPrefix(dataURI, "data:image/") {
		return nil, "", fieldErr("image", "image must be a base64 data URI")
	}
	parts := strings.SplitN(dataURI, ";base64,", 2)
	if len(parts) != 2 {
		return nil, "", fieldErr("image", "image must be base64 encoded")
	}
	contentType := strings.TrimPrefix(parts[0], "data:")
	data, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, "", fieldErr("image", "invalid base64 image payload")
	}
	return data, contentType, nil
}

// Store uploads image data to S3 and returns the public URL.
func (s *ImageService) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	ext := "png"
	if i := strings.Index(contentType, "/"); i >= 0 {
		ext = contentType[i+1:]
	}
	key := fmt.Sprintf("images/%s.%s", uuid.New().String(), ext)

	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, key)
	log.Printf("[ImageService] uploaded image to %s", publicURL)
	return publicURL, nil
}

// Delete removes a previously stored image by its public URL. Unknown URLs
// are ignored so callers can overwrite avatars unconditionally.
func (s *ImageService) Delete(ctx context.Context, url string) error {
	prefix := fmt.Sprintf("https://%s.s3.amazonaws.com/", s.s3Config.BucketName)
	if !strings.HasPrefix(url, prefix) {
		return nil
	}
	key := strings.TrimPrefix(url, prefix)

	_, err := s.s3Config.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.s3Config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}
