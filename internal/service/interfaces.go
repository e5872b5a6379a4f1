package service

import "context"

// ImageStorage persists encoded image payloads and serves them back by URL.
// The production implementation is S3-backed; tests substitute an in-memory
// one.
type ImageStorage interface {
	Store(ctx context.Context, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}
