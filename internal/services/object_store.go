//go:generate mockgen -source ./object_store.go -destination=./mocks/object_store.go -package=mock_services

package services

import "context"

// ObjectStore is the upload half of the object storage API.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error)
}
