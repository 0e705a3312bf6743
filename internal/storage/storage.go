package storage

import (
	"context"
	"io"
	"time"
)

// Uploader stores an object and returns the object key. Buckets stay
// private; use a Signer to hand a browser a time-limited link.
type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (objectKey string, err error)
}

type Signer interface {
	SignedGetURL(ctx context.Context, objectName string, ttl time.Duration) (string, error)
}
