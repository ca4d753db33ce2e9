// Package nexushydrate resolves storage-relative attachment paths into
// short-lived signed URLs before events and query results reach clients.
package nexushydrate

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// Buckets are fixed per entity domain.
const (
	BucketMessageAttachments = "message-attachments"
	BucketDmAttachments      = "dm-attachments"
	BucketGroupAvatars       = "group-avatars"
)

// Signer issues a time-limited read URL for a stored object.
type Signer interface {
	SignedURL(ctx context.Context, bucket, path string, validity time.Duration) (string, error)
}

// S3Signer presigns GetObject requests against S3-compatible storage.
type S3Signer struct {
	api s3iface.S3API
}

func NewS3Signer(api s3iface.S3API) *S3Signer {
	return &S3Signer{api: api}
}

func (s *S3Signer) SignedURL(_ context.Context, bucket, path string, validity time.Duration) (string, error) {
	req, _ := s.api.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	})
	url, err := req.Presign(validity)
	if err != nil {
		return "", fmt.Errorf("presigning %v/%v: %w", bucket, path, err)
	}
	return url, nil
}
