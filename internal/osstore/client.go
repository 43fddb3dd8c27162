// Package osstore wraps the Alibaba Cloud OSS SDK behind the orchestrator's
// object-store contract.
package osstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// Client grants access to one OSS bucket. It implements
// orchestrator.ObjectStore.
type Client struct {
	bucket     *oss.Bucket
	bucketName string
	endpoint   string
}

// NewClient connects to the bucket at the given endpoint.
func NewClient(endpoint, accessKeyID, accessKeySecret, bucketName string) (*Client, error) {
	cli, err := oss.New(endpoint, accessKeyID, accessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("oss client: %w", err)
	}
	bucket, err := cli.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("oss bucket %q: %w", bucketName, err)
	}
	return &Client{bucket: bucket, bucketName: bucketName, endpoint: endpoint}, nil
}

// PresignURL returns a time-bounded GET URL for the stored object. The SDK
// signs locally; ctx is accepted for contract symmetry with remote gateways.
func (c *Client) PresignURL(_ context.Context, object string, ttl time.Duration) (string, error) {
	return c.bucket.SignURL(object, oss.HTTPGet, int64(ttl.Seconds()))
}

// Upload stores the local file under object and returns its canonical URL.
func (c *Client) Upload(localPath, object string) (string, error) {
	if err := c.bucket.PutObjectFromFile(object, localPath); err != nil {
		return "", fmt.Errorf("oss upload %q: %w", object, err)
	}
	host := strings.TrimPrefix(strings.TrimPrefix(c.endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", c.bucketName, host, object), nil
}
