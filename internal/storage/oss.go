package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// objectAPI is the subset of *oss.Bucket used by OSS.
type objectAPI interface {
	PutObject(objectKey string, reader io.Reader, options ...oss.Option) error
	DeleteObject(objectKey string, options ...oss.Option) error
}

// OSS stores images in an Aliyun OSS bucket with public-read objects.
type OSS struct {
	bucket objectAPI
	base   string
}

var _ BlobStore = (*OSS)(nil)

// NewOSS connects to the bucket. endpoint may be given with or without scheme.
func NewOSS(endpoint, accessKeyID, accessKeySecret, bucketName string) (*OSS, error) {
	if endpoint == "" || accessKeyID == "" || accessKeySecret == "" || bucketName == "" {
		return nil, fmt.Errorf("oss: endpoint, access key and bucket are required")
	}

	client, err := oss.New(endpoint, accessKeyID, accessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("create oss client: %w", err)
	}

	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("open oss bucket: %w", err)
	}

	return newOSS(bucket, endpoint, bucketName), nil
}

func newOSS(bucket objectAPI, endpoint, bucketName string) *OSS {
	host := strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	host = strings.TrimRight(host, "/")
	return &OSS{
		bucket: bucket,
		base:   "https://" + bucketName + "." + host,
	}
}

func (s *OSS) Upload(ctx context.Context, folder, name, contentType string, r io.Reader) (Object, error) {
	key := objectKey(folder, name)

	opts := []oss.Option{oss.WithContext(ctx), oss.ObjectACL(oss.ACLPublicRead)}
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}

	if err := s.bucket.PutObject(key, r, opts...); err != nil {
		return Object{}, fmt.Errorf("put object %s: %w", key, err)
	}

	return Object{URL: s.base + "/" + escapeKey(key), ID: key}, nil
}

func (s *OSS) Delete(ctx context.Context, id string) error {
	if err := s.bucket.DeleteObject(id, oss.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete object %s: %w", id, err)
	}
	return nil
}

func (s *OSS) Hosts(rawURL string) bool {
	return strings.HasPrefix(rawURL, s.base+"/")
}

func (s *OSS) IDFromURL(rawURL string) (string, bool) {
	return keyFromURL(s.base, rawURL)
}
