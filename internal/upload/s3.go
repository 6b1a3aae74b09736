package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config describes an S3-compatible bucket serving public images.
type S3Config struct {
	Endpoint  string // host[:port], no scheme
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string // key prefix inside the bucket
	PublicURL string // base URL objects are served from; defaults to the endpoint
	Insecure  bool   // plain HTTP
}

// objectPutter is the part of *minio.Client the uploader uses.
type objectPutter interface {
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// S3 uploads images to an S3-compatible bucket.
type S3 struct {
	cfg    S3Config
	client objectPutter
}

// NewS3 creates an S3 uploader with static credentials.
func NewS3(cfg S3Config) (*S3, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: !cfg.Insecure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("upload: s3 client: %w", err)
	}
	return &S3{cfg: cfg, client: client}, nil
}

// Upload implements Uploader. Objects get a unique key so repeated
// names never overwrite each other.
func (s *S3) Upload(ctx context.Context, data []byte, name string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyPayload
	}

	key := objectKey(s.cfg.Prefix, name)
	opts := minio.PutObjectOptions{ContentType: contentType(name)}
	if _, err := s.client.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return "", fmt.Errorf("%w: s3 put %s: %v", ErrUploadFailed, key, err)
	}
	return s.publicURL(key), nil
}

// objectKey builds "<prefix>/<uuid>-<slug>.<ext>".
func objectKey(prefix, name string) string {
	ext := strings.ToLower(path.Ext(name))
	base := slug.Make(strings.TrimSuffix(path.Base(name), path.Ext(name)))
	if base == "" {
		base = "image"
	}
	return path.Join(strings.Trim(prefix, "/"), uuid.NewString()+"-"+base+ext)
}

func (s *S3) publicURL(key string) string {
	base := strings.TrimRight(s.cfg.PublicURL, "/")
	if base == "" {
		scheme := "https"
		if s.cfg.Insecure {
			scheme = "http"
		}
		base = scheme + "://" + s.cfg.Endpoint + "/" + s.cfg.Bucket
	}
	return base + "/" + key
}

func contentType(name string) string {
	if t := mime.TypeByExtension(strings.ToLower(path.Ext(name))); t != "" {
		return t
	}
	return "application/octet-stream"
}
