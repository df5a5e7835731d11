package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/unclebandit/suno-approvals/internal/config"
)

// ErrNoFile is returned when a piece has no file that can be served.
var ErrNoFile = errors.New("piece has no resolvable file")

// FileResolver turns a stored piece filename into a URL the reviewer can
// download from.
type FileResolver interface {
	Resolve(ctx context.Context, filename string) (string, error)
}

// StaticResolver serves files from a fixed base URL.
type StaticResolver struct {
	BaseURL string
}

func (s StaticResolver) Resolve(_ context.Context, filename string) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", ErrNoFile
	}
	return strings.TrimRight(s.BaseURL, "/") + "/" + url.PathEscape(filename), nil
}

// MinioResolver presigns GET URLs for objects in a bucket. Objects that do
// not exist resolve to ErrNoFile.
type MinioResolver struct {
	Client *minio.Client
	Bucket string
	Expiry time.Duration
}

func NewMinioResolver(cfg config.MinioConfig, expiry time.Duration) (*MinioResolver, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioResolver{Client: client, Bucket: cfg.Bucket, Expiry: expiry}, nil
}

func (m *MinioResolver) Resolve(ctx context.Context, filename string) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", ErrNoFile
	}
	if _, err := m.Client.StatObject(ctx, m.Bucket, filename, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", ErrNoFile
		}
		return "", fmt.Errorf("stat %s: %w", filename, err)
	}
	u, err := m.Client.PresignedGetObject(ctx, m.Bucket, filename, m.Expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", filename, err)
	}
	return u.String(), nil
}

// New picks the resolver configured by storage.driver.
func New(cfg *config.Config) (FileResolver, error) {
	switch cfg.Storage.Driver {
	case "minio":
		return NewMinioResolver(cfg.Minio, cfg.Storage.PresignExpiry)
	case "static", "":
		return StaticResolver{BaseURL: cfg.Storage.StaticBaseURL}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
