// Package storage keeps uploaded and exported files in object storage and
// records them per user.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	gcs "google.golang.org/api/storage/v1"
	"google.golang.org/api/option"
)

// Uploader puts objects somewhere reachable by URL.
type Uploader interface {
	Put(ctx context.Context, name, contentType string, r io.Reader) (url string, err error)
	Remove(ctx context.Context, name string) error
}

// GCS stores objects in a Google Cloud Storage bucket, publicly readable.
type GCS struct {
	svc    *gcs.Service
	bucket string
}

func NewGCS(ctx context.Context, bucket, credentialsFile string) (*GCS, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := gcs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: new gcs service: %w", err)
	}
	return &GCS{svc: svc, bucket: bucket}, nil
}

func (g *GCS) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	obj := &gcs.Object{Name: name, ContentType: contentType}
	_, err := g.svc.Objects.Insert(g.bucket, obj).
		Media(r).
		PredefinedAcl("publicRead").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("storage: upload %s: %w", name, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, escapePath(name)), nil
}

func (g *GCS) Remove(ctx context.Context, name string) error {
	if err := g.svc.Objects.Delete(g.bucket, name).Context(ctx).Do(); err != nil {
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	return nil
}

// Local saves files under a directory served at baseURL + "/uploads".
// Used when no bucket is configured.
type Local struct {
	dir     string
	baseURL string
}

func NewLocal(dir, baseURL string) *Local {
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (l *Local) path(name string) (string, error) {
	p := filepath.Join(l.dir, filepath.FromSlash(name))
	if !strings.HasPrefix(p, filepath.Clean(l.dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: invalid object name %q", name)
	}
	return p, nil
}

func (l *Local) Put(_ context.Context, name, _ string, r io.Reader) (string, error) {
	p, err := l.path(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("storage: %w", err)
	}
	f, err := os.Create(p)
	if err != nil {
		return "", fmt.Errorf("storage: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return "", fmt.Errorf("storage: write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(p)
		return "", fmt.Errorf("storage: close %s: %w", name, err)
	}
	return l.baseURL + "/uploads/" + escapePath(name), nil
}

// escapePath escapes each segment of a slash separated object name.
func escapePath(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func (l *Local) Remove(_ context.Context, name string) error {
	p, err := l.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}
