package bundle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Source yields the bytes of a zip bundle.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

var ErrNoSource = errors.New("no bundle source configured")

// HTTPSource downloads a bundle with a plain GET.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) String() string {
	return s.URL
}

func (s HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build bundle request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download bundle: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("download bundle: unexpected status %d", resp.StatusCode)
	}
	// Drive answers with an HTML page instead of the file when it wants a
	// confirmation or the file is not public.
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && mt == "text/html" {
		resp.Body.Close()
		return nil, errors.New("download bundle: server returned an html page, not a zip archive")
	}
	return resp.Body, nil
}

const driveDownloadURL = "https://drive.usercontent.google.com/download"

// DriveSource builds a source for a publicly shared Google Drive file.
func DriveSource(fileID string, client *http.Client) HTTPSource {
	q := url.Values{}
	q.Set("id", strings.TrimSpace(fileID))
	q.Set("export", "download")
	q.Set("confirm", "t")
	return HTTPSource{URL: driveDownloadURL + "?" + q.Encode(), Client: client}
}

// MinIOSource reads a bundle object from S3-compatible storage.
type MinIOSource struct {
	client *minio.Client
	bucket string
	object string
}

func NewMinIOSource(cfg MinIOConfig) (*MinIOSource, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.Bucket == "" || cfg.Object == "" {
		return nil, fmt.Errorf("minio bucket and object are required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIOSource{client: cli, bucket: cfg.Bucket, object: cfg.Object}, nil
}

func (s *MinIOSource) String() string {
	return "s3://" + s.bucket + "/" + s.object
}

func (s *MinIOSource) Open(ctx context.Context) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get bundle object: %w", err)
	}
	return obj, nil
}

// SourceFromConfig picks the first configured source: URL, Drive file, then
// MinIO object.
func SourceFromConfig(cfg Config) (Source, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	switch {
	case strings.TrimSpace(cfg.URL) != "":
		return HTTPSource{URL: strings.TrimSpace(cfg.URL), Client: client}, nil
	case strings.TrimSpace(cfg.DriveFileID) != "":
		return DriveSource(cfg.DriveFileID, client), nil
	case strings.TrimSpace(cfg.MinIO.Object) != "":
		return NewMinIOSource(cfg.MinIO)
	default:
		return nil, ErrNoSource
	}
}
