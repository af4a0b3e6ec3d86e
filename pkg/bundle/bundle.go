// Package bundle populates an empty case store from a zip archive.
package bundle

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config is loaded with the BUNDLE prefix.
type Config struct {
	URL             string        `envconfig:"URL" split_words:"true"`
	DriveFileID     string        `envconfig:"DRIVE_FILE_ID" split_words:"true"`
	Timeout         time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10m"`
	MaxBytes        int64         `envconfig:"MAX_BYTES" split_words:"true" default:"2147483648"`
	StripComponents int           `envconfig:"STRIP_COMPONENTS" split_words:"true"`
	MinIO           MinIOConfig   `envconfig:"MINIO" split_words:"true"`
}

type MinIOConfig struct {
	Endpoint  string `envconfig:"ENDPOINT" split_words:"true"`
	AccessKey string `envconfig:"ACCESS_KEY" split_words:"true"`
	SecretKey string `envconfig:"SECRET_KEY" split_words:"true"`
	Bucket    string `envconfig:"BUCKET" split_words:"true"`
	Object    string `envconfig:"OBJECT" split_words:"true"`
	Region    string `envconfig:"REGION" split_words:"true" default:"us-east-1"`
	UseSSL    bool   `envconfig:"USE_SSL" split_words:"true" default:"true"`
}

var (
	ErrUnsafePath = errors.New("zip entry escapes target directory")
	ErrTooLarge   = errors.New("bundle exceeds size limit")
)

type InstallOptions struct {
	// MaxBytes caps the downloaded archive; 0 means no cap.
	MaxBytes int64
	// StripComponents drops leading path elements of every entry.
	StripComponents int
}

// IsPopulated reports whether dir exists and holds at least one entry.
func IsPopulated(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}

// Install downloads src to a temporary file and extracts it into dir.
// It returns the number of files written.
func Install(ctx context.Context, src Source, dir string, opts InstallOptions) (int, error) {
	if src == nil {
		return 0, ErrNoSource
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create bundle dir: %w", err)
	}

	tmp, err := os.CreateTemp("", "sei-bundle-*.zip")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	started := time.Now()
	log.Info().Str("source", src.String()).Str("dir", dir).Msg("downloading bundle")

	body, err := src.Open(ctx)
	if err != nil {
		return 0, err
	}
	size, err := copyLimited(tmp, body, opts.MaxBytes)
	body.Close()
	if err != nil {
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}

	log.Info().Int64("bytes", size).Dur("took", time.Since(started)).Msg("bundle downloaded")

	n, err := extract(ctx, tmp.Name(), dir, opts.StripComponents)
	if err != nil {
		return n, err
	}
	log.Info().Int("files", n).Str("dir", dir).Msg("bundle extracted")
	return n, nil
}

func copyLimited(dst io.Writer, src io.Reader, max int64) (int64, error) {
	if max <= 0 {
		n, err := io.Copy(dst, src)
		if err != nil {
			return n, fmt.Errorf("write bundle: %w", err)
		}
		return n, nil
	}
	n, err := io.Copy(dst, io.LimitReader(src, max+1))
	if err != nil {
		return n, fmt.Errorf("write bundle: %w", err)
	}
	if n > max {
		return n, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, max)
	}
	return n, nil
}

func extract(ctx context.Context, archive, dir string, strip int) (int, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		if errors.Is(err, zip.ErrInsecurePath) {
			if zr != nil {
				zr.Close()
			}
			return 0, fmt.Errorf("%w: %v", ErrUnsafePath, err)
		}
		return 0, fmt.Errorf("open bundle: %w", err)
	}
	defer zr.Close()

	root, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("resolve bundle dir: %w", err)
	}

	count := 0
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		target, ok, err := entryPath(root, f.Name, strip)
		if err != nil {
			return count, err
		}
		if !ok {
			continue
		}

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return count, fmt.Errorf("create %s: %w", f.Name, err)
			}
			continue
		case !mode.IsRegular():
			log.Warn().Str("entry", f.Name).Msg("skipping non-regular zip entry")
			continue
		}

		if err := writeEntry(f, target); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// entryPath maps a zip entry name to a path under root. ok is false for
// entries that vanish after stripping.
func entryPath(root, name string, strip int) (string, bool, error) {
	clean := strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(clean, "/") || filepath.IsAbs(clean) {
		return "", false, fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}

	parts := strings.Split(clean, "/")
	for _, p := range parts {
		if p == ".." {
			return "", false, fmt.Errorf("%w: %s", ErrUnsafePath, name)
		}
	}
	if strip > 0 {
		if len(parts) <= strip {
			return "", false, nil
		}
		parts = parts[strip:]
	}
	rel := filepath.Clean(filepath.Join(parts...))
	if rel == "." || rel == "" {
		return "", false, nil
	}

	target := filepath.Join(root, rel)
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", false, fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, true, nil
}

func writeEntry(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", f.Name, err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", f.Name, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return out.Close()
}

// EnsurePopulated installs the configured bundle into dir unless dir already
// has content. installed is false when nothing was done.
func EnsurePopulated(ctx context.Context, cfg Config, dir string) (installed bool, err error) {
	if IsPopulated(dir) {
		return false, nil
	}
	src, err := SourceFromConfig(cfg)
	if err != nil {
		return false, err
	}
	if _, err := Install(ctx, src, dir, InstallOptions{
		MaxBytes:        cfg.MaxBytes,
		StripComponents: cfg.StripComponents,
	}); err != nil {
		return false, err
	}
	return true, nil
}
