package casestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrInputFormat  = errors.New("invalid process number")
	ErrCaseNotFound = errors.New("process not found")
	ErrStorage      = errors.New("case store unavailable")
)

const DefaultManifestName = "documentos.yaml"

// Config is loaded with the CASESTORE prefix.
type Config struct {
	Root       string   `envconfig:"ROOT" split_words:"true" default:"processos"`
	Extensions []string `envconfig:"EXTENSIONS" split_words:"true" default:".pdf"`
	Manifest   string   `envconfig:"MANIFEST" split_words:"true" default:"documentos.yaml"`
}

// Case is a resolved case folder.
type Case struct {
	Number Number `json:"-"`
	ID     string `json:"identifier"`
	Path   string `json:"-"`
}

type Document struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Path string `json:"-"`
}

// CaseReader is the read contract the lookup tools run against.
type CaseReader interface {
	Resolve(ctx context.Context, n Number) (Case, error)
	ListDocuments(ctx context.Context, c Case) ([]Document, error)
}

var _ CaseReader = (*Store)(nil)

// Option customizes Store.
type Option func(*Store)

// WithTypeParser swaps the filename convention used to infer document types.
func WithTypeParser(p TypeParser) Option {
	return func(s *Store) {
		if p != nil {
			s.parseType = p
		}
	}
}

// WithExtensions restricts listings to files with one of the given extensions.
func WithExtensions(exts ...string) Option {
	return func(s *Store) {
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			s.extensions[ext] = struct{}{}
		}
	}
}

func WithManifestName(name string) Option {
	return func(s *Store) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			s.manifestName = trimmed
		}
	}
}

// Store is a read-only view over a directory of case folders.
// It keeps no state between calls.
type Store struct {
	root         string
	parseType    TypeParser
	extensions   map[string]struct{}
	manifestName string
}

func New(root string, opts ...Option) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("case store root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve case store root: %w", err)
	}

	s := &Store{
		root:         abs,
		parseType:    ParseTypeFromFilename,
		extensions:   map[string]struct{}{},
		manifestName: DefaultManifestName,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// NewFromConfig builds a Store from environment configuration.
func NewFromConfig(cfg Config) (*Store, error) {
	return New(cfg.Root,
		WithExtensions(cfg.Extensions...),
		WithManifestName(cfg.Manifest),
	)
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) Resolve(ctx context.Context, n Number) (Case, error) {
	if err := ctx.Err(); err != nil {
		return Case{}, err
	}
	if _, err := os.Stat(s.root); err != nil {
		return Case{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	folder := n.FolderName()
	path := filepath.Join(s.root, folder)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Case{}, fmt.Errorf("%w: %s", ErrCaseNotFound, n)
		}
		return Case{}, fmt.Errorf("%w: stat %s: %v", ErrStorage, folder, err)
	}
	if !info.IsDir() {
		return Case{}, fmt.Errorf("%w: %s", ErrCaseNotFound, n)
	}

	return Case{Number: n, ID: folder, Path: path}, nil
}

func (s *Store) ListDocuments(ctx context.Context, c Case) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(c.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCaseNotFound, c.ID)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorage, c.ID, err)
	}

	manifest, err := s.readManifest(c)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || strings.HasPrefix(name, ".") || name == s.manifestName {
			continue
		}
		if !s.acceptsExtension(name) {
			continue
		}

		docType, ok := manifest[name]
		if !ok {
			docType = s.parseType(name)
		}
		docs = append(docs, Document{
			Name: name,
			Type: strings.TrimSpace(docType),
			Path: filepath.Join(c.Path, name),
		})
	}
	return docs, nil
}

func (s *Store) acceptsExtension(name string) bool {
	if len(s.extensions) == 0 {
		return true
	}
	_, ok := s.extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// readManifest loads the optional filename -> type mapping of a case folder.
func (s *Store) readManifest(c Case) (map[string]string, error) {
	raw, err := os.ReadFile(filepath.Join(c.Path, s.manifestName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read manifest of %s: %v", ErrStorage, c.ID, err)
	}

	manifest := map[string]string{}
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("%w: decode manifest of %s: %v", ErrStorage, c.ID, err)
	}
	return manifest, nil
}
