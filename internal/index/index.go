// Package index fetches, caches and searches the package index: a YAML
// document of the form {packages: [{name, description, repository}]}.
package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/kamusis/byht/internal/config"
	"github.com/kamusis/byht/internal/logging"
)

// ErrPackageNotFound is returned by Find and Lookup when no record matches.
var ErrPackageNotFound = errors.New("package not found")

// ErrFetch wraps every transport failure while retrieving the index.
var ErrFetch = errors.New("cannot fetch index")

// Record is one installable package.
type Record struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Repository  string `yaml:"repository,omitempty"`
}

// Document is the serialized index.
type Document struct {
	Packages []Record `yaml:"packages"`
}

// ParseError reports a malformed index document.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid index %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse decodes an index document. An empty document is an empty index.
func Parse(data []byte, source string) ([]Record, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}
	return doc.Packages, nil
}

// Lookup returns the first record named name.
func Lookup(records []Record, name string) (Record, error) {
	for _, r := range records {
		if r.Name == name {
			return r, nil
		}
	}
	return Record{}, fmt.Errorf("%w: %s", ErrPackageNotFound, name)
}

// GetOptions controls cache use. The two flags are independent: a fetch can
// bypass the cache for reading yet still refresh it.
type GetOptions struct {
	// NoCache forces a fetch from the source even when a cache file exists.
	NoCache bool
	// SaveCache writes the fetched document to the cache file.
	SaveCache bool
}

// DefaultGetOptions prefers the cache and populates it on a miss.
var DefaultGetOptions = GetOptions{SaveCache: true}

// Fetcher reads the index from its source or from the local cache file.
type Fetcher struct {
	Source    Source
	CachePath string
	logger    zerolog.Logger
}

// NewFetcher builds a Fetcher for cfg.Repo cached at cfg.LocalIndex.
func NewFetcher(cfg *config.Config) (*Fetcher, error) {
	src, err := NewSource(cfg.Repo, S3Options{Region: cfg.S3Region, Endpoint: cfg.S3Endpoint})
	if err != nil {
		return nil, err
	}
	return New(src, cfg.LocalIndex), nil
}

// New returns a Fetcher reading from src and caching at cachePath.
func New(src Source, cachePath string) *Fetcher {
	return &Fetcher{Source: src, CachePath: cachePath, logger: logging.GetLogger("index")}
}

// Get returns the index records according to opts.
func (f *Fetcher) Get(ctx context.Context, opts GetOptions) ([]Record, error) {
	if !opts.NoCache {
		data, err := os.ReadFile(f.CachePath)
		if err == nil {
			f.logger.Debug().Str("path", f.CachePath).Msg("using cached index")
			return Parse(data, f.CachePath)
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("cannot read index cache %s: %w", f.CachePath, err)
		}
	}

	done := logging.LogOperationStart(f.logger, "fetch "+f.Source.String())
	data, err := f.Source.Fetch(ctx)
	done()
	if err != nil {
		return nil, err
	}
	records, err := Parse(data, f.Source.String())
	if err != nil {
		return nil, err
	}
	if opts.SaveCache {
		if err := writeCache(f.CachePath, data); err != nil {
			return nil, err
		}
		f.logger.Info().Str("path", f.CachePath).Int("packages", len(records)).Msg("index cache updated")
	}
	return records, nil
}

// Find resolves name using the default, cache-preferring policy.
func (f *Fetcher) Find(ctx context.Context, name string) (Record, error) {
	records, err := f.Get(ctx, DefaultGetOptions)
	if err != nil {
		return Record{}, err
	}
	return Lookup(records, name)
}

// writeCache replaces the cache file atomically.
func writeCache(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*.tmp")
	if err != nil {
		return fmt.Errorf("cannot write index cache: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("cannot write index cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cannot write index cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("cannot write index cache %s: %w", path, err)
	}
	return nil
}
