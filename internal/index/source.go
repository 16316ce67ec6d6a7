package index

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Source retrieves the raw index document.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	String() string
}

// S3Options configures s3:// sources.
type S3Options struct {
	Region string
	// Endpoint overrides the S3 endpoint (path-style addressing is used).
	Endpoint string
}

// NewSource picks a Source from the URL scheme: http, https, file or s3.
func NewSource(raw string, s3opts S3Options) (Source, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid index URL %q: %w", raw, err)
	}
	switch u.Scheme {
	case "http", "https":
		return &HTTPSource{URL: raw, Client: http.DefaultClient}, nil
	case "file":
		return &FileSource{Path: u.Path}, nil
	case "s3":
		if u.Host == "" || strings.Trim(u.Path, "/") == "" {
			return nil, fmt.Errorf("invalid index URL %q (expected s3://bucket/key)", raw)
		}
		return NewS3Source(u.Host, strings.TrimPrefix(u.Path, "/"), s3opts), nil
	default:
		return nil, fmt.Errorf("unsupported index URL scheme %q in %s", u.Scheme, raw)
	}
}

// HTTPSource fetches the index with a GET request.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s *HTTPSource) String() string { return s.URL }

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", "byht")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: GET %s: %s", ErrFetch, s.URL, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrFetch, s.URL, err)
	}
	return body, nil
}

// FileSource reads the index from a local path (file:// URLs).
type FileSource struct {
	Path string
}

func (s *FileSource) String() string { return "file://" + s.Path }

// Fetch implements Source.
func (s *FileSource) Fetch(_ context.Context) ([]byte, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return b, nil
}

// S3Source reads the index object from a public bucket.
type S3Source struct {
	Bucket string
	Key    string
	client *s3.Client
}

// NewS3Source builds an anonymous S3 client for bucket/key.
func NewS3Source(bucket, key string, opts S3Options) *S3Source {
	o := s3.Options{
		Region:      opts.Region,
		Credentials: aws.AnonymousCredentials{},
	}
	if opts.Endpoint != "" {
		o.BaseEndpoint = aws.String(opts.Endpoint)
		o.UsePathStyle = true
	}
	return &S3Source{Bucket: bucket, Key: key, client: s3.New(o)}
}

func (s *S3Source) String() string { return "s3://" + s.Bucket + "/" + s.Key }

// Fetch implements Source.
func (s *S3Source) Fetch(ctx context.Context) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, s, err)
	}
	defer out.Body.Close()
	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrFetch, s, err)
	}
	return b, nil
}
