package openapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"
)

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFileSystem enables SourceKindFS sources.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(l *Loader) {
		l.fs = files
	}
}

// WithHTTPClient enables SourceKindURL sources using client.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *Loader) {
		l.client = client
	}
}

// WithTimeout caps remote fetches.
func WithTimeout(timeout time.Duration) LoaderOption {
	return func(l *Loader) {
		l.timeout = timeout
	}
}

// Loader fetches raw documents. Remote sources are disabled unless an HTTP
// client is configured.
type Loader struct {
	fs      fs.FS
	client  *http.Client
	timeout time.Duration
}

// NewLoader builds a Loader.
func NewLoader(options ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}
	return l
}

// Load returns the raw bytes of the document src points at.
func (l *Loader) Load(ctx context.Context, src Source) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if src.Location == "" {
		return nil, errors.New("openapi loader: location is required")
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind {
	case SourceKindFile:
		data, err = os.ReadFile(src.Location)
	case SourceKindFS:
		if l.fs == nil {
			return nil, errors.New("openapi loader: filesystem is not configured")
		}
		data, err = fs.ReadFile(l.fs, src.Location)
	case SourceKindURL:
		data, err = l.fetch(ctx, src.Location)
	default:
		return nil, fmt.Errorf("openapi loader: unsupported source kind %q", src.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("openapi loader: %s: %w", src, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("openapi loader: %s: document is empty", src)
	}
	return data, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	if l.client == nil {
		return nil, errors.New("http support disabled")
	}
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New("unexpected status " + resp.Status)
	}
	return io.ReadAll(resp.Body)
}
