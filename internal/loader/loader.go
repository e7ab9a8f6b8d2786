// Package loader fetches schema documents for the command line tools. The
// tree packages never perform I/O; this is the collaborator that does.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/goliatone/go-datatree/pkg/schema"
)

// Option customises a Loader.
type Option func(*Loader)

// WithFS sets the filesystem SourceKindFS entries are read from.
func WithFS(files fs.FS) Option {
	return func(l *Loader) {
		l.fs = files
	}
}

// WithHTTPClient enables URL sources using client.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		if client == nil {
			return
		}
		clone := *client
		l.http = &clone
	}
}

// WithHTTP enables URL sources with a default client.
func WithHTTP() Option {
	return func(l *Loader) {
		if l.http == nil {
			l.http = &http.Client{}
		}
	}
}

// WithTimeout bounds each HTTP request.
func WithTimeout(timeout time.Duration) Option {
	return func(l *Loader) {
		l.timeout = timeout
	}
}

// Loader reads raw schema documents from files, an fs.FS or HTTP.
type Loader struct {
	fs      fs.FS
	http    *http.Client
	timeout time.Duration
}

// New constructs a Loader. HTTP is disabled unless WithHTTP or WithHTTPClient
// is given.
func New(options ...Option) *Loader {
	l := &Loader{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}
	if l.http != nil && l.timeout > 0 && l.http.Timeout == 0 {
		l.http.Timeout = l.timeout
	}
	return l
}

// Load returns the raw bytes of the document at src.
func (l *Loader) Load(ctx context.Context, src Source) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("loader: context is required")
	}
	if src == nil {
		return nil, errors.New("loader: source is nil")
	}
	switch src.Kind() {
	case SourceKindFile:
		return loadFile(ctx, src.Location())
	case SourceKindFS:
		return loadFromFS(ctx, l.fs, src.Location())
	case SourceKindURL:
		if l.http == nil {
			return nil, errors.New("loader: http support disabled")
		}
		return loadHTTP(ctx, l.http, src.Location(), l.timeout)
	default:
		return nil, fmt.Errorf("loader: unsupported source kind %q", src.Kind())
	}
}

// Document loads src and parses it. With openAPI set the payload is read as
// an OpenAPI 3 document; otherwise as a native JSON/YAML schema document.
func (l *Loader) Document(ctx context.Context, src Source, openAPI bool) (*schema.Document, error) {
	raw, err := l.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	if openAPI {
		doc, err := schema.FromOpenAPI(ctx, raw)
		if err != nil {
			return nil, fmt.Errorf("loader: %s: %w", src.Location(), err)
		}
		return doc, nil
	}
	doc, err := schema.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", src.Location(), err)
	}
	return doc, nil
}
