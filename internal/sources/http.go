package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/MrSnakeDoc/disposable/internal/domain"
	"github.com/MrSnakeDoc/disposable/internal/version"
)

// HTTPSource downloads a list over HTTP(S).
type HTTPSource struct {
	name   string
	url    string
	format Format
	client *http.Client
}

// NewHTTPSource returns a source fetching url with client (http.DefaultClient
// when nil).
func NewHTTPSource(name, url string, format Format, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{name: name, url: url, format: format, client: client}
}

func (s *HTTPSource) Name() string { return s.name }
func (s *HTTPSource) URL() string  { return s.url }

func (s *HTTPSource) Fetch(ctx context.Context) (DomainStream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &domain.SourceFetchError{Source: s.name, Err: err}
	}
	req.Header.Set("User-Agent", "disposable/"+version.Version)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &domain.SourceFetchError{Source: s.name, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, &domain.SourceFetchError{
			Source: s.name,
			Err:    fmt.Errorf("unexpected status %d from %s", resp.StatusCode, s.url),
		}
	}
	return newStream(s.name, s.format, resp.Body), nil
}

// FileSource reads a list from the local filesystem.
type FileSource struct {
	name   string
	path   string
	format Format
}

func NewFileSource(name, path string, format Format) *FileSource {
	return &FileSource{name: name, path: path, format: format}
}

func (s *FileSource) Name() string { return s.name }

// URL returns a file:// URL for display.
func (s *FileSource) URL() string { return "file://" + s.path }

func (s *FileSource) Fetch(context.Context) (DomainStream, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, &domain.SourceFetchError{Source: s.name, Err: err}
	}
	return newStream(s.name, s.format, f), nil
}

// StaticSource serves a fixed in-memory list.
type StaticSource struct {
	name    string
	domains []string
}

func NewStaticSource(name string, domains []string) *StaticSource {
	return &StaticSource{name: name, domains: append([]string(nil), domains...)}
}

func (s *StaticSource) Name() string { return s.name }
func (s *StaticSource) URL() string  { return "" }

func (s *StaticSource) Fetch(context.Context) (DomainStream, error) {
	return &sliceStream{items: s.domains}, nil
}
