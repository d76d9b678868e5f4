package sources

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/MrSnakeDoc/disposable/internal/domain"
)

// Registry maps source names to Sources.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

func NewRegistry(sources ...Source) (*Registry, error) {
	r := &Registry{sources: make(map[string]Source, len(sources))}
	for _, s := range sources {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a source. Names must be unique and non-empty.
func (r *Registry) Register(s Source) error {
	if s == nil || s.Name() == "" {
		return fmt.Errorf("source name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.sources[s.Name()]; dup {
		return fmt.Errorf("source %q already registered", s.Name())
	}
	r.sources[s.Name()] = s
	return nil
}

// Replace adds s, overriding any source with the same name.
func (r *Registry) Replace(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sources[s.Name()] = s
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.sources[name]
	return ok
}

// Get returns the named source or a *domain.UnknownSourceError listing every
// registered name.
func (r *Registry) Get(name string) (Source, error) {
	r.mu.RLock()
	s, ok := r.sources[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &domain.UnknownSourceError{Name: name, Available: r.List()}
	}
	return s, nil
}

// List returns the registered names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns a copy of the name to source mapping.
func (r *Registry) All() map[string]Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Source, len(r.sources))
	for k, v := range r.sources {
		out[k] = v
	}
	return out
}

// Built-in list locations.
const (
	DisposableEmailDomainsURL = "https://raw.githubusercontent.com/disposable-email-domains/disposable-email-domains/main/disposable_email_blocklist.conf"
	DisposableURL             = "https://raw.githubusercontent.com/disposable/disposable-email-domains/master/domains.txt"
	FakeFilterURL             = "https://raw.githubusercontent.com/7c/fakefilter/main/txt/data.txt"
	IvoloURL                  = "https://raw.githubusercontent.com/ivolo/disposable-email-domains/master/index.json"
)

// Defaults returns the built-in public lists fetched with client.
func Defaults(client *http.Client) []Source {
	return []Source{
		NewHTTPSource("disposable-email-domains", DisposableEmailDomainsURL, FormatLines, client),
		NewHTTPSource("disposable", DisposableURL, FormatLines, client),
		NewHTTPSource("fakefilter", FakeFilterURL, FormatLines, client),
		NewHTTPSource("ivolo", IvoloURL, FormatJSON, client),
	}
}

// DefaultRegistry returns a registry holding the built-in lists.
func DefaultRegistry(client *http.Client) *Registry {
	r, err := NewRegistry(Defaults(client)...)
	if err != nil {
		// built-in names are unique
		panic(err)
	}
	return r
}
