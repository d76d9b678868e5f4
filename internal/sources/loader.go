package sources

import (
	"fmt"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML layout of a sources file:
//
//	sources:
//	  - name: corporate
//	    url: https://lists.example.com/blocked.txt
//	  - name: local
//	    path: /etc/disposable/extra.json
//	    format: json
type FileConfig struct {
	Sources []SourceEntry `yaml:"sources"`
}

// SourceEntry describes one source. Exactly one of URL or Path is set.
type SourceEntry struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

// Loader reads a sources file from disk.
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load reads and parses the sources file.
func (l *Loader) Load() (FileConfig, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to read sources file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to parse sources yaml: %w", err)
	}
	return cfg, nil
}

// Mapper turns sources file entries into Sources.
type Mapper struct {
	client *http.Client
}

func NewMapper(client *http.Client) *Mapper {
	return &Mapper{client: client}
}

// MapSources validates every entry and builds the matching Source.
func (m *Mapper) MapSources(cfg FileConfig) ([]Source, error) {
	out := make([]Source, 0, len(cfg.Sources))
	seen := make(map[string]struct{}, len(cfg.Sources))

	for i, e := range cfg.Sources {
		if e.Name == "" {
			return nil, fmt.Errorf("sources[%d]: name is required", i)
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("sources[%d]: duplicate name %q", i, e.Name)
		}
		seen[e.Name] = struct{}{}

		format, err := ParseFormat(e.Format)
		if err != nil {
			return nil, fmt.Errorf("sources[%d] %s: %w", i, e.Name, err)
		}

		switch {
		case e.URL != "" && e.Path != "":
			return nil, fmt.Errorf("sources[%d] %s: url and path are mutually exclusive", i, e.Name)
		case e.URL != "":
			out = append(out, NewHTTPSource(e.Name, e.URL, format, m.client))
		case e.Path != "":
			out = append(out, NewFileSource(e.Name, e.Path, format))
		default:
			return nil, fmt.Errorf("sources[%d] %s: url or path is required", i, e.Name)
		}
	}
	return out, nil
}

// LoadRegistry builds the default registry and, when path is set, adds the
// sources declared in that file. File entries override built-ins with the
// same name.
func LoadRegistry(path string, client *http.Client) (*Registry, error) {
	r := DefaultRegistry(client)
	if path == "" {
		return r, nil
	}

	cfg, err := NewLoader(path).Load()
	if err != nil {
		return nil, err
	}
	extra, err := NewMapper(client).MapSources(cfg)
	if err != nil {
		return nil, err
	}
	for _, s := range extra {
		r.Replace(s)
	}
	return r, nil
}
