package sources

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/disposable/internal/domain"
)

func drain(t *testing.T, s DomainStream) ([]string, error) {
	t.Helper()
	var out []string
	for s.Next() {
		out = append(out, s.Domain())
	}
	return out, s.Err()
}

func stream(format Format, body string) DomainStream {
	return newStream("test", format, io.NopCloser(strings.NewReader(body)))
}

func TestLineStream(t *testing.T) {
	s := stream(FormatLines, "# header\nA.com\n\n  b.com  # inline\n#c.com\nd.com")
	got, err := drain(t, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"A.com", "b.com", "d.com"}, got)

	// consumed streams stay consumed
	assert.False(t, s.Next())
	assert.Empty(t, s.Domain())
	assert.NoError(t, s.Close())
}

func TestJSONStream(t *testing.T) {
	got, err := drain(t, stream(FormatJSON, `["a.com", " b.com ", "", "c.com"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.com", "b.com", "c.com"}, got)
}

func TestJSONMapStream(t *testing.T) {
	got, err := drain(t, stream(FormatJSONMap, `{"a.com": true, "b.com": {"added": "2024"}, "c.com": [1,2]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.com", "b.com", "c.com"}, got)
}

func TestJSONStreamErrors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		body   string
	}{
		{"object for array", FormatJSON, `{"a.com": 1}`},
		{"array for object", FormatJSONMap, `["a.com"]`},
		{"non string entry", FormatJSON, `["a.com", 42]`},
		{"truncated", FormatJSON, `["a.com", "b.c`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := stream(tt.format, tt.body)
			_, err := drain(t, s)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrSourceFetch)
			assert.False(t, s.Next())
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatLines, f)

	f, err = ParseFormat("json-map")
	require.NoError(t, err)
	assert.Equal(t, FormatJSONMap, f)

	_, err = ParseFormat("csv")
	assert.Error(t, err)
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/list.txt":
			_, _ = io.WriteString(w, "a.com\nb.com\n")
		case "/list.json":
			_, _ = io.WriteString(w, `["c.com"]`)
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	src := NewHTTPSource("lines", srv.URL+"/list.txt", FormatLines, srv.Client())
	assert.Equal(t, "lines", src.Name())
	assert.Equal(t, srv.URL+"/list.txt", src.URL())

	s, err := src.Fetch(ctx)
	require.NoError(t, err)
	got, err := drain(t, s)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.Equal(t, []string{"a.com", "b.com"}, got)

	// every Fetch is a fresh read
	s, err = src.Fetch(ctx)
	require.NoError(t, err)
	got, _ = drain(t, s)
	_ = s.Close()
	assert.Len(t, got, 2)

	s, err = NewHTTPSource("json", srv.URL+"/list.json", FormatJSON, nil).Fetch(ctx)
	require.NoError(t, err)
	got, err = drain(t, s)
	require.NoError(t, err)
	_ = s.Close()
	assert.Equal(t, []string{"c.com"}, got)

	_, err = NewHTTPSource("missing", srv.URL+"/missing", FormatLines, srv.Client()).Fetch(ctx)
	var fe *domain.SourceFetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "missing", fe.Source)
	assert.Contains(t, err.Error(), "404")
}

func TestFileAndStaticSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.txt")
	require.NoError(t, os.WriteFile(path, []byte("x.com\ny.com\n"), 0o600))

	s, err := NewFileSource("file", path, FormatLines).Fetch(context.Background())
	require.NoError(t, err)
	got, err := drain(t, s)
	require.NoError(t, err)
	_ = s.Close()
	assert.Equal(t, []string{"x.com", "y.com"}, got)

	_, err = NewFileSource("gone", filepath.Join(t.TempDir(), "gone.txt"), FormatLines).Fetch(context.Background())
	assert.ErrorIs(t, err, domain.ErrSourceFetch)

	static := NewStaticSource("static", []string{"a.com", "b.com"})
	for i := 0; i < 2; i++ {
		s, err := static.Fetch(context.Background())
		require.NoError(t, err)
		got, _ := drain(t, s)
		assert.Equal(t, []string{"a.com", "b.com"}, got)
	}
}

func TestRegistry(t *testing.T) {
	r, err := NewRegistry(NewStaticSource("zeta", nil), NewStaticSource("alpha", nil))
	require.NoError(t, err)

	assert.True(t, r.Has("alpha"))
	assert.False(t, r.Has("beta"))
	assert.Equal(t, []string{"alpha", "zeta"}, r.List())
	assert.Len(t, r.All(), 2)

	s, err := r.Get("zeta")
	require.NoError(t, err)
	assert.Equal(t, "zeta", s.Name())

	_, err = r.Get("beta")
	var ue *domain.UnknownSourceError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "beta", ue.Name)
	assert.Equal(t, []string{"alpha", "zeta"}, ue.Available)

	assert.Error(t, r.Register(NewStaticSource("alpha", nil)))
	assert.Error(t, r.Register(NewStaticSource("", nil)))

	// All is a copy
	all := r.All()
	delete(all, "alpha")
	assert.True(t, r.Has("alpha"))
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry(nil)
	assert.Equal(t, []string{"disposable", "disposable-email-domains", "fakefilter", "ivolo"}, r.List())

	s, err := r.Get("disposable-email-domains")
	require.NoError(t, err)
	assert.Equal(t, DisposableEmailDomainsURL, s.URL())
}

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sources:
  - name: corporate
    url: https://lists.example.com/blocked.txt
  - name: local
    path: /tmp/extra.json
    format: json
  - name: ivolo
    url: https://mirror.example.com/index.json
    format: json
`), 0o600))

	r, err := LoadRegistry(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"corporate", "disposable", "disposable-email-domains", "fakefilter", "ivolo", "local"}, r.List())

	s, err := r.Get("ivolo")
	require.NoError(t, err)
	assert.Equal(t, "https://mirror.example.com/index.json", s.URL())

	s, err = r.Get("local")
	require.NoError(t, err)
	assert.Equal(t, "file:///tmp/extra.json", s.URL())

	r, err = LoadRegistry("", nil)
	require.NoError(t, err)
	assert.Len(t, r.List(), 4)

	_, err = LoadRegistry(filepath.Join(dir, "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestMapperRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name  string
		entry []SourceEntry
	}{
		{"missing name", []SourceEntry{{URL: "https://x"}}},
		{"missing location", []SourceEntry{{Name: "a"}}},
		{"both locations", []SourceEntry{{Name: "a", URL: "https://x", Path: "/x"}}},
		{"bad format", []SourceEntry{{Name: "a", URL: "https://x", Format: "csv"}}},
		{"duplicate", []SourceEntry{{Name: "a", URL: "https://x"}, {Name: "a", Path: "/x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMapper(nil).MapSources(FileConfig{Sources: tt.entry})
			assert.Error(t, err)
		})
	}
}
