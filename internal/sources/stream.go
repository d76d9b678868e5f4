package sources

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MrSnakeDoc/disposable/internal/domain"
)

// maxLineSize bounds a single list line.
const maxLineSize = 64 * 1024

// newStream decodes r according to format. Decode errors are reported as
// *domain.SourceFetchError naming source.
func newStream(source string, format Format, r io.ReadCloser) DomainStream {
	switch format {
	case FormatJSON:
		return &jsonStream{source: source, rc: r, dec: json.NewDecoder(r)}
	case FormatJSONMap:
		return &jsonStream{source: source, rc: r, dec: json.NewDecoder(r), keys: true}
	default:
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 4096), maxLineSize)
		return &lineStream{source: source, rc: r, sc: sc}
	}
}

type lineStream struct {
	source string
	rc     io.ReadCloser
	sc     *bufio.Scanner
	cur    string
	done   bool
	err    error
}

func (s *lineStream) Next() bool {
	if s.done {
		return false
	}
	for s.sc.Scan() {
		line := s.sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			s.cur = line
			return true
		}
	}
	s.done = true
	s.cur = ""
	if err := s.sc.Err(); err != nil {
		s.err = &domain.SourceFetchError{Source: s.source, Err: err}
	}
	return false
}

func (s *lineStream) Domain() string { return s.cur }
func (s *lineStream) Err() error     { return s.err }
func (s *lineStream) Close() error   { s.done = true; return s.rc.Close() }

// jsonStream walks a JSON array of strings, or the keys of a JSON object,
// token by token so large lists are never held in memory.
type jsonStream struct {
	source  string
	rc      io.ReadCloser
	dec     *json.Decoder
	keys    bool
	started bool
	cur     string
	done    bool
	err     error
}

func (s *jsonStream) Next() bool {
	if s.done {
		return false
	}
	if !s.started {
		s.started = true
		want := json.Delim('[')
		if s.keys {
			want = json.Delim('{')
		}
		tok, err := s.dec.Token()
		if err != nil {
			return s.fail(err)
		}
		if tok != want {
			return s.fail(fmt.Errorf("expected %v at start of list, got %v", want, tok))
		}
	}

	for s.dec.More() {
		var entry string
		if s.keys {
			tok, err := s.dec.Token()
			if err != nil {
				return s.fail(err)
			}
			key, ok := tok.(string)
			if !ok {
				return s.fail(fmt.Errorf("unexpected token %v", tok))
			}
			var skip json.RawMessage
			if err := s.dec.Decode(&skip); err != nil {
				return s.fail(err)
			}
			entry = key
		} else if err := s.dec.Decode(&entry); err != nil {
			return s.fail(err)
		}

		if entry = strings.TrimSpace(entry); entry != "" {
			s.cur = entry
			return true
		}
	}

	// closing delimiter
	if _, err := s.dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return s.fail(err)
	}
	s.done = true
	s.cur = ""
	return false
}

func (s *jsonStream) fail(err error) bool {
	s.done = true
	s.cur = ""
	s.err = &domain.SourceFetchError{Source: s.source, Err: err}
	return false
}

func (s *jsonStream) Domain() string { return s.cur }
func (s *jsonStream) Err() error     { return s.err }
func (s *jsonStream) Close() error   { s.done = true; return s.rc.Close() }

// sliceStream serves an in-memory list.
type sliceStream struct {
	items []string
	pos   int
	cur   string
}

func (s *sliceStream) Next() bool {
	if s.pos >= len(s.items) {
		s.cur = ""
		return false
	}
	s.cur = s.items[s.pos]
	s.pos++
	return true
}

func (s *sliceStream) Domain() string { return s.cur }
func (s *sliceStream) Err() error     { return nil }
func (s *sliceStream) Close() error   { s.pos = len(s.items); return nil }
