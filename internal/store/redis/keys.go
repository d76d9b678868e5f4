package redis

import "strings"

// globEscaper escapes the characters SCAN MATCH treats as glob syntax.
var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

const (
	valueDisposable = "1"
	valueClean      = "0"
)

// key returns the Redis key for a normalized domain.
func (s *CacheStore) key(domain string) string {
	return s.prefix + domain
}

// pattern matches every key owned by this store. The prefix is matched
// literally.
func (s *CacheStore) pattern() string {
	return globEscaper.Replace(s.prefix) + "*"
}

func encode(v bool) string {
	if v {
		return valueDisposable
	}
	return valueClean
}
