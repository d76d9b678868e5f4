// Package sources provides named external disposable domain lists.
package sources

import (
	"context"
	"fmt"
)

// Format describes how a list payload is laid out.
type Format string

const (
	// FormatLines is one domain per line, '#' starting a comment.
	FormatLines Format = "lines"
	// FormatJSON is a JSON array of strings.
	FormatJSON Format = "json"
	// FormatJSONMap is a JSON object whose keys are the domains.
	FormatJSONMap Format = "json-map"
)

// ParseFormat validates a format name. The empty string means FormatLines.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatLines:
		return FormatLines, nil
	case FormatJSON, FormatJSONMap:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown list format %q (want lines, json or json-map)", s)
	}
}

// Source is a named provider of raw domain strings.
type Source interface {
	Name() string
	// URL is informational and may be empty.
	URL() string
	// Fetch starts a fresh read of the list. Each call yields a new stream.
	Fetch(ctx context.Context) (DomainStream, error)
}

// DomainStream is a lazy, finite and non-restartable sequence of raw entries.
// Once Next returned false it keeps returning false.
type DomainStream interface {
	Next() bool
	Domain() string
	Err() error
	Close() error
}
