package checker

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"strings"
	"sync"
)

const (
	// BundledName is the name of the checker backed by the embedded list.
	BundledName = "bundled"
	// ListName is the default name of checkers built from custom lists.
	ListName = "list"
)

//go:embed data/disposable_domains.txt
var bundledData []byte

var (
	bundledOnce sync.Once
	bundledSet  map[string]struct{}
)

// ListChecker answers from an immutable in-memory set.
type ListChecker struct {
	name    string
	domains map[string]struct{}
}

// NewBundled returns a checker over the embedded disposable domain list.
// The list is parsed once per process and shared by every bundled checker.
func NewBundled() *ListChecker {
	bundledOnce.Do(func() {
		bundledSet = parseList(bundledData)
	})
	return &ListChecker{name: BundledName, domains: bundledSet}
}

// NewList returns a checker over the given domains. Entries are lower-cased
// and trimmed; blanks are ignored.
func NewList(name string, domains []string) *ListChecker {
	if name == "" {
		name = ListName
	}
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		if d = cleanEntry(d); d != "" {
			set[d] = struct{}{}
		}
	}
	return &ListChecker{name: name, domains: set}
}

func (l *ListChecker) Name() string { return l.name }

func (l *ListChecker) IsDomainDisposable(_ context.Context, domain string) (bool, error) {
	_, ok := l.domains[domain]
	return ok, nil
}

// Count returns the number of domains in the set.
func (l *ListChecker) Count() int { return len(l.domains) }

// Contains is the context-free membership test.
func (l *ListChecker) Contains(domain string) bool {
	_, ok := l.domains[domain]
	return ok
}

func parseList(data []byte) map[string]struct{} {
	set := make(map[string]struct{}, bytes.Count(data, []byte{'\n'}))
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if d := cleanEntry(line); d != "" {
			set[d] = struct{}{}
		}
	}
	return set
}

func cleanEntry(s string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ".")
}
