package engine

import (
	"fmt"
	"sort"

	"github.com/MrSnakeDoc/disposable/internal/domain"
)

// Whitelist is an immutable set of registrable domains that are never
// reported as disposable.
type Whitelist struct {
	domains map[string]struct{}
}

// NewWhitelist normalizes every entry. An entry the normalizer rejects, or
// one naming a subdomain, is a *domain.ConfigError: whitelisting
// mail.example.com would otherwise cover all of example.com.
func NewWhitelist(n *domain.Normalizer, entries []string) (*Whitelist, error) {
	w := &Whitelist{domains: make(map[string]struct{}, len(entries))}
	for _, e := range entries {
		info, err := n.Parse(e)
		if err != nil {
			return nil, &domain.ConfigError{Field: "whitelist", Reason: err.Error()}
		}
		if info.HasSubdomain() {
			return nil, &domain.ConfigError{
				Field:  "whitelist",
				Reason: fmt.Sprintf("entry %q is a subdomain, use %q", e, info.Domain),
			}
		}
		w.domains[info.Domain] = struct{}{}
	}
	return w, nil
}

// Contains reports whether the registrable domain is whitelisted.
func (w *Whitelist) Contains(registrable string) bool {
	if w == nil {
		return false
	}
	_, ok := w.domains[registrable]
	return ok
}

func (w *Whitelist) Len() int {
	if w == nil {
		return 0
	}
	return len(w.domains)
}

// Domains returns the entries sorted.
func (w *Whitelist) Domains() []string {
	if w == nil {
		return nil
	}
	out := make([]string, 0, len(w.domains))
	for d := range w.domains {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
