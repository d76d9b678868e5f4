package checker

import (
	"context"
	"regexp"
	"strings"
)

// PatternName is the name reported by PatternChecker.
const PatternName = "pattern"

// minDigitLabel is the shortest digits-only label considered suspicious.
const minDigitLabel = 6

var defaultSubstrings = []string{
	"tempmail",
	"temp-mail",
	"throwaway",
	"mailinator",
	"guerrilla",
	"10minute",
	"trashmail",
	"trash-mail",
	"yopmail",
	"fakeinbox",
	"spambox",
	"discardmail",
	"burnermail",
	"disposable",
	"wegwerf",
}

var defaultPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(temp|tmp|trash|fake|spam|throw)-?(mail|inbox|box)`),
	regexp.MustCompile(`\d+-?minutes?-?mail`),
	regexp.MustCompile(`^mail-?temp`),
}

// PatternChecker flags domains by heuristics: known provider substrings, a
// small regexp set and digits-only labels. It favours recall over precision
// and belongs at the end of a chain.
type PatternChecker struct {
	substrings []string
	patterns   []*regexp.Regexp
}

// NewPattern returns a checker with the built-in rules.
func NewPattern() *PatternChecker {
	return &PatternChecker{substrings: defaultSubstrings, patterns: defaultPatterns}
}

func (p *PatternChecker) Name() string { return PatternName }

func (p *PatternChecker) IsDomainDisposable(_ context.Context, domain string) (bool, error) {
	return p.Match(domain), nil
}

// Match applies the rules to a normalized domain.
func (p *PatternChecker) Match(domain string) bool {
	for _, s := range p.substrings {
		if strings.Contains(domain, s) {
			return true
		}
	}
	for _, re := range p.patterns {
		if re.MatchString(domain) {
			return true
		}
	}

	labels := strings.Split(domain, ".")
	for _, label := range labels[:len(labels)-1] {
		if len(label) >= minDigitLabel && allDigits(label) {
			return true
		}
	}
	return false
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
