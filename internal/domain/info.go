package domain

import (
	"strings"

	"golang.org/x/net/idna"
)

const (
	maxDomainLength = 253
	maxLabelLength  = 63
)

// DomainInfo is the parsed form of an email address or bare domain.
//
// Domain holds the registrable domain (eTLD+1 under the multi-label TLD
// table), Subdomain everything in front of it. Parsing Domain again yields the
// same Domain.
type DomainInfo struct {
	Input     string // original input, untouched
	Domain    string // registrable domain, e.g. example.co.uk
	Subdomain string // labels before Domain, e.g. mail ("" when none)
	Valid     bool
}

// HasSubdomain reports whether the input carried labels before the registrable part.
func (d DomainInfo) HasSubdomain() bool { return d.Subdomain != "" }

// Host returns the full normalized host name (subdomain + registrable domain).
func (d DomainInfo) Host() string {
	if d.Subdomain == "" {
		return d.Domain
	}
	return d.Subdomain + "." + d.Domain
}

// defaultMultiLabelTLDs lists effective TLDs made of two labels.
// Registrable domains under them keep three labels.
var defaultMultiLabelTLDs = []string{
	// United Kingdom
	"co.uk", "org.uk", "me.uk", "ltd.uk", "plc.uk", "net.uk", "ac.uk", "gov.uk", "sch.uk",
	// Oceania
	"com.au", "net.au", "org.au", "edu.au", "gov.au", "id.au", "asn.au",
	"co.nz", "net.nz", "org.nz", "ac.nz", "govt.nz",
	// Asia
	"co.jp", "ne.jp", "or.jp", "ac.jp", "go.jp",
	"co.kr", "or.kr", "ne.kr",
	"co.in", "net.in", "org.in", "firm.in", "gen.in", "ind.in",
	"com.cn", "net.cn", "org.cn", "gov.cn",
	"com.tw", "org.tw", "net.tw",
	"com.hk", "org.hk", "net.hk",
	"com.sg", "net.sg", "org.sg",
	"com.my", "net.my", "org.my",
	"co.id", "or.id", "web.id",
	"co.th", "in.th", "or.th",
	"com.vn", "net.vn",
	"com.ph", "net.ph",
	"com.pk", "net.pk",
	"co.il", "org.il",
	"com.tr", "net.tr", "org.tr",
	// Americas
	"com.br", "net.br", "org.br",
	"com.mx", "org.mx", "net.mx",
	"com.ar", "net.ar", "org.ar",
	"com.co", "net.co",
	"com.pe", "com.ve", "com.uy", "com.ec",
	// Africa
	"co.za", "org.za", "net.za",
	"com.ng", "com.eg", "co.ke",
	// Europe
	"com.pl", "net.pl", "org.pl",
	"com.ua", "net.ua",
	"com.ru", "net.ru", "org.ru",
	"co.at", "or.at",
	"com.es", "com.gr", "com.pt", "com.cy",
}

// Normalizer parses inputs into DomainInfo using a multi-label TLD table.
// It is immutable and safe for concurrent use.
type Normalizer struct {
	multiLabel map[string]struct{}
}

// NewNormalizer returns a Normalizer carrying the built-in multi-label TLD
// table plus the given extra entries (e.g. "co.xyz").
func NewNormalizer(extraTLDs ...string) *Normalizer {
	n := &Normalizer{multiLabel: make(map[string]struct{}, len(defaultMultiLabelTLDs)+len(extraTLDs))}
	for _, tld := range defaultMultiLabelTLDs {
		n.multiLabel[tld] = struct{}{}
	}
	for _, tld := range extraTLDs {
		tld = strings.Trim(strings.ToLower(strings.TrimSpace(tld)), ".")
		if tld != "" {
			n.multiLabel[tld] = struct{}{}
		}
	}
	return n
}

var defaultNormalizer = NewNormalizer()

// Parse parses input with the default multi-label TLD table.
func Parse(input string) (DomainInfo, error) { return defaultNormalizer.Parse(input) }

// Normalize returns the registrable domain of input using the default table.
func Normalize(input string) (string, error) { return defaultNormalizer.Normalize(input) }

// Normalize returns the registrable domain of input.
func (n *Normalizer) Normalize(input string) (string, error) {
	info, err := n.Parse(input)
	if err != nil {
		return "", err
	}
	return info.Domain, nil
}

// Parse accepts "local@domain" or a bare domain. Only the part after the
// last '@' is considered, so quoted local parts containing '@' are tolerated.
// The candidate is trimmed, lower-cased, stripped of one trailing dot and
// converted to its ASCII (punycode) form.
func (n *Normalizer) Parse(input string) (DomainInfo, error) {
	info := DomainInfo{Input: input}

	candidate := input
	if i := strings.LastIndexByte(candidate, '@'); i >= 0 {
		candidate = candidate[i+1:]
	}
	candidate = strings.ToLower(strings.TrimSpace(candidate))
	candidate = strings.TrimSuffix(candidate, ".")

	if candidate == "" {
		return info, &FormatError{Input: input, Reason: "empty domain"}
	}
	if strings.HasPrefix(candidate, "[") {
		return info, &FormatError{Input: input, Reason: "address literals are not supported"}
	}

	host, err := toASCII(candidate)
	if err != nil {
		return info, &FormatError{Input: input, Reason: err.Error()}
	}
	if len(host) > maxDomainLength {
		return info, &FormatError{Input: input, Reason: "domain too long"}
	}

	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return info, &FormatError{Input: input, Reason: "domain has no labels"}
	}
	for _, label := range labels {
		if reason := checkLabel(label); reason != "" {
			return info, &FormatError{Input: input, Reason: reason}
		}
	}
	if isNumeric(labels[len(labels)-1]) {
		return info, &FormatError{Input: input, Reason: "numeric top-level label"}
	}

	keep := 2
	if _, ok := n.multiLabel[strings.Join(labels[len(labels)-2:], ".")]; ok {
		keep = 3
	}
	if len(labels) < keep {
		return info, &FormatError{Input: input, Reason: "domain is a public suffix"}
	}

	split := len(labels) - keep
	info.Domain = strings.Join(labels[split:], ".")
	info.Subdomain = strings.Join(labels[:split], ".")
	info.Valid = true
	return info, nil
}

// toASCII converts internationalized names to punycode. Pure ASCII input is
// returned as is and validated label by label by the caller.
func toASCII(s string) (string, error) {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return idna.Lookup.ToASCII(s)
		}
	}
	return s, nil
}

func checkLabel(label string) string {
	switch {
	case label == "":
		return "empty label"
	case len(label) > maxLabelLength:
		return "label too long"
	case label[0] == '-' || label[len(label)-1] == '-':
		return "label starts or ends with a hyphen"
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' {
			continue
		}
		return "invalid character in label"
	}
	return ""
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
