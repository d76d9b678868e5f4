package domain

import "time"

// CheckResult is the outcome of one detection evaluation.
//
// Whitelisted implies !Disposable. MatchedBy names the checker that produced
// a positive verdict; it is empty for negative, whitelisted and cached results.
type CheckResult struct {
	Input       string `json:"input"`
	Domain      string `json:"domain,omitempty"`
	Disposable  bool   `json:"disposable"`
	Whitelisted bool   `json:"whitelisted"`
	MatchedBy   string `json:"matched_by,omitempty"`
	FromCache   bool   `json:"from_cache"`
}

// SafeResult is the non-disposable, non-whitelisted result returned when an
// input cannot be evaluated.
func SafeResult(input string) CheckResult {
	return CheckResult{Input: input}
}

// DomainRecord is one row of the persisted disposable domain table.
// Domain is unique, lower-cased and trimmed. Source is "" when unknown.
type DomainRecord struct {
	ID        int64
	Domain    string
	Source    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
