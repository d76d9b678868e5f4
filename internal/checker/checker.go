// Package checker holds the detection strategies combined by the engine.
//
// Every Checker receives an already normalized registrable domain and answers
// whether it belongs to a disposable email provider.
package checker

import (
	"context"
)

// Checker is a single detection strategy.
type Checker interface {
	// Name identifies the checker in results and logs.
	Name() string
	// IsDomainDisposable reports whether the normalized domain is disposable.
	IsDomainDisposable(ctx context.Context, domain string) (bool, error)
}

// Chain evaluates checkers in order with logical OR and stops at the first
// positive verdict.
type Chain struct {
	checkers []Checker
}

// NewChain returns a chain over the given checkers. Nil entries are dropped.
func NewChain(checkers ...Checker) *Chain {
	c := &Chain{checkers: make([]Checker, 0, len(checkers))}
	for _, ch := range checkers {
		if ch != nil {
			c.checkers = append(c.checkers, ch)
		}
	}
	return c
}

// Evaluate runs the chain. matched is true when a checker flagged the domain,
// name is that checker's Name. A checker error aborts evaluation.
func (c *Chain) Evaluate(ctx context.Context, domain string) (matched bool, name string, err error) {
	for _, ch := range c.checkers {
		ok, err := ch.IsDomainDisposable(ctx, domain)
		if err != nil {
			return false, "", err
		}
		if ok {
			return true, ch.Name(), nil
		}
	}
	return false, "", nil
}

// Len returns the number of checkers in the chain.
func (c *Chain) Len() int { return len(c.checkers) }

// Names returns checker names in evaluation order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.checkers))
	for i, ch := range c.checkers {
		names[i] = ch.Name()
	}
	return names
}
