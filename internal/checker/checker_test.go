package checker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/disposable/internal/domain"
)

type fakeReader struct {
	domains map[string]bool
	err     error
	calls   int
}

func (f *fakeReader) Exists(_ context.Context, d string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.domains[d], nil
}

func (f *fakeReader) Count(context.Context) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.domains)), nil
}

func (f *fakeReader) ListDomains(context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]string, 0, len(f.domains))
	for d := range f.domains {
		out = append(out, d)
	}
	return out, nil
}

type stubChecker struct {
	name   string
	result bool
	err    error
	calls  int
}

func (s *stubChecker) Name() string { return s.name }

func (s *stubChecker) IsDomainDisposable(context.Context, string) (bool, error) {
	s.calls++
	return s.result, s.err
}

func TestBundled(t *testing.T) {
	ctx := context.Background()
	b := NewBundled()

	assert.Equal(t, BundledName, b.Name())
	assert.Greater(t, b.Count(), 800)

	ok, err := b.IsDomainDisposable(ctx, "mailinator.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.IsDomainDisposable(ctx, "gmail.com")
	require.NoError(t, err)
	assert.False(t, ok)

	// comment lines never become entries
	assert.False(t, b.Contains("# bundled disposable email domains."))
}

func TestBundledEntriesAreRegistrable(t *testing.T) {
	b := NewBundled()
	n := domain.NewNormalizer()
	for d := range b.domains {
		info, err := n.Parse(d)
		if assert.NoError(t, err, d) {
			assert.Equal(t, d, info.Domain, "%s should be listed as its registrable domain", d)
		}
	}

	for _, d := range []string{"guerrillamail.com", "yopmail.com", "10minutemail.co.uk", "trashmail.de"} {
		assert.True(t, b.Contains(d), d)
	}
}

func TestNewList(t *testing.T) {
	l := NewList("", []string{" Foo.COM ", "", "bar.org.", "foo.com"})

	assert.Equal(t, ListName, l.Name())
	assert.Equal(t, 2, l.Count())
	assert.True(t, l.Contains("foo.com"))
	assert.True(t, l.Contains("bar.org"))
	assert.False(t, l.Contains("baz.net"))
}

func TestParseListInlineComments(t *testing.T) {
	set := parseList([]byte("# header\na.com # trailing\n\n  B.com\n#c.com\n"))
	assert.Len(t, set, 2)
	assert.Contains(t, set, "a.com")
	assert.Contains(t, set, "b.com")
}

func TestPattern(t *testing.T) {
	p := NewPattern()

	tests := []struct {
		domain string
		want   bool
	}{
		{"my-tempmail.xyz", true},
		{"throwawayinbox.net", true},
		{"tmpbox.io", true},
		{"trash-inbox.org", true},
		{"20minutemail.it", true},
		{"5-minutes-mail.com", true},
		{"mailtemp.info", true},
		{"123456.com", true},
		{"98765432.co.uk", true},
		{"gmail.com", false},
		{"example.com", false},
		{"12345.com", false},
		{"company2024.com", false},
		{"outlook.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			got, err := p.IsDomainDisposable(context.Background(), tt.domain)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTableChecker(t *testing.T) {
	ctx := context.Background()
	r := &fakeReader{domains: map[string]bool{"spam.io": true, "junk.net": true}}
	tc := NewTable(r)

	assert.Equal(t, TableName, tc.Name())

	ok, err := tc.IsDomainDisposable(ctx, "spam.io")
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := tc.CountAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	list, err := tc.ListAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"spam.io", "junk.net"}, list)
}

func TestTableCheckerPersistenceFailure(t *testing.T) {
	cause := errors.New("connection refused")
	tc := NewTable(&fakeReader{err: cause})

	_, err := tc.IsDomainDisposable(context.Background(), "spam.io")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.ErrorIs(t, err, cause)

	_, err = tc.CountAll(context.Background())
	assert.ErrorIs(t, err, domain.ErrPersistence)

	wrapped := &domain.PersistenceError{Op: "exists", Err: cause}
	tc = NewTable(&fakeReader{err: wrapped})
	_, err = tc.IsDomainDisposable(context.Background(), "spam.io")
	var pe *domain.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "exists", pe.Op)
}

func TestChainShortCircuit(t *testing.T) {
	first := &stubChecker{name: "first"}
	second := &stubChecker{name: "second", result: true}
	third := &stubChecker{name: "third", result: true}

	chain := NewChain(first, nil, second, third)
	assert.Equal(t, 3, chain.Len())
	assert.Equal(t, []string{"first", "second", "third"}, chain.Names())

	matched, name, err := chain.Evaluate(context.Background(), "x.com")
	require.NoError(t, err)
	assert.True(t, matched)
	assert.Equal(t, "second", name)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 0, third.calls)
}

func TestChainNoMatch(t *testing.T) {
	chain := NewChain(&stubChecker{name: "a"}, &stubChecker{name: "b"})

	matched, name, err := chain.Evaluate(context.Background(), "x.com")
	require.NoError(t, err)
	assert.False(t, matched)
	assert.Empty(t, name)
}

func TestChainErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	after := &stubChecker{name: "after", result: true}
	chain := NewChain(&stubChecker{name: "broken", err: boom}, after)

	matched, _, err := chain.Evaluate(context.Background(), "x.com")
	assert.ErrorIs(t, err, boom)
	assert.False(t, matched)
	assert.Equal(t, 0, after.calls)
}
