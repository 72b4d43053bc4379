// ABOUTME: Tests for the accumulation loop using a scripted generator.
// ABOUTME: Covers early stop, attempt cap, cross-attempt dedup, pacing and errors.

package collect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/2389/partnergen/internal/cities"
	"github.com/2389/partnergen/internal/contact"
	"github.com/2389/partnergen/internal/gateway"
	"github.com/2389/partnergen/internal/prompt"
	"github.com/2389/partnergen/internal/validate"
)

type scripted struct {
	batches [][]any
	err     error
	errAt   int
	calls   int
	reqs    []prompt.Request
}

func (s *scripted) Generate(_ context.Context, req prompt.Request) (*gateway.Result, error) {
	s.calls++
	s.reqs = append(s.reqs, req)
	if s.err != nil && s.calls == s.errAt {
		return nil, s.err
	}
	if len(s.batches) == 0 {
		return &gateway.Result{}, nil
	}
	b := s.batches[0]
	if len(s.batches) > 1 {
		s.batches = s.batches[1:]
	}
	return &gateway.Result{Contacts: b}, nil
}

func emails(names ...string) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = map[string]any{"name": strings.ToUpper(n), "email": n + "@x.org"}
	}
	return out
}

func lisbon() Pair {
	return Pair{
		City:     cities.City{ID: "lisbon_portugal", Country: "portugal"},
		Type:     contact.NGO,
		ISO3:     "POR",
		Lang2:    "pt",
		CityName: "Lisbon",
	}
}

func newCollector(t *testing.T, gen Generator, cfg Config) (*Collector, *[]time.Duration) {
	t.Helper()
	v, err := validate.New(zaptest.NewLogger(t))
	require.NoError(t, err)
	c := New(gen, v, cfg, zaptest.NewLogger(t))
	var sleeps []time.Duration
	c.Sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return c, &sleeps
}

func TestCollect_StopsAtTarget(t *testing.T) {
	gen := &scripted{batches: [][]any{emails("a", "b"), emails("c", "d", "e")}}
	c, sleeps := newCollector(t, gen, Config{Delay: time.Second})

	got, stats, err := c.Collect(context.Background(), lisbon(), 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{got[0].Name, got[1].Name, got[2].Name})
	assert.Equal(t, 2, gen.calls)
	assert.Len(t, stats.Attempts, 2)
	assert.Equal(t, 3, stats.Returned)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, *sleeps)

	for _, r := range got {
		assert.Equal(t, "POR", r.Country)
		assert.Equal(t, "pt", r.Language)
		assert.Equal(t, "Lisbon", r.City)
		assert.Equal(t, contact.NGO, r.Type)
	}
}

func TestCollect_AttemptCap(t *testing.T) {
	gen := &scripted{batches: [][]any{emails("a")}}
	c, _ := newCollector(t, gen, Config{})

	got, stats, err := c.Collect(context.Background(), lisbon(), 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, DefaultMaxAttempts, gen.calls)
	assert.Len(t, stats.Attempts, DefaultMaxAttempts)
	assert.Equal(t, 0, stats.Attempts[1].New)
}

func TestCollect_ConfigurableAttempts(t *testing.T) {
	gen := &scripted{}
	c, _ := newCollector(t, gen, Config{MaxAttempts: 2})

	got, _, err := c.Collect(context.Background(), lisbon(), 5)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 2, gen.calls)
}

func TestCollect_CrossAttemptDedupFirstWins(t *testing.T) {
	first := []any{map[string]any{"name": "Original", "email": "dup@x.org"}}
	second := []any{
		map[string]any{"name": "Copy", "email": "DUP@x.org"},
		map[string]any{"name": "Fresh", "instagram": "@fresh"},
	}
	gen := &scripted{batches: [][]any{first, second}}
	c, _ := newCollector(t, gen, Config{})

	got, stats, err := c.Collect(context.Background(), lisbon(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Original", got[0].Name)
	assert.Equal(t, "Fresh", got[1].Name)
	assert.Equal(t, 1, stats.Attempts[1].New)
}

func TestCollect_OverRequestThenTruncate(t *testing.T) {
	var names []string
	for i := range 10 {
		names = append(names, fmt.Sprintf("p%02d", i))
	}
	gen := &scripted{batches: [][]any{emails(names...)}}
	c, _ := newCollector(t, gen, Config{OverRequest: 2})

	got, stats, err := c.Collect(context.Background(), lisbon(), 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, 6, stats.Attempts[0].Valid)
	assert.Equal(t, "P02", got[2].Name)
}

func TestCollect_NeverExceedsTarget(t *testing.T) {
	for target := 1; target <= 6; target++ {
		gen := &scripted{batches: [][]any{emails("a", "b", "c"), emails("d", "e", "f"), emails("g")}}
		c, _ := newCollector(t, gen, Config{})
		got, _, err := c.Collect(context.Background(), lisbon(), target)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(got), target)
	}
}

func TestCollect_ErrorPropagates(t *testing.T) {
	boom := &gateway.GatewayError{Op: gateway.OpParse, Err: errors.New("bad json")}
	gen := &scripted{batches: [][]any{emails("a")}, err: boom, errAt: 2}
	c, _ := newCollector(t, gen, Config{})

	got, stats, err := c.Collect(context.Background(), lisbon(), 5)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, stats.Attempts, 1)
}

func TestCollect_RequestCarriesConstraints(t *testing.T) {
	gen := &scripted{batches: [][]any{emails("a")}}
	c, _ := newCollector(t, gen, Config{})

	_, _, err := c.Collect(context.Background(), lisbon(), 1)
	require.NoError(t, err)
	require.Len(t, gen.reqs, 1)
	assert.Contains(t, gen.reqs[0].User, "Hard constraints: country=POR, language=pt, type=ngo.")
}

func TestCollect_ZeroTarget(t *testing.T) {
	gen := &scripted{}
	c, _ := newCollector(t, gen, Config{})
	got, _, err := c.Collect(context.Background(), lisbon(), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, gen.calls)
}

func TestCollect_CancelledDuringDelay(t *testing.T) {
	v, err := validate.New(nil)
	require.NoError(t, err)
	gen := &scripted{batches: [][]any{emails("a")}}
	c := New(gen, v, Config{Delay: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = c.Collect(ctx, lisbon(), 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, gen.calls)
}
