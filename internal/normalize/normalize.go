// Package normalize maps free-text listing titles to canonical building
// names and transaction types through a text-generation backend.
package normalize

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mlibrea/propscan/internal/listing"
	"github.com/mlibrea/propscan/internal/llm"
	"github.com/mlibrea/propscan/internal/logger"
)

const (
	// DefaultConcurrency bounds in-flight backend calls.
	DefaultConcurrency = 10
	// DefaultTimeout bounds one backend call. The backend is remote and
	// slow; an unbounded call would starve the pool.
	DefaultTimeout = 60 * time.Second
)

// transactionTypes holds the values the second response column may carry.
var transactionTypes = map[string]bool{
	"sale":  true,
	"rent":  true,
	"lease": true,
}

// Config tunes a Normalizer.
type Config struct {
	// Timeout bounds one backend call.
	Timeout time.Duration
	// Concurrency is used when All is called with a non-positive bound.
	Concurrency int
}

// DefaultConfig returns the normalizer defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:     DefaultTimeout,
		Concurrency: DefaultConcurrency,
	}
}

// Normalizer runs title normalization calls against a backend and counts
// anomalies across its lifetime.
type Normalizer struct {
	provider llm.Provider
	cfg      Config

	calls     atomic.Int64
	failed    atomic.Int64
	malformed atomic.Int64
}

// New returns a Normalizer backed by provider. Zero config fields take
// their defaults.
func New(provider llm.Provider, cfg Config) *Normalizer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Normalizer{provider: provider, cfg: cfg}
}

// Stats counts backend calls and their anomalies.
type Stats struct {
	// Calls is the number of backend calls attempted.
	Calls int64
	// Failed counts calls the backend errored or timed out on.
	Failed int64
	// Malformed counts responses that missed the output grammar.
	Malformed int64
}

// Stats returns the lifetime counters.
func (n *Normalizer) Stats() Stats {
	return Stats{
		Calls:     n.calls.Load(),
		Failed:    n.failed.Load(),
		Malformed: n.malformed.Load(),
	}
}

// All normalizes every record's title and merges the building name and
// transaction type back positionally: input order is preserved regardless
// of completion order. Up to concurrency calls run at once (the configured
// default when non-positive). One failed call never aborts its siblings;
// the affected record keeps empty columns.
func (n *Normalizer) All(ctx context.Context, records []listing.Record, reference string, concurrency int) []listing.Record {
	if concurrency <= 0 {
		concurrency = n.cfg.Concurrency
	}
	if reference == "" {
		reference = DefaultReference
	}

	out := make([]listing.Record, len(records))
	copy(out, records)

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i := range out {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			out[i].Building, out[i].TransactionType = n.one(ctx, out[i].Title, reference)
		}(i)
	}
	wg.Wait()

	logger.Info("titles normalized",
		"count", len(out),
		"failed", n.failed.Load(),
		"malformed", n.malformed.Load())
	return out
}

// one runs a single normalization call under the per-call timeout. Errors
// and grammar misses are counted, logged, and swallowed: the backend is
// non-deterministic, so a retry would not buy conformance.
func (n *Normalizer) one(ctx context.Context, title, reference string) (building, transaction string) {
	n.calls.Add(1)

	callCtx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	resp, err := n.provider.Complete(callCtx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: BuildPrompt(title, reference)},
		},
	})
	if err != nil {
		n.failed.Add(1)
		logger.Warn("normalization call failed", "title", title, "error", err)
		return "", ""
	}

	building, transaction, ok := ParsePair(resp.Content)
	if !ok {
		n.malformed.Add(1)
		logger.Debug("non-conforming normalization response",
			"title", title, "response", resp.Content)
	}
	return building, transaction
}

// ParsePair splits a backend response on its first pipe into building name
// and transaction type. The first pipe is the sole separator: a pipe in the
// second column is never treated as another split point. A response with no
// pipe at all is taken whole as the building name. ok reports whether the
// response conformed to the grammar, including the transaction type domain.
func ParsePair(response string) (building, transaction string, ok bool) {
	s := strings.TrimSpace(response)
	if s == "" {
		return "", "", false
	}

	building, transaction, found := strings.Cut(s, "|")
	if !found {
		return s, "", false
	}

	building = strings.TrimSpace(building)
	transaction = strings.ToLower(strings.TrimSpace(transaction))
	if transaction != "" && !transactionTypes[transaction] {
		return building, "", false
	}
	return building, transaction, true
}
