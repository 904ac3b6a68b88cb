// Package enrich fills blank row fields from a dictionary, fanning lookups
// out over a worker pool.
package enrich

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/okanehara/vocabdex/pkg/vocab"
)

// Lookup resolves a term (with an optional kana reading hint) to dictionary
// data. The boolean is false when nothing matched.
type Lookup interface {
	Lookup(term, readingHint string) (vocab.Row, bool)
}

// Enricher runs dictionary lookups over row batches.
type Enricher struct {
	dict    Lookup
	workers int
	log     *slog.Logger
}

// New creates an Enricher. workers <= 0 selects one worker per CPU.
func New(dict Lookup, workers int, log *slog.Logger) *Enricher {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Enricher{dict: dict, workers: workers, log: log}
}

// Rows fills blank Reading and Meaning fields from the dictionary, leaving
// populated fields and unmatched rows untouched. The input order is
// preserved. Lookups run concurrently; cancellation stops scheduling but
// already-running lookups complete.
func (e *Enricher) Rows(ctx context.Context, rows []vocab.Row) []vocab.Row {
	out := make([]vocab.Row, len(rows))
	copy(out, rows)

	pending := make([]int, 0, len(out))
	for i := range out {
		if out[i].Term == "" || (out[i].Reading != "" && out[i].Meaning != "") {
			continue
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return out
	}

	workers := e.workers
	if workers > len(pending) {
		workers = len(pending)
	}
	matched := newLookupPool(e.dict, out, workers).run(ctx, pending)

	e.log.Debug("dictionary enrichment done",
		slog.Int("rows", len(rows)), slog.Int64("matched", matched))
	return out
}

// One adapts the enricher to a single-term lookup, matching the signature
// the generation loop expects.
func (e *Enricher) One(_ context.Context, term, readingHint string) (vocab.Row, error) {
	row, ok := e.dict.Lookup(term, readingHint)
	if !ok {
		return vocab.Row{Term: term, Reading: readingHint}, nil
	}
	return row, nil
}
