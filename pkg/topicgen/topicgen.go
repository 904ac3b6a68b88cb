// Package topicgen assembles an exact count of novel vocabulary rows for a
// topic from an unreliable free-text generation source.
package topicgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/okanehara/vocabdex/pkg/loosejson"
	"github.com/okanehara/vocabdex/pkg/vocab"
)

// BatchRequest describes one round-trip to the generative collaborator.
type BatchRequest struct {
	Topic string
	Count int
	// Avoid lists keys the reply must not repeat: the caller's avoid-set
	// plus everything collected so far.
	Avoid []vocab.Key
	// Rules are guidance strings; they escalate as attempts pile up.
	Rules []string
}

// BatchSource is the generative collaborator. It returns free text expected
// to contain a JSON object with an "items" array; replies may be wrapped in
// prose or code fences.
type BatchSource interface {
	GenerateBatch(ctx context.Context, req BatchRequest) (string, error)
}

// Enricher looks a term up in a dictionary source. Returned fields fill
// blanks in the generated row; an error leaves the row untouched.
type Enricher func(ctx context.Context, term, readingHint string) (vocab.Row, error)

const (
	// roundCap bounds the collection loop.
	roundCap = 12
	// stallLimit is how many consecutive zero-yield rounds we tolerate.
	stallLimit = 6
	// perRoundRetries bounds parse/transport retries inside one round.
	perRoundRetries = 2
	// baseBackoff scales the inter-round sleep by attempt index.
	baseBackoff = 200 * time.Millisecond
)

// ErrEmptyYield means a batch parsed but contained zero usable items.
var ErrEmptyYield = errors.New("topicgen: batch contained no usable items")

// StallError is raised when several consecutive rounds produce nothing new.
type StallError struct {
	Topic  string
	Rounds int
}

func (e *StallError) Error() string {
	return fmt.Sprintf("topicgen: no new unique items for topic %q after %d rounds", e.Topic, e.Rounds)
}

// CapError is raised when the round cap is exhausted short of the target.
// Got is always less than Want.
type CapError struct {
	Topic string
	Want  int
	Got   int
}

func (e *CapError) Error() string {
	return fmt.Sprintf("topicgen: collected %d of %d items for topic %q before the round cap", e.Got, e.Want, e.Topic)
}

// Options configure one Generate invocation.
type Options struct {
	// Count is the exact number of rows to return.
	Count int
	// GPTOnly skips dictionary enrichment.
	GPTOnly bool
	// Avoid holds keys the result must not collide with.
	Avoid map[vocab.Key]struct{}
	// OnRound, when set, is called after each round with the attempt index
	// and the running collected count.
	OnRound func(round, collected int)
}

// Generator orchestrates repeated generation rounds. The source and the
// optional enricher are caller-owned and injected; the generator keeps no
// cross-call state.
type Generator struct {
	Source BatchSource
	Enrich Enricher
	Logger *slog.Logger

	// sleep and retry are test seams; nil means a real context-aware
	// sleep and exponential backoff.
	sleep func(ctx context.Context, d time.Duration) error
	retry func() backoff.BackOff
}

// New creates a Generator over the given source.
func New(source BatchSource) *Generator {
	return &Generator{Source: source}
}

// Generate returns exactly opts.Count rows whose keys are disjoint from
// opts.Avoid and from each other. It raises a *StallError when rounds stop
// yielding anything new, and a *CapError when the round cap plus one final
// oversized request still leave the target unmet. Cancellation is checked
// at each round boundary.
func (g *Generator) Generate(ctx context.Context, topic string, opts Options) ([]vocab.Row, error) {
	if opts.Count <= 0 {
		return nil, nil
	}
	log := g.Logger
	if log == nil {
		log = slog.Default()
	}

	avoid := make(map[vocab.Key]struct{}, len(opts.Avoid))
	for k := range opts.Avoid {
		avoid[k] = struct{}{}
	}
	collected := make(map[vocab.Key]vocab.Row, opts.Count)
	var order []vocab.Key

	fold := func(batch []vocab.Row) int {
		added := 0
		for _, row := range batch {
			k := row.Key()
			if k.Term == "" {
				continue
			}
			if _, dup := avoid[k]; dup {
				continue
			}
			if _, dup := collected[k]; dup {
				continue
			}
			collected[k] = row
			order = append(order, k)
			added++
			if len(collected) >= opts.Count {
				break
			}
		}
		return added
	}

	stalled := 0
	attempt := 0
	for len(collected) < opts.Count && attempt < roundCap {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		attempt++
		remaining := opts.Count - len(collected)

		batch := g.fetchBatch(ctx, log, topic, askFor(remaining), avoidList(avoid, order), attempt)
		if fold(batch) == 0 {
			stalled++
			if stalled >= stallLimit {
				return nil, &StallError{Topic: topic, Rounds: attempt}
			}
		} else {
			stalled = 0
		}

		if opts.OnRound != nil {
			opts.OnRound(attempt, len(collected))
		}

		// Gentle, attempt-scaled backoff before asking again; helps with
		// rate limits on an overloaded collaborator.
		if len(collected) < opts.Count {
			if err := g.pause(ctx, time.Duration(attempt)*baseBackoff); err != nil {
				return nil, err
			}
		}
	}

	// One final oversized request before giving up.
	if len(collected) < opts.Count {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		remaining := opts.Count - len(collected)
		batch := g.fetchBatch(ctx, log, topic, remaining+10, avoidList(avoid, order), attempt+1)
		fold(batch)
	}

	if len(collected) < opts.Count {
		return nil, &CapError{Topic: topic, Want: opts.Count, Got: len(collected)}
	}

	rows := make([]vocab.Row, 0, opts.Count)
	for _, k := range order[:opts.Count] {
		rows = append(rows, collected[k])
	}

	// Best-effort enrichment: dictionary data fills blanks only, and any
	// failure keeps the generated row untouched.
	if !opts.GPTOnly && g.Enrich != nil {
		for i, row := range rows {
			enriched, err := g.Enrich(ctx, row.Term, row.Reading)
			if err != nil {
				continue
			}
			enriched = enriched.Canonical()
			if rows[i].Reading == "" && enriched.Reading != "" {
				rows[i].Reading = enriched.Reading
			}
			if rows[i].Meaning == "" && enriched.Meaning != "" {
				rows[i].Meaning = enriched.Meaning
			}
			if rows[i].JLPT == "" && enriched.JLPT != "" {
				rows[i].JLPT = enriched.JLPT
			}
		}
	}

	return rows[:opts.Count], nil
}

// askFor over-requests to compensate for expected duplicate and invalid
// yields: remaining plus a slack of 4..8, floored at a 24-item batch when
// little remains.
func askFor(remaining int) int {
	n := remaining + 4
	if n < 24 {
		n = 24
	}
	if remaining+8 < n {
		n = remaining + 8
	}
	return n
}

// fetchBatch performs one round: call the source, repair-parse the reply,
// canonicalize and batch-dedup. Transport and parse failures are retried a
// bounded number of times with exponential backoff; an exhausted round
// yields an empty batch and counts against the caller's round budget
// rather than propagating.
func (g *Generator) fetchBatch(ctx context.Context, log *slog.Logger, topic string, n int, avoid []vocab.Key, attempt int) []vocab.Row {
	req := BatchRequest{Topic: topic, Count: n, Avoid: avoid, Rules: guidance(attempt)}

	var rows []vocab.Row
	op := func() error {
		reply, err := g.Source.GenerateBatch(ctx, req)
		if err != nil {
			log.Warn("generation call failed",
				slog.String("topic", topic),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			return err
		}
		items, err := loosejson.Items(reply)
		if err != nil {
			log.Warn("unparseable generation reply",
				slog.String("topic", topic),
				slog.Int("attempt", attempt),
				slog.String("snippet", snippet(reply)))
			return err
		}
		rows = rowsFromItems(items)
		if len(rows) == 0 {
			return ErrEmptyYield
		}
		return nil
	}

	var bo backoff.BackOff = backoff.NewExponentialBackOff()
	if g.retry != nil {
		bo = g.retry()
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, perRoundRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		log.Warn("round produced no usable items",
			slog.String("topic", topic),
			slog.Int("attempt", attempt))
		return nil
	}
	return rows
}

// rowsFromItems canonicalizes parsed items, drops empty terms, and dedups
// within the batch by key, first occurrence winning.
func rowsFromItems(items []loosejson.Item) []vocab.Row {
	seen := make(map[vocab.Key]bool, len(items))
	rows := make([]vocab.Row, 0, len(items))
	for _, it := range items {
		row := vocab.Row{
			Term:    it.Term,
			Reading: it.Reading,
			Meaning: it.Meaning,
			Example: it.Example,
			JLPT:    it.JLPT,
		}.Canonical()
		if row.Term == "" || seen[row.Key()] {
			continue
		}
		seen[row.Key()] = true
		rows = append(rows, row)
	}
	return rows
}

// guidance returns the rule strings for one request, broadening scope as
// attempts accumulate so the collaborator stops proposing the same
// high-frequency items.
func guidance(attempt int) []string {
	rules := []string{
		"Return unique items only; no duplicates within output.",
		"Do not include any pair present in 'avoid_pairs'.",
		"reading must be kana (hiragana/katakana).",
		"example must be 1 short-medium, natural Japanese sentence using the term.",
		"meaning should be brief English; two or more glosses are fine.",
		"jlpt is one of N5,N4,N3,N2,N1 or empty if unknown.",
	}
	if attempt >= 3 {
		rules = append(rules, "Choose more specific or less common items still clearly within the topic.")
	}
	if attempt >= 6 {
		rules = append(rules, "Consider adjacent subtopics to avoid repeats while staying relevant.")
	}
	if attempt >= 9 {
		rules = append(rules, "Avoid very high-frequency duplicates; diversify parts of speech.")
	}
	return rules
}

// avoidList merges the caller avoid-set with the collected keys into a
// deterministic slice: collected keys first in insertion order, then the
// avoid-set sorted by term and reading.
func avoidList(avoid map[vocab.Key]struct{}, collected []vocab.Key) []vocab.Key {
	out := make([]vocab.Key, 0, len(avoid)+len(collected))
	out = append(out, collected...)
	rest := make([]vocab.Key, 0, len(avoid))
	for k := range avoid {
		rest = append(rest, k)
	}
	sort.Slice(rest, func(i, j int) bool {
		if rest[i].Term != rest[j].Term {
			return rest[i].Term < rest[j].Term
		}
		return rest[i].Reading < rest[j].Reading
	})
	return append(out, rest...)
}

func (g *Generator) pause(ctx context.Context, d time.Duration) error {
	if g.sleep != nil {
		return g.sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func snippet(s string) string {
	const max = 240
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
