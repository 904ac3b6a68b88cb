package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/okanehara/vocabdex/pkg/loosejson"
	"github.com/okanehara/vocabdex/pkg/vocab"
)

const exampleSystemPrompt = "You write natural Japanese example sentences for vocabulary study. " +
	"Respond ONLY with valid JSON."

// exampleChunkSize bounds how many terms go into one request so replies
// stay within the model's comfortable output range.
const exampleChunkSize = 40

// exampleRetries is how many times a failed chunk is retried before its
// rows are left without examples.
const exampleRetries = 2

var furiganaRe = regexp.MustCompile(`\([^)]*\)`)

// RemoveFurigana strips parenthesized reading annotations the model
// sometimes embeds in sentences, e.g. "漢字(かんじ)を書く" becomes
// "漢字を書く".
func RemoveFurigana(s string) string {
	return strings.TrimSpace(furiganaRe.ReplaceAllString(s, ""))
}

// FillExamples generates example sentences for every row that lacks one,
// in chunks, mutating the slice in place. Failures are per-chunk and
// best-effort: rows in a chunk that never succeeds keep their empty
// example. The returned count is how many rows gained an example.
func (c *Client) FillExamples(ctx context.Context, rows []vocab.Row) (int, error) {
	var missing []int
	for i, r := range rows {
		if r.Term != "" && r.Example == "" {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}

	filled := 0
	for start := 0; start < len(missing); start += exampleChunkSize {
		end := start + exampleChunkSize
		if end > len(missing) {
			end = len(missing)
		}
		chunk := missing[start:end]

		if err := ctx.Err(); err != nil {
			return filled, err
		}
		examples, err := c.exampleChunk(ctx, rows, chunk)
		if err != nil {
			c.log.Warn("example chunk failed",
				"from", start, "size", len(chunk), "error", err.Error())
			continue
		}
		for _, i := range chunk {
			sentence, ok := examples[rows[i].Term]
			if !ok {
				continue
			}
			sentence = RemoveFurigana(sentence)
			// A sentence that never mentions the term is useless for study.
			if sentence == "" || !strings.Contains(sentence, rows[i].Term) {
				continue
			}
			rows[i].Example = sentence
			filled++
		}
	}
	return filled, nil
}

// exampleChunk requests sentences for one chunk of rows, retrying with a
// short growing delay.
func (c *Client) exampleChunk(ctx context.Context, rows []vocab.Row, idx []int) (map[string]string, error) {
	type entry struct {
		Term    string `json:"term"`
		Reading string `json:"reading,omitempty"`
		Meaning string `json:"meaning,omitempty"`
	}
	entries := make([]entry, 0, len(idx))
	for _, i := range idx {
		entries = append(entries, entry{Term: rows[i].Term, Reading: rows[i].Reading, Meaning: rows[i].Meaning})
	}
	payload := map[string]any{
		"instruction": "Write one natural Japanese example sentence per term. Each sentence must contain the term verbatim, with no furigana in parentheses.",
		"terms":       entries,
		"schema":      map[string]any{"items": []map[string]string{{"term": "単語", "example": "単語を使った例文。"}}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal example request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= exampleRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(time.Second) * (0.4 + 0.4*float64(attempt)))
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		reply, err := c.complete(ctx, exampleSystemPrompt, string(body), true)
		if err != nil {
			lastErr = err
			continue
		}
		items, err := loosejson.Items(reply)
		if err != nil {
			lastErr = err
			continue
		}
		out := make(map[string]string, len(items))
		for _, it := range items {
			if it.Term != "" && it.Example != "" {
				out[it.Term] = it.Example
			}
		}
		if len(out) == 0 {
			lastErr = fmt.Errorf("reply carried no example sentences")
			continue
		}
		return out, nil
	}
	return nil, lastErr
}
