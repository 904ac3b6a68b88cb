// Package extract turns unstructured Japanese text into ranked vocabulary
// and phrase candidates ready to become table rows.
package extract

import (
	"sort"

	"github.com/okanehara/vocabdex/pkg/tokenize"
	"github.com/okanehara/vocabdex/pkg/vocab"
)

// Options control candidate selection and ranking.
type Options struct {
	// TopK caps the number of returned candidates.
	TopK int
	// MinFreq drops single-word candidates seen fewer times than this.
	MinFreq int
	// AllowPhrases enables multi-token phrase candidates.
	AllowPhrases bool
	// MaxNgramLen is the longest n-gram window, in tokens.
	MaxNgramLen int
}

// DefaultOptions mirror the defaults used by the interactive flow.
func DefaultOptions() Options {
	return Options{TopK: 80, MinFreq: 2, AllowPhrases: true, MaxNgramLen: 3}
}

// Candidate is a scored (term, reading) pair proposed before becoming a Row.
type Candidate struct {
	Term    string
	Reading string
	Score   float64
	Phrase  bool
}

// punct holds single-character tokens discarded before any candidate work.
var punct = map[string]bool{}

func init() {
	for _, r := range "。．、，・！？!?（）()［］[]{}：；「」『』…—- \n\t\r" {
		punct[string(r)] = true
	}
}

// stopTerms are high-frequency function-like words that make poor vocabulary
// entries.
var stopTerms = map[string]bool{
	"する": true, "ある": true, "いる": true, "こと": true, "もの": true,
	"これ": true, "それ": true, "あれ": true, "ため": true, "よう": true,
	"さん": true, "できる": true, "なる": true, "及び": true, "また": true,
	"など": true, "ようだ": true, "ように": true, "そして": true,
}

const (
	posNoun      = "名詞"
	posVerb      = "動詞"
	posAdjective = "形容詞"
)

// Candidates tokenizes text and returns ranked (term, reading) candidates,
// highest score first, each term unique across the whole output. Given
// identical text and options the result is identical: ties break by
// first-seen order. Empty or unparseable input yields an empty result.
func Candidates(tok tokenize.Tokenizer, text string, opts Options) []Candidate {
	morphs := tok.Tokenize(text)
	if len(morphs) == 0 {
		return nil
	}

	words := singleWords(morphs, opts.MinFreq)

	var phrases []Candidate
	if opts.AllowPhrases {
		phrases = phraseCandidates(morphs, opts.MaxNgramLen)
	}

	return combine(words, phrases, opts.TopK)
}

// Rows converts the ranked candidates into canonical table rows with the
// meaning, example and JLPT fields left empty for downstream enrichment.
func Rows(tok tokenize.Tokenizer, text string, opts Options) []vocab.Row {
	cands := Candidates(tok, text, opts)
	rows := make([]vocab.Row, 0, len(cands))
	for _, c := range cands {
		rows = append(rows, vocab.Row{Term: c.Term, Reading: c.Reading})
	}
	return rows
}

// readingHist tracks how often each reading was observed for one headword.
// The majority reading wins; ties break in favor of the first one inserted.
type readingHist struct {
	counts map[string]int
	order  []string
}

func (h *readingHist) add(reading string) {
	if _, ok := h.counts[reading]; !ok {
		h.order = append(h.order, reading)
	}
	h.counts[reading]++
}

func (h *readingHist) best() string {
	best, bestCount := "", -1
	for _, r := range h.order {
		if h.counts[r] > bestCount {
			best, bestCount = r, h.counts[r]
		}
	}
	return best
}

func singleWords(morphs []tokenize.Morpheme, minFreq int) []Candidate {
	freq := make(map[string]int)
	readings := make(map[string]*readingHist)
	var order []string

	for _, m := range morphs {
		if punct[m.Surface] {
			continue
		}
		if m.POS != posNoun && m.POS != posVerb && m.POS != posAdjective {
			continue
		}
		// Verbs and adjectives collapse to the lemma so inflected forms
		// share one entry; nouns keep the surface form.
		head := m.Surface
		if m.POS != posNoun {
			head = m.Lemma
		}
		if head == "" || stopTerms[head] {
			continue
		}
		if _, ok := freq[head]; !ok {
			order = append(order, head)
			readings[head] = &readingHist{counts: make(map[string]int)}
		}
		freq[head]++
		readings[head].add(m.Reading)
	}

	var out []Candidate
	for _, head := range order {
		c := freq[head]
		if c < minFreq {
			continue
		}
		out = append(out, Candidate{
			Term:    head,
			Reading: readings[head].best(),
			Score:   float64(c) + float64(lengthBonus(head, 2)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// lengthBonus favors longer headwords, capped at 2.
func lengthBonus(term string, div int) int {
	b := len([]rune(term)) / div
	if b > 2 {
		return 2
	}
	return b
}

func scorePhrase(parts []tokenize.Morpheme) Candidate {
	var term, reading string
	for _, p := range parts {
		term += p.Surface
		reading += p.Reading
	}
	return Candidate{
		Term:    term,
		Reading: reading,
		Score:   2.0 + 0.4*float64(len(parts)) + float64(lengthBonus(term, 3)),
		Phrase:  true,
	}
}

// phraseCandidates runs three independent generators over the token
// sequence with punctuation removed: maximal noun runs, adjective+noun
// bigrams, and short n-gram windows containing at least two nouns.
func phraseCandidates(morphs []tokenize.Morpheme, maxNgramLen int) []Candidate {
	seq := make([]tokenize.Morpheme, 0, len(morphs))
	for _, m := range morphs {
		if !punct[m.Surface] {
			seq = append(seq, m)
		}
	}

	var out []Candidate

	// Maximal runs of consecutive nouns.
	var run []tokenize.Morpheme
	flush := func() {
		if len(run) >= 2 {
			out = append(out, scorePhrase(run))
		}
		run = nil
	}
	for _, m := range seq {
		if m.POS == posNoun {
			run = append(run, m)
		} else {
			flush()
		}
	}
	flush()

	// Adjacent adjective+noun bigrams.
	for i := 0; i+1 < len(seq); i++ {
		if seq[i].POS == posAdjective && seq[i+1].POS == posNoun {
			out = append(out, scorePhrase(seq[i:i+2]))
		}
	}

	// Sliding n-gram windows that are mostly nouns.
	if maxNgramLen < 2 {
		maxNgramLen = 2
	}
	for n := 2; n <= maxNgramLen; n++ {
		for i := 0; i+n <= len(seq); i++ {
			window := seq[i : i+n]
			nouns := 0
			for _, m := range window {
				if m.POS == posNoun {
					nouns++
				}
			}
			if nouns >= 2 {
				out = append(out, scorePhrase(window))
			}
		}
	}

	return out
}

// combine merges single-word and phrase candidates into one de-duplicated
// list keyed by term, first occurrence winning. Phrases get a flat +0.5
// bonus so compounds edge out equally-scored single words. The result is
// sorted by score descending (stable, so ties keep first-seen order),
// filtered to terms of at least two characters, and truncated to topK.
func combine(words, phrases []Candidate, topK int) []Candidate {
	seen := make(map[string]bool)
	combined := make([]Candidate, 0, len(words)+len(phrases))
	for _, c := range words {
		if seen[c.Term] {
			continue
		}
		seen[c.Term] = true
		combined = append(combined, c)
	}
	for _, c := range phrases {
		if c.Term == "" || stopTerms[c.Term] || seen[c.Term] {
			continue
		}
		seen[c.Term] = true
		c.Score += 0.5
		combined = append(combined, c)
	}

	sort.SliceStable(combined, func(i, j int) bool { return combined[i].Score > combined[j].Score })

	out := make([]Candidate, 0, topK)
	for _, c := range combined {
		if len([]rune(c.Term)) >= 2 {
			out = append(out, c)
		}
		if topK > 0 && len(out) >= topK {
			break
		}
	}
	return out
}
