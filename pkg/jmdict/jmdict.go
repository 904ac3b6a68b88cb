// Package jmdict loads the jmdict-simplified English dictionary and answers
// term lookups with meanings and kana readings.
package jmdict

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/okanehara/vocabdex/pkg/vocab"
)

// Entry matches the structure of jmdict-simplified entries.
type Entry struct {
	ID    string    `json:"id"`
	Kanji []Element `json:"kanji"`
	Kana  []Element `json:"kana"`
	Sense []Sense   `json:"sense"`
}

type Element struct {
	Text   string   `json:"text"`
	Common bool     `json:"common"`
	Tags   []string `json:"tags"`
}

type Sense struct {
	PartOfSpeech []string `json:"partOfSpeech"`
	Gloss        []Gloss  `json:"gloss"`
}

type Gloss struct {
	Text string `json:"text"`
	Lang string `json:"lang"` // defaults to 'eng' if missing
}

// Load reads a jmdict-simplified JSON file. Both the object wrapper form
// { "words": [...] } and a bare array are accepted.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var wrapper struct {
		Words []Entry `json:"words"`
	}
	dec := json.NewDecoder(f)
	if err := dec.Decode(&wrapper); err == nil && len(wrapper.Words) > 0 {
		return wrapper.Words, nil
	}

	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}
	var entries []Entry
	dec = json.NewDecoder(f)
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("parse dictionary as object or array: %w", err)
	}
	return entries, nil
}

// Dict is an in-memory lookup index over dictionary entries, keyed by both
// kanji and kana spellings. It is read-only after construction and safe for
// concurrent use.
type Dict struct {
	index map[string][]Entry
}

// New builds the lookup index.
func New(entries []Entry) *Dict {
	idx := make(map[string][]Entry)
	for _, e := range entries {
		for _, k := range e.Kanji {
			idx[k.Text] = append(idx[k.Text], e)
		}
		for _, k := range e.Kana {
			idx[k.Text] = append(idx[k.Text], e)
		}
	}
	return &Dict{index: idx}
}

// Open loads a dictionary file and indexes it in one step.
func Open(path string) (*Dict, error) {
	entries, err := Load(path)
	if err != nil {
		return nil, err
	}
	return New(entries), nil
}

// Len reports how many distinct spellings the index covers.
func (d *Dict) Len() int {
	return len(d.index)
}

// Lookup resolves a term into a row with the dictionary's reading and a
// short meaning. readingHint, when non-empty, filters matches to entries
// carrying that kana reading. The second return is false when nothing
// matched.
func (d *Dict) Lookup(term, readingHint string) (vocab.Row, bool) {
	matches := d.findMatches(term, readingHint)
	if len(matches) == 0 {
		return vocab.Row{}, false
	}

	best := matches[0]
	reading := readingHint
	if reading == "" && len(best.Kana) > 0 {
		reading = ToHiragana(best.Kana[0].Text)
	}
	return vocab.Row{
		Term:    term,
		Reading: reading,
		Meaning: shortMeaning(matches),
	}, true
}

func (d *Dict) findMatches(term, readingHint string) []Entry {
	entries, ok := d.index[term]
	if !ok {
		return nil
	}

	// Dedupe by entry ID; the same entry is indexed under every spelling.
	byID := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if isMatch(e, term, readingHint) {
			byID[e.ID] = e
		}
	}

	results := make([]Entry, 0, len(byID))
	for _, e := range byID {
		results = append(results, e)
	}
	// ID order keeps repeated lookups deterministic.
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results
}

func isMatch(entry Entry, term, readingHint string) bool {
	hasText := false
	for _, k := range entry.Kanji {
		if k.Text == term {
			hasText = true
			break
		}
	}
	if !hasText {
		for _, k := range entry.Kana {
			if k.Text == term {
				hasText = true
				break
			}
		}
	}
	if !hasText {
		return false
	}

	if readingHint == "" {
		return true
	}
	want := ToHiragana(readingHint)
	for _, k := range entry.Kana {
		if ToHiragana(k.Text) == want {
			return true
		}
	}
	return false
}

// shortMeaning joins the first two non-Wikipedia English glosses across the
// matched entries with "; ". Glosses sourced from Wikipedia tend to be
// article titles rather than definitions.
func shortMeaning(matches []Entry) string {
	var glosses []string
	for _, e := range matches {
		for _, s := range e.Sense {
			for _, g := range s.Gloss {
				if g.Lang != "" && g.Lang != "eng" {
					continue
				}
				if strings.Contains(strings.ToLower(g.Text), "wikipedia") {
					continue
				}
				glosses = append(glosses, g.Text)
				if len(glosses) == 2 {
					return strings.Join(glosses, "; ")
				}
			}
		}
	}
	return strings.Join(glosses, "; ")
}

// ToHiragana converts katakana runes to their hiragana counterparts.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}
