package jmdict

import (
	"os"
	"path/filepath"
	"testing"
)

func sampleEntries() []Entry {
	return []Entry{
		{
			ID:    "1000100",
			Kanji: []Element{{Text: "犬"}},
			Kana:  []Element{{Text: "いぬ"}},
			Sense: []Sense{{
				PartOfSpeech: []string{"n"},
				Gloss: []Gloss{
					{Text: "dog", Lang: "eng"},
					{Text: "hound", Lang: "eng"},
					{Text: "canine", Lang: "eng"},
				},
			}},
		},
		{
			ID:    "1000200",
			Kanji: []Element{{Text: "市場"}},
			Kana:  []Element{{Text: "いちば"}},
			Sense: []Sense{{Gloss: []Gloss{{Text: "marketplace"}}}},
		},
		{
			ID:    "1000300",
			Kanji: []Element{{Text: "市場"}},
			Kana:  []Element{{Text: "しじょう"}},
			Sense: []Sense{{Gloss: []Gloss{{Text: "market (financial)"}}}},
		},
		{
			ID:    "1000400",
			Kanji: []Element{{Text: "百科"}},
			Kana:  []Element{{Text: "ひゃっか"}},
			Sense: []Sense{{Gloss: []Gloss{
				{Text: "Hyakka (Wikipedia disambiguation)"},
				{Text: "encyclopedia"},
			}}},
		},
	}
}

func TestLookupByKanji(t *testing.T) {
	d := New(sampleEntries())
	row, ok := d.Lookup("犬", "")
	if !ok {
		t.Fatal("犬 not found")
	}
	if row.Reading != "いぬ" {
		t.Errorf("reading = %q", row.Reading)
	}
	if row.Meaning != "dog; hound" {
		t.Errorf("meaning = %q, want first two glosses", row.Meaning)
	}
}

func TestLookupReadingHintFilters(t *testing.T) {
	d := New(sampleEntries())
	row, ok := d.Lookup("市場", "しじょう")
	if !ok {
		t.Fatal("市場 not found")
	}
	if row.Meaning != "market (financial)" {
		t.Errorf("reading hint ignored: %q", row.Meaning)
	}

	// Katakana hints match hiragana entries.
	if _, ok := d.Lookup("市場", "シジョウ"); !ok {
		t.Error("katakana hint should match")
	}
}

func TestLookupDeterministicOrder(t *testing.T) {
	d := New(sampleEntries())
	// Without a hint both 市場 entries match; the lowest ID wins.
	row, ok := d.Lookup("市場", "")
	if !ok {
		t.Fatal("市場 not found")
	}
	if row.Reading != "いちば" {
		t.Errorf("reading = %q, want いちば (entry 1000200 first)", row.Reading)
	}
}

func TestLookupSkipsWikipediaGlosses(t *testing.T) {
	d := New(sampleEntries())
	row, ok := d.Lookup("百科", "")
	if !ok {
		t.Fatal("百科 not found")
	}
	if row.Meaning != "encyclopedia" {
		t.Errorf("meaning = %q, wikipedia gloss should be skipped", row.Meaning)
	}
}

func TestLookupByKana(t *testing.T) {
	d := New(sampleEntries())
	if _, ok := d.Lookup("いぬ", ""); !ok {
		t.Error("kana spelling should resolve")
	}
	if _, ok := d.Lookup("存在しない", ""); ok {
		t.Error("unknown term resolved")
	}
}

func TestLoadBothShapes(t *testing.T) {
	dir := t.TempDir()

	wrapped := filepath.Join(dir, "wrapped.json")
	if err := os.WriteFile(wrapped, []byte(`{"words": [{"id": "1", "kanji": [{"text": "犬"}], "kana": [{"text": "いぬ"}]}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	entries, err := Load(wrapped)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != "1" {
		t.Errorf("wrapped: %+v", entries)
	}

	bare := filepath.Join(dir, "bare.json")
	if err := os.WriteFile(bare, []byte(`[{"id": "2", "kana": [{"text": "ねこ"}]}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	entries, err = Load(bare)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != "2" {
		t.Errorf("bare: %+v", entries)
	}

	broken := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(broken, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(broken); err == nil {
		t.Error("broken file loaded without error")
	}
}

func TestToHiragana(t *testing.T) {
	if got := ToHiragana("カタカナ"); got != "かたかな" {
		t.Errorf("got %q", got)
	}
	if got := ToHiragana("すでにひらがな"); got != "すでにひらがな" {
		t.Errorf("got %q", got)
	}
}
