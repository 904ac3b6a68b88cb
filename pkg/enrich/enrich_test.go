package enrich

import (
	"context"
	"testing"

	"github.com/okanehara/vocabdex/pkg/vocab"
)

type fakeDict map[string]vocab.Row

func (d fakeDict) Lookup(term, readingHint string) (vocab.Row, bool) {
	r, ok := d[term]
	return r, ok
}

func TestRowsFillsBlanksOnly(t *testing.T) {
	dict := fakeDict{
		"犬": {Term: "犬", Reading: "いぬ", Meaning: "dog"},
		"猫": {Term: "猫", Reading: "ねこ", Meaning: "cat"},
	}
	in := []vocab.Row{
		{Term: "犬"},
		{Term: "猫", Meaning: "kitty"}, // populated meaning must survive
		{Term: "謎"},                   // no dictionary hit
	}
	out := New(dict, 2, nil).Rows(context.Background(), in)

	if out[0].Reading != "いぬ" || out[0].Meaning != "dog" {
		t.Errorf("row 0 not enriched: %+v", out[0])
	}
	if out[1].Meaning != "kitty" {
		t.Errorf("populated meaning overwritten: %+v", out[1])
	}
	if out[1].Reading != "ねこ" {
		t.Errorf("blank reading not filled: %+v", out[1])
	}
	if out[2].Meaning != "" {
		t.Errorf("missing entry invented a meaning: %+v", out[2])
	}
}

func TestRowsPreservesOrderAndInput(t *testing.T) {
	dict := fakeDict{"犬": {Term: "犬", Reading: "いぬ", Meaning: "dog"}}
	in := []vocab.Row{{Term: "山"}, {Term: "犬"}, {Term: "川"}}
	out := New(dict, 4, nil).Rows(context.Background(), in)

	if len(out) != 3 || out[0].Term != "山" || out[1].Term != "犬" || out[2].Term != "川" {
		t.Errorf("order changed: %+v", out)
	}
	if in[1].Meaning != "" {
		t.Errorf("input slice was mutated: %+v", in[1])
	}
}

func TestOneUnmatchedKeepsInput(t *testing.T) {
	e := New(fakeDict{}, 1, nil)
	row, err := e.One(context.Background(), "謎", "なぞ")
	if err != nil {
		t.Fatal(err)
	}
	if row.Term != "謎" || row.Reading != "なぞ" || row.Meaning != "" {
		t.Errorf("got %+v", row)
	}
}
