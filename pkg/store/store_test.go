package store

import (
	"path/filepath"
	"testing"

	"github.com/okanehara/vocabdex/pkg/vocab"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTemp(t)
	rows := []vocab.Row{
		{Term: "図書館", Reading: "としょかん", Meaning: "library", JLPT: "N4"},
		{Term: "犬", Reading: "いぬ", Meaning: "dog", Example: "犬が走る。"},
	}
	if err := s.Save(rows); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2", len(got))
	}
	// Order is the save order, not insertion-key order.
	if got[0].Term != "図書館" || got[1].Term != "犬" {
		t.Errorf("order lost: %+v", got)
	}
	if got[1].Example != "犬が走る。" {
		t.Errorf("example lost: %+v", got[1])
	}
}

func TestSaveReplacesSnapshot(t *testing.T) {
	s := openTemp(t)
	if err := s.Save([]vocab.Row{{Term: "旧", Reading: "きゅう"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save([]vocab.Row{{Term: "新", Reading: "しん"}}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Term != "新" {
		t.Errorf("old snapshot survived: %+v", got)
	}
}

func TestSaveSkipsEmptyTerms(t *testing.T) {
	s := openTemp(t)
	if err := s.Save([]vocab.Row{{Term: ""}, {Term: "犬", Reading: "いぬ"}}); err != nil {
		t.Fatal(err)
	}
	n, err := s.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestLoadEmptyDatabase(t *testing.T) {
	s := openTemp(t)
	got, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("fresh database returned rows: %+v", got)
	}
}

func TestSaveCanonicalizes(t *testing.T) {
	s := openTemp(t)
	if err := s.Save([]vocab.Row{{Term: " 犬 ", Reading: "いぬ", JLPT: "n5"}}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Term != "犬" || got[0].JLPT != "N5" {
		t.Errorf("stored row not canonical: %+v", got[0])
	}
}
