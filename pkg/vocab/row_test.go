package vocab

import "testing"

func TestNormalizeJLPT(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"n2", "N2"},
		{" N-2 ", "N2"},
		{"JLPT N2", "N2"},
		{"Ｎ２", "N2"},
		{"N5", "N5"},
		{"jlpt n1", "N1"},
		{"N6", ""},
		{"", ""},
		{"garbage", ""},
		{"N 3", "N3"},
	}
	for _, c := range cases {
		if got := NormalizeJLPT(c.in); got != c.want {
			t.Errorf("NormalizeJLPT(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCanonicalIsIdempotent(t *testing.T) {
	r := Row{Term: " 漢字 ", Reading: "かんじ\t", Meaning: " kanji ", JLPT: "n3"}
	once := r.Canonical()
	twice := once.Canonical()
	if once != twice {
		t.Errorf("canonicalizing a canonical row changed it: %+v vs %+v", once, twice)
	}
	if once.Term != "漢字" || once.Reading != "かんじ" || once.JLPT != "N3" {
		t.Errorf("unexpected canonical row: %+v", once)
	}
}

func TestCanonicalRowPadding(t *testing.T) {
	r := CanonicalRow([]string{"犬", "いぬ"})
	want := Row{Term: "犬", Reading: "いぬ"}
	if r != want {
		t.Errorf("short record: got %+v, want %+v", r, want)
	}

	r = CanonicalRow([]string{"猫", "ねこ", "cat", "猫がいる。", "n5", "extra"})
	if r.JLPT != "N5" || r.Example != "猫がいる。" {
		t.Errorf("long record: got %+v", r)
	}
}

func TestRowEmpty(t *testing.T) {
	if !(Row{}).Empty() {
		t.Error("zero row should be empty")
	}
	if (Row{Example: "文"}).Empty() {
		t.Error("row with example should not be empty")
	}
}
