package vocab

import "testing"

func table() []Row {
	return []Row{
		{Term: "犬", Reading: "いぬ", Meaning: "dog"},
		{Term: "猫", Reading: "ねこ", Meaning: "cat", JLPT: "N5"},
		{Term: "図書館", Reading: "としょかん"},
	}
}

func TestMergeSelfIsIdempotent(t *testing.T) {
	rows := table()
	res := Merge(rows, rows, Policy{FillBlankOnly: true})
	if res.Added != 0 || res.Updated != 0 {
		t.Errorf("self-merge: added=%d updated=%d, want 0/0", res.Added, res.Updated)
	}
	if len(res.Rows) != len(rows) {
		t.Errorf("self-merge changed row count: %d", len(res.Rows))
	}
}

func TestMergeAppendsNewRows(t *testing.T) {
	incoming := []Row{
		{Term: "海", Reading: "うみ", Meaning: "sea"},
		{Term: "山", Reading: "やま"},
	}
	res := Merge(table(), incoming, Policy{})
	if res.Added != 2 {
		t.Fatalf("added = %d, want 2", res.Added)
	}
	// New rows land after existing ones, in incoming order.
	got := res.Rows[len(res.Rows)-2:]
	if got[0].Term != "海" || got[1].Term != "山" {
		t.Errorf("tail rows = %v", got)
	}
	if _, ok := res.AddedKeys[Key{Term: "海", Reading: "うみ"}]; !ok {
		t.Error("added key missing from AddedKeys")
	}
}

func TestMergeKeyUniqueness(t *testing.T) {
	incoming := []Row{
		{Term: "犬", Reading: "いぬ", Example: "犬が走る。"},
		{Term: "犬", Reading: "いぬ", Meaning: "hound"},
		{Term: "犬", Reading: "けん"}, // distinct reading, distinct key
	}
	res := Merge(table(), incoming, Policy{PreferIncoming: true})
	seen := map[Key]bool{}
	for _, r := range res.Rows {
		if seen[r.Key()] {
			t.Fatalf("duplicate key after merge: %+v", r.Key())
		}
		seen[r.Key()] = true
	}
}

func TestMergeFillBlankOnly(t *testing.T) {
	existing := []Row{{Term: "猫", Reading: "ねこ", Meaning: "cat"}}
	incoming := []Row{{Term: "猫", Reading: "ねこ", Meaning: "feline", Example: "猫が鳴く。"}}
	res := Merge(existing, incoming, Policy{FillBlankOnly: true})
	got := res.Rows[0]
	if got.Meaning != "cat" {
		t.Errorf("populated field overwritten: %q", got.Meaning)
	}
	if got.Example != "猫が鳴く。" {
		t.Errorf("blank field not filled: %q", got.Example)
	}
	if res.Updated != 1 {
		t.Errorf("updated = %d, want 1", res.Updated)
	}
}

func TestMergePreferIncoming(t *testing.T) {
	existing := []Row{{Term: "猫", Reading: "ねこ", Meaning: "cat", JLPT: "N5"}}
	incoming := []Row{{Term: "猫", Reading: "ねこ", Meaning: "feline"}}
	res := Merge(existing, incoming, Policy{PreferIncoming: true})
	got := res.Rows[0]
	if got.Meaning != "feline" {
		t.Errorf("incoming should win: %q", got.Meaning)
	}
	if got.JLPT != "N5" {
		t.Errorf("empty incoming should not clear existing: %q", got.JLPT)
	}
}

func TestMergeDefaultPolicy(t *testing.T) {
	existing := []Row{{Term: "猫", Reading: "ねこ", Meaning: "cat"}}

	// Identical incoming value is not an update.
	res := Merge(existing, []Row{{Term: "猫", Reading: "ねこ", Meaning: "cat"}}, Policy{})
	if res.Updated != 0 {
		t.Errorf("identical re-merge counted as update: %d", res.Updated)
	}

	// Differing non-empty incoming value overwrites and counts.
	res = Merge(existing, []Row{{Term: "猫", Reading: "ねこ", Meaning: "feline"}}, Policy{})
	if res.Rows[0].Meaning != "feline" || res.Updated != 1 {
		t.Errorf("conflict: meaning=%q updated=%d", res.Rows[0].Meaning, res.Updated)
	}

	// Empty incoming never clears.
	res = Merge(existing, []Row{{Term: "猫", Reading: "ねこ"}}, Policy{})
	if res.Rows[0].Meaning != "cat" || res.Updated != 0 {
		t.Errorf("empty incoming: meaning=%q updated=%d", res.Rows[0].Meaning, res.Updated)
	}
}

func TestMergeFillBlankPrecedence(t *testing.T) {
	existing := []Row{{Term: "猫", Reading: "ねこ", Meaning: "cat"}}
	incoming := []Row{{Term: "猫", Reading: "ねこ", Meaning: "feline"}}
	res := Merge(existing, incoming, Policy{FillBlankOnly: true, PreferIncoming: true})
	if res.Rows[0].Meaning != "cat" {
		t.Errorf("fill-blank-only should take precedence: %q", res.Rows[0].Meaning)
	}
}

func TestMergeCanonicalizesBothSides(t *testing.T) {
	existing := []Row{{Term: " 犬 ", Reading: "いぬ"}}
	incoming := []Row{{Term: "犬", Reading: " いぬ ", JLPT: "n4"}}
	res := Merge(existing, incoming, Policy{})
	if res.Added != 0 {
		t.Fatalf("whitespace variants should share a key, added=%d", res.Added)
	}
	if res.Rows[0].JLPT != "N4" {
		t.Errorf("jlpt = %q, want N4", res.Rows[0].JLPT)
	}
}

func TestMergeSkipsEmptyTerms(t *testing.T) {
	res := Merge(nil, []Row{{Reading: "いぬ"}, {Term: ""}}, Policy{})
	if res.Added != 0 || len(res.Rows) != 0 {
		t.Errorf("empty-term rows should be dropped: %+v", res.Rows)
	}
}
