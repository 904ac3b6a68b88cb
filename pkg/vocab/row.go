package vocab

import "strings"

// Row is the canonical 5-field vocabulary entry. Term is the headword and
// is required; every other field may be empty.
type Row struct {
	Term    string // headword (kanji or kana)
	Reading string // kana reading
	Meaning string // English gloss
	Example string // one Japanese sentence using the term
	JLPT    string // "N5".."N1" or empty
}

// Key identifies a row uniquely across merges and dedup.
type Key struct {
	Term    string
	Reading string
}

// Key returns the (term, reading) identity of the row. Callers should
// canonicalize first; Key does not normalize.
func (r Row) Key() Key { return Key{Term: r.Term, Reading: r.Reading} }

// Empty reports whether every field of the row is blank.
func (r Row) Empty() bool {
	return r.Term == "" && r.Reading == "" && r.Meaning == "" && r.Example == "" && r.JLPT == ""
}

// Fields returns the row as a 5-element positional record.
func (r Row) Fields() []string {
	return []string{r.Term, r.Reading, r.Meaning, r.Example, r.JLPT}
}

// Canonical returns the row with every field normalized. Canonicalizing an
// already-canonical row is a no-op.
func (r Row) Canonical() Row {
	return Row{
		Term:    norm(r.Term),
		Reading: norm(r.Reading),
		Meaning: norm(r.Meaning),
		Example: norm(r.Example),
		JLPT:    NormalizeJLPT(r.JLPT),
	}
}

// CanonicalRow builds a canonical Row from a raw positional record of 2 to 5
// fields. Missing trailing fields are treated as empty; extra fields are
// dropped. It never fails: malformed JLPT values normalize to empty.
func CanonicalRow(fields []string) Row {
	var f [5]string
	copy(f[:], fields)
	return Row{
		Term:    norm(f[0]),
		Reading: norm(f[1]),
		Meaning: norm(f[2]),
		Example: norm(f[3]),
		JLPT:    NormalizeJLPT(f[4]),
	}
}

func norm(s string) string { return strings.TrimSpace(s) }

var jlptLevels = map[string]bool{
	"N5": true, "N4": true, "N3": true, "N2": true, "N1": true,
}

// NormalizeJLPT maps noisy JLPT annotations ("n2", " N-2 ", "JLPT N2", "Ｎ２")
// onto the canonical N5..N1 set. Anything else collapses to empty.
func NormalizeJLPT(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(norm(s)) {
		switch {
		case r == ' ' || r == '　' || r == '-' || r == '－':
			// drop separators
		case r == 'Ｎ':
			b.WriteRune('N')
		case r >= '０' && r <= '９':
			b.WriteRune(r - '０' + '0')
		default:
			b.WriteRune(r)
		}
	}
	v := strings.ReplaceAll(b.String(), "JLPT", "")
	if jlptLevels[v] {
		return v
	}
	return ""
}
