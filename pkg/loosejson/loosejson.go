// Package loosejson recovers structured item lists from near-JSON text.
// Generative collaborators are asked for strict JSON but drift: replies come
// wrapped in prose or code fences, with smart quotes, unquoted keys,
// single-quoted strings or trailing commas. Compliant replies pass through
// untouched; the repair pipeline only runs on text that fails a strict
// parse, and parses strictly at the end.
package loosejson

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParse means no recoverable JSON structure exists after all repairs.
var ErrParse = errors.New("loosejson: no recoverable JSON structure")

// Item is one vocabulary object recovered from a reply. Missing or
// non-string fields degrade to empty strings.
type Item struct {
	Term    string
	Reading string
	Meaning string
	Example string
	JLPT    string
}

// Items repairs text and returns the recovered item list. A reply that
// parses but carries no items yields an empty slice and no error; only an
// unrecoverable structure returns ErrParse.
func Items(text string) ([]Item, error) {
	repaired, err := Repair(text)
	if err != nil {
		return nil, err
	}

	var p struct {
		Items []map[string]any `json:"items"`
		Words []map[string]any `json:"words"`
	}
	if err := json.Unmarshal(repaired, &p); err != nil {
		// Valid JSON but not an object shape we understand (e.g. a bare
		// string). Nothing to recover.
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	raw := p.Items
	if len(raw) == 0 {
		raw = p.Words
	}
	items := make([]Item, 0, len(raw))
	for _, m := range raw {
		items = append(items, Item{
			Term:    stringField(m, "term"),
			Reading: stringField(m, "reading"),
			Meaning: stringField(m, "meaning"),
			Example: stringField(m, "example"),
			JLPT:    stringField(m, "jlpt"),
		})
	}
	return items, nil
}

// Repair normalizes a free-text reply into strict JSON of the shape
// {"items": [...]}. Text that already parses after fence/span extraction
// is returned as-is; the mutating repair steps run only on input that
// failed the strict parse, and the result is re-extracted and retried once
// before giving up.
func Repair(text string) ([]byte, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, fmt.Errorf("%w: empty input", ErrParse)
	}

	if fenced, ok := extractFenced(s); ok {
		s = fenced
	} else if span, ok := largestSpan(s); ok {
		s = span
	}

	// Compliant replies short-circuit before any mutation.
	s = wrapBareArray(s)
	if json.Valid([]byte(s)) {
		return []byte(s), nil
	}

	s = repairSteps(s)
	if json.Valid([]byte(s)) {
		return []byte(s), nil
	}

	// One more pass: the repaired text may still carry stray prose around
	// the structure.
	if span, ok := largestSpan(s); ok {
		span = repairSteps(wrapBareArray(span))
		if json.Valid([]byte(span)) {
			return []byte(span), nil
		}
	}
	return nil, fmt.Errorf("%w after repair", ErrParse)
}

// repairSteps applies the mutating fixes in a fixed order. Single-quoted
// strings are rewritten first so the later steps can treat double quotes
// as the only string delimiter.
func repairSteps(s string) string {
	s = normalizeTypography(s)
	s = wrapBareArray(s)
	s = singleToDouble(s)
	s = quoteBareKeys(s)
	s = stripTrailingCommas(s)
	return s
}

var fenceRe = regexp.MustCompile("(?si)```(?:json)?\\s*(.+?)\\s*```")

func extractFenced(s string) (string, bool) {
	m := fenceRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// largestSpan finds the widest top-level {...} or [...] span, matching the
// first opening bracket to the last closing bracket of the same kind.
func largestSpan(s string) (string, bool) {
	span := func(open, close string) string {
		start := strings.Index(s, open)
		if start == -1 {
			return ""
		}
		end := strings.LastIndex(s, close)
		if end <= start {
			return ""
		}
		return s[start : end+1]
	}
	obj := span("{", "}")
	arr := span("[", "]")
	if len(arr) > len(obj) {
		obj = arr
	}
	if obj == "" {
		return "", false
	}
	return obj, true
}

var typographyReplacer = strings.NewReplacer(
	"“", `"`, "”", `"`, "„", `"`,
	"‘", "'", "’", "'", "‚", "'",
	" ", " ",
)

func normalizeTypography(s string) string {
	return typographyReplacer.Replace(s)
}

func wrapBareArray(s string) string {
	if strings.HasPrefix(strings.TrimSpace(s), "[") {
		return `{"items": ` + s + `}`
	}
	return s
}

// quoteBareKeys wraps unquoted object keys in double quotes. It scans
// rather than regex-replacing so that key-shaped sequences inside string
// values ("aid, relief: assistance") are left alone.
func quoteBareKeys(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)
	inString, escaped := false, false
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case inString:
			b.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			i++
		case c == '"':
			inString = true
			b.WriteByte(c)
			i++
		case c == '{' || c == '[' || c == ',':
			b.WriteByte(c)
			i++
			j := i
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			b.WriteString(s[i:j])
			if k := scanBareKey(s, j); k > j {
				b.WriteByte('"')
				b.WriteString(s[j:k])
				b.WriteByte('"')
				i = k
			} else {
				i = j
			}
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// scanBareKey reports the end of an identifier starting at j that is
// followed (after optional whitespace) by a colon, or j when there is no
// such key.
func scanBareKey(s string, j int) int {
	k := j
	if k >= len(s) || !isKeyStart(s[k]) {
		return j
	}
	for k < len(s) && isKeyChar(s[k]) {
		k++
	}
	m := k
	for m < len(s) && isSpace(s[m]) {
		m++
	}
	if m < len(s) && s[m] == ':' {
		return k
	}
	return j
}

func isKeyStart(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isKeyChar(c byte) bool {
	return isKeyStart(c) || c == '-' || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// singleToDouble rewrites single-quoted string literals as double-quoted,
// escaping embedded double quotes. Double-quoted strings pass through
// untouched.
func singleToDouble(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inDouble, inSingle, escaped := false, false, false
	for _, r := range s {
		switch {
		case escaped:
			if inSingle && r == '\'' {
				b.WriteRune('\'')
			} else {
				b.WriteRune('\\')
				b.WriteRune(r)
			}
			escaped = false
		case r == '\\':
			escaped = true
		case inSingle:
			switch r {
			case '\'':
				b.WriteByte('"')
				inSingle = false
			case '"':
				b.WriteString(`\"`)
			default:
				b.WriteRune(r)
			}
		case inDouble:
			if r == '"' {
				inDouble = false
			}
			b.WriteRune(r)
		case r == '\'':
			b.WriteByte('"')
			inSingle = true
		case r == '"':
			inDouble = true
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripTrailingCommas drops commas that directly precede a closing brace
// or bracket, skipping string contents.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func stringField(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return strings.TrimSpace(v)
}
