package tokenize

import (
	"regexp"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Morpheme is a single analyzed unit of text.
type Morpheme struct {
	Surface string // the text as it appears (e.g. "行っ")
	Lemma   string // the dictionary form (e.g. "行く")
	POS     string // coarse part of speech (e.g. "動詞")
	Reading string // pronunciation, normalized to hiragana
}

// Tokenizer turns raw text into a morpheme sequence. Implementations must
// return an empty slice for empty input rather than failing.
type Tokenizer interface {
	Tokenize(text string) []Morpheme
}

// Kagome analyzes Japanese text with the kagome IPA dictionary.
type Kagome struct {
	t *tokenizer.Tokenizer
}

// NewKagome creates a new analyzer instance. The IPA dictionary is embedded,
// so construction needs no external files.
func NewKagome() (*Kagome, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Kagome{t: t}, nil
}

// Tokenize breaks text into morphemes with readings and dictionary forms.
func (k *Kagome) Tokenize(text string) []Morpheme {
	tokens := k.t.Tokenize(text)
	var result []Morpheme

	for _, token := range tokens {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		if strings.TrimSpace(token.Surface) == "" {
			continue
		}

		features := token.Features()

		// Kagome IPA features:
		// 0: Part of Speech
		// 1-3: Sub-POS
		// 4: Conjugation Type
		// 5: Conjugation Form
		// 6: Base Form (Lemma)
		// 7: Reading
		// 8: Pronunciation

		lemma := token.Surface
		if len(features) > 6 && features[6] != "*" {
			lemma = features[6]
		}

		reading := token.Surface
		if len(features) > 7 && features[7] != "*" {
			reading = features[7]
		}

		pos := ""
		if len(features) > 0 && features[0] != "*" {
			pos = features[0]
		}

		result = append(result, Morpheme{
			Surface: token.Surface,
			Lemma:   lemma,
			POS:     pos,
			Reading: toHiragana(reading),
		})
	}

	return result
}

// toHiragana converts katakana runes to their hiragana counterparts.
func toHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}

// SplitSentences splits text on common Japanese sentence delimiters and
// newlines: 。(3002), ！(FF01), ？(FF1F).
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '。' || r == '！' || r == '？' || r == '\n' {
			sentences = append(sentences, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}

var (
	// (?s) allows dot to match newlines
	// (?i) makes it case-insensitive
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// SanitizeRuby removes ruby text (<rt>...</rt>) and ruby parentheses
// (<rp>...</rp>) from HTML content. Readability extracts all text including
// furigana, which otherwise duplicates readings (e.g. "漢字" becomes
// "漢字かんじ").
func SanitizeRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, []byte{})
	return reRP.ReplaceAll(cleaned, []byte{})
}
