// Package furigana renders Japanese text with kana readings in the bracket
// syntax Anki understands, e.g. "噛み殺す" becomes "噛[か]み 殺[ころ]す".
package furigana

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// IPA feature index holding the katakana reading.
const readingFeature = 7

type Annotator struct {
	t *tokenizer.Tokenizer
}

func NewAnnotator() (*Annotator, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Annotator{t: t}, nil
}

// Annotate adds a reading after every run of kanji in text. Tokens without
// kanji, or without a known reading, are copied unchanged.
func (a *Annotator) Annotate(text string) string {
	var b strings.Builder
	for _, token := range a.t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY {
			continue
		}

		features := token.Features()
		reading := ""
		if len(features) > readingFeature && features[readingFeature] != "*" {
			reading = ToHiragana(features[readingFeature])
		}

		if reading == "" || !hasKanji(token.Surface) {
			b.WriteString(token.Surface)
			continue
		}
		annotateWord(&b, token.Surface, reading)
	}
	return b.String()
}

type run struct {
	text  string
	kanji bool
}

// annotateWord aligns the kana parts of surface with reading so that only
// the kanji runs get brackets. When they cannot be aligned the whole word
// gets the full reading.
func annotateWord(b *strings.Builder, surface, reading string) {
	runs := splitRuns(surface)

	var pattern strings.Builder
	pattern.WriteString("^")
	for _, r := range runs {
		if r.kanji {
			pattern.WriteString("(.+?)")
		} else {
			pattern.WriteString(regexp.QuoteMeta(ToHiragana(r.text)))
		}
	}
	pattern.WriteString("$")

	match := regexp.MustCompile(pattern.String()).FindStringSubmatch(reading)
	if match == nil {
		writeKanji(b, surface, reading)
		return
	}

	group := 1
	for _, r := range runs {
		if !r.kanji {
			b.WriteString(r.text)
			continue
		}
		writeKanji(b, r.text, match[group])
		group++
	}
}

// writeKanji separates the run from preceding text with a space, which Anki
// uses to find where a reading starts.
func writeKanji(b *strings.Builder, kanji, reading string) {
	if b.Len() > 0 {
		b.WriteString(" ")
	}
	b.WriteString(kanji)
	b.WriteString("[")
	b.WriteString(reading)
	b.WriteString("]")
}

func splitRuns(s string) []run {
	var runs []run
	for _, r := range s {
		kanji := unicode.Is(unicode.Han, r)
		if n := len(runs); n > 0 && runs[n-1].kanji == kanji {
			runs[n-1].text += string(r)
			continue
		}
		runs = append(runs, run{text: string(r), kanji: kanji})
	}
	return runs
}

func hasKanji(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// ToHiragana converts katakana to hiragana, leaving everything else alone.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}
