// Package textnorm holds the pure text transformations applied while
// building a card: the audio guide key, markup stripping for text that
// comes back from Anki, and line break markers for card fields.
package textnorm

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const LineBreak = "<br />"

var (
	guideStripper = strings.NewReplacer("(", "", ")", "", "{", "", "}", "", " ", "")
	// A ']' always closes the nearest '['; nested brackets are not balanced.
	bracketSpan = regexp.MustCompile(`\[[^\]]*\]`)

	// Policies are safe for concurrent use once built.
	plainText = bluemonday.StrictPolicy()
)

// DeriveAudioGuide turns a front such as "噛[か]み 殺[ころ]す" into the key
// used to look up its audio ("噛み殺す"). Parentheses, braces and spaces are
// dropped first, then every bracketed reading is removed from what is left.
func DeriveAudioGuide(s string) string {
	return bracketSpan.ReplaceAllString(guideStripper.Replace(s), "")
}

// SanitizeHTML strips every tag, attribute and script from s. The remaining
// text is HTML-escaped: & < > become &amp; &lt; &gt; and double and single
// quotes become &#34; and &#39;. Anki renders these as the literal
// characters.
func SanitizeHTML(s string) string {
	return plainText.Sanitize(s)
}

// BreakLines replaces newlines with HTML line breaks.
func BreakLines(s string) string {
	return strings.ReplaceAll(s, "\n", LineBreak)
}
