package models

import "strings"

// CardFields is one submittable card. It is a plain value: assigning it
// copies it, and nothing in the pipeline mutates a card once it has been
// handed to the completion channel.
type CardFields struct {
	Front         string `json:"front" yaml:"front"`
	Back          string `json:"back" yaml:"back"`
	BackParagraph string `json:"back_paragraph" yaml:"back_paragraph"`
	AudioGuide    string `json:"audio_guide" yaml:"audio_guide"`
	Audio         string `json:"audio" yaml:"audio"`
}

// Clone returns a pointer to a copy of c.
func (c CardFields) Clone() *CardFields {
	clone := c
	return &clone
}

// CardSnapshot is the card currently shown in the reviewer, reduced to the
// fields the copy is derived from.
type CardSnapshot struct {
	DeckName  string `yaml:"deck_name"`
	ModelName string `yaml:"model_name"`

	Kanji         string `yaml:"kanji"`
	Kana          string `yaml:"kana"`
	SentenceFront string `yaml:"sentence_front"`
	SentenceBack  string `yaml:"sentence_back"`
	Picture       string `yaml:"picture"`
	KankenAudio   string `yaml:"kanken_audio"`
	KankenLevel   string `yaml:"kanken_level"`
	Meaning       string `yaml:"meaning"`
	Diagram       string `yaml:"diagram"`
}

// IsBlank treats whitespace-only text the same as unset.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Override returns the trimmed candidate when it is set, otherwise current.
func Override(current, candidate string) string {
	if candidate = strings.TrimSpace(candidate); candidate != "" {
		return candidate
	}
	return current
}
