package anki

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kpauljoseph/ankicopycard/pkg/models"
)

const (
	ANKI_CONNECT_VERSION = 6
)

// Field names of the target note type.
const (
	FieldFront         = "Front"
	FieldBack          = "Back"
	FieldBackParagraph = "Back Paragraph"
	FieldAudioGuide    = "AudioGuide"
	FieldAudio         = "Audio"
)

type AnkiConnectRequest struct {
	Action  string      `json:"action"`
	Version int         `json:"version"`
	Params  interface{} `json:"params,omitempty"`
}

type AnkiConnectResponse struct {
	Error  *string         `json:"error"`
	Result json.RawMessage `json:"result"`
}

type Note struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Tags      []string          `json:"tags"`
}

type Field struct {
	Value string `json:"value"`
	Order int    `json:"order"`
}

// CurrentCard is the subset of the guiCurrentCard result we read.
type CurrentCard struct {
	CardID    int64            `json:"cardId"`
	DeckName  string           `json:"deckName"`
	ModelName string           `json:"modelName"`
	Fields    map[string]Field `json:"fields"`
}

// Source note fields every current card must carry.
var requiredFields = []string{
	"Kanji", "Kana", "SentenceFront", "SentenceBack", "Picture",
	"KankenAudio", "KankenLevel", "Meaning", "Diagram",
}

// Snapshot checks the card against the expected source note type and
// extracts its field values.
func (c CurrentCard) Snapshot() (models.CardSnapshot, error) {
	var missing []string
	for _, name := range requiredFields {
		if _, ok := c.Fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return models.CardSnapshot{}, fmt.Errorf("%w: card %d (%s) is missing fields %s",
			ErrSchema, c.CardID, c.ModelName, strings.Join(missing, ", "))
	}

	return models.CardSnapshot{
		DeckName:      c.DeckName,
		ModelName:     c.ModelName,
		Kanji:         c.Fields["Kanji"].Value,
		Kana:          c.Fields["Kana"].Value,
		SentenceFront: c.Fields["SentenceFront"].Value,
		SentenceBack:  c.Fields["SentenceBack"].Value,
		Picture:       c.Fields["Picture"].Value,
		KankenAudio:   c.Fields["KankenAudio"].Value,
		KankenLevel:   c.Fields["KankenLevel"].Value,
		Meaning:       c.Fields["Meaning"].Value,
		Diagram:       c.Fields["Diagram"].Value,
	}, nil
}

// NoteFields maps a card onto the target note type's field names.
func NoteFields(card models.CardFields) map[string]string {
	return map[string]string{
		FieldFront:         card.Front,
		FieldBack:          card.Back,
		FieldBackParagraph: card.BackParagraph,
		FieldAudioGuide:    card.AudioGuide,
		FieldAudio:         card.Audio,
	}
}
