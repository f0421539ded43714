package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kpauljoseph/ankicopycard/internal/textnorm"
	"github.com/kpauljoseph/ankicopycard/pkg/logger"
	"github.com/kpauljoseph/ankicopycard/pkg/models"
)

// CardSource is the automation API the pipeline reads from and submits to.
// *anki.Service satisfies it.
type CardSource interface {
	CurrentCard(ctx context.Context) (models.CardSnapshot, error)
	AddCard(ctx context.Context, fields models.CardFields) error
}

// Draft holds the user's overrides for the next card.
type Draft struct {
	Front      string
	AudioGuide string
	Back       string
}

// Normalize trims every field and turns newlines in Back into line breaks.
func (d Draft) Normalize() Draft {
	return Draft{
		Front:      strings.TrimSpace(d.Front),
		AudioGuide: strings.TrimSpace(d.AudioGuide),
		Back:       textnorm.BreakLines(strings.TrimSpace(d.Back)),
	}
}

type Pipeline struct {
	source CardSource
	logger *logger.Logger
}

func New(source CardSource, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Discard()
	}
	return &Pipeline{
		source: source,
		logger: log,
	}
}

// Run builds the card for draft and submits it. It reports ok only when the
// card was accepted; every failure is logged and swallowed, so a false ok
// means the attempt produced nothing.
func (p *Pipeline) Run(ctx context.Context, draft Draft, previous *models.CardFields) (models.CardFields, bool) {
	attempt := uuid.NewString()

	card, err := p.synthesize(ctx, attempt, draft.Normalize(), previous)
	if err != nil {
		p.logger.Debug("Attempt %s abandoned: %v", attempt, err)
		return models.CardFields{}, false
	}

	if err := p.source.AddCard(ctx, card); err != nil {
		p.logger.Debug("Attempt %s abandoned: %v", attempt, err)
		return models.CardFields{}, false
	}

	p.logger.Info("Fired card %s", card.Front)
	return card, true
}

func (p *Pipeline) synthesize(ctx context.Context, attempt string, draft Draft, previous *models.CardFields) (models.CardFields, error) {
	if previous != nil {
		p.logger.Debug("Attempt %s merges into previous card %s", attempt, previous.Front)
		return Merge(*previous, draft), nil
	}

	p.logger.Debug("Attempt %s fetches the current card", attempt)
	snapshot, err := p.source.CurrentCard(ctx)
	if err != nil {
		return models.CardFields{}, fmt.Errorf("fetching current card: %w", err)
	}
	return Derive(snapshot, draft), nil
}

// Merge overrides Front, Back and AudioGuide of previous with whichever
// draft fields are set. BackParagraph and Audio always come from previous.
// draft is expected to be normalized.
func Merge(previous models.CardFields, draft Draft) models.CardFields {
	card := previous
	card.Front = models.Override(card.Front, draft.Front)
	card.Back = models.Override(card.Back, draft.Back)
	card.AudioGuide = models.Override(card.AudioGuide, draft.AudioGuide)
	return card
}

// Derive builds a fresh card from the reviewer's current card, preferring
// draft fields where they are set. draft is expected to be normalized.
//
// The audio guide falls back to the raw headword. Only edits to the front
// draft go through textnorm.DeriveAudioGuide.
func Derive(snapshot models.CardSnapshot, draft Draft) models.CardFields {
	sentence := textnorm.SanitizeHTML(snapshot.SentenceBack)
	paragraph := strings.TrimSpace(sentence + "\n" + snapshot.Picture)

	return models.CardFields{
		Front:         models.Override(fmt.Sprintf("%s[%s]", snapshot.Kanji, snapshot.Kana), draft.Front),
		Back:          models.Override(snapshot.Meaning, draft.Back),
		BackParagraph: textnorm.BreakLines(paragraph),
		AudioGuide:    models.Override(snapshot.Kanji, draft.AudioGuide),
		Audio:         snapshot.KankenAudio,
	}
}
