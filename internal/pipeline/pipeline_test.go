package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/ankicopycard/internal/anki"
	"github.com/kpauljoseph/ankicopycard/internal/pipeline"
	"github.com/kpauljoseph/ankicopycard/pkg/logger"
	"github.com/kpauljoseph/ankicopycard/pkg/models"
)

type fakeSource struct {
	snapshot   models.CardSnapshot
	fetchErr   error
	submitErr  error
	fetchCalls int
	submitted  []models.CardFields
}

func (f *fakeSource) CurrentCard(context.Context) (models.CardSnapshot, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return models.CardSnapshot{}, f.fetchErr
	}
	return f.snapshot, nil
}

func (f *fakeSource) AddCard(_ context.Context, fields models.CardFields) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, fields)
	return nil
}

func pipelineTestLogger() *logger.Logger {
	return logger.New(
		logger.WithOutput(GinkgoWriter),
		logger.WithPrefix("[pipeline-test] "),
		logger.WithFlags(0),
		logger.WithVerbose(true),
	)
}

var kamikorosu = models.CardSnapshot{
	Kanji:         "噛み殺す",
	Kana:          "かみころす",
	SentenceFront: "あくびを噛み殺す",
	SentenceBack:  "<b>あくび</b>を噛み殺す",
	Picture:       `<img src="yawn.jpg">`,
	KankenAudio:   "[sound:kamikorosu.mp3]",
	KankenLevel:   "2",
	Meaning:       "to stifle (a yawn)",
}

var _ = Describe("Submission Pipeline", func() {
	var (
		source *fakeSource
		p      *pipeline.Pipeline
		ctx    context.Context
	)

	BeforeEach(func() {
		source = &fakeSource{snapshot: kamikorosu}
		p = pipeline.New(source, pipelineTestLogger())
		ctx = context.Background()
	})

	Context("Draft normalization", func() {
		It("should trim every field and break lines in back", func() {
			d := pipeline.Draft{
				Front:      "  噛[か]み 殺[ころ]す \n",
				AudioGuide: "\t噛み殺す ",
				Back:       "\n to stifle\nto bite to death \n",
			}.Normalize()

			Expect(d.Front).To(Equal("噛[か]み 殺[ころ]す"))
			Expect(d.AudioGuide).To(Equal("噛み殺す"))
			Expect(d.Back).To(Equal("to stifle<br />to bite to death"))
		})
	})

	Context("in fresh mode", func() {
		It("should derive every field from the current card", func() {
			card, ok := p.Run(ctx, pipeline.Draft{}, nil)

			Expect(ok).To(BeTrue())
			Expect(card).To(Equal(models.CardFields{
				Front:         "噛み殺す[かみころす]",
				Back:          "to stifle (a yawn)",
				BackParagraph: `あくびを噛み殺す<br /><img src="yawn.jpg">`,
				AudioGuide:    "噛み殺す",
				Audio:         "[sound:kamikorosu.mp3]",
			}))
			Expect(source.fetchCalls).To(Equal(1))
			Expect(source.submitted).To(ConsistOf(card))
		})

		It("should prefer the draft fields that are set", func() {
			card, ok := p.Run(ctx, pipeline.Draft{
				Front:      "噛[か]み 殺[ころ]す",
				AudioGuide: "",
				Back:       "to stifle\nto bite to death",
			}, nil)

			Expect(ok).To(BeTrue())
			Expect(card.Front).To(Equal("噛[か]み 殺[ころ]す"))
			Expect(card.Back).To(Equal("to stifle<br />to bite to death"))
			Expect(card.AudioGuide).To(Equal("噛み殺す"))
		})

		It("should fall back to the raw headword for the audio guide", func() {
			source.snapshot.Kanji = "噛 (み) 殺す"

			card, ok := p.Run(ctx, pipeline.Draft{}, nil)

			Expect(ok).To(BeTrue())
			Expect(card.AudioGuide).To(Equal("噛 (み) 殺す"))
		})

		It("should drop the empty sentence line from the paragraph", func() {
			source.snapshot.SentenceBack = "<div></div>"

			card, ok := p.Run(ctx, pipeline.Draft{}, nil)

			Expect(ok).To(BeTrue())
			Expect(card.BackParagraph).To(Equal(`<img src="yawn.jpg">`))
		})

		It("should produce nothing when the current card cannot be fetched", func() {
			source.fetchErr = fmt.Errorf("dial tcp: %w", anki.ErrTransport)

			_, ok := p.Run(ctx, pipeline.Draft{Front: "x"}, nil)

			Expect(ok).To(BeFalse())
			Expect(source.submitted).To(BeEmpty())
		})

		It("should produce nothing when the card has the wrong schema", func() {
			source.fetchErr = anki.ErrSchema

			_, ok := p.Run(ctx, pipeline.Draft{}, nil)
			Expect(ok).To(BeFalse())
		})
	})

	Context("in merge mode", func() {
		var previous models.CardFields

		BeforeEach(func() {
			previous = models.CardFields{
				Front:         "噛み殺す[かみころす]",
				Back:          "to stifle",
				BackParagraph: "sentence",
				AudioGuide:    "噛み殺す",
				Audio:         "[sound:kamikorosu.mp3]",
			}
		})

		It("should not fetch the current card", func() {
			_, ok := p.Run(ctx, pipeline.Draft{Back: "to bite to death"}, &previous)

			Expect(ok).To(BeTrue())
			Expect(source.fetchCalls).To(BeZero())
		})

		It("should override only the set draft fields", func() {
			card, ok := p.Run(ctx, pipeline.Draft{Back: " to bite\nto death "}, &previous)

			Expect(ok).To(BeTrue())
			Expect(card).To(Equal(models.CardFields{
				Front:         previous.Front,
				Back:          "to bite<br />to death",
				BackParagraph: previous.BackParagraph,
				AudioGuide:    previous.AudioGuide,
				Audio:         previous.Audio,
			}))
		})

		It("should leave the previous card untouched", func() {
			snapshot := previous
			_, _ = p.Run(ctx, pipeline.Draft{Front: "new", Back: "new", AudioGuide: "new"}, &previous)
			Expect(previous).To(Equal(snapshot))
		})

		It("should produce nothing when submission is rejected", func() {
			source.submitErr = fmt.Errorf("duplicate: %w", anki.ErrRejected)

			card, ok := p.Run(ctx, pipeline.Draft{Front: "x"}, &previous)

			Expect(ok).To(BeFalse())
			Expect(card).To(Equal(models.CardFields{}))
		})

		It("should satisfy field-wise override-if-set for arbitrary drafts", func() {
			rng := rand.New(rand.NewSource(42))
			values := []string{"", "  ", "a", " b ", "噛[か]み", "\n"}
			pick := func() string { return values[rng.Intn(len(values))] }

			for i := 0; i < 200; i++ {
				prev := models.CardFields{
					Front: pick(), Back: pick(), BackParagraph: pick(), AudioGuide: pick(), Audio: pick(),
				}
				draft := pipeline.Draft{Front: pick(), Back: pick(), AudioGuide: pick()}.Normalize()

				merged := pipeline.Merge(prev, draft)

				expect := func(draftValue, prevValue string) string {
					if draftValue != "" {
						return draftValue
					}
					return prevValue
				}
				Expect(merged.Front).To(Equal(expect(draft.Front, prev.Front)))
				Expect(merged.Back).To(Equal(expect(draft.Back, prev.Back)))
				Expect(merged.AudioGuide).To(Equal(expect(draft.AudioGuide, prev.AudioGuide)))
				Expect(merged.BackParagraph).To(Equal(prev.BackParagraph))
				Expect(merged.Audio).To(Equal(prev.Audio))
			}
		})
	})

	It("should treat a failing submission as silent regardless of error kind", func() {
		for _, err := range []error{anki.ErrTransport, anki.ErrRejected, errors.New("boom")} {
			source.submitErr = err
			_, ok := p.Run(ctx, pipeline.Draft{}, nil)
			Expect(ok).To(BeFalse())
		}
	})
})
