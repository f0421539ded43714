// Package session holds the editable state behind the card copy window:
// the draft overrides, the card carried over from the last submission and
// the counter of fired attempts.
//
// A State is owned by a single foreground goroutine (the UI event loop or
// the CLI) and is not safe for concurrent use. Fire hands copies of the
// draft to a new goroutine per attempt; those goroutines only ever talk back
// through the completion channel, which the owner drains with
// PollCompletion.
package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kpauljoseph/ankicopycard/internal/pipeline"
	"github.com/kpauljoseph/ankicopycard/internal/textnorm"
	"github.com/kpauljoseph/ankicopycard/pkg/logger"
	"github.com/kpauljoseph/ankicopycard/pkg/models"
)

const completionBuffer = 16

// Submitter runs one attempt. *pipeline.Pipeline satisfies it.
type Submitter interface {
	Run(ctx context.Context, draft pipeline.Draft, previous *models.CardFields) (models.CardFields, bool)
}

type State struct {
	front       string
	audioGuide  string
	back        string
	followFront bool

	// Everything below survives Reset.
	*carry
}

type carry struct {
	submitter   Submitter
	completions chan models.CardFields
	wake        func()
	logger      *logger.Logger

	fired          int
	previous       *models.CardFields
	retainPrevious bool

	inflight sync.WaitGroup
	running  atomic.Int64
}

type Option func(*State)

// WithWake registers a callback run by an attempt goroutine right after it
// has queued a completion. UIs use it to schedule a poll.
func WithWake(wake func()) Option {
	return func(s *State) {
		s.wake = wake
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(s *State) {
		s.logger = log
	}
}

// WithRetainPrevious sets the initial retention policy.
func WithRetainPrevious(retain bool) Option {
	return func(s *State) {
		s.retainPrevious = retain
	}
}

func New(submitter Submitter, options ...Option) *State {
	s := &State{
		followFront: true,
		carry: &carry{
			submitter:   submitter,
			completions: make(chan models.CardFields, completionBuffer),
			logger:      logger.Discard(),
		},
	}

	for _, opt := range options {
		opt(s)
	}

	return s
}

func (s *State) Front() string        { return s.front }
func (s *State) AudioGuide() string   { return s.audioGuide }
func (s *State) Back() string         { return s.back }
func (s *State) FollowFront() bool    { return s.followFront }
func (s *State) RetainPrevious() bool { return s.retainPrevious }
func (s *State) FiredCount() int      { return s.fired }

// InFlight reports how many fired attempts have not finished yet.
func (s *State) InFlight() int {
	return int(s.running.Load())
}

// PreviousCard returns a copy of the carried-over card, or nil.
func (s *State) PreviousCard() *models.CardFields {
	if s.previous == nil {
		return nil
	}
	return s.previous.Clone()
}

// SetFront updates the front draft. While following the front, the audio
// guide is recomputed from it.
func (s *State) SetFront(text string) {
	s.front = text
	if s.followFront {
		s.followFrontUpdate()
	}
}

// SetFollowFront toggles following; turning it on recomputes the audio
// guide right away.
func (s *State) SetFollowFront(follow bool) {
	s.followFront = follow
	if follow {
		s.followFrontUpdate()
	}
}

func (s *State) SetAudioGuide(text string) {
	s.audioGuide = text
}

func (s *State) SetBack(text string) {
	s.back = text
}

func (s *State) SetRetainPrevious(retain bool) {
	s.retainPrevious = retain
}

func (s *State) ClearPreviousCard() {
	s.previous = nil
}

func (s *State) followFrontUpdate() {
	s.audioGuide = textnorm.DeriveAudioGuide(s.front)
}

// Reset clears the drafts and turns following back on. The fired counter,
// the carried-over card, the retention policy and the completion channel
// are kept.
func (s *State) Reset() {
	s.front, s.audioGuide, s.back = "", "", ""
	s.followFront = true
}

// Fire starts one submission attempt in the background and returns at once.
// The counter moves immediately whether or not the attempt succeeds.
func (s *State) Fire() {
	draft := pipeline.Draft{
		Front:      s.front,
		AudioGuide: s.audioGuide,
		Back:       s.back,
	}
	previous := s.PreviousCard()

	s.fired++
	s.logger.Debug("Firing attempt %d (merge: %t)", s.fired, previous != nil)

	c := s.carry
	c.inflight.Add(1)
	c.running.Add(1)
	go func() {
		defer c.inflight.Done()
		defer c.running.Add(-1)

		card, ok := c.submitter.Run(context.Background(), draft, previous)
		if !ok {
			return
		}
		c.completions <- card
		if c.wake != nil {
			c.wake()
		}
	}()
}

// PollCompletion applies at most one finished attempt without blocking. On
// a completion the drafts are reset and the card becomes the previous card
// if retention is on; otherwise the previous card is cleared.
func (s *State) PollCompletion() (models.CardFields, bool) {
	select {
	case card := <-s.completions:
		s.Reset()
		if s.retainPrevious {
			s.previous = card.Clone()
		} else {
			s.previous = nil
		}
		return card, true
	default:
		return models.CardFields{}, false
	}
}

// Wait blocks until every fired attempt has finished. Attempts whose
// completion does not fit in the channel buffer only finish once polled.
func (s *State) Wait() {
	s.inflight.Wait()
}
