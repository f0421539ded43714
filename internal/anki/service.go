package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kpauljoseph/ankicopycard/internal/config"
	"github.com/kpauljoseph/ankicopycard/pkg/logger"
	"github.com/kpauljoseph/ankicopycard/pkg/models"
	"github.com/kpauljoseph/ankicopycard/pkg/version"
)

var (
	// ErrTransport covers an unreachable AnkiConnect, a non-200 reply or a
	// body that is not the expected JSON envelope.
	ErrTransport = errors.New("ankiconnect transport error")
	// ErrSchema means Anki answered but the card lacks expected fields.
	ErrSchema = errors.New("unexpected card schema")
	// ErrRejected means AnkiConnect returned a non-null error.
	ErrRejected = errors.New("rejected by anki")
)

type Service struct {
	ankiConnectURL string
	deckName       string
	modelName      string
	tags           []string
	client         *http.Client
	breaker        *gobreaker.CircuitBreaker
	logger         *logger.Logger
}

type Option func(*Service)

func WithURL(url string) Option {
	return func(s *Service) {
		s.ankiConnectURL = url
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		s.client = client
	}
}

func WithTarget(deckName, modelName string, tags []string) Option {
	return func(s *Service) {
		s.deckName = deckName
		s.modelName = modelName
		s.tags = append([]string(nil), tags...)
	}
}

// WithBreaker makes the service fail fast once maxFailures consecutive
// transport errors have been seen, until openTimeout has passed.
func WithBreaker(maxFailures uint32, openTimeout time.Duration) Option {
	return func(s *Service) {
		s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "ankiconnect",
			Timeout: openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !errors.Is(err, ErrTransport)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				s.logger.Debug("Circuit breaker %s: %s -> %s", name, from, to)
			},
		})
	}
}

func NewService(log *logger.Logger, options ...Option) *Service {
	if log == nil {
		log = logger.Discard()
	}
	s := &Service{
		ankiConnectURL: config.DefaultAnkiConnectURL,
		deckName:       config.DefaultDeckName,
		modelName:      config.DefaultModelName,
		tags:           append([]string(nil), config.DefaultTags...),
		client:         &http.Client{Timeout: config.DefaultTimeout},
		logger:         log,
	}

	for _, opt := range options {
		opt(s)
	}

	return s
}

// NewServiceFromConfig wires a Service from the loaded configuration.
func NewServiceFromConfig(cfg *config.Config, log *logger.Logger) *Service {
	options := []Option{
		WithURL(cfg.AnkiConnectURL),
		WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		WithTarget(cfg.DeckName, cfg.ModelName, cfg.Tags),
	}
	if cfg.Breaker.Enabled {
		options = append(options, WithBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.OpenTimeout))
	}
	return NewService(log, options...)
}

func (s *Service) CheckConnection(ctx context.Context) error {
	request := AnkiConnectRequest{
		Action:  "version",
		Version: ANKI_CONNECT_VERSION,
	}

	result, err := s.sendRequest(ctx, request)
	if err != nil {
		s.logger.Info("Error sending request to Anki: %v", err)
		return fmt.Errorf("could not connect to Anki. Please ensure:\n"+
			"1. Anki is running https://apps.ankiweb.net/#download\n"+
			"2. AnkiConnect add-on is installed (code: 2055492159) https://ankiweb.net/shared/info/2055492159\n"+
			"3. Anki has been restarted after installing AnkiConnect: %w", err)
	}

	var apiVersion int
	if err := json.Unmarshal(result, &apiVersion); err == nil {
		s.logger.Debug("AnkiConnect API version %d", apiVersion)
	}
	return nil
}

// CurrentCard returns the card currently shown in Anki's reviewer.
func (s *Service) CurrentCard(ctx context.Context) (models.CardSnapshot, error) {
	request := AnkiConnectRequest{
		Action:  "guiCurrentCard",
		Version: ANKI_CONNECT_VERSION,
	}

	result, err := s.sendRequest(ctx, request)
	if err != nil {
		return models.CardSnapshot{}, fmt.Errorf("failed to get current card: %w", err)
	}

	if len(result) == 0 || string(result) == "null" {
		return models.CardSnapshot{}, fmt.Errorf("no card is being reviewed: %w", ErrSchema)
	}

	var card CurrentCard
	if err := json.Unmarshal(result, &card); err != nil {
		return models.CardSnapshot{}, fmt.Errorf("failed to parse current card: %w: %v", ErrSchema, err)
	}

	snapshot, err := card.Snapshot()
	if err != nil {
		return models.CardSnapshot{}, err
	}

	s.logger.Debug("Current card from deck %s: %s[%s]", snapshot.DeckName, snapshot.Kanji, snapshot.Kana)
	return snapshot, nil
}

// AddCard opens Anki's Add dialog prefilled with fields, targeting the
// configured deck and model.
func (s *Service) AddCard(ctx context.Context, fields models.CardFields) error {
	note := Note{
		DeckName:  s.deckName,
		ModelName: s.modelName,
		Fields:    NoteFields(fields),
		Tags:      s.tags,
	}

	request := AnkiConnectRequest{
		Action:  "guiAddCards",
		Version: ANKI_CONNECT_VERSION,
		Params: map[string]interface{}{
			"note": note,
		},
	}

	result, err := s.sendRequest(ctx, request)
	if err != nil {
		return fmt.Errorf("failed to add card: %w", err)
	}

	var noteID int64
	if err := json.Unmarshal(result, &noteID); err == nil && noteID != 0 {
		s.logger.Debug("Add dialog opened for note %d", noteID)
	}
	s.logger.Debug("Submitted card %q to %s/%s", fields.Front, s.deckName, s.modelName)
	return nil
}

func (s *Service) sendRequest(ctx context.Context, req AnkiConnectRequest) (json.RawMessage, error) {
	if s.breaker == nil {
		return s.roundTrip(ctx, req)
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.roundTrip(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if err != nil {
		return nil, err
	}
	return result.(json.RawMessage), nil
}

// roundTrip performs exactly one request. Failures are classified into
// ErrTransport or ErrRejected and never retried.
func (s *Service) roundTrip(ctx context.Context, req AnkiConnectRequest) (json.RawMessage, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	s.logger.Trace("POST %s %s", s.ankiConnectURL, reqBody)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.ankiConnectURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: server returned status %d", ErrTransport, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrTransport, err)
	}

	var result AnkiConnectResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", ErrTransport, err)
	}

	if result.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrRejected, *result.Error)
	}

	return result.Result, nil
}
