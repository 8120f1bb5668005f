// Package main implements the study session MCP server.
package main

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/quizdeck/studysession/internal/deckstore"
	"github.com/quizdeck/studysession/internal/scheduler"
	"github.com/quizdeck/studysession/internal/session"
	"github.com/quizdeck/studysession/internal/transition"
)

// ErrSessionNotFound is returned for operations on an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// Variable to allow substituting a deterministic deferrer in tests.
var newDeferrer = func() transition.Deferrer { return transition.NewTimer() }

// SessionService manages the live study sessions served over MCP.
type SessionService struct {
	Store     deckstore.Store
	Logger    *zap.Logger
	SwapDelay time.Duration

	mu       sync.Mutex
	sessions map[string]*session.Session
}

// NewSessionService creates a SessionService over the given deck store.
func NewSessionService(store deckstore.Store, swapDelay time.Duration) *SessionService {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)

	logger, err := logConfig.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		// Fallback if zap fails (shouldn't normally happen).
		fmt.Printf("Error initializing zap logger: %v. Falling back to no-op logger.\n", err)
		logger = zap.NewNop()
	}

	return &SessionService{
		Store:     store,
		Logger:    logger,
		SwapDelay: swapDelay,
		sessions:  make(map[string]*session.Session),
	}
}

// ListDecks returns summaries of the decks available for study.
func (s *SessionService) ListDecks() ([]DeckSummary, error) {
	decks, err := s.Store.ListDecks()
	if err != nil {
		return nil, fmt.Errorf("error listing decks: %w", err)
	}

	summaries := make([]DeckSummary, 0, len(decks))
	for _, d := range decks {
		summaries = append(summaries, DeckSummary{
			ID:        d.ID,
			Name:      d.Name,
			CardCount: len(d.Cards),
		})
	}
	return summaries, nil
}

// StartSession creates a session over the given deck and returns its id
// with the first card's front side.
func (s *SessionService) StartSession(deckID string) (StartSessionResponse, error) {
	s.Logger.Debug("StartSession called", zap.String("deck_id", deckID))

	d, err := s.Store.GetDeck(deckID)
	if err != nil {
		s.Logger.Error("Error getting deck", zap.String("deck_id", deckID), zap.Error(err))
		return StartSessionResponse{}, fmt.Errorf("error getting deck %s: %w", deckID, err)
	}

	sessionID := uuid.New().String()
	sess := session.New(d, session.Config{
		SwapDelay: s.SwapDelay,
		Deferrer:  newDeferrer(),
		OnExit: func() {
			s.removeSession(sessionID)
		},
	})

	s.mu.Lock()
	s.sessions[sessionID] = sess
	s.mu.Unlock()

	v := sess.View()
	s.Logger.Debug("Session started",
		zap.String("session_id", sessionID),
		zap.String("deck_id", deckID),
		zap.Int("cards", v.Total),
		zap.Bool("complete", v.Complete))

	return StartSessionResponse{
		SessionID: sessionID,
		DeckID:    d.ID,
		DeckName:  d.Name,
		Card:      cardView(v),
		Stats:     statsView(v),
	}, nil
}

// CurrentCard returns the displayed card for a session, respecting flip
// state.
func (s *SessionService) CurrentCard(sessionID string) (CardResponse, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return CardResponse{}, err
	}
	return s.cardResponse(sessionID, sess.View(), ""), nil
}

// Flip reveals (or re-hides) the current card's answer.
func (s *SessionService) Flip(sessionID string) (CardResponse, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return CardResponse{}, err
	}
	if err := sess.Flip(); err != nil {
		s.Logger.Debug("Flip rejected", zap.String("session_id", sessionID), zap.Error(err))
		return CardResponse{}, err
	}
	return s.cardResponse(sessionID, sess.View(), ""), nil
}

// Rate applies an easy/good/hard rating to the flipped card and reports the
// resulting session state.
func (s *SessionService) Rate(sessionID, ratingStr string) (CardResponse, error) {
	rating, err := scheduler.ParseRating(ratingStr)
	if err != nil {
		return CardResponse{}, err
	}

	sess, err := s.getSession(sessionID)
	if err != nil {
		return CardResponse{}, err
	}

	if err := sess.Rate(rating); err != nil {
		s.Logger.Debug("Rate rejected",
			zap.String("session_id", sessionID),
			zap.String("rating", rating.String()),
			zap.Error(err))
		return CardResponse{}, err
	}

	v := sess.View()
	s.Logger.Debug("Card rated",
		zap.String("session_id", sessionID),
		zap.String("rating", rating.String()),
		zap.Int("remaining", v.Remaining),
		zap.Bool("complete", v.Complete))

	msg := ""
	if v.Complete {
		msg = "Session complete: every card has been retired. Use reset_session to study the deck again or exit_session to finish."
	}
	return s.cardResponse(sessionID, v, msg), nil
}

// Reset restores a session to the full deck in original order.
func (s *SessionService) Reset(sessionID string) (CardResponse, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return CardResponse{}, err
	}
	if err := sess.Reset(); err != nil {
		return CardResponse{}, err
	}
	s.Logger.Debug("Session reset", zap.String("session_id", sessionID))
	return s.cardResponse(sessionID, sess.View(), "Session reset to the full deck."), nil
}

// Exit tears a session down and returns its review log.
func (s *SessionService) Exit(sessionID string) (ExitSessionResponse, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return ExitSessionResponse{}, err
	}

	reviews := sess.Reviews()
	if err := sess.Exit(); err != nil {
		return ExitSessionResponse{}, fmt.Errorf("error exiting session %s: %w", sessionID, err)
	}
	s.Logger.Debug("Session exited",
		zap.String("session_id", sessionID),
		zap.Int("reviews", len(reviews)))

	return ExitSessionResponse{
		Success: true,
		Message: fmt.Sprintf("Session %s ended after %d reviews", sessionID, len(reviews)),
		Reviews: reviews,
	}, nil
}

// Shutdown closes all live sessions, cancelling their pending swaps.
func (s *SessionService) Shutdown() {
	s.mu.Lock()
	sessions := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessions = make(map[string]*session.Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}

func (s *SessionService) getSession(sessionID string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return sess, nil
}

func (s *SessionService) removeSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

func (s *SessionService) cardResponse(sessionID string, v session.View, msg string) CardResponse {
	return CardResponse{
		SessionID: sessionID,
		Card:      cardView(v),
		Stats:     statsView(v),
		Message:   msg,
	}
}

// cardView converts a session view to the wire shape, hiding the back until
// the card is flipped.
func cardView(v session.View) *CardView {
	if !v.HasCard {
		return nil
	}
	cv := &CardView{
		ID:       v.Card.ID,
		Front:    v.Card.Front,
		MediaRef: v.Card.MediaRef,
		Flipped:  v.Flipped,
	}
	if v.Flipped {
		cv.Back = v.Card.Back
	}
	return cv
}

func statsView(v session.View) SessionStats {
	return SessionStats{
		Remaining: v.Remaining,
		Retired:   v.Retired,
		Total:     v.Total,
		Complete:  v.Complete,
	}
}
