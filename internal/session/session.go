// Package session implements one interactive study pass over a deck: flip
// gating, rating, the deferred displayed-card swap, completion detection and
// reset. All mutations are synchronous responses to user actions or to the
// single pending deferred swap.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	gofsrs "github.com/open-spaced-repetition/go-fsrs"

	"github.com/quizdeck/studysession/internal/deck"
	"github.com/quizdeck/studysession/internal/scheduler"
	"github.com/quizdeck/studysession/internal/transition"
)

var (
	// ErrNotFlipped is returned when a rating arrives before the answer
	// was revealed. The rating is ignored and nothing changes.
	ErrNotFlipped = errors.New("card has not been flipped")
	// ErrSessionComplete is returned for flip/rate actions on an exhausted
	// session; only Reset and Exit are valid then.
	ErrSessionComplete = errors.New("session is complete")
	// ErrSessionClosed is returned for any action after Exit or Close.
	ErrSessionClosed = errors.New("session is closed")
)

// Variable to allow mocking time.Now in tests.
var timeNow = time.Now

// Review records one accepted rating. Ratings are kept on the go-fsrs scale
// so the log can be handed to a backend scheduler; this package never
// computes intervals itself.
type Review struct {
	ID        string        `json:"id"`
	CardID    string        `json:"card_id"`
	Rating    gofsrs.Rating `json:"rating"`
	Timestamp time.Time     `json:"timestamp"`
	Retired   bool          `json:"retired"`
}

// View is the render-ready state of a session at one instant. Card is the
// displayed card, which intentionally lags the queue position while a
// deferred swap is pending.
type View struct {
	Card      deck.Card
	HasCard   bool
	Flipped   bool
	Complete  bool
	Remaining int
	Retired   int
	Total     int
}

// Config carries the session's collaborators. Zero values are usable: the
// default swap delay and a wall-clock timer are applied, and OnExit may be
// nil.
type Config struct {
	// SwapDelay is the flip animation half-duration; the displayed card
	// changes only after this much time has passed since re-entering the
	// unflipped state.
	SwapDelay time.Duration
	// Deferrer overrides the wall-clock timer, letting tests flush the
	// deferred swap deterministically.
	Deferrer transition.Deferrer
	// OnExit is invoked exactly once when the user leaves the session.
	OnExit func()
}

// Session owns the working queue, flip flag and displayed card for one
// sitting. It is safe for concurrent use, though the intended model is a
// single event-driven caller.
type Session struct {
	mu        sync.Mutex
	snapshot  *deck.Snapshot
	queue     *scheduler.Queue
	flipped   bool
	displayed deck.Card
	hasCard   bool
	swap      *transition.Controller
	// generation invalidates pending swap callbacks: a callback captured
	// under an older generation is stale and must not mutate state.
	generation uint64
	reviews    []Review
	onExit     func()
	closed     bool
}

// New starts a session over d. An empty deck yields an immediately complete
// session rather than an error.
func New(d deck.Deck, cfg Config) *Session {
	def := cfg.Deferrer
	if def == nil {
		def = transition.NewTimer()
	}
	snap := deck.NewSnapshot(d)
	s := &Session{
		snapshot: snap,
		queue:    scheduler.New(snap),
		swap:     transition.NewController(cfg.SwapDelay, def),
		onExit:   cfg.OnExit,
	}
	// The first card is shown directly; there is no flip animation to wait
	// out on mount.
	if card, ok := s.queue.Current(); ok {
		s.displayed = card
		s.hasCard = true
	}
	return s
}

// View returns the current render state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Card:      s.displayed,
		HasCard:   s.hasCard,
		Flipped:   s.flipped,
		Complete:  s.queue.Empty(),
		Remaining: s.queue.Len(),
		Retired:   s.snapshot.Size() - s.queue.Len(),
		Total:     s.snapshot.Size(),
	}
}

// Complete reports whether every card has been retired.
func (s *Session) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Empty()
}

// Flip toggles the displayed card between front and back. Flipping back to
// the front re-enters the unflipped state and so schedules a deferred swap,
// cancelling any swap still pending from a previous transition.
func (s *Session) Flip() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.queue.Empty() {
		return ErrSessionComplete
	}

	s.flipped = !s.flipped
	if s.flipped {
		// The back is showing; a pending swap would change the answer
		// mid-view, so drop it.
		s.generation++
		s.swap.Cancel()
	} else {
		s.scheduleSwapLocked()
	}
	return nil
}

// Rate applies a rating to the card under review. It is only valid while
// the card is flipped; afterwards the flip state resets to unflipped and
// the visible card swap is deferred by the configured delay.
func (s *Session) Rate(r scheduler.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.queue.Empty() {
		return ErrSessionComplete
	}
	if !s.flipped {
		return ErrNotFlipped
	}

	card, _ := s.queue.Current()
	if err := s.queue.Rate(r); err != nil {
		return err
	}

	s.reviews = append(s.reviews, Review{
		ID:        uuid.New().String(),
		CardID:    card.ID,
		Rating:    r.ToFSRS(),
		Timestamp: timeNow(),
		Retired:   r == scheduler.Easy,
	})

	s.flipped = false
	s.scheduleSwapLocked()
	return nil
}

// scheduleSwapLocked defers copying the card at the current queue position
// into the displayed slot. Caller holds s.mu.
func (s *Session) scheduleSwapLocked() {
	s.generation++
	gen := s.generation
	s.swap.ScheduleSwap(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		// A stale callback raced a newer transition or teardown.
		if s.closed || gen != s.generation {
			return
		}
		if card, ok := s.queue.Current(); ok {
			s.displayed = card
			s.hasCard = true
		} else {
			s.displayed = deck.Card{}
			s.hasCard = false
		}
	})
}

// Reset rebuilds the working queue from the original snapshot: full card
// set, original order, cursor at the first card, unflipped. Valid at any
// point in an open session, including while complete.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	s.generation++
	s.swap.Cancel()
	s.queue = scheduler.New(s.snapshot)
	s.flipped = false
	if card, ok := s.queue.Current(); ok {
		s.displayed = card
		s.hasCard = true
	} else {
		s.displayed = deck.Card{}
		s.hasCard = false
	}
	return nil
}

// Reviews returns a copy of the ratings accepted so far, in order.
func (s *Session) Reviews() []Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Review, len(s.reviews))
	copy(out, s.reviews)
	return out
}

// DeckID returns the id of the deck this session studies.
func (s *Session) DeckID() string { return s.snapshot.DeckID() }

// DeckName returns the name of the deck this session studies.
func (s *Session) DeckName() string { return s.snapshot.DeckName() }

// Exit closes the session and notifies the caller through OnExit. Further
// actions return ErrSessionClosed.
func (s *Session) Exit() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.closeLocked()
	onExit := s.onExit
	s.mu.Unlock()

	if onExit != nil {
		onExit()
	}
	return nil
}

// Close tears the session down without the exit notification. It cancels
// any pending deferred swap so nothing mutates disposed state. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closeLocked()
}

// closeLocked marks the session closed and cancels the pending swap.
// Caller holds s.mu.
func (s *Session) closeLocked() {
	s.closed = true
	s.generation++
	s.swap.Cancel()
}
