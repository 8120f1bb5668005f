package session

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	gofsrs "github.com/open-spaced-repetition/go-fsrs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizdeck/studysession/internal/deck"
	"github.com/quizdeck/studysession/internal/scheduler"
	"github.com/quizdeck/studysession/internal/transition"
)

// Function to temporarily mock the time.Now function for testing.
func mockTimeNow(mockTime time.Time) func() {
	original := timeNow
	timeNow = func() time.Time {
		return mockTime
	}
	return func() {
		timeNow = original
	}
}

func testDeck(ids ...string) deck.Deck {
	cards := make([]deck.Card, len(ids))
	for i, id := range ids {
		cards[i] = deck.Card{ID: id, Front: "front " + id, Back: "back " + id}
	}
	return deck.Deck{ID: "deck-test", Name: "Test Deck", Cards: cards}
}

// setupSession builds a session driven by a manual deferrer so tests can
// flush the deferred swap deterministically.
func setupSession(t *testing.T, ids ...string) (*Session, *transition.Manual) {
	t.Helper()
	m := transition.NewManual()
	s := New(testDeck(ids...), Config{Deferrer: m})
	t.Cleanup(s.Close)
	return s, m
}

// rateCurrent flips and rates the card under review, then flushes the swap.
func rateCurrent(t *testing.T, s *Session, m *transition.Manual, r scheduler.Rating) {
	t.Helper()
	require.NoError(t, s.Flip())
	require.NoError(t, s.Rate(r))
	m.Fire()
}

func TestNewSessionShowsFirstCard(t *testing.T) {
	s, _ := setupSession(t, "a", "b", "c")

	v := s.View()
	assert.True(t, v.HasCard)
	assert.Equal(t, "a", v.Card.ID)
	assert.False(t, v.Flipped)
	assert.False(t, v.Complete)
	assert.Equal(t, 3, v.Remaining)
	assert.Equal(t, 0, v.Retired)
	assert.Equal(t, 3, v.Total)
}

func TestNewSessionEmptyDeckIsComplete(t *testing.T) {
	s, _ := setupSession(t)

	v := s.View()
	assert.True(t, v.Complete, "empty deck must start complete, not error")
	assert.False(t, v.HasCard)

	assert.ErrorIs(t, s.Flip(), ErrSessionComplete)
	assert.ErrorIs(t, s.Rate(scheduler.Good), ErrSessionComplete)
	assert.NoError(t, s.Reset())
	assert.NoError(t, s.Exit())
}

func TestFlipTogglesState(t *testing.T) {
	s, _ := setupSession(t, "a")

	require.NoError(t, s.Flip())
	assert.True(t, s.View().Flipped)

	require.NoError(t, s.Flip())
	assert.False(t, s.View().Flipped)
}

func TestRateRequiresFlip(t *testing.T) {
	s, _ := setupSession(t, "a", "b")

	err := s.Rate(scheduler.Good)
	assert.ErrorIs(t, err, ErrNotFlipped)

	v := s.View()
	assert.Equal(t, 2, v.Remaining, "rejected rating must not mutate the queue")
	assert.Equal(t, "a", v.Card.ID)
	assert.Empty(t, s.Reviews())
}

func TestRateResetsFlipState(t *testing.T) {
	s, m := setupSession(t, "a", "b")

	require.NoError(t, s.Flip())
	require.NoError(t, s.Rate(scheduler.Good))
	assert.False(t, s.View().Flipped, "flip state must collapse to unflipped after rating")

	// A second rating without a new flip is rejected.
	assert.ErrorIs(t, s.Rate(scheduler.Good), ErrNotFlipped)
	m.Fire()
}

func TestDisplayedCardLagsUntilSwapFires(t *testing.T) {
	s, m := setupSession(t, "a", "b", "c")

	require.NoError(t, s.Flip())
	require.NoError(t, s.Rate(scheduler.Easy))

	// The queue has moved on to b, but the displayed card still shows a
	// until the flip animation half-duration elapses.
	assert.Equal(t, "a", s.View().Card.ID)
	assert.Equal(t, 2, s.View().Remaining)
	require.True(t, m.Pending())

	m.Fire()
	assert.Equal(t, "b", s.View().Card.ID)
}

func TestRapidReflipCancelsPendingSwap(t *testing.T) {
	s, m := setupSession(t, "a", "b")

	rateCurrent(t, s, m, scheduler.Good)
	assert.Equal(t, "b", s.View().Card.ID)

	// Flip to back, then immediately back to front: the swap scheduled by
	// the second transition replaces the first; only one can be pending.
	require.NoError(t, s.Flip())
	require.NoError(t, s.Flip())
	require.True(t, m.Pending())
	m.Fire()
	assert.False(t, m.Pending())
	assert.Equal(t, "b", s.View().Card.ID)
}

func TestFlipToBackDropsPendingSwap(t *testing.T) {
	s, m := setupSession(t, "a", "b")

	require.NoError(t, s.Flip())
	require.NoError(t, s.Rate(scheduler.Good))
	require.True(t, m.Pending())

	// Flipping before the swap fires must cancel it so the answer under
	// view cannot change.
	require.NoError(t, s.Flip())
	assert.False(t, m.Pending())
	assert.Equal(t, "a", s.View().Card.ID)
}

// leakyDeferrer never actually cancels, simulating a wall-clock timer whose
// callback already started when Cancel was called.
type leakyDeferrer struct {
	pending func()
}

func (d *leakyDeferrer) Schedule(_ time.Duration, fn func()) { d.pending = fn }
func (d *leakyDeferrer) Cancel()                             {}

func (d *leakyDeferrer) fire() {
	if d.pending != nil {
		d.pending()
	}
}

func TestStaleSwapCallbackIsSuppressed(t *testing.T) {
	leaky := &leakyDeferrer{}
	s := New(testDeck("a", "b", "c"), Config{Deferrer: leaky})
	defer s.Close()

	require.NoError(t, s.Flip())
	require.NoError(t, s.Rate(scheduler.Easy))
	stale := leaky.pending

	// Reset before the swap fires. The captured callback now belongs to an
	// older generation and must be a no-op even though Cancel leaked it.
	require.NoError(t, s.Reset())
	stale()

	assert.Equal(t, "a", s.View().Card.ID, "stale swap must not overwrite post-reset state")
}

func TestLeakedSwapAfterCloseCannotMutate(t *testing.T) {
	leaky := &leakyDeferrer{}
	s := New(testDeck("a", "b"), Config{Deferrer: leaky})

	require.NoError(t, s.Flip())
	require.NoError(t, s.Rate(scheduler.Good))

	s.Close()
	leaky.fire()

	assert.Equal(t, "a", s.View().Card.ID)
}

func TestSwapAfterCloseIsSuppressed(t *testing.T) {
	m := transition.NewManual()
	s := New(testDeck("a", "b"), Config{Deferrer: m})

	require.NoError(t, s.Flip())
	require.NoError(t, s.Rate(scheduler.Good))

	s.Close()
	assert.False(t, m.Pending(), "close must cancel the pending swap")
	// Even a callback that slipped through cannot mutate a closed session.
	m.Fire()
}

func TestSessionCompletion(t *testing.T) {
	s, m := setupSession(t, "a", "b")

	rateCurrent(t, s, m, scheduler.Easy)
	assert.False(t, s.Complete())

	rateCurrent(t, s, m, scheduler.Easy)
	assert.True(t, s.Complete())

	v := s.View()
	assert.False(t, v.HasCard)
	assert.Equal(t, 0, v.Remaining)
	assert.Equal(t, 2, v.Retired)

	assert.ErrorIs(t, s.Flip(), ErrSessionComplete)
	assert.ErrorIs(t, s.Rate(scheduler.Easy), ErrSessionComplete)
}

func TestSingleCardGoodShowsAgain(t *testing.T) {
	s, m := setupSession(t, "a")

	rateCurrent(t, s, m, scheduler.Good)
	v := s.View()
	assert.False(t, v.Complete)
	assert.True(t, v.HasCard)
	assert.Equal(t, "a", v.Card.ID)

	rateCurrent(t, s, m, scheduler.Easy)
	assert.True(t, s.Complete())
}

func TestResetRestoresSnapshotOrder(t *testing.T) {
	s, m := setupSession(t, "a", "b", "c", "d")

	rateCurrent(t, s, m, scheduler.Hard)
	rateCurrent(t, s, m, scheduler.Easy)
	rateCurrent(t, s, m, scheduler.Good)
	require.NotEqual(t, 4, s.View().Remaining)

	require.NoError(t, s.Reset())

	v := s.View()
	assert.Equal(t, 4, v.Remaining)
	assert.Equal(t, 0, v.Retired)
	assert.False(t, v.Flipped)
	assert.Equal(t, "a", v.Card.ID)

	// Play the whole deck out with easy ratings: original order comes back.
	var seen []string
	for !s.Complete() {
		seen = append(seen, s.View().Card.ID)
		rateCurrent(t, s, m, scheduler.Easy)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, seen); diff != "" {
		t.Errorf("post-reset review order mismatch (-want +got):\n%s", diff)
	}
}

func TestResetWhileComplete(t *testing.T) {
	s, m := setupSession(t, "a")

	rateCurrent(t, s, m, scheduler.Easy)
	require.True(t, s.Complete())

	require.NoError(t, s.Reset())
	assert.False(t, s.Complete())
	assert.Equal(t, "a", s.View().Card.ID)
}

func TestReviewsRecordFSRSRatings(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	restore := mockTimeNow(fixed)
	defer restore()

	s, m := setupSession(t, "a", "b")

	rateCurrent(t, s, m, scheduler.Hard)
	rateCurrent(t, s, m, scheduler.Easy)

	reviews := s.Reviews()
	require.Len(t, reviews, 2)

	assert.Equal(t, "a", reviews[0].CardID)
	assert.Equal(t, gofsrs.Hard, reviews[0].Rating)
	assert.False(t, reviews[0].Retired)
	assert.Equal(t, fixed, reviews[0].Timestamp)
	assert.NotEmpty(t, reviews[0].ID)

	assert.Equal(t, gofsrs.Easy, reviews[1].Rating)
	assert.True(t, reviews[1].Retired)
}

func TestExitInvokesCallbackOnce(t *testing.T) {
	exits := 0
	s := New(testDeck("a"), Config{
		Deferrer: transition.NewManual(),
		OnExit:   func() { exits++ },
	})

	require.NoError(t, s.Exit())
	assert.Equal(t, 1, exits)

	assert.ErrorIs(t, s.Exit(), ErrSessionClosed)
	assert.Equal(t, 1, exits)

	assert.ErrorIs(t, s.Flip(), ErrSessionClosed)
	assert.ErrorIs(t, s.Rate(scheduler.Good), ErrSessionClosed)
	assert.ErrorIs(t, s.Reset(), ErrSessionClosed)
}

func TestCloseIsIdempotent(t *testing.T) {
	s, _ := setupSession(t, "a")
	s.Close()
	s.Close()
	assert.ErrorIs(t, s.Flip(), ErrSessionClosed)
}

func TestSessionDeckMetadata(t *testing.T) {
	s, _ := setupSession(t, "a")
	assert.Equal(t, "deck-test", s.DeckID())
	assert.Equal(t, "Test Deck", s.DeckName())
}

func TestDefaultDeferrerSwapsAfterDelay(t *testing.T) {
	s := New(testDeck("a", "b"), Config{SwapDelay: 5 * time.Millisecond})
	defer s.Close()

	require.NoError(t, s.Flip())
	require.NoError(t, s.Rate(scheduler.Easy))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.View().Card.ID == "b" {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("deferred swap never updated the displayed card")
}
