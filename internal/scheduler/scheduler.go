// Package scheduler owns the working queue of a study session: the mutable
// review order derived from a deck snapshot, and the reinsertion policy
// applied after each rating.
package scheduler

import (
	"errors"

	"github.com/quizdeck/studysession/internal/deck"
)

// HardReinsertOffset is how many slots ahead of the current position a card
// rated Hard is reinserted. It encodes the "show again soon but not
// immediately" policy; changing it changes which card comes back when.
const HardReinsertOffset = 3

// EmptyPosition is the sentinel position of an exhausted queue.
const EmptyPosition = -1

var (
	// ErrEmptyQueue is returned when rating is attempted on an empty queue.
	ErrEmptyQueue = errors.New("queue is empty")
	// ErrInvalidRating is returned for a rating outside easy/good/hard.
	ErrInvalidRating = errors.New("invalid rating")
)

// Queue is the mutable working queue for one session. It holds the cards
// not yet retired, in current review order, plus the cursor identifying the
// card under review. A card appears at most once, and the card set is always
// a subset of the originating snapshot.
//
// Queue is not safe for concurrent use; the owning session serializes access.
type Queue struct {
	cards []deck.Card
	pos   int
}

// New builds a working queue from a snapshot, preserving snapshot order.
// An empty snapshot yields an already-exhausted queue.
func New(snap *deck.Snapshot) *Queue {
	q := &Queue{cards: snap.Cards(), pos: 0}
	if len(q.cards) == 0 {
		q.pos = EmptyPosition
	}
	return q
}

// Len returns the number of cards still in the queue.
func (q *Queue) Len() int { return len(q.cards) }

// Empty reports whether every card has been retired.
func (q *Queue) Empty() bool { return len(q.cards) == 0 }

// Position returns the current cursor, or EmptyPosition when exhausted.
func (q *Queue) Position() int { return q.pos }

// Current returns the card under review. ok is false when the queue is empty.
func (q *Queue) Current() (card deck.Card, ok bool) {
	if q.pos == EmptyPosition {
		return deck.Card{}, false
	}
	return q.cards[q.pos], true
}

// Cards returns a copy of the remaining cards in review order.
func (q *Queue) Cards() []deck.Card {
	out := make([]deck.Card, len(q.cards))
	copy(out, q.cards)
	return out
}

// Rate applies a rating to the card at the current position and reorders
// the queue:
//
//   - Easy: the card is retired for the rest of the session.
//   - Good: the card moves to the end of the queue.
//   - Hard: the card is reinserted HardReinsertOffset slots ahead, or at the
//     end if the queue is shorter than that.
//
// The new position is the old position modulo the new length, which keeps
// the cursor near where it was instead of snapping back to the front. When
// the last card is retired the position becomes EmptyPosition.
//
// Good and Hard never change the queue length, so a single-card queue rated
// either way shows the same card again next cycle; only Easy shrinks the
// queue, which is what guarantees every session terminates.
func (q *Queue) Rate(r Rating) error {
	if !r.Valid() {
		return ErrInvalidRating
	}
	if q.pos == EmptyPosition {
		return ErrEmptyQueue
	}

	card := q.cards[q.pos]
	q.cards = append(q.cards[:q.pos], q.cards[q.pos+1:]...)

	switch r {
	case Good:
		q.cards = append(q.cards, card)
	case Hard:
		idx := q.pos + HardReinsertOffset
		if idx > len(q.cards) {
			idx = len(q.cards)
		}
		q.cards = append(q.cards, deck.Card{})
		copy(q.cards[idx+1:], q.cards[idx:])
		q.cards[idx] = card
	case Easy:
		// Retired: not reinserted.
	}

	if len(q.cards) == 0 {
		q.pos = EmptyPosition
	} else {
		q.pos = q.pos % len(q.cards)
	}
	return nil
}
