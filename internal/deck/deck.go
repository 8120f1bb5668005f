// Package deck defines the immutable card and deck types a study session
// is built from.
package deck

// Card is a single flashcard. Cards are identity-stable and immutable once
// loaded into a session.
type Card struct {
	ID       string `json:"id"`
	Front    string `json:"front"`
	Back     string `json:"back"`
	MediaRef string `json:"media_ref,omitempty"`
}

// Deck is the caller-supplied input: an ordered list of cards under a name.
type Deck struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Cards []Card `json:"cards"`
}

// Snapshot is a frozen copy of a deck's card order, fixed for the lifetime
// of one session. It is never mutated; sessions copy it into a fresh working
// queue on start and on every reset.
type Snapshot struct {
	deckID   string
	deckName string
	cards    []Card
}

// NewSnapshot copies the deck's cards so later mutation of the caller's
// slice cannot reach the session.
func NewSnapshot(d Deck) *Snapshot {
	cards := make([]Card, len(d.Cards))
	copy(cards, d.Cards)
	return &Snapshot{
		deckID:   d.ID,
		deckName: d.Name,
		cards:    cards,
	}
}

// DeckID returns the id of the deck this snapshot was taken from.
func (s *Snapshot) DeckID() string { return s.deckID }

// DeckName returns the name of the deck this snapshot was taken from.
func (s *Snapshot) DeckName() string { return s.deckName }

// Size returns the number of cards in the snapshot.
func (s *Snapshot) Size() int { return len(s.cards) }

// Cards returns a fresh copy of the snapshot's cards in original order.
// Callers may reorder or shrink the returned slice freely.
func (s *Snapshot) Cards() []Card {
	cards := make([]Card, len(s.cards))
	copy(cards, s.cards)
	return cards
}

// Card returns the card at index i in snapshot order.
func (s *Snapshot) Card(i int) Card { return s.cards[i] }
