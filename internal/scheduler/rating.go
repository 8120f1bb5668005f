package scheduler

import (
	"fmt"
	"strings"

	gofsrs "github.com/open-spaced-repetition/go-fsrs"
)

// Rating is the user's self-assessment of a card. It is a pure reordering
// signal within the session and is never persisted by this package.
type Rating int8

const (
	// Easy retires the card from the session.
	Easy Rating = iota + 1
	// Good moves the card to the end of the queue.
	Good
	// Hard reinserts the card a few slots ahead so it comes back soon.
	Hard
)

// String returns the lowercase name used on the wire ("easy", "good", "hard").
func (r Rating) String() string {
	switch r {
	case Easy:
		return "easy"
	case Good:
		return "good"
	case Hard:
		return "hard"
	default:
		return fmt.Sprintf("rating(%d)", int8(r))
	}
}

// Valid reports whether r is one of the three defined ratings.
func (r Rating) Valid() bool {
	return r == Easy || r == Good || r == Hard
}

// ToFSRS maps the session rating onto the go-fsrs rating scale
// (Hard=2, Good=3, Easy=4) so review logs can be fed to a backend
// scheduler. Interval computation itself is out of scope here.
func (r Rating) ToFSRS() gofsrs.Rating {
	switch r {
	case Easy:
		return gofsrs.Easy
	case Good:
		return gofsrs.Good
	case Hard:
		return gofsrs.Hard
	default:
		return gofsrs.Again
	}
}

// ParseRating converts a wire string into a Rating.
func ParseRating(s string) (Rating, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "good":
		return Good, nil
	case "hard":
		return Hard, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidRating, s)
	}
}
