// Package main implements the study session MCP server.
package main

import (
	"github.com/quizdeck/studysession/internal/session"
)

// CardView is the displayed card as exposed to the client. Back is only
// populated once the card has been flipped; until then the answer stays
// hidden.
type CardView struct {
	ID       string `json:"id"`
	Front    string `json:"front"`
	Back     string `json:"back,omitempty"`
	MediaRef string `json:"media_ref,omitempty"`
	Flipped  bool   `json:"flipped"`
}

// SessionStats summarizes session progress.
type SessionStats struct {
	Remaining int  `json:"remaining_cards"`
	Retired   int  `json:"retired_cards"`
	Total     int  `json:"total_cards"`
	Complete  bool `json:"complete"`
}

// DeckSummary describes one deck available for study.
type DeckSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CardCount int    `json:"card_count"`
}

// ListDecksResponse is the response structure for list_decks.
type ListDecksResponse struct {
	Decks []DeckSummary `json:"decks"`
}

// StartSessionResponse is the response structure for start_session.
type StartSessionResponse struct {
	SessionID string       `json:"session_id"`
	DeckID    string       `json:"deck_id"`
	DeckName  string       `json:"deck_name"`
	Card      *CardView    `json:"card,omitempty"`
	Stats     SessionStats `json:"stats"`
}

// CardResponse is the response structure for get_current_card, flip_card,
// rate_card and reset_session.
type CardResponse struct {
	SessionID string       `json:"session_id"`
	Card      *CardView    `json:"card,omitempty"`
	Stats     SessionStats `json:"stats"`
	Message   string       `json:"message,omitempty"`
}

// ExitSessionResponse is the response structure for exit_session.
type ExitSessionResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Reviews []session.Review `json:"reviews"`
}
