// Package main implements the study session MCP server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/quizdeck/studysession/internal/deckstore"
	"github.com/quizdeck/studysession/internal/scheduler"
	"github.com/quizdeck/studysession/internal/session"
)

// serviceFromContext extracts the SessionService stored on the context.
func serviceFromContext(ctx context.Context) (*SessionService, bool) {
	s, ok := ctx.Value("service").(*SessionService)
	return s, ok && s != nil
}

// jsonResult marshals v as indented JSON into a text tool result.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult wraps an error message in the standard {"error": ...} shape.
func errorResult(msg string) *mcp.CallToolResult {
	data, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf(`{"error": %q}`, msg))
	}
	return mcp.NewToolResultText(string(data))
}

// friendlyError maps the engine's sentinel errors onto messages the client
// can act on. Rejected actions are reported, never raised as faults.
func friendlyError(err error) string {
	switch {
	case errors.Is(err, deckstore.ErrDeckNotFound):
		return "Deck not found. Use list_decks to see available decks."
	case errors.Is(err, ErrSessionNotFound):
		return "Session not found. It may have been exited; use start_session to begin a new one."
	case errors.Is(err, session.ErrNotFlipped):
		return "The card has not been flipped yet. Use flip_card to reveal the answer before rating."
	case errors.Is(err, session.ErrSessionComplete):
		return "The session is complete. Use reset_session to study the deck again or exit_session to finish."
	case errors.Is(err, session.ErrSessionClosed):
		return "The session has been closed. Use start_session to begin a new one."
	case errors.Is(err, scheduler.ErrInvalidRating):
		return "Invalid rating. Use one of: easy, good, hard."
	default:
		return fmt.Sprintf("Unexpected error: %v", err)
	}
}

// handleListDecks handles the list_decks tool request.
func handleListDecks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return errorResult("Service not available"), nil
	}

	decks, err := s.ListDecks()
	if err != nil {
		return errorResult(friendlyError(err)), nil
	}
	return jsonResult(ListDecksResponse{Decks: decks})
}

// handleStartSession handles the start_session tool request by creating a
// new session over the requested deck.
func handleStartSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return errorResult("Service not available"), nil
	}

	deckID, ok := request.Params.Arguments["deck_id"].(string)
	if !ok || deckID == "" {
		return errorResult("Missing required parameter: deck_id"), nil
	}

	resp, err := s.StartSession(deckID)
	if err != nil {
		return errorResult(friendlyError(err)), nil
	}
	return jsonResult(resp)
}

// handleGetCurrentCard handles the get_current_card tool request. The back
// of the card is only included once the card has been flipped.
func handleGetCurrentCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return errorResult("Service not available"), nil
	}

	sessionID, ok := request.Params.Arguments["session_id"].(string)
	if !ok || sessionID == "" {
		return errorResult("Missing required parameter: session_id"), nil
	}

	resp, err := s.CurrentCard(sessionID)
	if err != nil {
		return errorResult(friendlyError(err)), nil
	}
	return jsonResult(resp)
}

// handleFlipCard handles the flip_card tool request by revealing the answer
// side of the current card.
func handleFlipCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return errorResult("Service not available"), nil
	}

	sessionID, ok := request.Params.Arguments["session_id"].(string)
	if !ok || sessionID == "" {
		return errorResult("Missing required parameter: session_id"), nil
	}

	resp, err := s.Flip(sessionID)
	if err != nil {
		return errorResult(friendlyError(err)), nil
	}
	return jsonResult(resp)
}

// handleRateCard handles the rate_card tool request by applying an
// easy/good/hard rating to the flipped card.
func handleRateCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return errorResult("Service not available"), nil
	}

	sessionID, ok := request.Params.Arguments["session_id"].(string)
	if !ok || sessionID == "" {
		return errorResult("Missing required parameter: session_id"), nil
	}
	rating, ok := request.Params.Arguments["rating"].(string)
	if !ok || rating == "" {
		return errorResult("Missing required parameter: rating"), nil
	}

	resp, err := s.Rate(sessionID, rating)
	if err != nil {
		return errorResult(friendlyError(err)), nil
	}
	return jsonResult(resp)
}

// handleResetSession handles the reset_session tool request.
func handleResetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return errorResult("Service not available"), nil
	}

	sessionID, ok := request.Params.Arguments["session_id"].(string)
	if !ok || sessionID == "" {
		return errorResult("Missing required parameter: session_id"), nil
	}

	resp, err := s.Reset(sessionID)
	if err != nil {
		return errorResult(friendlyError(err)), nil
	}
	return jsonResult(resp)
}

// handleExitSession handles the exit_session tool request, returning the
// session's review log for any backend scheduler to consume.
func handleExitSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFromContext(ctx)
	if !ok {
		return errorResult("Service not available"), nil
	}

	sessionID, ok := request.Params.Arguments["session_id"].(string)
	if !ok || sessionID == "" {
		return errorResult("Missing required parameter: session_id"), nil
	}

	resp, err := s.Exit(sessionID)
	if err != nil {
		return errorResult(friendlyError(err)), nil
	}
	return jsonResult(resp)
}
