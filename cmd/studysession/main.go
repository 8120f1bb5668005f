package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/quizdeck/studysession/internal/config"
	"github.com/quizdeck/studysession/internal/deckstore"
)

const studySessionServerInfo = `
This server runs interactive spaced-repetition study sessions over flashcard
decks. Follow this workflow:

1. Call list_decks and let the user pick a deck, then start_session.
2. Present ONLY the front (question) side of the current card. Never reveal
   the back until the card has been flipped.
3. When the user is ready to check their answer, call flip_card and show the
   back side.
4. Ask the user how the card went and call rate_card with their self-rating:
   - "easy": they knew it; the card is retired for this session
   - "good": they got it; the card comes back at the end of the queue
   - "hard": they struggled; the card comes back after a few more cards
   Ratings are only accepted after the card has been flipped.
5. Continue until the session reports complete, then offer reset_session to
   study the deck again or exit_session to finish.

The session reorders cards within one sitting only; long-term scheduling is
the job of whatever system consumes the review log returned by exit_session.
`

func main() {
	cfg := config.Load()

	// Flags override the environment for local runs.
	filePath := flag.String("file", cfg.DeckFile, "Path to deck data file")
	flag.Parse()

	store := deckstore.NewFileStore(*filePath)
	if err := store.Load(); err != nil {
		fmt.Printf("Error loading deck store: %v\n", err)
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"Study Session MCP",
		"1.0.0",
		server.WithInstructions(studySessionServerInfo),
		server.WithToolCapabilities(true),
		server.WithLogging(),
	)

	sessionService := NewSessionService(store, cfg.SwapDelay)
	defer sessionService.Shutdown()

	// Context with the service for tool handlers.
	ctx := context.WithValue(context.Background(), "service", sessionService)

	listDecksTool := mcp.NewTool("list_decks",
		mcp.WithDescription("List the flashcard decks available for study."),
	)

	startSessionTool := mcp.NewTool("start_session",
		mcp.WithDescription(
			"Start a study session over a deck. Returns a session_id and the "+
				"front of the first card. Show only the front side; the answer "+
				"stays hidden until flip_card is called.",
		),
		mcp.WithString("deck_id",
			mcp.Required(),
			mcp.Description("The ID of the deck to study"),
		),
	)

	getCurrentCardTool := mcp.NewTool("get_current_card",
		mcp.WithDescription(
			"Get the card currently under review. The back side is only "+
				"included after flip_card has been called.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The ID of the study session"),
		),
	)

	flipCardTool := mcp.NewTool("flip_card",
		mcp.WithDescription(
			"Flip the current card to reveal its answer. A card must be "+
				"flipped before it can be rated.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The ID of the study session"),
		),
	)

	rateCardTool := mcp.NewTool("rate_card",
		mcp.WithDescription(
			"Rate the flipped card. 'easy' retires it for this session, "+
				"'good' sends it to the end of the queue, 'hard' brings it "+
				"back after a few more cards. Returns the next card's front, "+
				"or a completion notice when the queue is empty.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The ID of the study session"),
		),
		mcp.WithString("rating",
			mcp.Required(),
			mcp.Description("Self-rating for the card: easy, good or hard"),
		),
	)

	resetSessionTool := mcp.NewTool("reset_session",
		mcp.WithDescription(
			"Restart a session from the full deck in its original order. "+
				"Typically offered once the session is complete.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The ID of the study session"),
		),
	)

	exitSessionTool := mcp.NewTool("exit_session",
		mcp.WithDescription(
			"End a study session and return its review log (ratings on the "+
				"FSRS scale) for long-term scheduling by the caller.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The ID of the study session"),
		),
	)

	s.AddTool(listDecksTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListDecks(ctx, request)
	})
	s.AddTool(startSessionTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleStartSession(ctx, request)
	})
	s.AddTool(getCurrentCardTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetCurrentCard(ctx, request)
	})
	s.AddTool(flipCardTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleFlipCard(ctx, request)
	})
	s.AddTool(rateCardTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRateCard(ctx, request)
	})
	s.AddTool(resetSessionTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleResetSession(ctx, request)
	})
	s.AddTool(exitSessionTool, func(reqCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleExitSession(ctx, request)
	})

	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("Error serving MCP server: %v", err)
	}
}
