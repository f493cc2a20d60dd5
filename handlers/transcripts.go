// ABOUTME: Call transcript tool handler with a local fetch-through cache
// ABOUTME: Serves cached transcripts and fetches misses from the provider in one batch
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/salesdesk/db"
	"github.com/harperreed/salesdesk/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TranscriptFetcher is the provider call used to resolve cache misses.
type TranscriptFetcher interface {
	GetTranscripts(ctx context.Context, callIDs []string) ([]models.Transcript, error)
}

type TranscriptHandlers struct {
	db       *sql.DB
	provider TranscriptFetcher
}

// NewTranscriptHandlers creates the handler. provider may be nil, in which
// case only cached transcripts are served.
func NewTranscriptHandlers(database *sql.DB, provider TranscriptFetcher) *TranscriptHandlers {
	return &TranscriptHandlers{db: database, provider: provider}
}

type GetCallTranscriptsInput struct {
	CallIDs []string `json:"call_ids" jsonschema:"Gong call ids to fetch transcripts for"`
}

type TranscriptOutput struct {
	CallID     string `json:"call_id"`
	Transcript string `json:"transcript"`
	Summary    string `json:"summary,omitempty"`
	Cached     bool   `json:"cached"`
	FetchedAt  string `json:"fetched_at,omitempty"`
}

type GetCallTranscriptsOutput struct {
	Transcripts []TranscriptOutput `json:"transcripts"`
	Missing     []string           `json:"missing,omitempty"`
}

func (h *TranscriptHandlers) GetCallTranscripts(ctx context.Context, req *mcp.CallToolRequest, input GetCallTranscriptsInput) (*mcp.CallToolResult, GetCallTranscriptsOutput, error) {
	if len(input.CallIDs) == 0 {
		return nil, GetCallTranscriptsOutput{}, fmt.Errorf("call_ids is required")
	}

	var output GetCallTranscriptsOutput
	var misses []string

	for _, callID := range input.CallIDs {
		cached, err := db.GetTranscript(h.db, callID)
		if err != nil {
			return nil, GetCallTranscriptsOutput{}, fmt.Errorf("failed to read transcript cache: %w", err)
		}
		if cached == nil {
			misses = append(misses, callID)
			continue
		}
		output.Transcripts = append(output.Transcripts, TranscriptOutput{
			CallID:     cached.CallID,
			Transcript: cached.Transcript.Transcript,
			Summary:    cached.Summary,
			Cached:     true,
			FetchedAt:  cached.FetchedAt.UTC().Format(time.RFC3339),
		})
	}

	if len(misses) == 0 {
		return &mcp.CallToolResult{}, output, nil
	}
	if h.provider == nil {
		output.Missing = misses
		return &mcp.CallToolResult{}, output, nil
	}

	fetched, err := h.provider.GetTranscripts(ctx, misses)
	if err != nil {
		return nil, GetCallTranscriptsOutput{}, fmt.Errorf("failed to fetch transcripts: %w", err)
	}

	got := make(map[string]bool, len(fetched))
	for _, t := range fetched {
		got[t.CallID] = true
		if err := db.UpsertTranscript(h.db, t); err != nil {
			fmt.Printf("Warning: failed to cache transcript for %s: %v\n", t.CallID, err)
		}
		output.Transcripts = append(output.Transcripts, TranscriptOutput{
			CallID:     t.CallID,
			Transcript: t.Transcript,
			Summary:    t.Summary,
			Cached:     false,
		})
	}

	// Ids the provider did not return, surfaced instead of erroring
	for _, id := range misses {
		if !got[id] {
			output.Missing = append(output.Missing, id)
		}
	}

	return &mcp.CallToolResult{}, output, nil
}
