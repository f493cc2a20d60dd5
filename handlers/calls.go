// ABOUTME: Account call lookup and cache stats tool handlers
// ABOUTME: Serves reads from the local call cache without contacting the provider
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/salesdesk/cache"
	"github.com/harperreed/salesdesk/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type CallHandlers struct {
	store *cache.Store
}

func NewCallHandlers(store *cache.Store) *CallHandlers {
	return &CallHandlers{store: store}
}

type GetAccountCallsInput struct {
	Account    string `json:"account" jsonschema:"Account name to search for (matched against call titles and extracted company names)"`
	Domain     string `json:"domain,omitempty" jsonschema:"Email domain to also match participants by (e.g. acme.com)"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum calls to return (default 25)"`
}

type CallOutput struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Scheduled         string   `json:"scheduled"`
	DurationSeconds   int      `json:"duration_seconds,omitempty"`
	Direction         string   `json:"direction,omitempty"`
	URL               string   `json:"url,omitempty"`
	CompanyNames      []string `json:"company_names,omitempty"`
	ParticipantEmails []string `json:"participant_emails,omitempty"`
}

type GetAccountCallsOutput struct {
	Account string       `json:"account"`
	Calls   []CallOutput `json:"calls"`
	Count   int          `json:"count"`
}

func (h *CallHandlers) GetAccountCalls(ctx context.Context, req *mcp.CallToolRequest, input GetAccountCallsInput) (*mcp.CallToolResult, GetAccountCallsOutput, error) {
	if input.Account == "" && input.Domain == "" {
		return nil, GetAccountCallsOutput{}, fmt.Errorf("account name or domain is required")
	}

	// Set default limit
	if input.MaxResults == 0 {
		input.MaxResults = 25
	}

	index, err := h.store.Load()
	if err != nil {
		return nil, GetAccountCallsOutput{}, fmt.Errorf("failed to load call cache: %w", err)
	}

	calls := cache.CallsForAccount(index, input.Account, cache.QueryOptions{
		MaxResults: input.MaxResults,
		Domain:     input.Domain,
	})

	results := make([]CallOutput, len(calls))
	for i, c := range calls {
		results[i] = callToOutput(&c)
	}

	return &mcp.CallToolResult{}, GetAccountCallsOutput{
		Account: input.Account,
		Calls:   results,
		Count:   len(results),
	}, nil
}

type GongCacheStatsInput struct{}

type GongCacheStatsOutput struct {
	TotalCalls      int    `json:"total_calls"`
	UniqueCompanies int    `json:"unique_companies"`
	LastSyncAt      string `json:"last_sync_at,omitempty"`
	OldestCall      string `json:"oldest_call,omitempty"`
	NewestCall      string `json:"newest_call,omitempty"`
	Empty           bool   `json:"empty"`
}

func (h *CallHandlers) GongCacheStats(ctx context.Context, req *mcp.CallToolRequest, input GongCacheStatsInput) (*mcp.CallToolResult, GongCacheStatsOutput, error) {
	index, err := h.store.Load()
	if err != nil {
		return nil, GongCacheStatsOutput{}, fmt.Errorf("failed to load call cache: %w", err)
	}

	stats := cache.Stats(index)
	output := GongCacheStatsOutput{
		TotalCalls:      stats.TotalCalls,
		UniqueCompanies: stats.UniqueCompanies,
		Empty:           stats.Empty,
	}
	if stats.LastSyncAt.Unix() > 0 {
		output.LastSyncAt = stats.LastSyncAt.UTC().Format(time.RFC3339)
	}
	if !stats.Empty {
		output.OldestCall = stats.OldestCall.UTC().Format(time.RFC3339)
		output.NewestCall = stats.NewestCall.UTC().Format(time.RFC3339)
	}

	return &mcp.CallToolResult{}, output, nil
}

func callToOutput(c *models.CallRecord) CallOutput {
	return CallOutput{
		ID:                c.ID,
		Title:             c.Title,
		Scheduled:         c.Scheduled.UTC().Format(time.RFC3339),
		DurationSeconds:   c.DurationSeconds,
		Direction:         c.Direction,
		URL:               c.URL,
		CompanyNames:      c.CompanyNames,
		ParticipantEmails: c.ParticipantEmails,
	}
}
