// ABOUTME: Cache maintenance tool handlers for backfill and incremental sync
// ABOUTME: Wraps the Gong importer so agents can refresh the cache on demand
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/salesdesk/models"
	"github.com/harperreed/salesdesk/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type SyncHandlers struct {
	importer *sync.Importer
}

func NewSyncHandlers(importer *sync.Importer) *SyncHandlers {
	return &SyncHandlers{importer: importer}
}

type BackfillGongCacheInput struct {
	Months int `json:"months,omitempty" jsonschema:"How many months of history to fetch (default 6)"`
}

type SyncResultOutput struct {
	NewCalls     int    `json:"new_calls"`
	UpdatedCalls int    `json:"updated_calls"`
	TotalCalls   int    `json:"total_calls"`
	SyncedAt     string `json:"synced_at"`
}

func (h *SyncHandlers) BackfillGongCache(ctx context.Context, req *mcp.CallToolRequest, input BackfillGongCacheInput) (*mcp.CallToolResult, SyncResultOutput, error) {
	result, err := h.importer.Backfill(ctx, sync.BackfillOptions{Months: input.Months})
	if err != nil {
		return nil, SyncResultOutput{}, fmt.Errorf("backfill failed: %w", err)
	}
	return &mcp.CallToolResult{}, syncResultToOutput(result), nil
}

type SyncGongCacheInput struct{}

func (h *SyncHandlers) SyncGongCache(ctx context.Context, req *mcp.CallToolRequest, input SyncGongCacheInput) (*mcp.CallToolResult, SyncResultOutput, error) {
	result, err := h.importer.Sync(ctx)
	if err != nil {
		return nil, SyncResultOutput{}, fmt.Errorf("sync failed: %w", err)
	}
	return &mcp.CallToolResult{}, syncResultToOutput(result), nil
}

func syncResultToOutput(r *models.SyncResult) SyncResultOutput {
	return SyncResultOutput{
		NewCalls:     r.NewCalls,
		UpdatedCalls: r.UpdatedCalls,
		TotalCalls:   r.TotalCalls,
		SyncedAt:     r.SyncedAt.UTC().Format(time.RFC3339),
	}
}
