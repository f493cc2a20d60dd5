// ABOUTME: MCP server subcommand
// ABOUTME: Registers the call cache tools and serves them over stdio
package cli

import (
	"context"
	"database/sql"
	"log"

	"github.com/harperreed/salesdesk/cache"
	"github.com/harperreed/salesdesk/gong"
	"github.com/harperreed/salesdesk/handlers"
	"github.com/harperreed/salesdesk/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPCommand starts the MCP server on stdio. Provider-backed tools (backfill,
// sync, transcript fetch-through) are only registered when Gong credentials
// are configured; cache reads always work.
func MCPCommand(database *sql.DB, store *cache.Store) error {
	log.Println("Starting salesdesk MCP Server...")

	callHandlers := handlers.NewCallHandlers(store)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "salesdesk",
		Version: "0.1.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_account_calls",
		Description: "Find cached Gong calls for an account by name or participant email domain, most recent first",
	}, callHandlers.GetAccountCalls)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "gong_cache_stats",
		Description: "Summarize the local Gong call cache (totals, companies, date range, last sync)",
	}, callHandlers.GongCacheStats)

	config, err := gong.LoadConfig()
	if err != nil {
		log.Printf("Gong credentials not configured, provider tools disabled: %v", err)
		mcp.AddTool(server, &mcp.Tool{
			Name:        "get_call_transcripts",
			Description: "Fetch transcripts for Gong calls by id, served from the local cache",
		}, handlers.NewTranscriptHandlers(database, nil).GetCallTranscripts)
	} else {
		client := gong.NewClient(config)
		importer := sync.NewImporter(database, client, store, nil)
		syncHandlers := handlers.NewSyncHandlers(importer)

		mcp.AddTool(server, &mcp.Tool{
			Name:        "backfill_gong_cache",
			Description: "Fetch months of Gong call history into the local cache (idempotent, safe to re-run)",
		}, syncHandlers.BackfillGongCache)

		mcp.AddTool(server, &mcp.Tool{
			Name:        "sync_gong_cache",
			Description: "Incrementally fetch Gong calls recorded since the last sync",
		}, syncHandlers.SyncGongCache)

		mcp.AddTool(server, &mcp.Tool{
			Name:        "get_call_transcripts",
			Description: "Fetch transcripts for Gong calls by id, cached locally after first fetch",
		}, handlers.NewTranscriptHandlers(database, client).GetCallTranscripts)
	}

	// Run server on stdio transport
	ctx := context.Background()
	return server.Run(ctx, &mcp.StdioTransport{})
}
