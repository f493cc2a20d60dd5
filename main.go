// ABOUTME: Entry point for the salesdesk MCP server and CLI
// ABOUTME: Routes to MCP server or Gong cache commands based on arguments
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/harperreed/salesdesk/cache"
	"github.com/harperreed/salesdesk/cli"
	"github.com/harperreed/salesdesk/db"
)

const version = "0.1.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	cachePath := flag.String("cache-path", "", "Call cache directory (default: ~/.local/share/salesdesk)")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/salesdesk/salesdesk.db)")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	// Handle version flag
	if *showVersion {
		fmt.Printf("salesdesk version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]
	commandArgs := args[1:]

	store := cache.NewStore(getCachePath(*cachePath))

	switch command {
	case "mcp":
		database, err := db.OpenDatabase(getDatabasePath(*dbPath))
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer database.Close()

		if err := cli.MCPCommand(database, store); err != nil {
			log.Fatalf("MCP server failed: %v", err)
		}

	case "gong":
		if len(commandArgs) == 0 {
			fmt.Println("Error: gong requires a subcommand")
			printUsage()
			os.Exit(1)
		}

		database, err := db.OpenDatabase(getDatabasePath(*dbPath))
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer database.Close()

		gongCommand := commandArgs[0]
		gongArgs := commandArgs[1:]

		switch gongCommand {
		case "backfill":
			if err := cli.BackfillCommand(database, store, gongArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "sync":
			if err := cli.SyncCommand(database, store, gongArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "stats":
			if err := cli.StatsCommand(database, store, gongArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "calls":
			if err := cli.CallsCommand(store, gongArgs); err != nil {
				log.Fatalf("Error: %v", err)
			}
		default:
			fmt.Printf("Unknown gong command: %s\n\n", gongCommand)
			printUsage()
			os.Exit(1)
		}

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func getCachePath(cachePath string) string {
	if cachePath != "" {
		return cachePath
	}
	return filepath.Join(xdg.DataHome, "salesdesk")
}

func getDatabasePath(dbPath string) string {
	if dbPath != "" {
		return dbPath
	}
	return filepath.Join(xdg.DataHome, "salesdesk", "salesdesk.db")
}

func printUsage() {
	fmt.Printf(`salesdesk v%s - Sales account call intelligence

USAGE:
  salesdesk [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --cache-path <dir>     Call cache directory (default: ~/.local/share/salesdesk)
  --db-path <path>       Database path (default: ~/.local/share/salesdesk/salesdesk.db)

COMMANDS:
  mcp                    Start MCP server for agent integration
  gong                   Gong call cache commands

MCP SERVER:
  salesdesk mcp          Start MCP server on stdio

GONG COMMANDS:
  salesdesk gong backfill   Fetch months of call history into the cache
    --months <n>              Months of history (default: 6)
    --delay-ms <n>            Delay between page requests (default: 2000)

  salesdesk gong sync       Fetch calls recorded since the last sync

  salesdesk gong stats      Show cache stats and recent sync runs
    --account <name>          Also count calls matching an account

  salesdesk gong calls      List cached calls for an account
    --account <name>          Account name to search for
    --domain <domain>         Also match participants by email domain
    --limit <n>               Max results (default: 25)

ENVIRONMENT:
  GONG_ACCESS_KEY        Gong API access key (required for backfill/sync)
  GONG_ACCESS_SECRET     Gong API access secret
  GONG_BASE_URL          Gong API base URL (default: https://api.gong.io)

  Variables are also read from a .env file in the working directory.
`, version)
}
