// Manuel: internal process manual store.
//
// Serves the Manual Store to AI agents over MCP (stdio) or to other
// services over HTTP.
//
// Usage:
//
//	manuel serve [--config path]   # Start MCP server (stdio transport)
//	manuel http  [--config path]   # Start HTTP API
//	manuel version
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/harshag68/AgentDevelopment/internal/app"
	"github.com/harshag68/AgentDevelopment/internal/config"
	"github.com/harshag68/AgentDevelopment/internal/httpapi"
	mcpserver "github.com/harshag68/AgentDevelopment/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(os.Args[2:], serveMCP); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "http":
		if err := run(os.Args[2:], serveHTTP); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("manuel v%s\n", mcpserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run(args []string, serve func(context.Context, *app.App) error) error {
	fs := flag.NewFlagSet("manuel", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file (default $"+config.EnvConfigPath+")")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	// Graceful shutdown on interrupt.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, mcpserver.Version)
	if err != nil {
		return fmt.Errorf("starting: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			fmt.Fprintf(os.Stderr, "WARNING: shutdown: %v\n", err)
		}
	}()

	return serve(ctx, a)
}

// serveMCP blocks on stdio until the client disconnects or a signal
// arrives. Logs go to stderr so they never mix with the protocol stream.
func serveMCP(ctx context.Context, a *app.App) error {
	s := mcpserver.New(a.Store)
	stdio := server.NewStdioServer(s)
	a.Log.Info("mcp server listening on stdio")
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

func serveHTTP(ctx context.Context, a *app.App) error {
	return httpapi.ListenAndServe(ctx, a.Cfg.HTTP.Addr, a.Router(), a.Log)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Manuel v%s: internal process manual store

Usage:
  manuel serve [--config path]   Start the MCP server (stdio transport)
  manuel http  [--config path]   Start the HTTP API
  manuel version                 Print the version

Configuration:
  YAML file via --config or $MANUEL_CONFIG, overridden by MANUEL_* variables
  (MANUEL_CATALOG_DRIVER, MANUEL_BLOB_DRIVER, MANUEL_HTTP_ADDR, ...).

  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "manuel": {
        "command": "manuel",
        "args": ["serve"]
      }
    }
  }
`, mcpserver.Version)
}
