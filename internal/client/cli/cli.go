// Package cli implements the shiori client commands.
package cli

import (
	"context"
	"fmt"

	"github.com/tabitabi/shiori/internal/client/api"
	"github.com/tabitabi/shiori/internal/client/history"
	"github.com/tabitabi/shiori/internal/client/iocli"
)

// Cli bundles the API client, the local history store and terminal IO.
type Cli struct {
	apiClient *api.Client
	history   *history.Store
	io        iocli.IO
}

// New creates the command runner.
func New(apiClient *api.Client, historyStore *history.Store, io iocli.IO) *Cli {
	return &Cli{
		apiClient: apiClient,
		history:   historyStore,
		io:        io,
	}
}

// Run dispatches one command with its arguments.
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "auth":
		return c.RunAuth(ctx, args)
	case "show":
		return c.RunShow(ctx, args)
	case "recent":
		return c.RunRecent(ctx)
	case "forget":
		return c.RunForget(ctx, args)
	default:
		c.PrintUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

// PrintUsage prints the command overview.
func (c *Cli) PrintUsage() {
	c.io.Println("Usage: shiori [flags] <command> [arguments]")
	c.io.Println("")
	c.io.Println("Commands:")
	c.io.Println("  auth <shiori-id>    Authenticate with the itinerary password and store the token")
	c.io.Println("  show <shiori-id>    Show an itinerary and its steps")
	c.io.Println("  recent              List recently viewed itineraries")
	c.io.Println("  forget <shiori-id>  Drop the stored token for an itinerary")
	c.io.Println("")
	c.io.Println("Flags:")
	c.io.Println("  -server URL   Server URL (default http://localhost:8080)")
	c.io.Println("  -db PATH      Path to the local history database")
	c.io.Println("  -version      Show version information")
}

// requireID returns the id argument or prompts for one.
func (c *Cli) requireID(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	id, err := c.io.ReadInput("Shiori ID: ")
	if err != nil {
		return "", fmt.Errorf("failed to read shiori id: %w", err)
	}
	if id == "" {
		return "", fmt.Errorf("shiori id is required")
	}
	return id, nil
}
