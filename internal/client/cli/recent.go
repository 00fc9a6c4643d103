package cli

import (
	"context"
	"fmt"
)

// RunRecent lists the locally remembered itineraries, most recent first.
func (c *Cli) RunRecent(ctx context.Context) error {
	entries, err := c.history.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if len(entries) == 0 {
		c.io.Println("No recently viewed itineraries.")
		return nil
	}

	c.io.Println("Recently viewed:")
	for _, entry := range entries {
		auth := ""
		if entry.Token != "" {
			auth = "  [authenticated]"
		}
		c.io.Printf("  %s  %s  (%s)%s\n",
			entry.AccessedAt.Format("2006-01-02 15:04"),
			entry.Title,
			entry.ShioriID,
			auth)
	}
	return nil
}
