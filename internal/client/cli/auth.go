package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/tabitabi/shiori/internal/client/history"
)

// RunAuth exchanges the itinerary password for a capability token and
// remembers it in the local history.
func (c *Cli) RunAuth(ctx context.Context, args []string) error {
	shioriID, err := c.requireID(args)
	if err != nil {
		return err
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}

	token, err := c.apiClient.Authenticate(ctx, shioriID, password)
	if err != nil {
		return err
	}

	// Fetch the title so the history shows something readable.
	title := shioriID
	if it, err := c.apiClient.GetItinerary(ctx, shioriID); err == nil {
		title = it.Title
	}

	entry := &history.Entry{
		ShioriID:   shioriID,
		Title:      title,
		Token:      token,
		AccessedAt: time.Now(),
	}
	if err := c.history.Save(ctx, entry); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}

	c.io.Printf("Authenticated for %q. Token stored locally.\n", title)
	return nil
}
