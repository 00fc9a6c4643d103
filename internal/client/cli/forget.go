package cli

import (
	"context"
	"fmt"
)

// RunForget drops the token stored for an itinerary. The itinerary stays in
// the recent list; only the edit credential is discarded.
func (c *Cli) RunForget(ctx context.Context, args []string) error {
	shioriID, err := c.requireID(args)
	if err != nil {
		return err
	}

	if err := c.history.Forget(ctx, shioriID); err != nil {
		return fmt.Errorf("failed to forget %s: %w", shioriID, err)
	}

	c.io.Printf("Dropped the stored token for %s.\n", shioriID)
	return nil
}
