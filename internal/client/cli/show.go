package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tabitabi/shiori/internal/client/history"
	"github.com/tabitabi/shiori/pkg/api"
)

// RunShow prints an itinerary and its steps. A token stored by a previous
// auth is sent along, so the owner sees steps that secret mode still hides
// from everyone else.
func (c *Cli) RunShow(ctx context.Context, args []string) error {
	shioriID, err := c.requireID(args)
	if err != nil {
		return err
	}

	token := ""
	if entry, err := c.history.Get(ctx, shioriID); err == nil {
		token = entry.Token
	} else if !errors.Is(err, history.ErrNotFound) {
		return fmt.Errorf("failed to read history: %w", err)
	}

	it, err := c.apiClient.GetItinerary(ctx, shioriID)
	if err != nil {
		return err
	}

	steps, err := c.apiClient.ListSteps(ctx, shioriID, token)
	if err != nil {
		return err
	}

	c.io.Printf("%s\n", it.Title)
	c.io.Printf("  ID:    %s\n", it.ID)
	c.io.Printf("  Theme: %s\n", it.ThemeID)
	if it.IsPasswordProtected {
		c.io.Println("  Protected: yes")
	}
	if it.SecretSettings != nil && it.SecretSettings.Enabled {
		c.io.Printf("  Secret mode: on (reveals %d min before each step)\n", it.SecretSettings.OffsetMinutes)
	}

	if len(steps) == 0 {
		c.io.Println("\nNo steps yet.")
	} else {
		c.io.Println("\nSteps:")
		for _, step := range steps {
			marker := " "
			if step.IsHidden {
				marker = "*"
			}
			line := fmt.Sprintf("%s %s %s  %s", marker, step.Date, step.Time, step.Title)
			if step.Location != nil && *step.Location != "" {
				line += " @ " + *step.Location
			}
			c.io.Println(line)
		}
		if hasHidden(steps) {
			c.io.Println("\n* not yet revealed")
		}
	}

	entry := &history.Entry{
		ShioriID:   shioriID,
		Title:      it.Title,
		Token:      token,
		AccessedAt: time.Now(),
	}
	if err := c.history.Save(ctx, entry); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}

	return nil
}

func hasHidden(steps []api.Step) bool {
	for _, step := range steps {
		if step.IsHidden {
			return true
		}
	}
	return false
}
