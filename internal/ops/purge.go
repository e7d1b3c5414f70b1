package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/handoff/internal/db"
	"github.com/hpungsan/handoff/internal/errors"
)

// PurgeInput contains parameters for the Purge operation.
type PurgeInput struct {
	OlderThanDays *int // optional, only purge events created more than N days ago
}

// PurgeOutput contains the result of the Purge operation.
type PurgeOutput struct {
	Purged  int    `json:"purged"`
	Message string `json:"message"`
}

// Purge permanently deletes recorded share events.
func Purge(ctx context.Context, database *sql.DB, input PurgeInput) (*PurgeOutput, error) {
	if input.OlderThanDays != nil && *input.OlderThanDays < 0 {
		return nil, errors.NewInvalidRequest("older_than_days must be >= 0")
	}

	count, err := db.PurgeEvents(database, input.OlderThanDays)
	if err != nil {
		return nil, err
	}

	return &PurgeOutput{
		Purged:  count,
		Message: formatPurgeMessage(count, input.OlderThanDays),
	}, nil
}

// formatPurgeMessage creates a human-readable message for the purge result.
func formatPurgeMessage(count int, olderThanDays *int) string {
	if count == 0 {
		return "No share events to purge"
	}

	eventWord := "event"
	if count > 1 {
		eventWord = "events"
	}

	msg := fmt.Sprintf("Permanently deleted %d share %s", count, eventWord)
	if olderThanDays != nil {
		msg += fmt.Sprintf(" (recorded more than %d days ago)", *olderThanDays)
	}
	return msg
}
