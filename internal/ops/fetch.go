package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/handoff/internal/db"
	"github.com/hpungsan/handoff/internal/errors"
	"github.com/hpungsan/handoff/internal/history"
)

// Fetch retrieves one share event by ID.
func Fetch(ctx context.Context, database *sql.DB, id string) (*history.Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	return db.GetEventByID(database, id)
}
