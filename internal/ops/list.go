package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/handoff/internal/db"
	"github.com/hpungsan/handoff/internal/deeplink"
	"github.com/hpungsan/handoff/internal/errors"
	"github.com/hpungsan/handoff/internal/history"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Platform string // optional deep-link platform tag
	OK       *bool  // optional outcome filter
	Limit    int    // default: 20, max: 100
	Offset   int    // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []history.Event `json:"items"`
	Pagination Pagination      `json:"pagination"`
	Sort       string          `json:"sort"`
}

// List retrieves recorded share events, newest first.
func List(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	platform := strings.ToLower(strings.TrimSpace(input.Platform))
	if platform != "" && !deeplink.Platform(platform).Valid() {
		return nil, errors.NewInvalidRequest("unknown platform: " + input.Platform)
	}

	// Apply limit defaults and bounds
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	// Ensure offset is non-negative
	offset := max(input.Offset, 0)

	items, total, err := db.ListEvents(database, db.ListFilter{Platform: platform, OK: input.OK}, limit, offset)
	if err != nil {
		return nil, err
	}

	// Ensure we return an empty array rather than nil
	if items == nil {
		items = []history.Event{}
	}

	return &ListOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort: "created_at_desc",
	}, nil
}
