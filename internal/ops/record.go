package ops

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/handoff/internal/db"
	"github.com/hpungsan/handoff/internal/deeplink"
	"github.com/hpungsan/handoff/internal/errors"
	"github.com/hpungsan/handoff/internal/history"
	"github.com/hpungsan/handoff/internal/host"
	"github.com/hpungsan/handoff/internal/share"
)

// RecordInput contains parameters for the Record operation.
type RecordInput struct {
	Data   host.ShareData
	Result share.Result
	// Now overrides the event time. Zero means time.Now().
	Now time.Time
}

// Record stores the outcome of one share call.
func Record(ctx context.Context, database *sql.DB, input RecordInput) (*history.Event, error) {
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}

	id, err := generateULID(now)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	e := &history.Event{
		ID:        id,
		OK:        input.Result.OK,
		URL:       input.Data.URL,
		Title:     input.Data.Title,
		Platform:  string(deeplink.DetectPlatform(input.Data.URL)),
		CreatedAt: now.Unix(),
	}
	if input.Result.OK {
		e.Method = string(input.Result.Method)
	} else if input.Result.Err != nil {
		he := errors.As(input.Result.Err)
		e.ErrorCode = string(he.Code)
		e.ErrorMessage = he.Message
	}

	if err := db.InsertEvent(database, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Recorder runs shares through a dispatcher and records each outcome. A nil
// DB disables recording.
type Recorder struct {
	DB     *sql.DB
	Logger *zap.Logger
}

// Share calls d.Share and records the result. Recording failures are logged
// and never change the share result.
func (r *Recorder) Share(ctx context.Context, d *share.Dispatcher, p share.Payload, so share.ShareOptions) (share.Result, *history.Event) {
	res := d.Share(ctx, p, so)
	if r == nil || r.DB == nil {
		return res, nil
	}

	var data host.ShareData
	if p != nil {
		data = p.Normalize()
	}
	e, err := Record(ctx, r.DB, RecordInput{Data: data, Result: res})
	if err != nil {
		if r.Logger != nil {
			r.Logger.Warn("failed to record share event", zap.Error(err))
		}
		return res, nil
	}
	return res, e
}
