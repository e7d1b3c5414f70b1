package db

import (
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/hpungsan/handoff/internal/errors"
	"github.com/hpungsan/handoff/internal/history"
)

// ListFilter narrows ListEvents. Zero values match everything.
type ListFilter struct {
	Platform string
	// OK filters by outcome when non-nil.
	OK *bool
}

const eventColumns = `id, method, ok, error_code, error_message, url, title, platform, created_at`

// InsertEvent stores a share event.
func InsertEvent(db *sql.DB, e *history.Event) error {
	query := `INSERT INTO share_events (` + eventColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.Exec(query,
		e.ID, toNullString(e.Method), boolToInt(e.OK),
		toNullString(e.ErrorCode), toNullString(e.ErrorMessage),
		toNullString(e.URL), toNullString(e.Title),
		e.Platform, e.CreatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetEventByID retrieves a share event by its ULID.
func GetEventByID(db *sql.DB, id string) (*history.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM share_events WHERE id = ?`

	e, err := scanEvent(db.QueryRow(query, id))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound(id)
		}
		return nil, errors.NewInternal(err)
	}
	return e, nil
}

// ListEvents returns events newest first, plus the total matching count.
func ListEvents(db *sql.DB, filter ListFilter, limit, offset int) ([]history.Event, int, error) {
	where := ` WHERE 1=1`
	var args []any
	if filter.Platform != "" {
		where += ` AND platform = ?`
		args = append(args, filter.Platform)
	}
	if filter.OK != nil {
		where += ` AND ok = ?`
		args = append(args, boolToInt(*filter.OK))
	}

	var total int
	if err := db.QueryRow(`SELECT COUNT(*) FROM share_events`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `SELECT ` + eventColumns + ` FROM share_events` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := db.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var events []history.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	return events, total, nil
}

// PurgeEvents permanently deletes events. With olderThanDays set, only events
// created more than that many days ago are removed.
func PurgeEvents(db *sql.DB, olderThanDays *int) (int, error) {
	query := `DELETE FROM share_events`
	var args []any
	if olderThanDays != nil {
		cutoff := time.Now().Add(-time.Duration(*olderThanDays) * 24 * time.Hour).Unix()
		query += ` WHERE created_at < ?`
		args = append(args, cutoff)
	}

	result, err := db.Exec(query, args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanEvent scans a single row into an Event.
func scanEvent(row scanner) (*history.Event, error) {
	var (
		e            history.Event
		method       sql.NullString
		ok           int
		errorCode    sql.NullString
		errorMessage sql.NullString
		url          sql.NullString
		title        sql.NullString
	)

	err := row.Scan(
		&e.ID, &method, &ok, &errorCode, &errorMessage,
		&url, &title, &e.Platform, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Method = method.String
	e.OK = ok != 0
	e.ErrorCode = errorCode.String
	e.ErrorMessage = errorMessage.String
	e.URL = url.String
	e.Title = title.String

	return &e, nil
}

// toNullString stores empty strings as NULL.
func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
