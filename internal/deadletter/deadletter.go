// Package deadletter keeps uplinks that could not be formatted so they can
// be inspected later.
package deadletter

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lorasense/internal/frame"
)

type DeadLetter struct {
	ID         string    `json:"id"`
	ReceivedAt time.Time `json:"receivedAt"`
	Topic      string    `json:"topic"`
	Device     string    `json:"device"`
	RawPayload string    `json:"rawPayload"`
	Reason     string    `json:"reason"`
	Error      string    `json:"error"`
	// Offset is the hex character position where decoding stopped, -1 when
	// the failure happened before the frame was read.
	Offset int `json:"offset"`
}

type Repository interface {
	Record(ctx context.Context, d DeadLetter) (DeadLetter, error)
	Latest(ctx context.Context, limit int) ([]DeadLetter, error)
	CountByReason(ctx context.Context) (map[string]int, error)
}

//go:embed sql/insert-dead-letter.sql
var insertSQL string

//go:embed sql/get-latest.sql
var latestSQL string

//go:embed sql/count-by-reason.sql
var countByReasonSQL string

// receivedAtLayout is fixed width so received_at sorts as text.
const receivedAtLayout = "2006-01-02T15:04:05.000000000Z"

type repositoryImpl struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(db *sql.DB) Repository {
	return &repositoryImpl{db: db, now: time.Now}
}

// FromError fills the reason and offset of d from a decode failure.
func FromError(d DeadLetter, err error) DeadLetter {
	d.Error = err.Error()
	d.Reason = frame.Reason(err)
	d.Offset = -1
	var fe *frame.Error
	if errors.As(err, &fe) {
		d.Offset = fe.Offset
	}
	return d
}

// Record stores d. ID and ReceivedAt are assigned when empty.
func (r *repositoryImpl) Record(ctx context.Context, d DeadLetter) (DeadLetter, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.ReceivedAt.IsZero() {
		d.ReceivedAt = r.now()
	}
	if d.Reason == "" {
		d.Reason = "other"
	}
	_, err := r.db.ExecContext(ctx, insertSQL,
		d.ID,
		d.ReceivedAt.UTC().Format(receivedAtLayout),
		d.Topic,
		d.Device,
		d.RawPayload,
		d.Reason,
		d.Error,
		d.Offset,
	)
	if err != nil {
		return DeadLetter{}, fmt.Errorf("insert dead letter: %w", err)
	}
	return d, nil
}

func (r *repositoryImpl) Latest(ctx context.Context, limit int) ([]DeadLetter, error) {
	rows, err := r.db.QueryContext(ctx, latestSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close dead letter rows", "error", err)
		}
	}()

	out := []DeadLetter{}
	for rows.Next() {
		var d DeadLetter
		var ts string
		if err := rows.Scan(&d.ID, &ts, &d.Topic, &d.Device, &d.RawPayload, &d.Reason, &d.Error, &d.Offset); err != nil {
			return nil, err
		}
		d.ReceivedAt, err = time.Parse(receivedAtLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parse received_at %q: %w", ts, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) CountByReason(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, countByReasonSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close dead letter count rows", "error", err)
		}
	}()

	out := make(map[string]int)
	for rows.Next() {
		var reason string
		var n int
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, err
		}
		out[reason] = n
	}
	return out, rows.Err()
}
