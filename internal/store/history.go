package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/zaloga/internal/model"
)

// recordEvent appends a history entry. It runs inside the caller's
// transaction so the entry commits together with the change it describes.
func recordEvent(ctx context.Context, q querier, itemID int64, from *model.ItemStatus, to model.ItemStatus, fromUser, toUser, actor *int64, note string) error {
	var fromArg any
	if from != nil {
		fromArg = string(*from)
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO item_events (item_id, from_status, to_status, from_user_id, to_user_id, actor_id, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		itemID, fromArg, string(to), fromUser, toUser, actor, nullString(note),
	)
	if err != nil {
		return fmt.Errorf("recording item event: %w", err)
	}
	return nil
}

// GetItemHistory returns the custody and status history of an item, newest first.
func GetItemHistory(ctx context.Context, db *sql.DB, itemID int64) ([]model.ItemEvent, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, from_status, to_status, from_user_id, to_user_id, actor_id, note, created_at
		 FROM item_events
		 WHERE item_id = ?
		 ORDER BY created_at DESC, id DESC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting item history: %w", err)
	}
	defer rows.Close()

	var events []model.ItemEvent
	for rows.Next() {
		var e model.ItemEvent
		var from, note sql.NullString
		var to string
		if err := rows.Scan(&e.ID, &e.ItemID, &from, &to, &e.FromUserID, &e.ToUserID, &e.ActorID, &note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning item event: %w", err)
		}
		if from.Valid {
			s := model.ItemStatus(from.String)
			e.FromStatus = &s
		}
		e.ToStatus = model.ItemStatus(to)
		e.Note = note.String
		events = append(events, e)
	}
	return events, rows.Err()
}
