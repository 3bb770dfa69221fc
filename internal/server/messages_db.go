package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func createMessage(ctx context.Context, senderID, senderName, body string, teamID *string) (Message, error) {
	m := Message{
		MessageID:  uuid.NewString(),
		SenderID:   senderID,
		SenderName: senderName,
		Body:       body,
		TeamID:     teamID,
		ReadBy:     []string{},
		CreatedAt:  time.Now().UTC(),
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO messages (messageid, sender_id, sender_name, body, teamid, read_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, m.MessageID, m.SenderID, m.SenderName, m.Body, m.TeamID, m.ReadBy, m.CreatedAt)
	return m, err
}

const messageColumns = `messageid, sender_id, sender_name, body, teamid, read_by, created_at`

func scanMessage(row pgx.Row) (*Message, error) {
	var m Message
	if err := row.Scan(
		&m.MessageID,
		&m.SenderID,
		&m.SenderName,
		&m.Body,
		&m.TeamID,
		&m.ReadBy,
		&m.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

// listMessages returns the latest messages of one channel in chronological
// order. teamID nil selects the general channel only; a teamID selects that
// exact team channel only.
func listMessages(ctx context.Context, teamID *string, limit int) ([]Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	q := `SELECT ` + messageColumns + ` FROM messages WHERE teamid IS NULL ORDER BY created_at DESC LIMIT $1`
	args := []any{limit}
	if teamID != nil {
		q = `SELECT ` + messageColumns + ` FROM messages WHERE teamid = $1 ORDER BY created_at DESC LIMIT $2`
		args = []any{*teamID, limit}
	}

	rows, err := pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Message, 0, limit)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// oldest first for display
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// markMessagesRead adds the reader to each message's read-by set; messages
// already read are left alone, so the call is idempotent.
func markMessagesRead(ctx context.Context, userID string, messageIDs []string) error {
	_, err := pool.Exec(ctx, `
		UPDATE messages
		SET read_by = array_append(read_by, $1)
		WHERE messageid = ANY($2) AND NOT ($1 = ANY(read_by))
	`, userID, messageIDs)
	return err
}

// countUnread counts messages visible to the user (general channel plus the
// team channels they belong to) that they have not read and did not send.
// Messages of deleted teams drop out of visibility here instead of erroring.
func countUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM messages m
		WHERE m.sender_id <> $1
		  AND NOT ($1 = ANY(m.read_by))
		  AND (
		        m.teamid IS NULL
		        OR m.teamid IN (
		            SELECT teamid FROM teams WHERE created_by = $1 OR $1 = ANY(members)
		        )
		  )
	`, userID).Scan(&n)
	return n, err
}
