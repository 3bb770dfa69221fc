package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- users ---

func createUser(ctx context.Context, username, passwordHash string) (User, error) {
	u := User{
		UserID:       uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := pool.Exec(ctx, `
		INSERT INTO users (userid, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`, u.UserID, u.Username, u.PasswordHash, u.CreatedAt)
	return u, err
}

func usernameTaken(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
        SELECT EXISTS(
            SELECT 1 FROM users WHERE username = $1
        )
    `, username).Scan(&exists)
	return exists, err
}

const userColumns = `userid, username, password_hash, is_online, last_seen, connection_id, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(
		&u.UserID,
		&u.Username,
		&u.PasswordHash,
		&u.IsOnline,
		&u.LastSeen,
		&u.ConnectionID,
		&u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

func getUserByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func getUserByID(ctx context.Context, userID string) (*User, error) {
	return scanUser(pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE userid = $1`, userID))
}

func listUsers(ctx context.Context, onlineOnly bool) ([]User, error) {
	q := `SELECT ` + userColumns + ` FROM users ORDER BY username ASC`
	if onlineOnly {
		q = `SELECT ` + userColumns + ` FROM users WHERE is_online ORDER BY username ASC`
	}

	rows, err := pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]User, 0, 32)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// --- presence store, plugged into realtime.Tracker ---

// presenceStore persists presence on the user record. The tracker owns the
// connection→user mapping; this only mirrors the outcome into storage.
type presenceStore struct{}

func (presenceStore) SetOnline(ctx context.Context, userID, connID string, at time.Time) error {
	ct, err := pool.Exec(ctx, `
		UPDATE users
		SET is_online = TRUE, last_seen = $2, connection_id = $3
		WHERE userid = $1
	`, userID, at, connID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (presenceStore) SetOffline(ctx context.Context, userID string, at time.Time) error {
	ct, err := pool.Exec(ctx, `
		UPDATE users
		SET is_online = FALSE, last_seen = $2, connection_id = NULL
		WHERE userid = $1
	`, userID, at)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
