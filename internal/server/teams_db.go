package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func createTeam(ctx context.Context, creatorID string, req CreateTeamRequest) (Team, error) {
	t := Team{
		TeamID:      uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   creatorID,
		// the creator is always an implicit member
		Members:   []string{creatorID},
		CreatedAt: time.Now().UTC(),
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO teams (teamid, name, description, created_by, members, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, t.TeamID, t.Name, t.Description, t.CreatedBy, t.Members, t.CreatedAt)
	return t, err
}

const teamColumns = `teamid, name, COALESCE(description,''), created_by, members, created_at`

func scanTeam(row pgx.Row) (*Team, error) {
	var t Team
	if err := row.Scan(
		&t.TeamID,
		&t.Name,
		&t.Description,
		&t.CreatedBy,
		&t.Members,
		&t.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

func getTeam(ctx context.Context, teamID string) (*Team, error) {
	return scanTeam(pool.QueryRow(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE teamid = $1`, teamID))
}

func listTeamsForUser(ctx context.Context, userID string) ([]Team, error) {
	rows, err := pool.Query(ctx, `
		SELECT `+teamColumns+`
		FROM teams
		WHERE created_by = $1 OR $1 = ANY(members)
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Team, 0, 10)
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// updateTeamMembers replaces the member set wholesale; the handler merges and
// dedupes before calling.
func updateTeamMembers(ctx context.Context, teamID string, members []string) error {
	ct, err := pool.Exec(ctx, `
		UPDATE teams SET members = $2 WHERE teamid = $1
	`, teamID, members)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// deleteTeam does not touch messages referencing the team; they stay
// addressable with a dangling team reference.
func deleteTeam(ctx context.Context, teamID string) error {
	ct, err := pool.Exec(ctx, `DELETE FROM teams WHERE teamid = $1`, teamID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
