package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"kyri56xcaesar/teamboard/internal/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func createProject(ctx context.Context, creatorID string, req CreateProjectRequest) (Project, error) {
	phases := req.Phases
	if len(phases) == 0 {
		phases = defaultPhases()
	}
	status := req.Status
	if status == "" {
		status = "active"
	}

	p := Project{
		ProjectID:   uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   creatorID,
		Members:     utils.Uniq(append([]string{creatorID}, req.Members...)),
		Phases:      phases,
		Status:      status,
		Deadline:    req.Deadline,
		CreatedAt:   time.Now().UTC(),
	}

	phasesJSON, err := json.Marshal(p.Phases)
	if err != nil {
		return Project{}, err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO projects (projectid, name, description, created_by, members, phases, status, deadline, created_at)
		VALUES ($1,$2,$3,$4,$5,$6::jsonb,$7,$8,$9)
	`, p.ProjectID, p.Name, p.Description, p.CreatedBy, p.Members, string(phasesJSON), p.Status, p.Deadline, p.CreatedAt)
	return p, err
}

const projectColumns = `projectid, name, COALESCE(description,''), created_by, members, phases, status, deadline, created_at`

func scanProject(row pgx.Row) (*Project, error) {
	var (
		p          Project
		phasesJSON []byte
	)
	if err := row.Scan(
		&p.ProjectID,
		&p.Name,
		&p.Description,
		&p.CreatedBy,
		&p.Members,
		&phasesJSON,
		&p.Status,
		&p.Deadline,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(phasesJSON, &p.Phases); err != nil {
		return nil, fmt.Errorf("unmarshal phases: %w", err)
	}
	return &p, nil
}

func getProject(ctx context.Context, projectID string) (*Project, error) {
	return scanProject(pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE projectid = $1`, projectID))
}

func listProjectsForUser(ctx context.Context, userID string) ([]Project, error) {
	rows, err := pool.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE created_by = $1 OR $1 = ANY(members)
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Project, 0, 10)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func updateProject(ctx context.Context, projectID string, req UpdateProjectRequest) error {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	i := 1

	if req.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", i))
		args = append(args, strings.TrimSpace(*req.Name))
		i++
	}
	if req.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", i))
		args = append(args, *req.Description)
		i++
	}
	if req.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", i))
		args = append(args, *req.Status)
		i++
	}
	if req.Deadline != nil {
		sets = append(sets, fmt.Sprintf("deadline = $%d", i))
		args = append(args, *req.Deadline)
		i++
	}

	if len(sets) == 0 {
		return fmt.Errorf("no fields to update")
	}

	args = append(args, projectID)
	q := fmt.Sprintf("UPDATE projects SET %s WHERE projectid = $%d", strings.Join(sets, ", "), i)

	ct, err := pool.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// deleteProjectCascade removes the project and every task belonging to it in
// one transaction.
func deleteProjectCascade(ctx context.Context, projectID string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE projectid = $1`, projectID); err != nil {
		return err
	}

	ct, err := tx.Exec(ctx, `DELETE FROM projects WHERE projectid = $1`, projectID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}
