package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func createTodo(ctx context.Context, creatorID string, req CreateTodoRequest) (Todo, error) {
	priority := req.Priority
	if priority == "" {
		priority = "medium"
	}

	td := Todo{
		TodoID:      uuid.NewString(),
		CreatedBy:   creatorID,
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		Priority:    priority,
		AssignedTo:  req.AssignedTo,
		CreatedAt:   time.Now().UTC(),
	}
	if td.AssignedTo == nil {
		td.AssignedTo = []string{}
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO todos (todoid, created_by, title, description, completed, deadline, priority, assigned_to, created_at)
		VALUES ($1,$2,$3,$4,FALSE,$5,$6,$7,$8)
	`, td.TodoID, td.CreatedBy, td.Title, td.Description, td.Deadline, td.Priority, td.AssignedTo, td.CreatedAt)
	return td, err
}

const todoColumns = `todoid, created_by, title, COALESCE(description,''), completed, deadline, priority, assigned_to, created_at`

func scanTodo(row pgx.Row) (*Todo, error) {
	var td Todo
	if err := row.Scan(
		&td.TodoID,
		&td.CreatedBy,
		&td.Title,
		&td.Description,
		&td.Completed,
		&td.Deadline,
		&td.Priority,
		&td.AssignedTo,
		&td.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &td, nil
}

func getTodo(ctx context.Context, todoID string) (*Todo, error) {
	return scanTodo(pool.QueryRow(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE todoid = $1`, todoID))
}

// listTodosForUser returns todos the user created or is assigned to.
func listTodosForUser(ctx context.Context, userID string) ([]Todo, error) {
	rows, err := pool.Query(ctx, `
		SELECT `+todoColumns+`
		FROM todos
		WHERE created_by = $1 OR $1 = ANY(assigned_to)
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Todo, 0, 20)
	for rows.Next() {
		td, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *td)
	}
	return out, rows.Err()
}

func updateTodo(ctx context.Context, todoID string, req UpdateTodoRequest) error {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)
	i := 1

	if req.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", i))
		args = append(args, *req.Title)
		i++
	}
	if req.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", i))
		args = append(args, *req.Description)
		i++
	}
	if req.Completed != nil {
		sets = append(sets, fmt.Sprintf("completed = $%d", i))
		args = append(args, *req.Completed)
		i++
	}
	if req.Deadline != nil {
		sets = append(sets, fmt.Sprintf("deadline = $%d", i))
		args = append(args, *req.Deadline)
		i++
	}
	if req.Priority != nil {
		sets = append(sets, fmt.Sprintf("priority = $%d", i))
		args = append(args, *req.Priority)
		i++
	}
	if req.AssignedTo != nil {
		sets = append(sets, fmt.Sprintf("assigned_to = $%d", i))
		args = append(args, *req.AssignedTo)
		i++
	}

	if len(sets) == 0 {
		return fmt.Errorf("no fields to update")
	}

	args = append(args, todoID)
	q := fmt.Sprintf("UPDATE todos SET %s WHERE todoid = $%d", strings.Join(sets, ", "), i)

	ct, err := pool.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func deleteTodo(ctx context.Context, todoID string) error {
	ct, err := pool.Exec(ctx, `DELETE FROM todos WHERE todoid = $1`, todoID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
