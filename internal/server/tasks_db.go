package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// errMoveConflict reports that the optimistic history-length guard failed: a
// concurrent move won the race. The whole operation fails, nothing is emitted.
var errMoveConflict = errors.New("task was moved concurrently")

func newTask(projectID, creatorID, initialPhase string, req CreateTaskRequest) Task {
	priority := req.Priority
	if priority == "" {
		priority = "medium"
	}

	now := time.Now().UTC()
	t := Task{
		TaskID:         uuid.NewString(),
		ProjectID:      projectID,
		Title:          req.Title,
		Description:    req.Description,
		CreatedBy:      creatorID,
		AssignedTo:     req.AssignedTo,
		CurrentPhase:   initialPhase,
		PhaseHistory:   seedHistory(initialPhase, creatorID, now),
		EstimatedHours: req.EstimatedHours,
		StoryPoints:    req.StoryPoints,
		Priority:       priority,
		Status:         statusPending,
		Tags:           req.Tags,
		Attachments:    []Attachment{},
		Comments:       []TaskComment{},
		CreatedAt:      now,
	}
	if t.AssignedTo == nil {
		t.AssignedTo = []string{}
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return t
}

func insertTask(ctx context.Context, t Task) error {
	historyJSON, err := json.Marshal(t.PhaseHistory)
	if err != nil {
		return err
	}
	attachmentsJSON, err := json.Marshal(t.Attachments)
	if err != nil {
		return err
	}
	commentsJSON, err := json.Marshal(t.Comments)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO tasks (taskid, projectid, title, description, created_by, assigned_to,
		                   current_phase, phase_history, estimated_hours, story_points,
		                   priority, status, tags, attachments, comments, completed_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8::jsonb,$9,$10,$11,$12,$13,$14::jsonb,$15::jsonb,$16,$17)
	`, t.TaskID, t.ProjectID, t.Title, t.Description, t.CreatedBy, t.AssignedTo,
		t.CurrentPhase, string(historyJSON), t.EstimatedHours, t.StoryPoints,
		t.Priority, t.Status, t.Tags, string(attachmentsJSON), string(commentsJSON), t.CompletedAt, t.CreatedAt)
	return err
}

const taskColumns = `taskid, projectid, title, COALESCE(description,''), created_by, assigned_to,
       current_phase, phase_history, estimated_hours, story_points,
       priority, status, tags, attachments, comments, completed_at, created_at`

func scanTask(row pgx.Row) (*Task, error) {
	var (
		t               Task
		historyJSON     []byte
		attachmentsJSON []byte
		commentsJSON    []byte
	)
	if err := row.Scan(
		&t.TaskID,
		&t.ProjectID,
		&t.Title,
		&t.Description,
		&t.CreatedBy,
		&t.AssignedTo,
		&t.CurrentPhase,
		&historyJSON,
		&t.EstimatedHours,
		&t.StoryPoints,
		&t.Priority,
		&t.Status,
		&t.Tags,
		&attachmentsJSON,
		&commentsJSON,
		&t.CompletedAt,
		&t.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(historyJSON, &t.PhaseHistory); err != nil {
		return nil, fmt.Errorf("unmarshal phase_history: %w", err)
	}
	if err := json.Unmarshal(attachmentsJSON, &t.Attachments); err != nil {
		return nil, fmt.Errorf("unmarshal attachments: %w", err)
	}
	if err := json.Unmarshal(commentsJSON, &t.Comments); err != nil {
		return nil, fmt.Errorf("unmarshal comments: %w", err)
	}
	return &t, nil
}

func getTask(ctx context.Context, taskID string) (*Task, error) {
	return scanTask(pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE taskid = $1`, taskID))
}

func listTasksByProject(ctx context.Context, projectID string) ([]Task, error) {
	rows, err := pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE projectid = $1
		ORDER BY created_at ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Task, 0, 20)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func updateTaskFields(ctx context.Context, taskID string, req UpdateTaskRequest) error {
	sets := make([]string, 0, 8)
	args := make([]any, 0, 9)
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
	if req.AssignedTo != nil {
		sets = append(sets, fmt.Sprintf("assigned_to = $%d", i))
		args = append(args, *req.AssignedTo)
		i++
	}
	if req.EstimatedHours != nil {
		sets = append(sets, fmt.Sprintf("estimated_hours = $%d", i))
		args = append(args, *req.EstimatedHours)
		i++
	}
	if req.StoryPoints != nil {
		sets = append(sets, fmt.Sprintf("story_points = $%d", i))
		args = append(args, *req.StoryPoints)
		i++
	}
	if req.Priority != nil {
		sets = append(sets, fmt.Sprintf("priority = $%d", i))
		args = append(args, *req.Priority)
		i++
	}
	if req.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", i))
		args = append(args, *req.Status)
		i++
	}
	if req.Tags != nil {
		sets = append(sets, fmt.Sprintf("tags = $%d", i))
		args = append(args, *req.Tags)
		i++
	}

	if len(sets) == 0 {
		return fmt.Errorf("no fields to update")
	}

	args = append(args, taskID)
	q := fmt.Sprintf("UPDATE tasks SET %s WHERE taskid = $%d", strings.Join(sets, ", "), i)

	ct, err := pool.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// persistTaskMove writes the outcome of applyMove in a single statement.
// The history-length guard makes the read-modify-write safe under concurrent
// movers of the same task: the loser's update matches zero rows.
func persistTaskMove(ctx context.Context, t *Task, expectedHistoryLen int) error {
	historyJSON, err := json.Marshal(t.PhaseHistory)
	if err != nil {
		return err
	}

	ct, err := pool.Exec(ctx, `
		UPDATE tasks
		SET current_phase = $2, status = $3, completed_at = $4, phase_history = $5::jsonb
		WHERE taskid = $1 AND jsonb_array_length(phase_history) = $6
	`, t.TaskID, t.CurrentPhase, t.Status, t.CompletedAt, string(historyJSON), expectedHistoryLen)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errMoveConflict
	}
	return nil
}

func deleteTask(ctx context.Context, taskID string) error {
	ct, err := pool.Exec(ctx, `DELETE FROM tasks WHERE taskid = $1`, taskID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
