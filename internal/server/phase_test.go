package server

import (
	"errors"
	"testing"
	"time"
)

func newBoardTask(creator string, assigned []string, createdAt time.Time) *Task {
	return &Task{
		TaskID:       "t-1",
		ProjectID:    "p-1",
		Title:        "wire the login page",
		CreatedBy:    creator,
		AssignedTo:   assigned,
		CurrentPhase: "Backlog",
		PhaseHistory: seedHistory("Backlog", creator, createdAt),
		Status:       statusPending,
		Priority:     "medium",
	}
}

func TestSeedHistory(t *testing.T) {
	now := time.Now()
	h := seedHistory("Backlog", "u-c", now)
	if len(h) != 1 {
		t.Fatalf("seed history length = %d", len(h))
	}
	if h[0].Phase != "Backlog" || h[0].MovedBy != "u-c" || h[0].Notes != "Task created" {
		t.Fatalf("seed entry = %+v", h[0])
	}
	if h[0].Duration != nil {
		t.Fatal("seed entry must not have a duration")
	}
}

func TestApplyMoveAppendsAndBackfills(t *testing.T) {
	created := time.Now().Add(-90 * time.Minute)
	task := newBoardTask("u-c", []string{"u-a"}, created)

	moveAt := created.Add(61 * time.Minute)
	prevLen, err := applyMove(task, "u-a", "In Progress", "picking this up", moveAt)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if prevLen != 1 {
		t.Fatalf("prevLen = %d, want 1", prevLen)
	}
	if len(task.PhaseHistory) != 2 {
		t.Fatalf("history length = %d, want 2", len(task.PhaseHistory))
	}

	first := task.PhaseHistory[0]
	if first.Duration == nil || *first.Duration != 61 {
		t.Fatalf("backfilled duration = %v, want 61", first.Duration)
	}

	last := task.PhaseHistory[1]
	if last.Phase != "In Progress" || last.MovedBy != "u-a" || last.Notes != "picking this up" {
		t.Fatalf("appended entry = %+v", last)
	}
	if last.Duration != nil {
		t.Fatal("latest entry must not have a duration yet")
	}
	if task.CurrentPhase != "In Progress" || task.Status != statusInProgress {
		t.Fatalf("phase/status = %q/%q", task.CurrentPhase, task.Status)
	}
}

func TestApplyMoveDurationFloorsToMinutes(t *testing.T) {
	created := time.Now()
	task := newBoardTask("u-c", []string{"u-a"}, created)

	if _, err := applyMove(task, "u-a", "Review", "", created.Add(119*time.Second)); err != nil {
		t.Fatalf("move: %v", err)
	}
	if d := task.PhaseHistory[0].Duration; d == nil || *d != 1 {
		t.Fatalf("duration = %v, want 1", d)
	}
}

func TestApplyMoveDoneForcesCompletion(t *testing.T) {
	created := time.Now().Add(-time.Hour)
	task := newBoardTask("u-c", []string{"u-a"}, created)

	moveAt := time.Now()
	if _, err := applyMove(task, "u-a", "Done", "", moveAt); err != nil {
		t.Fatalf("move: %v", err)
	}
	if task.Status != statusCompleted {
		t.Fatalf("status = %q, want %q", task.Status, statusCompleted)
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(moveAt) {
		t.Fatalf("completedAt = %v, want %v", task.CompletedAt, moveAt)
	}
}

func TestApplyMoveOtherPhaseKeepsStatus(t *testing.T) {
	created := time.Now().Add(-time.Hour)
	task := newBoardTask("u-c", []string{"u-a"}, created)
	task.Status = "blocked"

	if _, err := applyMove(task, "u-a", "Review", "", time.Now()); err != nil {
		t.Fatalf("move: %v", err)
	}
	if task.Status != "blocked" {
		t.Fatalf("status = %q, want blocked untouched", task.Status)
	}
	if task.CompletedAt != nil {
		t.Fatal("completedAt must stay unset")
	}
}

func TestApplyMoveUnknownPhaseNameIsAccepted(t *testing.T) {
	// ad hoc phase names are allowed on purpose
	task := newBoardTask("u-c", []string{"u-a"}, time.Now())
	if _, err := applyMove(task, "u-a", "Waiting on vendor", "", time.Now()); err != nil {
		t.Fatalf("move: %v", err)
	}
	if task.CurrentPhase != "Waiting on vendor" {
		t.Fatalf("currentPhase = %q", task.CurrentPhase)
	}
}

func TestApplyMoveForbiddenForNonAssignee(t *testing.T) {
	task := newBoardTask("u-c", []string{"u-a"}, time.Now().Add(-time.Hour))

	// the creator is not automatically an assignee either
	for _, requester := range []string{"u-v", "u-c"} {
		_, err := applyMove(task, requester, "Done", "", time.Now())
		var apiErr *apiError
		if !errors.As(err, &apiErr) || apiErr.status != 403 {
			t.Fatalf("requester %s: err = %v, want 403", requester, err)
		}
	}
	// and the task is untouched
	if len(task.PhaseHistory) != 1 || task.CurrentPhase != "Backlog" || task.Status != statusPending {
		t.Fatalf("task mutated by denied move: %+v", task)
	}
}

func TestApplyMoveEmptyPhaseIsValidationError(t *testing.T) {
	task := newBoardTask("u-c", []string{"u-a"}, time.Now())
	_, err := applyMove(task, "u-a", "   ", "", time.Now())
	var apiErr *apiError
	if !errors.As(err, &apiErr) || apiErr.status != 400 {
		t.Fatalf("err = %v, want 400", err)
	}
	if len(task.PhaseHistory) != 1 {
		t.Fatal("history mutated by rejected move")
	}
}

// Full lifecycle: N moves yield N+1 entries and only the superseded entries
// carry durations.
func TestPhaseHistoryAccounting(t *testing.T) {
	created := time.Now().Add(-3 * time.Hour)
	task := newBoardTask("u-c", []string{"u-a"}, created)

	moves := []string{"In Progress", "Review", "Testing", "Done"}
	at := created
	for _, phase := range moves {
		at = at.Add(30 * time.Minute)
		if _, err := applyMove(task, "u-a", phase, "", at); err != nil {
			t.Fatalf("move to %s: %v", phase, err)
		}
	}

	if len(task.PhaseHistory) != len(moves)+1 {
		t.Fatalf("history length = %d, want %d", len(task.PhaseHistory), len(moves)+1)
	}
	for i, entry := range task.PhaseHistory {
		if i < len(moves) {
			if entry.Duration == nil {
				t.Fatalf("entry %d missing duration", i)
			}
			if *entry.Duration < 0 {
				t.Fatalf("entry %d duration negative", i)
			}
		} else if entry.Duration != nil {
			t.Fatalf("final entry has duration %d", *entry.Duration)
		}
	}
	if task.Status != statusCompleted || task.CompletedAt == nil {
		t.Fatalf("status/completedAt = %q/%v", task.Status, task.CompletedAt)
	}
}
