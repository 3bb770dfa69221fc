package server

import (
	"strings"
	"time"
)

// Phase names with derived-status side effects, and the status values they force.
const (
	phaseDone       = "Done"
	phaseInProgress = "In Progress"

	statusPending    = "pending"
	statusInProgress = "in-progress"
	statusCompleted  = "completed"
)

// seedHistory is the single entry every task's history starts with.
func seedHistory(phase, creatorID string, now time.Time) []PhaseHistoryEntry {
	return []PhaseHistoryEntry{{
		Phase:   phase,
		MovedBy: creatorID,
		MovedAt: now,
		Notes:   "Task created",
	}}
}

// applyMove advances the task to toPhase in memory:
//
//  1. backfill the previous entry's duration with the floor minutes since it
//     was entered, the only mutation history ever sees
//  2. append the new entry
//  3. set the current phase and the derived status/completion stamp
//
// toPhase is deliberately not validated against the project's phase list;
// any non-empty name is accepted. Returns the history length observed before
// the move, used as the optimistic guard when persisting.
func applyMove(t *Task, requesterID, toPhase, notes string, now time.Time) (int, error) {
	if !canMoveTask(requesterID, t) {
		return 0, errForbidden()
	}
	toPhase = strings.TrimSpace(toPhase)
	if toPhase == "" {
		return 0, errValidation("toPhase is required")
	}

	// the seed entry guarantees the history is never empty
	prevLen := len(t.PhaseHistory)
	last := &t.PhaseHistory[prevLen-1]
	minutes := int(now.Sub(last.MovedAt).Minutes())
	if minutes < 0 {
		minutes = 0
	}
	last.Duration = &minutes

	t.PhaseHistory = append(t.PhaseHistory, PhaseHistoryEntry{
		Phase:   toPhase,
		MovedBy: requesterID,
		MovedAt: now,
		Notes:   notes,
	})
	t.CurrentPhase = toPhase

	switch toPhase {
	case phaseDone:
		t.Status = statusCompleted
		completed := now
		t.CompletedAt = &completed
	case phaseInProgress:
		t.Status = statusInProgress
	}

	return prevLen, nil
}
