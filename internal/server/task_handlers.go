package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"kyri56xcaesar/teamboard/internal/authmw"
	"kyri56xcaesar/teamboard/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

func handleTaskList(c *gin.Context) {
	p, ok := fetchProject(c)
	if !ok {
		return
	}
	if !canReadProject(c.GetString(authmw.CtxUserID), p) {
		respondErr(c, errForbidden())
		return
	}

	tasks, err := listTasksByProject(c.Request.Context(), p.ProjectID)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondList(c, http.StatusOK, tasks, len(tasks))
}

func handleTaskCreate(c *gin.Context) {
	p, ok := fetchProject(c)
	if !ok {
		return
	}
	if !canManageProject(c.GetString(authmw.CtxUserID), p) {
		respondErr(c, errForbidden())
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		respondErr(c, errValidation("invalid input"))
		return
	}

	initialPhase := strings.TrimSpace(req.Phase)
	if initialPhase == "" {
		initialPhase = firstPhase(p.Phases)
	}

	t := newTask(p.ProjectID, c.GetString(authmw.CtxUserID), initialPhase, req)
	if err := insertTask(c.Request.Context(), t); err != nil {
		respondErr(c, err)
		return
	}

	hub.BroadcastRoom(realtime.ProjectRoom(p.ProjectID), realtime.Event{
		Type:    realtime.EventTaskCreated,
		Payload: gin.H{"task": t},
	})

	respondData(c, http.StatusCreated, t)
}

// fetchTask loads the task addressed by the route and verifies it belongs to
// the project in the path; a task reached through the wrong project is a 404,
// not a leak.
func fetchTask(c *gin.Context) (*Task, bool) {
	t, err := getTask(c.Request.Context(), c.Param("taskid"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondErr(c, errNotFound("task"))
			return nil, false
		}
		respondErr(c, err)
		return nil, false
	}
	if t.ProjectID != c.Param("projectid") {
		respondErr(c, errNotFound("task"))
		return nil, false
	}
	return t, true
}

func handleTaskGet(c *gin.Context) {
	t, ok := fetchTask(c)
	if !ok {
		return
	}

	p, err := getProject(c.Request.Context(), t.ProjectID)
	if err != nil {
		respondErr(c, err)
		return
	}
	if !canReadProject(c.GetString(authmw.CtxUserID), p) {
		respondErr(c, errForbidden())
		return
	}

	respondData(c, http.StatusOK, t)
}

// handleTaskMove runs the phase engine: backfill the previous history entry's
// duration, append the new entry, derive status, persist, then broadcast.
// The event goes out only after the update committed.
func handleTaskMove(c *gin.Context) {
	t, ok := fetchTask(c)
	if !ok {
		return
	}

	var req MoveTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		respondErr(c, errValidation("toPhase is required"))
		return
	}

	userID := c.GetString(authmw.CtxUserID)
	prevLen, err := applyMove(t, userID, req.ToPhase, req.Notes, time.Now().UTC())
	if err != nil {
		respondErr(c, err)
		return
	}

	if err := persistTaskMove(c.Request.Context(), t, prevLen); err != nil {
		respondErr(c, err)
		return
	}

	hub.BroadcastRoom(realtime.ProjectRoom(t.ProjectID), realtime.Event{
		Type: realtime.EventTaskMoved,
		Payload: gin.H{
			"task":    t,
			"movedBy": c.GetString(authmw.CtxUsername),
		},
	})

	respondData(c, http.StatusOK, t)
}

func handleTaskUpdate(c *gin.Context) {
	t, ok := fetchTask(c)
	if !ok {
		return
	}
	if !canEditTask(c.GetString(authmw.CtxUserID), t) {
		respondErr(c, errForbidden())
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		respondErr(c, errValidation("invalid input"))
		return
	}

	if err := updateTaskFields(c.Request.Context(), t.TaskID, req); err != nil {
		if strings.Contains(err.Error(), "no fields") {
			respondErr(c, errValidation("provide fields to update"))
			return
		}
		respondErr(c, err)
		return
	}

	updated, err := getTask(c.Request.Context(), t.TaskID)
	if err != nil {
		respondErr(c, err)
		return
	}

	hub.BroadcastRoom(realtime.ProjectRoom(t.ProjectID), realtime.Event{
		Type:    realtime.EventTaskUpdated,
		Payload: gin.H{"task": updated},
	})

	respondData(c, http.StatusOK, updated)
}

func handleTaskDelete(c *gin.Context) {
	t, ok := fetchTask(c)
	if !ok {
		return
	}
	if !canEditTask(c.GetString(authmw.CtxUserID), t) {
		respondErr(c, errForbidden())
		return
	}

	if err := deleteTask(c.Request.Context(), t.TaskID); err != nil {
		respondErr(c, err)
		return
	}

	hub.BroadcastRoom(realtime.ProjectRoom(t.ProjectID), realtime.Event{
		Type:    realtime.EventTaskDeleted,
		Payload: gin.H{"taskId": t.TaskID, "projectId": t.ProjectID},
	})

	respondData(c, http.StatusOK, gin.H{"deleted": t.TaskID})
}
