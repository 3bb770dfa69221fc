package server

import (
	"errors"
	"net/http"
	"strings"

	"kyri56xcaesar/teamboard/internal/authmw"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

func handleTodoList(c *gin.Context) {
	userID := c.GetString(authmw.CtxUserID)

	todos, err := listTodosForUser(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondList(c, http.StatusOK, todos, len(todos))
}

func handleTodoCreate(c *gin.Context) {
	var req CreateTodoRequest
	if err := c.ShouldBind(&req); err != nil {
		respondErr(c, errValidation("invalid input"))
		return
	}

	userID := c.GetString(authmw.CtxUserID)
	td, err := createTodo(c.Request.Context(), userID, req)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondData(c, http.StatusCreated, td)
}

// fetchTodoForRead loads the todo and applies the read predicate.
func fetchTodoForRead(c *gin.Context) (*Todo, bool) {
	td, err := getTodo(c.Request.Context(), c.Param("todoid"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondErr(c, errNotFound("todo"))
			return nil, false
		}
		respondErr(c, err)
		return nil, false
	}

	if !canReadTodo(c.GetString(authmw.CtxUserID), td) {
		respondErr(c, errForbidden())
		return nil, false
	}
	return td, true
}

func handleTodoGet(c *gin.Context) {
	td, ok := fetchTodoForRead(c)
	if !ok {
		return
	}
	respondData(c, http.StatusOK, td)
}

func handleTodoUpdate(c *gin.Context) {
	td, ok := fetchTodoForRead(c)
	if !ok {
		return
	}
	if !canWriteTodo(c.GetString(authmw.CtxUserID), td) {
		respondErr(c, errForbidden())
		return
	}

	var req UpdateTodoRequest
	if err := c.ShouldBind(&req); err != nil {
		respondErr(c, errValidation("invalid input"))
		return
	}

	if err := updateTodo(c.Request.Context(), td.TodoID, req); err != nil {
		if strings.Contains(err.Error(), "no fields") {
			respondErr(c, errValidation("provide fields to update"))
			return
		}
		respondErr(c, err)
		return
	}

	updated, err := getTodo(c.Request.Context(), td.TodoID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, updated)
}

func handleTodoDelete(c *gin.Context) {
	td, ok := fetchTodoForRead(c)
	if !ok {
		return
	}
	if !canWriteTodo(c.GetString(authmw.CtxUserID), td) {
		respondErr(c, errForbidden())
		return
	}

	if err := deleteTodo(c.Request.Context(), td.TodoID); err != nil {
		respondErr(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"deleted": td.TodoID})
}
