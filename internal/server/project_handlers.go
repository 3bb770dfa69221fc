package server

import (
	"errors"
	"net/http"
	"strings"

	"kyri56xcaesar/teamboard/internal/authmw"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

func handleProjectList(c *gin.Context) {
	userID := c.GetString(authmw.CtxUserID)

	projects, err := listProjectsForUser(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondList(c, http.StatusOK, projects, len(projects))
}

func handleProjectCreate(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBind(&req); err != nil {
		respondErr(c, errValidation("invalid input"))
		return
	}

	userID := c.GetString(authmw.CtxUserID)
	p, err := createProject(c.Request.Context(), userID, req)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondData(c, http.StatusCreated, p)
}

func fetchProject(c *gin.Context) (*Project, bool) {
	p, err := getProject(c.Request.Context(), c.Param("projectid"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondErr(c, errNotFound("project"))
			return nil, false
		}
		respondErr(c, err)
		return nil, false
	}
	return p, true
}

func handleProjectGet(c *gin.Context) {
	p, ok := fetchProject(c)
	if !ok {
		return
	}
	if !canReadProject(c.GetString(authmw.CtxUserID), p) {
		respondErr(c, errForbidden())
		return
	}
	respondData(c, http.StatusOK, p)
}

func handleProjectUpdate(c *gin.Context) {
	p, ok := fetchProject(c)
	if !ok {
		return
	}
	if !canManageProject(c.GetString(authmw.CtxUserID), p) {
		respondErr(c, errForbidden())
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBind(&req); err != nil {
		respondErr(c, errValidation("invalid input"))
		return
	}

	if err := updateProject(c.Request.Context(), p.ProjectID, req); err != nil {
		if strings.Contains(err.Error(), "no fields") {
			respondErr(c, errValidation("provide fields to update"))
			return
		}
		respondErr(c, err)
		return
	}

	updated, err := getProject(c.Request.Context(), p.ProjectID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, updated)
}

func handleProjectDelete(c *gin.Context) {
	p, ok := fetchProject(c)
	if !ok {
		return
	}
	if !canManageProject(c.GetString(authmw.CtxUserID), p) {
		respondErr(c, errForbidden())
		return
	}

	// tasks go with their project
	if err := deleteProjectCascade(c.Request.Context(), p.ProjectID); err != nil {
		respondErr(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"deleted": p.ProjectID})
}
