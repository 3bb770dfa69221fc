package server

import (
	"errors"
	"net/http"

	"kyri56xcaesar/teamboard/internal/authmw"
	"kyri56xcaesar/teamboard/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

func handleTeamList(c *gin.Context) {
	userID := c.GetString(authmw.CtxUserID)

	teams, err := listTeamsForUser(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondList(c, http.StatusOK, teams, len(teams))
}

func handleTeamCreate(c *gin.Context) {
	var req CreateTeamRequest
	if err := c.ShouldBind(&req); err != nil {
		respondErr(c, errValidation("invalid input"))
		return
	}

	userID := c.GetString(authmw.CtxUserID)
	t, err := createTeam(c.Request.Context(), userID, req)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondData(c, http.StatusCreated, t)
}

func fetchTeam(c *gin.Context) (*Team, bool) {
	t, err := getTeam(c.Request.Context(), c.Param("teamid"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondErr(c, errNotFound("team"))
			return nil, false
		}
		respondErr(c, err)
		return nil, false
	}
	return t, true
}

func handleTeamGet(c *gin.Context) {
	t, ok := fetchTeam(c)
	if !ok {
		return
	}
	if !canReadTeam(c.GetString(authmw.CtxUserID), t) {
		respondErr(c, errForbidden())
		return
	}
	respondData(c, http.StatusOK, t)
}

func handleTeamAddMembers(c *gin.Context) {
	t, ok := fetchTeam(c)
	if !ok {
		return
	}
	if !canManageTeam(c.GetString(authmw.CtxUserID), t) {
		respondErr(c, errForbidden())
		return
	}

	var req AddTeamMembersRequest
	if err := c.ShouldBind(&req); err != nil {
		respondErr(c, errValidation("members is required"))
		return
	}

	t.Members = utils.Uniq(append(t.Members, req.Members...))
	if err := updateTeamMembers(c.Request.Context(), t.TeamID, t.Members); err != nil {
		respondErr(c, err)
		return
	}

	respondData(c, http.StatusOK, t)
}

func handleTeamDelete(c *gin.Context) {
	t, ok := fetchTeam(c)
	if !ok {
		return
	}
	if !canManageTeam(c.GetString(authmw.CtxUserID), t) {
		respondErr(c, errForbidden())
		return
	}

	// messages referencing the team are left in place on purpose
	if err := deleteTeam(c.Request.Context(), t.TeamID); err != nil {
		respondErr(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"deleted": t.TeamID})
}
