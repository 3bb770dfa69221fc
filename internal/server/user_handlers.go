package server

import (
	"errors"
	"net/http"

	"kyri56xcaesar/teamboard/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

func handleUserList(c *gin.Context) {
	users, err := listUsers(c.Request.Context(), false)
	if err != nil {
		respondErr(c, err)
		return
	}

	public := utils.Map(users, User.public)
	respondList(c, http.StatusOK, public, len(public))
}

func handleOnlineUsers(c *gin.Context) {
	users, err := listUsers(c.Request.Context(), true)
	if err != nil {
		respondErr(c, err)
		return
	}

	public := utils.Map(users, User.public)
	respondList(c, http.StatusOK, public, len(public))
}

func handleUserStatus(c *gin.Context) {
	userID := c.Param("userid")

	u, err := getUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondErr(c, errNotFound("user"))
			return
		}
		respondErr(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"id":       u.UserID,
		"username": u.Username,
		"isOnline": u.IsOnline,
		"lastSeen": u.LastSeen,
	})
}
