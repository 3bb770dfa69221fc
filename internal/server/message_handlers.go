package server

import (
	"errors"
	"net/http"
	"strconv"

	"kyri56xcaesar/teamboard/internal/authmw"
	"kyri56xcaesar/teamboard/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// handleMessageList serves one channel: ?teamId= selects a team channel,
// no teamId selects the general channel.
func handleMessageList(c *gin.Context) {
	userID := c.GetString(authmw.CtxUserID)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	var teamID *string
	if id := c.Query("teamId"); id != "" {
		teamID = &id

		team, err := getTeam(c.Request.Context(), id)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			respondErr(c, err)
			return
		}
		// a deleted team leaves its messages readable; an existing one
		// is members-only
		if team != nil && !canReadTeam(userID, team) {
			respondErr(c, errForbidden())
			return
		}
	}

	messages, err := listMessages(c.Request.Context(), teamID, limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondList(c, http.StatusOK, messages, len(messages))
}

func handleMessageCreate(c *gin.Context) {
	var req CreateMessageRequest
	if err := c.ShouldBind(&req); err != nil {
		respondErr(c, errValidation("body is required (at most 2000 characters)"))
		return
	}

	userID := c.GetString(authmw.CtxUserID)
	username := c.GetString(authmw.CtxUsername)

	if req.TeamID != nil {
		team, err := getTeam(c.Request.Context(), *req.TeamID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				respondErr(c, errNotFound("team"))
				return
			}
			respondErr(c, err)
			return
		}
		if !canPostMessage(userID, team) {
			respondErr(c, errForbidden())
			return
		}
	}

	m, err := createMessage(c.Request.Context(), userID, username, req.Body, req.TeamID)
	if err != nil {
		respondErr(c, err)
		return
	}

	// team channel → team room; general channel → everyone
	ev := realtime.Event{Type: realtime.EventNewMessage, Payload: gin.H{"message": m}}
	if m.TeamID != nil {
		hub.BroadcastRoom(realtime.TeamRoom(*m.TeamID), ev)
	} else {
		hub.BroadcastAll(ev)
	}

	respondData(c, http.StatusCreated, m)
}

func handleMessagesMarkRead(c *gin.Context) {
	var req MarkReadRequest
	if err := c.ShouldBind(&req); err != nil {
		respondErr(c, errValidation("messageIds is required"))
		return
	}

	userID := c.GetString(authmw.CtxUserID)
	if err := markMessagesRead(c.Request.Context(), userID, req.MessageIDs); err != nil {
		respondErr(c, err)
		return
	}

	// over-delivery is fine, clients filter by relevance
	hub.BroadcastAll(realtime.Event{
		Type:    realtime.EventMessagesRead,
		Payload: gin.H{"userId": userID, "messageIds": req.MessageIDs},
	})

	respondData(c, http.StatusOK, gin.H{"marked": len(req.MessageIDs)})
}

func handleUnreadCount(c *gin.Context) {
	userID := c.GetString(authmw.CtxUserID)

	n, err := countUnread(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"count": n})
}
