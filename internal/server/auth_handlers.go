package server

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"kyri56xcaesar/teamboard/internal/authmw"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

func handleRegister(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		respondErr(c, errValidation("invalid input"))
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	var problems []string
	if req.Username == "" {
		problems = append(problems, "username is required")
	}
	if len(req.Password) < minPasswordLen {
		problems = append(problems, "password must be at least 6 characters")
	}
	if len(problems) > 0 {
		respondErr(c, errValidation(problems...))
		return
	}

	taken, err := usernameTaken(c.Request.Context(), req.Username)
	if err != nil {
		respondErr(c, err)
		return
	}
	if taken {
		respondErr(c, errValidation("username already taken"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondErr(c, err)
		return
	}

	u, err := createUser(c.Request.Context(), req.Username, string(hash))
	if err != nil {
		log.Printf("failed to create user: %v", err)
		respondErr(c, err)
		return
	}

	token, err := tokenSvc.Issue(u.UserID, u.Username)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondData(c, http.StatusCreated, gin.H{"id": u.UserID, "username": u.Username, "token": token})
}

func handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondErr(c, errValidation("username and password are required"))
		return
	}

	// same answer for unknown username and wrong password
	invalid := errUnauthorized("invalid credentials")

	u, err := getUserByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondErr(c, invalid)
			return
		}
		respondErr(c, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		respondErr(c, invalid)
		return
	}

	token, err := tokenSvc.Issue(u.UserID, u.Username)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"id": u.UserID, "username": u.Username, "token": token})
}

func handleMe(c *gin.Context) {
	userID := c.GetString(authmw.CtxUserID)

	u, err := getUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondErr(c, errNotFound("user"))
			return
		}
		respondErr(c, err)
		return
	}

	respondData(c, http.StatusOK, u.public())
}
