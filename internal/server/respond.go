package server

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// apiError carries an HTTP status and client-safe messages through handler
// code. Anything else reaching respondErr is treated as a server fault.
type apiError struct {
	status   int
	messages []string
}

func (e *apiError) Error() string { return strings.Join(e.messages, "; ") }

func errValidation(messages ...string) *apiError {
	if len(messages) == 0 {
		messages = []string{"invalid input"}
	}
	return &apiError{status: http.StatusBadRequest, messages: messages}
}

func errUnauthorized(msg string) *apiError {
	return &apiError{status: http.StatusUnauthorized, messages: []string{msg}}
}

func errForbidden() *apiError {
	return &apiError{status: http.StatusForbidden, messages: []string{"forbidden"}}
}

func errNotFound(resource string) *apiError {
	return &apiError{status: http.StatusNotFound, messages: []string{resource + " not found"}}
}

// respondData writes the standard success envelope.
func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// respondList is respondData plus the count field for collections.
func respondList(c *gin.Context, status int, data any, count int) {
	c.JSON(status, gin.H{"success": true, "data": data, "count": count})
}

// respondErr maps an error onto the failure envelope. Storage and unexpected
// faults are logged in full server-side; the client only sees a generic 500.
func respondErr(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.status, gin.H{"success": false, "error": apiErr.Error()})
		return
	}
	if errors.Is(err, pgx.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
		return
	}

	log.Printf("server error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "server error"})
}
