package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

func record(t *testing.T, fn func(c *gin.Context)) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)
	fn(c)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not json: %v", err)
	}
	return body
}

func TestRespondDataEnvelope(t *testing.T) {
	w := record(t, func(c *gin.Context) {
		respondData(c, http.StatusCreated, gin.H{"id": "abc"})
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	body := decodeEnvelope(t, w)
	if body["success"] != true {
		t.Fatalf("expected success true, got %v", body["success"])
	}
	if _, ok := body["data"]; !ok {
		t.Fatal("expected a data field")
	}
	if _, ok := body["error"]; ok {
		t.Fatal("success response must not carry an error field")
	}
}

func TestRespondListCount(t *testing.T) {
	w := record(t, func(c *gin.Context) {
		respondList(c, http.StatusOK, []string{"a", "b"}, 2)
	})

	body := decodeEnvelope(t, w)
	if body["count"] != float64(2) {
		t.Fatalf("expected count 2, got %v", body["count"])
	}
}

func TestRespondErrStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", errValidation("title is required"), http.StatusBadRequest, "title is required"},
		{"unauthorized", errUnauthorized("invalid credentials"), http.StatusUnauthorized, "invalid credentials"},
		{"forbidden", errForbidden(), http.StatusForbidden, "forbidden"},
		{"not found", errNotFound("task"), http.StatusNotFound, "task not found"},
		{"missing row", pgx.ErrNoRows, http.StatusNotFound, "not found"},
		{"unexpected", errors.New("pq: connection refused"), http.StatusInternalServerError, "server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := record(t, func(c *gin.Context) { respondErr(c, tc.err) })

			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			body := decodeEnvelope(t, w)
			if body["success"] != false {
				t.Fatalf("expected success false, got %v", body["success"])
			}
			if body["error"] != tc.msg {
				t.Fatalf("expected error %q, got %v", tc.msg, body["error"])
			}
		})
	}
}

func TestInternalErrorsDoNotLeakDetail(t *testing.T) {
	w := record(t, func(c *gin.Context) {
		respondErr(c, errors.New("dial tcp 10.0.0.5:5432: connect: refused"))
	})

	body := decodeEnvelope(t, w)
	if body["error"] != "server error" {
		t.Fatalf("internal detail leaked to client: %v", body["error"])
	}
}
