package server

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDefaultPhasesOrdering(t *testing.T) {
	phases := defaultPhases()
	if len(phases) != 5 {
		t.Fatalf("expected 5 default phases, got %d", len(phases))
	}
	for i, p := range phases {
		if p.Order != i+1 {
			t.Fatalf("phase %q has order %d, expected %d", p.Name, p.Order, i+1)
		}
	}
	if phases[0].Name != "Backlog" || phases[4].Name != "Done" {
		t.Fatalf("unexpected boundary phases: %q .. %q", phases[0].Name, phases[4].Name)
	}
}

func TestFirstPhasePicksLowestOrder(t *testing.T) {
	phases := []Phase{
		{Name: "QA", Order: 3},
		{Name: "Idea", Order: 1},
		{Name: "Build", Order: 2},
	}
	if got := firstPhase(phases); got != "Idea" {
		t.Fatalf("expected Idea, got %q", got)
	}
	if got := firstPhase(nil); got != "Backlog" {
		t.Fatalf("expected Backlog fallback, got %q", got)
	}
}

func TestUserJSONHidesCredentials(t *testing.T) {
	conn := "conn-1"
	u := User{
		UserID:       "u1",
		Username:     "kyri",
		PasswordHash: "$2a$10$abcdefg",
		ConnectionID: &conn,
		CreatedAt:    time.Now(),
	}

	b, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	if strings.Contains(s, "abcdefg") || strings.Contains(s, "conn-1") {
		t.Fatalf("sensitive fields leaked: %s", s)
	}

	pub := u.public()
	if pub.UserID != u.UserID || pub.Username != u.Username {
		t.Fatalf("public projection lost identity fields: %+v", pub)
	}
}
