package server

import "time"

type User struct {
	UserID       string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	IsOnline     bool       `json:"isOnline"`
	LastSeen     *time.Time `json:"lastSeen,omitempty"`
	ConnectionID *string    `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
}

// PublicUser is what user listings expose.
type PublicUser struct {
	UserID   string     `json:"id"`
	Username string     `json:"username"`
	IsOnline bool       `json:"isOnline"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

func (u User) public() PublicUser {
	return PublicUser{UserID: u.UserID, Username: u.Username, IsOnline: u.IsOnline, LastSeen: u.LastSeen}
}

type Team struct {
	TeamID      string    `json:"teamid"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	Members     []string  `json:"members"`
	CreatedAt   time.Time `json:"created_at"`
}

type Phase struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
	Color string `json:"color"`
}

type Project struct {
	ProjectID   string     `json:"projectid"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatedBy   string     `json:"created_by"`
	Members     []string   `json:"members"`
	Phases      []Phase    `json:"phases"`
	Status      string     `json:"status"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// PhaseHistoryEntry is one row of a task's append-only phase log. Duration is
// backfilled (whole minutes spent in this phase) when the next move happens;
// the latest entry always has it absent.
type PhaseHistoryEntry struct {
	Phase    string    `json:"phase"`
	MovedBy  string    `json:"movedBy"`
	MovedAt  time.Time `json:"movedAt"`
	Duration *int      `json:"duration,omitempty"`
	Notes    string    `json:"notes"`
}

type Task struct {
	TaskID         string              `json:"taskid"`
	ProjectID      string              `json:"projectid"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	CreatedBy      string              `json:"created_by"`
	AssignedTo     []string            `json:"assignedTo"`
	CurrentPhase   string              `json:"currentPhase"`
	PhaseHistory   []PhaseHistoryEntry `json:"phaseHistory"`
	EstimatedHours float64             `json:"estimatedHours"`
	StoryPoints    int                 `json:"storyPoints"`
	Priority       string              `json:"priority"`
	Status         string              `json:"status"`
	Tags           []string            `json:"tags"`
	Attachments    []Attachment        `json:"attachments"`
	Comments       []TaskComment       `json:"comments"`
	CompletedAt    *time.Time          `json:"completedAt,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

type Attachment struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	UploadedBy string    `json:"uploadedBy"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type TaskComment struct {
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type Todo struct {
	TodoID      string     `json:"todoid"`
	CreatedBy   string     `json:"created_by"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Priority    string     `json:"priority"`
	AssignedTo  []string   `json:"assignedTo"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Message TeamID is nil for the general channel. A message may outlive its
// team; readers tolerate the dangling reference.
type Message struct {
	MessageID  string    `json:"messageid"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender"`
	Body       string    `json:"body"`
	TeamID     *string   `json:"teamid,omitempty"`
	ReadBy     []string  `json:"readBy"`
	CreatedAt  time.Time `json:"created_at"`
}

// --- request bodies; every persisted field is allow-listed here, raw bodies
// are never spread into records ---

type RegisterRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type CreateTodoRequest struct {
	Title       string     `json:"title" form:"title" binding:"required,min=1,max=200"`
	Description string     `json:"description" form:"description" binding:"max=2000"`
	Deadline    *time.Time `json:"deadline" form:"deadline"`
	Priority    string     `json:"priority" form:"priority" binding:"omitempty,oneof=low medium high"`
	AssignedTo  []string   `json:"assignedTo" form:"assignedTo"`
}

type UpdateTodoRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	Completed   *bool      `json:"completed"`
	Deadline    *time.Time `json:"deadline"`
	Priority    *string    `json:"priority" binding:"omitempty,oneof=low medium high"`
	AssignedTo  *[]string  `json:"assignedTo"`
}

type CreateTeamRequest struct {
	Name        string `json:"name" form:"name" binding:"required,min=2,max=64"`
	Description string `json:"description" form:"description" binding:"max=500"`
}

type AddTeamMembersRequest struct {
	Members []string `json:"members" binding:"required,min=1"`
}

type CreateProjectRequest struct {
	Name        string     `json:"name" form:"name" binding:"required,min=2,max=120"`
	Description string     `json:"description" form:"description" binding:"max=2000"`
	Members     []string   `json:"members"`
	Phases      []Phase    `json:"phases"`
	Status      string     `json:"status" binding:"omitempty,oneof=active completed archived on-hold"`
	Deadline    *time.Time `json:"deadline"`
}

type UpdateProjectRequest struct {
	Name        *string    `json:"name" binding:"omitempty,min=2,max=120"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	Status      *string    `json:"status" binding:"omitempty,oneof=active completed archived on-hold"`
	Deadline    *time.Time `json:"deadline"`
}

type CreateTaskRequest struct {
	Title          string   `json:"title" binding:"required,min=1,max=200"`
	Description    string   `json:"description" binding:"max=2000"`
	AssignedTo     []string `json:"assignedTo"`
	Phase          string   `json:"phase"`
	EstimatedHours float64  `json:"estimatedHours" binding:"omitempty,gte=0"`
	StoryPoints    int      `json:"storyPoints" binding:"omitempty,gte=0"`
	Priority       string   `json:"priority" binding:"omitempty,oneof=low medium high"`
	Tags           []string `json:"tags"`
}

type UpdateTaskRequest struct {
	Title          *string   `json:"title" binding:"omitempty,min=1,max=200"`
	Description    *string   `json:"description" binding:"omitempty,max=2000"`
	AssignedTo     *[]string `json:"assignedTo"`
	EstimatedHours *float64  `json:"estimatedHours" binding:"omitempty,gte=0"`
	StoryPoints    *int      `json:"storyPoints" binding:"omitempty,gte=0"`
	Priority       *string   `json:"priority" binding:"omitempty,oneof=low medium high"`
	Status         *string   `json:"status" binding:"omitempty,oneof=pending in-progress completed blocked"`
	Tags           *[]string `json:"tags"`
}

type MoveTaskRequest struct {
	ToPhase string `json:"toPhase" binding:"required"`
	Notes   string `json:"notes" binding:"max=500"`
}

type CreateMessageRequest struct {
	Body   string  `json:"body" binding:"required,min=1,max=2000"`
	TeamID *string `json:"teamId"`
}

type MarkReadRequest struct {
	MessageIDs []string `json:"messageIds" binding:"required,min=1"`
}

// defaultPhases is the workflow a project gets when none is supplied.
func defaultPhases() []Phase {
	return []Phase{
		{Name: "Backlog", Order: 1, Color: "#6b7280"},
		{Name: "In Progress", Order: 2, Color: "#3b82f6"},
		{Name: "Review", Order: 3, Color: "#f59e0b"},
		{Name: "Testing", Order: 4, Color: "#8b5cf6"},
		{Name: "Done", Order: 5, Color: "#10b981"},
	}
}

// firstPhase picks the lowest-ranked phase, the seed phase for new tasks.
func firstPhase(phases []Phase) string {
	if len(phases) == 0 {
		return "Backlog"
	}
	first := phases[0]
	for _, p := range phases[1:] {
		if p.Order < first.Order {
			first = p
		}
	}
	return first.Name
}
