package server

import "kyri56xcaesar/teamboard/internal/utils"

// Authorization predicates: stateless functions of (identity, resource).
// Handlers call these after the existence check, so a denial is always a 403,
// never silently filtered and never confused with a 404.

func canReadTeam(userID string, t *Team) bool {
	return t.CreatedBy == userID || utils.Contains(t.Members, userID)
}

// only the creator may add members or delete the team
func canManageTeam(userID string, t *Team) bool {
	return t.CreatedBy == userID
}

func canReadProject(userID string, p *Project) bool {
	return p.CreatedBy == userID || utils.Contains(p.Members, userID)
}

// only the creator may update/delete the project or create tasks in it
func canManageProject(userID string, p *Project) bool {
	return p.CreatedBy == userID
}

// phase movement is assignment-gated, not creator-gated
func canMoveTask(userID string, t *Task) bool {
	return utils.Contains(t.AssignedTo, userID)
}

// field edits and deletion stay with the creator
func canEditTask(userID string, t *Task) bool {
	return t.CreatedBy == userID
}

func canReadTodo(userID string, td *Todo) bool {
	return td.CreatedBy == userID || utils.Contains(td.AssignedTo, userID)
}

func canWriteTodo(userID string, td *Todo) bool {
	return td.CreatedBy == userID
}

// team == nil means the general channel, open to any authenticated identity
func canPostMessage(userID string, team *Team) bool {
	return team == nil || canReadTeam(userID, team)
}
