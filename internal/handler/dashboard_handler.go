package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskflow/internal/model"
)

type DashboardHandler struct {
	tasks    TaskStore
	projects ProjectStore
	teams    TeamStore
	users    UserStore
	now      func() time.Time
}

func NewDashboardHandler(tasks TaskStore, projects ProjectStore, teams TeamStore, users UserStore) *DashboardHandler {
	return &DashboardHandler{tasks: tasks, projects: projects, teams: teams, users: users, now: time.Now}
}

type TeamProgress struct {
	TeamID      string         `json:"team_id"`
	TeamName    string         `json:"team_name"`
	Progress    int            `json:"progress"`
	TaskCount   int            `json:"task_count"`
	DoneCount   int            `json:"done_count"`
	MemberCount int            `json:"member_count"`
	Members     []userResponse `json:"members"`
}

type DashboardResponse struct {
	TotalTasks      int            `json:"total_tasks"`
	CompletedTasks  int            `json:"completed_tasks"`
	OverdueTasks    int            `json:"overdue_tasks"`
	InProgressTasks int            `json:"in_progress_tasks"`
	ActiveProjects  int            `json:"active_projects"`
	TeamCount       int            `json:"team_count"`
	ByStatus        map[string]int `json:"by_status"`
	ByPriority      map[string]int `json:"by_priority"`
	RecentTasks     []TaskResponse `json:"recent_tasks"`
	TeamProgress    []TeamProgress `json:"team_progress"`
}

// teamRoster lists the members of a team, lead included.
func teamRoster(t *model.Team) []userResponse {
	roster := make([]userResponse, 0, len(t.Members)+1)
	seen := map[uuid.UUID]bool{}
	for i := range t.Members {
		roster = append(roster, newUserResponse(&t.Members[i]))
		seen[t.Members[i].ID] = true
	}
	if !seen[t.LeadID] && t.Lead.ID == t.LeadID {
		roster = append(roster, newUserResponse(&t.Lead))
	}
	return roster
}

// Stats aggregates the caller's visible tasks, projects and teams into
// one dashboard payload. Everything is computed over the visible set
// only; nothing leaks across team boundaries.
// @Summary Dashboard statistics
// @Tags dashboard
// @Router /api/v1/dashboard [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	now := h.now()

	teams, err := h.teams.VisibleTeams(ctx, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve teams"})
		return
	}
	teamIDs := make([]uuid.UUID, len(teams))
	for i := range teams {
		teamIDs[i] = teams[i].ID
	}

	tasks, err := h.tasks.ListVisible(ctx, user.ID, teamIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}
	projects, err := h.projects.ListByTeams(ctx, teamIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	resp := DashboardResponse{
		TotalTasks:   len(tasks),
		TeamCount:    len(teams),
		ByStatus:     map[string]int{},
		ByPriority:   map[string]int{},
		RecentTasks:  []TaskResponse{},
		TeamProgress: []TeamProgress{},
	}
	for i := range tasks {
		t := &tasks[i]
		resp.ByStatus[t.Status]++
		resp.ByPriority[t.Priority]++
		if t.IsCompleted {
			resp.CompletedTasks++
		}
		if t.IsOverdue(now) {
			resp.OverdueTasks++
		}
		if t.Status == model.StatusProgress {
			resp.InProgressTasks++
		}
	}
	for i := range projects {
		if projects[i].Status == model.ProjectActive {
			resp.ActiveProjects++
		}
	}

	// ListVisible orders newest first, so the head is the recent slice.
	recent := tasks
	if len(recent) > 5 {
		recent = recent[:5]
	}
	for i := range recent {
		resp.RecentTasks = append(resp.RecentTasks, newTaskResponse(&recent[i], now))
	}

	for i := range teams {
		team := &teams[i]
		teamTasks, err := h.tasks.ListByTeam(ctx, team.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team tasks"})
			return
		}
		done := 0
		for j := range teamTasks {
			if teamTasks[j].IsCompleted {
				done++
			}
		}
		progress := 0
		if len(teamTasks) > 0 {
			progress = done * 100 / len(teamTasks)
		}
		roster := teamRoster(team)
		resp.TeamProgress = append(resp.TeamProgress, TeamProgress{
			TeamID:      team.ID.String(),
			TeamName:    team.Name,
			Progress:    progress,
			TaskCount:   len(teamTasks),
			DoneCount:   done,
			MemberCount: len(roster),
			Members:     roster,
		})
	}

	c.JSON(http.StatusOK, resp)
}
