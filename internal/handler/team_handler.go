package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskflow/internal/middleware"
	"taskflow/internal/model"
	"taskflow/internal/permission"
)

// TeamStore is the slice of the team repository handlers need.
type TeamStore interface {
	Create(ctx context.Context, team *model.Team) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Team, error)
	GetByInviteCode(ctx context.Context, code string) (*model.Team, error)
	IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
	AddMember(ctx context.Context, teamID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error
	VisibleTeams(ctx context.Context, userID uuid.UUID) ([]model.Team, error)
	VisibleTeamIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Update(ctx context.Context, team *model.Team) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	MemberCount(ctx context.Context, teamID uuid.UUID) (int64, error)
}

type MessageStore interface {
	Create(ctx context.Context, msg *model.TeamMessage) error
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]model.TeamMessage, error)
}

// PendingInviteStore records an invite code for an anonymous session.
type PendingInviteStore interface {
	Set(ctx context.Context, sessionID, code string) error
}

// InviteMailSender delivers join links by email, fire-and-forget.
type InviteMailSender interface {
	SendTeamInvite(to, inviterName, teamName, joinURL string)
}

type TeamHandler struct {
	teams       TeamStore
	users       UserStore
	messages    MessageStore
	pending     PendingInviteStore
	mailer      InviteMailSender
	frontendURL string
}

func NewTeamHandler(teams TeamStore, users UserStore, messages MessageStore, pending PendingInviteStore, mailer InviteMailSender, frontendURL string) *TeamHandler {
	return &TeamHandler{
		teams:       teams,
		users:       users,
		messages:    messages,
		pending:     pending,
		mailer:      mailer,
		frontendURL: frontendURL,
	}
}

type CreateTeamRequest struct {
	Name        string `json:"name" binding:"required,min=2"`
	Description string `json:"description"`
}

type TeamResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InviteCode  string         `json:"invite_code"`
	Lead        userResponse   `json:"team_lead"`
	Members     []userResponse `json:"members"`
	MemberCount int            `json:"member_count"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   string         `json:"created_at"`
}

func newTeamResponse(t *model.Team) TeamResponse {
	members := make([]userResponse, 0, len(t.Members))
	seen := map[uuid.UUID]bool{}
	for i := range t.Members {
		members = append(members, newUserResponse(&t.Members[i]))
		seen[t.Members[i].ID] = true
	}
	// The lead belongs in the roster even without a membership row.
	if !seen[t.LeadID] && t.Lead.ID == t.LeadID {
		members = append(members, newUserResponse(&t.Lead))
	}
	return TeamResponse{
		ID:          t.ID.String(),
		Name:        t.Name,
		Description: t.Description,
		InviteCode:  t.InviteCode,
		Lead:        newUserResponse(&t.Lead),
		Members:     members,
		MemberCount: len(members),
		IsActive:    t.IsActive,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}

// Create makes the requester lead and first member of a new team.
// @Summary Create a team
// @Tags teams
// @Router /api/v1/teams [post]
func (h *TeamHandler) Create(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	team := &model.Team{
		Name:        req.Name,
		Description: req.Description,
		LeadID:      user.ID,
		IsActive:    true,
	}
	if err := h.teams.Create(c.Request.Context(), team); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create team"})
		return
	}

	created, err := h.teams.GetByID(c.Request.Context(), team.ID)
	if err != nil || created == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load team"})
		return
	}
	c.JSON(http.StatusCreated, newTeamResponse(created))
}

// List returns the teams visible to the requester.
func (h *TeamHandler) List(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	teams, err := h.teams.VisibleTeams(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve teams"})
		return
	}

	response := make([]TeamResponse, len(teams))
	for i := range teams {
		response[i] = newTeamResponse(&teams[i])
	}
	c.JSON(http.StatusOK, response)
}

// getVisibleTeam loads a team and enforces membership. Inactive teams
// and teams the requester cannot see both answer 404.
func (h *TeamHandler) getVisibleTeam(c *gin.Context, user *model.User, teamID uuid.UUID) (*model.Team, bool) {
	team, err := h.teams.GetByID(c.Request.Context(), teamID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team"})
		return nil, false
	}
	if team == nil || !team.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		return nil, false
	}
	if user.IsSuperuser {
		return team, true
	}
	isMember, err := h.teams.IsMember(c.Request.Context(), team.ID, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
		return nil, false
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not a member of this team"})
		return nil, false
	}
	return team, true
}

func (h *TeamHandler) GetByID(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	teamID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	team, ok := h.getVisibleTeam(c, user, teamID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newTeamResponse(team))
}

type UpdateTeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Update edits team attributes. Lead, superuser, or a member holding
// the manage-team capability.
func (h *TeamHandler) Update(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	teamID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	team, ok := h.getVisibleTeam(c, user, teamID)
	if !ok {
		return
	}

	if !permission.IsOwnerOrAdmin(user, team) && !permission.Resolve(user).CanManageTeam {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to manage this team"})
		return
	}

	var req UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Name != "" {
		team.Name = req.Name
	}
	if req.Description != "" {
		team.Description = req.Description
	}
	if err := h.teams.Update(c.Request.Context(), team); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update team"})
		return
	}
	c.JSON(http.StatusOK, newTeamResponse(team))
}

// Delete deactivates the team. Lead or superuser only. The invite code
// stops resolving immediately.
func (h *TeamHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	teamID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	team, ok := h.getVisibleTeam(c, user, teamID)
	if !ok {
		return
	}

	if !user.IsSuperuser && team.LeadID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the team lead can delete the team"})
		return
	}

	if err := h.teams.Deactivate(c.Request.Context(), team.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete team"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Team deleted"})
}

// joinResult reports a join outcome; joining twice is a no-op, not an
// error.
func (h *TeamHandler) joinResult(c *gin.Context, team *model.Team, userID uuid.UUID) {
	isMember, err := h.teams.IsMember(c.Request.Context(), team.ID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
		return
	}
	if isMember {
		c.JSON(http.StatusOK, gin.H{
			"message":        "Already a member",
			"already_member": true,
			"team":           newTeamBrief(team),
		})
		return
	}
	if err := h.teams.AddMember(c.Request.Context(), team.ID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join team"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "Joined team",
		"already_member": false,
		"team":           newTeamBrief(team),
	})
}

// Join adds the authenticated requester to a team by id.
// @Summary Join a team by id
// @Tags teams
// @Router /api/v1/teams/{id}/join [post]
func (h *TeamHandler) Join(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	teamID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	team, err := h.teams.GetByID(c.Request.Context(), teamID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team"})
		return
	}
	if team == nil || !team.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		return
	}
	h.joinResult(c, team, user.ID)
}

// JoinByCode joins via invite code. Possessing a valid code is itself
// the authorization: no capability flag guards this path. An anonymous
// caller gets the code parked in their session for redemption after
// register/login.
// @Summary Join a team by invite code
// @Tags teams
// @Router /api/v1/invites/{code}/join [post]
func (h *TeamHandler) JoinByCode(c *gin.Context) {
	code := c.Param("code")

	userID, authenticated := currentUserID(c)
	if !authenticated {
		sid := middleware.SessionID(c)
		if sid == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if err := h.pending.Set(c.Request.Context(), sid, code); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store invite"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"pending": true,
			"message": "Log in or register to join the team",
		})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil || user == nil || !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	team, err := h.teams.GetByInviteCode(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team"})
		return
	}
	if team == nil {
		// Unknown and deactivated codes are indistinguishable.
		c.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		return
	}
	h.joinResult(c, team, user.ID)
}

// inviteInfo is the public preview a prospective member sees before
// deciding to join. It never includes the invite code itself.
func (h *TeamHandler) inviteInfo(c *gin.Context, team *model.Team) {
	count, err := h.teams.MemberCount(c.Request.Context(), team.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count members"})
		return
	}

	isMember := false
	if userID, authenticated := currentUserID(c); authenticated {
		isMember, _ = h.teams.IsMember(c.Request.Context(), team.ID, userID)
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           team.ID.String(),
		"name":         team.Name,
		"team_lead":    newUserResponse(&team.Lead),
		"member_count": count,
		"is_member":    isMember,
	})
}

// InviteInfo answers the public invite preview by team id.
func (h *TeamHandler) InviteInfo(c *gin.Context) {
	teamID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	team, err := h.teams.GetByID(c.Request.Context(), teamID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team"})
		return
	}
	if team == nil || !team.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		return
	}
	h.inviteInfo(c, team)
}

// InviteInfoByCode answers the public invite preview by code.
func (h *TeamHandler) InviteInfoByCode(c *gin.Context) {
	team, err := h.teams.GetByInviteCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team"})
		return
	}
	if team == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		return
	}
	h.inviteInfo(c, team)
}

// Leave removes the requester from the member set. The lead cannot
// leave their own team.
func (h *TeamHandler) Leave(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	teamID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	team, ok := h.getVisibleTeam(c, user, teamID)
	if !ok {
		return
	}

	if team.LeadID == user.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The team lead cannot leave the team"})
		return
	}
	if err := h.teams.RemoveMember(c.Request.Context(), team.ID, user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to leave team"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Left team"})
}

// RemoveMember removes another user. Lead, superuser, or the
// remove-members capability; removing the lead is rejected.
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	teamID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	memberID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}
	team, ok := h.getVisibleTeam(c, user, teamID)
	if !ok {
		return
	}

	allowed := user.IsSuperuser || team.LeadID == user.ID ||
		memberID == user.ID || permission.Resolve(user).CanRemoveMembers
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to remove members"})
		return
	}
	if memberID == team.LeadID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The team lead cannot be removed"})
		return
	}
	if err := h.teams.RemoveMember(c.Request.Context(), team.ID, memberID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

type inviteEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// InviteByEmail mails the join link to an address. Lead or the
// invite-members capability. Delivery is fire-and-forget.
func (h *TeamHandler) InviteByEmail(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	teamID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	team, ok := h.getVisibleTeam(c, user, teamID)
	if !ok {
		return
	}

	if !user.IsSuperuser && team.LeadID != user.ID && !permission.Resolve(user).CanInviteMembers {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to invite members"})
		return
	}

	var req inviteEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email"})
		return
	}

	joinURL := fmt.Sprintf("%s/join/%s", h.frontendURL, team.InviteCode)
	go h.mailer.SendTeamInvite(req.Email, user.Username, team.Name, joinURL)

	c.JSON(http.StatusOK, gin.H{"message": "Invitation sent"})
}

type MessageResponse struct {
	ID        string       `json:"id"`
	Author    userResponse `json:"author"`
	Content   string       `json:"content"`
	CreatedAt string       `json:"created_at"`
}

// ListMessages returns the team chat log in creation order.
func (h *TeamHandler) ListMessages(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	teamID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	team, ok := h.getVisibleTeam(c, user, teamID)
	if !ok {
		return
	}

	messages, err := h.messages.ListByTeam(c.Request.Context(), team.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve messages"})
		return
	}

	response := make([]MessageResponse, len(messages))
	for i, msg := range messages {
		response[i] = MessageResponse{
			ID:        msg.ID.String(),
			Author:    newUserResponse(&msg.Author),
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt.Format(time.RFC3339),
		}
	}
	c.JSON(http.StatusOK, response)
}

type postMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// PostMessage appends to the team chat. Members only; messages are
// immutable once created.
func (h *TeamHandler) PostMessage(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	teamID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	team, ok := h.getVisibleTeam(c, user, teamID)
	if !ok {
		return
	}

	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message content required"})
		return
	}
	if len(req.Content) > model.MaxMessageLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message too long"})
		return
	}

	msg := &model.TeamMessage{
		TeamID:   team.ID,
		AuthorID: user.ID,
		Content:  req.Content,
	}
	if err := h.messages.Create(c.Request.Context(), msg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to post message"})
		return
	}
	c.JSON(http.StatusCreated, MessageResponse{
		ID:        msg.ID.String(),
		Author:    newUserResponse(user),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt.Format(time.RFC3339),
	})
}
