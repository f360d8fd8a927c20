package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskflow/internal/model"
	"taskflow/internal/permission"
)

// Occurrences generated per recurring series.
const (
	dailyOccurrences  = 10
	weeklyOccurrences = 8
)

type EventStore interface {
	Create(ctx context.Context, event *model.CalendarEvent) error
	CreateSeries(ctx context.Context, events []*model.CalendarEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.CalendarEvent, error)
	ListByUser(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]model.CalendarEvent, error)
	ListSeries(ctx context.Context, userID uuid.UUID, seriesID string) ([]model.CalendarEvent, error)
	Update(ctx context.Context, event *model.CalendarEvent) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type EventHandler struct {
	events EventStore
	users  UserStore
}

func NewEventHandler(events EventStore, users UserStore) *EventHandler {
	return &EventHandler{events: events, users: users}
}

type EventRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	StartTime    string   `json:"start_time" binding:"required"`
	EndTime      string   `json:"end_time" binding:"required"`
	CalendarID   string   `json:"calendar_id"`
	Color        string   `json:"color"`
	Location     string   `json:"location"`
	Participants []string `json:"participants"`
	Recurrence   string   `json:"recurrence"`
	IsAllDay     bool     `json:"is_all_day"`
}

type EventResponse struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	CalendarID   string   `json:"calendar_id"`
	Color        string   `json:"color"`
	Location     string   `json:"location"`
	Participants []string `json:"participants"`
	Recurrence   string   `json:"recurrence"`
	SeriesID     *string  `json:"series_id"`
	IsAllDay     bool     `json:"is_all_day"`
}

func newEventResponse(e *model.CalendarEvent) EventResponse {
	return EventResponse{
		ID:           e.ID.String(),
		Title:        e.Title,
		Description:  e.Description,
		StartTime:    e.StartTime.Format(time.RFC3339),
		EndTime:      e.EndTime.Format(time.RFC3339),
		CalendarID:   e.CalendarID,
		Color:        e.Color,
		Location:     e.Location,
		Participants: e.Participants,
		Recurrence:   e.Recurrence,
		SeriesID:     e.SeriesID,
		IsAllDay:     e.IsAllDay,
	}
}

func (r *EventRequest) parseWindow() (start, end time.Time, err error) {
	start, err = time.Parse(time.RFC3339, r.StartTime)
	if err != nil {
		return
	}
	end, err = time.Parse(time.RFC3339, r.EndTime)
	return
}

// Create makes a calendar event. A daily or weekly recurrence expands
// into a series of events sharing one series id.
// @Summary Create a calendar event
// @Tags calendar
// @Router /api/v1/calendar-events [post]
func (h *EventHandler) Create(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	start, end, err := req.parseWindow()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start or end time"})
		return
	}
	if !end.After(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "End time must be after start time"})
		return
	}
	recurrence := req.Recurrence
	if recurrence == "" {
		recurrence = model.RecurrenceNone
	}
	if !model.ValidRecurrence(recurrence) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recurrence"})
		return
	}

	count := 1
	step := time.Duration(0)
	var seriesID *string
	switch recurrence {
	case model.RecurrenceDaily:
		count = dailyOccurrences
		step = 24 * time.Hour
	case model.RecurrenceWeekly:
		count = weeklyOccurrences
		step = 7 * 24 * time.Hour
	}
	if count > 1 {
		s := uuid.NewString()
		seriesID = &s
	}

	events := make([]*model.CalendarEvent, 0, count)
	for i := 0; i < count; i++ {
		offset := time.Duration(i) * step
		event := &model.CalendarEvent{
			UserID:       user.ID,
			Title:        req.Title,
			Description:  req.Description,
			StartTime:    start.Add(offset),
			EndTime:      end.Add(offset),
			CalendarID:   req.CalendarID,
			Color:        req.Color,
			Location:     req.Location,
			Participants: req.Participants,
			Recurrence:   recurrence,
			SeriesID:     seriesID,
			IsAllDay:     req.IsAllDay,
		}
		if event.CalendarID == "" {
			event.CalendarID = "my"
		}
		if event.Color == "" {
			event.Color = "#2563eb"
		}
		events = append(events, event)
	}

	// A series persists atomically; a failure leaves no partial series.
	if len(events) == 1 {
		err = h.events.Create(c.Request.Context(), events[0])
	} else {
		err = h.events.CreateSeries(c.Request.Context(), events)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
		return
	}

	response := make([]EventResponse, len(events))
	for i, e := range events {
		response[i] = newEventResponse(e)
	}
	c.JSON(http.StatusCreated, response)
}

// List returns the requester's events, optionally windowed by from/to
// query parameters (RFC 3339).
func (h *EventHandler) List(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var from, to *time.Time
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from parameter"})
			return
		}
		from = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to parameter"})
			return
		}
		to = &t
	}

	events, err := h.events.ListByUser(c.Request.Context(), user.ID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve events"})
		return
	}

	response := make([]EventResponse, len(events))
	for i := range events {
		response[i] = newEventResponse(&events[i])
	}
	c.JSON(http.StatusOK, response)
}

func (h *EventHandler) getOwnedEvent(c *gin.Context, user *model.User, id uuid.UUID) (*model.CalendarEvent, bool) {
	event, err := h.events.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve event"})
		return nil, false
	}
	if event == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return nil, false
	}
	if !permission.IsOwnerOrAdmin(user, event) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this event"})
		return nil, false
	}
	return event, true
}

func (h *EventHandler) GetByID(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	event, ok := h.getOwnedEvent(c, user, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newEventResponse(event))
}

// Update edits one event, or the whole series with ?series=true. A
// series update keeps each occurrence's own start and end.
func (h *EventHandler) Update(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	event, ok := h.getOwnedEvent(c, user, id)
	if !ok {
		return
	}

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	start, end, err := req.parseWindow()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start or end time"})
		return
	}
	if !end.After(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "End time must be after start time"})
		return
	}

	applyShared := func(e *model.CalendarEvent) {
		e.Title = req.Title
		e.Description = req.Description
		e.Location = req.Location
		e.Participants = req.Participants
		e.IsAllDay = req.IsAllDay
		if req.CalendarID != "" {
			e.CalendarID = req.CalendarID
		}
		if req.Color != "" {
			e.Color = req.Color
		}
	}

	if c.Query("series") == "true" && event.SeriesID != nil {
		series, err := h.events.ListSeries(c.Request.Context(), event.UserID, *event.SeriesID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve series"})
			return
		}
		for i := range series {
			applyShared(&series[i])
			if err := h.events.Update(c.Request.Context(), &series[i]); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update series"})
				return
			}
			if series[i].ID == event.ID {
				*event = series[i]
			}
		}
		c.JSON(http.StatusOK, newEventResponse(event))
		return
	}

	applyShared(event)
	event.StartTime = start
	event.EndTime = end
	if err := h.events.Update(c.Request.Context(), event); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update event"})
		return
	}
	c.JSON(http.StatusOK, newEventResponse(event))
}

// Delete removes one event, or every event of its series with
// ?series=true.
func (h *EventHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	event, ok := h.getOwnedEvent(c, user, id)
	if !ok {
		return
	}

	if c.Query("series") == "true" && event.SeriesID != nil {
		series, err := h.events.ListSeries(c.Request.Context(), event.UserID, *event.SeriesID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve series"})
			return
		}
		for i := range series {
			if err := h.events.Delete(c.Request.Context(), series[i].ID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete series"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"message": "Series deleted"})
		return
	}

	if err := h.events.Delete(c.Request.Context(), event.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete event"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted"})
}
