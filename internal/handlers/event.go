package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/signalhub-dev/signalhub/internal/apikey"
	"github.com/signalhub-dev/signalhub/internal/models"
	"github.com/signalhub-dev/signalhub/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type IngestEventRequest struct {
	Channel     string          `json:"channel"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Metadata    json.RawMessage `json:"metadata"`
}

type EventResponse struct {
	ID          uint            `json:"id"`
	ProjectID   uint            `json:"project_id"`
	Category    string          `json:"category"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Icon        string          `json:"icon,omitempty"`
	Metadata    json.RawMessage `json:"metadata"`
	CreatedAt   time.Time       `json:"created_at"`
}

func eventResponse(event models.Event) EventResponse {
	return EventResponse{
		ID:          event.ID,
		ProjectID:   event.ProjectID,
		Category:    event.Category,
		Title:       event.Title,
		Description: event.Description,
		Icon:        event.Icon,
		Metadata:    json.RawMessage(event.Metadata),
		CreatedAt:   event.CreatedAt,
	}
}

// IngestEvent is the public, key-authenticated ingestion endpoint. The event
// is validated and persisted before any dispatch; delivery outcomes never
// change the response, they are recorded in the ledger.
func (h *Handler) IngestEvent(ctx *gin.Context) {
	secret := bearerToken(ctx)

	if secret == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
		return
	}

	key, project, err := h.Validator.Validate(secret)

	if err != nil {
		if errors.Is(err, apikey.ErrInvalidKey) {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
		} else {
			log.Printf("Failed to validate API key: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	var body IngestEventRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	title := strings.TrimSpace(body.Title)

	if title == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	category := strings.TrimSpace(body.Channel)
	if category == "" {
		category = models.DefaultCategory
	}

	metadata := datatypes.JSON(body.Metadata)
	if len(metadata) == 0 {
		metadata = datatypes.JSON("{}")
	}

	event := models.Event{
		ProjectID:   project.ID,
		ApiKeyID:    key.ID,
		Category:    category,
		Title:       title,
		Description: strings.TrimSpace(body.Description),
		Icon:        body.Icon,
		Metadata:    metadata,
	}

	if err := h.DB.Create(&event).Error; err != nil {
		log.Printf("Failed to persist event: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
		return
	}

	// Synchronous fanout: the response waits for every matched channel to
	// reach a terminal delivery state.
	if err := h.Dispatcher.Dispatch(ctx.Request.Context(), event); err != nil {
		log.Printf("Dispatch failed for event %d: %v", event.ID, err)
	}

	ctx.JSON(http.StatusCreated, gin.H{"id": event.ID})
}

func (h *Handler) ListEvents(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := h.ownedProject(ctx, userID)

	if !ok {
		return
	}

	limit, offset := utils.Pagination(ctx)

	var events []models.Event

	if err := h.DB.Where("project_id = ?", project.ID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve events"})
		return
	}

	var total int64

	if err := h.DB.Model(&models.Event{}).Where("project_id = ?", project.ID).Count(&total).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count events"})
		return
	}

	response := make([]EventResponse, 0, len(events))

	for _, event := range events {
		response = append(response, eventResponse(event))
	}

	ctx.JSON(http.StatusOK, gin.H{"data": response, "total": total})
}

func (h *Handler) GetEvent(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	eventID, err := utils.GetParamID(ctx, "event_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var event models.Event

	err = h.DB.Joins("JOIN projects ON projects.id = events.project_id").
		Where("events.id = ? AND projects.owner_id = ?", eventID, userID).
		First(&event).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve event"})
		}
		return
	}

	notifications, err := h.notificationSummaries(
		h.notificationScope().Where("notifications.event_id = ?", event.ID),
	)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve notifications"})
		return
	}

	response := struct {
		EventResponse
		Notifications []NotificationSummary `json:"notifications"`
	}{eventResponse(event), notifications}

	ctx.JSON(http.StatusOK, response)
}

func bearerToken(ctx *gin.Context) string {
	authHeader := ctx.GetHeader("Authorization")

	parts := strings.SplitN(authHeader, " ", 2)

	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}
