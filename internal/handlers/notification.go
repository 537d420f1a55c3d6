package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/signalhub-dev/signalhub/internal/utils"
	"gorm.io/gorm"
)

// NotificationSummary is one delivery ledger entry with channel and event
// context joined best-effort: the channel columns stay empty when the
// channel was deleted after delivery.
type NotificationSummary struct {
	ID            uint       `json:"id"`
	EventID       uint       `json:"event_id"`
	ChannelID     uint       `json:"channel_id"`
	Status        string     `json:"status"`
	Error         string     `json:"error,omitempty"`
	SentAt        *time.Time `json:"sent_at"`
	CreatedAt     time.Time  `json:"created_at"`
	ChannelName   string     `json:"channel_name,omitempty"`
	ChannelKind   string     `json:"channel_kind,omitempty"`
	EventTitle    string     `json:"event_title,omitempty"`
	EventCategory string     `json:"event_category,omitempty"`
}

// notificationScope is the ledger read query: notifications joined to their
// event (and the event's project) plus the channel when it still exists.
// Callers narrow it with Where on notifications, events or projects columns.
func (h *Handler) notificationScope() *gorm.DB {
	return h.DB.Table("notifications").
		Joins("JOIN events ON events.id = notifications.event_id").
		Joins("JOIN projects ON projects.id = events.project_id").
		Joins("LEFT JOIN channels ON channels.id = notifications.channel_id").
		Where("notifications.deleted_at IS NULL")
}

func (h *Handler) notificationSummaries(scope *gorm.DB) ([]NotificationSummary, error) {
	rows := []NotificationSummary{}

	err := scope.
		Select(`notifications.id, notifications.event_id, notifications.channel_id,
			notifications.status, notifications.error, notifications.sent_at, notifications.created_at,
			channels.name AS channel_name, channels.kind AS channel_kind,
			events.title AS event_title, events.category AS event_category`).
		Order("notifications.created_at DESC").
		Scan(&rows).Error

	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (h *Handler) ListNotifications(ctx *gin.Context) {
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

	notifications, err := h.notificationSummaries(
		h.notificationScope().
			Where("events.project_id = ?", project.ID).
			Limit(limit).
			Offset(offset),
	)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve notifications"})
		return
	}

	var total int64

	err = h.DB.Table("notifications").
		Joins("JOIN events ON events.id = notifications.event_id").
		Where("events.project_id = ?", project.ID).
		Where("notifications.deleted_at IS NULL").
		Count(&total).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count notifications"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": notifications, "total": total})
}

func (h *Handler) GetNotification(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	notificationID, err := utils.GetParamID(ctx, "notification_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notifications, err := h.notificationSummaries(
		h.notificationScope().
			Where("notifications.id = ? AND projects.owner_id = ?", notificationID, userID),
	)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve notification"})
		return
	}

	if len(notifications) == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	ctx.JSON(http.StatusOK, notifications[0])
}
