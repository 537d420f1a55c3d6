package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/signalhub-dev/signalhub/internal/models"
	"github.com/signalhub-dev/signalhub/internal/utils"
	"gorm.io/gorm"
)

type CreateRuleRequest struct {
	ChannelID uint   `json:"channel_id" binding:"required"`
	Category  string `json:"category"`
}

type RuleResponse struct {
	ID          uint      `json:"id"`
	ProjectID   uint      `json:"project_id"`
	ChannelID   uint      `json:"channel_id"`
	Category    string    `json:"category"`
	ChannelName string    `json:"channel_name,omitempty"`
	ChannelKind string    `json:"channel_kind,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *Handler) ListRules(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := h.ownedProject(ctx, userID)

	if !ok {
		return
	}

	var rules []models.NotificationRule

	if err := h.DB.Preload("Channel").Where("project_id = ?", project.ID).Order("created_at DESC").Find(&rules).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rules"})
		return
	}

	response := make([]RuleResponse, 0, len(rules))

	for _, rule := range rules {
		response = append(response, RuleResponse{
			ID:          rule.ID,
			ProjectID:   rule.ProjectID,
			ChannelID:   rule.ChannelID,
			Category:    rule.Category,
			ChannelName: rule.Channel.Name,
			ChannelKind: rule.Channel.Kind,
			CreatedAt:   rule.CreatedAt,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *Handler) CreateRule(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := h.ownedProject(ctx, userID)

	if !ok {
		return
	}

	var body CreateRuleRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// The referenced channel must belong to the same user.
	var channel models.Channel

	if err := h.DB.Where("id = ? AND owner_id = ?", body.ChannelID, userID).First(&channel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Channel not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve channel"})
		}
		return
	}

	category := strings.TrimSpace(body.Category)
	if category == "" {
		category = models.CategoryWildcard
	}

	var existing models.NotificationRule

	err = h.DB.Where("project_id = ? AND channel_id = ? AND category = ?", project.ID, channel.ID, category).
		First(&existing).Error

	if err == nil {
		ctx.JSON(http.StatusConflict, gin.H{"error": "This rule already exists"})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check existing rules"})
		return
	}

	rule := models.NotificationRule{
		ProjectID: project.ID,
		ChannelID: channel.ID,
		Category:  category,
	}

	if err := h.DB.Create(&rule).Error; err != nil {
		// Unique index on (project, channel, category) backstops the
		// pre-check under concurrent creates.
		ctx.JSON(http.StatusConflict, gin.H{"error": "This rule already exists"})
		return
	}

	ctx.JSON(http.StatusCreated, RuleResponse{
		ID:        rule.ID,
		ProjectID: rule.ProjectID,
		ChannelID: rule.ChannelID,
		Category:  rule.Category,
		CreatedAt: rule.CreatedAt,
	})
}

func (h *Handler) DeleteRule(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := h.ownedProject(ctx, userID)

	if !ok {
		return
	}

	ruleID, err := utils.GetParamID(ctx, "rule_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var rule models.NotificationRule

	if err := h.DB.Where("id = ? AND project_id = ?", ruleID, project.ID).First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rule"})
		}
		return
	}

	// Hard delete keeps the (project, channel, category) slot reusable.
	if err := h.DB.Unscoped().Delete(&rule).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete rule"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
