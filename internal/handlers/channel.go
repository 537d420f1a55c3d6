package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/signalhub-dev/signalhub/internal/models"
	"github.com/signalhub-dev/signalhub/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreateChannelRequest struct {
	Kind   string          `json:"kind" binding:"required"`
	Name   string          `json:"name" binding:"required"`
	Config json.RawMessage `json:"config" binding:"required"`
}

type UpdateChannelRequest struct {
	Name    string          `json:"name"`
	Config  json.RawMessage `json:"config"`
	Enabled *bool           `json:"enabled"`
}

type ChannelResponse struct {
	ID        uint            `json:"id"`
	Kind      string          `json:"kind"`
	Name      string          `json:"name"`
	Config    json.RawMessage `json:"config"`
	Enabled   bool            `json:"enabled"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func channelResponse(channel models.Channel) ChannelResponse {
	return ChannelResponse{
		ID:        channel.ID,
		Kind:      channel.Kind,
		Name:      channel.Name,
		Config:    json.RawMessage(channel.Config),
		Enabled:   channel.Enabled,
		CreatedAt: channel.CreatedAt,
		UpdatedAt: channel.UpdatedAt,
	}
}

func validChannelKind(kind string) bool {
	return kind == models.ChannelKindEmail || kind == models.ChannelKindTelegram
}

func (h *Handler) ListChannels(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var channels []models.Channel

	if err := h.DB.Where("owner_id = ?", userID).Order("created_at DESC").Find(&channels).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve channels"})
		return
	}

	response := make([]ChannelResponse, 0, len(channels))

	for _, channel := range channels {
		response = append(response, channelResponse(channel))
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *Handler) CreateChannel(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateChannelRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !validChannelKind(body.Kind) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Kind must be 'email' or 'telegram'"})
		return
	}

	channel := models.Channel{
		OwnerID: userID,
		Kind:    body.Kind,
		Name:    strings.TrimSpace(body.Name),
		Config:  datatypes.JSON(body.Config),
		Enabled: true,
	}

	if err := h.DB.Create(&channel).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create channel"})
		return
	}

	ctx.JSON(http.StatusCreated, channelResponse(channel))
}

func (h *Handler) GetChannel(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	channel, ok := h.ownedChannel(ctx, userID)

	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, channelResponse(channel))
}

func (h *Handler) UpdateChannel(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body UpdateChannelRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	channel, ok := h.ownedChannel(ctx, userID)

	if !ok {
		return
	}

	if name := strings.TrimSpace(body.Name); name != "" {
		channel.Name = name
	}

	if body.Config != nil {
		channel.Config = datatypes.JSON(body.Config)
	}

	if body.Enabled != nil {
		channel.Enabled = *body.Enabled
	}

	if err := h.DB.Save(&channel).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update channel"})
		return
	}

	ctx.JSON(http.StatusOK, channelResponse(channel))
}

func (h *Handler) DeleteChannel(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	channel, ok := h.ownedChannel(ctx, userID)

	if !ok {
		return
	}

	if err := h.DB.Unscoped().Select("NotificationRules").Delete(&channel).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete channel"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// TestChannel synthesizes an event and invokes the channel's sender directly,
// bypassing rule matching and the delivery ledger. Sender success or failure
// is surfaced to the caller.
func (h *Handler) TestChannel(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	channel, ok := h.ownedChannel(ctx, userID)

	if !ok {
		return
	}

	sender, err := h.Senders.Get(channel.Kind)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	testEvent := models.Event{
		Category:    "test",
		Title:       "Test notification from SignalHub",
		Description: "If you received this, your channel is configured correctly.",
		Metadata:    datatypes.JSON("{}"),
	}
	testEvent.CreatedAt = time.Now()

	if err := sender.Send(ctx.Request.Context(), channel.Config, testEvent); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Test failed: " + err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

type BotTokenRequest struct {
	BotToken string `json:"bot_token" binding:"required"`
}

// ValidateBotToken checks a Telegram bot token against the provider's
// identity endpoint, used during channel setup.
func (h *Handler) ValidateBotToken(ctx *gin.Context) {
	var body BotTokenRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Bot token is required"})
		return
	}

	info, err := h.Telegram.ValidateBotToken(ctx.Request.Context(), strings.TrimSpace(body.BotToken))

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": info})
}

// ListBotChats returns the distinct chats recently seen by a bot, so an
// operator can discover their chat id.
func (h *Handler) ListBotChats(ctx *gin.Context) {
	var body BotTokenRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Bot token is required"})
		return
	}

	chats, err := h.Telegram.ListRecentChats(ctx.Request.Context(), strings.TrimSpace(body.BotToken))

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": chats})
}

func (h *Handler) ownedChannel(ctx *gin.Context, userID uint) (models.Channel, bool) {
	channelID, err := utils.GetParamID(ctx, "channel_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.Channel{}, false
	}

	var channel models.Channel

	if err := h.DB.Where("id = ? AND owner_id = ?", channelID, userID).First(&channel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Channel not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve channel"})
		}
		return models.Channel{}, false
	}

	return channel, true
}
