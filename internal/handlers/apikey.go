package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/signalhub-dev/signalhub/internal/apikey"
	"github.com/signalhub-dev/signalhub/internal/models"
	"github.com/signalhub-dev/signalhub/internal/utils"
	"gorm.io/gorm"
)

type CreateApiKeyRequest struct {
	Name string `json:"name"`
}

type ApiKeyResponse struct {
	ID         uint       `json:"id"`
	ProjectID  uint       `json:"project_id"`
	Key        string     `json:"key"`
	Name       string     `json:"name"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func apiKeyResponse(key models.ApiKey) ApiKeyResponse {
	return ApiKeyResponse{
		ID:         key.ID,
		ProjectID:  key.ProjectID,
		Key:        key.Key,
		Name:       key.Name,
		LastUsedAt: key.LastUsedAt,
		CreatedAt:  key.CreatedAt,
	}
}

func (h *Handler) ListApiKeys(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := h.ownedProject(ctx, userID)

	if !ok {
		return
	}

	var keys []models.ApiKey

	if err := h.DB.Where("project_id = ?", project.ID).Order("created_at DESC").Find(&keys).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve API keys"})
		return
	}

	response := make([]ApiKeyResponse, 0, len(keys))

	for _, key := range keys {
		response = append(response, apiKeyResponse(key))
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *Handler) CreateApiKey(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := h.ownedProject(ctx, userID)

	if !ok {
		return
	}

	var body CreateApiKeyRequest

	// Body is optional; an empty body means the default key name.
	_ = ctx.ShouldBindJSON(&body)

	secret, err := apikey.GenerateKey()

	if err != nil {
		log.Printf("Failed to generate API key: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	name := body.Name
	if name == "" {
		name = "Default"
	}

	key := models.ApiKey{
		ProjectID: project.ID,
		Key:       secret,
		Name:      name,
	}

	if err := h.DB.Create(&key).Error; err != nil {
		log.Printf("Failed to create API key: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create API key"})
		return
	}

	ctx.JSON(http.StatusCreated, apiKeyResponse(key))
}

func (h *Handler) DeleteApiKey(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := h.ownedProject(ctx, userID)

	if !ok {
		return
	}

	keyID, err := utils.GetParamID(ctx, "key_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var key models.ApiKey

	if err := h.DB.Where("id = ? AND project_id = ?", keyID, project.ID).First(&key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "API key not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve API key"})
		}
		return
	}

	// Revocation is deletion: the secret must stop validating immediately.
	if err := h.DB.Unscoped().Delete(&key).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete API key"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
