package apikey

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/signalhub-dev/signalhub/internal/models"
	"gorm.io/gorm"
)

// KeyPrefix marks ingestion secrets so they are recognizable in logs and
// client configs.
const KeyPrefix = "sh_sk_"

var ErrInvalidKey = errors.New("invalid api key")

// GenerateKey creates a new ingestion secret: prefix + 32 random hex chars.
func GenerateKey() (string, error) {
	bytes := make([]byte, 16)

	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	return KeyPrefix + hex.EncodeToString(bytes), nil
}

// Validator maps ingestion secrets to their owning project.
type Validator struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewValidator(conn *gorm.DB, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Validator{db: conn, log: logger}
}

// Validate looks up a secret by exact match and returns the key with its
// project. Any miss, including malformed input, is ErrInvalidKey. A
// successful lookup touches the key's last-used timestamp best-effort:
// a failed touch is logged, never surfaced.
func (v *Validator) Validate(secret string) (models.ApiKey, models.Project, error) {
	if secret == "" {
		return models.ApiKey{}, models.Project{}, ErrInvalidKey
	}

	var key models.ApiKey

	err := v.db.Preload("Project").Where("key = ?", secret).First(&key).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ApiKey{}, models.Project{}, ErrInvalidKey
		}
		return models.ApiKey{}, models.Project{}, err
	}

	now := time.Now()

	if err := v.db.Model(&models.ApiKey{}).Where("id = ?", key.ID).Update("last_used_at", now).Error; err != nil {
		v.log.Warn("failed to touch api key last_used_at", "api_key_id", key.ID, "error", err)
	} else {
		key.LastUsedAt = &now
	}

	return key, key.Project, nil
}
