package handlers

import (
	"log/slog"

	"github.com/signalhub-dev/signalhub/internal/apikey"
	"github.com/signalhub-dev/signalhub/internal/dispatch"
	"github.com/signalhub-dev/signalhub/internal/senders"
	"gorm.io/gorm"
)

// Handler carries the shared dependencies for all HTTP handlers. The database
// handle is injected here once at startup rather than accessed as a global.
type Handler struct {
	DB         *gorm.DB
	Validator  *apikey.Validator
	Dispatcher *dispatch.Dispatcher
	Senders    *senders.Registry
	Telegram   *senders.TelegramClient
}

func New(conn *gorm.DB, registry *senders.Registry, telegram *senders.TelegramClient, logger *slog.Logger) *Handler {
	return &Handler{
		DB:         conn,
		Validator:  apikey.NewValidator(conn, logger),
		Dispatcher: dispatch.NewDispatcher(conn, registry, logger),
		Senders:    registry,
		Telegram:   telegram,
	}
}
