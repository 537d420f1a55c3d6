package types

// EmailConfig is the config payload for an "email" channel.
type EmailConfig struct {
	ApiKey    string `json:"api_key"`
	FromEmail string `json:"from_email"`
	ToEmail   string `json:"to_email"`
}

// TelegramConfig is the config payload for a "telegram" channel.
type TelegramConfig struct {
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
}
