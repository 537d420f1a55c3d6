package senders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/signalhub-dev/signalhub/internal/models"
	"github.com/signalhub-dev/signalhub/internal/types"
	"gorm.io/datatypes"
)

const DefaultTelegramBaseURL = "https://api.telegram.org"

// TelegramClient talks to the Telegram Bot API with per-call bot tokens.
type TelegramClient struct {
	baseURL string
	http    *http.Client
}

func NewTelegramClient() *TelegramClient {
	return NewTelegramClientWithBaseURL(DefaultTelegramBaseURL)
}

func NewTelegramClientWithBaseURL(baseURL string) *TelegramClient {
	return &TelegramClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type telegramResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (c *TelegramClient) call(ctx context.Context, token, method string, payload interface{}) (*telegramResponse, error) {
	if payload == nil {
		payload = struct{}{}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, token, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed telegramResponse

	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("unexpected telegram response: %w", err)
	}

	return &parsed, nil
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage posts a MarkdownV2 message to a chat.
func (c *TelegramClient) SendMessage(ctx context.Context, token, chatID, text string) error {
	resp, err := c.call(ctx, token, "sendMessage", sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "MarkdownV2",
	})

	if err != nil {
		return err
	}

	if !resp.OK {
		if resp.Description != "" {
			return errors.New(resp.Description)
		}
		return errors.New("Telegram API error")
	}

	return nil
}

type BotInfo struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// ValidateBotToken calls getMe and returns the bot's identity.
func (c *TelegramClient) ValidateBotToken(ctx context.Context, token string) (BotInfo, error) {
	resp, err := c.call(ctx, token, "getMe", nil)

	if err != nil {
		return BotInfo{}, err
	}

	if !resp.OK || resp.Result == nil {
		if resp.Description != "" {
			return BotInfo{}, errors.New(resp.Description)
		}
		return BotInfo{}, errors.New("invalid bot token")
	}

	var info BotInfo

	if err := json.Unmarshal(resp.Result, &info); err != nil {
		return BotInfo{}, fmt.Errorf("unexpected getMe result: %w", err)
	}

	return info, nil
}

type ChatInfo struct {
	ChatID string `json:"chat_id"`
	Name   string `json:"name"`
	Kind   string `json:"type"`
}

type getUpdatesRequest struct {
	Limit int `json:"limit"`
}

type update struct {
	Message *struct {
		Chat struct {
			ID        int64  `json:"id"`
			FirstName string `json:"first_name"`
			Title     string `json:"title"`
			Type      string `json:"type"`
		} `json:"chat"`
	} `json:"message"`
}

// ListRecentChats polls the bot's update feed (most recent 100 updates) and
// returns the distinct chats seen in incoming messages, first-seen order.
// Lets an operator discover their chat id without manual lookup.
func (c *TelegramClient) ListRecentChats(ctx context.Context, token string) ([]ChatInfo, error) {
	resp, err := c.call(ctx, token, "getUpdates", getUpdatesRequest{Limit: 100})

	if err != nil {
		return nil, err
	}

	if !resp.OK || resp.Result == nil {
		return []ChatInfo{}, nil
	}

	var updates []update

	if err := json.Unmarshal(resp.Result, &updates); err != nil {
		return nil, fmt.Errorf("unexpected getUpdates result: %w", err)
	}

	seen := make(map[string]bool)
	chats := make([]ChatInfo, 0, len(updates))

	for _, u := range updates {
		if u.Message == nil {
			continue
		}

		chat := u.Message.Chat
		chatID := fmt.Sprintf("%d", chat.ID)

		if seen[chatID] {
			continue
		}
		seen[chatID] = true

		name := chat.Title
		if name == "" {
			name = chat.FirstName
		}
		if name == "" {
			name = chatID
		}

		chats = append(chats, ChatInfo{ChatID: chatID, Name: name, Kind: chat.Type})
	}

	return chats, nil
}

// TelegramSender delivers events as MarkdownV2 bot messages using the
// channel's stored bot token and target chat id.
type TelegramSender struct {
	client *TelegramClient
}

func NewTelegramSender(client *TelegramClient) *TelegramSender {
	return &TelegramSender{client: client}
}

func (s *TelegramSender) Kind() string {
	return models.ChannelKindTelegram
}

func (s *TelegramSender) Send(ctx context.Context, config datatypes.JSON, event models.Event) error {
	var cfg types.TelegramConfig

	if err := json.Unmarshal(config, &cfg); err != nil {
		return fmt.Errorf("invalid telegram channel config: %w", err)
	}

	return s.client.SendMessage(ctx, cfg.BotToken, cfg.ChatID, TelegramMessage(event))
}

// TelegramMessage renders an event as MarkdownV2: bold title, italic
// category, optional description, metadata as a fenced json block.
func TelegramMessage(event models.Event) string {
	lines := []string{
		"*" + EscapeMarkdown(event.Title) + "*",
		"_" + EscapeMarkdown(event.Category) + "_",
	}

	if event.Description != "" {
		lines = append(lines, "", EscapeMarkdown(event.Description))
	}

	if metadata := prettyMetadata(event.Metadata); metadata != "" {
		lines = append(lines, "", "```json\n"+metadata+"\n```")
	}

	return strings.Join(lines, "\n")
}

// EscapeMarkdown escapes every character the MarkdownV2 dialect reserves, so
// user-supplied text cannot malform the message.
func EscapeMarkdown(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		switch r {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}

	return b.String()
}
