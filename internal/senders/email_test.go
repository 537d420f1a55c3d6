package senders

import (
	"testing"
	"time"

	"github.com/signalhub-dev/signalhub/internal/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestEmailSubject(t *testing.T) {
	event := models.Event{Category: "deploy", Title: "Deploy ok"}
	assert.Equal(t, "[deploy] Deploy ok", EmailSubject(event))
}

func TestEmailBody(t *testing.T) {
	event := models.Event{
		Category:    "deploy",
		Title:       "Deploy <ok>",
		Description: "v1.2 is live",
		Metadata:    datatypes.JSON(`{"version":"1.2"}`),
	}
	event.CreatedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	body := EmailBody(event)

	assert.Contains(t, body, "Deploy &lt;ok&gt;")
	assert.Contains(t, body, "deploy &middot; 2024-05-01 12:00:00 UTC")
	assert.Contains(t, body, "v1.2 is live")
	assert.Contains(t, body, "<pre")
	assert.Contains(t, body, "&#34;version&#34;")
}

func TestEmailBodyNoDescriptionNoMetadata(t *testing.T) {
	event := models.Event{Category: "default", Title: "hello", Metadata: datatypes.JSON(`{}`)}

	body := EmailBody(event)

	assert.NotContains(t, body, "<pre")
	assert.NotContains(t, body, `<p style="margin:16px 0">`)
}

func TestEmailSenderKind(t *testing.T) {
	assert.Equal(t, models.ChannelKindEmail, NewEmailSender().Kind())
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry(NewEmailSender())

	sender, err := registry.Get(models.ChannelKindEmail)
	assert.NoError(t, err)
	assert.NotNil(t, sender)

	_, err = registry.Get("pigeon")
	assert.Error(t, err)
}
