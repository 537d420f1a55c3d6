package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/signalhub-dev/signalhub/internal/models"
	"github.com/signalhub-dev/signalhub/internal/senders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&models.User{}, &models.Project{}, &models.ApiKey{}, &models.Channel{},
		&models.Event{}, &models.NotificationRule{}, &models.Notification{},
	))

	return conn
}

func seedProject(t *testing.T, conn *gorm.DB) models.Project {
	t.Helper()

	user := models.User{Name: "Owner", Email: "owner@example.com", PasswordHash: "x"}
	require.NoError(t, conn.Create(&user).Error)

	project := models.Project{Name: "Production", OwnerID: user.ID}
	require.NoError(t, conn.Create(&project).Error)

	return project
}

func seedChannel(t *testing.T, conn *gorm.DB, ownerID uint, kind, name string, enabled bool) models.Channel {
	t.Helper()

	channel := models.Channel{
		OwnerID: ownerID,
		Kind:    kind,
		Name:    name,
		Config:  datatypes.JSON(`{"marker":"` + name + `"}`),
		Enabled: true,
	}
	require.NoError(t, conn.Create(&channel).Error)

	if !enabled {
		require.NoError(t, conn.Model(&channel).Update("enabled", false).Error)
	}

	return channel
}

func seedRule(t *testing.T, conn *gorm.DB, projectID, channelID uint, category string) {
	t.Helper()

	rule := models.NotificationRule{ProjectID: projectID, ChannelID: channelID, Category: category}
	require.NoError(t, conn.Create(&rule).Error)
}

// fakeSender records the configs it was invoked with and can be primed to
// fail or panic.
type fakeSender struct {
	kind    string
	err     error
	panics  bool
	configs []string
}

func (s *fakeSender) Kind() string { return s.kind }

func (s *fakeSender) Send(ctx context.Context, config datatypes.JSON, event models.Event) error {
	if s.panics {
		panic("sender exploded")
	}

	s.configs = append(s.configs, string(config))
	return s.err
}

func TestMatcherWildcardAndExact(t *testing.T) {
	conn := openTestDB(t)
	project := seedProject(t, conn)

	c1 := seedChannel(t, conn, project.OwnerID, models.ChannelKindTelegram, "c1", true)
	c2 := seedChannel(t, conn, project.OwnerID, models.ChannelKindEmail, "c2", true)

	seedRule(t, conn, project.ID, c1.ID, models.CategoryWildcard)
	seedRule(t, conn, project.ID, c2.ID, "deploy")

	matcher := NewMatcher(conn)

	matched, err := matcher.Match(project.ID, "deploy")
	require.NoError(t, err)
	require.Len(t, matched, 2)

	matched, err = matcher.Match(project.ID, "default")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, c1.ID, matched[0].ChannelID)
}

func TestMatcherDedupsByChannel(t *testing.T) {
	conn := openTestDB(t)
	project := seedProject(t, conn)

	channel := seedChannel(t, conn, project.OwnerID, models.ChannelKindEmail, "c1", true)

	// the same channel is reachable via a wildcard and an exact rule
	seedRule(t, conn, project.ID, channel.ID, models.CategoryWildcard)
	seedRule(t, conn, project.ID, channel.ID, "deploy")

	matcher := NewMatcher(conn)

	matched, err := matcher.Match(project.ID, "deploy")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, channel.ID, matched[0].ChannelID)
}

func TestMatcherSkipsDisabledChannels(t *testing.T) {
	conn := openTestDB(t)
	project := seedProject(t, conn)

	channel := seedChannel(t, conn, project.OwnerID, models.ChannelKindEmail, "c1", false)
	seedRule(t, conn, project.ID, channel.ID, models.CategoryWildcard)

	matcher := NewMatcher(conn)

	matched, err := matcher.Match(project.ID, "deploy")
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestMatcherScopedToProject(t *testing.T) {
	conn := openTestDB(t)
	project := seedProject(t, conn)

	other := models.Project{Name: "Other", OwnerID: project.OwnerID}
	require.NoError(t, conn.Create(&other).Error)

	channel := seedChannel(t, conn, project.OwnerID, models.ChannelKindEmail, "c1", true)
	seedRule(t, conn, other.ID, channel.ID, models.CategoryWildcard)

	matcher := NewMatcher(conn)

	matched, err := matcher.Match(project.ID, "deploy")
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func seedEvent(t *testing.T, conn *gorm.DB, projectID uint, category string) models.Event {
	t.Helper()

	event := models.Event{
		ProjectID: projectID,
		Category:  category,
		Title:     "Deploy ok",
		Metadata:  datatypes.JSON("{}"),
	}
	require.NoError(t, conn.Create(&event).Error)

	return event
}

func loadRecords(t *testing.T, conn *gorm.DB, eventID uint) []models.Notification {
	t.Helper()

	var records []models.Notification
	require.NoError(t, conn.Where("event_id = ?", eventID).Order("channel_id").Find(&records).Error)

	return records
}

func TestDispatchCreatesOneTerminalRecordPerChannel(t *testing.T) {
	conn := openTestDB(t)
	project := seedProject(t, conn)

	c1 := seedChannel(t, conn, project.OwnerID, models.ChannelKindTelegram, "c1", true)
	c2 := seedChannel(t, conn, project.OwnerID, models.ChannelKindEmail, "c2", true)

	seedRule(t, conn, project.ID, c1.ID, models.CategoryWildcard)
	seedRule(t, conn, project.ID, c2.ID, "deploy")

	telegram := &fakeSender{kind: models.ChannelKindTelegram}
	email := &fakeSender{kind: models.ChannelKindEmail}

	dispatcher := NewDispatcher(conn, senders.NewRegistry(telegram, email), nil)

	event := seedEvent(t, conn, project.ID, "deploy")
	require.NoError(t, dispatcher.Dispatch(context.Background(), event))

	records := loadRecords(t, conn, event.ID)
	require.Len(t, records, 2)

	for _, record := range records {
		assert.Equal(t, models.NotificationSent, record.Status)
		assert.NotNil(t, record.SentAt)
		assert.Empty(t, record.Error)
	}

	assert.Len(t, telegram.configs, 1)
	assert.Len(t, email.configs, 1)
}

func TestDispatchDefaultCategoryOnlyMatchesWildcard(t *testing.T) {
	conn := openTestDB(t)
	project := seedProject(t, conn)

	c1 := seedChannel(t, conn, project.OwnerID, models.ChannelKindTelegram, "c1", true)
	c2 := seedChannel(t, conn, project.OwnerID, models.ChannelKindEmail, "c2", true)

	seedRule(t, conn, project.ID, c1.ID, models.CategoryWildcard)
	seedRule(t, conn, project.ID, c2.ID, "deploy")

	telegram := &fakeSender{kind: models.ChannelKindTelegram}
	email := &fakeSender{kind: models.ChannelKindEmail}

	dispatcher := NewDispatcher(conn, senders.NewRegistry(telegram, email), nil)

	event := seedEvent(t, conn, project.ID, models.DefaultCategory)
	require.NoError(t, dispatcher.Dispatch(context.Background(), event))

	records := loadRecords(t, conn, event.ID)
	require.Len(t, records, 1)
	assert.Equal(t, c1.ID, records[0].ChannelID)
	assert.Empty(t, email.configs)
}

func TestDispatchFailureIsolatedPerChannel(t *testing.T) {
	conn := openTestDB(t)
	project := seedProject(t, conn)

	c1 := seedChannel(t, conn, project.OwnerID, models.ChannelKindTelegram, "c1", true)
	c2 := seedChannel(t, conn, project.OwnerID, models.ChannelKindEmail, "c2", true)

	seedRule(t, conn, project.ID, c1.ID, models.CategoryWildcard)
	seedRule(t, conn, project.ID, c2.ID, models.CategoryWildcard)

	telegram := &fakeSender{kind: models.ChannelKindTelegram, err: errors.New("chat not found")}
	email := &fakeSender{kind: models.ChannelKindEmail}

	dispatcher := NewDispatcher(conn, senders.NewRegistry(telegram, email), nil)

	event := seedEvent(t, conn, project.ID, "deploy")
	require.NoError(t, dispatcher.Dispatch(context.Background(), event))

	records := loadRecords(t, conn, event.ID)
	require.Len(t, records, 2)

	byChannel := map[uint]models.Notification{}
	for _, record := range records {
		byChannel[record.ChannelID] = record
	}

	failed := byChannel[c1.ID]
	assert.Equal(t, models.NotificationFailed, failed.Status)
	assert.Equal(t, "chat not found", failed.Error)
	assert.Nil(t, failed.SentAt)

	sent := byChannel[c2.ID]
	assert.Equal(t, models.NotificationSent, sent.Status)
	assert.NotNil(t, sent.SentAt)
}

func TestDispatchRecoversSenderPanic(t *testing.T) {
	conn := openTestDB(t)
	project := seedProject(t, conn)

	channel := seedChannel(t, conn, project.OwnerID, models.ChannelKindEmail, "c1", true)
	seedRule(t, conn, project.ID, channel.ID, models.CategoryWildcard)

	email := &fakeSender{kind: models.ChannelKindEmail, panics: true}

	dispatcher := NewDispatcher(conn, senders.NewRegistry(email), nil)

	event := seedEvent(t, conn, project.ID, "deploy")
	require.NoError(t, dispatcher.Dispatch(context.Background(), event))

	records := loadRecords(t, conn, event.ID)
	require.Len(t, records, 1)
	assert.Equal(t, models.NotificationFailed, records[0].Status)
	assert.Contains(t, records[0].Error, "sender panic")
}

func TestDispatchUnknownKindRecordedAsFailure(t *testing.T) {
	conn := openTestDB(t)
	project := seedProject(t, conn)

	channel := seedChannel(t, conn, project.OwnerID, models.ChannelKindTelegram, "c1", true)
	seedRule(t, conn, project.ID, channel.ID, models.CategoryWildcard)

	dispatcher := NewDispatcher(conn, senders.NewRegistry(), nil)

	event := seedEvent(t, conn, project.ID, "deploy")
	require.NoError(t, dispatcher.Dispatch(context.Background(), event))

	records := loadRecords(t, conn, event.ID)
	require.Len(t, records, 1)
	assert.Equal(t, models.NotificationFailed, records[0].Status)
	assert.Contains(t, records[0].Error, "no sender registered")
}

func TestDispatchNoMatchesCreatesNoRecords(t *testing.T) {
	conn := openTestDB(t)
	project := seedProject(t, conn)

	dispatcher := NewDispatcher(conn, senders.NewRegistry(), nil)

	event := seedEvent(t, conn, project.ID, "deploy")
	require.NoError(t, dispatcher.Dispatch(context.Background(), event))

	assert.Empty(t, loadRecords(t, conn, event.ID))
}
