package dispatch

import (
	"github.com/signalhub-dev/signalhub/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MatchedChannel is a channel selected for fanout by at least one rule.
type MatchedChannel struct {
	ChannelID uint
	Kind      string
	Name      string
	Config    datatypes.JSON
}

// Matcher selects the channels an event fans out to.
type Matcher struct {
	db *gorm.DB
}

func NewMatcher(conn *gorm.DB) *Matcher {
	return &Matcher{db: conn}
}

// Match returns the enabled channels reachable from the project's rules for
// this category (wildcard or exact), deduplicated by channel id. A channel
// matched by several rules appears once: at most one delivery per channel
// per event.
func (m *Matcher) Match(projectID uint, category string) ([]MatchedChannel, error) {
	var rows []MatchedChannel

	err := m.db.Table("notification_rules").
		Select("channels.id AS channel_id, channels.kind, channels.name, channels.config").
		Joins("JOIN channels ON channels.id = notification_rules.channel_id").
		Where("notification_rules.project_id = ?", projectID).
		Where("notification_rules.category = ? OR notification_rules.category = ?", models.CategoryWildcard, category).
		Where("channels.enabled = ?", true).
		Where("notification_rules.deleted_at IS NULL").
		Where("channels.deleted_at IS NULL").
		Scan(&rows).Error

	if err != nil {
		return nil, err
	}

	seen := make(map[uint]bool, len(rows))
	matched := make([]MatchedChannel, 0, len(rows))

	for _, row := range rows {
		if seen[row.ChannelID] {
			continue
		}
		seen[row.ChannelID] = true
		matched = append(matched, row)
	}

	return matched, nil
}
