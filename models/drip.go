package models

import (
	"sort"

	"gorm.io/gorm"
)

// Drip campaign statuses.
const (
	DripStatusDraft  = "draft"
	DripStatusActive = "active"
	DripStatusPaused = "paused"
)

// DripCampaign is a named sequence of timed emails sent to the contacts of
// one list, keyed on how many days ago each contact subscribed.
type DripCampaign struct {
	gorm.Model
	Name          string `gorm:"not null" json:"name"`
	ContactListID uint   `gorm:"index" json:"contact_list_id"`
	Status        string `gorm:"default:'draft';index" json:"status"` // draft, active, paused

	// Relations
	Steps []DripStep `gorm:"foreignKey:CampaignID" json:"steps"`
}

// IsActive reports whether the scheduler should consider the campaign.
func (c *DripCampaign) IsActive() bool {
	return c.Status == DripStatusActive
}

// DripStep is one email of a drip sequence. Position keeps the stored order,
// which decides ties between steps sharing the same DelayDays.
type DripStep struct {
	gorm.Model
	CampaignID uint `gorm:"not null;index" json:"campaign_id"`
	Position   int  `gorm:"not null;default:0" json:"position"`

	Subject   string `gorm:"not null" json:"subject"`
	Body      string `gorm:"type:text" json:"body"`
	DelayDays int    `gorm:"not null;default:0" json:"delay_days"`
}

// SortSteps orders steps ascending by DelayDays, keeping the relative order
// of equal delays, and renumbers Position to match.
func SortSteps(steps []DripStep) {
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].DelayDays < steps[j].DelayDays
	})
	for i := range steps {
		steps[i].Position = i
	}
}

// ValidDripStatus reports whether s is a known campaign status.
func ValidDripStatus(s string) bool {
	switch s {
	case DripStatusDraft, DripStatusActive, DripStatusPaused:
		return true
	}
	return false
}
