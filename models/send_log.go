package models

import "time"

// SendLog records one successful drip send. The unique key makes a second
// send of the same step to the same contact on the same UTC day detectable.
type SendLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	CampaignID uint      `gorm:"not null;uniqueIndex:idx_send_log_key" json:"campaign_id"`
	ContactID  uint      `gorm:"not null;uniqueIndex:idx_send_log_key" json:"contact_id"`
	DelayDays  int       `gorm:"not null;uniqueIndex:idx_send_log_key" json:"delay_days"`
	SendDate   string    `gorm:"size:10;not null;uniqueIndex:idx_send_log_key" json:"send_date"` // YYYY-MM-DD, UTC
	SentAt     time.Time `gorm:"not null" json:"sent_at"`
}
