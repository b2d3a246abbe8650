package worker

import (
	"context"
	"fmt"
	"time"

	"dripmail/models"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SendKey identifies one step sent to one contact on one UTC calendar date.
type SendKey struct {
	CampaignID uint
	ContactID  uint
	DelayDays  int
	Date       string
}

func (k SendKey) String() string {
	return fmt.Sprintf("drip:sent:%d:%d:%d:%s", k.CampaignID, k.ContactID, k.DelayDays, k.Date)
}

// SendLedger remembers which sends already happened so a second run on the
// same day does not repeat them.
type SendLedger interface {
	Has(ctx context.Context, key SendKey) (bool, error)
	Mark(ctx context.Context, key SendKey, sentAt time.Time) error
}

type DBSendLedger struct {
	db *gorm.DB
}

func NewDBSendLedger(db *gorm.DB) *DBSendLedger {
	return &DBSendLedger{db: db}
}

func (l *DBSendLedger) Has(ctx context.Context, key SendKey) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&models.SendLog{}).
		Where("campaign_id = ? AND contact_id = ? AND delay_days = ? AND send_date = ?",
			key.CampaignID, key.ContactID, key.DelayDays, key.Date).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check send log: %w", err)
	}
	return count > 0, nil
}

func (l *DBSendLedger) Mark(ctx context.Context, key SendKey, sentAt time.Time) error {
	entry := models.SendLog{
		CampaignID: key.CampaignID,
		ContactID:  key.ContactID,
		DelayDays:  key.DelayDays,
		SendDate:   key.Date,
		SentAt:     sentAt,
	}
	err := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("write send log: %w", err)
	}
	return nil
}

// DefaultLedgerTTL keeps redis ledger keys past the end of their UTC day.
const DefaultLedgerTTL = 48 * time.Hour

type RedisSendLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSendLedger(client *redis.Client, ttl time.Duration) *RedisSendLedger {
	if ttl <= 0 {
		ttl = DefaultLedgerTTL
	}
	return &RedisSendLedger{client: client, ttl: ttl}
}

func (l *RedisSendLedger) Has(ctx context.Context, key SendKey) (bool, error) {
	n, err := l.client.Exists(ctx, key.String()).Result()
	if err != nil {
		return false, fmt.Errorf("check send ledger: %w", err)
	}
	return n > 0, nil
}

func (l *RedisSendLedger) Mark(ctx context.Context, key SendKey, sentAt time.Time) error {
	if err := l.client.Set(ctx, key.String(), sentAt.UTC().Format(time.RFC3339), l.ttl).Err(); err != nil {
		return fmt.Errorf("write send ledger: %w", err)
	}
	return nil
}
