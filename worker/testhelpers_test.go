package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"dripmail/models"
	"dripmail/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeCampaigns struct {
	campaigns []models.DripCampaign
	err       error
}

func (f *fakeCampaigns) ActiveCampaigns(context.Context) ([]models.DripCampaign, error) {
	return f.campaigns, f.err
}

type fakeContacts struct {
	byList map[uint][]models.Contact
	errFor map[uint]error
}

func (f *fakeContacts) SubscribedContacts(_ context.Context, listID uint) ([]models.Contact, error) {
	if err := f.errFor[listID]; err != nil {
		return nil, err
	}
	return f.byList[listID], nil
}

type fakeSettings struct {
	settings models.Settings
	err      error
}

func (f *fakeSettings) Settings(context.Context) (models.Settings, error) {
	return f.settings, f.err
}

// fakeTransport records every email and fails for the addresses in failFor.
type fakeTransport struct {
	mu      sync.Mutex
	sent    []*utils.OutgoingEmail
	failFor map[string]error
}

func (f *fakeTransport) Send(_ context.Context, email *utils.OutgoingEmail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[email.To[0]]; err != nil {
		return err
	}
	f.sent = append(f.sent, email)
	return nil
}

func (f *fakeTransport) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, e := range f.sent {
		out = append(out, e.To[0])
	}
	return out
}

type memoryLedger struct {
	mu      sync.Mutex
	entries map[string]time.Time
	hasErr  error
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{entries: map[string]time.Time{}}
}

func (l *memoryLedger) Has(_ context.Context, key SendKey) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.hasErr != nil {
		return false, l.hasErr
	}
	_, ok := l.entries[key.String()]
	return ok, nil
}

func (l *memoryLedger) Mark(_ context.Context, key SendKey, sentAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[key.String()] = sentAt
	return nil
}

var errSMTPDown = errors.New("smtp: 421 service not available")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func daysAgo(now time.Time, days int) *time.Time {
	t := now.AddDate(0, 0, -days)
	return &t
}

func step(id uint, delay int, subject string) models.DripStep {
	s := models.DripStep{DelayDays: delay, Subject: subject, Body: fmt.Sprintf("<p>Hi [FirstName], %s</p>", subject)}
	s.ID = id
	return s
}

func campaign(id, listID uint, status string, steps ...models.DripStep) models.DripCampaign {
	c := models.DripCampaign{Name: fmt.Sprintf("campaign-%d", id), ContactListID: listID, Status: status, Steps: steps}
	c.ID = id
	return c
}

func contact(id uint, email string, subscribedAt *time.Time, lists ...uint) models.Contact {
	c := models.Contact{
		Email:        email,
		FirstName:    "Ana",
		Status:       models.ContactSubscribed,
		SubscribedAt: subscribedAt,
		ListIDs:      lists,
	}
	c.ID = id
	return c
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
