package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortStepsIsStable(t *testing.T) {
	steps := []DripStep{
		{Subject: "offer", DelayDays: 7},
		{Subject: "tips a", DelayDays: 3},
		{Subject: "welcome", DelayDays: 0},
		{Subject: "tips b", DelayDays: 3},
	}
	SortSteps(steps)

	var subjects []string
	for i, s := range steps {
		subjects = append(subjects, s.Subject)
		assert.Equal(t, i, s.Position)
	}
	assert.Equal(t, []string{"welcome", "tips a", "tips b", "offer"}, subjects)
}

func TestContactSubscribe(t *testing.T) {
	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	later := first.AddDate(0, 0, 10)

	c := Contact{Status: ContactUnsubscribed}
	c.Subscribe(first)
	require.NotNil(t, c.SubscribedAt)
	assert.True(t, c.IsSubscribed())
	assert.Equal(t, time.UTC, c.SubscribedAt.Location())
	assert.True(t, c.SubscribedAt.Equal(first))

	c.Subscribe(later)
	assert.True(t, c.SubscribedAt.Equal(first), "already subscribed keeps its date")

	c.Status = ContactBounced
	c.Subscribe(later)
	assert.True(t, c.SubscribedAt.Equal(later))
}

func TestSettingsWithDefaults(t *testing.T) {
	s := Settings{FromName: "Acme"}.WithDefaults()
	assert.Equal(t, "Acme", s.FromName)
	assert.Equal(t, DefaultFromEmail, s.FromEmail)
	assert.Equal(t, DefaultCompanyName, s.CompanyName)
	assert.Equal(t, DefaultCompanyAddress, s.CompanyAddress)
}

func TestContactInList(t *testing.T) {
	c := Contact{ListIDs: []uint{2, 5}}
	assert.True(t, c.InList(5))
	assert.False(t, c.InList(3))
	assert.False(t, ValidContactStatus("pending"))
	assert.True(t, ValidDripStatus(DripStatusPaused))
}
