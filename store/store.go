// Package store holds the read side the drip scheduler depends on, and its
// gorm implementations.
package store

import (
	"context"

	"dripmail/models"

	"gorm.io/gorm"
)

// CampaignStore returns drip campaign definitions.
type CampaignStore interface {
	// ActiveCampaigns returns every campaign with status active, steps
	// included in stored order.
	ActiveCampaigns(ctx context.Context) ([]models.DripCampaign, error)
}

// ContactStore returns campaign audiences.
type ContactStore interface {
	// SubscribedContacts returns the subscribed contacts that are members of
	// listID, with ListIDs populated.
	SubscribedContacts(ctx context.Context, listID uint) ([]models.Contact, error)
}

// SettingsStore returns the sender identity and footer details.
type SettingsStore interface {
	Settings(ctx context.Context) (models.Settings, error)
}

// Storage groups the gorm-backed stores.
type Storage struct {
	Campaigns *GormCampaignStore
	Contacts  *GormContactStore
	Settings  *GormSettingsStore
}

func NewGormStorage(db *gorm.DB) *Storage {
	return &Storage{
		Campaigns: NewGormCampaignStore(db),
		Contacts:  NewGormContactStore(db),
		Settings:  NewGormSettingsStore(db),
	}
}
