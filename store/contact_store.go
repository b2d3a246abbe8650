package store

import (
	"context"
	"fmt"

	"dripmail/models"

	"gorm.io/gorm"
)

type GormContactStore struct {
	db *gorm.DB
}

func NewGormContactStore(db *gorm.DB) *GormContactStore {
	return &GormContactStore{db: db}
}

func (s *GormContactStore) SubscribedContacts(ctx context.Context, listID uint) ([]models.Contact, error) {
	var contacts []models.Contact
	err := s.db.WithContext(ctx).
		Joins("JOIN contact_list_memberships m ON m.contact_id = contacts.id AND m.deleted_at IS NULL").
		Where("m.contact_list_id = ? AND contacts.status = ?", listID, models.ContactSubscribed).
		Order("contacts.id").
		Find(&contacts).Error
	if err != nil {
		return nil, fmt.Errorf("query contacts of list %d: %w", listID, err)
	}

	if err := s.FillListIDs(ctx, contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// FillListIDs sets ListIDs on each contact from its current memberships.
func (s *GormContactStore) FillListIDs(ctx context.Context, contacts []models.Contact) error {
	if len(contacts) == 0 {
		return nil
	}

	ids := make([]uint, len(contacts))
	index := make(map[uint]int, len(contacts))
	for i := range contacts {
		ids[i] = contacts[i].ID
		index[contacts[i].ID] = i
	}

	var memberships []models.ContactListMembership
	if err := s.db.WithContext(ctx).Where("contact_id IN ?", ids).Order("contact_list_id").Find(&memberships).Error; err != nil {
		return fmt.Errorf("query memberships: %w", err)
	}

	for _, m := range memberships {
		i := index[m.ContactID]
		contacts[i].ListIDs = append(contacts[i].ListIDs, m.ContactListID)
	}
	return nil
}
