package models

import (
	"time"

	"gorm.io/gorm"
)

// Contact statuses.
const (
	ContactSubscribed   = "subscribed"
	ContactUnsubscribed = "unsubscribed"
	ContactBounced      = "bounced"
)

// ContactList represents a named audience of contacts
type ContactList struct {
	gorm.Model
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`

	// Relations
	Memberships []ContactListMembership `gorm:"foreignKey:ContactListID" json:"-"`
}

// Contact represents a single recipient
type Contact struct {
	gorm.Model
	Email     string `gorm:"not null;uniqueIndex" json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	Status       string     `gorm:"default:'subscribed';index" json:"status"` // subscribed, unsubscribed, bounced
	SubscribedAt *time.Time `json:"subscribed_at"`
	Source       string     `json:"source"` // manual, csv, form

	// ListIDs is filled from memberships by the stores, it is not a column.
	ListIDs []uint `gorm:"-" json:"list_ids"`

	// Relations
	Memberships []ContactListMembership `gorm:"foreignKey:ContactID" json:"-"`
}

// IsSubscribed reports whether the contact may receive campaign mail.
func (c *Contact) IsSubscribed() bool {
	return c.Status == ContactSubscribed
}

// InList reports whether listID is one of the contact's lists.
func (c *Contact) InList(listID uint) bool {
	for _, id := range c.ListIDs {
		if id == listID {
			return true
		}
	}
	return false
}

// ContactListMembership joins contacts to lists
type ContactListMembership struct {
	gorm.Model
	ContactID     uint `gorm:"not null;uniqueIndex:idx_contact_list" json:"contact_id"`
	ContactListID uint `gorm:"not null;uniqueIndex:idx_contact_list;index" json:"contact_list_id"`
}

// ValidContactStatus reports whether s is a known contact status.
func ValidContactStatus(s string) bool {
	switch s {
	case ContactSubscribed, ContactUnsubscribed, ContactBounced:
		return true
	}
	return false
}

// Subscribe marks the contact subscribed. A contact that was not subscribed
// gets a new SubscribedAt, restarting its drip sequences.
func (c *Contact) Subscribe(now time.Time) {
	if c.IsSubscribed() && c.SubscribedAt != nil {
		return
	}
	c.Status = ContactSubscribed
	t := now.UTC()
	c.SubscribedAt = &t
}
