package store

import (
	"context"
	"errors"
	"fmt"

	"dripmail/models"

	"gorm.io/gorm"
)

type GormSettingsStore struct {
	db *gorm.DB
}

func NewGormSettingsStore(db *gorm.DB) *GormSettingsStore {
	return &GormSettingsStore{db: db}
}

// Settings returns the stored row, or an empty one when none was saved yet.
// Callers apply WithDefaults.
func (s *GormSettingsStore) Settings(ctx context.Context) (models.Settings, error) {
	var settings models.Settings
	err := s.db.WithContext(ctx).Order("id").First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Settings{}, nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("query settings: %w", err)
	}
	return settings, nil
}

// Save replaces the singleton row's fields.
func (s *GormSettingsStore) Save(ctx context.Context, in models.Settings) (models.Settings, error) {
	current, err := s.Settings(ctx)
	if err != nil {
		return models.Settings{}, err
	}

	current.FromName = in.FromName
	current.FromEmail = in.FromEmail
	current.CompanyName = in.CompanyName
	current.CompanyAddress = in.CompanyAddress

	if err := s.db.WithContext(ctx).Save(&current).Error; err != nil {
		return models.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return current, nil
}
