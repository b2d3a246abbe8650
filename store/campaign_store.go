package store

import (
	"context"
	"fmt"

	"dripmail/models"

	"gorm.io/gorm"
)

type GormCampaignStore struct {
	db *gorm.DB
}

func NewGormCampaignStore(db *gorm.DB) *GormCampaignStore {
	return &GormCampaignStore{db: db}
}

func (s *GormCampaignStore) ActiveCampaigns(ctx context.Context) ([]models.DripCampaign, error) {
	var campaigns []models.DripCampaign
	err := s.db.WithContext(ctx).
		Preload("Steps", orderSteps).
		Where("status = ?", models.DripStatusActive).
		Order("id").
		Find(&campaigns).Error
	if err != nil {
		return nil, fmt.Errorf("query active campaigns: %w", err)
	}
	return campaigns, nil
}

// Get loads one campaign with its steps.
func (s *GormCampaignStore) Get(ctx context.Context, id uint) (*models.DripCampaign, error) {
	var campaign models.DripCampaign
	if err := s.db.WithContext(ctx).Preload("Steps", orderSteps).First(&campaign, id).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

func orderSteps(db *gorm.DB) *gorm.DB {
	return db.Order("position, id")
}
