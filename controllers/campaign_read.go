package controller

import (
	"dripmail/models"
	"dripmail/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetCampaigns lists campaigns with their steps, optionally by status
func (cc *CampaignController) GetCampaigns(c *fiber.Ctx) error {
	query := cc.DB.Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("position, id")
	})

	if status := c.Query("status"); status != "" {
		if !models.ValidDripStatus(status) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid status", nil)
		}
		query = query.Where("status = ?", status)
	}

	var campaigns []models.DripCampaign
	if err := query.Order("id").Find(&campaigns).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch campaigns", err)
	}

	return c.JSON(utils.SuccessResponse(campaigns))
}

func (cc *CampaignController) GetCampaign(c *fiber.Ctx) error {
	campaign, err := cc.findCampaign(c)
	if err != nil {
		return campaignLookupError(c, err)
	}
	return c.JSON(utils.SuccessResponse(campaign))
}
