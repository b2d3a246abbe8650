package controller

import (
	"dripmail/models"
	"dripmail/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UpdateCampaign replaces a campaign's name, list, status and steps. Steps
// are stored sorted by delay; an empty status keeps the current one.
func (cc *CampaignController) UpdateCampaign(c *fiber.Ctx) error {
	var input campaignInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	campaign, err := cc.findCampaign(c)
	if err != nil {
		return campaignLookupError(c, err)
	}

	campaign.Name = input.Name
	campaign.ContactListID = input.ContactListID
	if input.Status != "" {
		campaign.Status = input.Status
	}
	steps := input.toSteps()
	campaign.Steps = steps

	if campaign.IsActive() {
		if err := cc.checkActivatable(campaign); err != nil {
			return activationError(c, err)
		}
	}

	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("campaign_id = ?", campaign.ID).Delete(&models.DripStep{}).Error; err != nil {
			return err
		}
		if err := tx.Omit("Steps").Save(campaign).Error; err != nil {
			return err
		}
		for i := range steps {
			steps[i].CampaignID = campaign.ID
		}
		if len(steps) > 0 {
			return tx.Create(&steps).Error
		}
		return nil
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update campaign", err)
	}

	campaign.Steps = steps
	return c.JSON(utils.SuccessResponse(campaign))
}

// ActivateCampaign makes the scheduler pick the campaign up on its next run
func (cc *CampaignController) ActivateCampaign(c *fiber.Ctx) error {
	campaign, err := cc.findCampaign(c)
	if err != nil {
		return campaignLookupError(c, err)
	}
	if err := cc.checkActivatable(campaign); err != nil {
		return activationError(c, err)
	}
	return cc.setStatus(c, campaign, models.DripStatusActive)
}

// PauseCampaign stops the scheduler from considering the campaign
func (cc *CampaignController) PauseCampaign(c *fiber.Ctx) error {
	campaign, err := cc.findCampaign(c)
	if err != nil {
		return campaignLookupError(c, err)
	}
	return cc.setStatus(c, campaign, models.DripStatusPaused)
}

func (cc *CampaignController) setStatus(c *fiber.Ctx, campaign *models.DripCampaign, status string) error {
	if err := cc.DB.Model(campaign).Update("status", status).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update campaign status", err)
	}
	campaign.Status = status

	utils.LogEvent("drip_campaign_status", map[string]interface{}{
		"campaign_id": campaign.ID,
		"status":      status,
	})
	return c.JSON(utils.SuccessResponse(campaign))
}
