package controller

import (
	"dripmail/models"
	"dripmail/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DeleteCampaign deletes a campaign together with its steps
func (cc *CampaignController) DeleteCampaign(c *fiber.Ctx) error {
	campaign, err := cc.findCampaign(c)
	if err != nil {
		return campaignLookupError(c, err)
	}

	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("campaign_id = ?", campaign.ID).Delete(&models.DripStep{}).Error; err != nil {
			return err
		}
		return tx.Delete(campaign).Error
	})
	if err != nil {
		cc.Logger.WithError(err).WithField("campaign_id", campaign.ID).Error("Failed to delete campaign")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete campaign", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message": "Campaign deleted successfully",
	}))
}
