package controller

import (
	"dripmail/models"
	"dripmail/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CreateCampaign creates a drip campaign with its steps. Campaigns start as
// drafts unless an active or paused status is requested.
func (cc *CampaignController) CreateCampaign(c *fiber.Ctx) error {
	var input campaignInput
	if err := c.BodyParser(&input); err != nil {
		cc.Logger.WithError(err).Debug("Error parsing campaign body")
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	status := input.Status
	if status == "" {
		status = models.DripStatusDraft
	}

	campaign := models.DripCampaign{
		Name:          input.Name,
		ContactListID: input.ContactListID,
		Status:        status,
		Steps:         input.toSteps(),
	}

	if campaign.IsActive() {
		if err := cc.checkActivatable(&campaign); err != nil {
			return activationError(c, err)
		}
	}

	err := cc.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&campaign).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create campaign", err)
	}

	cc.Logger.WithFields(logrus.Fields{
		"campaign_id": campaign.ID,
		"steps":       len(campaign.Steps),
		"status":      campaign.Status,
	}).Info("Drip campaign created")

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(campaign))
}
