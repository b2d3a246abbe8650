package controller

import (
	"dripmail/models"
	"dripmail/store"
	"dripmail/utils"

	"github.com/gofiber/fiber/v2"
)

type SettingsController struct {
	Store *store.GormSettingsStore
}

func NewSettingsController(s *store.GormSettingsStore) *SettingsController {
	return &SettingsController{Store: s}
}

// GetSettings returns the effective settings, defaults filled in
func (sc *SettingsController) GetSettings(c *fiber.Ctx) error {
	settings, err := sc.Store.Settings(c.UserContext())
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch settings", err)
	}
	return c.JSON(utils.SuccessResponse(settings.WithDefaults()))
}

// UpdateSettings saves the sender identity and footer details. Empty fields
// fall back to the defaults when mail is sent.
func (sc *SettingsController) UpdateSettings(c *fiber.Ctx) error {
	var input struct {
		FromName       string `json:"from_name" validate:"max=100"`
		FromEmail      string `json:"from_email" validate:"omitempty,email"`
		CompanyName    string `json:"company_name" validate:"max=200"`
		CompanyAddress string `json:"company_address" validate:"max=500"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	saved, err := sc.Store.Save(c.UserContext(), models.Settings{
		FromName:       input.FromName,
		FromEmail:      input.FromEmail,
		CompanyName:    input.CompanyName,
		CompanyAddress: input.CompanyAddress,
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save settings", err)
	}
	return c.JSON(utils.SuccessResponse(saved))
}
