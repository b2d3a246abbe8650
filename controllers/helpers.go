package controller

import (
	"errors"

	"dripmail/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var errInvalidID = errors.New("invalid id")

func listLookupError(c *fiber.Ctx, err error) error {
	return lookupError(c, err, "Contact list")
}

func contactLookupError(c *fiber.Ctx, err error) error {
	return lookupError(c, err, "Contact")
}

func campaignLookupError(c *fiber.Ctx, err error) error {
	return lookupError(c, err, "Campaign")
}

func lookupError(c *fiber.Ctx, err error, what string) error {
	switch {
	case errors.Is(err, errInvalidID):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid "+what+" ID", nil)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, what+" not found", nil)
	default:
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch "+what, err)
	}
}
