package controller

import (
	"errors"
	"time"

	"dripmail/models"
	"dripmail/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// FormController handles the public opt-in form.
type FormController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
	Now    func() time.Time
}

func NewFormController(db *gorm.DB, logger *logrus.Entry) *FormController {
	return &FormController{
		DB:     db,
		Logger: logger,
		Now:    time.Now,
	}
}

// Subscribe adds the submitted address to the list in :listId. A contact
// that was not subscribed becomes subscribed as of now, which starts the
// list's drip campaigns from their day zero step.
func (fc *FormController) Subscribe(c *fiber.Ctx) error {
	var input struct {
		Email     string `json:"email" form:"email" validate:"required"`
		FirstName string `json:"first_name" form:"first_name" validate:"max=100"`
		LastName  string `json:"last_name" form:"last_name" validate:"max=100"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	listID, err := utils.ParseID(c.Params("listId"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid list ID", nil)
	}
	var list models.ContactList
	if err := fc.DB.First(&list, listID).Error; err != nil {
		return listLookupError(c, err)
	}

	email, err := utils.NormalizeEmail(input.Email)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid email address", err)
	}

	created := false
	var contact models.Contact
	err = fc.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&contact).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			contact = models.Contact{
				Email:     email,
				FirstName: input.FirstName,
				LastName:  input.LastName,
				Source:    "form",
			}
			contact.Subscribe(fc.Now())
			if err := tx.Create(&contact).Error; err != nil {
				return err
			}
			created = true
		case err != nil:
			return err
		default:
			if input.FirstName != "" {
				contact.FirstName = input.FirstName
			}
			if input.LastName != "" {
				contact.LastName = input.LastName
			}
			contact.Subscribe(fc.Now())
			if err := tx.Save(&contact).Error; err != nil {
				return err
			}
		}
		_, err = addToList(tx, contact.ID, list.ID)
		return err
	})
	if err != nil {
		utils.LogError("form_subscribe", err, map[string]interface{}{
			"list_id": list.ID,
			"email":   email,
		})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to subscribe", nil)
	}

	utils.LogEvent("form_subscribe", map[string]interface{}{
		"list_id":    list.ID,
		"contact_id": contact.ID,
		"created":    created,
	})

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(utils.SuccessResponse(fiber.Map{
		"message":    "Subscribed successfully",
		"contact_id": contact.ID,
	}))
}
