package controller

import (
	"errors"
	"fmt"
	"html"

	"dripmail/models"
	"dripmail/store"
	"dripmail/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UnsubscribeController serves the links in the drip email footer.
type UnsubscribeController struct {
	DB       *gorm.DB
	Settings store.SettingsStore
	Logger   *logrus.Entry
}

func NewUnsubscribeController(db *gorm.DB, settings store.SettingsStore, logger *logrus.Entry) *UnsubscribeController {
	return &UnsubscribeController{
		DB:       db,
		Settings: settings,
		Logger:   logger,
	}
}

const unsubscribePage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body style="font-family:Arial,sans-serif;max-width:480px;margin:80px auto;text-align:center;color:#333333;">
<h1 style="font-size:22px;">%s</h1>
<p>%s</p>
<p style="color:#888888;font-size:12px;">%s</p>
</body>
</html>`

// Unsubscribe handles ?contactId=&listId= (leave one list) and
// ?contactId=&all=true (stop all mailings). Repeating a request shows the
// same confirmation.
func (uc *UnsubscribeController) Unsubscribe(c *fiber.Ctx) error {
	contactID, err := utils.ParseID(c.Query("contactId"))
	if err != nil {
		return uc.page(c, fiber.StatusBadRequest, "Invalid link", "This unsubscribe link is not valid.")
	}

	var contact models.Contact
	if err := uc.DB.First(&contact, contactID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uc.page(c, fiber.StatusNotFound, "Invalid link", "We could not find your subscription.")
		}
		return uc.failure(c, err, contactID)
	}

	if c.Query("all") == "true" {
		if err := uc.DB.Model(&contact).Update("status", models.ContactUnsubscribed).Error; err != nil {
			return uc.failure(c, err, contactID)
		}
		utils.LogEvent("unsubscribe_all", map[string]interface{}{"contact_id": contact.ID})
		return uc.page(c, fiber.StatusOK, "You have been unsubscribed",
			fmt.Sprintf("%s will no longer receive any mailings from us.", contact.Email))
	}

	listID, err := utils.ParseID(c.Query("listId"))
	if err != nil {
		return uc.page(c, fiber.StatusBadRequest, "Invalid link", "This unsubscribe link is not valid.")
	}

	result := uc.DB.Where("contact_id = ? AND contact_list_id = ?", contact.ID, listID).
		Delete(&models.ContactListMembership{})
	if result.Error != nil {
		return uc.failure(c, result.Error, contactID)
	}
	utils.LogEvent("unsubscribe_list", map[string]interface{}{
		"contact_id": contact.ID,
		"list_id":    listID,
		"removed":    result.RowsAffected,
	})

	listName := "this list"
	var list models.ContactList
	if err := uc.DB.First(&list, listID).Error; err == nil {
		listName = list.Name
	}
	return uc.page(c, fiber.StatusOK, "You have been unsubscribed",
		fmt.Sprintf("%s has been removed from %s.", contact.Email, listName))
}

func (uc *UnsubscribeController) failure(c *fiber.Ctx, err error, contactID uint) error {
	utils.LogError("unsubscribe", err, map[string]interface{}{"contact_id": contactID})
	return uc.page(c, fiber.StatusInternalServerError, "Something went wrong", "Please try again later.")
}

func (uc *UnsubscribeController) page(c *fiber.Ctx, status int, title, message string) error {
	company := models.DefaultCompanyName
	if uc.Settings != nil {
		if s, err := uc.Settings.Settings(c.UserContext()); err == nil {
			company = s.WithDefaults().CompanyName
		}
	}

	c.Type("html", "utf-8")
	return c.Status(status).SendString(fmt.Sprintf(unsubscribePage,
		html.EscapeString(title),
		html.EscapeString(title),
		html.EscapeString(message),
		html.EscapeString(company),
	))
}
