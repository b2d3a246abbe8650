package controller

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"dripmail/models"
	"dripmail/store"
	"dripmail/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ContactController struct {
	DB       *gorm.DB
	Contacts *store.GormContactStore
	Logger   *logrus.Entry
	Now      func() time.Time
}

func NewContactController(db *gorm.DB, logger *logrus.Entry) *ContactController {
	return &ContactController{
		DB:       db,
		Contacts: store.NewGormContactStore(db),
		Logger:   logger,
		Now:      time.Now,
	}
}

// CreateList creates a new contact list
func (cc *ContactController) CreateList(c *fiber.Ctx) error {
	var input struct {
		Name        string `json:"name" validate:"required,max=100"`
		Description string `json:"description" validate:"max=500"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var existing models.ContactList
	if err := cc.DB.Where("name = ?", input.Name).First(&existing).Error; err == nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "List with this name already exists", nil)
	}

	list := models.ContactList{
		Name:        input.Name,
		Description: input.Description,
	}
	if err := cc.DB.Create(&list).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create contact list", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(list))
}

func (cc *ContactController) GetLists(c *fiber.Ctx) error {
	var lists []models.ContactList
	if err := cc.DB.Order("id").Find(&lists).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch contact lists", err)
	}
	return c.JSON(utils.SuccessResponse(lists))
}

// GetList returns a single list with its member count
func (cc *ContactController) GetList(c *fiber.Ctx) error {
	list, err := cc.findList(c.Params("id"))
	if err != nil {
		return listLookupError(c, err)
	}

	var count int64
	cc.DB.Model(&models.ContactListMembership{}).Where("contact_list_id = ?", list.ID).Count(&count)

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"list":        list,
		"memberCount": count,
	}))
}

func (cc *ContactController) UpdateList(c *fiber.Ctx) error {
	var input struct {
		Name        string `json:"name" validate:"required,max=100"`
		Description string `json:"description" validate:"max=500"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	list, err := cc.findList(c.Params("id"))
	if err != nil {
		return listLookupError(c, err)
	}

	if input.Name != list.Name {
		var existing models.ContactList
		if err := cc.DB.Where("name = ?", input.Name).First(&existing).Error; err == nil {
			return utils.ErrorResponse(c, fiber.StatusConflict, "List with this name already exists", nil)
		}
		list.Name = input.Name
	}
	list.Description = input.Description

	if err := cc.DB.Save(list).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update contact list", err)
	}
	return c.JSON(utils.SuccessResponse(list))
}

// DeleteList deletes a list and its memberships. Campaigns targeting it are
// left in place and skipped by the scheduler until retargeted.
func (cc *ContactController) DeleteList(c *fiber.Ctx) error {
	list, err := cc.findList(c.Params("id"))
	if err != nil {
		return listLookupError(c, err)
	}

	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("contact_list_id = ?", list.ID).Delete(&models.ContactListMembership{}).Error; err != nil {
			return err
		}
		return tx.Delete(list).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete contact list", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message": "Contact list deleted successfully",
	}))
}

// CreateContact creates a subscribed contact and adds it to the given lists
func (cc *ContactController) CreateContact(c *fiber.Ctx) error {
	var input struct {
		Email     string `json:"email" validate:"required"`
		FirstName string `json:"first_name" validate:"omitempty,max=100"`
		LastName  string `json:"last_name" validate:"omitempty,max=100"`
		ListIDs   []uint `json:"list_ids"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	// Format is checked after trimming and lower-casing
	email, err := utils.NormalizeEmail(input.Email)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid email address", err)
	}

	var existing models.Contact
	if err := cc.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Contact with this email already exists", nil)
	}

	contact := models.Contact{
		Email:     email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Source:    "manual",
	}
	contact.Subscribe(cc.Now())

	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&contact).Error; err != nil {
			return err
		}
		for _, listID := range input.ListIDs {
			var list models.ContactList
			if err := tx.First(&list, listID).Error; err != nil {
				return err
			}
			if _, err := addToList(tx, contact.ID, listID); err != nil {
				return err
			}
			contact.ListIDs = append(contact.ListIDs, listID)
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Contact list not found", nil)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create contact", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(contact))
}

// GetContacts returns a page of contacts, optionally filtered by list,
// status or email fragment
func (cc *ContactController) GetContacts(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 100
	}
	offset := (page - 1) * limit

	query := cc.DB.Model(&models.Contact{})

	if listIDStr := c.Query("list_id"); listIDStr != "" {
		listID, err := utils.ParseID(listIDStr)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid list ID", err)
		}
		query = query.
			Joins("JOIN contact_list_memberships m ON m.contact_id = contacts.id AND m.deleted_at IS NULL").
			Where("m.contact_list_id = ?", listID)
	}
	if status := c.Query("status"); status != "" {
		if !models.ValidContactStatus(status) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid status", nil)
		}
		query = query.Where("contacts.status = ?", status)
	}
	if email := c.Query("email"); email != "" {
		query = query.Where("contacts.email LIKE ?", "%"+strings.ToLower(email)+"%")
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count contacts", err)
	}

	var contacts []models.Contact
	if err := query.Order("contacts.id").Offset(offset).Limit(limit).Find(&contacts).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch contacts", err)
	}
	if err := cc.Contacts.FillListIDs(c.UserContext(), contacts); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch contact lists", err)
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  contacts,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

func (cc *ContactController) GetContact(c *fiber.Ctx) error {
	contact, err := cc.findContact(c.Params("id"))
	if err != nil {
		return contactLookupError(c, err)
	}

	contacts := []models.Contact{*contact}
	if err := cc.Contacts.FillListIDs(c.UserContext(), contacts); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch contact lists", err)
	}
	return c.JSON(utils.SuccessResponse(contacts[0]))
}

// UpdateContact updates names and status. Moving a contact back to
// subscribed restarts its drip sequences from day zero.
func (cc *ContactController) UpdateContact(c *fiber.Ctx) error {
	var input struct {
		FirstName *string `json:"first_name" validate:"omitempty,max=100"`
		LastName  *string `json:"last_name" validate:"omitempty,max=100"`
		Status    string  `json:"status" validate:"omitempty,oneof=subscribed unsubscribed bounced"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	contact, err := cc.findContact(c.Params("id"))
	if err != nil {
		return contactLookupError(c, err)
	}

	if input.FirstName != nil {
		contact.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		contact.LastName = *input.LastName
	}
	switch input.Status {
	case "":
	case models.ContactSubscribed:
		contact.Subscribe(cc.Now())
	default:
		contact.Status = input.Status
	}

	if err := cc.DB.Save(contact).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update contact", err)
	}
	return c.JSON(utils.SuccessResponse(contact))
}

// DeleteContact removes a contact and its memberships permanently
func (cc *ContactController) DeleteContact(c *fiber.Ctx) error {
	contact, err := cc.findContact(c.Params("id"))
	if err != nil {
		return contactLookupError(c, err)
	}

	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("contact_id = ?", contact.ID).Delete(&models.ContactListMembership{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(contact).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete contact", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message": "Contact deleted successfully",
	}))
}

// AddContactsToList adds existing contacts to a list
func (cc *ContactController) AddContactsToList(c *fiber.Ctx) error {
	var input struct {
		ContactIDs []uint `json:"contact_ids" validate:"required,min=1"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	list, err := cc.findList(c.Params("id"))
	if err != nil {
		return listLookupError(c, err)
	}

	var added, already int
	var notFound []uint
	for _, contactID := range input.ContactIDs {
		var contact models.Contact
		if err := cc.DB.First(&contact, contactID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				notFound = append(notFound, contactID)
				continue
			}
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to verify contact", err)
		}

		ok, err := addToList(cc.DB, contact.ID, list.ID)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to add contact to list", err)
		}
		if ok {
			added++
		} else {
			already++
		}
	}

	response := fiber.Map{
		"message":         "Contacts added to list successfully",
		"added":           added,
		"already_in_list": already,
	}
	if len(notFound) > 0 {
		response["contacts_not_found"] = notFound
	}
	return c.JSON(utils.SuccessResponse(response))
}

func (cc *ContactController) RemoveContactsFromList(c *fiber.Ctx) error {
	var input struct {
		ContactIDs []uint `json:"contact_ids" validate:"required,min=1"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	list, err := cc.findList(c.Params("id"))
	if err != nil {
		return listLookupError(c, err)
	}

	result := cc.DB.Where("contact_list_id = ? AND contact_id IN ?", list.ID, input.ContactIDs).
		Delete(&models.ContactListMembership{})
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to remove contacts from list", result.Error)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message": "Contacts removed from list successfully",
		"removed": result.RowsAffected,
	}))
}

// importRowError describes one CSV row that was not imported.
type importRowError struct {
	Row    int    `json:"row"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

const maxReportedImportErrors = 50

// ImportContacts imports contacts from a CSV upload into one list. Columns
// are matched by header name (email, first_name, last_name). Emails are
// lower-cased and de-duplicated within the file; contacts that already exist
// are only added to the list, their status is left alone.
func (cc *ContactController) ImportContacts(c *fiber.Ctx) error {
	listIDStr := c.Query("list_id")
	if listIDStr == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Contact list ID is required for import", nil)
	}
	list, err := cc.findList(listIDStr)
	if err != nil {
		return listLookupError(c, err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File upload error", err)
	}
	if file.Size > 5<<20 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File too large (max 5MB)", nil)
	}

	src, err := file.Open()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to open file", err)
	}
	defer src.Close()

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to parse CSV file", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	emailCol, ok := columns["email"]
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "CSV file must have an email column", nil)
	}
	field := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var (
		totalRows, created, added, alreadyInList, duplicates, failed int
		rowErrors                                                    []importRowError
	)
	seen := make(map[string]struct{})
	now := cc.Now()
	reject := func(row int, email, reason string) {
		failed++
		if len(rowErrors) < maxReportedImportErrors {
			rowErrors = append(rowErrors, importRowError{Row: row, Email: email, Reason: reason})
		}
	}

	for rowNum := 2; ; rowNum++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		totalRows++
		if err != nil {
			reject(rowNum, "", "malformed row")
			continue
		}
		if emailCol >= len(row) {
			reject(rowNum, "", "missing email")
			continue
		}

		email, err := utils.NormalizeEmail(row[emailCol])
		if err != nil {
			reject(rowNum, row[emailCol], "invalid email")
			continue
		}
		if _, dup := seen[email]; dup {
			duplicates++
			continue
		}
		seen[email] = struct{}{}

		var contact models.Contact
		err = cc.DB.Where("email = ?", email).First(&contact).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			contact = models.Contact{
				Email:     email,
				FirstName: field(row, "first_name"),
				LastName:  field(row, "last_name"),
				Source:    "csv",
			}
			contact.Subscribe(now)
			err = cc.DB.Transaction(func(tx *gorm.DB) error {
				if err := tx.Create(&contact).Error; err != nil {
					return err
				}
				_, err := addToList(tx, contact.ID, list.ID)
				return err
			})
			if err != nil {
				cc.Logger.WithError(err).WithField("email", email).Warn("Failed to import contact")
				reject(rowNum, email, "could not be saved")
				continue
			}
			created++
		case err != nil:
			cc.Logger.WithError(err).WithField("email", email).Warn("Failed to look up contact")
			reject(rowNum, email, "could not be saved")
		default:
			ok, err := addToList(cc.DB, contact.ID, list.ID)
			if err != nil {
				cc.Logger.WithError(err).WithField("email", email).Warn("Failed to add contact to list")
				reject(rowNum, email, "could not be added to list")
				continue
			}
			if ok {
				added++
			} else {
				alreadyInList++
			}
		}
	}

	utils.LogEvent("contacts_imported", map[string]interface{}{
		"list_id":  list.ID,
		"rows":     totalRows,
		"created":  created,
		"added":    added,
		"rejected": failed,
	})

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message":         "Contacts imported successfully",
		"total_rows":      totalRows,
		"created":         created,
		"added_to_list":   added,
		"already_in_list": alreadyInList,
		"duplicates":      duplicates,
		"rejected":        failed,
		"errors":          rowErrors,
	}))
}

// ExportContacts writes contacts as CSV, all of them or one list's members
func (cc *ContactController) ExportContacts(c *fiber.Ctx) error {
	query := cc.DB.Model(&models.Contact{})
	filename := "contacts_export_" + cc.Now().Format("20060102") + ".csv"

	if listIDStr := c.Query("list_id"); listIDStr != "" {
		list, err := cc.findList(listIDStr)
		if err != nil {
			return listLookupError(c, err)
		}
		query = query.
			Joins("JOIN contact_list_memberships m ON m.contact_id = contacts.id AND m.deleted_at IS NULL").
			Where("m.contact_list_id = ?", list.ID)
		filename = "list_" + strconv.FormatUint(uint64(list.ID), 10) + "_" + filename
	}

	var contacts []models.Contact
	if err := query.Order("contacts.id").Find(&contacts).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch contacts", err)
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", "attachment; filename="+filename)

	writer := csv.NewWriter(c)
	defer writer.Flush()

	if err := writer.Write([]string{"email", "first_name", "last_name", "status", "subscribed_at"}); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate CSV", err)
	}
	for _, contact := range contacts {
		subscribedAt := ""
		if contact.SubscribedAt != nil {
			subscribedAt = contact.SubscribedAt.UTC().Format(time.RFC3339)
		}
		record := []string{contact.Email, contact.FirstName, contact.LastName, contact.Status, subscribedAt}
		if err := writer.Write(record); err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate CSV", err)
		}
	}

	return nil
}

func (cc *ContactController) findList(idStr string) (*models.ContactList, error) {
	id, err := utils.ParseID(idStr)
	if err != nil {
		return nil, errInvalidID
	}
	var list models.ContactList
	if err := cc.DB.First(&list, id).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

func (cc *ContactController) findContact(idStr string) (*models.Contact, error) {
	id, err := utils.ParseID(idStr)
	if err != nil {
		return nil, errInvalidID
	}
	var contact models.Contact
	if err := cc.DB.First(&contact, id).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

// addToList makes contactID a member of listID, restoring a removed
// membership. It reports whether a membership was added.
func addToList(tx *gorm.DB, contactID, listID uint) (bool, error) {
	var m models.ContactListMembership
	err := tx.Unscoped().Where("contact_id = ? AND contact_list_id = ?", contactID, listID).First(&m).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return true, tx.Create(&models.ContactListMembership{ContactID: contactID, ContactListID: listID}).Error
	case err != nil:
		return false, err
	case m.DeletedAt.Valid:
		return true, tx.Unscoped().Model(&m).Update("deleted_at", nil).Error
	}
	return false, nil
}
