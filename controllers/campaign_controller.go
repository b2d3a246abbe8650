package controller

import (
	"errors"

	"dripmail/models"
	"dripmail/store"
	"dripmail/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	errActiveNeedsList  = errors.New("an active campaign needs a contact list")
	errActiveNeedsSteps = errors.New("an active campaign needs at least one step")
)

type CampaignController struct {
	DB        *gorm.DB
	Campaigns *store.GormCampaignStore
	Logger    *logrus.Entry
}

func NewCampaignController(db *gorm.DB, logger *logrus.Entry) *CampaignController {
	return &CampaignController{
		DB:        db,
		Campaigns: store.NewGormCampaignStore(db),
		Logger:    logger,
	}
}

type stepInput struct {
	Subject   string `json:"subject" validate:"required,max=255"`
	Body      string `json:"body" validate:"required"`
	DelayDays int    `json:"delay_days" validate:"gte=0"`
}

type campaignInput struct {
	Name          string      `json:"name" validate:"required,max=200"`
	ContactListID uint        `json:"contact_list_id"`
	Status        string      `json:"status" validate:"omitempty,oneof=draft active paused"`
	Steps         []stepInput `json:"steps" validate:"dive"`
}

// toSteps converts request steps into models ordered by DelayDays. Steps
// sharing a delay keep their request order.
func (in *campaignInput) toSteps() []models.DripStep {
	steps := make([]models.DripStep, 0, len(in.Steps))
	for _, s := range in.Steps {
		steps = append(steps, models.DripStep{
			Subject:   s.Subject,
			Body:      s.Body,
			DelayDays: s.DelayDays,
		})
	}
	models.SortSteps(steps)
	return steps
}

// checkActivatable returns why the campaign cannot run, or nil.
func (cc *CampaignController) checkActivatable(campaign *models.DripCampaign) error {
	if campaign.ContactListID == 0 {
		return errActiveNeedsList
	}
	if len(campaign.Steps) == 0 {
		return errActiveNeedsSteps
	}
	var list models.ContactList
	if err := cc.DB.First(&list, campaign.ContactListID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errActiveNeedsList
		}
		return err
	}
	return nil
}

func (cc *CampaignController) findCampaign(c *fiber.Ctx) (*models.DripCampaign, error) {
	id, err := utils.ParseID(c.Params("id"))
	if err != nil {
		return nil, errInvalidID
	}
	return cc.Campaigns.Get(c.UserContext(), id)
}

func activationError(c *fiber.Ctx, err error) error {
	if errors.Is(err, errActiveNeedsList) || errors.Is(err, errActiveNeedsSteps) {
		return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, err.Error(), nil)
	}
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to verify campaign", err)
}
