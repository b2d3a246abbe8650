package controller

import (
	"strconv"
	"time"

	"dripmail/models"
	"dripmail/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DashboardController serves drip statistics. Send counts come from the
// send log, so they stay at zero unless the database ledger is enabled.
type DashboardController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
	Now    func() time.Time
}

func NewDashboardController(db *gorm.DB, logger *logrus.Entry) *DashboardController {
	return &DashboardController{
		DB:     db,
		Logger: logger,
		Now:    time.Now,
	}
}

type DashboardStats struct {
	Campaigns map[string]int64 `json:"campaigns"`
	Contacts  map[string]int64 `json:"contacts"`
	Lists     int64            `json:"lists"`
	SentToday int64            `json:"sent_today"`
	TotalSent int64            `json:"total_sent"`
}

type TimeSeriesData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type Dataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BorderColor     string    `json:"borderColor"`
	BackgroundColor string    `json:"backgroundColor"`
}

type StepSends struct {
	CampaignID uint   `json:"campaign_id"`
	Campaign   string `json:"campaign"`
	DelayDays  int    `json:"delay_days"`
	Sent       int64  `json:"sent"`
}

type statusCount struct {
	Status string
	Count  int64
}

// GetDashboardStats returns the summary cards
func (dc *DashboardController) GetDashboardStats(c *fiber.Ctx) error {
	stats := DashboardStats{
		Campaigns: map[string]int64{
			models.DripStatusDraft:  0,
			models.DripStatusActive: 0,
			models.DripStatusPaused: 0,
		},
		Contacts: map[string]int64{
			models.ContactSubscribed:   0,
			models.ContactUnsubscribed: 0,
			models.ContactBounced:      0,
		},
	}

	var rows []statusCount
	if err := dc.DB.Model(&models.DripCampaign{}).
		Select("status, count(*) as count").Group("status").Scan(&rows).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count campaigns", err)
	}
	for _, r := range rows {
		stats.Campaigns[r.Status] = r.Count
	}

	rows = nil
	if err := dc.DB.Model(&models.Contact{}).
		Select("status, count(*) as count").Group("status").Scan(&rows).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count contacts", err)
	}
	for _, r := range rows {
		stats.Contacts[r.Status] = r.Count
	}

	dc.DB.Model(&models.ContactList{}).Count(&stats.Lists)
	dc.DB.Model(&models.SendLog{}).Count(&stats.TotalSent)
	dc.DB.Model(&models.SendLog{}).
		Where("send_date = ?", dc.Now().UTC().Format(time.DateOnly)).
		Count(&stats.SentToday)

	return c.JSON(utils.SuccessResponse(stats))
}

// GetSendsOverTime returns daily drip sends for the last ?days= UTC days
// (default 30, max 365), oldest first
func (dc *DashboardController) GetSendsOverTime(c *fiber.Ctx) error {
	days, err := strconv.Atoi(c.Query("days", "30"))
	if err != nil || days < 1 || days > 365 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "days must be between 1 and 365", nil)
	}

	today := dc.Now().UTC()
	first := today.AddDate(0, 0, -(days - 1)).Format(time.DateOnly)

	var rows []struct {
		SendDate string
		Count    int64
	}
	if err := dc.DB.Model(&models.SendLog{}).
		Select("send_date, count(*) as count").
		Where("send_date >= ?", first).
		Group("send_date").
		Scan(&rows).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load send history", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.SendDate] = r.Count
	}

	data := TimeSeriesData{
		Datasets: []Dataset{{
			Label:           "Drip Emails Sent",
			BorderColor:     "#10B981",
			BackgroundColor: "rgba(16, 185, 129, 0.1)",
		}},
	}
	for i := days - 1; i >= 0; i-- {
		label := today.AddDate(0, 0, -i).Format(time.DateOnly)
		data.Labels = append(data.Labels, label)
		data.Datasets[0].Data = append(data.Datasets[0].Data, float64(counts[label]))
	}

	return c.JSON(utils.SuccessResponse(data))
}

// GetStepSends returns how many times each campaign step was sent
func (dc *DashboardController) GetStepSends(c *fiber.Ctx) error {
	var sends []StepSends
	err := dc.DB.Model(&models.SendLog{}).
		Select("send_logs.campaign_id, COALESCE(drip_campaigns.name, '') as campaign, send_logs.delay_days, count(*) as sent").
		Joins("LEFT JOIN drip_campaigns ON drip_campaigns.id = send_logs.campaign_id").
		Group("send_logs.campaign_id, drip_campaigns.name, send_logs.delay_days").
		Order("send_logs.campaign_id, send_logs.delay_days").
		Scan(&sends).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load step sends", err)
	}
	return c.JSON(utils.SuccessResponse(sends))
}
