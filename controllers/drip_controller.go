package controller

import (
	"errors"

	"dripmail/utils"
	"dripmail/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// DripController triggers drip runs on demand.
type DripController struct {
	Scheduler *worker.DripScheduler
	Logger    *logrus.Entry
}

func NewDripController(scheduler *worker.DripScheduler, logger *logrus.Entry) *DripController {
	return &DripController{
		Scheduler: scheduler,
		Logger:    logger,
	}
}

// RunNow performs a full drip run and returns its summary
func (dc *DripController) RunNow(c *fiber.Ctx) error {
	summary, err := dc.Scheduler.Run(c.UserContext())
	if err != nil {
		return runError(c, err)
	}
	return c.JSON(utils.SuccessResponse(summary))
}

func runError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, worker.ErrRunInProgress):
		return utils.ErrorResponse(c, fiber.StatusConflict, "A drip run is already in progress", nil)
	case errors.Is(err, utils.ErrMailTransportNotConfigured):
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Mail transport is not configured", err)
	default:
		utils.LogError("drip_run", err, map[string]interface{}{"trigger": "api"})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Drip run failed", err)
	}
}
