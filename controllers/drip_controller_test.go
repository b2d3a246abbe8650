package controller

import (
	"context"
	"net/http"
	"testing"
	"time"

	"dripmail/models"
	"dripmail/store"
	"dripmail/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedActiveCampaign(t *testing.T, db *gorm.DB, listID uint) models.DripCampaign {
	t.Helper()
	campaign := models.DripCampaign{
		Name:          "Onboarding",
		ContactListID: listID,
		Status:        models.DripStatusActive,
		Steps: []models.DripStep{
			{Subject: "Welcome", Body: "<p>Welcome aboard</p>", DelayDays: 0, Position: 0},
			{Subject: "Tips", Body: "<p>Tips</p>", DelayDays: 3, Position: 1},
		},
	}
	require.NoError(t, db.Create(&campaign).Error)
	return campaign
}

func dripApp(scheduler *worker.DripScheduler) *fiber.App {
	dc := NewDripController(scheduler, testLogger())
	app := fiber.New()
	app.Post("/drip/run", dc.RunNow)
	return app
}

func TestRunNow(t *testing.T) {
	db := newTestDB(t)
	list := seedList(t, db, "Newsletter")
	seedActiveCampaign(t, db, list.ID)
	seedContact(t, db, "new@example.com", models.ContactSubscribed, testNow, list.ID)
	seedContact(t, db, "mid@example.com", models.ContactSubscribed, testNow.AddDate(0, 0, -1), list.ID)

	storage := store.NewGormStorage(db)
	transport := &recordingTransport{}
	scheduler := worker.NewDripScheduler(storage.Campaigns, storage.Contacts, storage.Settings, transport,
		worker.WithClock(func() time.Time { return testNow }),
		worker.WithLedger(worker.NewDBSendLedger(db)),
		worker.WithLogger(testLogger()),
	)
	app := dripApp(scheduler)

	resp, env := doJSON(t, app, http.MethodPost, "/drip/run", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Error)

	var summary worker.RunSummary
	decode(t, env.Data, &summary)
	assert.Equal(t, 1, summary.Campaigns)
	assert.Equal(t, 2, summary.Contacts)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, transport.count())
	assert.Equal(t, []string{"new@example.com"}, transport.sent[0].To)

	t.Run("second run the same day sends nothing", func(t *testing.T) {
		resp, env := doJSON(t, app, http.MethodPost, "/drip/run", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var again worker.RunSummary
		decode(t, env.Data, &again)
		assert.Zero(t, again.Sent)
		assert.Equal(t, 2, again.Skipped)
		assert.Equal(t, 1, transport.count())
	})

	t.Run("dashboard counts the send", func(t *testing.T) {
		dash := NewDashboardController(db, testLogger())
		dash.Now = func() time.Time { return testNow }
		dashApp := fiber.New()
		dashApp.Get("/stats", dash.GetDashboardStats)
		dashApp.Get("/sends", dash.GetSendsOverTime)
		dashApp.Get("/steps", dash.GetStepSends)

		resp, env := doJSON(t, dashApp, http.MethodGet, "/stats", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var stats DashboardStats
		decode(t, env.Data, &stats)
		assert.Equal(t, int64(1), stats.Campaigns[models.DripStatusActive])
		assert.Equal(t, int64(2), stats.Contacts[models.ContactSubscribed])
		assert.Equal(t, int64(1), stats.Lists)
		assert.Equal(t, int64(1), stats.SentToday)
		assert.Equal(t, int64(1), stats.TotalSent)

		resp, env = doJSON(t, dashApp, http.MethodGet, "/sends?days=3", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var series TimeSeriesData
		decode(t, env.Data, &series)
		assert.Equal(t, []string{"2026-03-08", "2026-03-09", "2026-03-10"}, series.Labels)
		assert.Equal(t, []float64{0, 0, 1}, series.Datasets[0].Data)

		resp, env = doJSON(t, dashApp, http.MethodGet, "/steps", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var steps []StepSends
		decode(t, env.Data, &steps)
		require.Len(t, steps, 1)
		assert.Equal(t, "Onboarding", steps[0].Campaign)
		assert.Equal(t, 0, steps[0].DelayDays)

		resp, _ = doJSON(t, dashApp, http.MethodGet, "/sends?days=0", nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestRunNowWithoutTransport(t *testing.T) {
	db := newTestDB(t)
	storage := store.NewGormStorage(db)
	scheduler := worker.NewDripScheduler(storage.Campaigns, storage.Contacts, storage.Settings, nil,
		worker.WithLogger(testLogger()),
	)

	resp, env := doJSON(t, dripApp(scheduler), http.MethodPost, "/drip/run", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.False(t, env.Success)
}

func TestRunNowInProgress(t *testing.T) {
	db := newTestDB(t)
	storage := store.NewGormStorage(db)
	lock := &worker.LocalRunLock{}
	release, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	scheduler := worker.NewDripScheduler(storage.Campaigns, storage.Contacts, storage.Settings, &recordingTransport{},
		worker.WithRunLock(lock),
		worker.WithLogger(testLogger()),
	)

	resp, _ := doJSON(t, dripApp(scheduler), http.MethodPost, "/drip/run", nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}
