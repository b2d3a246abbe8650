package controller

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"dripmail/models"
	"dripmail/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnsubscribe(t *testing.T) {
	db := newTestDB(t)
	newsletter := seedList(t, db, "Newsletter")
	product := seedList(t, db, "Product")
	contact := seedContact(t, db, "ana@example.com", models.ContactSubscribed, testNow, newsletter.ID, product.ID)

	settings := store.NewGormSettingsStore(db)
	_, err := settings.Save(context.Background(), models.Settings{CompanyName: "Acme <Labs>"})
	require.NoError(t, err)

	uc := NewUnsubscribeController(db, settings, testLogger())
	app := fiber.New()
	app.Get("/unsubscribe", uc.Unsubscribe)
	app.Post("/unsubscribe", uc.Unsubscribe)

	get := func(t *testing.T, method, query string) (int, string) {
		t.Helper()
		resp, err := app.Test(httptest.NewRequest(method, "/unsubscribe"+query, nil))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}
	contacts := store.NewGormContactStore(db)

	t.Run("single list", func(t *testing.T) {
		status, body := get(t, http.MethodGet, "?contactId="+itoa(contact.ID)+"&listId="+itoa(newsletter.ID))
		assert.Equal(t, fiber.StatusOK, status)
		assert.Contains(t, body, "removed from Newsletter")
		assert.Contains(t, body, "Acme &lt;Labs&gt;")

		members, err := contacts.SubscribedContacts(context.Background(), newsletter.ID)
		require.NoError(t, err)
		assert.Empty(t, members)

		members, err = contacts.SubscribedContacts(context.Background(), product.ID)
		require.NoError(t, err)
		assert.Len(t, members, 1)

		status, _ = get(t, http.MethodPost, "?contactId="+itoa(contact.ID)+"&listId="+itoa(newsletter.ID))
		assert.Equal(t, fiber.StatusOK, status, "repeating is harmless")
	})

	t.Run("all mailings", func(t *testing.T) {
		status, body := get(t, http.MethodGet, "?contactId="+itoa(contact.ID)+"&all=true")
		assert.Equal(t, fiber.StatusOK, status)
		assert.Contains(t, body, "no longer receive any mailings")

		var stored models.Contact
		require.NoError(t, db.First(&stored, contact.ID).Error)
		assert.Equal(t, models.ContactUnsubscribed, stored.Status)

		members, err := contacts.SubscribedContacts(context.Background(), product.ID)
		require.NoError(t, err)
		assert.Empty(t, members)
	})

	t.Run("bad links", func(t *testing.T) {
		status, _ := get(t, http.MethodGet, "?contactId=abc&all=true")
		assert.Equal(t, fiber.StatusBadRequest, status)

		status, _ = get(t, http.MethodGet, "?contactId="+itoa(contact.ID))
		assert.Equal(t, fiber.StatusBadRequest, status)

		status, _ = get(t, http.MethodGet, "?contactId=999&all=true")
		assert.Equal(t, fiber.StatusNotFound, status)
	})
}
