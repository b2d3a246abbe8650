package utils

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComposeFooter(t *testing.T) {
	footer := ComposeFooter(FooterInput{
		CompanyName:    "Acme",
		CompanyAddress: "1 Main St",
		ContactID:      1,
		ListID:         7,
		BaseURL:        "https://mail.acme.test",
	})

	assert.Contains(t, footer, "contactId=1&listId=7")
	assert.Contains(t, footer, "contactId=1&all=true")
	assert.Contains(t, footer, `href="https://mail.acme.test/unsubscribe?contactId=1&listId=7"`)
	assert.Contains(t, footer, `href="https://mail.acme.test/unsubscribe?contactId=1&all=true"`)
	assert.Contains(t, footer, strconv.Itoa(time.Now().UTC().Year()))
	assert.Contains(t, footer, "Acme")
	assert.Contains(t, footer, "1 Main St")
	assert.Contains(t, footer, "Unsubscribe from this list")
	assert.Contains(t, footer, "Unsubscribe from all mailings")
	assert.True(t, strings.HasPrefix(footer, "<div"))
}

func TestComposeFooterWithoutBaseURL(t *testing.T) {
	footer := ComposeFooter(FooterInput{CompanyName: "Acme", ContactID: 3, ListID: 4, Year: 2024})

	assert.Contains(t, footer, `href="/unsubscribe?contactId=3&listId=4"`)
	assert.Contains(t, footer, "&copy; 2024 Acme")
}

func TestComposeFooterEscapesCompany(t *testing.T) {
	footer := ComposeFooter(FooterInput{CompanyName: "A&B <Co>", CompanyAddress: "1 \"Main\" St"})

	assert.Contains(t, footer, "A&amp;B &lt;Co&gt;")
	assert.NotContains(t, footer, "<Co>")
}

func TestUnsubscribeURLs(t *testing.T) {
	assert.Equal(t, "http://x/unsubscribe?contactId=12&listId=5", UnsubscribeURL("http://x", 12, 5))
	assert.Equal(t, "http://x/unsubscribe?contactId=12&all=true", UnsubscribeAllURL("http://x", 12))
}
