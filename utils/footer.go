package utils

import (
	"fmt"
	"html"
	"net/url"
	"strconv"
	"time"
)

// FooterInput carries what the compliance footer needs.
type FooterInput struct {
	CompanyName    string
	CompanyAddress string
	ContactID      uint
	ListID         uint
	BaseURL        string
	Year           int // zero means the current UTC year
}

// UnsubscribeURL builds the link that removes a contact from one list.
func UnsubscribeURL(baseURL string, contactID, listID uint) string {
	return fmt.Sprintf("%s/unsubscribe?contactId=%s&listId=%s",
		baseURL, url.QueryEscape(formatID(contactID)), url.QueryEscape(formatID(listID)))
}

// UnsubscribeAllURL builds the link that unsubscribes a contact from every mailing.
func UnsubscribeAllURL(baseURL string, contactID uint) string {
	return fmt.Sprintf("%s/unsubscribe?contactId=%s&all=true", baseURL, url.QueryEscape(formatID(contactID)))
}

// ComposeFooter renders the copyright, postal address and unsubscribe links
// appended to every drip email. An empty BaseURL still yields a footer, only
// with relative links.
func ComposeFooter(in FooterInput) string {
	year := in.Year
	if year == 0 {
		year = time.Now().UTC().Year()
	}

	return fmt.Sprintf(`<div style="margin-top:40px;padding-top:20px;border-top:1px solid #e5e5e5;font-family:Arial,sans-serif;font-size:12px;color:#888888;text-align:center;">
<p style="margin:0 0 8px 0;">&copy; %d %s. All rights reserved.</p>
<p style="margin:0 0 8px 0;">%s</p>
<p style="margin:0;"><a href="%s" style="color:#888888;">Unsubscribe from this list</a> | <a href="%s" style="color:#888888;">Unsubscribe from all mailings</a></p>
</div>`,
		year,
		html.EscapeString(in.CompanyName),
		html.EscapeString(in.CompanyAddress),
		UnsubscribeURL(in.BaseURL, in.ContactID, in.ListID),
		UnsubscribeAllURL(in.BaseURL, in.ContactID),
	)
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
