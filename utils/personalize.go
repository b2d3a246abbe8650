package utils

import (
	"html"
	"strings"

	"dripmail/models"
)

// mergeTokens maps each supported merge token to the contact field it reads.
var mergeTokens = []struct {
	token string
	value func(*models.Contact) string
}{
	{"[FirstName]", func(c *models.Contact) string { return c.FirstName }},
	{"[LastName]", func(c *models.Contact) string { return c.LastName }},
	{"[Email]", func(c *models.Contact) string { return c.Email }},
}

// Personalize replaces every [FirstName], [LastName] and [Email] in tmpl
// with the contact's value. Matching is literal and case-sensitive; unknown
// tokens are left as they are and absent fields become empty strings.
func Personalize(tmpl string, contact *models.Contact) string {
	return replaceTokens(tmpl, contact, func(s string) string { return s })
}

// PersonalizeHTML is Personalize for HTML bodies: substituted values are
// HTML-escaped so contact data cannot inject markup.
func PersonalizeHTML(tmpl string, contact *models.Contact) string {
	return replaceTokens(tmpl, contact, html.EscapeString)
}

func replaceTokens(tmpl string, contact *models.Contact, escape func(string) string) string {
	if contact == nil {
		contact = &models.Contact{}
	}
	pairs := make([]string, 0, len(mergeTokens)*2)
	for _, t := range mergeTokens {
		pairs = append(pairs, t.token, escape(t.value(contact)))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
