package utils

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// sentryTagKeys are context keys promoted to Sentry tags so drip failures
// can be grouped by run and campaign.
var sentryTagKeys = []string{"run_id", "campaign_id", "trigger"}

// LogError logs err with its context and reports it to Sentry.
func LogError(errorType string, err error, context map[string]interface{}) {
	logrus.WithFields(logrus.Fields(context)).
		WithField("error_type", errorType).
		WithError(err).
		Error("Error occurred")

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("error_type", errorType)
		for _, key := range sentryTagKeys {
			if v, ok := context[key]; ok {
				scope.SetTag(key, fmt.Sprint(v))
			}
		}
		scope.SetContext("details", sentry.Context(context))
		sentry.CaptureException(err)
	})
}

// LogEvent logs a notable event and leaves a Sentry breadcrumb for it.
func LogEvent(eventType string, data map[string]interface{}) {
	logrus.WithFields(logrus.Fields(data)).
		WithField("event_type", eventType).
		Info("Event occurred")

	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Type:      "info",
		Category:  eventType,
		Data:      data,
		Timestamp: time.Now(),
	})
}
