package controller

import (
	"context"

	"dripmail/worker"

	"github.com/gofiber/websocket/v2"
)

type runMessage struct {
	Type    string                `json:"type"` // result, summary, error
	Result  *worker.ContactResult `json:"result,omitempty"`
	Summary *worker.RunSummary    `json:"summary,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// HandleRunWS starts a drip run when the client sends {"action":"run"} and
// streams one message per processed contact, then the summary.
func (dc *DripController) HandleRunWS(c *websocket.Conn) {
	defer c.Close()

	var input struct {
		Action string `json:"action"`
	}
	if err := c.ReadJSON(&input); err != nil {
		dc.Logger.WithError(err).Debug("Error reading JSON")
		return
	}
	if input.Action != "run" {
		_ = c.WriteJSON(runMessage{Type: "error", Error: "unknown action " + input.Action})
		return
	}

	// A closed socket stops the stream, not the run.
	var writeErr error
	summary, err := dc.Scheduler.RunWithObserver(context.Background(), func(r worker.ContactResult) {
		if writeErr != nil {
			return
		}
		if writeErr = c.WriteJSON(runMessage{Type: "result", Result: &r}); writeErr != nil {
			dc.Logger.WithError(writeErr).Debug("Error writing JSON")
		}
	})
	if writeErr != nil {
		return
	}

	if err != nil {
		_ = c.WriteJSON(runMessage{Type: "error", Error: err.Error(), Summary: summary})
		return
	}
	if err := c.WriteJSON(runMessage{Type: "summary", Summary: summary}); err != nil {
		dc.Logger.WithError(err).Debug("Error writing JSON")
	}
}
