package worker

import (
	"time"

	"dripmail/models"
)

type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// ContactResult is what happened to one contact of one campaign in a run.
type ContactResult struct {
	CampaignID   uint    `json:"campaign_id"`
	CampaignName string  `json:"campaign"`
	ContactID    uint    `json:"contact_id"`
	Email        string  `json:"email"`
	Outcome      Outcome `json:"outcome"`
	DelayDays    int     `json:"delay_days"` // -1 when no step matched
	Subject      string  `json:"subject,omitempty"`
	Reason       string  `json:"reason,omitempty"`
	Err          error   `json:"-"`
	Error        string  `json:"error,omitempty"`
}

func (r ContactResult) sent() ContactResult {
	r.Outcome = OutcomeSent
	return r
}

func (r ContactResult) skipped(reason string) ContactResult {
	r.Outcome = OutcomeSkipped
	r.Reason = reason
	return r
}

func (r ContactResult) failed(err error) ContactResult {
	r.Outcome = OutcomeFailed
	r.Err = err
	r.Error = err.Error()
	return r
}

// CampaignSkip records a campaign left out of a run.
type CampaignSkip struct {
	CampaignID uint   `json:"campaign_id"`
	Name       string `json:"name"`
	Reason     string `json:"reason"`
}

// RunSummary aggregates one drip run.
type RunSummary struct {
	RunID            string          `json:"run_id"`
	StartedAt        time.Time       `json:"started_at"`
	FinishedAt       time.Time       `json:"finished_at"`
	Campaigns        int             `json:"campaigns"`
	SkippedCampaigns []CampaignSkip  `json:"skipped_campaigns"`
	Contacts         int             `json:"contacts"`
	Sent             int             `json:"sent"`
	Skipped          int             `json:"skipped"`
	Failed           int             `json:"failed"`
	Results          []ContactResult `json:"results"`
}

func newRunSummary(runID string, startedAt time.Time) *RunSummary {
	return &RunSummary{RunID: runID, StartedAt: startedAt.UTC()}
}

func (s *RunSummary) add(r ContactResult) {
	s.Contacts++
	switch r.Outcome {
	case OutcomeSent:
		s.Sent++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
	s.Results = append(s.Results, r)
}

func (s *RunSummary) skipCampaign(c *models.DripCampaign, err error) {
	s.SkippedCampaigns = append(s.SkippedCampaigns, CampaignSkip{
		CampaignID: c.ID,
		Name:       c.Name,
		Reason:     err.Error(),
	})
}

func (s *RunSummary) finish(now time.Time) *RunSummary {
	s.FinishedAt = now.UTC()
	return s
}

// ResultsFor returns the results of one outcome, in processing order.
func (s *RunSummary) ResultsFor(outcome Outcome) []ContactResult {
	var out []ContactResult
	for _, r := range s.Results {
		if r.Outcome == outcome {
			out = append(out, r)
		}
	}
	return out
}
