package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dripmail/models"
	"dripmail/store"
	"dripmail/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrNoContactList       = errors.New("campaign has no contact list")
	ErrNoSteps             = errors.New("campaign has no steps")
	ErrCampaignNotActive   = errors.New("campaign is not active")
	ErrMissingSubscribedAt = errors.New("contact has no subscription date")
	ErrMissingEmail        = errors.New("contact has no email address")
)

// Skip reasons reported in ContactResult.Reason.
const (
	ReasonNoStepDue     = "no step due"
	ReasonAlreadySent   = "already sent today"
	ReasonNotSubscribed = "contact not subscribed"
	ReasonNotOnList     = "contact not on campaign list"
)

// DripScheduler sends each subscribed contact of every active drip campaign
// the step whose DelayDays equals the contact's subscription age in whole
// UTC days. One Run is one full scan; there is no checkpoint between runs.
type DripScheduler struct {
	campaigns store.CampaignStore
	contacts  store.ContactStore
	settings  store.SettingsStore
	transport utils.MailTransport

	ledger   SendLedger
	lock     RunLock
	baseURL  string
	fallback models.Settings
	now      func() time.Time
	logger   *logrus.Entry
	observer func(ContactResult)
}

type Option func(*DripScheduler)

// WithLedger makes the scheduler skip sends already recorded for the day and
// record every successful send.
func WithLedger(l SendLedger) Option {
	return func(s *DripScheduler) { s.ledger = l }
}

// WithRunLock guards Run against overlapping invocations.
func WithRunLock(l RunLock) Option {
	return func(s *DripScheduler) { s.lock = l }
}

// WithBaseURL sets the public URL unsubscribe links are built on.
func WithBaseURL(baseURL string) Option {
	return func(s *DripScheduler) { s.baseURL = baseURL }
}

// WithSenderDefaults sets the sender used when the settings row leaves the
// from name or address empty.
func WithSenderDefaults(name, email string) Option {
	return func(s *DripScheduler) {
		s.fallback.FromName = name
		s.fallback.FromEmail = email
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *DripScheduler) { s.now = now }
}

func WithLogger(logger *logrus.Entry) Option {
	return func(s *DripScheduler) { s.logger = logger }
}

// WithObserver registers a callback invoked after every contact is processed.
func WithObserver(fn func(ContactResult)) Option {
	return func(s *DripScheduler) { s.observer = fn }
}

// NewDripScheduler builds a scheduler. A nil transport is accepted: every
// Run then fails with utils.ErrMailTransportNotConfigured before sending.
func NewDripScheduler(
	campaigns store.CampaignStore,
	contacts store.ContactStore,
	settings store.SettingsStore,
	transport utils.MailTransport,
	opts ...Option,
) *DripScheduler {
	s := &DripScheduler{
		campaigns: campaigns,
		contacts:  contacts,
		settings:  settings,
		transport: transport,
		now:       time.Now,
		logger:    logrus.WithField("component", "drip"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one scheduling pass. The returned error is set only for
// conditions that stop the whole run; per-campaign and per-contact problems
// are reported in the summary.
func (s *DripScheduler) Run(ctx context.Context) (*RunSummary, error) {
	return s.run(ctx, s.observer)
}

// RunWithObserver is Run with a per-call observer, used to stream progress.
func (s *DripScheduler) RunWithObserver(ctx context.Context, observer func(ContactResult)) (*RunSummary, error) {
	return s.run(ctx, func(r ContactResult) {
		if s.observer != nil {
			s.observer(r)
		}
		if observer != nil {
			observer(r)
		}
	})
}

func (s *DripScheduler) run(ctx context.Context, observer func(ContactResult)) (*RunSummary, error) {
	today := s.now().UTC()
	summary := newRunSummary(uuid.NewString(), today)
	log := s.logger.WithField("run_id", summary.RunID)

	if s.transport == nil {
		utils.LogError("drip_config", utils.ErrMailTransportNotConfigured, map[string]interface{}{
			"run_id": summary.RunID,
		})
		return summary.finish(s.now()), utils.ErrMailTransportNotConfigured
	}

	if s.lock != nil {
		release, err := s.lock.Acquire(ctx)
		if err != nil {
			return summary.finish(s.now()), err
		}
		defer release()
	}

	campaigns, err := s.campaigns.ActiveCampaigns(ctx)
	if err != nil {
		return summary.finish(s.now()), fmt.Errorf("load active campaigns: %w", err)
	}
	if len(campaigns) == 0 {
		log.Info("No active drip campaigns")
		return summary.finish(s.now()), nil
	}

	settings := s.loadSettings(ctx, log)

	for i := range campaigns {
		if err := ctx.Err(); err != nil {
			return summary.finish(s.now()), err
		}
		if err := s.runCampaign(ctx, &campaigns[i], settings, today, summary, observer, log); err != nil {
			return summary.finish(s.now()), err
		}
	}

	summary.finish(s.now())
	log.WithFields(logrus.Fields{
		"campaigns":         summary.Campaigns,
		"campaigns_skipped": len(summary.SkippedCampaigns),
		"contacts":          summary.Contacts,
		"sent":              summary.Sent,
		"skipped":           summary.Skipped,
		"failed":            summary.Failed,
		"duration":          summary.FinishedAt.Sub(summary.StartedAt).String(),
	}).Info("Drip run completed")
	return summary, nil
}

// loadSettings never fails: a read error or empty field falls back to the
// configured sender and then to the built-in defaults.
func (s *DripScheduler) loadSettings(ctx context.Context, log *logrus.Entry) models.Settings {
	var settings models.Settings
	if s.settings != nil {
		got, err := s.settings.Settings(ctx)
		if err != nil {
			log.WithError(err).Warn("Failed to load settings, using defaults")
		} else {
			settings = got
		}
	}
	if settings.FromName == "" {
		settings.FromName = s.fallback.FromName
	}
	if settings.FromEmail == "" {
		settings.FromEmail = s.fallback.FromEmail
	}
	return settings.WithDefaults()
}

// runCampaign returns an error only when ctx is done.
func (s *DripScheduler) runCampaign(
	ctx context.Context,
	campaign *models.DripCampaign,
	settings models.Settings,
	today time.Time,
	summary *RunSummary,
	observer func(ContactResult),
	log *logrus.Entry,
) error {
	log = log.WithFields(logrus.Fields{"campaign_id": campaign.ID, "campaign": campaign.Name})

	if err := validateCampaign(campaign); err != nil {
		log.WithError(err).Warn("Skipping drip campaign")
		summary.skipCampaign(campaign, err)
		return nil
	}

	contacts, err := s.contacts.SubscribedContacts(ctx, campaign.ContactListID)
	if err != nil {
		utils.LogError("drip_campaign", err, map[string]interface{}{
			"campaign_id": campaign.ID,
			"campaign":    campaign.Name,
		})
		summary.skipCampaign(campaign, err)
		return nil
	}

	summary.Campaigns++
	log.WithField("contacts", len(contacts)).Debug("Processing drip campaign")

	for i := range contacts {
		if err := ctx.Err(); err != nil {
			return err
		}
		result := s.processContact(ctx, campaign, &contacts[i], settings, today)
		summary.add(result)
		if observer != nil {
			observer(result)
		}
	}
	return nil
}

func validateCampaign(c *models.DripCampaign) error {
	if !c.IsActive() {
		return ErrCampaignNotActive
	}
	if c.ContactListID == 0 {
		return ErrNoContactList
	}
	if len(c.Steps) == 0 {
		return ErrNoSteps
	}
	return nil
}

func (s *DripScheduler) processContact(
	ctx context.Context,
	campaign *models.DripCampaign,
	contact *models.Contact,
	settings models.Settings,
	today time.Time,
) (result ContactResult) {
	result = ContactResult{
		CampaignID:   campaign.ID,
		CampaignName: campaign.Name,
		ContactID:    contact.ID,
		Email:        contact.Email,
		DelayDays:    -1,
	}

	defer func() {
		if r := recover(); r != nil {
			result = result.failed(fmt.Errorf("panic while processing contact: %v", r))
		}
		if result.Outcome == OutcomeFailed {
			utils.LogError("drip_send", result.Err, map[string]interface{}{
				"campaign_id": campaign.ID,
				"campaign":    campaign.Name,
				"contact_id":  contact.ID,
				"email":       contact.Email,
			})
		}
	}()

	if !contact.IsSubscribed() {
		return result.skipped(ReasonNotSubscribed)
	}
	if !contact.InList(campaign.ContactListID) {
		return result.skipped(ReasonNotOnList)
	}
	if contact.SubscribedAt == nil || contact.SubscribedAt.IsZero() {
		return result.failed(ErrMissingSubscribedAt)
	}
	if contact.Email == "" {
		return result.failed(ErrMissingEmail)
	}

	days := DaysSinceSubscription(today, *contact.SubscribedAt)
	step, ok := MatchStep(campaign.Steps, days)
	if !ok {
		return result.skipped(ReasonNoStepDue)
	}
	result.DelayDays = step.DelayDays
	result.Subject = step.Subject

	key := SendKey{
		CampaignID: campaign.ID,
		ContactID:  contact.ID,
		DelayDays:  step.DelayDays,
		Date:       CalendarDate(today),
	}
	if s.ledger != nil {
		sent, err := s.ledger.Has(ctx, key)
		if err != nil {
			s.logger.WithError(err).WithField("key", key.String()).Warn("Send ledger lookup failed, sending anyway")
		} else if sent {
			return result.skipped(ReasonAlreadySent)
		}
	}

	email := &utils.OutgoingEmail{
		From:    utils.FormatSender(settings.FromName, settings.FromEmail),
		To:      []string{contact.Email},
		Subject: step.Subject,
		HTML: utils.PersonalizeHTML(step.Body, contact) + utils.ComposeFooter(utils.FooterInput{
			CompanyName:    settings.CompanyName,
			CompanyAddress: settings.CompanyAddress,
			ContactID:      contact.ID,
			ListID:         campaign.ContactListID,
			BaseURL:        s.baseURL,
			Year:           today.Year(),
		}),
	}

	if err := s.transport.Send(ctx, email); err != nil {
		return result.failed(err)
	}

	if s.ledger != nil {
		if err := s.ledger.Mark(ctx, key, s.now().UTC()); err != nil {
			s.logger.WithError(err).WithField("key", key.String()).Warn("Failed to record drip send")
		}
	}

	return result.sent()
}
