// Package reconcile applies payment processor events to registrations.
//
// A completed checkout moves every registration it paid for to paid and
// writes one ledger row per registration, all in one store transaction keyed
// by the payment reference. Redelivered events are detected by that key and
// never produce a second ledger row or a second confirmation email.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/clubreg/portal/internal/calculator"
	"github.com/clubreg/portal/internal/metrics"
	"github.com/clubreg/portal/internal/models"
	"github.com/clubreg/portal/internal/notify"
	"github.com/clubreg/portal/internal/payments"
	"github.com/clubreg/portal/internal/storage"
)

// Outcome describes what happened to one event.
type Outcome string

const (
	OutcomeApplied         Outcome = "applied"
	OutcomeDuplicate       Outcome = "duplicate"
	OutcomeNoRegistrations Outcome = "no_registrations"
	OutcomePaymentFailed   Outcome = "payment_failed"
	OutcomeIgnored         Outcome = "ignored"
	OutcomeError           Outcome = "error"
)

// Store is the storage the reconciler needs.
type Store interface {
	GetClub(ctx context.Context, clubID string) (*models.Club, error)
	GetRegistrationDetails(ctx context.Context, ids []string) ([]models.RegistrationDetails, error)
	storage.ReconcileStore
}

// Options configures links placed in confirmations.
type Options struct {
	// BaseURL is the public portal URL, used for the documents upload link.
	BaseURL string
	Now     func() time.Time
}

// Reconciler handles normalised payment events.
type Reconciler struct {
	store   Store
	mailer  notify.Mailer
	alerter notify.Alerter
	opts    Options
}

// New creates a Reconciler. A nil mailer or alerter disables that channel.
func New(store Store, mailer notify.Mailer, alerter notify.Alerter, opts Options) *Reconciler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Reconciler{store: store, mailer: mailer, alerter: alerter, opts: opts}
}

// Handle processes one authenticated event. A returned error means the event
// was not applied and the processor should redeliver it.
func (r *Reconciler) Handle(ctx context.Context, provider string, ev *payments.Event) (Outcome, error) {
	outcome, err := r.handle(ctx, ev)
	if err != nil {
		outcome = OutcomeError
	}
	metrics.WebhookEvents.WithLabelValues(provider, string(outcome)).Inc()
	return outcome, err
}

func (r *Reconciler) handle(ctx context.Context, ev *payments.Event) (Outcome, error) {
	switch ev.Type {
	case payments.EventCheckoutCompleted:
		return r.completed(ctx, ev)
	case payments.EventPaymentFailed:
		metrics.PaymentFailures.Inc()
		slog.Warn("Payment failed",
			"event_id", ev.ID,
			"payment_ref", ev.PaymentRef,
			"registration_ids", ev.Metadata[payments.MetadataRegistrationIDs],
			"reason", ev.FailureMessage,
		)
		return OutcomePaymentFailed, nil
	default:
		slog.Debug("Ignoring payment event", "event_id", ev.ID, "type", ev.RawType)
		return OutcomeIgnored, nil
	}
}

func (r *Reconciler) completed(ctx context.Context, ev *payments.Event) (Outcome, error) {
	ids := ev.RegistrationIDs()
	if len(ids) == 0 {
		slog.Error("Checkout completed without registration ids", "event_id", ev.ID, "payment_ref", ev.PaymentRef)
		return OutcomeNoRegistrations, nil
	}
	if ev.PaymentRef == "" {
		return OutcomeError, fmt.Errorf("%w: checkout completed without payment reference", payments.ErrMalformedEvent)
	}

	details, err := r.store.GetRegistrationDetails(ctx, ids)
	if err != nil {
		return OutcomeError, fmt.Errorf("failed to load registrations: %w", err)
	}
	clubs, err := r.loadClubs(ctx, details)
	if err != nil {
		return OutcomeError, err
	}

	completion := &storage.CheckoutCompletion{
		PaymentRef:      ev.PaymentRef,
		RegistrationIDs: ids,
		AmountCents:     ev.AmountCents,
		PaidAt:          r.opts.Now().Unix(),
		Ledger:          buildLedger(details, clubs, ev.PaymentRef),
	}
	var computed int64
	for _, p := range completion.Ledger {
		computed += p.TotalAmountCents
	}
	if completion.AmountCents == 0 {
		completion.AmountCents = computed
	}

	outcome := OutcomeApplied
	err = r.store.CommitCheckout(ctx, completion)
	switch {
	case errors.Is(err, storage.ErrAlreadyProcessed):
		slog.Info("Payment already processed", "payment_ref", ev.PaymentRef, "event_id", ev.ID)
		outcome = OutcomeDuplicate
	case err != nil:
		slog.Error("Failed to reconcile payment", "payment_ref", ev.PaymentRef, "registration_ids", ids, "error", err)
		return OutcomeError, fmt.Errorf("failed to commit checkout %s: %w", ev.PaymentRef, err)
	default:
		metrics.RegistrationsPaid.Add(float64(len(ids)))
		slog.Info("Payment reconciled",
			"payment_ref", ev.PaymentRef,
			"registrations", len(ids),
			"amount_cents", completion.AmountCents,
		)
		if ev.AmountCents != 0 && ev.AmountCents != computed {
			slog.Warn("Paid amount differs from fee schedule",
				"payment_ref", ev.PaymentRef,
				"paid_cents", ev.AmountCents,
				"computed_cents", computed,
			)
		}
		if len(completion.Reopened) > 0 {
			slog.Warn("Payment reopened cancelled or waitlisted registrations",
				"payment_ref", ev.PaymentRef,
				"registration_ids", completion.Reopened,
			)
		}
	}

	r.notify(ctx, ev.PaymentRef, ids, details, clubs, computed)
	return outcome, nil
}

func (r *Reconciler) loadClubs(ctx context.Context, details []models.RegistrationDetails) (map[string]*models.Club, error) {
	clubs := make(map[string]*models.Club)
	for _, d := range details {
		if _, ok := clubs[d.ClubID]; ok {
			continue
		}
		club, err := r.store.GetClub(ctx, d.ClubID)
		if err != nil {
			return nil, fmt.Errorf("failed to load club %s: %w", d.ClubID, err)
		}
		clubs[d.ClubID] = club
	}
	return clubs, nil
}

// buildLedger prices each registration from its club's fee schedule.
func buildLedger(details []models.RegistrationDetails, clubs map[string]*models.Club, ref string) []models.Payment {
	ledger := make([]models.Payment, 0, len(details))
	for _, d := range details {
		club := clubs[d.ClubID]
		fee := calculator.FeeFor(d.Division, club.ClubDuesCents, club.Fees)
		ledger = append(ledger, models.Payment{
			RegistrationID:            d.ID,
			ClubID:                    d.ClubID,
			GuardianID:                d.Player.GuardianID,
			TotalAmountCents:          fee.Total,
			ClubPortionCents:          fee.Club,
			GoverningBodyPortionCents: fee.GoverningBody,
			PaymentRef:                ref,
			Status:                    models.PaymentSucceeded,
		})
	}
	return ledger
}

// notify sends the confirmation and admin alert at most once per payment
// reference. Failures are logged and never undo the reconciliation.
func (r *Reconciler) notify(ctx context.Context, ref string, ids []string,
	details []models.RegistrationDetails, clubs map[string]*models.Club, total int64) {
	if len(details) == 0 || (r.mailer == nil && r.alerter == nil) {
		return
	}
	claimed, err := r.store.ClaimNotification(ctx, ref)
	if err != nil {
		slog.Error("Failed to claim notification", "payment_ref", ref, "error", err)
		return
	}
	if !claimed {
		return
	}

	first := details[0]
	club := clubs[first.ClubID]
	c := &notify.Confirmation{
		GuardianName:      first.Guardian.FullName(),
		GuardianEmail:     first.Guardian.Email,
		ClubName:          club.Name,
		ClubEmail:         club.ContactEmail,
		TotalPaid:         notify.FormatUSD(total),
		PracticeLocation:  club.PracticeLocation,
		PracticeSchedule:  club.PracticeSchedule,
		DocumentsComplete: true,
	}
	for _, d := range details {
		c.Players = append(c.Players, notify.PlayerLine{Name: d.Player.DisplayName(), Division: string(d.Division)})
		if !d.Player.DocumentsComplete() {
			c.DocumentsComplete = false
		}
	}
	if !c.DocumentsComplete && r.opts.BaseURL != "" {
		c.DocumentsUploadURL = fmt.Sprintf("%s/%s/documents/%s", r.opts.BaseURL, club.Slug, ids[0])
	}

	if r.mailer != nil {
		err := r.mailer.SendConfirmation(ctx, c)
		metrics.Notifications.WithLabelValues("email", metrics.Result(err)).Inc()
		if err != nil {
			slog.Error("Failed to send confirmation email", "payment_ref", ref, "to", c.GuardianEmail, "error", err)
		}
	}
	if r.alerter != nil {
		err := r.alerter.AlertPayment(ctx, &notify.PaymentAlert{
			ClubName:     club.Name,
			GuardianName: c.GuardianName,
			Players:      c.Players,
			TotalPaid:    c.TotalPaid,
			PaymentRef:   ref,
		})
		metrics.Notifications.WithLabelValues("alert", metrics.Result(err)).Inc()
		if err != nil {
			slog.Warn("Failed to send admin alert", "payment_ref", ref, "error", err)
		}
	}
}
