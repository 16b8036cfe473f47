package reconcile

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubreg/portal/internal/metrics"
	"github.com/clubreg/portal/internal/models"
	"github.com/clubreg/portal/internal/notify"
	"github.com/clubreg/portal/internal/payments"
	"github.com/clubreg/portal/internal/storage/sqlite"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []*notify.Confirmation
	err  error
}

func (m *recordingMailer) SendConfirmation(ctx context.Context, c *notify.Confirmation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, c)
	return m.err
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type recordingAlerter struct {
	mu   sync.Mutex
	sent []*notify.PaymentAlert
}

func (a *recordingAlerter) AlertPayment(ctx context.Context, p *notify.PaymentAlert) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, p)
	return nil
}

type fixture struct {
	store   *sqlite.SQLiteStore
	club    *models.Club
	ids     []string
	mailer  *recordingMailer
	alerter *recordingAlerter
	r       *Reconciler
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "portal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	club := &models.Club{
		Slug:             "stingrays",
		Name:             "Stingrays",
		ContactEmail:     "coach@stingrays.example",
		ClubDuesCents:    25000,
		Fees:             models.FeeSchedule{Flag: 1600, Contact: 3000},
		CurrentSeason:    "2025-2026",
		PracticeLocation: "Harbor Park",
	}
	require.NoError(t, store.UpsertClub(ctx, club))

	g, err := store.GetOrCreateGuardian(ctx, "user-1", "alex@example.com")
	require.NoError(t, err)
	key := models.DraftKey{ClubID: club.ID, Season: club.CurrentSeason, GuardianID: g.ID}
	require.NoError(t, store.SaveDraft(ctx, key, &models.Draft{
		Guardian: models.Guardian{ID: g.ID, Email: g.Email, FirstName: "Alex", LastName: "Rivera"},
		Players: []models.DraftPlayer{
			{ClientID: "tmp-1", Player: models.Player{FirstName: "Jo", LastName: "Rivera", DateOfBirth: "2018-06-01", Gender: models.GenderMale}, Division: models.DivisionU8},
			{ClientID: "tmp-2", Player: models.Player{FirstName: "Sam", LastName: "Rivera", DateOfBirth: "2014-05-01", Gender: models.GenderFemale}, Division: models.DivisionU12},
		},
		CurrentStep: 4,
	}))

	drafts, err := store.ListDraftRegistrations(ctx, key)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	var ids []string
	for _, d := range drafts {
		ids = append(ids, d.ID)
	}

	mailer := &recordingMailer{}
	alerter := &recordingAlerter{}
	r := New(store, mailer, alerter, Options{
		BaseURL: "https://portal.example/",
		Now:     func() time.Time { return time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC) },
	})
	return &fixture{store: store, club: club, ids: ids, mailer: mailer, alerter: alerter, r: r}
}

func completed(ref string, ids ...string) *payments.Event {
	return &payments.Event{
		ID:          "evt_" + ref,
		Type:        payments.EventCheckoutCompleted,
		RawType:     "checkout.completed",
		PaymentRef:  ref,
		AmountCents: 54600,
		Metadata:    map[string]string{payments.MetadataRegistrationIDs: payments.JoinRegistrationIDs(ids)},
	}
}

func (f *fixture) statuses(t *testing.T) []models.RegistrationStatus {
	t.Helper()
	details, err := f.store.GetRegistrationDetails(context.Background(), f.ids)
	require.NoError(t, err)
	var out []models.RegistrationStatus
	for _, d := range details {
		out = append(out, d.Status)
	}
	return out
}

func (f *fixture) ledger(t *testing.T) []models.Payment {
	t.Helper()
	p, err := f.store.ListPaymentsByClub(context.Background(), f.club.ID)
	require.NoError(t, err)
	return p
}

func TestCompletedCheckout(t *testing.T) {
	f := setup(t)
	paidBefore := testutil.ToFloat64(metrics.RegistrationsPaid)

	outcome, err := f.r.Handle(context.Background(), "stub", completed("pi_1", f.ids...))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, []models.RegistrationStatus{models.StatusPaid, models.StatusPaid}, f.statuses(t))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RegistrationsPaid)-paidBefore)

	ledger := f.ledger(t)
	require.Len(t, ledger, 2)
	byTotal := map[int64]models.Payment{}
	for _, p := range ledger {
		byTotal[p.TotalAmountCents] = p
		assert.Equal(t, "pi_1", p.PaymentRef)
		assert.Equal(t, models.PaymentSucceeded, p.Status)
		assert.Equal(t, int64(25000), p.ClubPortionCents)
	}
	assert.Equal(t, int64(1600), byTotal[26600].GoverningBodyPortionCents)
	assert.Equal(t, int64(3000), byTotal[28000].GoverningBodyPortionCents)

	details, err := f.store.GetRegistrationDetails(context.Background(), f.ids)
	require.NoError(t, err)
	for _, d := range details {
		assert.Equal(t, int64(54600), d.PaymentAmountCents, "each registration records the checkout total")
	}

	require.Equal(t, 1, f.mailer.count())
	c := f.mailer.sent[0]
	assert.Equal(t, "Alex Rivera", c.GuardianName)
	assert.Equal(t, "alex@example.com", c.GuardianEmail)
	assert.Equal(t, "$546.00", c.TotalPaid)
	assert.Len(t, c.Players, 2)
	assert.False(t, c.DocumentsComplete)
	assert.Equal(t, "https://portal.example/stingrays/documents/"+f.ids[0], c.DocumentsUploadURL)
	assert.Equal(t, "Harbor Park", c.PracticeLocation)

	require.Len(t, f.alerter.sent, 1)
	assert.Equal(t, "pi_1", f.alerter.sent[0].PaymentRef)
}

func TestDuplicateDelivery(t *testing.T) {
	f := setup(t)
	dupBefore := testutil.ToFloat64(metrics.WebhookEvents.WithLabelValues("stub", string(OutcomeDuplicate)))

	_, err := f.r.Handle(context.Background(), "stub", completed("pi_1", f.ids...))
	require.NoError(t, err)
	outcome, err := f.r.Handle(context.Background(), "stub", completed("pi_1", f.ids...))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)

	assert.Len(t, f.ledger(t), 2, "one ledger row per registration")
	assert.Equal(t, 1, f.mailer.count(), "at most one confirmation")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WebhookEvents.WithLabelValues("stub", string(OutcomeDuplicate)))-dupBefore)
}

func TestConcurrentDuplicateDeliveries(t *testing.T) {
	f := setup(t)

	var wg sync.WaitGroup
	outcomes := make(chan Outcome, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := f.r.Handle(context.Background(), "stub", completed("pi_1", f.ids...))
			assert.NoError(t, err)
			outcomes <- o
		}()
	}
	wg.Wait()
	close(outcomes)

	applied := 0
	for o := range outcomes {
		if o == OutcomeApplied {
			applied++
		}
	}
	assert.Equal(t, 1, applied)
	assert.Len(t, f.ledger(t), 2)
	assert.Equal(t, 1, f.mailer.count())
}

func TestUnknownRegistrationRollsBack(t *testing.T) {
	f := setup(t)

	outcome, err := f.r.Handle(context.Background(), "stub", completed("pi_1", f.ids[0], "does-not-exist"))
	require.Error(t, err)
	assert.Equal(t, OutcomeError, outcome)
	assert.Equal(t, []models.RegistrationStatus{models.StatusDraft, models.StatusDraft}, f.statuses(t))
	assert.Empty(t, f.ledger(t))
	assert.Equal(t, 0, f.mailer.count())

	// The reference was not claimed, so a corrected redelivery applies.
	outcome, err = f.r.Handle(context.Background(), "stub", completed("pi_1", f.ids...))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Len(t, f.ledger(t), 2)
}

func TestPaymentFailed(t *testing.T) {
	f := setup(t)
	before := testutil.ToFloat64(metrics.PaymentFailures)

	outcome, err := f.r.Handle(context.Background(), "stub", &payments.Event{
		ID:             "evt_f",
		Type:           payments.EventPaymentFailed,
		PaymentRef:     "pi_f",
		FailureMessage: "card declined",
		Metadata:       map[string]string{payments.MetadataRegistrationIDs: payments.JoinRegistrationIDs(f.ids)},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomePaymentFailed, outcome)
	assert.Equal(t, []models.RegistrationStatus{models.StatusDraft, models.StatusDraft}, f.statuses(t))
	assert.Empty(t, f.ledger(t))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PaymentFailures)-before)
}

func TestEventsWithoutWork(t *testing.T) {
	f := setup(t)

	outcome, err := f.r.Handle(context.Background(), "stub", completed("pi_1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoRegistrations, outcome)

	outcome, err = f.r.Handle(context.Background(), "stub", &payments.Event{Type: payments.EventIgnored, RawType: "customer.created"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)

	_, err = f.r.Handle(context.Background(), "stub", completed("", f.ids...))
	assert.ErrorIs(t, err, payments.ErrMalformedEvent)

	assert.Empty(t, f.ledger(t))
	assert.Equal(t, 0, f.mailer.count())
}

func TestMailerFailureKeepsPayment(t *testing.T) {
	f := setup(t)
	f.mailer.err = errors.New("smtp down")

	outcome, err := f.r.Handle(context.Background(), "stub", completed("pi_1", f.ids...))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, []models.RegistrationStatus{models.StatusPaid, models.StatusPaid}, f.statuses(t))

	_, err = f.r.Handle(context.Background(), "stub", completed("pi_1", f.ids...))
	require.NoError(t, err)
	assert.Equal(t, 1, f.mailer.count(), "notification is claimed even when sending fails")
}
