// Package wizard implements the guardian registration flow as a state machine.
//
// A Wizard is owned by one guardian session. It moves through the steps
// Guardian, Players, Documents, Medical and Review using the transition table
// in steps.go, persists its aggregate state through a debounced auto-save and
// finally hands off to checkout.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clubreg/portal/internal/calculator"
	"github.com/clubreg/portal/internal/checkout"
	"github.com/clubreg/portal/internal/models"
	"github.com/clubreg/portal/internal/storage"
	"github.com/clubreg/portal/internal/validation"
)

var (
	ErrWrongStep        = errors.New("operation not available on this step")
	ErrAlreadyEditing   = errors.New("another player is being edited")
	ErrNotEditing       = errors.New("no player is being edited")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrSkipNotOffered   = errors.New("every player already has documents")
	ErrSubmitInFlight   = errors.New("submission already in progress")
	ErrClosed           = errors.New("wizard closed")
	ErrNotAuthenticated = errors.New("sign in to submit a registration")
	ErrDraftSave        = errors.New("registration could not be saved")
)

// DocumentKind names an uploadable document.
type DocumentKind string

const (
	DocumentHeadshot DocumentKind = "headshot"
	DocumentDOBProof DocumentKind = "dob_proof"
)

// Waivers are the three agreements accepted on the Review step.
type Waivers struct {
	Regional      bool `json:"regional"`
	GoverningBody bool `json:"governing_body"`
	Club          bool `json:"club"`
}

// All reports whether every waiver is accepted.
func (w Waivers) All() bool { return w.Regional && w.GoverningBody && w.Club }

// PlayerInput is the editable identity of a player.
type PlayerInput struct {
	FirstName   string
	LastName    string
	DateOfBirth string
	Gender      models.Gender
}

// MedicalInput is the optional medical and emergency information.
type MedicalInput struct {
	MedicalConditions            string
	Allergies                    string
	EmergencyContactName         string
	EmergencyContactPhone        string
	EmergencyContactRelationship string
}

// CheckoutStarter hands a submitted registration to the payment processor.
type CheckoutStarter interface {
	Start(ctx context.Context, req checkout.Request) (*checkout.Result, error)
}

// Config wires a Wizard to its collaborators.
type Config struct {
	Club models.Club
	// Season defaults to Club.CurrentSeason.
	Season string

	// GuardianID and Email come from the authenticated identity.
	// Auto-save and submission are disabled without a GuardianID.
	GuardianID string
	Email      string

	Drafts   storage.DraftStore
	Checkout CheckoutStarter

	Clock         Clock
	AutosaveDelay time.Duration
	SavedDisplay  time.Duration

	// OnSave, when set, observes every auto-save attempt.
	OnSave func(err error, elapsed time.Duration)
}

// Wizard holds one guardian's in-progress registration.
// All methods are safe for concurrent use.
type Wizard struct {
	cfg   Config
	key   models.DraftKey
	saver *autosaver

	mu            sync.Mutex
	step          Step
	furthest      Step
	guardian      models.Guardian
	guardianSet   bool
	players       []models.DraftPlayer
	editing       *models.DraftPlayer
	editingNew    bool
	skipDocuments bool
	waivers       Waivers
	submitting    bool
	lastCheckout  *checkout.Result
	closed        bool
}

// New creates a wizard at the Guardian step.
func New(cfg Config) *Wizard {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Season == "" {
		cfg.Season = cfg.Club.CurrentSeason
	}
	if cfg.AutosaveDelay <= 0 {
		cfg.AutosaveDelay = DefaultAutosaveDelay
	}
	if cfg.SavedDisplay <= 0 {
		cfg.SavedDisplay = DefaultSavedDisplay
	}

	w := &Wizard{
		cfg: cfg,
		key: models.DraftKey{ClubID: cfg.Club.ID, Season: cfg.Season, GuardianID: cfg.GuardianID},
	}
	w.guardian = models.Guardian{ID: cfg.GuardianID, Email: cfg.Email, Country: "US"}

	if cfg.GuardianID != "" && cfg.Drafts != nil {
		w.saver = newAutosaver(cfg.Clock, cfg.AutosaveDelay, cfg.SavedDisplay,
			func(ctx context.Context, d *models.Draft) error {
				return cfg.Drafts.SaveDraft(ctx, w.key, d)
			})
		w.saver.observe = cfg.OnSave
	}
	return w
}

// Start creates a wizard and resumes the guardian's saved draft, if any.
// A failed load is logged and the wizard starts fresh.
func Start(ctx context.Context, cfg Config) *Wizard {
	w := New(cfg)
	if w.saver == nil {
		return w
	}

	draft, err := cfg.Drafts.LoadDraft(ctx, w.key)
	if err != nil {
		slog.Warn("Failed to load registration draft", "guardian_id", cfg.GuardianID, "club_id", cfg.Club.ID, "error", err)
		return w
	}
	if draft == nil {
		return w
	}
	w.resume(draft)
	slog.Info("Registration draft resumed",
		"guardian_id", cfg.GuardianID,
		"club_id", cfg.Club.ID,
		"step", w.step.String(),
		"players", len(w.players),
	)
	return w
}

func (w *Wizard) resume(d *models.Draft) {
	w.mu.Lock()
	defer w.mu.Unlock()

	g := d.Guardian
	g.ID = w.cfg.GuardianID
	if g.Email == "" {
		g.Email = w.cfg.Email
	}
	w.guardian = g
	w.guardianSet = len(validation.Guardian(&g)) == 0

	now := w.cfg.Clock.Now()
	w.players = make([]models.DraftPlayer, len(d.Players))
	for i, p := range d.Players {
		p.Division = divisionOf(&p.Player, now, p.Division)
		w.players[i] = p
	}

	step := Step(d.CurrentStep)
	if !step.Valid() {
		step = StepReview
		if d.CurrentStep < 0 {
			step = StepGuardian
		}
	}
	// Getting past Documents with files missing means upload-later was chosen.
	if step > StepDocuments && !w.allDocumentsComplete() {
		w.skipDocuments = true
	}
	// Resume no further than the first step whose requirements fail.
	for s := StepGuardian; s < step; s++ {
		if err := exitGuards[s](w, Next); err != nil {
			step = s
			break
		}
	}
	w.step, w.furthest = step, step
}

// divisionOf recomputes a player's division, keeping fallback when the
// date of birth cannot be parsed.
func divisionOf(p *models.Player, now time.Time, fallback models.Division) models.Division {
	dob, err := validation.ParseDOB(p.DateOfBirth)
	if err != nil {
		return fallback
	}
	return calculator.DivisionFor(dob, p.Gender, now)
}

// changed schedules an auto-save of the current aggregate. Caller holds w.mu.
func (w *Wizard) changed() {
	if w.saver == nil || !w.guardianSet || w.closed {
		return
	}
	w.saver.Schedule(w.snapshotLocked())
}

func (w *Wizard) snapshotLocked() *models.Draft {
	players := make([]models.DraftPlayer, len(w.players))
	copy(players, w.players)
	return &models.Draft{
		Guardian:    w.guardian,
		Players:     players,
		CurrentStep: int(w.furthest),
	}
}

func (w *Wizard) requireStep(s Step) error {
	if w.closed {
		return ErrClosed
	}
	if w.step != s {
		return fmt.Errorf("%w: on %s, need %s", ErrWrongStep, w.step, s)
	}
	return nil
}

// SetGuardian validates and commits the guardian details. On success the
// wizard advances from the Guardian step. Validation failures are returned as
// validation.FieldErrors.
func (w *Wizard) SetGuardian(g models.Guardian) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}

	g.ID = w.cfg.GuardianID
	if g.Email == "" {
		g.Email = w.cfg.Email
	}
	g.Email = strings.TrimSpace(g.Email)
	if g.Country == "" {
		g.Country = "US"
	}
	if errs := validation.Guardian(&g); len(errs) > 0 {
		return errs
	}
	if validation.IsValidPhone(g.Phone) {
		g.Phone = validation.FormatPhone(g.Phone)
	}

	w.guardian = g
	w.guardianSet = true
	if w.step == StepGuardian {
		if _, err := w.fire(Next); err != nil {
			return err
		}
	}
	w.changed()
	return nil
}

// NewPlayer opens an empty edit form and returns its client id.
func (w *Wizard) NewPlayer() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireStep(StepPlayers); err != nil {
		return "", err
	}
	if w.editing != nil {
		return "", ErrAlreadyEditing
	}
	w.editing = &models.DraftPlayer{ClientID: uuid.New().String()}
	w.editingNew = true
	return w.editing.ClientID, nil
}

// EditPlayer opens the edit form for an existing player.
func (w *Wizard) EditPlayer(clientID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireStep(StepPlayers); err != nil {
		return err
	}
	if w.editing != nil {
		return ErrAlreadyEditing
	}
	i := w.indexOf(clientID)
	if i < 0 {
		return fmt.Errorf("%s: %w", clientID, ErrPlayerNotFound)
	}
	p := w.players[i]
	w.editing = &p
	w.editingNew = false
	return nil
}

// UpdatePlayer changes the player being edited and returns its division,
// recomputed whenever the date of birth or gender changes.
func (w *Wizard) UpdatePlayer(in PlayerInput) (models.Division, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireStep(StepPlayers); err != nil {
		return "", err
	}
	if w.editing == nil {
		return "", ErrNotEditing
	}

	p := &w.editing.Player
	p.FirstName = strings.TrimSpace(in.FirstName)
	p.LastName = strings.TrimSpace(in.LastName)
	p.DateOfBirth = strings.TrimSpace(in.DateOfBirth)
	p.Gender = in.Gender
	w.editing.Division = divisionOf(p, w.cfg.Clock.Now(), "")
	return w.editing.Division, nil
}

// SavePlayer validates the edit form and inserts or replaces the player.
func (w *Wizard) SavePlayer() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireStep(StepPlayers); err != nil {
		return err
	}
	if w.editing == nil {
		return ErrNotEditing
	}

	p := *w.editing
	if errs := validation.Player(&p.Player, w.cfg.Clock.Now()); len(errs) > 0 {
		return errs
	}
	for _, other := range w.players {
		if other.ClientID != p.ClientID && samePlayer(&other.Player, &p.Player) {
			return validation.FieldErrors{"first_name": "This player has already been added"}
		}
	}

	if i := w.indexOf(p.ClientID); i >= 0 {
		w.players[i] = p
	} else {
		w.players = append(w.players, p)
	}
	w.editing = nil
	w.editingNew = false
	w.changed()
	return nil
}

// samePlayer mirrors how drafts are matched in storage.
func samePlayer(a, b *models.Player) bool {
	return strings.EqualFold(a.FirstName, b.FirstName) &&
		strings.EqualFold(a.LastName, b.LastName) &&
		a.DateOfBirth == b.DateOfBirth
}

// CancelEdit discards the edit form.
func (w *Wizard) CancelEdit() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.editing = nil
	w.editingNew = false
}

// RemovePlayer drops a player from the registration.
func (w *Wizard) RemovePlayer(clientID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireStep(StepPlayers); err != nil {
		return err
	}
	if w.editing != nil && w.editing.ClientID == clientID {
		w.editing = nil
		w.editingNew = false
	}
	i := w.indexOf(clientID)
	if i < 0 {
		return fmt.Errorf("%s: %w", clientID, ErrPlayerNotFound)
	}
	w.players = append(w.players[:i], w.players[i+1:]...)
	w.changed()
	return nil
}

func (w *Wizard) indexOf(clientID string) int {
	for i := range w.players {
		if w.players[i].ClientID == clientID {
			return i
		}
	}
	return -1
}

// AttachDocument records an uploaded document URL for a player.
func (w *Wizard) AttachDocument(clientID string, kind DocumentKind, url string) error {
	if strings.TrimSpace(url) == "" {
		return validation.FieldErrors{string(kind): "Please choose a file to upload"}
	}
	return w.setDocument(clientID, kind, url)
}

// DetachDocument removes a player's document.
func (w *Wizard) DetachDocument(clientID string, kind DocumentKind) error {
	return w.setDocument(clientID, kind, "")
}

// AttachHeadshot records the uploaded headshot for a player.
func (w *Wizard) AttachHeadshot(clientID, url string) error {
	return w.AttachDocument(clientID, DocumentHeadshot, url)
}

// AttachDOBProof records the uploaded proof of birth date for a player.
func (w *Wizard) AttachDOBProof(clientID, url string) error {
	return w.AttachDocument(clientID, DocumentDOBProof, url)
}

// DetachHeadshot clears a player's headshot.
func (w *Wizard) DetachHeadshot(clientID string) error {
	return w.DetachDocument(clientID, DocumentHeadshot)
}

// DetachDOBProof clears a player's proof of birth date.
func (w *Wizard) DetachDOBProof(clientID string) error {
	return w.DetachDocument(clientID, DocumentDOBProof)
}

func (w *Wizard) setDocument(clientID string, kind DocumentKind, url string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireStep(StepDocuments); err != nil {
		return err
	}
	i := w.indexOf(clientID)
	if i < 0 {
		return fmt.Errorf("%s: %w", clientID, ErrPlayerNotFound)
	}
	switch kind {
	case DocumentHeadshot:
		w.players[i].HeadshotURL = url
	case DocumentDOBProof:
		w.players[i].DOBDocumentURL = url
	default:
		return fmt.Errorf("unknown document kind %q", kind)
	}
	w.changed()
	return nil
}

func (w *Wizard) allDocumentsComplete() bool {
	for i := range w.players {
		if !w.players[i].DocumentsComplete() {
			return false
		}
	}
	return true
}

// SkipDocumentsOffered reports whether the "upload later" option is shown.
func (w *Wizard) SkipDocumentsOffered() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.allDocumentsComplete()
}

// SetSkipDocuments sets the "upload later" opt-in. Opting in is only allowed
// while some player is missing a document.
func (w *Wizard) SetSkipDocuments(skip bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireStep(StepDocuments); err != nil {
		return err
	}
	if skip && w.allDocumentsComplete() {
		return ErrSkipNotOffered
	}
	w.skipDocuments = skip
	return nil
}

// UpdateMedical replaces a player's medical and emergency details.
func (w *Wizard) UpdateMedical(clientID string, in MedicalInput) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireStep(StepMedical); err != nil {
		return err
	}
	i := w.indexOf(clientID)
	if i < 0 {
		return fmt.Errorf("%s: %w", clientID, ErrPlayerNotFound)
	}
	if in.EmergencyContactPhone != "" && !validation.IsValidPhone(in.EmergencyContactPhone) {
		return validation.FieldErrors{"emergency_contact_phone": "Please enter a valid phone number"}
	}

	p := &w.players[i].Player
	p.MedicalConditions = strings.TrimSpace(in.MedicalConditions)
	p.Allergies = strings.TrimSpace(in.Allergies)
	p.EmergencyContactName = strings.TrimSpace(in.EmergencyContactName)
	p.EmergencyContactPhone = in.EmergencyContactPhone
	if in.EmergencyContactPhone != "" {
		p.EmergencyContactPhone = validation.FormatPhone(in.EmergencyContactPhone)
	}
	p.EmergencyContactRelationship = strings.TrimSpace(in.EmergencyContactRelationship)
	w.changed()
	return nil
}

// SetWaivers records the waiver checkboxes on the Review step.
func (w *Wizard) SetWaivers(v Waivers) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireStep(StepReview); err != nil {
		return err
	}
	w.waivers = v
	return nil
}

// Navigate applies a Next, Back or Jump event and returns the new step.
// Submission goes through Submit.
func (w *Wizard) Navigate(ev Event) (Step, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return w.step, ErrClosed
	}
	if ev.Kind == EventSubmit {
		return w.step, fmt.Errorf("%w: use Submit", ErrNoTransition)
	}
	before := w.furthest
	step, err := w.fire(ev)
	if err != nil {
		return step, err
	}
	if w.furthest != before {
		w.changed()
	}
	return step, nil
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Total prices the registration from the current players.
func (w *Wizard) Total() (calculator.Breakdown, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.totalLocked()
}

func (w *Wizard) totalLocked() (calculator.Breakdown, error) {
	divisions := make([]models.Division, len(w.players))
	for i, p := range w.players {
		divisions[i] = p.Division
	}
	return calculator.CalculateTotal(divisions, w.cfg.Club.ClubDuesCents, w.cfg.Club.Fees)
}

// SummaryPlayer is one line of the Review summary.
type SummaryPlayer struct {
	ClientID                string
	Name                    string
	DateOfBirth             string
	Division                models.Division
	Fee                     calculator.PlayerFee
	NeedsWeightVerification bool
	DocumentsComplete       bool
}

// Summary is what the Review step renders.
type Summary struct {
	GuardianName       string
	GuardianEmail      string
	ClubName           string
	Season             string
	Players            []SummaryPlayer
	ClubTotal          int64
	GoverningBodyTotal int64
	Total              int64
	DocumentsSkipped   bool
	// WeightVerification lists players who must attend an in-person weigh-in.
	WeightVerification []string
}

// Summary builds the Review step summary.
func (w *Wizard) Summary() (Summary, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, err := w.totalLocked()
	if err != nil {
		return Summary{}, err
	}
	s := Summary{
		GuardianName:       w.guardian.FullName(),
		GuardianEmail:      w.guardian.Email,
		ClubName:           w.cfg.Club.Name,
		Season:             w.cfg.Season,
		ClubTotal:          b.ClubTotal,
		GoverningBodyTotal: b.GoverningBodyTotal,
		Total:              b.Total,
		DocumentsSkipped:   w.skipDocuments && !w.allDocumentsComplete(),
	}
	for i, p := range w.players {
		sp := SummaryPlayer{
			ClientID:                p.ClientID,
			Name:                    p.DisplayName(),
			DateOfBirth:             p.DateOfBirth,
			Division:                p.Division,
			Fee:                     b.Players[i],
			NeedsWeightVerification: calculator.RequiresWeightVerification(p.Division),
			DocumentsComplete:       p.DocumentsComplete(),
		}
		if sp.NeedsWeightVerification {
			s.WeightVerification = append(s.WeightVerification, sp.Name)
		}
		s.Players = append(s.Players, sp)
	}
	return s, nil
}

// Submit flushes the auto-save, then starts checkout and returns the hosted
// payment URL. On failure the wizard stays on Review with its state intact.
func (w *Wizard) Submit(ctx context.Context) (*checkout.Result, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrClosed
	}
	if w.submitting {
		w.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if _, err := w.fire(Submit); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if w.saver == nil || w.cfg.Checkout == nil {
		w.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	b, err := w.totalLocked()
	if err != nil {
		w.mu.Unlock()
		return nil, err
	}
	req := w.checkoutRequestLocked(b.Total)
	w.submitting = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.submitting = false
		w.mu.Unlock()
	}()

	if err := w.saver.Flush(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDraftSave, err)
	}

	res, err := w.cfg.Checkout.Start(ctx, req)
	if err != nil {
		slog.Warn("Checkout handoff failed", "guardian_id", w.cfg.GuardianID, "club_id", w.cfg.Club.ID, "error", err)
		return nil, err
	}

	w.mu.Lock()
	w.lastCheckout = res
	w.mu.Unlock()
	return res, nil
}

func (w *Wizard) checkoutRequestLocked(total int64) checkout.Request {
	req := checkout.Request{
		TotalAmountCents: total,
		ClubName:         w.cfg.Club.Name,
		ClubID:           w.cfg.Club.ID,
		Season:           w.cfg.Season,
		GuardianID:       w.cfg.GuardianID,
		GuardianEmail:    w.guardian.Email,
	}
	for _, p := range w.players {
		req.PlayerNames = append(req.PlayerNames, p.DisplayName())
		req.PlayerClientIDs = append(req.PlayerClientIDs, p.ClientID)
	}
	return req
}

// SaveStatus returns the auto-save indicator and the last save error.
func (w *Wizard) SaveStatus() (SaveStatus, error) {
	if w.saver == nil {
		return SaveIdle, nil
	}
	return w.saver.Status()
}

// Flush writes any pending auto-save now instead of waiting for the debounce.
func (w *Wizard) Flush(ctx context.Context) error {
	if w.saver == nil {
		return nil
	}
	return w.saver.Flush(ctx)
}

// Close cancels pending auto-save timers. The wizard rejects further changes.
func (w *Wizard) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	if w.saver != nil {
		w.saver.Close()
	}
}

// State is a read-only copy of the wizard for rendering.
type State struct {
	Step                 Step
	Furthest             Step
	Guardian             models.Guardian
	GuardianSet          bool
	Players              []models.DraftPlayer
	Editing              *models.DraftPlayer
	EditingNew           bool
	SkipDocuments        bool
	SkipDocumentsOffered bool
	Waivers              Waivers
	CanAdvance           bool
	Submitting           bool
	SaveStatus           SaveStatus
	SaveError            string
	Checkout             *checkout.Result
}

// State returns a snapshot of the wizard.
func (w *Wizard) State() State {
	w.mu.Lock()
	s := State{
		Step:                 w.step,
		Furthest:             w.furthest,
		Guardian:             w.guardian,
		GuardianSet:          w.guardianSet,
		Players:              append([]models.DraftPlayer(nil), w.players...),
		EditingNew:           w.editingNew,
		SkipDocuments:        w.skipDocuments,
		SkipDocumentsOffered: !w.allDocumentsComplete(),
		Waivers:              w.waivers,
		Submitting:           w.submitting,
		Checkout:             w.lastCheckout,
	}
	if w.editing != nil {
		e := *w.editing
		s.Editing = &e
	}
	if t, ok := transitions[transitionKey{w.step, EventNext}]; ok {
		s.CanAdvance = t.guard(w, Next) == nil
	} else if w.step == StepReview {
		s.CanAdvance = waiversAccepted(w, Submit) == nil
	}
	w.mu.Unlock()

	status, err := w.SaveStatus()
	s.SaveStatus = status
	if err != nil {
		s.SaveError = err.Error()
	}
	return s
}
