package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/clubreg/portal/internal/metrics"
	"github.com/clubreg/portal/internal/middleware"
	"github.com/clubreg/portal/internal/models"
	"github.com/clubreg/portal/internal/notify"
	"github.com/clubreg/portal/internal/rpc"
	"github.com/clubreg/portal/internal/storage"
	"github.com/clubreg/portal/internal/validation"
	"github.com/clubreg/portal/internal/wizard"
)

// RegistrationStore is the storage the wizard sessions need.
type RegistrationStore interface {
	storage.ClubStore
	storage.GuardianStore
	storage.DraftStore
}

// RegistrationOptions tunes new wizards.
type RegistrationOptions struct {
	AutosaveDelay time.Duration
	// Clock is used by tests to drive auto-save timers.
	Clock wizard.Clock
}

// RegistrationService implements the Connect RegistrationService on top of
// in-memory wizard sessions.
type RegistrationService struct {
	store    RegistrationStore
	checkout wizard.CheckoutStarter
	sessions *Sessions
	opts     RegistrationOptions
}

var _ rpc.RegistrationServiceHandler = (*RegistrationService)(nil)

// NewRegistrationService creates a new RegistrationService.
func NewRegistrationService(store RegistrationStore, checkout wizard.CheckoutStarter, sessions *Sessions, opts RegistrationOptions) *RegistrationService {
	return &RegistrationService{store: store, checkout: checkout, sessions: sessions, opts: opts}
}

// StartSession opens a wizard for a club. Signed-in guardians resume their
// saved draft; anonymous visitors start with auto-save disabled.
func (s *RegistrationService) StartSession(ctx context.Context, req *connect.Request[rpc.StartSessionRequest]) (*connect.Response[rpc.StateResponse], error) {
	slug := strings.TrimSpace(req.Msg.ClubSlug)
	if slug == "" {
		return nil, toConnectError(rpc.RegistrationServiceStartSessionProcedure,
			validation.FieldErrors{"club_slug": "A club is required"})
	}
	club, err := s.store.GetClubBySlug(ctx, slug)
	if err != nil {
		return nil, toConnectError(rpc.RegistrationServiceStartSessionProcedure, fmt.Errorf("club %q: %w", slug, err))
	}

	cfg := wizard.Config{
		Club:          *club,
		Checkout:      s.checkout,
		Clock:         s.opts.Clock,
		AutosaveDelay: s.opts.AutosaveDelay,
		OnSave:        metrics.ObserveAutosave,
	}
	userID := middleware.GetUserID(ctx)
	if userID != "" {
		g, err := s.store.GetOrCreateGuardian(ctx, userID, middleware.GetEmail(ctx))
		if err != nil {
			return nil, toConnectError(rpc.RegistrationServiceStartSessionProcedure, err)
		}
		cfg.GuardianID = g.ID
		cfg.Email = g.Email
		cfg.Drafts = s.store
		// The previous wizard must be saved before this one loads the draft.
		s.sessions.release(userID, club.ID)
	}

	sess := s.sessions.add(userID, club, wizard.Start(ctx, cfg))
	slog.Info("Registration session started",
		"session_id", sess.id,
		"club", club.Slug,
		"user_id", userID,
		"guardian_id", cfg.GuardianID,
	)
	return connect.NewResponse(&rpc.StateResponse{State: s.state(sess)}), nil
}

func (s *RegistrationService) session(ctx context.Context, procedure, id string) (*session, error) {
	sess, err := s.sessions.get(id, middleware.GetUserID(ctx))
	if err != nil {
		return nil, toConnectError(procedure, err)
	}
	return sess, nil
}

// apply runs op against a session and returns the resulting state.
func (s *RegistrationService) apply(ctx context.Context, procedure, id string, op func(w *wizard.Wizard) error) (*connect.Response[rpc.StateResponse], error) {
	sess, err := s.session(ctx, procedure, id)
	if err != nil {
		return nil, err
	}
	if err := op(sess.wizard); err != nil {
		return nil, toConnectError(procedure, err)
	}
	return connect.NewResponse(&rpc.StateResponse{State: s.state(sess)}), nil
}

func (s *RegistrationService) SetGuardian(ctx context.Context, req *connect.Request[rpc.SetGuardianRequest]) (*connect.Response[rpc.StateResponse], error) {
	g := req.Msg.Guardian
	return s.apply(ctx, rpc.RegistrationServiceSetGuardianProcedure, req.Msg.SessionID, func(w *wizard.Wizard) error {
		return w.SetGuardian(models.Guardian{
			Email:        g.Email,
			FirstName:    g.FirstName,
			LastName:     g.LastName,
			Phone:        g.Phone,
			AddressLine1: g.AddressLine1,
			AddressLine2: g.AddressLine2,
			City:         g.City,
			State:        g.State,
			PostalCode:   g.PostalCode,
			Country:      g.Country,
		})
	})
}

func (s *RegistrationService) NewPlayer(ctx context.Context, req *connect.Request[rpc.SessionRequest]) (*connect.Response[rpc.NewPlayerResponse], error) {
	const procedure = rpc.RegistrationServiceNewPlayerProcedure
	sess, err := s.session(ctx, procedure, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	id, err := sess.wizard.NewPlayer()
	if err != nil {
		return nil, toConnectError(procedure, err)
	}
	return connect.NewResponse(&rpc.NewPlayerResponse{ClientID: id, State: s.state(sess)}), nil
}

func (s *RegistrationService) EditPlayer(ctx context.Context, req *connect.Request[rpc.PlayerRequest]) (*connect.Response[rpc.StateResponse], error) {
	return s.apply(ctx, rpc.RegistrationServiceEditPlayerProcedure, req.Msg.SessionID, func(w *wizard.Wizard) error {
		return w.EditPlayer(req.Msg.ClientID)
	})
}

// UpdatePlayer changes the open edit form and returns the recomputed division.
func (s *RegistrationService) UpdatePlayer(ctx context.Context, req *connect.Request[rpc.UpdatePlayerRequest]) (*connect.Response[rpc.UpdatePlayerResponse], error) {
	const procedure = rpc.RegistrationServiceUpdatePlayerProcedure
	sess, err := s.session(ctx, procedure, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	division, err := sess.wizard.UpdatePlayer(wizard.PlayerInput{
		FirstName:   req.Msg.FirstName,
		LastName:    req.Msg.LastName,
		DateOfBirth: req.Msg.DateOfBirth,
		Gender:      models.Gender(strings.ToLower(strings.TrimSpace(req.Msg.Gender))),
	})
	if err != nil {
		return nil, toConnectError(procedure, err)
	}
	return connect.NewResponse(&rpc.UpdatePlayerResponse{Division: string(division), State: s.state(sess)}), nil
}

func (s *RegistrationService) SavePlayer(ctx context.Context, req *connect.Request[rpc.SessionRequest]) (*connect.Response[rpc.StateResponse], error) {
	return s.apply(ctx, rpc.RegistrationServiceSavePlayerProcedure, req.Msg.SessionID, func(w *wizard.Wizard) error {
		return w.SavePlayer()
	})
}

func (s *RegistrationService) CancelEdit(ctx context.Context, req *connect.Request[rpc.SessionRequest]) (*connect.Response[rpc.StateResponse], error) {
	return s.apply(ctx, rpc.RegistrationServiceCancelEditProcedure, req.Msg.SessionID, func(w *wizard.Wizard) error {
		w.CancelEdit()
		return nil
	})
}

func (s *RegistrationService) RemovePlayer(ctx context.Context, req *connect.Request[rpc.PlayerRequest]) (*connect.Response[rpc.StateResponse], error) {
	return s.apply(ctx, rpc.RegistrationServiceRemovePlayerProcedure, req.Msg.SessionID, func(w *wizard.Wizard) error {
		return w.RemovePlayer(req.Msg.ClientID)
	})
}

func parseDocumentKind(kind string) (wizard.DocumentKind, error) {
	switch k := wizard.DocumentKind(strings.ToLower(kind)); k {
	case wizard.DocumentHeadshot, wizard.DocumentDOBProof:
		return k, nil
	}
	return "", validation.FieldErrors{"kind": "Unknown document type"}
}

func (s *RegistrationService) AttachDocument(ctx context.Context, req *connect.Request[rpc.AttachDocumentRequest]) (*connect.Response[rpc.StateResponse], error) {
	return s.apply(ctx, rpc.RegistrationServiceAttachDocumentProcedure, req.Msg.SessionID, func(w *wizard.Wizard) error {
		kind, err := parseDocumentKind(req.Msg.Kind)
		if err != nil {
			return err
		}
		return w.AttachDocument(req.Msg.ClientID, kind, req.Msg.URL)
	})
}

func (s *RegistrationService) DetachDocument(ctx context.Context, req *connect.Request[rpc.DetachDocumentRequest]) (*connect.Response[rpc.StateResponse], error) {
	return s.apply(ctx, rpc.RegistrationServiceDetachDocumentProcedure, req.Msg.SessionID, func(w *wizard.Wizard) error {
		kind, err := parseDocumentKind(req.Msg.Kind)
		if err != nil {
			return err
		}
		return w.DetachDocument(req.Msg.ClientID, kind)
	})
}

func (s *RegistrationService) SetSkipDocuments(ctx context.Context, req *connect.Request[rpc.SetSkipDocumentsRequest]) (*connect.Response[rpc.StateResponse], error) {
	return s.apply(ctx, rpc.RegistrationServiceSetSkipDocumentsProcedure, req.Msg.SessionID, func(w *wizard.Wizard) error {
		return w.SetSkipDocuments(req.Msg.Skip)
	})
}

func (s *RegistrationService) UpdateMedical(ctx context.Context, req *connect.Request[rpc.UpdateMedicalRequest]) (*connect.Response[rpc.StateResponse], error) {
	m := req.Msg
	return s.apply(ctx, rpc.RegistrationServiceUpdateMedicalProcedure, m.SessionID, func(w *wizard.Wizard) error {
		return w.UpdateMedical(m.ClientID, wizard.MedicalInput{
			MedicalConditions:            m.MedicalConditions,
			Allergies:                    m.Allergies,
			EmergencyContactName:         m.EmergencyContactName,
			EmergencyContactPhone:        m.EmergencyContactPhone,
			EmergencyContactRelationship: m.EmergencyContactRelationship,
		})
	})
}

func (s *RegistrationService) SetWaivers(ctx context.Context, req *connect.Request[rpc.SetWaiversRequest]) (*connect.Response[rpc.StateResponse], error) {
	v := req.Msg.Waivers
	return s.apply(ctx, rpc.RegistrationServiceSetWaiversProcedure, req.Msg.SessionID, func(w *wizard.Wizard) error {
		return w.SetWaivers(wizard.Waivers{Regional: v.Regional, GoverningBody: v.GoverningBody, Club: v.Club})
	})
}

func parseEvent(name, target string) (wizard.Event, error) {
	switch strings.ToLower(name) {
	case "next":
		return wizard.Next, nil
	case "back":
		return wizard.Back, nil
	case "jump":
		step, err := wizard.ParseStep(target)
		if err != nil {
			return wizard.Event{}, validation.FieldErrors{"target": "Unknown step"}
		}
		return wizard.JumpTo(step), nil
	}
	return wizard.Event{}, validation.FieldErrors{"event": "Unknown navigation event"}
}

// Navigate moves between steps. Submission has its own RPC.
func (s *RegistrationService) Navigate(ctx context.Context, req *connect.Request[rpc.NavigateRequest]) (*connect.Response[rpc.StateResponse], error) {
	return s.apply(ctx, rpc.RegistrationServiceNavigateProcedure, req.Msg.SessionID, func(w *wizard.Wizard) error {
		ev, err := parseEvent(req.Msg.Event, req.Msg.Target)
		if err != nil {
			return err
		}
		_, err = w.Navigate(ev)
		return err
	})
}

// Submit flushes the draft and hands off to the payment processor.
func (s *RegistrationService) Submit(ctx context.Context, req *connect.Request[rpc.SessionRequest]) (*connect.Response[rpc.SubmitResponse], error) {
	const procedure = rpc.RegistrationServiceSubmitProcedure
	sess, err := s.session(ctx, procedure, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	res, err := sess.wizard.Submit(ctx)
	metrics.CheckoutSessions.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return nil, toConnectError(procedure, err)
	}

	slog.Info("Checkout started",
		"session_id", sess.id,
		"club", sess.club.Slug,
		"checkout_session_id", res.SessionID,
		"amount_cents", res.AmountCents,
		"registrations", len(res.RegistrationIDs),
	)
	return connect.NewResponse(&rpc.SubmitResponse{
		CheckoutURL:       res.CheckoutURL,
		CheckoutSessionID: res.SessionID,
		AmountCents:       res.AmountCents,
		State:             s.state(sess),
	}), nil
}

// EndSession saves pending edits and releases the session.
func (s *RegistrationService) EndSession(ctx context.Context, req *connect.Request[rpc.SessionRequest]) (*connect.Response[rpc.EndSessionResponse], error) {
	if err := s.sessions.remove(req.Msg.SessionID, middleware.GetUserID(ctx)); err != nil {
		return nil, toConnectError(rpc.RegistrationServiceEndSessionProcedure, err)
	}
	return connect.NewResponse(&rpc.EndSessionResponse{}), nil
}

func (s *RegistrationService) GetState(ctx context.Context, req *connect.Request[rpc.SessionRequest]) (*connect.Response[rpc.StateResponse], error) {
	return s.apply(ctx, rpc.RegistrationServiceGetStateProcedure, req.Msg.SessionID, func(*wizard.Wizard) error {
		return nil
	})
}

// state converts a wizard snapshot to its wire form.
func (s *RegistrationService) state(sess *session) rpc.WizardState {
	st := sess.wizard.State()
	out := rpc.WizardState{
		SessionID:            sess.id,
		ClubName:             sess.club.Name,
		Season:               sess.club.CurrentSeason,
		Step:                 st.Step.String(),
		Furthest:             st.Furthest.String(),
		Guardian:             toGuardian(&st.Guardian),
		GuardianSet:          st.GuardianSet,
		Players:              make([]rpc.Player, 0, len(st.Players)),
		SkipDocuments:        st.SkipDocuments,
		SkipDocumentsOffered: st.SkipDocumentsOffered,
		Waivers: rpc.Waivers{
			Regional:      st.Waivers.Regional,
			GoverningBody: st.Waivers.GoverningBody,
			Club:          st.Waivers.Club,
		},
		CanAdvance:    st.CanAdvance,
		Submitting:    st.Submitting,
		SaveStatus:    string(st.SaveStatus),
		SaveError:     st.SaveError,
		Authenticated: sess.userID != "",
	}
	for i := range st.Players {
		out.Players = append(out.Players, toPlayer(&st.Players[i]))
	}
	if st.Editing != nil {
		p := toPlayer(st.Editing)
		out.Editing = &p
	}
	if st.Checkout != nil {
		out.CheckoutURL = st.Checkout.CheckoutURL
	}
	if st.Step == wizard.StepReview {
		if sum, err := sess.wizard.Summary(); err == nil {
			out.Summary = toSummary(&sum)
		} else {
			slog.Warn("Failed to build review summary", "session_id", sess.id, "error", err)
		}
	}
	return out
}

func toGuardian(g *models.Guardian) rpc.Guardian {
	return rpc.Guardian{
		Email:        g.Email,
		FirstName:    g.FirstName,
		LastName:     g.LastName,
		Phone:        g.Phone,
		AddressLine1: g.AddressLine1,
		AddressLine2: g.AddressLine2,
		City:         g.City,
		State:        g.State,
		PostalCode:   g.PostalCode,
		Country:      g.Country,
	}
}

func toPlayer(p *models.DraftPlayer) rpc.Player {
	return rpc.Player{
		ClientID:                     p.ClientID,
		FirstName:                    p.FirstName,
		LastName:                     p.LastName,
		DateOfBirth:                  p.DateOfBirth,
		Gender:                       string(p.Gender),
		Division:                     string(p.Division),
		MedicalConditions:            p.MedicalConditions,
		Allergies:                    p.Allergies,
		EmergencyContactName:         p.EmergencyContactName,
		EmergencyContactPhone:        p.EmergencyContactPhone,
		EmergencyContactRelationship: p.EmergencyContactRelationship,
		HeadshotURL:                  p.HeadshotURL,
		DOBDocumentURL:               p.DOBDocumentURL,
		DocumentsComplete:            p.DocumentsComplete(),
	}
}

func toSummary(sum *wizard.Summary) *rpc.Summary {
	out := &rpc.Summary{
		ClubTotalCents:     sum.ClubTotal,
		GoverningBodyCents: sum.GoverningBodyTotal,
		TotalCents:         sum.Total,
		TotalDisplay:       notify.FormatUSD(sum.Total),
		DocumentsSkipped:   sum.DocumentsSkipped,
		WeightVerification: sum.WeightVerification,
	}
	for _, p := range sum.Players {
		out.Players = append(out.Players, rpc.SummaryPlayer{
			ClientID:                p.ClientID,
			Name:                    p.Name,
			Division:                string(p.Division),
			ClubCents:               p.Fee.Club,
			GoverningBodyCents:      p.Fee.GoverningBody,
			TotalCents:              p.Fee.Total,
			NeedsWeightVerification: p.NeedsWeightVerification,
		})
	}
	return out
}
