package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/clubreg/portal/internal/auth"
	"github.com/clubreg/portal/internal/calculator"
	"github.com/clubreg/portal/internal/middleware"
	"github.com/clubreg/portal/internal/models"
	"github.com/clubreg/portal/internal/notify"
	"github.com/clubreg/portal/internal/storage"
)

var (
	ErrNotClubAdmin      = errors.New("not an administrator of this club")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrPaidByReconcile   = errors.New("registrations are marked paid by payment processing only")
	ErrRegistrationState = errors.New("status change not allowed")

	errBadQuery = errors.New("invalid query")
)

// AdminStore is the storage the admin routes read.
type AdminStore interface {
	GetClubBySlug(ctx context.Context, slug string) (*models.Club, error)
	storage.AdminStore
	storage.RegistrationStore
	storage.PaymentStore
}

// AdminHandler serves the club admin REST routes.
type AdminHandler struct {
	store AdminStore
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(store AdminStore) *AdminHandler {
	return &AdminHandler{store: store}
}

type adminContextKey struct{}

type adminContext struct {
	club  *models.Club
	admin *models.ClubAdmin
}

func adminFrom(ctx context.Context) *adminContext {
	ac, _ := ctx.Value(adminContextKey{}).(*adminContext)
	return ac
}

// Routes returns the admin router, to be mounted at /admin.
func (h *AdminHandler) Routes(jwtManager *auth.JWTManager) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequireAuthHTTP(jwtManager))
	r.Route("/{club}", func(r chi.Router) {
		r.Use(h.loadAdmin)
		r.With(requirePermission(models.PermViewRegistrations)).Get("/registrations", h.listRegistrations)
		r.With(requirePermission(models.PermExportData)).Get("/registrations/export", h.exportRegistrations)
		r.With(requirePermission(models.PermManageStatus)).Patch("/registrations/{id}/status", h.updateStatus)
		r.With(requirePermission(models.PermViewRegistrations)).Get("/payments", h.listPayments)
		r.With(requirePermission(models.PermViewRegistrations)).Get("/stats", h.stats)
	})
	return r
}

// loadAdmin resolves the club from the URL and the caller's admin record.
func (h *AdminHandler) loadAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		club, err := h.store.GetClubBySlug(r.Context(), chi.URLParam(r, "club"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				sendError(w, http.StatusNotFound, err)
				return
			}
			slog.Error("Failed to load club", "club", chi.URLParam(r, "club"), "error", err)
			sendError(w, http.StatusInternalServerError, errors.New("failed to load club"))
			return
		}

		userID := middleware.GetUserID(r.Context())
		admin, err := h.store.GetClubAdmin(r.Context(), club.ID, userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				slog.Warn("Admin access denied", "club", club.Slug, "user_id", userID)
				sendError(w, http.StatusForbidden, ErrNotClubAdmin)
				return
			}
			slog.Error("Failed to load club admin", "club", club.Slug, "user_id", userID, "error", err)
			sendError(w, http.StatusInternalServerError, errors.New("failed to load admin"))
			return
		}

		ctx := context.WithValue(r.Context(), adminContextKey{}, &adminContext{club: club, admin: admin})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requirePermission(p models.AdminPermission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ac := adminFrom(r.Context()); ac == nil || !ac.admin.Can(p) {
				sendError(w, http.StatusForbidden, fmt.Errorf("%w: %s", ErrPermissionDenied, p))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// registrationView is a registration row in admin listings.
type registrationView struct {
	ID                 string `json:"id"`
	PlayerName         string `json:"player_name"`
	DateOfBirth        string `json:"date_of_birth"`
	Gender             string `json:"gender"`
	Division           string `json:"division"`
	Status             string `json:"status"`
	StatusLabel        string `json:"status_label"`
	GuardianName       string `json:"guardian_name"`
	GuardianEmail      string `json:"guardian_email"`
	GuardianPhone      string `json:"guardian_phone,omitempty"`
	PaymentAmountCents int64  `json:"payment_amount_cents"`
	PaymentRef         string `json:"payment_ref,omitempty"`
	PaymentDate        int64  `json:"payment_date,omitempty"`
	DocumentsComplete  bool   `json:"documents_complete"`
	Notes              string `json:"notes,omitempty"`
	CreatedAt          int64  `json:"created_at"`
}

func toRegistrationView(d *models.RegistrationDetails) registrationView {
	return registrationView{
		ID:                 d.ID,
		PlayerName:         d.Player.DisplayName(),
		DateOfBirth:        d.Player.DateOfBirth,
		Gender:             string(d.Player.Gender),
		Division:           string(d.Division),
		Status:             string(d.Status),
		StatusLabel:        d.Status.Label(),
		GuardianName:       d.Guardian.FullName(),
		GuardianEmail:      d.Guardian.Email,
		GuardianPhone:      d.Guardian.Phone,
		PaymentAmountCents: d.PaymentAmountCents,
		PaymentRef:         d.PaymentRef,
		PaymentDate:        d.PaymentDate,
		DocumentsComplete:  d.Player.DocumentsComplete(),
		Notes:              d.Notes,
		CreatedAt:          d.CreatedAt,
	}
}

// queryRegistrations applies the season, status, division and search
// query parameters.
func (h *AdminHandler) queryRegistrations(r *http.Request) ([]models.RegistrationDetails, error) {
	club := adminFrom(r.Context()).club
	q := r.URL.Query()

	season := q.Get("season")
	if season == "" {
		season = club.CurrentSeason
	}
	var filter storage.RegistrationFilter
	if s := q.Get("status"); s != "" {
		st, err := models.ParseStatus(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadQuery, err)
		}
		filter.Status = st
	}
	if d := q.Get("division"); d != "" {
		div, err := models.ParseDivision(d)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadQuery, err)
		}
		filter.Division = div
	}

	regs, err := h.store.ListRegistrations(r.Context(), club.ID, season, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return searchRegistrations(regs, q.Get("q")), nil
}

// searchRegistrations keeps registrations whose player or guardian matches
// the query, ignoring case and allowing gaps ("jriv" finds "Jo Rivera").
func searchRegistrations(regs []models.RegistrationDetails, query string) []models.RegistrationDetails {
	query = strings.TrimSpace(query)
	if query == "" {
		return regs
	}
	var out []models.RegistrationDetails
	for _, d := range regs {
		if fuzzy.MatchFold(query, d.Player.DisplayName()) ||
			fuzzy.MatchFold(query, d.Guardian.FullName()) ||
			fuzzy.MatchFold(query, d.Guardian.Email) {
			out = append(out, d)
		}
	}
	return out
}

func (h *AdminHandler) listRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.queryRegistrations(r)
	if err != nil {
		h.sendQueryError(w, err)
		return
	}
	views := make([]registrationView, 0, len(regs))
	for i := range regs {
		views = append(views, toRegistrationView(&regs[i]))
	}
	sendData(w, views)
}

func (h *AdminHandler) sendQueryError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBadQuery) {
		sendError(w, http.StatusBadRequest, err)
		return
	}
	slog.Error("Admin query failed", "error", err)
	sendError(w, http.StatusInternalServerError, errors.New("failed to load registrations"))
}

var exportHeader = []string{
	"Player", "Date of Birth", "Gender", "Division", "Status",
	"Guardian", "Email", "Phone", "Amount Paid", "Payment Date", "Documents",
	"Medical Conditions", "Allergies", "Emergency Contact", "Emergency Phone",
}

// exportRegistrations writes the filtered registrations as CSV.
func (h *AdminHandler) exportRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.queryRegistrations(r)
	if err != nil {
		h.sendQueryError(w, err)
		return
	}
	club := adminFrom(r.Context()).club

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s-registrations.csv"`, club.Slug))

	cw := csv.NewWriter(w)
	_ = cw.Write(exportHeader)
	for i := range regs {
		d := &regs[i]
		paidOn := ""
		if d.PaymentDate > 0 {
			paidOn = time.Unix(d.PaymentDate, 0).UTC().Format(models.DateLayout)
		}
		docs := "Missing"
		if d.Player.DocumentsComplete() {
			docs = "Complete"
		}
		_ = cw.Write([]string{
			d.Player.DisplayName(),
			d.Player.DateOfBirth,
			string(d.Player.Gender),
			string(d.Division),
			d.Status.Label(),
			d.Guardian.FullName(),
			d.Guardian.Email,
			d.Guardian.Phone,
			notify.FormatUSD(d.PaymentAmountCents),
			paidOn,
			docs,
			d.Player.MedicalConditions,
			d.Player.Allergies,
			d.Player.EmergencyContactName,
			d.Player.EmergencyContactPhone,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.Error("Failed to write registration export", "club", club.Slug, "error", err)
	}
}

type statusUpdate struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (h *AdminHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ac := adminFrom(r.Context())
	id := chi.URLParam(r, "id")

	var req statusUpdate
	if err := getBody(w, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, err)
		return
	}
	to, err := models.ParseStatus(req.Status)
	if err != nil {
		sendError(w, http.StatusBadRequest, err)
		return
	}
	if to == models.StatusPaid {
		sendError(w, http.StatusBadRequest, ErrPaidByReconcile)
		return
	}

	err = h.store.UpdateRegistrationStatus(r.Context(), ac.club.ID, id, to, strings.TrimSpace(req.Notes))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		sendError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, storage.ErrInvalidTransition):
		sendError(w, http.StatusConflict, fmt.Errorf("%w: %v", ErrRegistrationState, err))
		return
	case err != nil:
		slog.Error("Failed to update registration status", "registration_id", id, "error", err)
		sendError(w, http.StatusInternalServerError, errors.New("failed to update registration"))
		return
	}

	slog.Info("Registration status updated",
		"club", ac.club.Slug,
		"registration_id", id,
		"status", to,
		"admin", ac.admin.UserID,
	)
	sendData(w, map[string]string{"id": id, "status": string(to), "status_label": to.Label()})
}

type paymentView struct {
	ID                 string `json:"id"`
	RegistrationID     string `json:"registration_id"`
	TotalAmountCents   int64  `json:"total_amount_cents"`
	ClubPortionCents   int64  `json:"club_portion_cents"`
	GoverningBodyCents int64  `json:"governing_body_cents"`
	PaymentRef         string `json:"payment_ref"`
	Status             string `json:"status"`
	CreatedAt          int64  `json:"created_at"`
}

type totalsView struct {
	Count              int    `json:"count"`
	CollectedCents     int64  `json:"collected_cents"`
	ClubPortionCents   int64  `json:"club_portion_cents"`
	GoverningBodyCents int64  `json:"governing_body_cents"`
	CollectedDisplay   string `json:"collected_display"`
}

func toTotalsView(t models.PaymentTotals) totalsView {
	return totalsView{
		Count:              t.Count,
		CollectedCents:     t.CollectedCents,
		ClubPortionCents:   t.ClubPortionCents,
		GoverningBodyCents: t.GoverningBodyCents,
		CollectedDisplay:   notify.FormatUSD(t.CollectedCents),
	}
}

func (h *AdminHandler) listPayments(w http.ResponseWriter, r *http.Request) {
	club := adminFrom(r.Context()).club
	ledger, err := h.store.ListPaymentsByClub(r.Context(), club.ID)
	if err != nil {
		slog.Error("Failed to list payments", "club", club.Slug, "error", err)
		sendError(w, http.StatusInternalServerError, errors.New("failed to load payments"))
		return
	}

	views := make([]paymentView, 0, len(ledger))
	for _, p := range ledger {
		views = append(views, paymentView{
			ID:                 p.ID,
			RegistrationID:     p.RegistrationID,
			TotalAmountCents:   p.TotalAmountCents,
			ClubPortionCents:   p.ClubPortionCents,
			GoverningBodyCents: p.GoverningBodyPortionCents,
			PaymentRef:         p.PaymentRef,
			Status:             string(p.Status),
			CreatedAt:          p.CreatedAt,
		})
	}
	sendData(w, map[string]any{
		"payments": views,
		"totals":   toTotalsView(calculator.SumPayments(ledger)),
	})
}

type statsView struct {
	Season     string         `json:"season"`
	Total      int            `json:"total"`
	Paid       int            `json:"paid"`
	Pending    int            `json:"pending"`
	ByStatus   map[string]int `json:"by_status"`
	ByDivision map[string]int `json:"by_division"`
	Revenue    int64          `json:"revenue_cents"`
	Payments   totalsView     `json:"payments"`
	Actions    struct {
		AwaitingSubmission   int `json:"awaiting_submission"`
		AwaitingVerification int `json:"awaiting_verification"`
		AwaitingWeight       int `json:"awaiting_weight"`
	} `json:"pending_actions"`
}

func (h *AdminHandler) stats(w http.ResponseWriter, r *http.Request) {
	club := adminFrom(r.Context()).club
	season := r.URL.Query().Get("season")
	if season == "" {
		season = club.CurrentSeason
	}

	regs, err := h.store.ListRegistrations(r.Context(), club.ID, season, storage.RegistrationFilter{})
	if err != nil {
		slog.Error("Failed to load registrations for stats", "club", club.Slug, "error", err)
		sendError(w, http.StatusInternalServerError, errors.New("failed to load stats"))
		return
	}
	ledger, err := h.store.ListPaymentsByClub(r.Context(), club.ID)
	if err != nil {
		slog.Error("Failed to load payments for stats", "club", club.Slug, "error", err)
		sendError(w, http.StatusInternalServerError, errors.New("failed to load stats"))
		return
	}

	forStats := make([]calculator.RegistrationForStats, len(regs))
	for i, d := range regs {
		forStats[i] = calculator.RegistrationForStats{
			Status:             d.Status,
			Division:           d.Division,
			PaymentAmountCents: d.PaymentAmountCents,
			PaymentRef:         d.PaymentRef,
		}
	}
	st := calculator.CalculateClubStats(forStats, ledger)

	out := statsView{
		Season:     season,
		Total:      st.Total,
		Paid:       st.Paid,
		Pending:    st.Pending,
		ByStatus:   make(map[string]int, len(st.ByStatus)),
		ByDivision: make(map[string]int, len(st.ByDivision)),
		Revenue:    st.Revenue,
		Payments:   toTotalsView(st.Payments),
	}
	for k, v := range st.ByStatus {
		out.ByStatus[string(k)] = v
	}
	for k, v := range st.ByDivision {
		out.ByDivision[string(k)] = v
	}
	out.Actions.AwaitingSubmission = st.Actions.AwaitingSubmission
	out.Actions.AwaitingVerification = st.Actions.AwaitingVerification
	out.Actions.AwaitingWeight = st.Actions.AwaitingWeight
	sendData(w, out)
}
