package rpc

// Guardian is the guardian form.
type Guardian struct {
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Phone        string `json:"phone,omitempty"`
	AddressLine1 string `json:"address_line1,omitempty"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	Country      string `json:"country,omitempty"`
}

// Player is a player as shown in the wizard.
type Player struct {
	ClientID    string `json:"client_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
	Division    string `json:"division,omitempty"`

	MedicalConditions            string `json:"medical_conditions,omitempty"`
	Allergies                    string `json:"allergies,omitempty"`
	EmergencyContactName         string `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone        string `json:"emergency_contact_phone,omitempty"`
	EmergencyContactRelationship string `json:"emergency_contact_relationship,omitempty"`

	HeadshotURL       string `json:"headshot_url,omitempty"`
	DOBDocumentURL    string `json:"dob_document_url,omitempty"`
	DocumentsComplete bool   `json:"documents_complete"`
}

// Waivers are the Review step agreements.
type Waivers struct {
	Regional      bool `json:"regional"`
	GoverningBody bool `json:"governing_body"`
	Club          bool `json:"club"`
}

// SummaryPlayer is one priced line of the Review summary.
type SummaryPlayer struct {
	ClientID                string `json:"client_id"`
	Name                    string `json:"name"`
	Division                string `json:"division"`
	ClubCents               int64  `json:"club_cents"`
	GoverningBodyCents      int64  `json:"governing_body_cents"`
	TotalCents              int64  `json:"total_cents"`
	NeedsWeightVerification bool   `json:"needs_weight_verification"`
}

// Summary is the Review step summary.
type Summary struct {
	Players            []SummaryPlayer `json:"players"`
	ClubTotalCents     int64           `json:"club_total_cents"`
	GoverningBodyCents int64           `json:"governing_body_cents"`
	TotalCents         int64           `json:"total_cents"`
	TotalDisplay       string          `json:"total_display"`
	DocumentsSkipped   bool            `json:"documents_skipped"`
	WeightVerification []string        `json:"weight_verification,omitempty"`
}

// WizardState is returned by every session RPC.
type WizardState struct {
	SessionID string `json:"session_id"`
	ClubName  string `json:"club_name"`
	Season    string `json:"season"`

	Step        string   `json:"step"`
	Furthest    string   `json:"furthest"`
	Guardian    Guardian `json:"guardian"`
	GuardianSet bool     `json:"guardian_set"`
	Players     []Player `json:"players"`
	Editing     *Player  `json:"editing,omitempty"`

	SkipDocuments        bool `json:"skip_documents"`
	SkipDocumentsOffered bool `json:"skip_documents_offered"`

	Waivers    Waivers  `json:"waivers"`
	Summary    *Summary `json:"summary,omitempty"`
	CanAdvance bool     `json:"can_advance"`
	Submitting bool     `json:"submitting"`

	SaveStatus string `json:"save_status"`
	SaveError  string `json:"save_error,omitempty"`

	// Anonymous sessions can fill in the wizard but not save or pay.
	Authenticated bool   `json:"authenticated"`
	CheckoutURL   string `json:"checkout_url,omitempty"`
}

type StartSessionRequest struct {
	ClubSlug string `json:"club_slug"`
}

// SessionRequest addresses an existing session.
type SessionRequest struct {
	SessionID string `json:"session_id"`
}

type SetGuardianRequest struct {
	SessionID string   `json:"session_id"`
	Guardian  Guardian `json:"guardian"`
}

// PlayerRequest addresses one player of a session.
type PlayerRequest struct {
	SessionID string `json:"session_id"`
	ClientID  string `json:"client_id"`
}

type UpdatePlayerRequest struct {
	SessionID   string `json:"session_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
}

type AttachDocumentRequest struct {
	SessionID string `json:"session_id"`
	ClientID  string `json:"client_id"`
	// Kind is "headshot" or "dob_proof".
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

type DetachDocumentRequest struct {
	SessionID string `json:"session_id"`
	ClientID  string `json:"client_id"`
	Kind      string `json:"kind"`
}

type SetSkipDocumentsRequest struct {
	SessionID string `json:"session_id"`
	Skip      bool   `json:"skip"`
}

type UpdateMedicalRequest struct {
	SessionID                    string `json:"session_id"`
	ClientID                     string `json:"client_id"`
	MedicalConditions            string `json:"medical_conditions"`
	Allergies                    string `json:"allergies"`
	EmergencyContactName         string `json:"emergency_contact_name"`
	EmergencyContactPhone        string `json:"emergency_contact_phone"`
	EmergencyContactRelationship string `json:"emergency_contact_relationship"`
}

type SetWaiversRequest struct {
	SessionID string  `json:"session_id"`
	Waivers   Waivers `json:"waivers"`
}

type NavigateRequest struct {
	SessionID string `json:"session_id"`
	// Event is "next", "back" or "jump".
	Event string `json:"event"`
	// Target names the step for "jump".
	Target string `json:"target,omitempty"`
}

type StateResponse struct {
	State WizardState `json:"state"`
}

type NewPlayerResponse struct {
	ClientID string      `json:"client_id"`
	State    WizardState `json:"state"`
}

type UpdatePlayerResponse struct {
	Division string      `json:"division"`
	State    WizardState `json:"state"`
}

type SubmitResponse struct {
	CheckoutURL       string      `json:"checkout_url"`
	CheckoutSessionID string      `json:"checkout_session_id"`
	AmountCents       int64       `json:"amount_cents"`
	State             WizardState `json:"state"`
}

type EndSessionResponse struct{}
