package models

// DraftKey identifies one resumable draft.
type DraftKey struct {
	ClubID     string
	Season     string
	GuardianID string
}

// DraftPlayer is a player as captured by the wizard.
type DraftPlayer struct {
	// ClientID is the wizard-local id; it survives a save/load round trip.
	ClientID string
	Player
	Division Division
}

// Draft is the persisted snapshot returned when a wizard resumes.
type Draft struct {
	Guardian Guardian
	Players  []DraftPlayer
	// CurrentStep is the furthest step recorded across the draft's players.
	CurrentStep int
}
