package models

// PaymentStatus is the processor-reported state of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Payment is one ledger row for a registration covered by a completed checkout.
// A checkout that pays for several players produces one Payment per registration.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	RegistrationID string
	ClubID         string
	GuardianID     string

	// TotalAmountCents = ClubPortionCents + GoverningBodyPortionCents + PlatformFeeCents.
	TotalAmountCents          int64
	ClubPortionCents          int64
	GoverningBodyPortionCents int64
	PlatformFeeCents          int64

	// PaymentRef is the processor's payment reference for the whole checkout.
	PaymentRef string

	// Status is always PaymentSucceeded for rows written by reconciliation.
	Status PaymentStatus

	// CreatedAt is the Unix timestamp when the row was recorded.
	CreatedAt int64
}

// PaymentTotals summarises collected money for a club.
type PaymentTotals struct {
	CollectedCents     int64
	ClubPortionCents   int64
	GoverningBodyCents int64
	Count              int
}
