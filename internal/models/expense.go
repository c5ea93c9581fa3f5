package models

// SplitMode selects how an expense is divided among participants.
type SplitMode string

const (
	// SplitEqual divides the amount evenly among all eligible members,
	// including the payer.
	SplitEqual SplitMode = "equal"

	// SplitCustom divides the amount per explicit per-member shares that
	// must sum to the expense total.
	SplitCustom SplitMode = "custom"
)

// Expense represents a single shared expense. Expenses are immutable once
// appended to a group's ledger; corrections are new expenses.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Title is the human-readable description (e.g., "Dinner").
	Title string

	// Amount is the total expense amount. Always positive.
	Amount float64

	// Currency is a symbolic code (e.g., "cUSD"). The engine treats it as
	// opaque; no conversion happens anywhere.
	Currency string

	// PaidBy is the wallet of the member who fronted the money. Validation
	// guarantees it is resolved for newly created expenses, but balance
	// computation tolerates unresolved payers on historical data.
	PaidBy WalletRef

	// SplitMode is how the amount is divided.
	SplitMode SplitMode

	// Participants are the wallet addresses the expense is divided among.
	Participants []string

	// CustomAmounts maps participant address to their share. Present only
	// when SplitMode is SplitCustom.
	CustomAmounts map[string]float64

	// CreatedAt is the Unix timestamp when the expense was recorded. Used
	// for ordering and display only.
	CreatedAt int64
}
