package models

// Settlement represents a payment between group members to clear debts.
// The transfer itself is executed by an external collaborator; the engine
// only records the result.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// FromAddress is the wallet of the debtor who paid.
	FromAddress string

	// ToAddress is the wallet of the creditor who received payment.
	ToAddress string

	// Amount is the payment amount.
	Amount float64

	// Currency is the symbolic currency code of the payment.
	Currency string

	// TxRef is the opaque transaction reference returned by the payment
	// collaborator. The engine does not validate it.
	TxRef string

	// Note is an optional description for the settlement.
	Note string

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64
}
