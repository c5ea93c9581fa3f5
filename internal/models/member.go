package models

// Member represents one participant in a group.
//
// Two kinds of member exist. A resolved member originates from an identity
// provider lookup and carries the provider's positive numeric ID and
// handle. A manual member was entered as a raw wallet address or ENS name
// and is assigned a negative ID from the group's manual sequence, so the
// two ID spaces can never collide.
type Member struct {
	// ID is unique within the group. Positive for resolved identities
	// (provider-assigned), negative for manual entries.
	ID int64

	// DisplayName is the label shown for this member. For manual entries
	// it is the raw input string.
	DisplayName string

	// Handle is the provider handle. Empty for manual entries.
	Handle string

	// Wallet is where this member receives funds. Unresolved when the
	// member was added by handle before linking a wallet.
	Wallet WalletRef
}

// Manual reports whether this member was entered by hand rather than
// resolved through an identity provider.
func (m Member) Manual() bool {
	return m.ID < 0
}

// Eligible reports whether this member can pay for or participate in an
// expense split: a concrete wallet address must be known.
func (m Member) Eligible() bool {
	return m.Wallet.Resolved()
}
