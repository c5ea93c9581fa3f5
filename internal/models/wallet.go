package models

// WalletRef identifies where a member can receive funds. It is either
// resolved to a concrete address, or unresolved: the member was added by
// handle and has not linked a verified wallet yet.
//
// Unresolved members are excluded from paying, splitting, and balance
// output until their wallet is known.
type WalletRef struct {
	address string
	handle  string
}

// ResolvedWallet returns a WalletRef for a known address. For manual
// entries the address is the raw string the user typed (address or ENS).
func ResolvedWallet(address string) WalletRef {
	return WalletRef{address: address}
}

// UnresolvedWallet returns a WalletRef for a member whose wallet is not
// yet known, keyed by the handle that identified them.
func UnresolvedWallet(handle string) WalletRef {
	return WalletRef{handle: handle}
}

// Resolved reports whether a concrete address is known.
func (w WalletRef) Resolved() bool {
	return w.address != ""
}

// Address returns the concrete address and whether one is known.
func (w WalletRef) Address() (string, bool) {
	return w.address, w.address != ""
}

// Handle returns the handle an unresolved wallet is waiting on.
// Empty for resolved wallets.
func (w WalletRef) Handle() string {
	return w.handle
}
