package models

// Group owns a roster of members and the append-only history of their
// shared expenses and settlements. Nothing in a group is shared with any
// other group.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates").
	Name string

	// Members is the roster in insertion order.
	Members []Member

	// Expenses is the ledger in creation order.
	Expenses []Expense

	// Settlements are recorded payments between members, in creation order.
	Settlements []Settlement

	// NextManualID is the next ID to hand out for a manual entry. It only
	// ever decrements, so a removed manual member's ID is never reused.
	// Zero means no manual member has been added yet (first ID is -1).
	NextManualID int64

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// MemberByID returns the member with the given ID, or nil.
func (g *Group) MemberByID(id int64) *Member {
	for i := range g.Members {
		if g.Members[i].ID == id {
			return &g.Members[i]
		}
	}
	return nil
}

// MemberByAddress returns the member with the given resolved wallet
// address, or nil.
func (g *Group) MemberByAddress(address string) *Member {
	for i := range g.Members {
		if addr, ok := g.Members[i].Wallet.Address(); ok && addr == address {
			return &g.Members[i]
		}
	}
	return nil
}

// EligibleMembers returns the members with a concrete wallet address, in
// roster order.
func (g *Group) EligibleMembers() []Member {
	var eligible []Member
	for _, m := range g.Members {
		if m.Eligible() {
			eligible = append(eligible, m)
		}
	}
	return eligible
}
