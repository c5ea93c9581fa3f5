// Package registry maintains a group's member roster: classifying raw
// input strings, deduplicating resolved identities, and assigning manual
// entries their IDs.
package registry

import (
	"errors"
	"regexp"
	"strings"

	"github.com/netsplit/netsplit/internal/identity"
	"github.com/netsplit/netsplit/internal/models"
)

// ErrInvalidInput is returned when a member input string is neither a
// wallet address nor a handle.
var ErrInvalidInput = errors.New("invalid member input")

// Kind classifies a raw member input string.
type Kind int

const (
	// KindInvalid matches nothing the registry accepts.
	KindInvalid Kind = iota
	// KindAddress is a 0x-prefixed 40-hex-digit wallet address.
	KindAddress
	// KindHandle is a 2-20 character provider handle.
	KindHandle
)

var (
	addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	handlePattern  = regexp.MustCompile(`^[a-zA-Z0-9_-]{2,20}$`)
)

// Classify reports whether input is a wallet address, a provider handle,
// or neither. Addresses are checked first; a 42-character hex string can
// never be mistaken for a handle.
func Classify(input string) Kind {
	switch {
	case addressPattern.MatchString(input):
		return KindAddress
	case handlePattern.MatchString(input):
		return KindHandle
	default:
		return KindInvalid
	}
}

// AddResolved inserts a member for a provider-resolved identity. Adding
// the same identity twice is a no-op: the existing member is returned
// unchanged, guarding against repeated search selections.
//
// The member's wallet is the user's first verified address; users without
// one join as unresolved and stay out of splits until their wallet links.
func AddResolved(g *models.Group, user identity.ResolvedUser) models.Member {
	if existing := g.MemberByID(user.ID); existing != nil {
		return *existing
	}

	wallet := models.UnresolvedWallet(user.Handle)
	if addr, ok := user.FirstVerifiedAddress(); ok {
		wallet = models.ResolvedWallet(addr)
	}

	displayName := user.DisplayName
	if displayName == "" {
		displayName = user.Handle
	}

	member := models.Member{
		ID:          user.ID,
		DisplayName: displayName,
		Handle:      user.Handle,
		Wallet:      wallet,
	}
	g.Members = append(g.Members, member)
	return member
}

// AddManual inserts a member for a raw wallet address or ENS-like string.
// The input is trimmed and stored verbatim as both display label and
// wallet address. Manual members take IDs from the group's negative
// sequence, counted down in addition order; the sequence never rewinds,
// so removing a manual member never frees its ID for reuse.
func AddManual(g *models.Group, raw string) (models.Member, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || Classify(trimmed) == KindInvalid {
		return models.Member{}, ErrInvalidInput
	}

	if g.NextManualID == 0 {
		g.NextManualID = -1
	}
	member := models.Member{
		ID:          g.NextManualID,
		DisplayName: trimmed,
		Wallet:      models.ResolvedWallet(trimmed),
	}
	g.NextManualID--
	g.Members = append(g.Members, member)
	return member, nil
}

// Remove deletes the member with the given ID from the roster. Survivors
// keep their IDs, and historical expenses referencing the removed
// member's address are untouched; that address simply drops out of future
// balance maps along with its member.
func Remove(g *models.Group, id int64) {
	for i := range g.Members {
		if g.Members[i].ID == id {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			return
		}
	}
}
