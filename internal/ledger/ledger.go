// Package ledger validates and appends expense records to a group. The
// ledger is append-only: once an expense is in, it is never edited or
// deleted, and a rejected draft leaves the group untouched.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/netsplit/netsplit/internal/models"
)

var (
	// ErrInvalidExpense is returned for a missing title, a non-positive
	// amount, an ineligible payer, or a group with nobody to split among.
	ErrInvalidExpense = errors.New("invalid expense")

	// ErrSplitMismatch is returned when custom split amounts diverge from
	// the expense total by more than the tolerance.
	ErrSplitMismatch = errors.New("custom split amounts must equal the expense total")
)

// splitTolerance is the absolute divergence allowed between the sum of
// custom shares and the expense amount.
const splitTolerance = 0.01

// Draft carries the caller-supplied fields for a new expense. Custom
// amounts arrive as strings, exactly as entered; unparseable or
// non-positive entries are ignored.
type Draft struct {
	Title         string
	Amount        float64
	Currency      string
	PaidBy        string // wallet address of the payer
	SplitMode     models.SplitMode
	CustomAmounts map[string]string // participant address -> amount string
}

// AddExpense validates the draft against the group's roster and appends
// the resulting expense. On any validation failure the group is returned
// to the caller unchanged.
//
// Equal splits include the payer: they are credited the full amount by
// the reconciler and then debited their own share like everyone else.
// This is intentional.
func AddExpense(g *models.Group, draft Draft) (models.Expense, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return models.Expense{}, fmt.Errorf("%w: title required", ErrInvalidExpense)
	}
	if draft.Amount <= 0 {
		return models.Expense{}, fmt.Errorf("%w: amount must be positive", ErrInvalidExpense)
	}

	eligible := g.EligibleMembers()
	if len(eligible) == 0 {
		return models.Expense{}, fmt.Errorf("%w: no members with a linked wallet to split among", ErrInvalidExpense)
	}

	payer := g.MemberByAddress(draft.PaidBy)
	if payer == nil {
		return models.Expense{}, fmt.Errorf("%w: payer %q is not an eligible member", ErrInvalidExpense, draft.PaidBy)
	}

	expense := models.Expense{
		ID:        uuid.New().String(),
		Title:     draft.Title,
		Amount:    draft.Amount,
		Currency:  draft.Currency,
		PaidBy:    payer.Wallet,
		SplitMode: draft.SplitMode,
		CreatedAt: time.Now().Unix(),
	}

	switch draft.SplitMode {
	case models.SplitCustom:
		shares := parseShares(draft.CustomAmounts, eligible)
		var total float64
		for _, amt := range shares {
			total += amt
		}
		if math.Abs(total-draft.Amount) > splitTolerance {
			return models.Expense{}, fmt.Errorf("%w: shares sum to %.2f, expense is %.2f",
				ErrSplitMismatch, total, draft.Amount)
		}
		expense.CustomAmounts = shares
		for _, m := range eligible {
			if addr, _ := m.Wallet.Address(); shares[addr] > 0 {
				expense.Participants = append(expense.Participants, addr)
			}
		}

	default:
		// Equal split across every eligible member, payer included.
		expense.SplitMode = models.SplitEqual
		for _, m := range eligible {
			addr, _ := m.Wallet.Address()
			expense.Participants = append(expense.Participants, addr)
		}
	}

	g.Expenses = append(g.Expenses, expense)
	return expense, nil
}

// parseShares extracts the positive, parseable custom amounts belonging
// to eligible members.
func parseShares(raw map[string]string, eligible []models.Member) map[string]float64 {
	shares := make(map[string]float64)
	for _, m := range eligible {
		addr, _ := m.Wallet.Address()
		value, ok := raw[addr]
		if !ok {
			continue
		}
		amt, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || amt <= 0 {
			continue
		}
		shares[addr] = amt
	}
	return shares
}
