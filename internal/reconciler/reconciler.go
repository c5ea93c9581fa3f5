// Package reconciler derives net balances from a group's full expense
// history and proposes settlement transfers. Computation is a pure fold
// over the ledger: nothing is cached and nothing is mutated, so a balance
// query is always consistent with its source expenses.
package reconciler

import (
	"sort"

	"github.com/netsplit/netsplit/internal/models"
)

// settledEpsilon is the threshold below which a residual balance is
// treated as floating point noise rather than a real debt.
const settledEpsilon = 0.01

// Transfer is one suggested payment from a debtor to a creditor.
type Transfer struct {
	From   string // debtor wallet address
	To     string // creditor wallet address
	Amount float64
}

// ComputeBalances folds the group's expenses and settlements into a
// signed balance per eligible member. Positive means the member is owed
// money, negative means they owe. Members without a concrete wallet
// address are excluded entirely; they neither owe nor are owed until
// resolved. The fold is total: an empty group yields an empty map.
func ComputeBalances(g *models.Group) map[string]float64 {
	balances := make(map[string]float64)
	for _, m := range g.Members {
		if addr, ok := m.Wallet.Address(); ok {
			balances[addr] = 0
		}
	}

	for _, expense := range g.Expenses {
		// Credit the payer the full amount. Unresolved payers on
		// historical expenses contribute nothing.
		if addr, ok := expense.PaidBy.Address(); ok {
			balances[addr] += expense.Amount
		}

		if expense.SplitMode == models.SplitCustom && expense.CustomAmounts != nil {
			for addr, amt := range expense.CustomAmounts {
				balances[addr] -= amt
			}
			continue
		}

		// Equal split over the participants that are still concrete. A
		// removed member's address keeps its historical share; balances
		// simply stop tracking it.
		participants := expense.Participants
		if len(participants) == 0 {
			continue
		}
		share := expense.Amount / float64(len(participants))
		for _, addr := range participants {
			balances[addr] -= share
		}
	}

	// A recorded settlement moves money from debtor to creditor, so the
	// debtor's balance improves and the creditor's shrinks.
	for _, s := range g.Settlements {
		balances[s.FromAddress] += s.Amount
		balances[s.ToAddress] -= s.Amount
	}

	// Drop entries for addresses no eligible member holds anymore.
	for addr := range balances {
		if g.MemberByAddress(addr) == nil {
			delete(balances, addr)
		}
	}

	return balances
}

// OwedAmount reports what payer should send payee to clear their own
// shortfall: the payer's absolute negative balance, provided payee is
// actually owed money. The caller picks the counterpart; the engine only
// reports the figure.
func OwedAmount(balances map[string]float64, payer, payee string) float64 {
	debt := -balances[payer]
	if debt <= settledEpsilon {
		return 0
	}
	if balances[payee] <= settledEpsilon {
		return 0
	}
	return debt
}

// SuggestTransfers matches debtors against creditors greedily, largest
// balances first, and returns a set of transfers that would settle the
// group. The result is a convenience for callers: it is deterministic
// but carries no guarantee of minimal transaction count.
func SuggestTransfers(balances map[string]float64) []Transfer {
	var debtors, creditors []string
	for addr, bal := range balances {
		switch {
		case bal < -settledEpsilon:
			debtors = append(debtors, addr)
		case bal > settledEpsilon:
			creditors = append(creditors, addr)
		}
	}

	// Largest amounts first; ties broken by address for stable output.
	sort.Slice(debtors, func(i, j int) bool {
		if balances[debtors[i]] != balances[debtors[j]] {
			return balances[debtors[i]] < balances[debtors[j]]
		}
		return debtors[i] < debtors[j]
	})
	sort.Slice(creditors, func(i, j int) bool {
		if balances[creditors[i]] != balances[creditors[j]] {
			return balances[creditors[i]] > balances[creditors[j]]
		}
		return creditors[i] < creditors[j]
	})

	owed := make(map[string]float64, len(debtors))
	for _, d := range debtors {
		owed[d] = -balances[d]
	}
	credit := make(map[string]float64, len(creditors))
	for _, c := range creditors {
		credit[c] = balances[c]
	}

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := debtors[i], creditors[j]

		amount := owed[debtor]
		if credit[creditor] < amount {
			amount = credit[creditor]
		}

		if amount > settledEpsilon {
			transfers = append(transfers, Transfer{From: debtor, To: creditor, Amount: amount})
		}

		owed[debtor] -= amount
		credit[creditor] -= amount

		if owed[debtor] < settledEpsilon {
			i++
		}
		if credit[creditor] < settledEpsilon {
			j++
		}
	}

	return transfers
}
