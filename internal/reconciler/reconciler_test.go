package reconciler

import (
	"math"
	"testing"

	"github.com/netsplit/netsplit/internal/models"
)

const (
	addrA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	addrB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	addrC = "0xcccccccccccccccccccccccccccccccccccccccc"
	addrD = "0xdddddddddddddddddddddddddddddddddddddddd"
)

func testGroup() *models.Group {
	return &models.Group{
		ID:   "g1",
		Name: "Trip",
		Members: []models.Member{
			{ID: 1, DisplayName: "Alice", Wallet: models.ResolvedWallet(addrA)},
			{ID: 2, DisplayName: "Bob", Wallet: models.ResolvedWallet(addrB)},
			{ID: 3, DisplayName: "Carol", Wallet: models.ResolvedWallet(addrC)},
		},
	}
}

func equalExpense(payer string, amount float64, participants ...string) models.Expense {
	return models.Expense{
		Amount:       amount,
		Currency:     "cUSD",
		PaidBy:       models.ResolvedWallet(payer),
		SplitMode:    models.SplitEqual,
		Participants: participants,
	}
}

func assertBalance(t *testing.T, balances map[string]float64, addr string, want float64) {
	t.Helper()
	got, ok := balances[addr]
	if !ok {
		t.Fatalf("no balance entry for %s", addr)
	}
	if math.Abs(got-want) > 0.01 {
		t.Errorf("balance[%s] = %v, want %v", addr, got, want)
	}
}

func TestComputeBalancesEqualSplit(t *testing.T) {
	g := testGroup()
	g.Expenses = []models.Expense{equalExpense(addrA, 90, addrA, addrB, addrC)}

	balances := ComputeBalances(g)

	assertBalance(t, balances, addrA, 60)
	assertBalance(t, balances, addrB, -30)
	assertBalance(t, balances, addrC, -30)
}

func TestComputeBalancesCustomSelfPay(t *testing.T) {
	g := testGroup()
	g.Expenses = []models.Expense{{
		Amount:        100,
		Currency:      "cUSD",
		PaidBy:        models.ResolvedWallet(addrA),
		SplitMode:     models.SplitCustom,
		Participants:  []string{addrA},
		CustomAmounts: map[string]float64{addrA: 100},
	}}

	balances := ComputeBalances(g)

	// A paid for themself only; credit and debit cancel.
	assertBalance(t, balances, addrA, 0)
	assertBalance(t, balances, addrB, 0)
	assertBalance(t, balances, addrC, 0)
}

func TestComputeBalancesEmptyGroup(t *testing.T) {
	balances := ComputeBalances(&models.Group{})
	if len(balances) != 0 {
		t.Errorf("expected empty balance map, got %v", balances)
	}
}

func TestComputeBalancesExcludesUnresolved(t *testing.T) {
	g := testGroup()
	g.Members = append(g.Members, models.Member{
		ID: 4, DisplayName: "Dave", Wallet: models.UnresolvedWallet("dave"),
	})
	g.Expenses = []models.Expense{equalExpense(addrA, 30, addrA, addrB, addrC)}

	balances := ComputeBalances(g)

	if len(balances) != 3 {
		t.Fatalf("expected 3 balance entries, got %d", len(balances))
	}
	if _, ok := balances["dave"]; ok {
		t.Error("unresolved member appeared in balance output")
	}
}

func TestComputeBalancesConservation(t *testing.T) {
	g := testGroup()
	g.Expenses = []models.Expense{
		equalExpense(addrA, 90, addrA, addrB, addrC),
		equalExpense(addrB, 45.5, addrA, addrB, addrC),
		{
			Amount:        60,
			PaidBy:        models.ResolvedWallet(addrC),
			SplitMode:     models.SplitCustom,
			Participants:  []string{addrA, addrB},
			CustomAmounts: map[string]float64{addrA: 25, addrB: 35},
		},
	}

	balances := ComputeBalances(g)

	var sum float64
	for _, bal := range balances {
		sum += bal
	}
	if math.Abs(sum) > 0.01 {
		t.Errorf("balances do not sum to zero: %v (sum %v)", balances, sum)
	}
}

func TestComputeBalancesOrderIndependent(t *testing.T) {
	expenses := []models.Expense{
		equalExpense(addrA, 90, addrA, addrB, addrC),
		equalExpense(addrB, 30, addrB, addrC),
		{
			Amount:        50,
			PaidBy:        models.ResolvedWallet(addrC),
			SplitMode:     models.SplitCustom,
			Participants:  []string{addrA, addrC},
			CustomAmounts: map[string]float64{addrA: 20, addrC: 30},
		},
	}
	permutations := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}

	var reference map[string]float64
	for _, perm := range permutations {
		g := testGroup()
		for _, idx := range perm {
			g.Expenses = append(g.Expenses, expenses[idx])
		}
		balances := ComputeBalances(g)
		if reference == nil {
			reference = balances
			continue
		}
		for addr, want := range reference {
			if math.Abs(balances[addr]-want) > 1e-9 {
				t.Errorf("permutation %v: balance[%s] = %v, want %v", perm, addr, balances[addr], want)
			}
		}
	}
}

func TestComputeBalancesAppliesSettlements(t *testing.T) {
	g := testGroup()
	g.Expenses = []models.Expense{equalExpense(addrA, 90, addrA, addrB, addrC)}
	g.Settlements = []models.Settlement{
		{FromAddress: addrB, ToAddress: addrA, Amount: 30, TxRef: "0xdeadbeef"},
	}

	balances := ComputeBalances(g)

	assertBalance(t, balances, addrA, 30)
	assertBalance(t, balances, addrB, 0)
	assertBalance(t, balances, addrC, -30)
}

func TestComputeBalancesDropsRemovedMembers(t *testing.T) {
	g := testGroup()
	g.Expenses = []models.Expense{equalExpense(addrA, 90, addrA, addrB, addrC)}
	// Carol leaves the group; her historical share stays in the expense but
	// she no longer appears in balances.
	g.Members = g.Members[:2]

	balances := ComputeBalances(g)

	if _, ok := balances[addrC]; ok {
		t.Error("removed member still has a balance entry")
	}
	assertBalance(t, balances, addrA, 60)
	assertBalance(t, balances, addrB, -30)
}

func TestOwedAmount(t *testing.T) {
	balances := map[string]float64{addrA: 60, addrB: -30, addrC: -30}

	tests := []struct {
		name         string
		payer, payee string
		want         float64
	}{
		{"debtor pays creditor", addrB, addrA, 30},
		{"creditor owes nothing", addrA, addrB, 0},
		{"debtor to fellow debtor", addrB, addrC, 0},
		{"unknown payer", addrD, addrA, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OwedAmount(balances, tt.payer, tt.payee); math.Abs(got-tt.want) > 0.01 {
				t.Errorf("OwedAmount(%s, %s) = %v, want %v", tt.payer, tt.payee, got, tt.want)
			}
		})
	}
}

func TestSuggestTransfersSettlesGroup(t *testing.T) {
	balances := map[string]float64{addrA: 60, addrB: -30, addrC: -30}

	transfers := SuggestTransfers(balances)

	if len(transfers) != 2 {
		t.Fatalf("expected 2 transfers, got %d: %v", len(transfers), transfers)
	}
	residual := map[string]float64{}
	for addr, bal := range balances {
		residual[addr] = bal
	}
	for _, tr := range transfers {
		if tr.Amount <= 0 {
			t.Errorf("non-positive transfer amount: %v", tr)
		}
		residual[tr.From] += tr.Amount
		residual[tr.To] -= tr.Amount
	}
	for addr, bal := range residual {
		if math.Abs(bal) > 0.01 {
			t.Errorf("residual balance for %s after transfers: %v", addr, bal)
		}
	}
}

func TestSuggestTransfersSettledGroup(t *testing.T) {
	transfers := SuggestTransfers(map[string]float64{addrA: 0, addrB: 0})
	if len(transfers) != 0 {
		t.Errorf("expected no transfers for settled group, got %v", transfers)
	}
}

func TestSuggestTransfersDeterministic(t *testing.T) {
	balances := map[string]float64{addrA: 50, addrB: 50, addrC: -40, addrD: -60}

	first := SuggestTransfers(balances)
	for i := 0; i < 10; i++ {
		again := SuggestTransfers(balances)
		if len(again) != len(first) {
			t.Fatalf("transfer count varies: %d vs %d", len(again), len(first))
		}
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("transfer order varies at %d: %v vs %v", j, first[j], again[j])
			}
		}
	}
}
