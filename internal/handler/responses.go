package handler

import (
	"github.com/netsplit/netsplit/internal/models"
	"github.com/netsplit/netsplit/internal/reconciler"
)

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

type sessionResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

type memberResponse struct {
	ID            int64  `json:"id"`
	DisplayName   string `json:"display_name"`
	Handle        string `json:"handle,omitempty"`
	WalletAddress string `json:"wallet_address,omitempty"`
	Pending       bool   `json:"pending"`
}

type expenseResponse struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Amount        float64            `json:"amount"`
	Currency      string             `json:"currency"`
	PaidBy        string             `json:"paid_by"`
	SplitMode     string             `json:"split_mode"`
	Participants  []string           `json:"participants"`
	CustomAmounts map[string]float64 `json:"custom_amounts,omitempty"`
	CreatedAt     int64              `json:"created_at"`
}

type settlementResponse struct {
	ID          string  `json:"id"`
	FromAddress string  `json:"from_address"`
	ToAddress   string  `json:"to_address"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	TxRef       string  `json:"tx_ref"`
	Note        string  `json:"note,omitempty"`
	CreatedAt   int64   `json:"created_at"`
}

type groupResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Members     []memberResponse     `json:"members"`
	Expenses    []expenseResponse    `json:"expenses,omitempty"`
	Settlements []settlementResponse `json:"settlements,omitempty"`
	CreatedAt   int64                `json:"created_at"`
}

type transferResponse struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

type balancesResponse struct {
	Balances  map[string]float64 `json:"balances"`
	Transfers []transferResponse `json:"suggested_transfers"`
	// Owed is present when payer and payee query params were supplied.
	Owed *float64 `json:"owed,omitempty"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func toMemberResponse(m models.Member) memberResponse {
	address, _ := m.Wallet.Address()
	return memberResponse{
		ID:            m.ID,
		DisplayName:   m.DisplayName,
		Handle:        m.Handle,
		WalletAddress: address,
		Pending:       !m.Wallet.Resolved(),
	}
}

func toExpenseResponse(e models.Expense) expenseResponse {
	paidBy, _ := e.PaidBy.Address()
	return expenseResponse{
		ID:            e.ID,
		Title:         e.Title,
		Amount:        e.Amount,
		Currency:      e.Currency,
		PaidBy:        paidBy,
		SplitMode:     string(e.SplitMode),
		Participants:  e.Participants,
		CustomAmounts: e.CustomAmounts,
		CreatedAt:     e.CreatedAt,
	}
}

func toSettlementResponse(s models.Settlement) settlementResponse {
	return settlementResponse{
		ID:          s.ID,
		FromAddress: s.FromAddress,
		ToAddress:   s.ToAddress,
		Amount:      s.Amount,
		Currency:    s.Currency,
		TxRef:       s.TxRef,
		Note:        s.Note,
		CreatedAt:   s.CreatedAt,
	}
}

func toGroupResponse(g *models.Group) groupResponse {
	resp := groupResponse{
		ID:        g.ID,
		Name:      g.Name,
		CreatedAt: g.CreatedAt,
		Members:   make([]memberResponse, 0, len(g.Members)),
	}
	for _, m := range g.Members {
		resp.Members = append(resp.Members, toMemberResponse(m))
	}
	for _, e := range g.Expenses {
		resp.Expenses = append(resp.Expenses, toExpenseResponse(e))
	}
	for _, s := range g.Settlements {
		resp.Settlements = append(resp.Settlements, toSettlementResponse(s))
	}
	return resp
}

func toTransferResponses(transfers []reconciler.Transfer) []transferResponse {
	out := make([]transferResponse, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, transferResponse{From: t.From, To: t.To, Amount: t.Amount})
	}
	return out
}
