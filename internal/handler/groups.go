package handler

import (
	"net/http"
	"strconv"

	"github.com/netsplit/netsplit/internal/identity"
	"github.com/netsplit/netsplit/internal/ledger"
	"github.com/netsplit/netsplit/internal/models"
)

type createGroupRequest struct {
	Name string `json:"name"`
	// Creator is the resolved identity of the user creating the group,
	// constructed by the frontend from its identity provider context.
	Creator struct {
		ID          int64    `json:"id"`
		Handle      string   `json:"handle"`
		DisplayName string   `json:"display_name"`
		Addresses   []string `json:"addresses"`
	} `json:"creator"`
	// Members are raw inputs: wallet addresses or provider handles.
	Members []string `json:"members"`
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	creator := identity.ResolvedUser{
		ID:          req.Creator.ID,
		Handle:      req.Creator.Handle,
		DisplayName: req.Creator.DisplayName,
		Addresses:   req.Creator.Addresses,
	}

	group, err := h.groups.CreateGroup(r.Context(), req.Name, creator, req.Members)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupResponse(group))
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.GetGroup(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(group))
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.ListGroups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.groups.DeleteGroup(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addMemberRequest struct {
	// Input is a wallet address or a provider handle.
	Input string `json:"input"`
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	member, err := h.groups.AddMember(r.Context(), r.PathValue("id"), req.Input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberResponse(member))
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	memberID, err := strconv.ParseInt(r.PathValue("memberID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid member ID", http.StatusBadRequest)
		return
	}

	if err := h.groups.RemoveMember(r.Context(), r.PathValue("id"), memberID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addExpenseRequest struct {
	Title         string            `json:"title"`
	Amount        float64           `json:"amount"`
	Currency      string            `json:"currency"`
	PaidBy        string            `json:"paid_by"`
	SplitMode     string            `json:"split_mode"`
	CustomAmounts map[string]string `json:"custom_amounts,omitempty"`
}

func (h *Handler) addExpense(w http.ResponseWriter, r *http.Request) {
	var req addExpenseRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	expense, err := h.groups.AddExpense(r.Context(), r.PathValue("id"), ledger.Draft{
		Title:         req.Title,
		Amount:        req.Amount,
		Currency:      req.Currency,
		PaidBy:        req.PaidBy,
		SplitMode:     models.SplitMode(req.SplitMode),
		CustomAmounts: req.CustomAmounts,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseResponse(expense))
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.GetGroup(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	// Newest first for display.
	out := make([]expenseResponse, 0, len(group.Expenses))
	for i := len(group.Expenses) - 1; i >= 0; i-- {
		out = append(out, toExpenseResponse(group.Expenses[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) balances(w http.ResponseWriter, r *http.Request) {
	report, err := h.groups.Balances(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := balancesResponse{
		Balances:  report.Balances,
		Transfers: toTransferResponses(report.Transfers),
	}

	// ?payer=&payee= asks what one member should send another.
	payer, payee := r.URL.Query().Get("payer"), r.URL.Query().Get("payee")
	if payer != "" && payee != "" {
		owed, err := h.groups.OwedAmount(r.Context(), r.PathValue("id"), payer, payee)
		if err != nil {
			writeError(w, err)
			return
		}
		resp.Owed = &owed
	}

	writeJSON(w, http.StatusOK, resp)
}

type recordSettlementRequest struct {
	FromAddress string  `json:"from_address"`
	ToAddress   string  `json:"to_address"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	TxRef       string  `json:"tx_ref"`
	Note        string  `json:"note,omitempty"`
}

type payDebtRequest struct {
	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`
	Currency    string `json:"currency"`
}

func (h *Handler) payDebt(w http.ResponseWriter, r *http.Request) {
	var req payDebtRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	settlement, err := h.groups.PayDebt(r.Context(), r.PathValue("id"), req.FromAddress, req.ToAddress, req.Currency)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSettlementResponse(*settlement))
}

func (h *Handler) recordSettlement(w http.ResponseWriter, r *http.Request) {
	var req recordSettlementRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	settlement := &models.Settlement{
		FromAddress: req.FromAddress,
		ToAddress:   req.ToAddress,
		Amount:      req.Amount,
		Currency:    req.Currency,
		TxRef:       req.TxRef,
		Note:        req.Note,
	}
	if err := h.groups.RecordSettlement(r.Context(), r.PathValue("id"), settlement); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSettlementResponse(*settlement))
}
