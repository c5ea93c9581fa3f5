package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/netsplit/netsplit/internal/auth"
	"github.com/netsplit/netsplit/internal/identity"
	"github.com/netsplit/netsplit/internal/metrics"
	"github.com/netsplit/netsplit/internal/payment"
	"github.com/netsplit/netsplit/internal/service"
	"github.com/netsplit/netsplit/internal/storage/sqlite"
)

const (
	addrA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	addrB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	addrC = "0xcccccccccccccccccccccccccccccccccccccccc"
)

// Prometheus collectors register globally, so the package shares one set.
var testMetrics = metrics.New()

// setupTestServer starts an httptest server over a temp database and
// returns its URL plus a valid session token.
func setupTestServer(t *testing.T) (baseURL, token string, cleanup func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	resolver := identity.StaticResolver{
		"bob":  {ID: 20, Handle: "bob", DisplayName: "Bob", Addresses: []string{addrB}},
		"dave": {ID: 40, Handle: "dave", DisplayName: "Dave"}, // no wallet yet
	}

	jwtManager := auth.NewJWTManager("test-secret-test-secret-12345678", time.Hour)
	groupSvc := service.NewGroupService(store, resolver, &payment.Recorder{}, testMetrics)
	authSvc := service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, slog.Default())

	server := httptest.NewServer(New(groupSvc, authSvc, jwtManager).Routes())

	cleanup = func() {
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	}

	// Register an account for the authed endpoints.
	var session sessionResponse
	doJSON(t, server.URL, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":        "alice@example.com",
		"display_name": "Alice",
		"password":     "correct-horse",
	}, http.StatusCreated, &session)

	return server.URL, session.Token, cleanup
}

// doJSON issues a JSON request and decodes the response when out is
// non-nil, failing the test on an unexpected status.
func doJSON(t *testing.T, baseURL, method, path, token string, body any, wantStatus int, out any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, baseURL+path, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status %d, want %d", method, path, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
}

func createTestGroup(t *testing.T, baseURL, token string) groupResponse {
	t.Helper()

	var group groupResponse
	doJSON(t, baseURL, http.MethodPost, "/api/groups", token, map[string]any{
		"name": "Trip",
		"creator": map[string]any{
			"id":           10,
			"handle":       "alice",
			"display_name": "Alice",
			"addresses":    []string{addrA},
		},
		"members": []string{"bob", addrC},
	}, http.StatusCreated, &group)
	return group
}

func TestCreateGroup(t *testing.T) {
	baseURL, token, cleanup := setupTestServer(t)
	defer cleanup()

	group := createTestGroup(t, baseURL, token)

	if group.ID == "" {
		t.Error("expected non-empty group ID")
	}
	if group.Name != "Trip" {
		t.Errorf("name: expected 'Trip', got %q", group.Name)
	}
	if len(group.Members) != 3 {
		t.Fatalf("members: expected 3, got %d", len(group.Members))
	}

	// Creator first, then the resolved handle, then the manual address.
	if group.Members[0].ID != 10 || group.Members[0].WalletAddress != addrA {
		t.Errorf("creator member wrong: %+v", group.Members[0])
	}
	if group.Members[1].ID != 20 || group.Members[1].Handle != "bob" {
		t.Errorf("resolved member wrong: %+v", group.Members[1])
	}
	if group.Members[2].ID != -1 || group.Members[2].WalletAddress != addrC {
		t.Errorf("manual member wrong: %+v", group.Members[2])
	}
}

func TestCreateGroupRequiresAuth(t *testing.T) {
	baseURL, _, cleanup := setupTestServer(t)
	defer cleanup()

	doJSON(t, baseURL, http.MethodPost, "/api/groups", "", map[string]any{
		"name": "Trip",
	}, http.StatusUnauthorized, nil)
}

func TestCreateGroupInvalidMemberInput(t *testing.T) {
	baseURL, token, cleanup := setupTestServer(t)
	defer cleanup()

	doJSON(t, baseURL, http.MethodPost, "/api/groups", token, map[string]any{
		"name": "Trip",
		"creator": map[string]any{
			"id": 10, "handle": "alice", "addresses": []string{addrA},
		},
		"members": []string{"not a member!!"},
	}, http.StatusBadRequest, nil)
}

func TestAddMemberPendingWallet(t *testing.T) {
	baseURL, token, cleanup := setupTestServer(t)
	defer cleanup()
	group := createTestGroup(t, baseURL, token)

	var member memberResponse
	doJSON(t, baseURL, http.MethodPost, "/api/groups/"+group.ID+"/members", token,
		map[string]string{"input": "dave"}, http.StatusCreated, &member)

	if !member.Pending {
		t.Error("expected member without verified address to be pending")
	}
	if member.ID != 40 {
		t.Errorf("expected provider ID 40, got %d", member.ID)
	}
}

func TestAddExpenseAndBalances(t *testing.T) {
	baseURL, token, cleanup := setupTestServer(t)
	defer cleanup()
	group := createTestGroup(t, baseURL, token)

	var expense expenseResponse
	doJSON(t, baseURL, http.MethodPost, "/api/groups/"+group.ID+"/expenses", token,
		map[string]any{
			"title":      "Dinner",
			"amount":     90,
			"currency":   "cUSD",
			"paid_by":    addrA,
			"split_mode": "equal",
		}, http.StatusCreated, &expense)

	if len(expense.Participants) != 3 {
		t.Fatalf("expected 3 participants (payer included), got %d", len(expense.Participants))
	}

	var report balancesResponse
	doJSON(t, baseURL, http.MethodGet, "/api/groups/"+group.ID+"/balances", "",
		nil, http.StatusOK, &report)

	if math.Abs(report.Balances[addrA]-60) > 0.01 {
		t.Errorf("balance[A] = %v, want 60", report.Balances[addrA])
	}
	if math.Abs(report.Balances[addrB]+30) > 0.01 {
		t.Errorf("balance[B] = %v, want -30", report.Balances[addrB])
	}
	if math.Abs(report.Balances[addrC]+30) > 0.01 {
		t.Errorf("balance[C] = %v, want -30", report.Balances[addrC])
	}
	if len(report.Transfers) != 2 {
		t.Errorf("expected 2 suggested transfers, got %d", len(report.Transfers))
	}

	// The owed lookup for a selected pair.
	var withOwed balancesResponse
	doJSON(t, baseURL, http.MethodGet,
		fmt.Sprintf("/api/groups/%s/balances?payer=%s&payee=%s", group.ID, addrB, addrA),
		"", nil, http.StatusOK, &withOwed)
	if withOwed.Owed == nil || math.Abs(*withOwed.Owed-30) > 0.01 {
		t.Errorf("owed = %v, want 30", withOwed.Owed)
	}
}

func TestAddExpenseSplitMismatch(t *testing.T) {
	baseURL, token, cleanup := setupTestServer(t)
	defer cleanup()
	group := createTestGroup(t, baseURL, token)

	doJSON(t, baseURL, http.MethodPost, "/api/groups/"+group.ID+"/expenses", token,
		map[string]any{
			"title":      "Rent",
			"amount":     100,
			"currency":   "cUSD",
			"paid_by":    addrA,
			"split_mode": "custom",
			"custom_amounts": map[string]string{
				addrA: "40",
				addrB: "30",
			},
		}, http.StatusUnprocessableEntity, nil)

	// Ledger length unchanged.
	var expenses []expenseResponse
	doJSON(t, baseURL, http.MethodGet, "/api/groups/"+group.ID+"/expenses", "",
		nil, http.StatusOK, &expenses)
	if len(expenses) != 0 {
		t.Errorf("rejected expense was appended: %d entries", len(expenses))
	}
}

func TestRecordSettlement(t *testing.T) {
	baseURL, token, cleanup := setupTestServer(t)
	defer cleanup()
	group := createTestGroup(t, baseURL, token)

	doJSON(t, baseURL, http.MethodPost, "/api/groups/"+group.ID+"/expenses", token,
		map[string]any{
			"title":      "Dinner",
			"amount":     90,
			"currency":   "cUSD",
			"paid_by":    addrA,
			"split_mode": "equal",
		}, http.StatusCreated, nil)

	var settlement settlementResponse
	doJSON(t, baseURL, http.MethodPost, "/api/groups/"+group.ID+"/settlements", token,
		map[string]any{
			"from_address": addrB,
			"to_address":   addrA,
			"amount":       30,
			"currency":     "cUSD",
			"tx_ref":       "0xdeadbeef",
		}, http.StatusCreated, &settlement)
	if settlement.ID == "" {
		t.Error("expected settlement to get an ID")
	}

	var report balancesResponse
	doJSON(t, baseURL, http.MethodGet, "/api/groups/"+group.ID+"/balances", "",
		nil, http.StatusOK, &report)
	if math.Abs(report.Balances[addrB]) > 0.01 {
		t.Errorf("balance[B] after settling = %v, want 0", report.Balances[addrB])
	}
	if math.Abs(report.Balances[addrA]-30) > 0.01 {
		t.Errorf("balance[A] after settling = %v, want 30", report.Balances[addrA])
	}
}

func TestRemoveMemberKeepsHistory(t *testing.T) {
	baseURL, token, cleanup := setupTestServer(t)
	defer cleanup()
	group := createTestGroup(t, baseURL, token)

	doJSON(t, baseURL, http.MethodPost, "/api/groups/"+group.ID+"/expenses", token,
		map[string]any{
			"title":      "Dinner",
			"amount":     90,
			"currency":   "cUSD",
			"paid_by":    addrA,
			"split_mode": "equal",
		}, http.StatusCreated, nil)

	// Remove the manual member (ID -1, address C).
	doJSON(t, baseURL, http.MethodDelete, "/api/groups/"+group.ID+"/members/-1", token,
		nil, http.StatusNoContent, nil)

	var got groupResponse
	doJSON(t, baseURL, http.MethodGet, "/api/groups/"+group.ID, "", nil, http.StatusOK, &got)
	if len(got.Members) != 2 {
		t.Fatalf("expected 2 members after removal, got %d", len(got.Members))
	}
	if len(got.Expenses) != 1 {
		t.Fatalf("historical expense disappeared")
	}
	if len(got.Expenses[0].Participants) != 3 {
		t.Errorf("historical participants were rewritten: %v", got.Expenses[0].Participants)
	}

	// The removed address drops out of the balance map.
	var report balancesResponse
	doJSON(t, baseURL, http.MethodGet, "/api/groups/"+group.ID+"/balances", "",
		nil, http.StatusOK, &report)
	if _, ok := report.Balances[addrC]; ok {
		t.Error("removed member still appears in balances")
	}
}

func TestGetGroupNotFound(t *testing.T) {
	baseURL, _, cleanup := setupTestServer(t)
	defer cleanup()

	doJSON(t, baseURL, http.MethodGet, "/api/groups/nonexistent-id", "", nil, http.StatusNotFound, nil)
}

func TestLogin(t *testing.T) {
	baseURL, _, cleanup := setupTestServer(t)
	defer cleanup()

	var session sessionResponse
	doJSON(t, baseURL, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "correct-horse",
	}, http.StatusOK, &session)
	if session.Token == "" {
		t.Error("expected a session token")
	}

	doJSON(t, baseURL, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong-password",
	}, http.StatusUnauthorized, nil)
}
