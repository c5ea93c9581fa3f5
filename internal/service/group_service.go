// Package service coordinates the registry, ledger, and reconciler over
// persistent storage. Every mutation of a group runs under that group's
// lock, so appends never interleave; balance reads take the same lock
// shared, which gives them a consistent snapshot.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/netsplit/netsplit/internal/identity"
	"github.com/netsplit/netsplit/internal/ledger"
	"github.com/netsplit/netsplit/internal/metrics"
	"github.com/netsplit/netsplit/internal/models"
	"github.com/netsplit/netsplit/internal/payment"
	"github.com/netsplit/netsplit/internal/reconciler"
	"github.com/netsplit/netsplit/internal/registry"
	"github.com/netsplit/netsplit/internal/storage"
)

// ErrInvalidSettlement is returned for settlement records that fail
// validation before being stored.
var ErrInvalidSettlement = errors.New("invalid settlement")

// GroupService owns group state transitions. Identity resolution happens
// before a group's lock is taken; the provider is never called from
// inside a critical section.
type GroupService struct {
	store    storage.Store
	resolver identity.Resolver
	payments payment.Submitter
	metrics  *metrics.Metrics

	locks sync.Map // group ID -> *sync.RWMutex
}

// NewGroupService creates a GroupService with the given collaborators.
func NewGroupService(store storage.Store, resolver identity.Resolver, payments payment.Submitter, m *metrics.Metrics) *GroupService {
	return &GroupService{store: store, resolver: resolver, payments: payments, metrics: m}
}

func (s *GroupService) lockFor(groupID string) *sync.RWMutex {
	lock, _ := s.locks.LoadOrStore(groupID, &sync.RWMutex{})
	return lock.(*sync.RWMutex)
}

// BalanceReport is the result of a balance query: signed balances per
// eligible member address plus suggested transfers to settle the group.
type BalanceReport struct {
	Balances  map[string]float64
	Transfers []reconciler.Transfer
}

// CreateGroup builds a group from a name, the creator's resolved
// identity, and raw member inputs, then persists it. Each input is
// classified: addresses become manual entries, handles are resolved
// through the identity provider and join unresolved if the provider
// knows no wallet for them. Anything else fails the whole creation with
// registry.ErrInvalidInput.
func (s *GroupService) CreateGroup(ctx context.Context, name string, creator identity.ResolvedUser, memberInputs []string) (*models.Group, error) {
	slog.Info("CreateGroup request received", "name", name, "inputs", len(memberInputs))

	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: group name required", registry.ErrInvalidInput)
	}

	// Resolve handles before touching any group state.
	resolved := make(map[string]identity.ResolvedUser)
	for _, input := range memberInputs {
		trimmed := strings.TrimSpace(input)
		switch registry.Classify(trimmed) {
		case registry.KindHandle:
			user, err := s.resolver.Resolve(ctx, trimmed)
			if err != nil {
				return nil, fmt.Errorf("%w: cannot resolve handle %q: %v", registry.ErrInvalidInput, trimmed, err)
			}
			resolved[trimmed] = user
		case registry.KindInvalid:
			return nil, fmt.Errorf("%w: %q", registry.ErrInvalidInput, trimmed)
		}
	}

	group := &models.Group{Name: strings.TrimSpace(name)}
	registry.AddResolved(group, creator)
	for _, input := range memberInputs {
		trimmed := strings.TrimSpace(input)
		if user, ok := resolved[trimmed]; ok {
			registry.AddResolved(group, user)
			continue
		}
		if _, err := registry.AddManual(group, trimmed); err != nil {
			return nil, err
		}
	}

	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, err
	}
	s.metrics.GroupsCreated.Inc()

	slog.Info("Group created", "group_id", group.ID, "members", len(group.Members))
	return group, nil
}

// GetGroup retrieves a full group snapshot.
func (s *GroupService) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	lock := s.lockFor(groupID)
	lock.RLock()
	defer lock.RUnlock()

	return s.store.GetGroup(ctx, groupID)
}

// ListGroups retrieves all groups.
func (s *GroupService) ListGroups(ctx context.Context) ([]*models.Group, error) {
	return s.store.ListGroups(ctx)
}

// DeleteGroup removes a group and everything it owns.
func (s *GroupService) DeleteGroup(ctx context.Context, groupID string) error {
	lock := s.lockFor(groupID)
	lock.Lock()
	defer lock.Unlock()

	slog.Info("DeleteGroup request received", "group_id", groupID)
	return s.store.DeleteGroup(ctx, groupID)
}

// AddMember adds one member from a raw input string. Handles are
// resolved through the identity provider first; re-adding an already
// present resolved identity is a no-op and returns the existing member.
func (s *GroupService) AddMember(ctx context.Context, groupID, input string) (models.Member, error) {
	trimmed := strings.TrimSpace(input)
	slog.Info("AddMember request received", "group_id", groupID, "input", trimmed)

	var resolvedUser *identity.ResolvedUser
	if registry.Classify(trimmed) == registry.KindHandle {
		user, err := s.resolver.Resolve(ctx, trimmed)
		if err == nil {
			resolvedUser = &user
		}
		// An unknown handle falls through to AddManual, which stores the
		// raw string verbatim as a manual entry.
	}

	lock := s.lockFor(groupID)
	lock.Lock()
	defer lock.Unlock()

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return models.Member{}, err
	}

	var member models.Member
	rosterBefore := len(group.Members)
	if resolvedUser != nil {
		member = registry.AddResolved(group, *resolvedUser)
	} else {
		member, err = registry.AddManual(group, trimmed)
		if err != nil {
			slog.Warn("AddMember rejected", "group_id", groupID, "error", err)
			return models.Member{}, err
		}
	}

	if len(group.Members) == rosterBefore {
		// Duplicate resolved identity; nothing to persist.
		return member, nil
	}

	if err := s.store.AddMember(ctx, group, member); err != nil {
		slog.Error("AddMember failed", "group_id", groupID, "error", err)
		return models.Member{}, err
	}

	slog.Info("Member added", "group_id", groupID, "member_id", member.ID)
	return member, nil
}

// RemoveMember removes a member from the roster. Historical expenses
// referencing the member's address are untouched.
func (s *GroupService) RemoveMember(ctx context.Context, groupID string, memberID int64) error {
	lock := s.lockFor(groupID)
	lock.Lock()
	defer lock.Unlock()

	slog.Info("RemoveMember request received", "group_id", groupID, "member_id", memberID)

	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return err
	}
	return s.store.RemoveMember(ctx, groupID, memberID)
}

// AddExpense validates the draft against the group and appends the
// expense. A rejected draft leaves both the in-memory group and the
// store untouched.
func (s *GroupService) AddExpense(ctx context.Context, groupID string, draft ledger.Draft) (models.Expense, error) {
	start := time.Now()
	defer s.metrics.ObserveAddExpense(start)

	lock := s.lockFor(groupID)
	lock.Lock()
	defer lock.Unlock()

	slog.Info("AddExpense request received",
		"group_id", groupID,
		"title", draft.Title,
		"amount", draft.Amount,
		"split_mode", draft.SplitMode,
	)

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return models.Expense{}, err
	}

	expense, err := ledger.AddExpense(group, draft)
	if err != nil {
		s.metrics.ExpensesRejected.Inc()
		slog.Warn("AddExpense rejected", "group_id", groupID, "error", err)
		return models.Expense{}, err
	}

	if err := s.store.AppendExpense(ctx, groupID, expense); err != nil {
		slog.Error("AddExpense failed", "group_id", groupID, "error", err)
		return models.Expense{}, err
	}
	s.metrics.ExpensesAdded.Inc()

	slog.Info("Expense added", "group_id", groupID, "expense_id", expense.ID, "participants", len(expense.Participants))
	return expense, nil
}

// Balances recomputes the group's balances from the full expense history
// and suggests transfers to settle up.
func (s *GroupService) Balances(ctx context.Context, groupID string) (BalanceReport, error) {
	start := time.Now()
	defer s.metrics.ObserveBalances(start)

	lock := s.lockFor(groupID)
	lock.RLock()
	defer lock.RUnlock()

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return BalanceReport{}, err
	}

	balances := reconciler.ComputeBalances(group)
	return BalanceReport{
		Balances:  balances,
		Transfers: reconciler.SuggestTransfers(balances),
	}, nil
}

// OwedAmount reports what payer should send payee to clear the payer's
// shortfall, per the current balances.
func (s *GroupService) OwedAmount(ctx context.Context, groupID, payer, payee string) (float64, error) {
	report, err := s.Balances(ctx, groupID)
	if err != nil {
		return 0, err
	}
	return reconciler.OwedAmount(report.Balances, payer, payee), nil
}

// PayDebt submits the full amount payer currently owes payee through the
// payment collaborator and records the resulting settlement. The submit
// happens outside the group lock; a competing mutation between the owed
// computation and the record is acceptable, since the settlement amount
// was correct when submitted and the fold applies it as-is.
func (s *GroupService) PayDebt(ctx context.Context, groupID, payerAddr, payeeAddr, currency string) (*models.Settlement, error) {
	owed, err := s.OwedAmount(ctx, groupID, payerAddr, payeeAddr)
	if err != nil {
		return nil, err
	}
	if owed <= 0 {
		return nil, fmt.Errorf("%w: %s owes %s nothing", ErrInvalidSettlement, payerAddr, payeeAddr)
	}

	txRef, err := s.payments.Submit(ctx, payment.Request{
		ToAddress: payeeAddr,
		Amount:    owed,
		Currency:  currency,
	})
	if err != nil {
		slog.Error("PayDebt submit failed", "group_id", groupID, "error", err)
		return nil, fmt.Errorf("submit payment: %w", err)
	}

	settlement := &models.Settlement{
		FromAddress: payerAddr,
		ToAddress:   payeeAddr,
		Amount:      owed,
		Currency:    currency,
		TxRef:       txRef,
	}
	if err := s.RecordSettlement(ctx, groupID, settlement); err != nil {
		return nil, err
	}
	return settlement, nil
}

// RecordSettlement stores an externally executed payment between two
// eligible members. The transaction reference is opaque and unverified.
func (s *GroupService) RecordSettlement(ctx context.Context, groupID string, settlement *models.Settlement) error {
	if settlement.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidSettlement)
	}

	lock := s.lockFor(groupID)
	lock.Lock()
	defer lock.Unlock()

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.MemberByAddress(settlement.FromAddress) == nil {
		return fmt.Errorf("%w: payer %q is not an eligible member", ErrInvalidSettlement, settlement.FromAddress)
	}
	if group.MemberByAddress(settlement.ToAddress) == nil {
		return fmt.Errorf("%w: payee %q is not an eligible member", ErrInvalidSettlement, settlement.ToAddress)
	}

	if err := s.store.AddSettlement(ctx, groupID, settlement); err != nil {
		slog.Error("RecordSettlement failed", "group_id", groupID, "error", err)
		return err
	}
	s.metrics.SettlementsAdded.Inc()

	slog.Info("Settlement recorded",
		"group_id", groupID,
		"settlement_id", settlement.ID,
		"amount", settlement.Amount,
		"tx_ref", settlement.TxRef,
	)
	return nil
}
