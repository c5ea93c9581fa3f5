// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/netsplit/netsplit/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for group ledger persistence. The ledger
// semantics are append-only: expenses and settlements are inserted, never
// updated or deleted. The abstraction allows swapping storage backends
// (SQLite, PostgreSQL, etc.) without changing the service layer.
type Store interface {
	// CreateGroup persists a new group with its initial roster.
	// The group.ID and CreatedAt fields are populated if unset.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a full group snapshot: roster in insertion
	// order, expenses and settlements in creation order.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroups retrieves all groups with their rosters (expenses
	// omitted for listing).
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// DeleteGroup removes a group and everything it owns.
	DeleteGroup(ctx context.Context, groupID string) error

	// AddMember inserts a member row and records the group's manual ID
	// sequence in the same transaction.
	AddMember(ctx context.Context, group *models.Group, member models.Member) error

	// RemoveMember deletes one member row. Other members keep their IDs
	// and historical expenses are untouched.
	RemoveMember(ctx context.Context, groupID string, memberID int64) error

	// AppendExpense inserts an expense with its participants and custom
	// shares atomically.
	AppendExpense(ctx context.Context, groupID string, expense models.Expense) error

	// AddSettlement inserts a settlement record.
	// The settlement.ID and CreatedAt fields are populated if unset.
	AddSettlement(ctx context.Context, groupID string, settlement *models.Settlement) error

	// CreateUser persists a new account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email. Returns (nil, nil) when
	// no such user exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID. Returns (nil, nil) when no
	// such user exists.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Close releases any resources held by the store.
	Close() error
}
