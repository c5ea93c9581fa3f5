package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/netsplit/netsplit/internal/models"
	"github.com/netsplit/netsplit/internal/storage"
)

// CreateGroup persists a new group with its initial roster.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO groups (id, name, next_manual_id, created_at) VALUES (?, ?, ?, ?)",
		group.ID, group.Name, group.NextManualID, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	for _, member := range group.Members {
		if err := insertMember(ctx, tx, group.ID, member); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetGroup retrieves a full group snapshot by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, next_manual_id, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.NextManualID, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	if group.Members, err = s.loadMembers(ctx, groupID); err != nil {
		return nil, err
	}
	if group.Expenses, err = s.loadExpenses(ctx, groupID); err != nil {
		return nil, err
	}
	if group.Settlements, err = s.loadSettlements(ctx, groupID); err != nil {
		return nil, err
	}

	return group, nil
}

// ListGroups retrieves all groups with their rosters, newest first.
func (s *SQLiteStore) ListGroups(ctx context.Context) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, next_manual_id, created_at FROM groups ORDER BY created_at DESC, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.NextManualID, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	for _, group := range groups {
		if group.Members, err = s.loadMembers(ctx, group.ID); err != nil {
			return nil, err
		}
	}

	return groups, nil
}

// DeleteGroup removes a group; members, expenses and settlements cascade.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return nil
}

// AddMember inserts a member and records the group's manual ID sequence
// in one transaction, so a manual ID can never be handed out twice even
// across restarts.
func (s *SQLiteStore) AddMember(ctx context.Context, group *models.Group, member models.Member) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertMember(ctx, tx, group.ID, member); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE groups SET next_manual_id = ? WHERE id = ?",
		group.NextManualID, group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update manual sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// RemoveMember deletes one member row without renumbering survivors.
func (s *SQLiteStore) RemoveMember(ctx context.Context, groupID string, memberID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM members WHERE group_id = ? AND id = ?",
		groupID, memberID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

func insertMember(ctx context.Context, tx *sql.Tx, groupID string, member models.Member) error {
	address, handle := walletColumns(member.Wallet)
	_, err := tx.ExecContext(ctx,
		"INSERT INTO members (group_id, id, display_name, handle, wallet_address, wallet_handle) VALUES (?, ?, ?, ?, ?, ?)",
		groupID, member.ID, member.DisplayName, member.Handle, address, handle,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// loadMembers returns the roster in insertion order.
func (s *SQLiteStore) loadMembers(ctx context.Context, groupID string) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, display_name, handle, wallet_address, wallet_handle FROM members WHERE group_id = ? ORDER BY rowid",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var member models.Member
		var address, handle string
		if err := rows.Scan(&member.ID, &member.DisplayName, &member.Handle, &address, &handle); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		member.Wallet = walletFromColumns(address, handle)
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}
