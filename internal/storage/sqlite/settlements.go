package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/netsplit/netsplit/internal/models"
)

// AddSettlement inserts a settlement record.
func (s *SQLiteStore) AddSettlement(ctx context.Context, groupID string, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (id, group_id, from_address, to_address, amount, currency, tx_ref, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, groupID, settlement.FromAddress, settlement.ToAddress,
		settlement.Amount, settlement.Currency, settlement.TxRef, settlement.Note, settlement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	return nil
}

// loadSettlements returns the group's settlements in creation order.
func (s *SQLiteStore) loadSettlements(ctx context.Context, groupID string) ([]models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, from_address, to_address, amount, currency, tx_ref, note, created_at
		 FROM settlements WHERE group_id = ? ORDER BY rowid`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get settlements: %w", err)
	}
	defer rows.Close()

	var settlements []models.Settlement
	for rows.Next() {
		var settlement models.Settlement
		if err := rows.Scan(
			&settlement.ID, &settlement.FromAddress, &settlement.ToAddress,
			&settlement.Amount, &settlement.Currency, &settlement.TxRef,
			&settlement.Note, &settlement.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}
