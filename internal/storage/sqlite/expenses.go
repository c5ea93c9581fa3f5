package sqlite

import (
	"context"
	"fmt"

	"github.com/netsplit/netsplit/internal/models"
)

// AppendExpense inserts an expense with its participants and custom
// shares in one transaction. The ledger is append-only: there is no
// update or delete counterpart.
func (s *SQLiteStore) AppendExpense(ctx context.Context, groupID string, expense models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	paidByAddress, paidByHandle := walletColumns(expense.PaidBy)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, title, amount, currency, paid_by_address, paid_by_handle, split_mode, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, groupID, expense.Title, expense.Amount, expense.Currency,
		paidByAddress, paidByHandle, string(expense.SplitMode), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for _, addr := range expense.Participants {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_participants (expense_id, wallet_address) VALUES (?, ?)",
			expense.ID, addr,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense participant: %w", err)
		}
	}

	for addr, amount := range expense.CustomAmounts {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_shares (expense_id, wallet_address, amount) VALUES (?, ?, ?)",
			expense.ID, addr, amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense share: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// loadExpenses returns the group's ledger in creation order.
func (s *SQLiteStore) loadExpenses(ctx context.Context, groupID string) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, amount, currency, paid_by_address, paid_by_handle, split_mode, created_at
		 FROM expenses WHERE group_id = ? ORDER BY rowid`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var expense models.Expense
		var paidByAddress, paidByHandle, splitMode string
		if err := rows.Scan(
			&expense.ID, &expense.Title, &expense.Amount, &expense.Currency,
			&paidByAddress, &paidByHandle, &splitMode, &expense.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expense.PaidBy = walletFromColumns(paidByAddress, paidByHandle)
		expense.SplitMode = models.SplitMode(splitMode)
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for i := range expenses {
		if err := s.loadExpenseSplit(ctx, &expenses[i]); err != nil {
			return nil, err
		}
	}

	return expenses, nil
}

// loadExpenseSplit fills in an expense's participants and custom shares.
func (s *SQLiteStore) loadExpenseSplit(ctx context.Context, expense *models.Expense) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT wallet_address FROM expense_participants WHERE expense_id = ? ORDER BY rowid",
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get expense participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return fmt.Errorf("failed to scan expense participant: %w", err)
		}
		expense.Participants = append(expense.Participants, addr)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense participants: %w", err)
	}

	if expense.SplitMode != models.SplitCustom {
		return nil
	}

	shareRows, err := s.db.QueryContext(ctx,
		"SELECT wallet_address, amount FROM expense_shares WHERE expense_id = ?",
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get expense shares: %w", err)
	}
	defer shareRows.Close()

	expense.CustomAmounts = make(map[string]float64)
	for shareRows.Next() {
		var addr string
		var amount float64
		if err := shareRows.Scan(&addr, &amount); err != nil {
			return fmt.Errorf("failed to scan expense share: %w", err)
		}
		expense.CustomAmounts[addr] = amount
	}
	if err := shareRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense shares: %w", err)
	}

	return nil
}
