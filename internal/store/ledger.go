package store

import (
	"context"
	"fmt"

	"github.com/pbaille/masari/internal/domain"
)

const upcomingLimit = 3

// AddTransaction appends a ledger line
func (s *Store) AddTransaction(ctx context.Context, t domain.Transaction) (*domain.Transaction, error) {
	switch t.Kind {
	case domain.KindIncome, domain.KindExpense, domain.KindSavings:
	default:
		return nil, fmt.Errorf("insert transaction: unknown kind %q", t.Kind)
	}
	if t.Amount < 0 {
		return nil, fmt.Errorf("insert transaction: negative amount %v", t.Amount)
	}
	t.ID = newID()
	t.CreatedAt = s.now()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, kind, amount, category, description, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Kind, t.Amount, t.Category, t.Description, t.Date, t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	return &t, nil
}

// ListTransactions returns ledger lines, newest first. An empty kind
// lists all of them.
func (s *Store) ListTransactions(ctx context.Context, kind string) ([]domain.Transaction, error) {
	query := "SELECT id, kind, amount, category, description, date, created_at FROM transactions"
	var args []any
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY date DESC, created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.Kind, &t.Amount, &t.Category, &t.Description, &t.Date, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// Overview gathers the counts and totals of the daily summary
func (s *Store) Overview(ctx context.Context, today string) (*domain.Overview, error) {
	var o domain.Overview

	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM tasks WHERE completed = 0),
			(SELECT COUNT(*) FROM tasks WHERE date = ?),
			(SELECT COUNT(*) FROM shopping_items WHERE purchased = 0),
			(SELECT COUNT(*) FROM goals WHERE status = ?),
			(SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE kind = 'income'),
			(SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE kind = 'expense'),
			(SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE kind = 'savings')
	`, today, domain.GoalActive).Scan(
		&o.PendingTasks, &o.TodayTasks, &o.ShoppingItems, &o.ActiveGoals,
		&o.Income, &o.Expense, &o.Savings,
	)
	if err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}

	o.Upcoming, err = s.UpcomingAppointments(ctx, today, upcomingLimit)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
