package store

import (
	"context"
	"fmt"

	"github.com/pbaille/masari/internal/domain"
)

// goalTaskPrefix labels the task that tracks a goal.
var goalTaskPrefix = map[string]string{
	"book":  "قراءة",
	"video": "مشاهدة",
}

// AddGoal creates a goal. One-off goals and daily habits also get a
// self-dev task, written in the same transaction.
func (s *Store) AddGoal(ctx context.Context, g domain.Goal) (*domain.Goal, error) {
	g.ID = newID()
	g.CreatedAt = s.now()
	if g.Kind == "" {
		g.Kind = "book"
	}
	if g.Frequency == "" {
		g.Frequency = domain.FrequencyOnce
	}
	if g.Status == "" {
		g.Status = domain.GoalActive
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin goal: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO goals (id, title, kind, frequency, status, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		g.ID, g.Title, g.Kind, g.Frequency, g.Status, g.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}

	if g.Frequency == domain.FrequencyOnce || g.Frequency == domain.FrequencyDaily {
		prefix, ok := goalTaskPrefix[g.Kind]
		if !ok {
			prefix = "إنجاز"
		}
		task := domain.Task{
			Title:    prefix + ": " + g.Title,
			Date:     g.CreatedAt.Format("2006-01-02"),
			Section:  domain.SectionSelfDev,
			Priority: domain.PriorityMedium,
		}
		if _, err := s.insertTask(ctx, tx, task, &g.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit goal: %w", err)
	}
	return &g, nil
}

// ListGoals returns goals, newest first
func (s *Store) ListGoals(ctx context.Context) ([]domain.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, kind, frequency, status, created_at FROM goals ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []domain.Goal
	for rows.Next() {
		var g domain.Goal
		if err := rows.Scan(&g.ID, &g.Title, &g.Kind, &g.Frequency, &g.Status, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}
