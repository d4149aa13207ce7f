package store

import (
	"context"
	"fmt"

	"github.com/pbaille/masari/internal/domain"
)

// AddShoppingItem puts an item on the list
func (s *Store) AddShoppingItem(ctx context.Context, item domain.ShoppingItem) (*domain.ShoppingItem, error) {
	item.ID = newID()
	item.AddedAt = s.now()
	if item.Category == "" {
		item.Category = "general"
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO shopping_items (id, name, category, purchased, added_at) VALUES (?, ?, ?, ?, ?)",
		item.ID, item.Name, item.Category, item.Purchased, item.AddedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert shopping item: %w", err)
	}
	return &item, nil
}

// ListShoppingItems returns the list in insertion order
func (s *Store) ListShoppingItems(ctx context.Context, includePurchased bool) ([]domain.ShoppingItem, error) {
	query := "SELECT id, name, category, purchased, added_at FROM shopping_items"
	if !includePurchased {
		query += " WHERE purchased = 0"
	}
	query += " ORDER BY added_at, rowid"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list shopping items: %w", err)
	}
	defer rows.Close()

	var items []domain.ShoppingItem
	for rows.Next() {
		var i domain.ShoppingItem
		if err := rows.Scan(&i.ID, &i.Name, &i.Category, &i.Purchased, &i.AddedAt); err != nil {
			return nil, fmt.Errorf("scan shopping item: %w", err)
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// MarkPurchased ticks an item off the list
func (s *Store) MarkPurchased(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE shopping_items SET purchased = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark purchased: %w", err)
	}
	return checkAffected(res, "mark purchased")
}

// DeleteShoppingItem removes an item
func (s *Store) DeleteShoppingItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM shopping_items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete shopping item: %w", err)
	}
	return checkAffected(res, "delete shopping item")
}
