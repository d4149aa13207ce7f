package store

import (
	"context"
	"fmt"

	"github.com/pbaille/masari/internal/domain"
)

// SavePlace stores a location
func (s *Store) SavePlace(ctx context.Context, p domain.Place) (*domain.Place, error) {
	p.ID = newID()
	p.SavedAt = s.now()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO places (id, name, category, lat, lng, saved_at) VALUES (?, ?, ?, ?, ?, ?)",
		p.ID, p.Name, p.Category, p.Lat, p.Lng, p.SavedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert place: %w", err)
	}
	return &p, nil
}

// ListPlaces returns saved places, newest first
func (s *Store) ListPlaces(ctx context.Context) ([]domain.Place, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, category, lat, lng, saved_at FROM places ORDER BY saved_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}
	defer rows.Close()

	var places []domain.Place
	for rows.Next() {
		var p domain.Place
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Lat, &p.Lng, &p.SavedAt); err != nil {
			return nil, fmt.Errorf("scan place: %w", err)
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

// RecordUtterance appends a command to the history
func (s *Store) RecordUtterance(ctx context.Context, u domain.Utterance) error {
	u.ID = newID()
	u.CreatedAt = s.now()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO utterances (id, text, lang, intent_type, created_at) VALUES (?, ?, ?, ?, ?)",
		u.ID, u.Text, u.Lang, u.IntentType, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert utterance: %w", err)
	}
	return nil
}

// RecentUtterances returns the last commands, newest first
func (s *Store) RecentUtterances(ctx context.Context, limit int) ([]domain.Utterance, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, text, lang, intent_type, created_at FROM utterances ORDER BY created_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent utterances: %w", err)
	}
	defer rows.Close()

	var out []domain.Utterance
	for rows.Next() {
		var u domain.Utterance
		if err := rows.Scan(&u.ID, &u.Text, &u.Lang, &u.IntentType, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan utterance: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
