package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pbaille/masari/internal/domain"
)

//go:embed schema.sql
var schema string

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Store handles database operations
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (and creates if needed) the database at dbPath
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func newID() string {
	return uuid.New().String()
}

// checkAffected turns a zero-row update or delete into ErrNotFound.
func checkAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

// AddTask creates a task and returns it with its id
func (s *Store) AddTask(ctx context.Context, t domain.Task) (*domain.Task, error) {
	return s.insertTask(ctx, s.db, t, nil)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insertTask(ctx context.Context, db execer, t domain.Task, goalID *string) (*domain.Task, error) {
	t.ID = newID()
	t.CreatedAt = s.now()
	if t.Section == "" {
		t.Section = domain.SectionGeneral
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO tasks (id, title, date, time, section, priority, completed, goal_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Date, t.Time, t.Section, t.Priority, t.Completed, goalID, t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return &t, nil
}

// ListTasks returns tasks ordered by date and time
func (s *Store) ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.Task, error) {
	query := "SELECT id, title, date, time, section, priority, completed, created_at FROM tasks WHERE 1=1"
	var args []any
	if f.Date != "" {
		query += " AND date = ?"
		args = append(args, f.Date)
	}
	if f.Section != "" {
		query += " AND section = ?"
		args = append(args, f.Section)
	}
	if f.PendingOnly {
		query += " AND completed = 0"
	}
	query += " ORDER BY date, time, created_at"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func scanTasks(rows *sql.Rows) ([]domain.Task, error) {
	var tasks []domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Date, &t.Time, &t.Section, &t.Priority, &t.Completed, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// UpcomingAppointments returns the next pending appointments from today on
func (s *Store) UpcomingAppointments(ctx context.Context, today string, limit int) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, date, time, section, priority, completed, created_at
		 FROM tasks
		 WHERE section = ? AND completed = 0 AND date >= ?
		 ORDER BY date, time
		 LIMIT ?`,
		domain.SectionAppointment, today, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("upcoming appointments: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// CompleteTask marks a task as done
func (s *Store) CompleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE tasks SET completed = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return checkAffected(res, "complete task")
}

// DeleteTask removes a task
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return checkAffected(res, "delete task")
}
