package dialogue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pbaille/masari/internal/domain"
)

var errRejected = errors.New("rejected")

// backend is an in-memory stand-in for the sqlite store.
type backend struct {
	mu           sync.Mutex
	seq          int
	tasks        []domain.Task
	goals        []domain.Goal
	transactions []domain.Transaction
	items        []domain.ShoppingItem
	places       []domain.Place
	utterances   []domain.Utterance
	overview     domain.Overview
	fail         bool
}

func (b *backend) id() string {
	b.seq++
	return fmt.Sprintf("id-%d", b.seq)
}

func (b *backend) AddTask(_ context.Context, t domain.Task) (*domain.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return nil, errRejected
	}
	t.ID = b.id()
	b.tasks = append(b.tasks, t)
	return &t, nil
}

func (b *backend) ListTasks(_ context.Context, _ domain.TaskFilter) ([]domain.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Task(nil), b.tasks...), nil
}

func (b *backend) DeleteTask(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, t := range b.tasks {
		if t.ID == id {
			b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (b *backend) AddGoal(_ context.Context, g domain.Goal) (*domain.Goal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return nil, errRejected
	}
	g.ID = b.id()
	b.goals = append(b.goals, g)
	return &g, nil
}

func (b *backend) AddTransaction(_ context.Context, t domain.Transaction) (*domain.Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return nil, errRejected
	}
	t.ID = b.id()
	b.transactions = append(b.transactions, t)
	return &t, nil
}

func (b *backend) Overview(_ context.Context, _ string) (*domain.Overview, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o := b.overview
	return &o, nil
}

func (b *backend) AddShoppingItem(_ context.Context, item domain.ShoppingItem) (*domain.ShoppingItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return nil, errRejected
	}
	item.ID = b.id()
	b.items = append(b.items, item)
	return &item, nil
}

func (b *backend) ListShoppingItems(_ context.Context, _ bool) ([]domain.ShoppingItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.ShoppingItem(nil), b.items...), nil
}

func (b *backend) DeleteShoppingItem(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, item := range b.items {
		if item.ID == id {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (b *backend) SavePlace(_ context.Context, p domain.Place) (*domain.Place, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p.ID = b.id()
	b.places = append(b.places, p)
	return &p, nil
}

func (b *backend) RecordUtterance(_ context.Context, u domain.Utterance) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.utterances = append(b.utterances, u)
	return nil
}

type answerer struct {
	question, scholar, lang string
	answer                  string
	err                     error
}

func (a *answerer) Answer(_ context.Context, lang, question, scholar string) (string, error) {
	a.lang, a.question, a.scholar = lang, question, scholar
	return a.answer, a.err
}

type locator struct {
	pos domain.Coordinates
	err error
}

func (l locator) Locate(context.Context) (domain.Coordinates, error) {
	return l.pos, l.err
}

type voice struct {
	spoken  []string
	stopped int
}

func (v *voice) Speak(_, text string) { v.spoken = append(v.spoken, text) }
func (v *voice) Stop()                { v.stopped++ }
