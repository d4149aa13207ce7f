// Package dialogue drives multi-turn commands: it runs the intent
// extractor on a new utterance, asks for a missing slot when a command is
// incomplete, and dispatches complete commands to the stores.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pbaille/masari/internal/domain"
	"github.com/pbaille/masari/internal/intent"
)

// ErrBusy is reported when a turn arrives while the session is still
// processing or executing the previous one.
var ErrBusy = errors.New("session busy")

// TaskStore keeps tasks and appointments.
type TaskStore interface {
	AddTask(ctx context.Context, t domain.Task) (*domain.Task, error)
	ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// GoalStore keeps development goals.
type GoalStore interface {
	AddGoal(ctx context.Context, g domain.Goal) (*domain.Goal, error)
}

// Ledger keeps income and expenses.
type Ledger interface {
	AddTransaction(ctx context.Context, t domain.Transaction) (*domain.Transaction, error)
	Overview(ctx context.Context, today string) (*domain.Overview, error)
}

// ShoppingList keeps the items to buy.
type ShoppingList interface {
	AddShoppingItem(ctx context.Context, item domain.ShoppingItem) (*domain.ShoppingItem, error)
	ListShoppingItems(ctx context.Context, includePurchased bool) ([]domain.ShoppingItem, error)
	DeleteShoppingItem(ctx context.Context, id string) error
}

// Places keeps saved locations.
type Places interface {
	SavePlace(ctx context.Context, p domain.Place) (*domain.Place, error)
}

// Journal records every utterance received.
type Journal interface {
	RecordUtterance(ctx context.Context, u domain.Utterance) error
}

// Answerer answers free-form religious or general questions.
type Answerer interface {
	Answer(ctx context.Context, lang, question, scholar string) (string, error)
}

// Locator reports where the user currently is.
type Locator interface {
	Locate(ctx context.Context) (domain.Coordinates, error)
}

// Voice speaks replies. A new Speak preempts the one in flight.
type Voice interface {
	Speak(lang, text string)
	Stop()
}

// Deps are the collaborators of a Controller. Journal, Answerer, Locator
// and Voice may be nil.
type Deps struct {
	Tasks    TaskStore
	Goals    GoalStore
	Ledger   Ledger
	Shopping ShoppingList
	Places   Places
	Journal  Journal
	Answerer Answerer
	Locator  Locator
	Voice    Voice
	Logger   *zap.Logger
	Now      func() time.Time

	// PlaceName names saved positions; empty uses the reply language's.
	PlaceName string
}

// Reply is what one turn produces for the user.
type Reply struct {
	Text        string         `json:"text"`
	Speech      string         `json:"speech"`
	Answer      string         `json:"answer,omitempty"`
	Intent      *intent.Intent `json:"intent,omitempty"`
	State       State          `json:"state"`
	Transitions []State        `json:"transitions"`
	Question    string         `json:"question,omitempty"`
	// Err is a collaborator failure, already turned into Text. It is
	// there for logging only.
	Err error `json:"-"`
}

// Controller is stateless; all conversation state lives in Session.
type Controller struct {
	deps Deps
	log  *zap.Logger
	now  func() time.Time
}

// New creates a Controller.
func New(deps Deps) *Controller {
	c := &Controller{deps: deps, log: deps.Logger, now: deps.Now}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Listen opens a listening session. A session waiting for a slot keeps
// waiting.
func (c *Controller) Listen(s Session) Session {
	if s.State == Idle {
		c.setState(&s, nil, Listening)
	}
	return s
}

// Reset closes the session: speech stops, the pending form is dropped.
func (c *Controller) Reset(s Session) Session {
	if c.deps.Voice != nil {
		c.deps.Voice.Stop()
	}
	s.Pending = nil
	c.setState(&s, nil, Idle)
	return s
}

// Turn handles one utterance and returns the updated session.
func (c *Controller) Turn(ctx context.Context, s Session, utterance string) (Session, Reply) {
	var r Reply
	text := strings.TrimSpace(utterance)

	switch {
	case s.State == Processing || s.State == Executing:
		r.Err = ErrBusy
		r.State = s.State
		return s, r
	case text == "":
		r.State = s.State
		return s, r
	}

	s = s.remember(text)

	if s.State == AskingSlot && s.Pending != nil {
		form := c.fillSlot(*s.Pending, text)
		c.journal(ctx, s, text, form.IntentType)
		return c.advance(ctx, s, form, r)
	}

	c.setState(&s, &r, Processing)
	in := intent.Extract(text, c.now())
	r.Intent = &in
	c.log.Debug("intent extracted",
		zap.String("session", s.ID),
		zap.String("type", string(in.Type)),
		zap.String("action", string(in.Action)),
		zap.String("content", in.Content),
		zap.String("date", in.Date),
		zap.String("time", in.Time))
	c.journal(ctx, s, text, in.Type)

	if in.Action == intent.Delete || in.Type.Immediate() {
		c.immediate(ctx, s.Lang, text, in, &r)
		s.Pending = nil
		c.setState(&s, &r, Idle)
		return s, c.finish(s, r)
	}

	return c.advance(ctx, s, newForm(in), r)
}

// fillSlot applies a reply to the field being asked for. The reply is
// not run through the extractor.
func (c *Controller) fillSlot(form FormData, reply string) FormData {
	switch form.MissingField {
	case FieldAmount:
		if v, ok := intent.ParseAmount(reply); ok {
			form.Data.Amount = &v
		}
	case FieldContent:
		form.Data.Content = reply
	}
	form.MissingField = FieldNone
	form.Question = ""
	return form
}

// advance asks for the next missing field or executes the form.
func (c *Controller) advance(ctx context.Context, s Session, form FormData, r Reply) (Session, Reply) {
	m := s.Lang.msg()
	if missing := form.missing(); missing != FieldNone {
		form.MissingField = missing
		form.Question = m.question(form)
		s.Pending = &form
		c.setState(&s, &r, AskingSlot)
		r.Question = form.Question
		r.Text = form.Question
		return s, c.finish(s, r)
	}

	c.setState(&s, &r, Executing)
	text, err := c.execute(ctx, s.Lang, form)
	if err != nil {
		c.log.Warn("dispatch failed",
			zap.String("session", s.ID),
			zap.String("type", string(form.IntentType)),
			zap.Error(err))
		text = m.executeFailed
		r.Err = err
	}
	r.Text = text
	s.Pending = nil
	c.setState(&s, &r, Idle)
	return s, c.finish(s, r)
}

func (c *Controller) finish(s Session, r Reply) Reply {
	r.State = s.State
	r.Speech = spoken(r.Text)
	if r.Answer != "" {
		r.Speech = r.Answer
	}
	if c.deps.Voice != nil && r.Speech != "" {
		c.deps.Voice.Speak(string(s.Lang), r.Speech)
	}
	return r
}

func (c *Controller) setState(s *Session, r *Reply, next State) {
	if s.State == next {
		return
	}
	c.log.Debug("state transition",
		zap.String("session", s.ID),
		zap.String("from", string(s.State)),
		zap.String("to", string(next)))
	s.State = next
	if r != nil {
		r.Transitions = append(r.Transitions, next)
	}
}

func (c *Controller) journal(ctx context.Context, s Session, text string, t intent.Type) {
	if c.deps.Journal == nil {
		return
	}
	err := c.deps.Journal.RecordUtterance(ctx, domain.Utterance{
		Text:       text,
		Lang:       string(s.Lang),
		IntentType: string(t),
	})
	if err != nil {
		c.log.Warn("record utterance", zap.String("session", s.ID), zap.Error(err))
	}
}

func (c *Controller) today() string {
	return intent.Today(c.now())
}

// execute dispatches a complete form and returns the confirmation.
func (c *Controller) execute(ctx context.Context, lang Lang, form FormData) (string, error) {
	m := lang.msg()
	d := form.Data
	date := d.Date
	if date == "" {
		date = c.today()
	}

	switch form.IntentType {
	case intent.Task:
		section := string(d.Section)
		if section == "" {
			section = domain.SectionGeneral
		}
		_, err := c.deps.Tasks.AddTask(ctx, domain.Task{
			Title:    d.Content,
			Date:     date,
			Time:     d.Time,
			Section:  section,
			Priority: domain.PriorityMedium,
		})
		if err != nil {
			return "", fmt.Errorf("add task: %w", err)
		}
		parts := []string{m.taskAdded}
		if d.Date != "" {
			parts = append(parts, fmt.Sprintf(m.onDay, m.weekday(d.Date)))
		}
		if d.Section != intent.SectionNone {
			parts = append(parts, fmt.Sprintf(m.inSection, d.Section))
		}
		return strings.Join(parts, " "), nil

	case intent.Appointment:
		_, err := c.deps.Tasks.AddTask(ctx, domain.Task{
			Title:    d.Content,
			Date:     date,
			Time:     d.Time,
			Section:  domain.SectionAppointment,
			Priority: domain.PriorityMedium,
		})
		if err != nil {
			return "", fmt.Errorf("add appointment: %w", err)
		}
		if d.Time != "" {
			return m.appointmentAdded + " " + fmt.Sprintf(m.atTime, d.Time), nil
		}
		return m.appointmentAdded, nil

	case intent.Goal:
		_, err := c.deps.Goals.AddGoal(ctx, domain.Goal{
			Title:     d.Content,
			Kind:      intent.GoalKind(d.Content),
			Frequency: domain.FrequencyOnce,
			Status:    domain.GoalActive,
		})
		if err != nil {
			return "", fmt.Errorf("add goal: %w", err)
		}
		return m.goalAdded, nil

	case intent.Shopping:
		items := intent.ShoppingItems(d.Content)
		for _, name := range items {
			_, err := c.deps.Shopping.AddShoppingItem(ctx, domain.ShoppingItem{
				Name:     name,
				Category: intent.ItemCategory(name),
			})
			if err != nil {
				return "", fmt.Errorf("add shopping item: %w", err)
			}
		}
		return fmt.Sprintf(m.shoppingAdded, strings.Join(items, m.listSep)), nil

	case intent.Income, intent.Expense:
		tx := domain.Transaction{
			Kind:        domain.KindIncome,
			Amount:      *d.Amount,
			Description: d.Content,
			Date:        date,
		}
		confirm := m.incomeAdded
		if form.IntentType == intent.Expense {
			tx.Kind = domain.KindExpense
			tx.Category = string(d.Category)
			if tx.Category == "" {
				tx.Category = string(intent.CategoryOther)
			}
			confirm = m.expenseAdded
		}
		if _, err := c.deps.Ledger.AddTransaction(ctx, tx); err != nil {
			return "", fmt.Errorf("add %s: %w", tx.Kind, err)
		}
		return fmt.Sprintf(confirm, formatAmount(tx.Amount)), nil
	}
	return "", fmt.Errorf("no dispatcher for %s", form.IntentType)
}

// immediate handles commands that never enter slot filling. Questions go
// out whole: a weekday or an hour in a question is part of what is asked.
func (c *Controller) immediate(ctx context.Context, lang Lang, text string, in intent.Intent, r *Reply) {
	m := lang.msg()
	if in.Action == intent.Delete {
		r.Text, r.Err = c.deleteRecord(ctx, m, in)
		return
	}

	switch in.Type {
	case intent.Question:
		if c.deps.Answerer == nil {
			r.Text, r.Err = m.answerFailed, errors.New("no answerer configured")
			return
		}
		question := intent.Normalize(text)
		answer, err := c.deps.Answerer.Answer(ctx, string(lang), question, intent.ScholarHint(question))
		if err != nil {
			c.log.Warn("answer question", zap.Error(err))
			r.Text, r.Err = m.answerFailed, err
			return
		}
		r.Text, r.Answer = m.answerFound, answer

	case intent.Summary:
		o, err := c.deps.Ledger.Overview(ctx, c.today())
		if err != nil {
			c.log.Warn("overview", zap.Error(err))
			r.Text, r.Err = m.executeFailed, err
			return
		}
		r.Text = m.summaryText(*o)

	case intent.Location:
		r.Text, r.Err = c.saveLocation(ctx, m)

	default:
		r.Text = m.notUnderstood
	}
}

func (c *Controller) saveLocation(ctx context.Context, m messages) (string, error) {
	if c.deps.Locator == nil {
		return m.locateFailed, errors.New("no locator configured")
	}
	pos, err := c.deps.Locator.Locate(ctx)
	if err != nil {
		c.log.Warn("locate", zap.Error(err))
		return m.locateFailed, err
	}
	name := c.deps.PlaceName
	if name == "" {
		name = m.myLocation
	}
	_, err = c.deps.Places.SavePlace(ctx, domain.Place{
		Name:        name,
		Category:    "saved",
		Coordinates: pos,
	})
	if err != nil {
		c.log.Warn("save place", zap.Error(err))
		return m.executeFailed, fmt.Errorf("save place: %w", err)
	}
	return fmt.Sprintf(m.locationSaved, formatCoord(pos.Lat), formatCoord(pos.Lng)), nil
}

func formatCoord(v float64) string {
	return fmt.Sprintf("%.5f", v)
}

// deleteRecord removes the first record whose title contains the search
// term. Tasks are searched for task and appointment commands, the
// shopping list for shopping commands, both when the type is unknown.
func (c *Controller) deleteRecord(ctx context.Context, m messages, in intent.Intent) (string, error) {
	term := intent.DeleteSearchTerm(in.Content)
	if term == "" {
		return fmt.Sprintf(m.notFound, term), nil
	}

	if in.Type == intent.Task || in.Type == intent.Appointment || in.Type == intent.Unknown {
		tasks, err := c.deps.Tasks.ListTasks(ctx, domain.TaskFilter{})
		if err != nil {
			return m.executeFailed, fmt.Errorf("list tasks: %w", err)
		}
		for _, t := range tasks {
			if !strings.Contains(intent.Normalize(t.Title), term) {
				continue
			}
			if err := c.deps.Tasks.DeleteTask(ctx, t.ID); err != nil {
				return m.executeFailed, fmt.Errorf("delete task: %w", err)
			}
			return fmt.Sprintf(m.deleted, t.Title), nil
		}
	}

	if in.Type == intent.Shopping || in.Type == intent.Unknown {
		items, err := c.deps.Shopping.ListShoppingItems(ctx, true)
		if err != nil {
			return m.executeFailed, fmt.Errorf("list shopping items: %w", err)
		}
		for _, item := range items {
			if !strings.Contains(intent.Normalize(item.Name), term) {
				continue
			}
			if err := c.deps.Shopping.DeleteShoppingItem(ctx, item.ID); err != nil {
				return m.executeFailed, fmt.Errorf("delete shopping item: %w", err)
			}
			return fmt.Sprintf(m.deleted, item.Name), nil
		}
	}

	return fmt.Sprintf(m.notFound, term), nil
}
