package domain

import "time"

// Task is a to-do or an appointment. Appointments are tasks in the
// "appointment" section with a date and usually a time.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Date      string    `json:"date"`
	Time      string    `json:"time,omitempty"`
	Section   string    `json:"section"`
	Priority  string    `json:"priority"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	SectionGeneral     = "general"
	SectionAppointment = "appointment"
	SectionSelfDev     = "self-dev"

	PriorityMedium = "medium"
)

// IsAppointment reports whether the task sits in the appointment section.
func (t Task) IsAppointment() bool {
	return t.Section == SectionAppointment
}

// TaskFilter narrows a task listing. Zero values match everything.
type TaskFilter struct {
	Date        string
	Section     string
	PendingOnly bool
}

// Goal is a personal development goal (a book, a course, a habit).
type Goal struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Kind      string    `json:"kind"`
	Frequency string    `json:"frequency"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	FrequencyOnce   = "once"
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"

	GoalActive = "active"
)

// Transaction is one ledger line.
type Transaction struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	KindIncome  = "income"
	KindExpense = "expense"
	KindSavings = "savings"
)

// ShoppingItem is an entry of the shopping list.
type ShoppingItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Purchased bool      `json:"purchased"`
	AddedAt   time.Time `json:"added_at"`
}

// Coordinates is a point on the map.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is a saved location.
type Place struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Coordinates
	SavedAt time.Time `json:"saved_at"`
}

// Utterance is a command as the user said or typed it.
type Utterance struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Lang       string    `json:"lang"`
	IntentType string    `json:"intent_type"`
	CreatedAt  time.Time `json:"created_at"`
}

// Overview aggregates the figures a daily summary reports.
type Overview struct {
	PendingTasks  int     `json:"pending_tasks"`
	TodayTasks    int     `json:"today_tasks"`
	ShoppingItems int     `json:"shopping_items"`
	ActiveGoals   int     `json:"active_goals"`
	Income        float64 `json:"income"`
	Expense       float64 `json:"expense"`
	Savings       float64 `json:"savings"`
	Upcoming      []Task  `json:"upcoming,omitempty"`
}

// Balance is income minus expense minus savings.
func (o Overview) Balance() float64 {
	return o.Income - o.Expense - o.Savings
}
