// Package intent turns a free-form Arabic or Spanish utterance into a
// structured command. Extraction is rule based: an ordered pipeline of
// small stages (time, date, amount, action, type, category, section,
// content) where each stage consumes the text it recognised so later
// stages cannot match it again.
package intent

// Type is the kind of command an utterance carries.
type Type string

const (
	Task        Type = "task"
	Appointment Type = "appointment"
	Shopping    Type = "shopping"
	Income      Type = "income"
	Expense     Type = "expense"
	Goal        Type = "goal"
	Question    Type = "question"
	Summary     Type = "summary"
	Location    Type = "location"
	Unknown     Type = "unknown"
)

// Types lists every Type in declaration order.
var Types = []Type{Task, Appointment, Shopping, Income, Expense, Goal, Question, Summary, Location, Unknown}

// Immediate reports whether commands of this type are answered right away
// instead of being collected into a form.
func (t Type) Immediate() bool {
	switch t {
	case Question, Summary, Location, Unknown:
		return true
	}
	return false
}

// Action is what the user wants done with the record.
type Action string

const (
	Add    Action = "add"
	Delete Action = "delete"
)

// Section classifies a task independently of its Type.
type Section string

const (
	SectionNone     Section = ""
	SectionTasks    Section = "tasks"
	SectionHealth   Section = "health"
	SectionWorship  Section = "worship"
	SectionIdea     Section = "idea"
	SectionSelfDev  Section = "self-dev"
	SectionShopping Section = "shopping"
)

// Category labels an expense.
type Category string

const (
	CategoryNone          Category = ""
	CategoryBills         Category = "bills"
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryEntertainment Category = "entertainment"
	CategoryHealth        Category = "health"
	CategoryEducation     Category = "education"
	CategoryOther         Category = "other"
)

// Intent is the structured meaning of one utterance.
type Intent struct {
	Type     Type     `json:"type"`
	Action   Action   `json:"action"`
	Content  string   `json:"content"`
	Date     string   `json:"date,omitempty"` // YYYY-MM-DD
	Time     string   `json:"time,omitempty"` // HH:MM, 24h
	Amount   *float64 `json:"amount,omitempty"`
	Category Category `json:"category,omitempty"`
	Section  Section  `json:"section,omitempty"`
}

// HasSchedule reports whether a date or a time was recognised.
func (in Intent) HasSchedule() bool {
	return in.Date != "" || in.Time != ""
}
