package dialogue

import "github.com/pbaille/masari/internal/intent"

// State is where a session stands in the command lifecycle.
type State string

const (
	Idle       State = "idle"
	Listening  State = "listening"
	Processing State = "processing"
	AskingSlot State = "asking_slot"
	Executing  State = "executing"
)

// Field names a slot the controller can ask for.
type Field string

const (
	FieldNone    Field = ""
	FieldContent Field = "content"
	FieldAmount  Field = "amount"
)

// Fields is the slot set collected for a form-based command.
type Fields struct {
	Content  string          `json:"content"`
	Date     string          `json:"date,omitempty"`
	Time     string          `json:"time,omitempty"`
	Amount   *float64        `json:"amount,omitempty"`
	Category intent.Category `json:"category,omitempty"`
	Section  intent.Section  `json:"section,omitempty"`
}

// FormData is the command being filled in.
type FormData struct {
	IntentType   intent.Type `json:"intent_type"`
	Data         Fields      `json:"data"`
	MissingField Field       `json:"missing_field,omitempty"`
	Question     string      `json:"question,omitempty"`
}

// missing returns the first required field that is not filled in.
func (f FormData) missing() Field {
	switch f.IntentType {
	case intent.Task, intent.Appointment, intent.Goal, intent.Shopping:
		if intent.IsPlaceholder(f.IntentType, f.Data.Content) {
			return FieldContent
		}
	case intent.Income, intent.Expense:
		if f.Data.Amount == nil {
			return FieldAmount
		}
	}
	return FieldNone
}

func newForm(in intent.Intent) FormData {
	return FormData{
		IntentType: in.Type,
		Data: Fields{
			Content:  in.Content,
			Date:     in.Date,
			Time:     in.Time,
			Amount:   in.Amount,
			Category: in.Category,
			Section:  in.Section,
		},
	}
}

const historyLimit = 10

// Session is the state of one conversation. It is owned by the caller and
// threaded through every Controller call; the controller keeps none.
type Session struct {
	ID      string    `json:"id"`
	Lang    Lang      `json:"lang"`
	State   State     `json:"state"`
	Pending *FormData `json:"pending,omitempty"`
	// History holds the last utterances, newest first.
	History []string `json:"history,omitempty"`
}

// NewSession returns an idle session.
func NewSession(id string, lang Lang) Session {
	return Session{ID: id, Lang: lang, State: Idle}
}

func (s Session) remember(utterance string) Session {
	history := make([]string, 0, historyLimit)
	history = append(history, utterance)
	for _, h := range s.History {
		if len(history) == historyLimit {
			break
		}
		history = append(history, h)
	}
	s.History = history
	return s
}
