package intent

import "strings"

// DetectAction scans the whole normalized utterance for a deletion verb.
func DetectAction(lower string) Action {
	if containsAny(lower, deleteKeywords) {
		return Delete
	}
	return Add
}

// Classify picks the Type of a normalized utterance. Keyword tables are
// consulted in a fixed priority order and the first table with a hit
// wins, regardless of where in the utterance the hit is:
//
//	question > summary > location > goal > income > expense > shopping > appointment > task
//
// An explicit record noun (مهمة, تذكير, tarea...) pins the record kind to
// task, or appointment when an appointment word is also present, ahead of
// goal, income, expense and shopping words, which then describe the
// subject ("تذكير شراء حليب" is a reminder about buying milk).
//
// Without any keyword the utterance falls back on its slots: a date or
// time makes it a task (an appointment when it is "with" someone), an
// amount makes it an expense.
func Classify(lower string, hasSchedule, hasAmount bool) Type {
	switch {
	case containsAny(lower, questionKeywords):
		return Question
	case containsAny(lower, summaryKeywords):
		return Summary
	case containsAny(lower, locationKeywords):
		return Location
	case containsAny(lower, recordNouns):
		if containsAny(lower, appointmentKeywords) {
			return Appointment
		}
		return Task
	case containsAny(lower, goalKeywords):
		return Goal
	case containsAny(lower, incomeKeywords):
		return Income
	case containsAny(lower, expenseKeywords):
		return Expense
	case containsAny(lower, shoppingKeywords):
		return Shopping
	case containsAny(lower, appointmentKeywords):
		return Appointment
	case containsAny(lower, taskKeywords):
		return Task
	}

	switch {
	case hasSchedule:
		padded := " " + lower + " "
		if strings.Contains(padded, " مع ") || strings.Contains(padded, " con ") {
			return Appointment
		}
		return Task
	case hasAmount:
		return Expense
	}
	return Unknown
}

// ExpenseCategory labels an expense; CategoryOther when nothing matches.
func ExpenseCategory(lower string) Category {
	for _, rule := range expenseCategories {
		if containsAny(lower, rule.keywords) {
			return rule.category
		}
	}
	return CategoryOther
}

// ExtractSection tags the remaining text with a section, if any.
func ExtractSection(working string) Section {
	for _, rule := range sections {
		if hasToken(working, rule.keywords) {
			return rule.section
		}
	}
	return SectionNone
}
