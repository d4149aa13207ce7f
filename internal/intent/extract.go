package intent

import "time"

// Extract runs the full pipeline over utterance. ref is "now" for relative
// dates. Extract never fails: unrecognised input yields Type Unknown with
// whatever slots could be read.
func Extract(utterance string, ref time.Time) Intent {
	lower := Normalize(utterance)
	working := lower

	var in Intent
	in.Time, working = ExtractTime(working)
	in.Date, working = ExtractDate(working, ref)

	amount := ExtractAmount(working)
	if amount.Found {
		v := amount.Value
		in.Amount = &v
		if amount.Currency {
			working = amount.Strip(working)
		}
	}

	in.Action = DetectAction(lower)
	in.Type = Classify(lower, in.HasSchedule(), in.Amount != nil)
	if in.Type == Expense {
		in.Category = ExpenseCategory(lower)
	}

	// A bare number only leaves the text once it is known to be money.
	if (in.Type == Expense || in.Type == Income) && amount.Found && !amount.Currency {
		working = removeNumber(working, amount.Value)
	}

	in.Section = ExtractSection(working)
	in.Content = FinalizeContent(working)
	return in
}
