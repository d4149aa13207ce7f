package intent

import "strings"

// FinalizeContent turns what is left of the utterance into the command's
// subject: date connector words go, then one leading preposition and one
// trailing article.
func FinalizeContent(working string) string {
	var kept []string
	for _, tok := range strings.Fields(working) {
		if connectors[tok] {
			continue
		}
		kept = append(kept, tok)
	}
	if len(kept) > 0 && leadingPrepositions[kept[0]] {
		kept = kept[1:]
	}
	if len(kept) > 0 && trailingArticles[kept[len(kept)-1]] {
		kept = kept[:len(kept)-1]
	}
	return strings.Join(kept, " ")
}

// IsPlaceholder reports whether content is empty or only a generic noun
// for the given type ("مهمة", "cita", ...), which says nothing about the
// record itself.
func IsPlaceholder(t Type, content string) bool {
	content = strings.TrimSpace(Normalize(content))
	if content == "" {
		return true
	}
	if t == Shopping {
		return len(ShoppingItems(content)) == 0
	}
	for _, p := range placeholders[t] {
		if content == p {
			return true
		}
	}
	return false
}

// ShoppingItems strips shopping verbs and list words from content and
// splits the rest into item names: "اشتري حليب و خبز" gives [حليب خبز].
func ShoppingItems(content string) []string {
	s := " " + Normalize(content) + " "
	for _, w := range shoppingNoise {
		s = strings.ReplaceAll(s, " "+w+" ", " ")
	}
	s = strings.NewReplacer("،", ",", " و ", ",", " y ", ",", " and ", ",").Replace(s)

	var items []string
	for _, part := range strings.Split(s, ",") {
		part = FinalizeContent(part)
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}

// ItemCategory guesses the aisle of a shopping item.
func ItemCategory(name string) string {
	for _, rule := range itemCategories {
		if containsAny(name, rule.keywords) {
			return rule.category
		}
	}
	return "general"
}

// GoalKind guesses the kind of a development goal; book when unsure.
func GoalKind(title string) string {
	for _, rule := range goalKinds {
		if hasToken(title, rule.keywords) {
			return rule.category
		}
	}
	return "book"
}

// DeleteSearchTerm is the text to look for when deleting a record: the
// content without deletion verbs and without a leading record noun.
func DeleteSearchTerm(content string) string {
	var kept []string
	for _, tok := range strings.Fields(Normalize(content)) {
		if containsWord(deleteKeywords, tok) {
			continue
		}
		kept = append(kept, tok)
	}
	if len(kept) > 0 && isRecordNoun(kept[0]) {
		kept = kept[1:]
	}
	return FinalizeContent(strings.Join(kept, " "))
}

func isRecordNoun(tok string) bool {
	for _, t := range []Type{Task, Appointment, Goal, Shopping} {
		if containsWord(placeholders[t], tok) {
			return true
		}
	}
	return false
}

func containsWord(words []string, tok string) bool {
	for _, w := range words {
		if w == tok {
			return true
		}
	}
	return false
}

// ScholarHint returns the scholar a question names, if any.
func ScholarHint(text string) string {
	lower := Normalize(text)
	for _, s := range scholars {
		if strings.Contains(lower, s) {
			return s
		}
	}
	return ""
}
