package model

import "strings"

// Intent is the closed set of request kinds the assistant can route.
type Intent string

// Intent constants.
const (
	IntentSpendingSummary Intent = "spending_summary"
	IntentGoalProgress    Intent = "goal_progress"
	IntentSavingsTips     Intent = "savings_tips"
	IntentBudgetStatus    Intent = "budget_status"
	IntentGeneralQuery    Intent = "general_query"
)

// Intents returns every intent in prompt order.
func Intents() []Intent {
	return []Intent{
		IntentSpendingSummary,
		IntentGoalProgress,
		IntentSavingsTips,
		IntentBudgetStatus,
		IntentGeneralQuery,
	}
}

// ParseIntent maps free text from a classifier onto the enumeration.
// Anything it cannot recognize becomes IntentGeneralQuery.
func ParseIntent(raw string) Intent {
	if intent, ok := LookupIntent(raw); ok {
		return intent
	}
	return IntentGeneralQuery
}

// LookupIntent is ParseIntent without the default; ok is false for unrecognized text.
func LookupIntent(raw string) (Intent, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Trim(s, "\"'`.,;:!?*- \t\r\n")
	s = strings.TrimPrefix(s, "intent:")
	s = strings.TrimSpace(strings.Trim(s, "\"'`"))
	s = strings.ReplaceAll(s, " ", "_")

	for _, intent := range Intents() {
		if s == string(intent) {
			return intent, true
		}
	}
	return "", false
}
