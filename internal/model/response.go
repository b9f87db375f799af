package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// PayloadKind tags the variant carried in an Envelope.
type PayloadKind string

// Payload kind constants.
const (
	KindSpendingSummary PayloadKind = "spending_summary"
	KindGoalProgress    PayloadKind = "goal_progress"
	KindSavingsTips     PayloadKind = "savings_tips"
	KindBudgetStatus    PayloadKind = "budget_status"
	KindGeneral         PayloadKind = "general_query"
	KindError           PayloadKind = "error"
)

// Payload is the structured part of an assistant reply.
// Only the variants in this package implement it.
type Payload interface {
	Kind() PayloadKind
	payload()
}

// CategorySpend is one row of a spending breakdown.
type CategorySpend struct {
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	Count      int     `json:"count"`
	Percentage int     `json:"percentage"`
}

// SpendingSummary breaks debit spending down by category.
type SpendingSummary struct {
	Categories       []CategorySpend `json:"categories"`
	TotalSpent       float64         `json:"totalSpent"`
	TransactionCount int             `json:"transactionCount"`
}

// GoalProgressItem reports how far along one active goal is.
type GoalProgressItem struct {
	Deadline      time.Time    `json:"deadline"`
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Priority      GoalPriority `json:"priority"`
	TargetAmount  float64      `json:"targetAmount"`
	CurrentAmount float64      `json:"currentAmount"`
	Remaining     float64      `json:"remaining"`
	Progress      int          `json:"progress"`
}

// GoalProgress lists progress for active goals.
type GoalProgress struct {
	Goals       []GoalProgressItem `json:"goals"`
	ActiveCount int                `json:"activeCount"`
}

// SavingsTips carries advice derived from the biggest spending categories.
type SavingsTips struct {
	Tips          []string        `json:"tips"`
	TopCategories []CategorySpend `json:"topCategories"`
}

// BudgetStatus compares money in against money out.
type BudgetStatus struct {
	TotalDebits           float64 `json:"totalDebits"`
	TotalCredits          float64 `json:"totalCredits"`
	Net                   float64 `json:"net"`
	MonthlyGoalCommitment float64 `json:"monthlyGoalCommitment"`
	SavingsRate           int     `json:"savingsRate"`
}

// GeneralAnswer marks a free-form answer; the text lives in the envelope message.
type GeneralAnswer struct{}

// ErrorPayload marks a degraded reply.
type ErrorPayload struct{}

func (SpendingSummary) Kind() PayloadKind { return KindSpendingSummary }
func (GoalProgress) Kind() PayloadKind    { return KindGoalProgress }
func (SavingsTips) Kind() PayloadKind     { return KindSavingsTips }
func (BudgetStatus) Kind() PayloadKind    { return KindBudgetStatus }
func (GeneralAnswer) Kind() PayloadKind   { return KindGeneral }
func (ErrorPayload) Kind() PayloadKind    { return KindError }

func (SpendingSummary) payload() {}
func (GoalProgress) payload()    {}
func (SavingsTips) payload()     {}
func (BudgetStatus) payload()    {}
func (GeneralAnswer) payload()   {}
func (ErrorPayload) payload()    {}

// Envelope is the reply returned for every conversational query.
type Envelope struct {
	Data        Payload
	Message     string
	Suggestions []string
}

// IsDegraded reports whether the envelope is the fail-soft error reply.
func (e Envelope) IsDegraded() bool {
	return e.Data != nil && e.Data.Kind() == KindError
}

// MarshalJSON flattens the payload and adds its "type" discriminator.
func (e Envelope) MarshalJSON() ([]byte, error) {
	data, err := marshalPayload(e.Data)
	if err != nil {
		return nil, err
	}

	suggestions := e.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}

	return json.Marshal(struct {
		Message     string          `json:"message"`
		Data        json.RawMessage `json:"data"`
		Suggestions []string        `json:"suggestions"`
	}{
		Message:     e.Message,
		Data:        data,
		Suggestions: suggestions,
	})
}

func marshalPayload(p Payload) (json.RawMessage, error) {
	if p == nil {
		return json.RawMessage("null"), nil
	}

	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", p.Kind(), err)
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to flatten %s payload: %w", p.Kind(), err)
	}

	kind, err := json.Marshal(p.Kind())
	if err != nil {
		return nil, err
	}
	fields["type"] = kind

	return json.Marshal(fields)
}
