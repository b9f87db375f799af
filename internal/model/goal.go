package model

import "time"

// GoalStatus is the lifecycle state of a savings goal.
type GoalStatus string

// Goal status constants.
const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalPaused    GoalStatus = "paused"
)

// Valid reports whether s is a known goal status.
func (s GoalStatus) Valid() bool {
	switch s {
	case GoalActive, GoalCompleted, GoalPaused:
		return true
	}
	return false
}

// GoalPriority ranks goals against each other.
type GoalPriority string

// Goal priority constants.
const (
	PriorityHigh   GoalPriority = "high"
	PriorityMedium GoalPriority = "medium"
	PriorityLow    GoalPriority = "low"
)

// Valid reports whether p is a known priority.
func (p GoalPriority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Goal is a user-defined savings target.
type Goal struct {
	Deadline            time.Time    `json:"deadline"`
	CreatedAt           time.Time    `json:"createdAt"`
	ID                  string       `json:"id"`
	UserID              string       `json:"userId"`
	Name                string       `json:"name"`
	Description         string       `json:"description"`
	Category            string       `json:"category"`
	Priority            GoalPriority `json:"priority"`
	Status              GoalStatus   `json:"status"`
	TargetAmount        float64      `json:"targetAmount"`
	CurrentAmount       float64      `json:"currentAmount"`
	MonthlyContribution float64      `json:"monthlyContribution"`
}

// IsActive reports whether the goal is still being worked towards.
func (g *Goal) IsActive() bool {
	return g.Status == GoalActive
}
