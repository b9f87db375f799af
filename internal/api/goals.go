package api

import (
	"net/http"
	"strings"

	"github.com/Veraticus/finbuddy/internal/common"
	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/Veraticus/finbuddy/internal/service"
)

const msgGoalNotFound = "Goal not found"

type createGoalRequest struct {
	TargetAmount        *float64 `json:"targetAmount"`
	CurrentAmount       *float64 `json:"currentAmount"`
	MonthlyContribution *float64 `json:"monthlyContribution"`
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	Deadline            string   `json:"deadline"`
	Category            string   `json:"category"`
	Priority            string   `json:"priority"`
}

func (req *createGoalRequest) toGoal(userID string) (*model.Goal, error) {
	verr := &common.ValidationError{}
	if strings.TrimSpace(req.Name) == "" {
		verr.Add("name: Goal name is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		verr.Add("description: Description is required")
	}
	if req.TargetAmount == nil || *req.TargetAmount <= 0 {
		verr.Add("targetAmount: Target amount must be positive")
	}
	current := 0.0
	if req.CurrentAmount != nil {
		current = *req.CurrentAmount
		if current < 0 {
			verr.Add("currentAmount: Current amount cannot be negative")
		}
	}
	deadline, err := parseDate(req.Deadline)
	if err != nil {
		verr.Add("deadline: %v", err)
	}
	if strings.TrimSpace(req.Category) == "" {
		verr.Add("category: Category is required")
	}
	priority := model.GoalPriority(req.Priority)
	if !priority.Valid() {
		verr.Add("priority: must be high, medium, or low")
	}
	if req.MonthlyContribution == nil || *req.MonthlyContribution <= 0 {
		verr.Add("monthlyContribution: Monthly contribution must be positive")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	return &model.Goal{
		UserID:              userID,
		Name:                strings.TrimSpace(req.Name),
		Description:         strings.TrimSpace(req.Description),
		TargetAmount:        *req.TargetAmount,
		CurrentAmount:       current,
		Deadline:            deadline,
		Category:            strings.TrimSpace(req.Category),
		Priority:            priority,
		Status:              model.GoalActive,
		MonthlyContribution: *req.MonthlyContribution,
	}, nil
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.store.GetGoals(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	if goals == nil {
		goals = []model.Goal{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": goals})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	goal, err := req.toGoal(userIDFrom(r.Context()))
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	if err := s.store.CreateGoal(r.Context(), goal); err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"goal": goal, "message": "Goal created successfully"})
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := s.store.GetGoal(r.Context(), userIDFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, r, err, msgGoalNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"goal": goal})
}

type updateGoalRequest struct {
	Name                *string  `json:"name"`
	Description         *string  `json:"description"`
	TargetAmount        *float64 `json:"targetAmount"`
	CurrentAmount       *float64 `json:"currentAmount"`
	Deadline            *string  `json:"deadline"`
	Category            *string  `json:"category"`
	Priority            *string  `json:"priority"`
	Status              *string  `json:"status"`
	MonthlyContribution *float64 `json:"monthlyContribution"`
}

func (req *updateGoalRequest) toUpdate() (service.GoalUpdate, error) {
	update := service.GoalUpdate{
		Name:                req.Name,
		Description:         req.Description,
		TargetAmount:        req.TargetAmount,
		CurrentAmount:       req.CurrentAmount,
		Category:            req.Category,
		MonthlyContribution: req.MonthlyContribution,
	}
	verr := &common.ValidationError{}

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		verr.Add("name: must not be empty")
	}
	if req.Description != nil && strings.TrimSpace(*req.Description) == "" {
		verr.Add("description: must not be empty")
	}
	if req.Category != nil && strings.TrimSpace(*req.Category) == "" {
		verr.Add("category: must not be empty")
	}
	if req.TargetAmount != nil && *req.TargetAmount <= 0 {
		verr.Add("targetAmount: must be positive")
	}
	if req.CurrentAmount != nil && *req.CurrentAmount < 0 {
		verr.Add("currentAmount: cannot be negative")
	}
	if req.MonthlyContribution != nil && *req.MonthlyContribution <= 0 {
		verr.Add("monthlyContribution: must be positive")
	}
	if req.Deadline != nil {
		deadline, err := parseDate(*req.Deadline)
		if err != nil {
			verr.Add("deadline: %v", err)
		}
		update.Deadline = &deadline
	}
	if req.Priority != nil {
		p := model.GoalPriority(*req.Priority)
		if !p.Valid() {
			verr.Add("priority: must be high, medium, or low")
		}
		update.Priority = &p
	}
	if req.Status != nil {
		st := model.GoalStatus(*req.Status)
		if !st.Valid() {
			verr.Add("status: must be active, completed, or paused")
		}
		update.Status = &st
	}
	return update, verr.Err()
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req updateGoalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	update, err := req.toUpdate()
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	goal, err := s.store.UpdateGoal(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), update)
	if err != nil {
		s.writeStoreError(w, r, err, msgGoalNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"goal": goal, "message": "Goal updated successfully"})
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteGoal(r.Context(), userIDFrom(r.Context()), r.PathValue("id")); err != nil {
		s.writeStoreError(w, r, err, msgGoalNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Goal deleted successfully"})
}
