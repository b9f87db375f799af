package api

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/Veraticus/finbuddy/internal/auth"
	"github.com/Veraticus/finbuddy/internal/common"
	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/Veraticus/finbuddy/internal/service"
)

const (
	minAge      = 13
	maxAge      = 120
	minPassword = 6
	minFullName = 2
)

type registerRequest struct {
	Age      *int   `json:"age"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *registerRequest) validate() error {
	verr := &common.ValidationError{}
	if len(strings.TrimSpace(req.FullName)) < minFullName {
		verr.Add("fullName: must be at least %d characters", minFullName)
	}
	if !validEmail(req.Email) {
		verr.Add("email: must be a valid email address")
	}
	if req.Age == nil {
		verr.Add("age: is required")
	} else if *req.Age < minAge || *req.Age > maxAge {
		verr.Add("age: must be between %d and %d", minAge, maxAge)
	}
	if len(req.Password) < minPassword {
		verr.Add("password: must be at least %d characters", minPassword)
	}
	return verr.Err()
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User    *model.User `json:"user"`
	Token   string      `json:"token"`
	Message string      `json:"message"`
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == strings.TrimSpace(email)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}

	user := &model.User{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        req.Email,
		Age:          *req.Age,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, common.ErrDuplicateEntry) {
			writeError(w, http.StatusBadRequest, "User with this email already exists")
			return
		}
		s.writeStoreError(w, r, err, "")
		return
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}

	common.LoggerFrom(r.Context()).Info("Registered user", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, authResponse{User: user, Token: token, Message: "Account created successfully"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	verr := &common.ValidationError{}
	if !validEmail(req.Email) {
		verr.Add("email: must be a valid email address")
	}
	if req.Password == "" {
		verr.Add("password: is required")
	}
	if err := verr.Err(); err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, common.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{User: user, Token: token, Message: "Login successful"})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUserByID(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.writeStoreError(w, r, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

type settingsRequest struct {
	FullName *string `json:"fullName"`
	Age      *int    `json:"age"`
	Currency *string `json:"currency"`
	Timezone *string `json:"timezone"`
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	verr := &common.ValidationError{}
	if req.FullName != nil && len(strings.TrimSpace(*req.FullName)) < minFullName {
		verr.Add("fullName: must be at least %d characters", minFullName)
	}
	if req.Age != nil && (*req.Age < minAge || *req.Age > maxAge) {
		verr.Add("age: must be between %d and %d", minAge, maxAge)
	}
	if err := verr.Err(); err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}

	user, err := s.store.UpdateUser(r.Context(), userIDFrom(r.Context()), service.UserUpdate{
		FullName: req.FullName,
		Age:      req.Age,
		Currency: req.Currency,
		Timezone: req.Timezone,
	})
	if err != nil {
		s.writeStoreError(w, r, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "message": "Settings updated successfully"})
}
