package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Veraticus/finbuddy/internal/common"
	"github.com/Veraticus/finbuddy/internal/csvimport"
	"github.com/Veraticus/finbuddy/internal/engine"
	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/Veraticus/finbuddy/internal/service"
)

const msgTransactionNotFound = "Transaction not found"

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := service.TransactionFilter{
		UserID:   userIDFrom(r.Context()),
		Category: q.Get("category"),
		Type:     model.TransactionType(q.Get("type")),
		Limit:    service.DefaultTransactionLimit,
	}

	verr := &common.ValidationError{}
	if filter.Type != "" && !filter.Type.Valid() {
		verr.Add("type: must be debit or credit")
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			verr.Add("limit: must be a positive integer")
		}
		filter.Limit = limit
	}
	if err := verr.Err(); err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}

	txns, err := s.store.GetTransactions(r.Context(), filter)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	if txns == nil {
		txns = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txns})
}

type createTransactionRequest struct {
	Amount      *float64 `json:"amount"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Category    string   `json:"category"`
}

func (req *createTransactionRequest) toTransaction(userID string) (model.Transaction, error) {
	verr := &common.ValidationError{}
	date, err := parseDate(req.Date)
	if err != nil {
		verr.Add("date: %v", err)
	}
	if strings.TrimSpace(req.Description) == "" {
		verr.Add("description: Description is required")
	}
	if req.Amount == nil || *req.Amount <= 0 {
		verr.Add("amount: Amount must be positive")
	}
	txnType := model.TransactionType(req.Type)
	if !txnType.Valid() {
		verr.Add("type: must be debit or credit")
	}
	if err := verr.Err(); err != nil {
		return model.Transaction{}, err
	}

	return model.Transaction{
		UserID:      userID,
		Date:        date,
		Description: strings.TrimSpace(req.Description),
		Amount:      *req.Amount,
		Type:        txnType,
		Category:    strings.TrimSpace(req.Category),
		Status:      model.StatusCategorized,
	}, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	txn, err := req.toTransaction(userIDFrom(r.Context()))
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}

	if txn.Category == "" {
		result := s.categorizer.Categorize(r.Context(), txn.Description)
		txn.Category = result.Category
		common.LoggerFrom(r.Context()).Debug("Categorized new transaction",
			"category", result.Category,
			"confidence", result.Confidence,
			"source", result.Source)
	}

	rows := []model.Transaction{txn}
	if _, err := s.store.SaveTransactions(r.Context(), rows); err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"transaction": rows[0],
		"message":     "Transaction created successfully",
	})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := s.store.GetTransaction(r.Context(), userIDFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, r, err, msgTransactionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transaction": txn})
}

type updateTransactionRequest struct {
	Date        *string  `json:"date"`
	Description *string  `json:"description"`
	Amount      *float64 `json:"amount"`
	Category    *string  `json:"category"`
	Type        *string  `json:"type"`
}

func (req *updateTransactionRequest) toUpdate() (service.TransactionUpdate, error) {
	var update service.TransactionUpdate
	verr := &common.ValidationError{}

	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			verr.Add("date: %v", err)
		}
		update.Date = &date
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			verr.Add("description: must not be empty")
		}
		update.Description = req.Description
	}
	if req.Amount != nil {
		if *req.Amount <= 0 {
			verr.Add("amount: must be positive")
		}
		update.Amount = req.Amount
	}
	if req.Category != nil {
		update.Category = req.Category
	}
	if req.Type != nil {
		t := model.TransactionType(*req.Type)
		if !t.Valid() {
			verr.Add("type: must be debit or credit")
		}
		update.Type = &t
	}
	return update, verr.Err()
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req updateTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	update, err := req.toUpdate()
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}

	txn, err := s.store.UpdateTransaction(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), update)
	if err != nil {
		s.writeStoreError(w, r, err, msgTransactionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transaction": txn,
		"message":     "Transaction updated successfully",
	})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTransaction(r.Context(), userIDFrom(r.Context()), r.PathValue("id")); err != nil {
		s.writeStoreError(w, r, err, msgTransactionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Transaction deleted successfully"})
}

// handleUpload imports a CSV statement and categorizes the rows it stored.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				"File too large, the limit is "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return
		}
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		writeError(w, http.StatusBadRequest, "Only CSV files are allowed")
		return
	}

	userID := userIDFrom(r.Context())
	result, err := s.importer.Parse(userID, file)
	switch {
	case errors.Is(err, csvimport.ErrNoTransactions):
		writeError(w, http.StatusBadRequest, "No valid transactions found in CSV")
		return
	case errors.Is(err, csvimport.ErrInvalidFormat):
		writeError(w, http.StatusBadRequest, "Invalid CSV format", err.Error())
		return
	case err != nil:
		s.writeStoreError(w, r, err, "")
		return
	}

	count, err := s.store.SaveTransactions(r.Context(), result.Transactions)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}

	categorized := 0
	if count > 0 {
		summary, err := s.engine.Categorize(r.Context(), result.Transactions, engine.Options{})
		if err != nil {
			common.LoggerFrom(r.Context()).Warn("Categorization after upload failed", "error", err)
		}
		if summary != nil {
			categorized = summary.Categorized
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Successfully uploaded and categorized " + strconv.Itoa(count) + " transactions",
		"count":       count,
		"duplicates":  len(result.Transactions) - count,
		"skipped":     result.Skipped,
		"categorized": categorized,
	})
}
