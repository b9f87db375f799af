// Package csvimport reads bank statement exports in CSV form.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/finbuddy/internal/model"
)

// Source tags rows imported from CSV uploads.
const Source = "csv"

var (
	// ErrInvalidFormat is returned when the file is not well-formed CSV.
	ErrInvalidFormat = errors.New("invalid CSV format")
	// ErrNoTransactions is returned when no row survives validation.
	ErrNoTransactions = errors.New("no valid transactions found in CSV")
)

// dateLayouts are tried in order. Slash dates are month first.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"02-Jan-2006",
}

// Importer turns CSV rows into pending transactions.
type Importer struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewImporter creates an importer.
func NewImporter(logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{logger: logger, now: time.Now}
}

// Result reports what a parse kept and dropped.
type Result struct {
	Transactions []model.Transaction
	Skipped      int
}

// Parse reads a header row followed by data rows. The date, description, and amount
// columns are found by name, ignoring case; other columns are ignored. Rows with an
// empty description, a zero or unparseable amount, or an unparseable date are skipped.
// Each row carries a hash so re-uploading a file does not duplicate it.
func (im *Importer) Parse(userID string, r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoTransactions
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	cols := indexColumns(header)

	createdAt := im.now().UTC()
	result := &Result{}
	seen := make(map[string]int)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
		}
		line++

		if isBlank(record) {
			continue
		}

		txn, reason := parseRow(cols, record)
		if reason != "" {
			im.logger.Debug("Skipping CSV row", "line", line, "reason", reason)
			result.Skipped++
			continue
		}
		txn.UserID = userID
		txn.CreatedAt = createdAt
		base := txn.GenerateHash()
		txn.Hash = txn.OccurrenceHash(seen[base])
		seen[base]++
		result.Transactions = append(result.Transactions, txn)
	}

	if len(result.Transactions) == 0 {
		return nil, ErrNoTransactions
	}

	im.logger.Info("Parsed CSV",
		"user_id", userID,
		"transactions", len(result.Transactions),
		"skipped", result.Skipped)
	return result, nil
}

type columns struct {
	date, description, amount int
}

func indexColumns(header []string) columns {
	cols := columns{date: -1, description: -1, amount: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "date":
			cols.date = i
		case "description":
			cols.description = i
		case "amount":
			cols.amount = i
		}
	}
	return cols
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseRow(cols columns, record []string) (model.Transaction, string) {
	description := field(record, cols.description)
	if description == "" {
		return model.Transaction{}, "missing description"
	}

	amount, err := parseAmount(field(record, cols.amount))
	if err != nil || amount == 0 {
		return model.Transaction{}, "missing or zero amount"
	}

	date, err := parseDate(field(record, cols.date))
	if err != nil {
		return model.Transaction{}, "unparseable date"
	}

	txnType := model.TypeCredit
	if amount < 0 {
		txnType = model.TypeDebit
		amount = -amount
	}

	return model.Transaction{
		Date:        date,
		Description: description,
		Amount:      amount,
		Type:        txnType,
		Category:    model.CategoryOther,
		Status:      model.StatusPending,
		Source:      Source,
	}, ""
}

// parseAmount accepts plain numbers with optional rupee sign and digit grouping.
func parseAmount(raw string) (float64, error) {
	cleaned := strings.NewReplacer("₹", "", "Rs.", "", "Rs", "", "INR", "", ",", "", " ", "").Replace(raw)
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("amount %q is not finite", raw)
	}
	return amount, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
