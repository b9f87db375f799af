// Package ofx imports OFX and QFX bank statements.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/aclindsa/ofxgo"
)

// Source labels transactions imported by this package.
const Source = "ofx"

var (
	severityPattern = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	unclosedTag     = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

var descriptionPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"UPI/",
	"NEFT/",
	"IMPS/",
}

// Parser converts OFX statements into pending transactions.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new OFX parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse reads one OFX document and returns its transactions owned by userID.
// Rows carry a hash derived from the bank's FITID so re-imports are skipped.
func (p *Parser) Parse(ctx context.Context, userID string, r io.Reader) ([]model.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(normalize(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var transactions []model.Transaction
	statements := 0

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			statements++
			transactions = p.appendStatement(transactions, userID, stmt.BankTranList.Transactions)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			statements++
			transactions = p.appendStatement(transactions, userID, stmt.BankTranList.Transactions)
		}
	}

	p.logger.Info("Parsed OFX file",
		"transactions", len(transactions),
		"statements", statements)

	return transactions, nil
}

func (p *Parser) appendStatement(out []model.Transaction, userID string, rows []ofxgo.Transaction) []model.Transaction {
	for _, row := range rows {
		txn, ok := convert(userID, row)
		if !ok {
			p.logger.Debug("Skipping zero-amount OFX row", "fitid", string(row.FiTID))
			continue
		}
		out = append(out, txn)
	}
	return out
}

// normalize fixes formatting quirks that ofxgo rejects.
func normalize(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityPattern.ReplaceAllStringFunc(content, strings.ToUpper)
	return unclosedTag.ReplaceAllString(content, "$1>")
}

// convert maps one OFX row. OFX amounts are negative for money leaving the account.
func convert(userID string, row ofxgo.Transaction) (model.Transaction, bool) {
	amount, _ := row.TrnAmt.Float64()
	if amount == 0 {
		return model.Transaction{}, false
	}

	txn := model.Transaction{
		UserID:      userID,
		Date:        row.DtPosted.Time,
		Description: description(row),
		Amount:      amount,
		Type:        model.TypeCredit,
		Status:      model.StatusPending,
		Source:      Source,
	}
	if amount < 0 {
		txn.Amount = -amount
		txn.Type = model.TypeDebit
	}
	txn.Hash = txn.ExternalHash(string(row.FiTID))
	return txn, true
}

// description prefers the payee, then the name, then the memo when the name is generic.
func description(row ofxgo.Transaction) string {
	if row.Payee != nil && row.Payee.Name != "" {
		return strings.TrimSpace(string(row.Payee.Name))
	}

	name := strings.TrimSpace(string(row.Name))
	if row.Memo != "" && (name == "" || isGeneric(name)) {
		name = strings.TrimSpace(string(row.Memo))
	}

	upper := strings.ToUpper(name)
	for _, prefix := range descriptionPrefixes {
		if strings.HasPrefix(upper, prefix) {
			name = strings.TrimSpace(name[len(prefix):])
			break
		}
	}
	if name == "" {
		return "Unknown transaction"
	}
	return name
}

func isGeneric(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}
