// Package plaid syncs bank transactions from the Plaid API.
package plaid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/Veraticus/finbuddy/internal/common"
	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/Veraticus/finbuddy/internal/service"
	"github.com/plaid/plaid-go/v20/plaid"
)

// Source tags rows imported through Plaid.
const Source = "plaid"

// pageSize is Plaid's maximum page size for /transactions/get.
const pageSize = int32(500)

// Config holds Plaid API configuration.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
	AccessToken string
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("plaid client ID is required")
	}
	if c.Secret == "" {
		return fmt.Errorf("plaid secret is required")
	}
	if c.AccessToken == "" {
		return fmt.Errorf("plaid access token is required")
	}
	if c.Environment == "" {
		return fmt.Errorf("plaid environment is required")
	}
	if _, ok := environments[c.Environment]; !ok {
		return fmt.Errorf("invalid Plaid environment %q: must be sandbox or production", c.Environment)
	}
	return nil
}

var environments = map[string]plaid.Environment{
	"sandbox":    plaid.Sandbox,
	"production": plaid.Production,
}

// Client implements TransactionFetcher against the Plaid API.
type Client struct {
	api       transactionsAPI
	logger    *slog.Logger
	retryOpts service.RetryOptions
}

var _ TransactionFetcher = (*Client)(nil)

// NewClient creates a Plaid client with the given configuration.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrPlaidConnection, err)
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)
	configuration.UseEnvironment(environments[cfg.Environment])

	return newClient(&apiAdapter{
		client:      plaid.NewAPIClient(configuration),
		accessToken: cfg.AccessToken,
	}, logger), nil
}

func newClient(api transactionsAPI, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		api:    api,
		logger: logger.With("component", "plaid"),
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// FetchTransactions pages through every transaction between start and end and maps
// them to pending rows owned by userID.
func (c *Client) FetchTransactions(ctx context.Context, userID string, start, end time.Time) ([]model.Transaction, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", common.ErrInvalidInput)
	}
	if start.After(end) {
		return nil, fmt.Errorf("%w: start date must be before end date", common.ErrInvalidInput)
	}

	c.logger.Info("Fetching transactions from Plaid",
		"user_id", userID,
		"start_date", start.Format("2006-01-02"),
		"end_date", end.Format("2006-01-02"))

	var all []plaid.Transaction
	offset := int32(0)
	for {
		var page []plaid.Transaction
		var total int32

		err := common.WithRetry(ctx, func() error {
			var pageErr error
			page, total, pageErr = c.api.TransactionsPage(ctx, start, end, offset, pageSize)
			return pageErr
		}, c.retryOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch transactions at offset %d: %w", offset, err)
		}

		c.logger.Debug("Fetched transaction batch",
			"count", len(page),
			"offset", offset,
			"total", total)

		all = append(all, page...)
		if len(page) < int(pageSize) || int32(len(all)) >= total {
			break
		}
		offset += int32(len(page))
	}

	transactions := make([]model.Transaction, 0, len(all))
	for _, pt := range all {
		txn, ok := c.mapTransaction(userID, pt)
		if !ok {
			continue
		}
		transactions = append(transactions, txn)
	}

	c.logger.Info("Fetched all transactions",
		"fetched", len(all),
		"imported", len(transactions))
	return transactions, nil
}

// mapTransaction converts a Plaid transaction to a pending row. Plaid reports money
// leaving the account as a positive amount.
func (c *Client) mapTransaction(userID string, pt plaid.Transaction) (model.Transaction, bool) {
	amount := pt.GetAmount()
	if amount == 0 {
		return model.Transaction{}, false
	}

	date, err := time.Parse("2006-01-02", pt.GetDate())
	if err != nil {
		c.logger.Warn("Skipping Plaid transaction with unparseable date",
			"transaction_id", pt.GetTransactionId(),
			"date", pt.GetDate())
		return model.Transaction{}, false
	}

	description := pt.GetMerchantName()
	if strings.TrimSpace(description) == "" {
		description = pt.GetName()
	}

	txnType := model.TypeDebit
	if amount < 0 {
		txnType = model.TypeCredit
		amount = -amount
	}

	txn := model.Transaction{
		UserID:      userID,
		Date:        date,
		Description: cleanMerchantName(description),
		Amount:      amount,
		Type:        txnType,
		Category:    model.CategoryOther,
		Status:      model.StatusPending,
		Source:      Source,
	}
	txn.Hash = txn.ExternalHash(pt.GetTransactionId())
	return txn, true
}

var (
	trailingReference = regexp.MustCompile(`\s+\d{6,}$`)
	corporateSuffix   = regexp.MustCompile(`(?i)\s+(pvt\.?|private|ltd\.?|limited|llc|inc\.?|corp\.?|co\.?)$`)
)

// cleanMerchantName collapses whitespace and strips trailing reference numbers and
// company suffixes.
func cleanMerchantName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	name = trailingReference.ReplaceAllString(name, "")
	for {
		trimmed := corporateSuffix.ReplaceAllString(name, "")
		if trimmed == name || trimmed == "" {
			break
		}
		name = trimmed
	}
	return strings.TrimSpace(name)
}

// apiAdapter calls /transactions/get and sorts Plaid errors into retryable and fatal.
type apiAdapter struct {
	client      *plaid.APIClient
	accessToken string
}

func (a *apiAdapter) TransactionsPage(ctx context.Context, start, end time.Time, offset, count int32) ([]plaid.Transaction, int32, error) {
	request := plaid.NewTransactionsGetRequest(
		a.accessToken,
		start.Format("2006-01-02"),
		end.Format("2006-01-02"),
	)
	request.SetOptions(plaid.TransactionsGetRequestOptions{
		Count:  plaid.PtrInt32(count),
		Offset: plaid.PtrInt32(offset),
	})

	resp, _, err := a.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*request).Execute()
	if err != nil {
		return nil, 0, classifyError(err)
	}
	return resp.GetTransactions(), resp.GetTotalTransactions(), nil
}

func classifyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return &common.RetryableError{Err: fmt.Errorf("%w: %w", common.ErrPlaidConnection, err), Retryable: true}
	}
	if plaidErr.ErrorCode == "RATE_LIMIT_EXCEEDED" {
		return &common.RetryableError{
			Err:       fmt.Errorf("%w: %s", common.ErrPlaidRateLimit, plaidErr.ErrorMessage),
			Retryable: true,
		}
	}
	return &common.RetryableError{
		Err:       fmt.Errorf("%w: %s - %s", common.ErrPlaidConnection, plaidErr.ErrorCode, plaidErr.ErrorMessage),
		Retryable: false,
	}
}
