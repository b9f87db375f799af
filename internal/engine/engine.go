// Package engine categorizes stored transactions in bulk.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/Veraticus/finbuddy/internal/service"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent categorizations when Options.Workers is unset.
const DefaultWorkers = 4

// Options selects which pending transactions a run picks up.
type Options struct {
	Since    *time.Time
	Progress ProgressFunc
	UserID   string
	Workers  int
}

// Summary contains statistics about a categorization run.
type Summary struct {
	TotalTransactions  int
	UniqueDescriptions int
	Categorized        int
	ByRule             int
	ByAI               int
	Defaulted          int
	Failed             int
	ProcessingTime     time.Duration
}

// ClassificationEngine categorizes pending transactions and writes the results back.
type ClassificationEngine struct {
	store      Store
	classifier Classifier
	logger     *slog.Logger
}

// New creates a new classification engine with the given dependencies.
func New(store Store, classifier Classifier, logger *slog.Logger) *ClassificationEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassificationEngine{
		store:      store,
		classifier: classifier,
		logger:     logger,
	}
}

type descriptionGroup struct {
	description  string
	transactions []model.Transaction
}

// CategorizePending classifies every pending transaction matching opts.
// Rows sharing a description are classified once. A row that fails to save is
// counted and skipped; only cancellation or a failed load aborts the run.
func (e *ClassificationEngine) CategorizePending(ctx context.Context, opts Options) (*Summary, error) {
	start := time.Now()

	transactions, err := e.store.GetTransactions(ctx, service.TransactionFilter{
		UserID: opts.UserID,
		Since:  opts.Since,
		Status: model.StatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get pending transactions: %w", err)
	}
	return e.categorize(ctx, start, transactions, opts)
}

// Categorize classifies exactly the given stored transactions, ignoring opts.UserID
// and opts.Since. Rows without an ID are skipped.
func (e *ClassificationEngine) Categorize(ctx context.Context, transactions []model.Transaction, opts Options) (*Summary, error) {
	stored := make([]model.Transaction, 0, len(transactions))
	for _, txn := range transactions {
		if txn.ID != "" {
			stored = append(stored, txn)
		}
	}
	return e.categorize(ctx, time.Now(), stored, opts)
}

func (e *ClassificationEngine) categorize(ctx context.Context, start time.Time, transactions []model.Transaction, opts Options) (*Summary, error) {
	summary := &Summary{TotalTransactions: len(transactions)}
	if len(transactions) == 0 {
		e.logger.Info("No transactions to categorize")
		return summary, nil
	}

	groups := groupByDescription(transactions)
	summary.UniqueDescriptions = len(groups)

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	e.logger.Info("Starting categorization",
		"transactions", len(transactions),
		"unique_descriptions", len(groups),
		"workers", workers)

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, group := range groups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result := e.classifier.Categorize(gctx, group.description)
			saved, failed := e.apply(gctx, group, result)

			mu.Lock()
			defer mu.Unlock()
			summary.Categorized += saved
			summary.Failed += failed
			switch result.Source {
			case model.SourceRule:
				summary.ByRule += saved
			case model.SourceAI:
				summary.ByAI += saved
			default:
				summary.Defaulted += saved
			}
			done++
			if opts.Progress != nil {
				opts.Progress(done, len(groups))
			}
			return nil
		})
	}

	err := g.Wait()
	summary.ProcessingTime = time.Since(start)

	e.logger.Info("Categorization complete",
		"categorized", summary.Categorized,
		"by_rule", summary.ByRule,
		"by_ai", summary.ByAI,
		"defaulted", summary.Defaulted,
		"failed", summary.Failed,
		"duration", summary.ProcessingTime)

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return summary, fmt.Errorf("categorization interrupted: %w", err)
		}
		return summary, err
	}
	return summary, nil
}

func (e *ClassificationEngine) apply(ctx context.Context, group descriptionGroup, result model.ClassificationResult) (saved, failed int) {
	for _, txn := range group.transactions {
		if err := e.store.SetTransactionCategory(ctx, txn.ID, result.Category); err != nil {
			e.logger.Warn("Failed to save category",
				"transaction_id", txn.ID,
				"category", result.Category,
				"error", err)
			failed++
			continue
		}
		saved++
	}
	return saved, failed
}

// groupByDescription buckets transactions by normalized description, largest group first.
func groupByDescription(transactions []model.Transaction) []descriptionGroup {
	index := make(map[string]int)
	var groups []descriptionGroup

	for _, txn := range transactions {
		key := strings.ToLower(strings.Join(strings.Fields(txn.Description), " "))
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, descriptionGroup{description: strings.TrimSpace(txn.Description)})
		}
		groups[i].transactions = append(groups[i].transactions, txn)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return len(groups[i].transactions) > len(groups[j].transactions)
	})
	return groups
}
