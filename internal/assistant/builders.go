package assistant

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/shopspring/decimal"
)

const maxTopCategories = 3

var hundred = decimal.NewFromInt(100)

// percentOf returns round(part / whole * 100), or 0 when whole is not positive.
func percentOf(part, whole decimal.Decimal) int {
	if !whole.IsPositive() {
		return 0
	}
	return int(part.Div(whole).Mul(hundred).Round(0).IntPart())
}

// BuildSpendingSummary groups debit spending by category, largest first.
// Credits are ignored.
func BuildSpendingSummary(transactions []model.Transaction) model.SpendingSummary {
	sums := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	total := decimal.Zero
	debits := 0

	for _, txn := range transactions {
		if !txn.IsDebit() {
			continue
		}
		category := strings.TrimSpace(txn.Category)
		if category == "" {
			category = model.CategoryOther
		}
		amount := decimal.NewFromFloat(txn.Amount)
		sums[category] = sums[category].Add(amount)
		counts[category]++
		total = total.Add(amount)
		debits++
	}

	categories := make([]model.CategorySpend, 0, len(sums))
	for name, sum := range sums {
		categories = append(categories, model.CategorySpend{
			Name:       name,
			Amount:     sum.InexactFloat64(),
			Count:      counts[name],
			Percentage: percentOf(sum, total),
		})
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Amount != categories[j].Amount {
			return categories[i].Amount > categories[j].Amount
		}
		return categories[i].Name < categories[j].Name
	})

	return model.SpendingSummary{
		Categories:       categories,
		TotalSpent:       total.InexactFloat64(),
		TransactionCount: debits,
	}
}

func spendingSummaryMessage(s model.SpendingSummary, windowDays int) string {
	return fmt.Sprintf("Here's your spending summary. You've spent %s in the last %d days across %d categories.",
		formatRupees(s.TotalSpent), windowDays, len(s.Categories))
}

// BuildGoalProgress reports progress for active goals in the order given.
func BuildGoalProgress(goals []model.Goal) model.GoalProgress {
	items := make([]model.GoalProgressItem, 0, len(goals))
	for _, g := range goals {
		if !g.IsActive() {
			continue
		}
		target := decimal.NewFromFloat(g.TargetAmount)
		current := decimal.NewFromFloat(g.CurrentAmount)
		items = append(items, model.GoalProgressItem{
			ID:            g.ID,
			Name:          g.Name,
			Priority:      g.Priority,
			Deadline:      g.Deadline,
			TargetAmount:  g.TargetAmount,
			CurrentAmount: g.CurrentAmount,
			Remaining:     target.Sub(current).InexactFloat64(),
			Progress:      percentOf(current, target),
		})
	}

	return model.GoalProgress{
		Goals:       items,
		ActiveCount: len(items),
	}
}

func goalProgressMessage(p model.GoalProgress) string {
	return fmt.Sprintf("You have %d active goals. Here's your progress overview.", p.ActiveCount)
}

var categoryTips = map[string]string{
	model.CategoryFoodDining:     "Cooking at home a few more days a week and limiting delivery orders can cut this noticeably.",
	model.CategoryTransportation: "Try public transport or pooled rides for regular trips.",
	model.CategoryShopping:       "Wait 48 hours before non-essential purchases and keep a wishlist instead.",
	model.CategoryEntertainment:  "Review your subscriptions and cancel the ones you rarely use.",
	model.CategoryBillsUtilities: "Compare mobile and internet plans, and switch off appliances on standby.",
	model.CategoryHealthcare:     "Check whether a health insurance plan or generic medicines could lower these costs.",
	model.CategoryEducation:      "Look for free or employer-sponsored courses before paying for new ones.",
	model.CategoryOther:          "Categorize these expenses so you can see where the money actually goes.",
}

var generalTips = []string{
	"Set up an automatic transfer to savings on the day your salary arrives.",
	"Aim to save at least 20% of your income each month.",
	"Keep an emergency fund that covers three to six months of expenses.",
}

// BuildSavingsTips tailors advice to the top debit categories and appends general tips.
func BuildSavingsTips(transactions []model.Transaction) model.SavingsTips {
	summary := BuildSpendingSummary(transactions)

	top := summary.Categories
	if len(top) > maxTopCategories {
		top = top[:maxTopCategories]
	}
	top = append([]model.CategorySpend(nil), top...)
	if top == nil {
		top = []model.CategorySpend{}
	}

	tips := make([]string, 0, len(top)+len(generalTips))
	for _, c := range top {
		advice, ok := categoryTips[c.Name]
		if !ok {
			advice = "Set a monthly limit for this category and track it weekly."
		}
		tips = append(tips, fmt.Sprintf("You spent %s on %s (%d%% of spending). %s",
			formatRupees(c.Amount), c.Name, c.Percentage, advice))
	}
	tips = append(tips, generalTips...)

	return model.SavingsTips{
		Tips:          tips,
		TopCategories: top,
	}
}

func savingsTipsMessage(t model.SavingsTips) string {
	if len(t.TopCategories) == 0 {
		return "Here are some general tips to help you save more."
	}
	return fmt.Sprintf("Here are some ways to save, based on your top %d spending categories.", len(t.TopCategories))
}

// BuildBudgetStatus compares income with spending and totals the monthly
// contributions the active goals expect.
func BuildBudgetStatus(transactions []model.Transaction, goals []model.Goal) model.BudgetStatus {
	debits := decimal.Zero
	credits := decimal.Zero
	for _, txn := range transactions {
		amount := decimal.NewFromFloat(txn.Amount)
		if txn.IsDebit() {
			debits = debits.Add(amount)
		} else {
			credits = credits.Add(amount)
		}
	}

	commitment := decimal.Zero
	for _, g := range goals {
		if g.IsActive() {
			commitment = commitment.Add(decimal.NewFromFloat(g.MonthlyContribution))
		}
	}

	net := credits.Sub(debits)
	return model.BudgetStatus{
		TotalDebits:           debits.InexactFloat64(),
		TotalCredits:          credits.InexactFloat64(),
		Net:                   net.InexactFloat64(),
		MonthlyGoalCommitment: commitment.InexactFloat64(),
		SavingsRate:           percentOf(net, credits),
	}
}

func budgetStatusMessage(b model.BudgetStatus) string {
	var msg string
	switch {
	case b.TotalCredits == 0:
		msg = fmt.Sprintf("You've spent %s and have no income recorded for this period.", formatRupees(b.TotalDebits))
	case b.Net >= 0:
		msg = fmt.Sprintf("You've spent %s of your %s income, saving %d%%.",
			formatRupees(b.TotalDebits), formatRupees(b.TotalCredits), b.SavingsRate)
	default:
		msg = fmt.Sprintf("You've spent %s, which is %s more than your %s income.",
			formatRupees(b.TotalDebits), formatRupees(-b.Net), formatRupees(b.TotalCredits))
	}
	if b.MonthlyGoalCommitment > 0 {
		msg += fmt.Sprintf(" Your active goals need %s a month.", formatRupees(b.MonthlyGoalCommitment))
	}
	return msg
}
