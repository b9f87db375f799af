package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/finbuddy/internal/assistant"
	"github.com/Veraticus/finbuddy/internal/engine"
	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/charmbracelet/lipgloss"
)

func rupees(amount float64) string {
	return "₹" + assistant.FormatAmount(amount)
}

// RenderEnvelope formats an assistant reply for the terminal: the message, the
// structured payload when there is one, and the follow-up suggestions.
func RenderEnvelope(env model.Envelope) string {
	var b strings.Builder

	if env.IsDegraded() {
		b.WriteString(FormatWarning(env.Message))
	} else {
		b.WriteString(RobotIcon + " " + env.Message)
	}
	b.WriteString("\n")

	if body := renderPayload(env.Data); body != "" {
		b.WriteString("\n" + body + "\n")
	}

	if len(env.Suggestions) > 0 {
		b.WriteString("\n" + SubtleStyle.Render("Try asking:") + "\n")
		for _, s := range env.Suggestions {
			b.WriteString(SubtleStyle.Render("  • "+s) + "\n")
		}
	}
	return b.String()
}

func renderPayload(p model.Payload) string {
	switch data := p.(type) {
	case model.SpendingSummary:
		if len(data.Categories) == 0 {
			return ""
		}
		return renderCategoryTable(data.Categories)

	case model.GoalProgress:
		lines := make([]string, 0, len(data.Goals))
		for _, g := range data.Goals {
			lines = append(lines, fmt.Sprintf("%s %s  %s  %s of %s (%d%%), due %s",
				GoalIcon,
				BoldStyle.Render(g.Name),
				progressBar(g.Progress, 20),
				rupees(g.CurrentAmount),
				rupees(g.TargetAmount),
				g.Progress,
				g.Deadline.Format("2 Jan 2006")))
		}
		return strings.Join(lines, "\n")

	case model.SavingsTips:
		lines := make([]string, 0, len(data.Tips))
		for _, tip := range data.Tips {
			lines = append(lines, TipIcon+" "+tip)
		}
		return strings.Join(lines, "\n")

	case model.BudgetStatus:
		rows := [][2]string{
			{"Money in", rupees(data.TotalCredits)},
			{"Money out", rupees(data.TotalDebits)},
			{"Net", rupees(data.Net)},
			{"Savings rate", fmt.Sprintf("%d%%", data.SavingsRate)},
			{"Goal commitments", rupees(data.MonthlyGoalCommitment) + "/month"},
		}
		lines := make([]string, len(rows))
		for i, r := range rows {
			lines[i] = TableCellStyle.Width(18).Render(r[0]) + r[1]
		}
		return strings.Join(lines, "\n")
	}
	return ""
}

func renderCategoryTable(categories []model.CategorySpend) string {
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		TableCellStyle.Width(22).Render("Category"),
		TableCellStyle.Width(16).Render("Amount"),
		TableCellStyle.Width(8).Render("Share"),
		TableCellStyle.Render("Count"))

	lines := []string{TableHeaderStyle.Render(header)}
	for _, c := range categories {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			TableCellStyle.Width(22).Render(c.Name),
			TableCellStyle.Width(16).Render(rupees(c.Amount)),
			TableCellStyle.Width(8).Render(fmt.Sprintf("%d%%", c.Percentage)),
			TableCellStyle.Render(fmt.Sprintf("%d", c.Count))))
	}
	return strings.Join(lines, "\n")
}

func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	return SuccessStyle.Render(strings.Repeat("█", filled)) + SubtleStyle.Render(strings.Repeat("░", width-filled))
}

// RenderCategorizeSummary formats the result of a categorization run.
func RenderCategorizeSummary(s *engine.Summary) string {
	if s == nil || s.TotalTransactions == 0 {
		return FormatInfo("No pending transactions to categorize.")
	}
	body := fmt.Sprintf("  • Transactions: %d (%d unique descriptions)\n", s.TotalTransactions, s.UniqueDescriptions) +
		fmt.Sprintf("  • Categorized: %d\n", s.Categorized) +
		fmt.Sprintf("  • By rule: %d\n", s.ByRule) +
		fmt.Sprintf("  • By model: %d %s\n", s.ByAI, RobotIcon) +
		fmt.Sprintf("  • Defaulted to Other: %d\n", s.Defaulted)
	if s.Failed > 0 {
		body += fmt.Sprintf("  • Failed to save: %d\n", s.Failed)
	}
	body += fmt.Sprintf("  • Time taken: %s", s.ProcessingTime.Round(time.Millisecond))
	return RenderBox("Categorization Complete", body)
}

// RenderInsights formats insight strings as a numbered list.
func RenderInsights(insights []string) string {
	var b strings.Builder
	b.WriteString(FormatTitle("Insights") + "\n")
	for i, s := range insights {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return b.String()
}
