package tui

import (
	"strings"

	"github.com/Veraticus/finbuddy/internal/cli"
	"github.com/charmbracelet/lipgloss"
)

// View renders the chat.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	width := max(m.width, minWidth)
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.theme.InputBox.Width(width-2).Render(m.input.View()),
		m.help.View(m.keymap),
	)
}

func (m Model) renderHeader() string {
	subtitle := "Your personal finance assistant"
	if m.config.UserName != "" {
		subtitle = "Chatting as " + m.config.UserName
	}
	if m.waiting {
		subtitle += "  " + m.spinner.View()
	}
	return m.theme.Title.Render(cli.WalletIcon+" FinBuddy · FinBot") + "\n" + m.theme.Subtitle.Render(subtitle)
}

func (m Model) renderHistory() string {
	wrap := lipgloss.NewStyle().Width(max(m.width, minWidth) - 1)
	if len(m.history) == 0 {
		return wrap.Render(m.theme.Subtitle.Render(welcomeText))
	}

	var b strings.Builder
	for i, ex := range m.history {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.theme.UserLabel.Render("You: ") + m.theme.UserText.Render(ex.question) + "\n\n")

		switch {
		case ex.err != nil:
			b.WriteString(m.theme.Error.Render(cli.ErrorIcon+" Could not load your data: "+ex.err.Error()) + "\n")
		case ex.answered:
			b.WriteString(cli.RenderEnvelope(ex.reply))
		default:
			b.WriteString(m.spinner.View() + " " + m.theme.Thinking.Render("FinBot is thinking...") + "\n")
		}
	}
	return wrap.Render(b.String())
}
