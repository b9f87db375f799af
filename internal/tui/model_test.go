package tui

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Veraticus/finbuddy/internal/common"
	"github.com/Veraticus/finbuddy/internal/model"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAssistant struct {
	reply model.Envelope
	calls []assistantCall
	mu    sync.Mutex
}

type assistantCall struct {
	message      string
	transactions int
	goals        int
}

func (a *recordingAssistant) Query(_ context.Context, message string, txns []model.Transaction, goals []model.Goal) model.Envelope {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, assistantCall{message: message, transactions: len(txns), goals: len(goals)})
	return a.reply
}

func fixedSnapshot(txns []model.Transaction, goals []model.Goal) SnapshotFunc {
	return func(context.Context) ([]model.Transaction, []model.Goal, error) {
		return txns, goals, nil
	}
}

func newTestModel(t *testing.T, a Querier, snapshot SnapshotFunc) Model {
	t.Helper()
	m, err := New(context.Background(),
		WithAssistant(a),
		WithSnapshot(snapshot),
		WithTheme(Plain),
		WithUserName("Asha"),
		WithSize(100, 30),
	)
	require.NoError(t, err)
	return m
}

func typeText(m Model, text string) Model {
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return updated.(Model)
}

func press(m Model, keyType tea.KeyType) (Model, tea.Cmd) {
	updated, cmd := m.Update(tea.KeyMsg{Type: keyType})
	return updated.(Model), cmd
}

// findReply runs a batched command and returns the assistant's reply from it.
func findReply(t *testing.T, cmd tea.Cmd) replyMsg {
	t.Helper()
	require.NotNil(t, cmd)

	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok, "send should batch the question with the spinner")
	for _, c := range batch {
		if c == nil {
			continue
		}
		if reply, ok := c().(replyMsg); ok {
			return reply
		}
	}
	t.Fatal("no reply in batch")
	return replyMsg{}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(context.Background(), WithSnapshot(fixedSnapshot(nil, nil)))
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	_, err = New(context.Background(), WithAssistant(&recordingAssistant{}))
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestModel_WelcomeAndHeader(t *testing.T) {
	m := newTestModel(t, &recordingAssistant{}, fixedSnapshot(nil, nil))

	view := m.View()
	assert.Contains(t, view, "FinBot")
	assert.Contains(t, view, "Chatting as Asha")
	assert.Contains(t, view, "How much did I spend this month?")
}

func TestModel_SendAsksOverSnapshot(t *testing.T) {
	assistant := &recordingAssistant{reply: model.Envelope{
		Message:     "You spent ₹500 in the last 30 days.",
		Data:        model.SpendingSummary{TotalSpent: 500},
		Suggestions: []string{"Show my goals"},
	}}
	txns := []model.Transaction{{Description: "Swiggy", Amount: 500, Type: model.TypeDebit}}
	goals := []model.Goal{{Name: "Trip"}}
	m := newTestModel(t, assistant, fixedSnapshot(txns, goals))

	m = typeText(m, "  how much did I spend?  ")
	m, cmd := press(m, tea.KeyEnter)

	assert.True(t, m.waiting)
	assert.Empty(t, m.input.Value())
	require.Len(t, m.history, 1)
	assert.Equal(t, "how much did I spend?", m.history[0].question)
	assert.Contains(t, m.View(), "FinBot is thinking...")

	reply := findReply(t, cmd)
	require.Len(t, assistant.calls, 1)
	assert.Equal(t, assistantCall{message: "how much did I spend?", transactions: 1, goals: 1}, assistant.calls[0])

	updated, next := m.Update(reply)
	m = updated.(Model)
	assert.Nil(t, next)
	assert.False(t, m.waiting)
	assert.True(t, m.history[0].answered)

	view := m.View()
	assert.Contains(t, view, "You: how much did I spend?")
	assert.Contains(t, view, "You spent ₹500 in the last 30 days.")
	assert.Contains(t, view, "Show my goals")
	assert.NotContains(t, view, "FinBot is thinking...")
}

func TestModel_BlankInputIsIgnored(t *testing.T) {
	assistant := &recordingAssistant{}
	m := newTestModel(t, assistant, fixedSnapshot(nil, nil))

	m = typeText(m, "   ")
	m, cmd := press(m, tea.KeyEnter)

	assert.Nil(t, cmd)
	assert.False(t, m.waiting)
	assert.Empty(t, m.history)
}

func TestModel_OneQuestionInFlight(t *testing.T) {
	m := newTestModel(t, &recordingAssistant{}, fixedSnapshot(nil, nil))

	m = typeText(m, "first")
	m, first := press(m, tea.KeyEnter)
	require.NotNil(t, first)

	m = typeText(m, "second")
	m, second := press(m, tea.KeyEnter)
	assert.Nil(t, second)
	assert.Len(t, m.history, 1)
	assert.Equal(t, "second", m.input.Value(), "the draft is kept until the answer arrives")
}

func TestModel_SnapshotFailureIsShown(t *testing.T) {
	assistant := &recordingAssistant{}
	failing := func(context.Context) ([]model.Transaction, []model.Goal, error) {
		return nil, nil, errors.New("database is locked")
	}
	m := newTestModel(t, assistant, failing)

	m = typeText(m, "budget?")
	m, cmd := press(m, tea.KeyEnter)
	reply := findReply(t, cmd)
	assert.Empty(t, assistant.calls, "the assistant is not asked without data")

	updated, _ := m.Update(reply)
	m = updated.(Model)
	assert.False(t, m.waiting)
	assert.Contains(t, m.View(), "Could not load your data: database is locked")
}

func TestModel_DegradedReplyIsRendered(t *testing.T) {
	assistant := &recordingAssistant{reply: model.Envelope{
		Message:     "I'm having trouble processing your request right now. Please try again later.",
		Data:        model.ErrorPayload{},
		Suggestions: []string{"Try again"},
	}}
	m := newTestModel(t, assistant, fixedSnapshot(nil, nil))

	m = typeText(m, "hello")
	m, cmd := press(m, tea.KeyEnter)
	updated, _ := m.Update(findReply(t, cmd))
	m = updated.(Model)

	assert.Contains(t, m.View(), "having trouble processing your request")
}

func TestModel_Keys(t *testing.T) {
	m := newTestModel(t, &recordingAssistant{}, fixedSnapshot(nil, nil))

	m, _ = press(m, tea.KeyF1)
	assert.True(t, m.help.ShowAll)
	assert.Contains(t, m.View(), "scroll up")

	m = typeText(m, "draft")
	m, _ = press(m, tea.KeyCtrlU)
	assert.Empty(t, m.input.Value())

	m, cmd := press(m, tea.KeyEsc)
	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestModel_WindowResize(t *testing.T) {
	m := newTestModel(t, &recordingAssistant{}, fixedSnapshot(nil, nil))

	updated, cmd := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(Model)
	assert.Nil(t, cmd)
	assert.Equal(t, 120, m.viewport.Width)
	assert.Greater(t, m.viewport.Height, 30)
	assert.Less(t, m.viewport.Height, 40)
}
