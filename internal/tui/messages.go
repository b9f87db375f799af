package tui

import "github.com/Veraticus/finbuddy/internal/model"

// replyMsg carries the assistant's answer, or the error that kept the question from being asked.
type replyMsg struct {
	err      error
	question string
	envelope model.Envelope
}

// exchange is one question and its answer in the history.
type exchange struct {
	err      error
	question string
	reply    model.Envelope
	answered bool
}
