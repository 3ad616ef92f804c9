// Package conversation keeps the bounded question/answer history of a chat.
package conversation

import (
	"strings"
	"sync"

	"github.com/xxxsen/pdfchat/internal/model"
)

const DefaultMaxTurns = 5

// Labels name the parts of a rendered history block.
type Labels struct {
	Header   string
	Question string
	Answer   string
}

var EnglishLabels = Labels{Header: "Conversation history", Question: "Question", Answer: "Answer"}

// History holds at most maxTurns turns, dropping the oldest first.
type History struct {
	mu       sync.RWMutex
	maxTurns int
	labels   Labels
	turns    []model.Turn
}

func NewHistory(maxTurns int, labels Labels) *History {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	if labels.Header == "" {
		labels = EnglishLabels
	}
	return &History{maxTurns: maxTurns, labels: labels}
}

func (h *History) Append(question, answer string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, model.Turn{Question: question, Answer: answer})
	if over := len(h.turns) - h.maxTurns; over > 0 {
		h.turns = append([]model.Turn(nil), h.turns[over:]...)
	}
}

// Render formats the turns oldest first. An empty history renders as "".
func (h *History) Render() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.turns) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(h.labels.Header)
	sb.WriteString(":\n")
	for _, t := range h.turns {
		sb.WriteString(h.labels.Question)
		sb.WriteString(": ")
		sb.WriteString(t.Question)
		sb.WriteString("\n")
		sb.WriteString(h.labels.Answer)
		sb.WriteString(": ")
		sb.WriteString(t.Answer)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = nil
}

func (h *History) Turns() []model.Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]model.Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns)
}

func (h *History) MaxTurns() int {
	return h.maxTurns
}
