// Package prompt builds the text sent to the language model. Everything here
// is pure: the same inputs always give the same prompt.
package prompt

import (
	"fmt"
	"strings"

	"github.com/xxxsen/pdfchat/internal/model"
)

type Assembler struct {
	locale Locale
}

func New(locale Locale) *Assembler {
	return &Assembler{locale: locale}
}

func (a *Assembler) Locale() Locale {
	return a.locale
}

// TruncateContext keeps the first maxChars runes of text. maxChars <= 0
// leaves text untouched.
func TruncateContext(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	count := 0
	for i := range text {
		if count == maxChars {
			return text[:i]
		}
		count++
	}
	return text
}

// Assemble lays out preamble, context, history, question and the answer cue
// in that order.
func (a *Assembler) Assemble(contextText, history, question string, maxChars int) string {
	var sb strings.Builder
	sb.WriteString(a.locale.Preamble)
	sb.WriteString("\n\n")
	sb.WriteString(a.locale.ContextLabel)
	sb.WriteString(":\n")
	sb.WriteString(TruncateContext(contextText, maxChars))
	sb.WriteString("\n\n")
	sb.WriteString(history)
	sb.WriteString("\n\n")
	sb.WriteString(a.QuestionMarker())
	sb.WriteString(" ")
	sb.WriteString(question)
	sb.WriteString("\n\n")
	sb.WriteString(a.locale.AnswerCue)
	return sb.String()
}

// QuestionMarker is the label that introduces the user's question.
func (a *Assembler) QuestionMarker() string {
	return a.locale.QuestionLabel + ":"
}

func (a *Assembler) StatisticsMessage(stats model.Statistics) string {
	l := a.locale
	return fmt.Sprintf("%s\n%s: %d\n%s: %d\n%s: %.1f\n%s\n\n%s",
		l.StatsHeader,
		l.StatsPages, stats.TotalPages,
		l.StatsWords, stats.TotalWords,
		l.StatsAverage, stats.AverageWordsPerPage,
		l.StatsRule,
		l.StatsClosing,
	)
}

func (a *Assembler) NoDocumentMessage() string {
	return a.locale.NoDocument
}

func (a *Assembler) ExtractionFailedMessage() string {
	return a.locale.ExtractionFailed
}

// NoContentMessage stands in for the context of a document without text.
func (a *Assembler) NoContentMessage() string {
	return a.locale.NoContent
}
