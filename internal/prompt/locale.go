package prompt

import (
	"fmt"
	"strings"

	"github.com/xxxsen/pdfchat/internal/conversation"
	appErr "github.com/xxxsen/pdfchat/internal/pkg/errors"
)

const (
	LocaleEnglish    = "en"
	LocalePortuguese = "pt"
)

type Locale struct {
	Name          string
	Preamble      string
	ContextLabel  string
	QuestionLabel string
	AnswerCue     string
	History       conversation.Labels

	StatsHeader  string
	StatsPages   string
	StatsWords   string
	StatsAverage string
	StatsRule    string
	StatsClosing string

	NoDocument       string
	ExtractionFailed string
	NoContent        string
}

var locales = map[string]Locale{
	LocaleEnglish: {
		Name:          LocaleEnglish,
		Preamble:      "You are an assistant specialized in analyzing PDF documents.",
		ContextLabel:  "PDF context",
		QuestionLabel: "Current question",
		AnswerCue:     "Answer:",
		History:       conversation.EnglishLabels,

		StatsHeader:  "=== PDF STATISTICS ===",
		StatsPages:   "Total pages",
		StatsWords:   "Total words",
		StatsAverage: "Average words per page",
		StatsRule:    "======================",
		StatsClosing: "How can I help?",

		NoDocument:       "Please load a PDF before asking questions.",
		ExtractionFailed: "The PDF could not be processed. Check that the file is valid.",
		NoContent:        "No content extracted.",
	},
	LocalePortuguese: {
		Name:          LocalePortuguese,
		Preamble:      "Você é um assistente especializado em analisar documentos PDF.",
		ContextLabel:  "Contexto do PDF",
		QuestionLabel: "Pergunta atual",
		AnswerCue:     "Resposta:",
		History: conversation.Labels{
			Header:   "Histórico de conversas",
			Question: "Pergunta",
			Answer:   "Resposta",
		},

		StatsHeader:  "=== ESTATÍSTICAS DO PDF ===",
		StatsPages:   "Total de páginas",
		StatsWords:   "Total de palavras",
		StatsAverage: "Média de palavras por página",
		StatsRule:    "===========================",
		StatsClosing: "Como posso ajudar?",

		NoDocument:       "Por favor, carregue um PDF primeiro antes de fazer perguntas.",
		ExtractionFailed: "Não foi possível processar o PDF. Verifique se o arquivo é válido.",
		NoContent:        "Nenhum conteúdo extraído.",
	},
}

// LookupLocale resolves a locale name; "" means English.
func LookupLocale(name string) (Locale, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = LocaleEnglish
	}
	loc, ok := locales[key]
	if !ok {
		return Locale{}, appErr.Wrap(appErr.ErrInvalid, fmt.Errorf("unsupported locale %q", name))
	}
	return loc, nil
}
