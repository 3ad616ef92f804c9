// Package pdftext turns PDF files into ordered page records.
package pdftext

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/pdfchat/internal/model"
	appErr "github.com/xxxsen/pdfchat/internal/pkg/errors"
)

const (
	summaryPages        = 3
	summaryCharsPerPage = 500
)

type Option func(*Extractor)

// WithStrictValidation makes the extractor run a full structural validation
// before reading any text.
func WithStrictValidation(v bool) Option {
	return func(e *Extractor) {
		e.strict = v
	}
}

type Extractor struct {
	strict bool
}

func New(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Extractor) Extract(ctx context.Context, path string) ([]model.PageRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrExtraction, fmt.Errorf("open pdf: %w", err))
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrExtraction, fmt.Errorf("stat pdf: %w", err))
	}
	return e.ExtractReader(ctx, f, st.Size())
}

// ExtractReader reads every page of the document. Pages with no extractable
// text are skipped, so the result may be empty for a valid file.
func (e *Extractor) ExtractReader(ctx context.Context, r io.ReaderAt, size int64) (pages []model.PageRecord, err error) {
	logger := logutil.GetLogger(ctx)
	if e.strict {
		if err := validate(r, size); err != nil {
			logger.Warn("pdf validation failed", zap.Error(err))
			return nil, appErr.Wrap(appErr.ErrExtraction, err)
		}
	}
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = appErr.Wrap(appErr.ErrExtraction, fmt.Errorf("parse pdf: %v", rec))
		}
	}()
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrExtraction, fmt.Errorf("parse pdf: %w", err))
	}
	total := reader.NumPage()
	logger.Debug("pdf opened", zap.Int("pages", total), zap.Int64("size", size))
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("skip unreadable page", zap.Int("page", i), zap.Error(err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, model.PageRecord{
			Index:     i,
			Text:      text,
			WordCount: len(strings.Fields(text)),
		})
	}
	logger.Info("pdf extracted", zap.Int("pages", total), zap.Int("text_pages", len(pages)))
	return pages, nil
}

// Summary joins the leading characters of the first pages. It is the context
// used when retrieval yields nothing.
func Summary(pages []model.PageRecord) string {
	if len(pages) > summaryPages {
		pages = pages[:summaryPages]
	}
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		text := []rune(p.Text)
		if len(text) > summaryCharsPerPage {
			text = text[:summaryCharsPerPage]
		}
		parts = append(parts, string(text))
	}
	return strings.Join(parts, " ")
}

func init() {
	// keep pdfcpu away from the user config dir
	pdfmodel.ConfigPath = "disable"
}

func validate(r io.ReaderAt, size int64) error {
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed
	if err := api.Validate(io.NewSectionReader(r, 0, size), conf); err != nil {
		return fmt.Errorf("validate pdf: %w", err)
	}
	return nil
}
