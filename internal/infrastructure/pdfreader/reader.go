// Package pdfreader turns PDF bytes into page text and candidate tables.
package pdfreader

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"

	"github.com/ticketcheck/backend/internal/domain"
)

// Config controls structural validation before text extraction
type Config struct {
	// Validate runs pdfcpu's relaxed validation before reading content
	Validate bool
}

// Reader reads PDF documents. Structure is checked with pdfcpu and content
// (glyphs and rectangles) is read with ledongthuc/pdf.
type Reader struct {
	validate bool
	logger   logrus.FieldLogger
}

// NewReader creates a PDF reader
func NewReader(config Config, logger logrus.FieldLogger) *Reader {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Reader{
		validate: config.Validate,
		logger:   logger,
	}
}

// Read returns every page of the document with its text and the tables
// found by each strategy.
func (r *Reader) Read(ctx context.Context, name string, data []byte) (*domain.Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: empty document", name)
	}

	log := r.logger.WithField("document", name)

	if r.validate {
		pages, err := validatePDF(data)
		if err != nil {
			return nil, fmt.Errorf("%s: validate: %w", name, err)
		}
		log.WithField("pages", pages).Debug("PDF structure validated")
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", name, err)
	}

	doc := &domain.Document{Name: name}
	for i := 1; i <= reader.NumPage(); i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			doc.Pages = append(doc.Pages, domain.Page{Number: i})
			continue
		}

		content, err := pageContent(page)
		if err != nil {
			return nil, fmt.Errorf("%s: page %d: %w", name, i, err)
		}
		doc.Pages = append(doc.Pages, buildPage(i, content.Text, content.Rect))
	}

	log.WithField("pages", len(doc.Pages)).Debug("PDF read")
	return doc, nil
}

func validatePDF(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return 0, err
	}
	return pdfCtx.PageCount, nil
}

// pageContent recovers from panics raised by malformed content streams
func pageContent(page pdf.Page) (content pdf.Content, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed content stream: %v", rec)
		}
	}()
	return page.Content(), nil
}
