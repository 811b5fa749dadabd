package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/ticketcheck/backend/internal/domain"
)

const (
	styleColumn   = "B"
	styleFirstRow = 24
)

var styleNumberPattern = regexp.MustCompile(`^\d{8}$`)

// StyleSheetReader reads the style number from the sheet the PO annotation
// page is generated from.
type StyleSheetReader struct {
	logger logrus.FieldLogger
}

// NewStyleSheetReader creates a style sheet reader
func NewStyleSheetReader(logger logrus.FieldLogger) *StyleSheetReader {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &StyleSheetReader{logger: logger}
}

// ReadStyles returns the first non-empty value of column B from row 24 on
// when it is an 8-digit style number, otherwise no styles.
func (r *StyleSheetReader) ReadStyles(ctx context.Context, data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty workbook", domain.ErrUnsupportedStyleSheet)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedStyleSheet, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			r.logger.WithError(cerr).Warn("Failed to close style sheet")
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", domain.ErrUnsupportedStyleSheet)
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedStyleSheet, err)
	}

	for row := styleFirstRow; row <= len(rows); row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		value, err := f.GetCellValue(sheet, fmt.Sprintf("%s%d", styleColumn, row))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedStyleSheet, err)
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		if !styleNumberPattern.MatchString(value) {
			r.logger.WithFields(logrus.Fields{
				"sheet": sheet,
				"row":   row,
				"value": value,
			}).Info("Style sheet cell is not a style number")
			return nil, nil
		}
		return []string{value}, nil
	}

	return nil, nil
}
