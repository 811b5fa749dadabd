package domain

import (
	"context"
	"time"
)

// DocumentReader turns raw document bytes into page text and candidate tables
type DocumentReader interface {
	Read(ctx context.Context, name string, data []byte) (*Document, error)
}

// StyleSheetReader extracts style numbers from a spreadsheet
type StyleSheetReader interface {
	ReadStyles(ctx context.Context, data []byte) ([]string, error)
}

// ReportRepository stores assembled reports for later retrieval
type ReportRepository interface {
	Save(ctx context.Context, report *Report, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Report, error)
	Delete(ctx context.Context, id string) error
}

// ReportExporter renders a report into a downloadable file
type ReportExporter interface {
	Export(ctx context.Context, report *Report) ([]byte, error)
}
