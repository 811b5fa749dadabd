package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ticketcheck/backend/internal/domain"
)

// MockDocumentReader returns prepared documents by name
type MockDocumentReader struct {
	docs  map[string]*domain.Document
	err   map[string]error
	calls int
}

func (m *MockDocumentReader) Read(ctx context.Context, name string, data []byte) (*domain.Document, error) {
	m.calls++
	if err := m.err[name]; err != nil {
		return nil, err
	}
	return m.docs[name], nil
}

// MockStyleSheetReader returns fixed styles
type MockStyleSheetReader struct {
	styles []string
	err    error
}

func (m *MockStyleSheetReader) ReadStyles(ctx context.Context, data []byte) ([]string, error) {
	return m.styles, m.err
}

// MockReportRepository is an in-memory domain.ReportRepository
type MockReportRepository struct {
	reports map[string]*domain.Report
	saveErr error
	ttl     time.Duration
}

func NewMockReportRepository() *MockReportRepository {
	return &MockReportRepository{reports: make(map[string]*domain.Report)}
}

func (m *MockReportRepository) Save(ctx context.Context, report *domain.Report, ttl time.Duration) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.ttl = ttl
	m.reports[report.ID] = report
	return nil
}

func (m *MockReportRepository) Get(ctx context.Context, id string) (*domain.Report, error) {
	if r, ok := m.reports[id]; ok {
		return r, nil
	}
	return nil, domain.ErrReportNotFound
}

func (m *MockReportRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.reports[id]; !ok {
		return domain.ErrReportNotFound
	}
	delete(m.reports, id)
	return nil
}

// MockReportExporter records the exported report
type MockReportExporter struct {
	exported *domain.Report
}

func (m *MockReportExporter) Export(ctx context.Context, report *domain.Report) ([]byte, error) {
	m.exported = report
	return []byte("xlsx"), nil
}

const serviceWOText = `WORK ORDER
Customer Delivery Name: Acme Apparel
Deliver To: PTK ENTERPRISES, Plot 7, Chennai, India, Payment by LC
Product Code: LB 1234
Buyer PO 4500123`

const servicePOText = `Extracted Style Numbers: 12345678
PO Number: 4500123
Delivery Location:
Plot 7, Chennai, India
Forwarder: DHL
1 TAG.PRC.TKT_LB-1234_REG TICKET 50.0000 PCS
Color/Size/Destination : RED / L / USA
2 TAG.PRC.TKT_LB-1234_REG TICKET 100.0000 PCS
Color/Size/Destination : RED / M / USA`

func serviceDocs() map[string]*domain.Document {
	wo := &domain.Document{
		Name: "wo.pdf",
		Pages: []domain.Page{{
			Number: 1,
			Text:   serviceWOText,
			Tables: map[domain.TableStrategy][]domain.Table{
				domain.StrategyLines: {{
					{"Style", "Colour", "Size", "Quantity"},
					{"12345678", "RED", "L", "50"},
					{"12345678", "RED", "M", "100"},
				}},
			},
		}},
	}
	po := &domain.Document{
		Name:  "po.pdf",
		Pages: []domain.Page{{Number: 1, Text: servicePOText}},
	}
	return map[string]*domain.Document{"wo.pdf": wo, "po.pdf": po}
}

func newTestService(reader *MockDocumentReader, styles domain.StyleSheetReader, repo *MockReportRepository, exporter *MockReportExporter) *ReconciliationService {
	svc := NewReconciliationService(reader, styles, repo, exporter, ReconciliationConfig{}, nil)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }
	svc.newID = func() string { return "report-1" }
	return svc
}

func validRequest() *ReconcileRequest {
	return &ReconcileRequest{WOName: "wo.pdf", WOData: []byte("%PDF"), POName: "po.pdf", POData: []byte("%PDF")}
}

func TestNewReconciliationService(t *testing.T) {
	t.Run("uses default report TTL when zero", func(t *testing.T) {
		svc := NewReconciliationService(nil, nil, nil, nil, ReconciliationConfig{}, nil)
		if svc.reportTTL != 24*time.Hour {
			t.Errorf("reportTTL = %v, want 24h (default)", svc.reportTTL)
		}
	})

	t.Run("uses provided report TTL", func(t *testing.T) {
		svc := NewReconciliationService(nil, nil, nil, nil, ReconciliationConfig{ReportTTL: time.Hour}, nil)
		if svc.reportTTL != time.Hour {
			t.Errorf("reportTTL = %v, want 1h", svc.reportTTL)
		}
	})
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("returns error for nil request", func(t *testing.T) {
		svc := newTestService(&MockDocumentReader{}, nil, NewMockReportRepository(), &MockReportExporter{})
		_, err := svc.Reconcile(ctx, nil)
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("returns error for missing PO document", func(t *testing.T) {
		svc := newTestService(&MockDocumentReader{}, nil, NewMockReportRepository(), &MockReportExporter{})
		req := validRequest()
		req.POData = nil
		_, err := svc.Reconcile(ctx, req)
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("perfect match", func(t *testing.T) {
		repo := NewMockReportRepository()
		svc := newTestService(&MockDocumentReader{docs: serviceDocs()}, nil, repo, &MockReportExporter{})

		report, err := svc.Reconcile(ctx, validRequest())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if report.Verdict != domain.VerdictPerfect {
			t.Errorf("Verdict = %q, want %q (report %+v)", report.Verdict, domain.VerdictPerfect, report)
		}
		wantSummary := domain.Summary{WOItemCount: 2, POItemCount: 2, FullMatchCount: 2, MismatchCount: 0}
		if report.Summary != wantSummary {
			t.Errorf("Summary = %+v, want %+v", report.Summary, wantSummary)
		}
		if report.POFormat != domain.POFormatTicket {
			t.Errorf("POFormat = %q, want ticket", report.POFormat)
		}
		if !report.Address.Match {
			t.Errorf("Address = %+v, want match", report.Address)
		}
		if report.WOItems[0].Size != "M" || report.POItems[0].Size != "M" {
			t.Errorf("items should be sorted by size: WO %q, PO %q", report.WOItems[0].Size, report.POItems[0].Size)
		}
		wantRefs := domain.References{ProductCode: "LB 1234", Reference: "12345678", PONumber: "4500123"}
		if report.References != wantRefs {
			t.Errorf("References = %+v, want %+v", report.References, wantRefs)
		}
		if report.ID != "report-1" || report.WODocument != "wo.pdf" || report.PODocument != "po.pdf" {
			t.Errorf("unexpected identity fields: %q %q %q", report.ID, report.WODocument, report.PODocument)
		}
		if _, ok := repo.reports["report-1"]; !ok {
			t.Error("report was not stored")
		}
		if repo.ttl != 24*time.Hour {
			t.Errorf("stored with ttl %v, want 24h", repo.ttl)
		}
	})

	t.Run("style sheet overrides the PO style", func(t *testing.T) {
		svc := newTestService(
			&MockDocumentReader{docs: serviceDocs()},
			&MockStyleSheetReader{styles: []string{"99999999"}},
			NewMockReportRepository(),
			&MockReportExporter{},
		)
		req := validRequest()
		req.StyleSheet = []byte("xlsx")

		report, err := svc.Reconcile(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, item := range report.POItems {
			if item.Style != "99999999" {
				t.Errorf("PO style = %q, want 99999999", item.Style)
			}
		}
		if report.Verdict != domain.VerdictNotPerfect {
			t.Errorf("Verdict = %q, want %q", report.Verdict, domain.VerdictNotPerfect)
		}
		if report.Summary.FullMatchCount != 0 {
			t.Errorf("FullMatchCount = %d, want 0", report.Summary.FullMatchCount)
		}
		if report.References.Reference != "99999999" {
			t.Errorf("Reference = %q, want 99999999", report.References.Reference)
		}
	})

	t.Run("style sheet failure is returned", func(t *testing.T) {
		svc := newTestService(
			&MockDocumentReader{docs: serviceDocs()},
			&MockStyleSheetReader{err: domain.ErrUnsupportedStyleSheet},
			NewMockReportRepository(),
			&MockReportExporter{},
		)
		req := validRequest()
		req.StyleSheet = []byte("not a workbook")

		_, err := svc.Reconcile(ctx, req)
		if !errors.Is(err, domain.ErrUnsupportedStyleSheet) {
			t.Errorf("error = %v, want ErrUnsupportedStyleSheet", err)
		}
	})

	t.Run("reader failure names the side", func(t *testing.T) {
		cause := errors.New("corrupt xref table")
		reader := &MockDocumentReader{docs: serviceDocs(), err: map[string]error{"po.pdf": cause}}
		svc := newTestService(reader, nil, NewMockReportRepository(), &MockReportExporter{})

		_, err := svc.Reconcile(ctx, validRequest())
		if !errors.Is(err, domain.ErrReaderFailure) {
			t.Fatalf("error = %v, want ErrReaderFailure", err)
		}
		if !errors.Is(err, cause) {
			t.Errorf("error = %v, want cause to be wrapped", err)
		}
		var readerErr *domain.ReaderError
		if !errors.As(err, &readerErr) || readerErr.Side != domain.SidePO {
			t.Errorf("error = %v, want PO reader error", err)
		}
	})

	t.Run("extraction gaps still produce a report", func(t *testing.T) {
		docs := serviceDocs()
		docs["po.pdf"] = &domain.Document{Name: "po.pdf", Pages: []domain.Page{{Number: 1, Text: "blank"}}}
		svc := newTestService(&MockDocumentReader{docs: docs}, nil, NewMockReportRepository(), &MockReportExporter{})

		report, err := svc.Reconcile(ctx, validRequest())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(report.Unmatched) != 2 {
			t.Errorf("got %d unmatched rows, want 2", len(report.Unmatched))
		}
		for _, r := range report.Unmatched {
			if r.Status != domain.StatusNoPOMatch {
				t.Errorf("Status = %q, want No PO Match", r.Status)
			}
		}
		if len(report.POFields.Warnings) == 0 {
			t.Error("expected PO warnings")
		}
		if report.Verdict != domain.VerdictNotPerfect {
			t.Errorf("Verdict = %q", report.Verdict)
		}
	})

	t.Run("store failure does not fail the run", func(t *testing.T) {
		repo := NewMockReportRepository()
		repo.saveErr = errors.New("disk full")
		svc := newTestService(&MockDocumentReader{docs: serviceDocs()}, nil, repo, &MockReportExporter{})

		report, err := svc.Reconcile(ctx, validRequest())
		if err != nil || report == nil {
			t.Fatalf("Reconcile() = %v, %v", report, err)
		}
	})
}

func TestGetAndExportReport(t *testing.T) {
	ctx := context.Background()
	repo := NewMockReportRepository()
	exporter := &MockReportExporter{}
	svc := newTestService(&MockDocumentReader{docs: serviceDocs()}, nil, repo, exporter)

	report, err := svc.Reconcile(ctx, validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("get stored report", func(t *testing.T) {
		got, err := svc.GetReport(ctx, report.ID)
		if err != nil || got != report {
			t.Errorf("GetReport() = %v, %v", got, err)
		}
	})

	t.Run("get unknown report", func(t *testing.T) {
		_, err := svc.GetReport(ctx, "missing")
		if !errors.Is(err, domain.ErrReportNotFound) {
			t.Errorf("error = %v, want ErrReportNotFound", err)
		}
	})

	t.Run("get empty id", func(t *testing.T) {
		_, err := svc.GetReport(ctx, "")
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("export stored report", func(t *testing.T) {
		data, err := svc.ExportReport(ctx, report.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "xlsx" || exporter.exported != report {
			t.Errorf("export did not use the stored report")
		}
	})

	t.Run("delete stored report", func(t *testing.T) {
		if err := svc.DeleteReport(ctx, report.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := svc.GetReport(ctx, report.ID); !errors.Is(err, domain.ErrReportNotFound) {
			t.Errorf("GetReport after delete error = %v, want ErrReportNotFound", err)
		}
		if err := svc.DeleteReport(ctx, report.ID); !errors.Is(err, domain.ErrReportNotFound) {
			t.Errorf("second delete error = %v, want ErrReportNotFound", err)
		}
		if err := svc.DeleteReport(ctx, ""); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("empty id error = %v, want ErrInvalidRequest", err)
		}
	})
}
