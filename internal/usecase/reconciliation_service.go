package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ticketcheck/backend/internal/domain"
)

// ReconciliationConfig holds configuration for the reconciliation service
type ReconciliationConfig struct {
	ReportTTL          time.Duration
	QuantityTolerance  decimal.Decimal
	AddressThreshold   float64
	EnableDebugLogging bool
}

// ReconcileRequest carries the raw documents of one run
type ReconcileRequest struct {
	WOName     string
	WOData     []byte
	POName     string
	POData     []byte
	StyleSheet []byte // optional
}

// ReconciliationService runs the full WO/PO reconciliation pipeline and
// keeps the resulting reports.
type ReconciliationService struct {
	reader    domain.DocumentReader
	styles    domain.StyleSheetReader
	reports   domain.ReportRepository
	exporter  domain.ReportExporter
	woItems   *WOItemExtractor
	poItems   *POItemExtractor
	matcher   *MatchingService
	addresses *AddressComparator
	reportTTL time.Duration
	logger    logrus.FieldLogger
	now       func() time.Time
	newID     func() string
}

// NewReconciliationService creates a new reconciliation service with dependencies
func NewReconciliationService(
	reader domain.DocumentReader,
	styles domain.StyleSheetReader,
	reports domain.ReportRepository,
	exporter domain.ReportExporter,
	config ReconciliationConfig,
	logger logrus.FieldLogger,
) *ReconciliationService {
	if logger == nil {
		logger = discardLogger()
	}

	reportTTL := config.ReportTTL
	if reportTTL == 0 {
		reportTTL = 24 * time.Hour // Default 1 day
	}

	return &ReconciliationService{
		reader:    reader,
		styles:    styles,
		reports:   reports,
		exporter:  exporter,
		woItems:   NewWOItemExtractor(logger, config.EnableDebugLogging),
		poItems:   NewPOItemExtractor(logger, config.EnableDebugLogging),
		matcher:   NewMatchingService(MatchConfig{QuantityTolerance: config.QuantityTolerance, EnableDebugLogging: config.EnableDebugLogging}, logger),
		addresses: NewAddressComparator(config.AddressThreshold),
		reportTTL: reportTTL,
		logger:    logger.WithField("component", "reconciliation"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Reconcile reads both documents, extracts fields and items, matches them and
// stores the assembled report.
// Flow: read -> extract -> sort -> match -> compare -> assemble -> store
func (s *ReconciliationService) Reconcile(ctx context.Context, req *ReconcileRequest) (*domain.Report, error) {
	if req == nil || len(req.WOData) == 0 || len(req.POData) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	var sheetStyles []string
	if len(req.StyleSheet) > 0 {
		if s.styles == nil {
			return nil, domain.ErrUnsupportedStyleSheet
		}
		styles, err := s.styles.ReadStyles(ctx, req.StyleSheet)
		if err != nil {
			return nil, err
		}
		sheetStyles = styles
	}

	woDoc, err := s.read(ctx, domain.SideWO, req.WOName, req.WOData)
	if err != nil {
		return nil, err
	}
	poDoc, err := s.read(ctx, domain.SidePO, req.POName, req.POData)
	if err != nil {
		return nil, err
	}

	report := s.assemble(woDoc, poDoc, sheetStyles)
	matched, unmatched, err := s.matcher.Match(ctx, report.WOItems, report.POItems)
	if err != nil {
		return nil, err
	}
	report.Matched = matched
	report.Unmatched = unmatched
	report.Summary = summarize(report)
	report.Verdict = verdict(report)

	s.logger.WithFields(logrus.Fields{
		"report_id": report.ID,
		"po_number": report.References.PONumber,
		"po_format": report.POFormat,
		"wo_items":  report.Summary.WOItemCount,
		"po_items":  report.Summary.POItemCount,
		"verdict":   report.Verdict,
	}).Info("reconciliation complete")

	if err := s.reports.Save(ctx, report, s.reportTTL); err != nil {
		// Report is still returned to the caller
		s.logger.WithError(err).WithField("report_id", report.ID).Warn("failed to store report")
	}
	return report, nil
}

// GetReport returns a stored report
func (s *ReconciliationService) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	if id == "" {
		return nil, domain.ErrInvalidRequest
	}
	return s.reports.Get(ctx, id)
}

// ExportReport renders a stored report as a workbook
func (s *ReconciliationService) ExportReport(ctx context.Context, id string) ([]byte, error) {
	report, err := s.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := s.exporter.Export(ctx, report)
	if err != nil {
		return nil, fmt.Errorf("export report %s: %w", id, err)
	}
	return data, nil
}

// DeleteReport discards a stored report before its TTL runs out
func (s *ReconciliationService) DeleteReport(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidRequest
	}
	if err := s.reports.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("report_id", id).Info("report deleted")
	return nil
}

func (s *ReconciliationService) read(ctx context.Context, side domain.Side, name string, data []byte) (*domain.Document, error) {
	doc, err := s.reader.Read(ctx, name, data)
	if err != nil {
		return nil, domain.NewReaderError(side, err)
	}
	if doc == nil {
		return nil, domain.NewReaderError(side, fmt.Errorf("no document returned for %q", name))
	}
	return doc, nil
}

// assemble runs extraction and the comparators; matching is left to the caller
func (s *ReconciliationService) assemble(woDoc, poDoc *domain.Document, sheetStyles []string) *domain.Report {
	woFields := ExtractWOFields(woDoc)
	poFields := ExtractPOFields(poDoc)

	styleOverride := ""
	if len(sheetStyles) > 0 {
		styleOverride = sheetStyles[0]
	}

	woItems := s.woItems.Extract(woDoc, woFields.ProductCodes)
	format, poItems := s.poItems.Extract(poDoc, styleOverride)
	SortItemsBySize(woItems)
	SortItemsBySize(poItems)

	if len(woItems) == 0 {
		woFields.Warnings = append(woFields.Warnings, "no line items found")
	}
	if len(poItems) == 0 {
		poFields.Warnings = append(poFields.Warnings, "no line items found")
	}

	annotation := poFields.StyleNumbers
	if len(sheetStyles) > 0 {
		annotation = sheetStyles
	}

	return &domain.Report{
		ID:              s.newID(),
		CreatedAt:       s.now().UTC(),
		WODocument:      woDoc.Name,
		PODocument:      poDoc.Name,
		POFormat:        format,
		WOFields:        woFields,
		POFields:        poFields,
		WOItems:         woItems,
		POItems:         poItems,
		Address:         s.addresses.Compare(woFields, poFields),
		Codes:           CompareCodeSets(woItems, poItems),
		PositionalCodes: CompareCodesByPosition(woItems, poItems),
		References:      buildReferences(woFields, poFields, annotation, woItems, poItems),
	}
}

func summarize(r *domain.Report) domain.Summary {
	full := 0
	for _, m := range r.Matched {
		if m.Status == domain.StatusFullMatch {
			full++
		}
	}
	return domain.Summary{
		WOItemCount:    len(r.WOItems),
		POItemCount:    len(r.POItems),
		FullMatchCount: full,
		MismatchCount:  len(r.Unmatched),
	}
}

// verdict is PERFECT MATCH! only when the addresses agree, every positional
// code row agrees, every matched row is a Full Match and nothing is left
// unmatched.
func verdict(r *domain.Report) string {
	if !r.Address.Match || !codesSatisfied(r.PositionalCodes) {
		return domain.VerdictNotPerfect
	}
	if len(r.Matched) == 0 || len(r.Unmatched) > 0 {
		return domain.VerdictNotPerfect
	}
	for _, m := range r.Matched {
		if m.Status != domain.StatusFullMatch {
			return domain.VerdictNotPerfect
		}
	}
	return domain.VerdictPerfect
}

// buildReferences picks the values a run is filed under: the first WO product
// code, the first reference style (annotation, then WO styles, then PO
// styles) and the PO number.
func buildReferences(wo domain.WOFields, po domain.POFields, annotation []string, woItems, poItems []domain.LineItem) domain.References {
	refs := append([]string(nil), annotation...)
	for _, item := range woItems {
		refs = append(refs, item.Style)
	}
	for _, item := range poItems {
		refs = append(refs, item.Style)
	}

	out := domain.References{PONumber: po.PONumber}
	if len(wo.ProductCodes) > 0 {
		out.ProductCode = wo.ProductCodes[0]
	}
	for _, r := range uniqueStrings(refs) {
		if r != "" {
			out.Reference = r
			break
		}
	}
	return out
}
