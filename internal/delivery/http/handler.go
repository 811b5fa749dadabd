package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ticketcheck/backend/internal/domain"
	"github.com/ticketcheck/backend/internal/infrastructure/xlsx"
	"github.com/ticketcheck/backend/internal/usecase"
)

// Multipart field names of a reconciliation upload
const (
	fieldWO     = "wo"
	fieldPO     = "po"
	fieldStyles = "styles"
)

// Reconciler is the reconciliation use case as seen by the handlers
type Reconciler interface {
	Reconcile(ctx context.Context, req *usecase.ReconcileRequest) (*domain.Report, error)
	GetReport(ctx context.Context, id string) (*domain.Report, error)
	ExportReport(ctx context.Context, id string) ([]byte, error)
	DeleteReport(ctx context.Context, id string) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	reconciler     Reconciler
	maxUploadBytes int64
	logger         logrus.FieldLogger
}

// NewHandler creates a new HTTP handler
func NewHandler(reconciler Reconciler, maxUploadBytes int64, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		reconciler:     reconciler,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "ticketcheck-backend",
		"version": "1.0.0",
	})
}

// CreateReconciliation handles a multipart upload of a WO and a PO (and
// optionally a style sheet) and returns the assembled report.
func (h *Handler) CreateReconciliation(c *gin.Context) {
	if h.reconciler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reconciliation service not configured"})
		return
	}
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	req := &usecase.ReconcileRequest{}
	var err error
	if req.WOName, req.WOData, err = formFile(c, fieldWO, true); err != nil {
		h.respondError(c, err)
		return
	}
	if req.POName, req.POData, err = formFile(c, fieldPO, true); err != nil {
		h.respondError(c, err)
		return
	}
	if _, req.StyleSheet, err = formFile(c, fieldStyles, false); err != nil {
		h.respondError(c, err)
		return
	}

	report, err := h.reconciler.Reconcile(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Location", "/api/v1/reconciliations/"+report.ID)
	c.JSON(http.StatusCreated, report)
}

// GetReconciliation returns a stored report
func (h *Handler) GetReconciliation(c *gin.Context) {
	if h.reconciler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reconciliation service not configured"})
		return
	}

	report, err := h.reconciler.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportReconciliation downloads a stored report as an XLSX workbook
func (h *Handler) ExportReconciliation(c *gin.Context) {
	if h.reconciler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reconciliation service not configured"})
		return
	}

	id := c.Param("id")
	data, err := h.reconciler.ExportReport(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="reconciliation-%s.xlsx"`, id))
	c.Data(http.StatusOK, xlsx.ContentType, data)
}

// DeleteReconciliation discards a stored report
func (h *Handler) DeleteReconciliation(c *gin.Context) {
	if h.reconciler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reconciliation service not configured"})
		return
	}

	if err := h.reconciler.DeleteReport(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// uploadError is a client-side problem with the multipart form
type uploadError struct {
	msg string
}

func (e *uploadError) Error() string { return e.msg }

// formFile reads one uploaded file. A missing optional file is not an error.
func formFile(c *gin.Context, field string, required bool) (string, []byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, err
		}
		if !required && errors.Is(err, http.ErrMissingFile) {
			return "", nil, nil
		}
		return "", nil, &uploadError{msg: fmt.Sprintf("%s file is required", field)}
	}

	data, err := readUpload(fh)
	if err != nil {
		return "", nil, err
	}
	if required && len(data) == 0 {
		return "", nil, &uploadError{msg: fmt.Sprintf("%s file is empty", field)}
	}
	return fh.Filename, data, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	return io.ReadAll(f)
}

// respondError maps use case errors onto HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	var (
		readerErr *domain.ReaderError
		uploadErr *uploadError
		tooLarge  *http.MaxBytesError
	)

	switch {
	case errors.As(err, &uploadErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": uploadErr.Error()})
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit),
		})
	case errors.As(err, &readerErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": readerErr.Error(),
			"side":  readerErr.Side,
		})
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrUnsupportedStyleSheet):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrReportNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
	default:
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
