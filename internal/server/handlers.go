package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zhenghao/ledger-reporter/internal/excel"
	"github.com/zhenghao/ledger-reporter/internal/history"
	"github.com/zhenghao/ledger-reporter/internal/ledger"
	"github.com/zhenghao/ledger-reporter/internal/report"
	"github.com/zhenghao/ledger-reporter/internal/source"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	reports *report.Service
	runs    *history.Repository
	logger  *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(reports *report.Service, runs *history.Repository, logger *zap.Logger) *Handlers {
	return &Handlers{
		reports: reports,
		runs:    runs,
		logger:  logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// GenerateRequest is the body of POST /api/v1/reports/:templateID
type GenerateRequest struct {
	Date      string            `json:"date" binding:"required"`
	Paths     map[string]string `json:"paths" binding:"required"`
	OutputDir string            `json:"output_dir"`
}

// GenerateResponse mirrors one finished run in API responses
type GenerateResponse struct {
	OutputPath   string           `json:"output_path"`
	TargetDate   string           `json:"target_date"`
	AppendedRows int              `json:"appended_rows"`
	NoOp         bool             `json:"noop"`
	Warnings     []report.Warning `json:"warnings,omitempty"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// ListTemplates handles GET /api/v1/templates
func (h *Handlers) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.reports.Templates(),
	})
}

// GenerateReport handles POST /api/v1/reports/:templateID
func (h *Handlers) GenerateReport(c *gin.Context) {
	templateID := c.Param("templateID")

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body: " + err.Error(),
		})
		return
	}

	result, err := h.reports.Generate(c.Request.Context(), templateID, report.GenerateRequest{
		Paths:     req.Paths,
		DateInput: req.Date,
		OutputDir: req.OutputDir,
	})
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Report generation failed",
				zap.String("template_id", templateID),
				zap.Error(err))
		}
		c.JSON(status, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: GenerateResponse{
			OutputPath:   result.OutputPath,
			TargetDate:   result.YMD,
			AppendedRows: result.AppendedRows,
			NoOp:         result.NoOp,
			Warnings:     result.Warnings,
		},
	})
}

// ListHistory handles GET /api/v1/history
func (h *Handlers) ListHistory(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "run history is disabled"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	records, err := h.runs.List(limit)
	if err != nil {
		h.logger.Error("Failed to list run history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to retrieve run history"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// ExportHistory handles GET /api/v1/history/export
func (h *Handlers) ExportHistory(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "run history is disabled"})
		return
	}

	records, err := h.runs.List(0)
	if err != nil {
		h.logger.Error("Failed to export run history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to retrieve run history"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="run_history.csv"`)
	if err := history.ExportCSV(c.Writer, records); err != nil {
		h.logger.Error("Failed to write history CSV", zap.Error(err))
	}
}

// statusForError maps domain errors to HTTP status codes. Validation-class
// failures are the caller's fault; everything else is ours.
func statusForError(err error) int {
	var (
		notFound    *report.TemplateNotFoundError
		badDate     *ledger.InvalidDateError
		missing     *source.MissingSourceError
		unsupported *source.UnsupportedFileError
		tooLarge    *source.FileTooLargeError
		noSheet     *excel.SheetNotFoundError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &badDate),
		errors.As(err, &missing),
		errors.As(err, &unsupported),
		errors.As(err, &tooLarge),
		errors.As(err, &noSheet):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
