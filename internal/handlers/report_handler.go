package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dukemzone/kpi-portal/internal/services"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ReportHandler serves performance matrices as JSON, CSV or XLSX
type ReportHandler struct {
	reportService *services.ReportService
	logger        logrus.FieldLogger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *services.ReportService, logger logrus.FieldLogger) *ReportHandler {
	return &ReportHandler{reportService: reportService, logger: logger}
}

type exportable interface {
	CSV() ([]byte, error)
	XLSX() ([]byte, error)
}

// Matrix handles GET /api/v1/reports/matrix/:staffId?format=json|csv|xlsx
func (h *ReportHandler) Matrix(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	matrix, err := h.reportService.PerformanceMatrix(userID, c.Param("staffId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.render(c, matrix, "Performance_"+matrix.Username, matrix)
}

// Aggregate handles GET /api/v1/reports/aggregate?format=json|csv|xlsx
func (h *ReportHandler) Aggregate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	aggregate, err := h.reportService.BranchAggregate(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.render(c, aggregate, "Branch_Aggregate", aggregate)
}

func (h *ReportHandler) render(c *gin.Context, body interface{}, basename string, doc exportable) {
	var (
		data        []byte
		err         error
		contentType string
		ext         string
	)

	switch strings.ToLower(c.DefaultQuery("format", "json")) {
	case "json":
		c.JSON(http.StatusOK, body)
		return
	case "csv":
		data, err = doc.CSV()
		contentType, ext = contentTypeCSV, ".csv"
	case "xlsx":
		data, err = doc.XLSX()
		contentType, ext = contentTypeXLSX, ".xlsx"
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "format must be json, csv or xlsx",
			Code:    "VALIDATION_FAILED",
		})
		return
	}

	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+basename+ext+`"`)
	c.Data(http.StatusOK, contentType, data)
}
