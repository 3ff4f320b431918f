package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tokosmart/restock-backend/internal/dataset"
	"github.com/tokosmart/restock-backend/internal/domain"
	"github.com/tokosmart/restock-backend/internal/service"
)

// RestockHandler exposes the recommendation pipelines over HTTP. Uploads
// are parsed in memory; nothing from the dataset is persisted.
type RestockHandler struct {
	svc *service.RestockService
}

func NewRestockHandler(svc *service.RestockService) *RestockHandler {
	return &RestockHandler{svc: svc}
}

// PredictHistory runs the historical-feature pipeline on an uploaded sales
// history file.
func (h *RestockHandler) PredictHistory(c *gin.Context) {
	h.runPipeline(c, h.svc.PredictFromHistory)
}

// PredictProjection runs the forward-projection pipeline on an uploaded
// current-stock file.
func (h *RestockHandler) PredictProjection(c *gin.Context) {
	h.runPipeline(c, h.svc.ProjectWeekAhead)
}

func (h *RestockHandler) runPipeline(
	c *gin.Context,
	run func(context.Context, *dataset.Table) (*domain.RecommendationSet, error),
) {
	table, err := readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	set, err := run(c.Request.Context(), table)
	if err != nil {
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Msg("pipeline run failed")
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	switch strings.ToLower(c.DefaultQuery("format", "json")) {
	case "csv":
		writeCSV(c, set)
	case "xlsx":
		writeXLSX(c, set)
	default:
		c.JSON(http.StatusOK, gin.H{
			"pipeline":      set.Pipeline,
			"generated_at":  set.GeneratedAt,
			"item_count":    len(set.Items),
			"total_restock": set.TotalRestock(),
			"items":         set.Items,
		})
	}
}

// ListRuns returns persisted run summaries.
func (h *RestockHandler) ListRuns(c *gin.Context) {
	limit := 20
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}

	runs, err := h.svc.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch runs"})
		return
	}

	c.JSON(http.StatusOK, runs)
}

// ExportRun streams a stored run as CSV or XLSX.
func (h *RestockHandler) ExportRun(c *gin.Context) {
	items, err := h.svc.GetRunItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	set := &domain.RecommendationSet{Items: items}
	if strings.ToLower(c.DefaultQuery("format", "csv")) == "xlsx" {
		writeXLSX(c, set)
		return
	}
	writeCSV(c, set)
}

func readUpload(c *gin.Context) (*dataset.Table, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("missing uploaded file: %w", err)
	}
	return parseUpload(header)
}

func parseUpload(header *multipart.FileHeader) (*dataset.Table, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("cannot open upload: %w", err)
	}
	defer f.Close()

	table, err := dataset.Read(f, header.Filename)
	if err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", header.Filename, err)
	}
	return table, nil
}

func writeCSV(c *gin.Context, set *domain.RecommendationSet) {
	c.Header("Content-Disposition", attachment("csv"))
	c.Header("Content-Type", "text/csv")
	if err := service.ResultTable(set).WriteCSV(c.Writer); err != nil {
		log.Error().Err(err).Msg("failed to stream csv export")
	}
}

func writeXLSX(c *gin.Context, set *domain.RecommendationSet) {
	c.Header("Content-Disposition", attachment("xlsx"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := service.ResultTable(set).WriteXLSXTo(c.Writer); err != nil {
		log.Error().Err(err).Msg("failed to stream xlsx export")
	}
}

func attachment(ext string) string {
	return fmt.Sprintf(`attachment; filename="rekomendasi_restock_%s.%s"`,
		time.Now().Format("20060102"), ext)
}

// statusForError maps the domain error taxonomy onto HTTP statuses.
func statusForError(err error) int {
	var schemaErr *domain.SchemaError
	var inferErr *domain.ModelInferenceError
	var loadErr *domain.ModelLoadError
	switch {
	case errors.As(err, &schemaErr):
		return http.StatusBadRequest
	case errors.As(err, &loadErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &inferErr):
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
