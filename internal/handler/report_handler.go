package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/launchlens/launchlens_api/internal/models"
	"github.com/launchlens/launchlens_api/internal/service"
	"github.com/launchlens/launchlens_api/internal/utils"
)

// maxImageBytes caps uploaded product images at 10MB.
const maxImageBytes = 10 * 1024 * 1024

// ReportHandler handles report CRUD endpoints.
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// ListReports returns all saved reports, most recent first.
func (h *ReportHandler) ListReports(c *gin.Context) {
	reports, err := h.reportService.ListReports(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list reports")
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list reports")
		return
	}
	utils.Success(c, http.StatusOK, "Reports retrieved successfully", reports)
}

// GetReport returns a single report by id, or 404.
func (h *ReportHandler) GetReport(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	report, err := h.reportService.GetReport(c.Request.Context(), id)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("Failed to get report")
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get report")
		return
	}
	if report == nil {
		utils.Error(c, http.StatusNotFound, "NOT_FOUND", "Report not found")
		return
	}
	utils.Success(c, http.StatusOK, "Report retrieved successfully", report)
}

// DeleteReport removes a report by id. Deleting a nonexistent id succeeds.
func (h *ReportHandler) DeleteReport(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.reportService.DeleteReport(c.Request.Context(), id); err != nil {
		log.Error().Err(err).Int64("id", id).Msg("Failed to delete report")
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete report")
		return
	}
	utils.Success(c, http.StatusOK, "Report deleted", nil)
}

// CreateReport saves a report from either a multipart form (product fields +
// analysis JSON + optional image file) or a JSON body (with an optional
// productImage data URI).
func (h *ReportHandler) CreateReport(c *gin.Context) {
	var (
		raw       map[string]interface{}
		analysis  models.JSONDocument
		imageData []byte
		imageName string
		imageMime string
	)

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		form, err := c.MultipartForm()
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid multipart form")
			return
		}
		raw = formToMap(form.Value)

		if v, ok := raw["analysis"].(string); ok {
			analysis = models.JSONDocument(v)
			delete(raw, "analysis")
		}

		if files := form.File["productImage"]; len(files) > 0 {
			fh := files[0]
			if fh.Size > maxImageBytes {
				utils.Error(c, http.StatusBadRequest, "BAD_REQUEST", "Image exceeds 10MB limit")
				return
			}
			f, err := fh.Open()
			if err != nil {
				utils.Error(c, http.StatusBadRequest, "BAD_REQUEST", "Could not read image upload")
				return
			}
			imageData, err = io.ReadAll(f)
			f.Close()
			if err != nil {
				utils.Error(c, http.StatusBadRequest, "BAD_REQUEST", "Could not read image upload")
				return
			}
			imageName = fh.Filename
			imageMime = fh.Header.Get("Content-Type")
		}
	} else {
		if err := c.ShouldBindJSON(&raw); err != nil {
			utils.Error(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON body")
			return
		}
		if v, ok := raw["analysis"]; ok {
			encoded, err := json.Marshal(v)
			if err == nil {
				analysis = models.JSONDocument(encoded)
			}
			delete(raw, "analysis")
		}
		if uri, ok := raw["productImage"].(string); ok && strings.HasPrefix(uri, "data:") {
			imageData, imageMime = decodeDataURI(uri)
			imageName = "upload"
			delete(raw, "productImage")
		}
	}

	if len(analysis) == 0 || !json.Valid(analysis) {
		utils.ValidationFailed(c, []utils.FieldError{{Field: "analysis", Reason: "must be a valid JSON document"}})
		return
	}

	report, err := h.reportService.CreateReport(c.Request.Context(), raw, analysis, imageData, imageName, imageMime)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, "Report created", report)
}

// parseID extracts and validates the :id path parameter.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.Error(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid report id")
		return 0, false
	}
	return id, true
}

// formToMap converts multipart form values into the loosely-typed map the
// normalizer consumes. Repeated fields become arrays; a productData field
// holding stringified JSON is decoded so the envelope can be flattened.
func formToMap(values map[string][]string) map[string]interface{} {
	raw := make(map[string]interface{}, len(values))
	for key, vals := range values {
		switch {
		case len(vals) == 0:
			continue
		case key == "productData":
			var envelope map[string]interface{}
			if err := json.Unmarshal([]byte(vals[0]), &envelope); err == nil {
				raw[key] = envelope
			} else {
				raw[key] = vals[0]
			}
		case len(vals) == 1:
			raw[key] = vals[0]
		default:
			arr := make([]interface{}, len(vals))
			for i, v := range vals {
				arr[i] = v
			}
			raw[key] = arr
		}
	}
	return raw
}

// writeServiceError translates service-layer errors into envelope responses.
// Stack traces and raw upstream bodies are logged, never returned.
func writeServiceError(c *gin.Context, err error) {
	var verr *utils.ValidationError
	if errors.As(err, &verr) {
		utils.ValidationFailed(c, verr.Fields)
		return
	}

	var aerr *utils.UpstreamAnalysisError
	if errors.As(err, &aerr) {
		log.Error().Str("detail", aerr.Detail).Msg("Upstream analysis error")
		utils.Error(c, http.StatusInternalServerError, "ANALYSIS_FAILED", "Marketing analysis failed, please try again")
		return
	}

	var uerr *utils.UploadError
	if errors.As(err, &uerr) {
		log.Error().Str("detail", uerr.Detail).Msg("Image upload error")
		utils.Error(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Image upload failed, please try again")
		return
	}

	log.Error().Err(err).Msg("Unhandled service error")
	utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
}
