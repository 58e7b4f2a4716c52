package handler

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/launchlens/launchlens_api/internal/service"
	"github.com/launchlens/launchlens_api/internal/utils"
)

// AnalysisHandler handles the analyze-only endpoint.
type AnalysisHandler struct {
	reportService *service.ReportService
}

// NewAnalysisHandler constructs an AnalysisHandler.
func NewAnalysisHandler(reportService *service.ReportService) *AnalysisHandler {
	return &AnalysisHandler{reportService: reportService}
}

// Analyze runs the marketing analysis for a submitted product without
// persisting anything. An image arrives as a productImage data URI.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		utils.Error(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON body")
		return
	}

	var (
		imageData []byte
		imageMime string
	)
	if uri, ok := raw["productImage"].(string); ok && strings.HasPrefix(uri, "data:") {
		imageData, imageMime = decodeDataURI(uri)
	}

	result, err := h.reportService.AnalyzeOnly(c.Request.Context(), raw, imageData, imageMime)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Analysis complete", result)
}

// decodeDataURI splits a "data:<mime>;base64,<payload>" string into bytes
// and mime type. Malformed input yields nil bytes; downstream treats that
// as "no image".
func decodeDataURI(uri string) ([]byte, string) {
	header, payload, found := strings.Cut(uri, ",")
	if !found {
		return nil, ""
	}
	mime := strings.TrimPrefix(header, "data:")
	mime = strings.TrimSuffix(mime, ";base64")

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ""
	}
	return data, mime
}
