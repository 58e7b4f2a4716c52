package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/launchlens/launchlens_api/internal/models"
	"github.com/launchlens/launchlens_api/internal/normalize"
)

// visualIdentityKey is the analysis sub-key the image critique is merged
// under.
const visualIdentityKey = "visualIdentity"

// reportStore is the persistence surface the service depends on.
type reportStore interface {
	Create(ctx context.Context, report *models.Report) error
	List(ctx context.Context) ([]models.Report, error)
	GetByID(ctx context.Context, id int64) (*models.Report, error)
	Delete(ctx context.Context, id int64) error
	ListSummaries(ctx context.Context) ([]models.ReportSummary, error)
}

// analysisGateway is the generative-model surface the service depends on.
type analysisGateway interface {
	Analyze(ctx context.Context, input *models.ProductInput) (models.JSONDocument, error)
	AnalyzeImage(ctx context.Context, imageData []byte, mimeType string) (string, error)
}

// imageStore is the object-storage surface the service depends on.
type imageStore interface {
	UploadReportImage(ctx context.Context, data []byte, originalName, mimeType string) (string, error)
	DeleteObject(ctx context.Context, objectURL string) error
}

// snapshotInvalidator drops the cached chat snapshot after writes.
type snapshotInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ReportService orchestrates the report use cases: analyze-only, create,
// list, get, delete. Errors from collaborators propagate unchanged except
// for the documented soft failure of the image critique.
type ReportService struct {
	store    reportStore
	gateway  analysisGateway
	media    imageStore
	snapshot snapshotInvalidator
}

// NewReportService creates a new ReportService. All collaborators are
// constructed once at process startup and injected here.
func NewReportService(store reportStore, gateway analysisGateway, media imageStore, snapshot snapshotInvalidator) *ReportService {
	return &ReportService{store: store, gateway: gateway, media: media, snapshot: snapshot}
}

// AnalysisResult always carries a usable analysis document. ImageWarning is
// set when the optional image critique failed; that path degrades instead of
// erroring.
type AnalysisResult struct {
	Document     models.JSONDocument `json:"analysis"`
	ImageWarning string              `json:"imageWarning,omitempty"`
}

// AnalyzeOnly normalizes and validates a submission, produces the marketing
// analysis, and, when an image is supplied, merges the visual critique into
// the document. Nothing is persisted.
func (s *ReportService) AnalyzeOnly(ctx context.Context, raw map[string]interface{}, imageData []byte, imageMime string) (*AnalysisResult, error) {
	input, verr := normalize.Validate(normalize.Product(raw))
	if verr != nil {
		return nil, verr
	}

	doc, err := s.gateway.Analyze(ctx, input)
	if err != nil {
		return nil, err
	}

	result := &AnalysisResult{Document: doc}
	if len(imageData) > 0 {
		critique, err := s.gateway.AnalyzeImage(ctx, imageData, imageMime)
		if err != nil {
			// Visual critique is an augmentation; its failure is logged and
			// reported as a warning, never raised to the caller.
			log.Warn().Err(err).Str("product", input.ProductName).Msg("Image analysis failed, continuing without visual identity")
			result.ImageWarning = "image analysis unavailable"
			return result, nil
		}
		merged, err := mergeVisualIdentity(doc, critique)
		if err != nil {
			log.Warn().Err(err).Msg("Could not merge visual identity into analysis document")
			result.ImageWarning = "image analysis unavailable"
			return result, nil
		}
		result.Document = merged
	}
	return result, nil
}

// CreateReport persists a validated submission together with its analysis
// document. When an image is supplied it is uploaded first and the stored
// object URL replaces the submitted image reference; the row is never
// created with a partial image reference.
func (s *ReportService) CreateReport(ctx context.Context, raw map[string]interface{}, analysis models.JSONDocument, imageData []byte, imageName, imageMime string) (*models.Report, error) {
	input, verr := normalize.Validate(normalize.Product(raw))
	if verr != nil {
		return nil, verr
	}

	var imageURL *string
	if len(imageData) > 0 {
		url, err := s.media.UploadReportImage(ctx, imageData, imageName, imageMime)
		if err != nil {
			return nil, err
		}
		imageURL = &url
	}

	report := models.NewReport(input, analysis, imageURL)
	if err := s.store.Create(ctx, report); err != nil {
		if imageURL != nil {
			// The upload already succeeded; without compensation the object
			// would be orphaned. Log the key either way so manual cleanup is
			// possible if the delete also fails.
			log.Error().Str("object_url", *imageURL).Err(err).Msg("Report create failed after image upload, removing orphaned object")
			if delErr := s.media.DeleteObject(ctx, *imageURL); delErr != nil {
				log.Error().Str("object_url", *imageURL).Err(delErr).Msg("Orphaned object cleanup failed, manual cleanup required")
			}
		}
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	s.invalidateSnapshot(ctx)
	return report, nil
}

// ListReports returns all reports, most recent first.
func (s *ReportService) ListReports(ctx context.Context) ([]models.Report, error) {
	return s.store.List(ctx)
}

// GetReport returns a report by id, or (nil, nil) when it does not exist.
func (s *ReportService) GetReport(ctx context.Context, id int64) (*models.Report, error) {
	return s.store.GetByID(ctx, id)
}

// DeleteReport removes a report by id. Deleting a nonexistent id succeeds.
func (s *ReportService) DeleteReport(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateSnapshot(ctx)
	return nil
}

func (s *ReportService) invalidateSnapshot(ctx context.Context) {
	if s.snapshot == nil {
		return
	}
	if err := s.snapshot.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate report snapshot cache")
	}
}

// mergeVisualIdentity adds the image critique to the analysis document under
// a fixed sub-key without touching the rest of the document.
func mergeVisualIdentity(doc models.JSONDocument, critique string) (models.JSONDocument, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, fmt.Errorf("analysis document is not an object: %w", err)
	}
	encoded, err := json.Marshal(critique)
	if err != nil {
		return nil, err
	}
	m[visualIdentityKey] = encoded
	merged, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return models.JSONDocument(merged), nil
}
