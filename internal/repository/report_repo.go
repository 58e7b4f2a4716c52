package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/launchlens/launchlens_api/internal/models"
)

// ReportRepository handles data access for marketing reports. It is the sole
// writer of report rows; reports are created once and only ever deleted,
// never updated.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new report and fills in the server-assigned id and
// created_at. Optional fields arrive as nil pointers and are written as
// explicit NULLs.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	const q = `
        INSERT INTO reports (
            product_name, product_category, one_sentence_pitch, key_features,
            materials, target_audience, competitors, variants,
            cost_of_goods, retail_price, promo_price, sales_channels,
            product_image, analysis
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        RETURNING id, created_at`

	return r.db.QueryRowxContext(ctx, q,
		report.ProductName,
		report.ProductCategory,
		report.OneSentencePitch,
		report.KeyFeatures,
		report.Materials,
		report.TargetAudience,
		report.Competitors,
		report.Variants,
		report.CostOfGoods,
		report.RetailPrice,
		report.PromoPrice,
		report.SalesChannels,
		report.ProductImage,
		report.Analysis,
	).Scan(&report.ID, &report.CreatedAt)
}

// List returns all reports ordered by creation time, most recent first.
// The listing UI depends on this ordering.
func (r *ReportRepository) List(ctx context.Context) ([]models.Report, error) {
	const q = `SELECT * FROM reports ORDER BY created_at DESC, id DESC`

	reports := []models.Report{}
	if err := r.db.SelectContext(ctx, &reports, q); err != nil {
		return nil, err
	}
	return reports, nil
}

// GetByID returns a single report by id, or (nil, nil) when no row matches.
// Absence is an expected outcome, not an error.
func (r *ReportRepository) GetByID(ctx context.Context, id int64) (*models.Report, error) {
	const q = `SELECT * FROM reports WHERE id = $1 LIMIT 1`

	var report models.Report
	if err := r.db.GetContext(ctx, &report, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}

// Delete removes a report by id. Deleting a nonexistent id is a no-op, so
// the operation is idempotent from the caller's perspective.
func (r *ReportRepository) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM reports WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// ListSummaries returns the trimmed view of all reports used as chat context.
func (r *ReportRepository) ListSummaries(ctx context.Context) ([]models.ReportSummary, error) {
	const q = `
        SELECT id, product_name, product_category, retail_price, promo_price
        FROM reports ORDER BY created_at DESC, id DESC`

	summaries := []models.ReportSummary{}
	if err := r.db.SelectContext(ctx, &summaries, q); err != nil {
		return nil, err
	}
	return summaries, nil
}
