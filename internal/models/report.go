package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
)

// ProductInput is the canonical, validated shape of a product submission.
// Optional fields use pointers so "not provided" survives the round trip to
// the database as an explicit NULL rather than an empty string.
type ProductInput struct {
	ProductName      string   `json:"productName"`
	ProductCategory  string   `json:"productCategory"`
	OneSentencePitch string   `json:"oneSentencePitch"`
	KeyFeatures      string   `json:"keyFeatures"`
	Materials        string   `json:"materials"`
	TargetAudience   string   `json:"targetAudience"`
	Competitors      string   `json:"competitors"`
	Variants         *string  `json:"variants"`
	CostOfGoods      string   `json:"costOfGoods"`
	RetailPrice      string   `json:"retailPrice"`
	PromoPrice       *string  `json:"promoPrice"`
	SalesChannels    []string `json:"salesChannels"`

	// ProductImage holds a data URI on submission. Once the report is saved
	// it is replaced by the stored object URL; the original bytes are never
	// persisted on the row.
	ProductImage *string `json:"productImage"`
}

// Report is a persisted ProductInput plus its generated analysis document.
// Fields are tagged for both DB scanning and JSON serialization; the column
// names follow the storage backend's snake_case convention.
type Report struct {
	ID               int64          `db:"id" json:"id"`
	ProductName      string         `db:"product_name" json:"productName"`
	ProductCategory  string         `db:"product_category" json:"productCategory"`
	OneSentencePitch string         `db:"one_sentence_pitch" json:"oneSentencePitch"`
	KeyFeatures      string         `db:"key_features" json:"keyFeatures"`
	Materials        string         `db:"materials" json:"materials"`
	TargetAudience   string         `db:"target_audience" json:"targetAudience"`
	Competitors      string         `db:"competitors" json:"competitors"`
	Variants         *string        `db:"variants" json:"variants"`
	CostOfGoods      string         `db:"cost_of_goods" json:"costOfGoods"`
	RetailPrice      string         `db:"retail_price" json:"retailPrice"`
	PromoPrice       *string        `db:"promo_price" json:"promoPrice"`
	SalesChannels    pq.StringArray `db:"sales_channels" json:"salesChannels"`
	ProductImage     *string        `db:"product_image" json:"productImage"`
	Analysis         JSONDocument   `db:"analysis" json:"analysis"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
}

// ReportSummary is the trimmed view of a report used as chat context.
type ReportSummary struct {
	ID              int64   `db:"id" json:"id"`
	ProductName     string  `db:"product_name" json:"productName"`
	ProductCategory string  `db:"product_category" json:"productCategory"`
	RetailPrice     string  `db:"retail_price" json:"retailPrice"`
	PromoPrice      *string `db:"promo_price" json:"promoPrice"`
}

// NewReport builds an unsaved Report from a validated input, the analysis
// document, and the resolved image URL (nil when no image was uploaded).
func NewReport(input *ProductInput, analysis JSONDocument, imageURL *string) *Report {
	return &Report{
		ProductName:      input.ProductName,
		ProductCategory:  input.ProductCategory,
		OneSentencePitch: input.OneSentencePitch,
		KeyFeatures:      input.KeyFeatures,
		Materials:        input.Materials,
		TargetAudience:   input.TargetAudience,
		Competitors:      input.Competitors,
		Variants:         input.Variants,
		CostOfGoods:      input.CostOfGoods,
		RetailPrice:      input.RetailPrice,
		PromoPrice:       input.PromoPrice,
		SalesChannels:    pq.StringArray(input.SalesChannels),
		ProductImage:     imageURL,
		Analysis:         analysis,
	}
}

// JSONDocument is an opaque JSON document stored in a jsonb column. The
// analysis schema is owned by the prompt, not enforced on read, so the value
// is carried verbatim between the model, the database, and the caller.
type JSONDocument json.RawMessage

// Value implements driver.Valuer.
func (d JSONDocument) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	return []byte(d), nil
}

// Scan implements sql.Scanner.
func (d *JSONDocument) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case []byte:
		*d = append((*d)[:0], v...)
		return nil
	case string:
		*d = JSONDocument(v)
		return nil
	default:
		return errors.New("unsupported type for JSONDocument")
	}
}

// MarshalJSON returns the raw document, or null when empty.
func (d JSONDocument) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

// UnmarshalJSON stores the raw bytes verbatim.
func (d *JSONDocument) UnmarshalJSON(data []byte) error {
	*d = append((*d)[:0], data...)
	return nil
}
