package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() map[string]interface{} {
	return map[string]interface{}{
		"productName":      "Trail Mug",
		"productCategory":  "Outdoor",
		"oneSentencePitch": "A titanium mug for backpackers.",
		"keyFeatures":      "Light, durable, nests with cook kit",
		"targetAudience":   "Ultralight hikers",
		"costOfGoods":      "4.50",
		"retailPrice":      "24",
		"salesChannels":    []interface{}{"Online", "Retail"},
	}
}

func TestProductFlattensEnvelope(t *testing.T) {
	raw := map[string]interface{}{
		"productData": map[string]interface{}{
			"productName": "Inner Name",
			"materials":   "Titanium",
		},
		"productName": "Outer Name",
	}

	norm := Product(raw)

	// Explicit top-level values win over the envelope.
	assert.Equal(t, "Outer Name", norm["productName"])
	assert.Equal(t, "Titanium", norm["materials"])
	assert.NotContains(t, norm, "productData")
}

func TestProductDropsEmptyOptionalFields(t *testing.T) {
	raw := validSubmission()
	raw["materials"] = "   "
	raw["variants"] = ""

	norm := Product(raw)

	assert.NotContains(t, norm, "materials")
	assert.NotContains(t, norm, "variants")
}

func TestProductPreservesZeroPrice(t *testing.T) {
	raw := validSubmission()
	raw["costOfGoods"] = float64(0)
	raw["promoPrice"] = ""

	norm := Product(raw)

	// Zero is a value; empty string is absence.
	assert.Equal(t, "0", norm["costOfGoods"])
	assert.NotContains(t, norm, "promoPrice")
}

func TestProductStripsDebugNoise(t *testing.T) {
	raw := validSubmission()
	raw["materials"] = "Titanium console.log(payload)\n{ junk: true }\nmore junk"
	raw["competitors"] = "Acme [object Object]\nleftover"

	norm := Product(raw)

	assert.Equal(t, "Titanium console.log(payload)", norm["materials"])
	assert.Equal(t, "Acme [object Object]", norm["competitors"])
}

func TestProductLeavesCleanMultilineTextAlone(t *testing.T) {
	raw := validSubmission()
	raw["materials"] = "Titanium\nSilicone lid"

	norm := Product(raw)

	assert.Equal(t, "Titanium\nSilicone lid", norm["materials"])
}

func TestValidateRoundTrip(t *testing.T) {
	input, verr := Validate(Product(validSubmission()))
	require.Nil(t, verr)

	assert.Equal(t, "Trail Mug", input.ProductName)
	assert.Equal(t, "4.50", input.CostOfGoods)
	assert.Equal(t, "24", input.RetailPrice)
	assert.Equal(t, []string{"Online", "Retail"}, input.SalesChannels)
	assert.Nil(t, input.Variants)
	assert.Nil(t, input.PromoPrice)
}

func TestValidateReportsEveryMissingField(t *testing.T) {
	_, verr := Validate(Product(map[string]interface{}{}))
	require.NotNil(t, verr)

	byField := map[string]string{}
	for _, f := range verr.Fields {
		byField[f.Field] = f.Reason
	}
	assert.Equal(t, "is required", byField["productName"])
	assert.Equal(t, "is required", byField["retailPrice"])
	assert.Equal(t, "at least one sales channel is required", byField["salesChannels"])
}

func TestValidateRejectsNegativePrice(t *testing.T) {
	raw := validSubmission()
	raw["retailPrice"] = "-5"
	raw["promoPrice"] = "-1"

	_, verr := Validate(Product(raw))
	require.NotNil(t, verr)

	byField := map[string]string{}
	for _, f := range verr.Fields {
		byField[f.Field] = f.Reason
	}
	assert.Equal(t, "must be a non-negative number", byField["retailPrice"])
	assert.Equal(t, "must be a non-negative number", byField["promoPrice"])
}

func TestValidateAcceptsZeroPrices(t *testing.T) {
	raw := validSubmission()
	raw["costOfGoods"] = "0"
	raw["retailPrice"] = "0"

	input, verr := Validate(Product(raw))
	require.Nil(t, verr)
	assert.Equal(t, "0", input.CostOfGoods)
	assert.Equal(t, "0", input.RetailPrice)
}

func TestCoerceNumeric(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"nil", nil, ""},
		{"empty string", "", ""},
		{"string with spaces", " 12.5 ", "12.5"},
		{"float without noise", float64(24), "24"},
		{"float with fraction", float64(4.5), "4.5"},
		{"zero float", float64(0), "0"},
		{"int", 12, "12"},
		{"bool is unset", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceNumeric(tt.in))
		})
	}
}

func TestCoerceStringArray(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want []string
	}{
		{"nil", nil, []string{}},
		{"plain slice", []interface{}{"Online", "Retail"}, []string{"Online", "Retail"}},
		{"string slice", []string{"Online"}, []string{"Online"}},
		{"json encoded string", `["Online","Retail"]`, []string{"Online", "Retail"}},
		{"comma separated", "Online, Retail , ", []string{"Online", "Retail"}},
		{"single value", "Online", []string{"Online"}},
		{"nested json element", []interface{}{"Online", `["Retail","Direct"]`}, []string{"Online", "Retail", "Direct"}},
		{"empty entries dropped", []interface{}{"", "Online", "  "}, []string{"Online"}},
		{"unusable shape", 42, []string{}},
		{"empty string", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceStringArray(tt.in))
		})
	}
}

func TestCoerceStringArrayIsIdempotent(t *testing.T) {
	first := CoerceStringArray([]interface{}{"Online", `["Retail","Direct"]`})
	second := CoerceStringArray(first)
	assert.Equal(t, first, second)
}

func TestCoerceStringArrayFlattensOneLevelOnly(t *testing.T) {
	// The inner-inner array is not decoded again; its elements survive as
	// literals of the once-decoded level.
	got := CoerceStringArray([]interface{}{`["A","[\"B\",\"C\"]"]`})
	assert.Equal(t, []string{"A", `["B","C"]`}, got)
}
