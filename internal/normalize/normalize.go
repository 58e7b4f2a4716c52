// Package normalize absorbs the ambiguity of how multipart/form and JSON
// callers encode product submissions, reshaping them into the canonical
// layout and judging them against the business rules. Normalization never
// rejects; rejection is Validate's job.
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/launchlens/launchlens_api/internal/models"
	"github.com/launchlens/launchlens_api/internal/utils"
)

// envelopeKey wraps all product fields on some caller paths.
const envelopeKey = "productData"

var requiredTextFields = []string{
	"productName",
	"productCategory",
	"oneSentencePitch",
	"keyFeatures",
	"targetAudience",
}

var optionalTextFields = []string{
	"materials",
	"competitors",
	"variants",
	"productImage",
}

var numericFields = []string{"costOfGoods", "retailPrice", "promoPrice"}

// noiseFields may have captured pasted console output; they are truncated to
// their first line when a debug marker is present.
var noiseFields = map[string]bool{
	"materials":      true,
	"variants":       true,
	"targetAudience": true,
	"competitors":    true,
}

var noiseMarkers = []string{"console.log(", "[object Object]"}

// Product reshapes a loosely-typed submission into the canonical field
// layout. The input map is not modified. Fields submitted as empty strings
// are dropped so optional-field checks treat them as absent.
func Product(raw map[string]interface{}) map[string]interface{} {
	norm := make(map[string]interface{}, len(raw))

	// Flatten the productData envelope first; explicit top-level values win.
	if inner, ok := raw[envelopeKey].(map[string]interface{}); ok {
		for k, v := range inner {
			norm[k] = v
		}
	}
	for k, v := range raw {
		if k == envelopeKey {
			continue
		}
		norm[k] = v
	}

	for _, field := range numericFields {
		if v, ok := norm[field]; ok {
			s := CoerceNumeric(v)
			if s == "" {
				delete(norm, field)
			} else {
				norm[field] = s
			}
		}
	}

	if v, ok := norm["salesChannels"]; ok {
		norm["salesChannels"] = CoerceStringArray(v)
	}

	for _, field := range append(append([]string{}, requiredTextFields...), optionalTextFields...) {
		v, ok := norm[field]
		if !ok {
			continue
		}
		s := strings.TrimSpace(asString(v))
		if noiseFields[field] {
			s = stripDebugNoise(s)
		}
		if s == "" {
			delete(norm, field)
		} else {
			norm[field] = s
		}
	}

	return norm
}

// Validate judges a normalized submission against the business rules and
// builds the canonical ProductInput. On failure it returns every offending
// field with its reason, never a single opaque message.
func Validate(norm map[string]interface{}) (*models.ProductInput, *utils.ValidationError) {
	var fields []utils.FieldError

	getText := func(field string) string {
		s, _ := norm[field].(string)
		return s
	}

	for _, field := range requiredTextFields {
		if getText(field) == "" {
			fields = append(fields, utils.FieldError{Field: field, Reason: "is required"})
		}
	}

	for _, field := range []string{"costOfGoods", "retailPrice"} {
		s := getText(field)
		if s == "" {
			fields = append(fields, utils.FieldError{Field: field, Reason: "is required"})
			continue
		}
		if !isNonNegativeDecimal(s) {
			fields = append(fields, utils.FieldError{Field: field, Reason: "must be a non-negative number"})
		}
	}
	if s := getText("promoPrice"); s != "" && !isNonNegativeDecimal(s) {
		fields = append(fields, utils.FieldError{Field: "promoPrice", Reason: "must be a non-negative number"})
	}

	channels, _ := norm["salesChannels"].([]string)
	if len(channels) == 0 {
		fields = append(fields, utils.FieldError{Field: "salesChannels", Reason: "at least one sales channel is required"})
	}

	if len(fields) > 0 {
		return nil, &utils.ValidationError{Fields: fields}
	}

	input := &models.ProductInput{
		ProductName:      getText("productName"),
		ProductCategory:  getText("productCategory"),
		OneSentencePitch: getText("oneSentencePitch"),
		KeyFeatures:      getText("keyFeatures"),
		Materials:        getText("materials"),
		TargetAudience:   getText("targetAudience"),
		Competitors:      getText("competitors"),
		CostOfGoods:      getText("costOfGoods"),
		RetailPrice:      getText("retailPrice"),
		SalesChannels:    channels,
	}
	if s := getText("variants"); s != "" {
		input.Variants = &s
	}
	if s := getText("promoPrice"); s != "" {
		input.PromoPrice = &s
	}
	if s := getText("productImage"); s != "" {
		input.ProductImage = &s
	}
	return input, nil
}

// CoerceNumeric normalizes a numeric-looking value to its string
// representation, preserving the numeric value. Empty strings coerce to ""
// (unset), which is distinct from "0".
func CoerceNumeric(v interface{}) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(n)
	case json.Number:
		return n.String()
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	default:
		return ""
	}
}

// CoerceStringArray normalizes the many shapes salesChannels arrives in:
// a JSON-encoded string, a comma-separated string, an array of strings, or
// an array whose elements are themselves JSON-encoded sub-arrays (a quirk of
// some form encoders). Sub-arrays are flattened one level. A value that
// cannot be coerced yields an empty slice so the validator raises the
// "at least one channel" error uniformly.
func CoerceStringArray(v interface{}) []string {
	switch val := v.(type) {
	case nil:
		return []string{}
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return []string{}
		}
		if decoded, ok := decodeJSONArray(s); ok {
			return flattenElements(decoded)
		}
		return splitAndTrim(s)
	case []string:
		elems := make([]interface{}, len(val))
		for i, e := range val {
			elems[i] = e
		}
		return flattenElements(elems)
	case []interface{}:
		return flattenElements(val)
	default:
		return []string{}
	}
}

// flattenElements resolves each element: a string that JSON-decodes to an
// array is spliced in place of itself (one level only); anything else is
// kept as a literal. Empty entries are dropped.
func flattenElements(elems []interface{}) []string {
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		s, ok := e.(string)
		if !ok {
			if lit := strings.TrimSpace(asString(e)); lit != "" {
				out = append(out, lit)
			}
			continue
		}
		if decoded, ok := decodeJSONArray(s); ok {
			for _, sub := range decoded {
				if lit := strings.TrimSpace(asString(sub)); lit != "" {
					out = append(out, lit)
				}
			}
			continue
		}
		if lit := strings.TrimSpace(s); lit != "" {
			out = append(out, lit)
		}
	}
	return out
}

// decodeJSONArray reports whether s is a JSON array and returns its elements.
func decodeJSONArray(s string) ([]interface{}, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") {
		return nil, false
	}
	var arr []interface{}
	if err := json.Unmarshal([]byte(s), &arr); err != nil {
		return nil, false
	}
	return arr, true
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// stripDebugNoise truncates a value to its first line when it looks like
// pasted console output.
func stripDebugNoise(s string) string {
	for _, marker := range noiseMarkers {
		if strings.Contains(s, marker) {
			line, _, _ := strings.Cut(s, "\n")
			return strings.TrimSpace(line)
		}
	}
	return s
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

func isNonNegativeDecimal(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && f >= 0
}
