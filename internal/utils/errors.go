package utils

import (
	"fmt"
	"strings"
)

// FieldError names a single offending input field and why it was rejected.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError carries per-field reasons so the caller can highlight the
// offending fields instead of receiving one opaque message.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// UpstreamAnalysisError indicates the generative model call failed or
// returned something that could not be parsed. Never retried automatically.
type UpstreamAnalysisError struct {
	Detail string
}

func (e *UpstreamAnalysisError) Error() string {
	return fmt.Sprintf("analysis failed: %s", e.Detail)
}

// UploadError indicates the object-storage backend rejected an image upload.
type UploadError struct {
	Detail string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("image upload failed: %s", e.Detail)
}
