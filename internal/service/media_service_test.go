package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/launchlens/launchlens_api/internal/config"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean name", "mug.png", "mug.png"},
		{"spaces", "product photo.png", "product-photo.png"},
		{"path traversal", "../../etc/passwd", "etc-passwd"},
		{"unicode stripped", "látte-ärt.jpg", "l-tte-rt.jpg"},
		{"separator runs collapsed", "a___b...c.png", "a-b-c.png"},
		{"only junk", "???", "image"},
		{"empty", "", "image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestKeyFromURL(t *testing.T) {
	svc := NewMediaService(&config.S3Config{Bucket: "launchlens", Region: "ap-southeast-1"})

	key, ok := svc.keyFromURL("https://launchlens.s3.ap-southeast-1.amazonaws.com/reports/1-mug.png")
	assert.True(t, ok)
	assert.Equal(t, "reports/1-mug.png", key)

	_, ok = svc.keyFromURL("https://other-bucket.s3.ap-southeast-1.amazonaws.com/reports/1-mug.png")
	assert.False(t, ok)
}
