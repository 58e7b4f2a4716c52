package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/launchlens/launchlens_api/internal/config"
	"github.com/launchlens/launchlens_api/internal/utils"
)

// MediaService uploads report images to S3 using AWS Signature V4.
type MediaService struct {
	bucket          string
	region          string
	accessKeyID     string
	secretAccessKey string
	httpClient      *http.Client
}

// NewMediaService creates a new MediaService.
func NewMediaService(cfg *config.S3Config) *MediaService {
	return &MediaService{
		bucket:          cfg.Bucket,
		region:          cfg.Region,
		accessKeyID:     cfg.AccessKeyID,
		secretAccessKey: cfg.SecretAccessKey,
		httpClient:      &http.Client{Timeout: 60 * time.Second},
	}
}

// UploadReportImage stores a product image under a timestamp-prefixed key
// derived from the sanitized original filename and returns the public URL.
// Failures surface as UploadError with the backend's detail; the caller must
// not create a report row referencing a failed upload.
func (s *MediaService) UploadReportImage(ctx context.Context, data []byte, originalName, mimeType string) (string, error) {
	key := fmt.Sprintf("reports/%d-%s", time.Now().UnixMilli(), SanitizeFilename(originalName))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.objectURL(key), bytes.NewReader(data))
	if err != nil {
		return "", &utils.UploadError{Detail: err.Error()}
	}

	now := time.Now().UTC()
	amzDate := now.Format("20060102T150405Z")
	dateStamp := now.Format("20060102")
	payloadHash := sha256Hex(data)

	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("Host", s.host())
	req.Header.Set("X-Amz-Date", amzDate)
	req.Header.Set("X-Amz-Content-Sha256", payloadHash)
	req.Header.Set("Authorization", s.authorization(req, payloadHash, amzDate, dateStamp))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Image upload request failed")
		return "", &utils.UploadError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		log.Error().Str("key", key).Int("status", resp.StatusCode).Str("response", string(body)).Msg("Image upload rejected")
		return "", &utils.UploadError{Detail: fmt.Sprintf("S3 returned %d: %s", resp.StatusCode, string(body))}
	}

	log.Info().Str("key", key).Int("bytes", len(data)).Msg("Image uploaded")
	return s.objectURL(key), nil
}

// DeleteObject removes an uploaded object by its public URL. Used as
// best-effort compensation when the report row insert fails after upload.
func (s *MediaService) DeleteObject(ctx context.Context, objectURL string) error {
	key, ok := s.keyFromURL(objectURL)
	if !ok {
		return fmt.Errorf("url does not belong to bucket %s: %s", s.bucket, objectURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.objectURL(key), nil)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	amzDate := now.Format("20060102T150405Z")
	dateStamp := now.Format("20060102")
	payloadHash := sha256Hex(nil)

	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Host", s.host())
	req.Header.Set("X-Amz-Date", amzDate)
	req.Header.Set("X-Amz-Content-Sha256", payloadHash)
	req.Header.Set("Authorization", s.authorization(req, payloadHash, amzDate, dateStamp))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("S3 delete returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func (s *MediaService) host() string {
	return fmt.Sprintf("%s.s3.%s.amazonaws.com", s.bucket, s.region)
}

func (s *MediaService) objectURL(key string) string {
	return fmt.Sprintf("https://%s/%s", s.host(), key)
}

func (s *MediaService) keyFromURL(objectURL string) (string, bool) {
	prefix := "https://" + s.host() + "/"
	if !strings.HasPrefix(objectURL, prefix) {
		return "", false
	}
	return strings.TrimPrefix(objectURL, prefix), true
}

// authorization builds the AWS Signature V4 authorization header for req.
func (s *MediaService) authorization(req *http.Request, payloadHash, amzDate, dateStamp string) string {
	const service = "s3"
	signedHeaders := "content-type;host;x-amz-content-sha256;x-amz-date"

	var canonicalHeaders strings.Builder
	for _, h := range strings.Split(signedHeaders, ";") {
		canonicalHeaders.WriteString(h + ":" + strings.TrimSpace(req.Header.Get(h)) + "\n")
	}

	canonicalRequest := strings.Join([]string{
		req.Method,
		req.URL.Path,
		"", // no query string
		canonicalHeaders.String(),
		signedHeaders,
		payloadHash,
	}, "\n")

	scope := fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, s.region, service)
	stringToSign := strings.Join([]string{
		"AWS4-HMAC-SHA256",
		amzDate,
		scope,
		sha256Hex([]byte(canonicalRequest)),
	}, "\n")

	key := hmacSHA256([]byte("AWS4"+s.secretAccessKey), []byte(dateStamp))
	key = hmacSHA256(key, []byte(s.region))
	key = hmacSHA256(key, []byte(service))
	key = hmacSHA256(key, []byte("aws4_request"))
	signature := hex.EncodeToString(hmacSHA256(key, []byte(stringToSign)))

	return fmt.Sprintf("AWS4-HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		s.accessKeyID, scope, signedHeaders, signature)
}

var (
	disallowedChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	separatorRuns   = regexp.MustCompile(`[._-]{2,}`)
)

// SanitizeFilename strips a filename to alphanumerics, dots, and dashes,
// collapses repeated separators, and trims leading/trailing separators.
// An empty result falls back to a generic name.
func SanitizeFilename(name string) string {
	name = disallowedChars.ReplaceAllString(name, "-")
	name = separatorRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, "._-")
	if name == "" {
		return "image"
	}
	return name
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
