package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchlens/launchlens_api/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestDecodeDataURI(t *testing.T) {
	data, mime := decodeDataURI("data:image/png;base64,aGVsbG8=")
	assert.Equal(t, []byte("hello"), data)
	assert.Equal(t, "image/png", mime)

	data, _ = decodeDataURI("data:image/png;base64,%%%not-base64%%%")
	assert.Nil(t, data)

	data, _ = decodeDataURI("no comma here")
	assert.Nil(t, data)
}

func TestFormToMap(t *testing.T) {
	raw := formToMap(map[string][]string{
		"productName":   {"Trail Mug"},
		"salesChannels": {"Online", "Retail"},
		"productData":   {`{"materials":"Titanium"}`},
	})

	assert.Equal(t, "Trail Mug", raw["productName"])
	assert.Equal(t, []interface{}{"Online", "Retail"}, raw["salesChannels"])

	envelope, ok := raw["productData"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Titanium", envelope["materials"])
}

func TestFormToMapKeepsUndecodableEnvelopeAsString(t *testing.T) {
	raw := formToMap(map[string][]string{
		"productData": {"not json"},
	})
	assert.Equal(t, "not json", raw["productData"])
}

func TestParseIDRejectsGarbage(t *testing.T) {
	for _, bad := range []string{"abc", "0", "-3", "1.5"} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/v1/reports/"+bad, nil)
		c.Params = gin.Params{{Key: "id", Value: bad}}

		_, ok := parseID(c)
		assert.False(t, ok, "id %q should be rejected", bad)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestWriteServiceErrorMapsValidation(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/analyze", nil)

	writeServiceError(c, &utils.ValidationError{Fields: []utils.FieldError{
		{Field: "productName", Reason: "is required"},
	}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errObj, ok := body["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
}

func TestWriteServiceErrorMapsUpstreamFailure(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/analyze", nil)

	writeServiceError(c, &utils.UpstreamAnalysisError{Detail: "groq API error (500): boom"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errObj, _ := body["error"].(map[string]interface{})
	assert.Equal(t, "ANALYSIS_FAILED", errObj["code"])
	// Raw upstream detail stays server-side.
	assert.NotContains(t, w.Body.String(), "boom")
}
