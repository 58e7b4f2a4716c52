package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchlens/launchlens_api/internal/config"
	"github.com/launchlens/launchlens_api/internal/models"
	"github.com/launchlens/launchlens_api/internal/utils"
	"github.com/launchlens/launchlens_api/pkg/groq"
)

func TestExtractJSONPayload(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object",
			in:   `{"a":1}`,
			want: `{"a":1}`,
		},
		{
			name: "markdown fenced",
			in:   "```json\n{\"a\":1}\n```",
			want: `{"a":1}`,
		},
		{
			name: "surrounded by prose",
			in:   `Here is your analysis: {"a":1} hope it helps!`,
			want: `{"a":1}`,
		},
		{
			name: "trailing comma repaired",
			in:   `{"a":[1,2,],}`,
			want: `{"a":[1,2]}`,
		},
		{
			name: "braces inside strings",
			in:   `{"a":"closing } brace","b":2} trailing prose`,
			want: `{"a":"closing } brace","b":2}`,
		},
		{
			name: "no object",
			in:   "I cannot answer that.",
			want: "",
		},
		{
			name: "empty object rejected",
			in:   `{}`,
			want: "",
		},
		{
			name: "unbalanced object rejected",
			in:   `{"a":1`,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSONPayload(tt.in))
		})
	}
}

func TestBalancedObjectHandlesEscapes(t *testing.T) {
	in := `{"a":"quote \" and brace }","b":{"c":1}} extra`
	assert.Equal(t, `{"a":"quote \" and brace }","b":{"c":1}}`, balancedObject(in))
}

func TestBuildChatSystemPromptListsReports(t *testing.T) {
	promo := "19"
	prompt := buildChatSystemPrompt([]models.ReportSummary{
		{ID: 7, ProductName: "Trail Mug", ProductCategory: "Outdoor", RetailPrice: "24", PromoPrice: &promo},
	})

	assert.Contains(t, prompt, `id=7 name="Trail Mug" category="Outdoor" retailPrice=24 (promo 19)`)
}

func TestBuildChatSystemPromptEmptyCatalog(t *testing.T) {
	prompt := buildChatSystemPrompt(nil)
	assert.Contains(t, prompt, "(none yet)")
}

// groqStub serves a canned chat-completion response and rewires the client
// base URL for the duration of the test.
func groqStub(t *testing.T, content string) *AnalysisService {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"role": "assistant", "content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	prev := groq.BaseURL
	groq.BaseURL = srv.URL
	t.Cleanup(func() { groq.BaseURL = prev })

	cfg := &config.GroqConfig{Model: "test-model", VisionModel: "test-vision"}
	return NewAnalysisService(groq.NewClient("test-key"), cfg)
}

func TestAnalyzeParsesFencedModelReply(t *testing.T) {
	svc := groqStub(t, "```json\n{\"pricingNotes\":\"solid\"}\n```")

	doc, err := svc.Analyze(context.Background(), &models.ProductInput{ProductName: "Trail Mug"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"pricingNotes":"solid"}`, string(doc))
}

func TestAnalyzeRejectsNonJSONReply(t *testing.T) {
	svc := groqStub(t, "Sorry, I can only answer in prose.")

	_, err := svc.Analyze(context.Background(), &models.ProductInput{ProductName: "Trail Mug"})

	var uerr *utils.UpstreamAnalysisError
	require.ErrorAs(t, err, &uerr)
}

func TestChatParsesStructuredReply(t *testing.T) {
	svc := groqStub(t, `{"message":"Your mug is priced well.","relatedReportIds":[7]}`)

	reply, err := svc.Chat(context.Background(), "how is my pricing?", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Your mug is priced well.", reply.Message)
	assert.Equal(t, []int64{7}, reply.RelatedReportIDs)
}

func TestChatFallsBackOnProseReply(t *testing.T) {
	svc := groqStub(t, "I would say your pricing looks fine.")

	reply, err := svc.Chat(context.Background(), "how is my pricing?", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, chatFallbackMessage, reply.Message)
	assert.Equal(t, []int64{}, reply.RelatedReportIDs)
}

func TestChatFallsBackOnWrongShape(t *testing.T) {
	svc := groqStub(t, `{"answer":"wrong key"}`)

	reply, err := svc.Chat(context.Background(), "anything", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, chatFallbackMessage, reply.Message)
}

func TestChatDefaultsMissingRelatedIDs(t *testing.T) {
	svc := groqStub(t, `{"message":"No reports needed."}`)

	reply, err := svc.Chat(context.Background(), "anything", nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, reply.RelatedReportIDs)
	assert.Empty(t, reply.RelatedReportIDs)
}
