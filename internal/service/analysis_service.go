package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/launchlens/launchlens_api/internal/config"
	"github.com/launchlens/launchlens_api/internal/models"
	"github.com/launchlens/launchlens_api/internal/utils"
	"github.com/launchlens/launchlens_api/pkg/groq"
)

const jsonOnlySystemPrompt = "You are a JSON-only response bot. You MUST respond with ONLY a valid JSON object. " +
	"No explanations, no markdown, no text before or after the JSON. Start your response with { and end with }."

// chatFallbackMessage is returned when the model's chat reply cannot be
// parsed; the conversation degrades instead of erroring.
const chatFallbackMessage = "Sorry, I couldn't put together an answer for that just now. Could you rephrase the question?"

// AnalysisService wraps the generative model behind the three operations the
// application needs: full marketing analysis, image critique, and chat. It
// keeps no state between calls.
type AnalysisService struct {
	client *groq.Client
	cfg    *config.GroqConfig
}

// NewAnalysisService creates a new AnalysisService.
func NewAnalysisService(client *groq.Client, cfg *config.GroqConfig) *AnalysisService {
	return &AnalysisService{client: client, cfg: cfg}
}

// Analyze produces a structured marketing analysis for a validated product
// input. The document is returned verbatim as the model produced it; the
// schema is owned by the prompt. Failures are never retried here.
func (s *AnalysisService) Analyze(ctx context.Context, input *models.ProductInput) (models.JSONDocument, error) {
	prompt := buildAnalysisPrompt(input)

	resp, err := s.client.CreateChatCompletion(ctx, &groq.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []groq.Message{
			groq.TextMessage("system", jsonOnlySystemPrompt),
			groq.TextMessage("user", prompt),
		},
		Temperature: 0.4,
		MaxTokens:   4000,
	})
	if err != nil {
		return nil, &utils.UpstreamAnalysisError{Detail: err.Error()}
	}

	raw := resp.FirstContent()
	doc := extractJSONPayload(raw)
	if doc == "" {
		log.Error().Str("raw_content", truncate(raw, 500)).Msg("No valid JSON in analysis response")
		return nil, &utils.UpstreamAnalysisError{Detail: "model returned no valid JSON: " + truncate(raw, 200)}
	}
	return models.JSONDocument(doc), nil
}

// AnalyzeImage sends the product image to the vision model and returns a
// free-text visual-identity critique. Callers treat a failure here as
// non-fatal to the overall analysis.
func (s *AnalysisService) AnalyzeImage(ctx context.Context, imageData []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageData))

	resp, err := s.client.CreateChatCompletion(ctx, &groq.ChatCompletionRequest{
		Model: s.cfg.VisionModel,
		Messages: []groq.Message{
			groq.VisionMessage(
				"You are a brand and packaging consultant. Critique this product photo for marketing use: "+
					"visual identity, shelf appeal, photography quality, and how well it would perform in "+
					"online listings and social media. Reply with a concise paragraph of plain text.",
				dataURL,
			),
		},
		Temperature: 0.5,
		MaxTokens:   600,
	})
	if err != nil {
		return "", err
	}

	critique := strings.TrimSpace(resp.FirstContent())
	if critique == "" {
		return "", fmt.Errorf("vision model returned empty critique")
	}
	return critique, nil
}

// Chat answers a conversational question using the recent history and a
// snapshot of all stored reports as context. If the model's reply cannot be
// parsed as JSON, a fixed fallback reply is returned instead of an error.
func (s *AnalysisService) Chat(ctx context.Context, message string, history []models.ChatMessage, reports []models.ReportSummary) (*models.ChatReply, error) {
	messages := []groq.Message{
		groq.TextMessage("system", buildChatSystemPrompt(reports)),
	}
	// Only the last few turns are forwarded; the model does not accumulate
	// context across requests.
	start := 0
	if len(history) > 6 {
		start = len(history) - 6
	}
	for _, turn := range history[start:] {
		role := turn.Role
		if role != "assistant" {
			role = "user"
		}
		messages = append(messages, groq.TextMessage(role, turn.Content))
	}
	messages = append(messages, groq.TextMessage("user", message))

	resp, err := s.client.CreateChatCompletion(ctx, &groq.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    messages,
		Temperature: 0.6,
		MaxTokens:   1500,
	})
	if err != nil {
		return nil, &utils.UpstreamAnalysisError{Detail: err.Error()}
	}

	raw := resp.FirstContent()
	payload := extractJSONPayload(raw)
	if payload == "" {
		log.Warn().Str("raw_content", truncate(raw, 300)).Msg("Chat reply was not valid JSON, using fallback")
		return &models.ChatReply{Message: chatFallbackMessage, RelatedReportIDs: []int64{}}, nil
	}

	var reply models.ChatReply
	if err := json.Unmarshal([]byte(payload), &reply); err != nil || reply.Message == "" {
		log.Warn().Err(err).Str("payload", truncate(payload, 300)).Msg("Chat reply JSON did not match the expected shape, using fallback")
		return &models.ChatReply{Message: chatFallbackMessage, RelatedReportIDs: []int64{}}, nil
	}
	if reply.RelatedReportIDs == nil {
		reply.RelatedReportIDs = []int64{}
	}
	return &reply, nil
}

// buildAnalysisPrompt interpolates every product field into the fixed
// analysis template.
func buildAnalysisPrompt(input *models.ProductInput) string {
	var b strings.Builder
	b.WriteString(`You are a senior product marketing strategist. Analyze the product below and produce a complete marketing analysis.

Return a JSON object with exactly these top-level keys:
{
  "customerPersonas": [
    {"name": "", "age": "", "occupation": "", "motivations": [], "painPoints": [], "preferredChannels": []}
  ],
  "swot": {"strengths": [], "weaknesses": [], "opportunities": [], "threats": []},
  "goToMarket": {"positioning": "", "launchAngles": [], "channelStrategy": ""},
  "contentIdeas": [{"format": "", "hook": "", "channel": ""}],
  "pricingNotes": ""
}

Provide 2-3 personas, 3-5 entries per SWOT list, and 4-6 content ideas.
Return ONLY valid JSON, no explanation.

Product:
`)
	writeField := func(label, value string) {
		if value == "" {
			value = "-"
		}
		b.WriteString("- " + label + ": " + value + "\n")
	}
	writeField("Name", input.ProductName)
	writeField("Category", input.ProductCategory)
	writeField("One-sentence pitch", input.OneSentencePitch)
	writeField("Key features", input.KeyFeatures)
	writeField("Materials", input.Materials)
	writeField("Target audience", input.TargetAudience)
	writeField("Competitors", input.Competitors)
	writeField("Variants", deref(input.Variants))
	writeField("Cost of goods", input.CostOfGoods)
	writeField("Retail price", input.RetailPrice)
	writeField("Promo price", deref(input.PromoPrice))
	writeField("Sales channels", strings.Join(input.SalesChannels, ", "))
	return b.String()
}

// buildChatSystemPrompt embeds the report snapshot the model may reference.
func buildChatSystemPrompt(reports []models.ReportSummary) string {
	var b strings.Builder
	b.WriteString(`You are a marketing advisor for a product catalog. Answer the user's question using the saved reports listed below when relevant.

Respond with a JSON object only:
{"message": "<your answer as plain text>", "relatedReportIds": [<ids of reports your answer draws on>]}

Use an empty relatedReportIds array when no report is relevant.

Saved reports:
`)
	if len(reports) == 0 {
		b.WriteString("(none yet)\n")
	}
	for _, r := range reports {
		price := r.RetailPrice
		if r.PromoPrice != nil {
			price += " (promo " + *r.PromoPrice + ")"
		}
		fmt.Fprintf(&b, "- id=%d name=%q category=%q retailPrice=%s\n", r.ID, r.ProductName, r.ProductCategory, price)
	}
	return b.String()
}

var trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)

// extractJSONPayload pulls a JSON object out of a model reply that may be
// wrapped in markdown fences or surrounded by prose, repairs trailing commas,
// and verifies the result parses to a non-empty object. Returns "" when no
// usable object is found.
func extractJSONPayload(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	obj := balancedObject(s[start:])
	obj = trailingCommaPattern.ReplaceAllString(obj, "$1")

	var probe map[string]interface{}
	if err := json.Unmarshal([]byte(obj), &probe); err != nil || len(probe) == 0 {
		return ""
	}
	return obj
}

// balancedObject returns the prefix of s spanning the first brace-balanced
// JSON object, tracking string literals and escapes.
func balancedObject(s string) string {
	depth := 0
	inString := false
	escaped := false
	for i, ch := range s {
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	// Unbalanced; hand the whole thing to the JSON parser and let it fail.
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
