package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"google.golang.org/genai"

	"backend/models"
)

const (
	defaultGeminiModel = "gemini-2.0-flash"
	placeholderAPIKey  = "your_gemini_api_key_here"
)

// jsonObjectPattern salvages the JSON object from a model reply that
// wrapped it in prose or markdown fences.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// GeminiExtractor is the remote Extractor backed by the Gemini API.
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

// NewGeminiExtractor builds the remote extractor from the environment.
// A missing or placeholder GEMINI_API_KEY is a configuration error.
func NewGeminiExtractor(ctx context.Context) (*GeminiExtractor, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" || apiKey == placeholderAPIKey {
		return nil, ErrAIConfig
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiExtractor{client: client, model: model}, nil
}

// generate runs a single prompt and returns the raw text reply.
// Authentication failures are mapped onto the AI_AUTH_ERROR sentinel so
// callers can surface them instead of falling back.
func (g *GeminiExtractor) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		if isAuthError(err) {
			return "", fmt.Errorf("%w: %v", ErrAIAuth, err)
		}
		return "", fmt.Errorf("Gemini generation failed: %w", err)
	}
	return resp.Text(), nil
}

func isAuthError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "API_KEY_INVALID") ||
		strings.Contains(msg, "PERMISSION_DENIED") ||
		strings.Contains(msg, "401") ||
		strings.Contains(msg, "403")
}

// extractJSON pulls the JSON object out of a model reply, tolerating
// markdown fences and surrounding prose.
func extractJSON(reply string) (string, error) {
	cleaned := strings.TrimSpace(reply)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	match := jsonObjectPattern.FindString(cleaned)
	if match == "" {
		return "", fmt.Errorf("no JSON object in model reply")
	}
	return match, nil
}

// Wire payloads. The model returns dates as "YYYY-MM-DD" strings; these
// DTOs absorb that before conversion to the domain types.

type rfpItemPayload struct {
	Name           string   `json:"name"`
	Quantity       int      `json:"quantity"`
	Specifications string   `json:"specifications"`
	EstimatedPrice *float64 `json:"estimatedPrice"`
}

type rfpPayload struct {
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Items        []rfpItemPayload  `json:"items"`
	Budget       *float64          `json:"budget"`
	DeliveryDate *string           `json:"deliveryDate"`
	PaymentTerms *string           `json:"paymentTerms"`
	Requirements map[string]string `json:"requirements"`
}

type proposalPayload struct {
	TotalPrice   *float64             `json:"totalPrice"`
	ItemPrices   []models.ItemPrice   `json:"itemPrices"`
	DeliveryDate *string              `json:"deliveryDate"`
	Warranty     *string              `json:"warranty"`
	Terms        models.ProposalTerms `json:"terms"`
	Summary      string               `json:"summary"`
	IsComplete   bool                 `json:"isComplete"`
}

func parseWireDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil
	}
	return &t
}

// InterpretRequest asks the model to structure a free-text procurement
// request.
func (g *GeminiExtractor) InterpretRequest(ctx context.Context, freeText string) (*models.ParsedRFP, error) {
	prompt := fmt.Sprintf(`Convert this to JSON: %q.
Return only JSON with this exact structure:
{
  "title": "short title",
  "description": "the original request",
  "items": [{"name": "text", "quantity": <number>, "specifications": "text", "estimatedPrice": <number or null>}],
  "budget": <number or null>,
  "deliveryDate": "YYYY-MM-DD" or null,
  "paymentTerms": "text" or null,
  "requirements": {}
}
Return ONLY the JSON object, no markdown or extra text.`, freeText)

	reply, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	raw, err := extractJSON(reply)
	if err != nil {
		return nil, err
	}

	var payload rfpPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("malformed RFP JSON from model: %w", err)
	}

	parsed := &models.ParsedRFP{
		Title:        payload.Title,
		Description:  payload.Description,
		Budget:       payload.Budget,
		DeliveryDate: parseWireDate(payload.DeliveryDate),
		PaymentTerms: payload.PaymentTerms,
		Requirements: payload.Requirements,
	}
	if parsed.Title == "" {
		parsed.Title = "Equipment Procurement Request"
	}
	if parsed.Description == "" {
		parsed.Description = freeText
	}
	if parsed.Requirements == nil {
		parsed.Requirements = map[string]string{}
	}
	for _, item := range payload.Items {
		parsed.Items = append(parsed.Items, models.RFPItem{
			Name:           item.Name,
			Quantity:       item.Quantity,
			Specifications: item.Specifications,
			EstimatedPrice: item.EstimatedPrice,
		})
	}
	return parsed, nil
}

// ExtractProposal asks the model to pull structured pricing and terms
// out of a vendor reply.
func (g *GeminiExtractor) ExtractProposal(ctx context.Context, replyText string, rfp *models.RFP) (*models.ParsedProposal, error) {
	var items interface{}
	if rfp != nil {
		items = rfp.Items
	}
	itemsJSON, _ := json.MarshalIndent(items, "", "  ")

	prompt := fmt.Sprintf(`Parse this vendor proposal email and extract ALL pricing information.

RFP Context:
%s

Vendor Email:
%s

Extract and return ONLY valid JSON with this exact structure:
{
  "totalPrice": <number or null>,
  "itemPrices": [{"item": "name", "quantity": <number>, "unitPrice": <number>, "totalPrice": <number>}],
  "deliveryDate": "YYYY-MM-DD" or null,
  "warranty": "text" or null,
  "terms": {"paymentTerms": "text", "deliveryTerms": "text", "additionalConditions": []},
  "summary": "brief summary",
  "isComplete": <boolean - true if all RFP items are priced>
}

Rules:
- Extract ALL individual item prices from the email
- Calculate totalPrice from itemPrices if not explicitly stated
- Set isComplete to false if any RFP items are missing prices
- Parse all price formats: $1,000 / 1000 / 1k / etc
- Return ONLY the JSON object, no markdown or extra text`, itemsJSON, replyText)

	reply, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	raw, err := extractJSON(reply)
	if err != nil {
		return nil, err
	}

	var payload proposalPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("malformed proposal JSON from model: %w", err)
	}

	parsed := &models.ParsedProposal{
		TotalPrice:   payload.TotalPrice,
		ItemPrices:   payload.ItemPrices,
		DeliveryDate: parseWireDate(payload.DeliveryDate),
		Warranty:     payload.Warranty,
		Terms:        payload.Terms,
		Summary:      payload.Summary,
		IsComplete:   payload.IsComplete,
	}
	if parsed.ItemPrices == nil {
		parsed.ItemPrices = []models.ItemPrice{}
	}
	if parsed.Terms.AdditionalConditions == nil {
		parsed.Terms.AdditionalConditions = []string{}
	}
	if parsed.TotalPrice == nil {
		parsed.ParseError = models.ParseErrorInsufficientData
	}
	return parsed, nil
}

// EvaluateProposals asks the model to score and rank the proposals on
// the standard rubric. Rank normalization happens in the service layer.
func (g *GeminiExtractor) EvaluateProposals(ctx context.Context, proposals []models.Proposal, rfp *models.RFP) (*models.ComparisonResult, error) {
	prompt := g.comparisonPrompt(proposals, rfp)

	reply, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	raw, err := extractJSON(reply)
	if err != nil {
		return nil, err
	}

	var result models.ComparisonResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("malformed comparison JSON from model: %w", err)
	}
	if len(result.Analysis) == 0 {
		return nil, fmt.Errorf("model comparison contained no analysis entries")
	}
	return &result, nil
}

func (g *GeminiExtractor) comparisonPrompt(proposals []models.Proposal, rfp *models.RFP) string {
	budget := "Not specified"
	deadline := "Not specified"
	var itemsJSON []byte
	if rfp != nil {
		if rfp.Budget != nil {
			budget = fmt.Sprintf("$%.2f", *rfp.Budget)
		}
		if rfp.DeliveryDate != nil {
			deadline = rfp.DeliveryDate.Format("2006-01-02")
		}
		itemsJSON, _ = json.MarshalIndent(rfp.Items, "", "  ")
	}

	var sb strings.Builder
	for i, p := range proposals {
		price := "Not provided"
		if p.TotalPrice != nil {
			price = fmt.Sprintf("$%.2f", *p.TotalPrice)
		}
		delivery := "Not specified"
		if p.DeliveryDate != nil {
			delivery = p.DeliveryDate.Format("2006-01-02")
		}
		warranty := "Not specified"
		if p.Warranty != nil {
			warranty = *p.Warranty
		}
		payment := "Not specified"
		if p.Terms.PaymentTerms != nil {
			payment = *p.Terms.PaymentTerms
		}
		status := "Incomplete"
		if p.IsComplete {
			status = "Complete"
		}
		itemPricesJSON, _ := json.Marshal(p.ItemPrices)
		raw := p.RawContent
		if len(raw) > 200 {
			raw = raw[:200]
		}

		fmt.Fprintf(&sb, `
Vendor %d (ID: %s):
- Total Price: %s
- Item Prices: %s
- Delivery: %s
- Warranty: %s
- Payment Terms: %s
- Status: %s
- Raw Content: %s...
`, i+1, p.VendorID, price, itemPricesJSON, delivery, warranty, payment, status, raw)
	}

	return fmt.Sprintf(`You are a procurement expert. Analyze these vendor proposals and provide a comprehensive comparison.

RFP REQUIREMENTS:
Budget: %s
Delivery Required: %s
Items: %s

VENDOR PROPOSALS:
%s
Provide analysis in this EXACT JSON format:
{
  "analysis": [
    {
      "vendorId": "vendor_id",
      "score": <0-100>,
      "rank": <number>,
      "scoreBreakdown": {
        "price": <0-40 points>,
        "delivery": <0-25 points>,
        "warranty": <0-15 points>,
        "terms": <0-10 points>,
        "completeness": <0-10 points>
      },
      "pros": ["list of advantages"],
      "cons": ["list of disadvantages"],
      "complianceCheck": {
        "meetsBudget": <boolean>,
        "meetsDelivery": <boolean>,
        "meetsWarranty": <boolean>,
        "overallCompliance": "FULL/PARTIAL/NON-COMPLIANT"
      },
      "valueAdds": ["additional benefits"],
      "riskFactors": ["potential risks"],
      "notes": "detailed assessment"
    }
  ],
  "recommendation": {
    "recommendedVendorId": "best_vendor_id",
    "reasoning": "detailed explanation considering all factors",
    "priceSavings": <number or null>,
    "keyAdvantages": ["main reasons for recommendation"],
    "considerations": ["things to consider before accepting"]
  },
  "summary": "executive summary of comparison"
}

Scoring Criteria:
- Price (40 pts): Best price = 40, scale down for higher prices
- Delivery (25 pts): Meets/beats deadline = 25, late = 0-15
- Warranty (15 pts): Exceeds requirement = 15, meets = 10, below = 5
- Terms (10 pts): Favorable payment/delivery terms
- Completeness (10 pts): All info provided = 10, incomplete = 5

Return ONLY valid JSON, no markdown.`, budget, deadline, itemsJSON, sb.String())
}
