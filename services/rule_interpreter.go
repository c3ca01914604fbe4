package services

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"backend/models"
)

// ItemPattern is one entry of the equipment recognition catalog: a
// quantity-capturing pattern, the canonical item name, and the defaults
// used when the surrounding text does not refine them.
type ItemPattern struct {
	Pattern     *regexp.Regexp
	Name        string
	DefaultSpec string
	UnitPrice   float64
}

// SpecQualifier refines an item specification when one of its keywords
// appears near the item mention.
type SpecQualifier struct {
	Keywords []string
	Spec     string
}

// DefaultItemCatalog returns the built-in equipment catalog.
func DefaultItemCatalog() []ItemPattern {
	return []ItemPattern{
		{regexp.MustCompile(`(?i)(\d+)\s*(?:office\s+)?chairs?`), "Office Chairs", "Ergonomic design with lumbar support", 300},
		{regexp.MustCompile(`(?i)(\d+)\s*(?:standing\s+)?desks?`), "Standing Desks", "Electric height adjustment", 800},
		{regexp.MustCompile(`(?i)(\d+)\s*(?:desk\s+)?lamps?`), "Desk Lamps", "LED lighting", 50},
		{regexp.MustCompile(`(?i)(\d+)\s*laptops?`), "Laptops", "16GB RAM, 512GB SSD", 1500},
		{regexp.MustCompile(`(?i)(\d+)\s*monitors?`), "Monitors", "24-inch LCD", 300},
		{regexp.MustCompile(`(?i)(\d+)\s*(?:wireless\s+)?(?:mice|mouse)`), "Wireless Mice", "Wireless connectivity", 25},
		{regexp.MustCompile(`(?i)(\d+)\s*(?:wireless\s+)?keyboards?`), "Wireless Keyboards", "Wireless connectivity", 50},
		{regexp.MustCompile(`(?i)(\d+)\s*(?:laptop\s+)?bags?`), "Laptop Bags", "Padded protection", 40},
	}
}

// defaultSpecQualifiers are scanned, in order, against the text window
// around an item mention. First hit wins.
func defaultSpecQualifiers() []SpecQualifier {
	return []SpecQualifier{
		{[]string{"ergonomic", "lumbar"}, "Ergonomic design with lumbar support"},
		{[]string{"electric", "height adjustment"}, "Electric height adjustment"},
		{[]string{"led"}, "LED lighting"},
		{[]string{"16gb", "i7"}, "16GB RAM, Intel i7 processor"},
	}
}

var budgetPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)budget[\s:is]*\$?([\d,]+)`),
	regexp.MustCompile(`(?i)\$([\d,]+)\s*budget`),
	regexp.MustCompile(`\$([\d,]+)`),
}

var daysPattern = regexp.MustCompile(`(?i)(\d+)\s*days?`)

// Window sizes around an item mention scanned for spec qualifiers.
const (
	qualifierWindowBefore = 50
	qualifierWindowAfter  = 100
)

// RuleExtractor is the deterministic Extractor. It is pure given its
// clock and never returns an error from any operation.
type RuleExtractor struct {
	Catalog    []ItemPattern
	Qualifiers []SpecQualifier
	// MinBudget rejects stray small numbers (quantities, day counts)
	// posing as budgets. Candidates must be strictly greater.
	MinBudget float64
	Now       func() time.Time
}

// NewRuleExtractor returns a RuleExtractor with the default catalog,
// budget threshold and wall clock.
func NewRuleExtractor() *RuleExtractor {
	return &RuleExtractor{
		Catalog:    DefaultItemCatalog(),
		Qualifiers: defaultSpecQualifiers(),
		MinBudget:  100,
		Now:        time.Now,
	}
}

// InterpretRequest converts free text into a structured RFP. It always
// returns a usable result: when no catalog entry matches, a single
// generic line item priced at the extracted budget is synthesized.
func (re *RuleExtractor) InterpretRequest(ctx context.Context, freeText string) (*models.ParsedRFP, error) {
	items := re.extractItems(freeText)
	budget := re.extractBudget(freeText)
	deliveryDate := re.extractDeadline(freeText)

	var paymentTerms *string
	if strings.Contains(strings.ToLower(freeText), "net 30") {
		terms := "Net 30"
		paymentTerms = &terms
	}

	if len(items) == 0 {
		fallbackPrice := 1000.0
		if budget != nil {
			fallbackPrice = *budget
		}
		items = []models.RFPItem{{
			Name:           "General Items",
			Quantity:       1,
			Specifications: "As described",
			EstimatedPrice: &fallbackPrice,
		}}
	}

	return &models.ParsedRFP{
		Title:        "Equipment Procurement Request",
		Description:  freeText,
		Items:        items,
		Budget:       budget,
		DeliveryDate: deliveryDate,
		PaymentTerms: paymentTerms,
		Requirements: map[string]string{},
	}, nil
}

// extractItems runs every catalog entry against the text. For each hit
// the quantity is captured and the specification refined from the
// qualifier window around the match.
func (re *RuleExtractor) extractItems(text string) []models.RFPItem {
	var items []models.RFPItem
	for _, pat := range re.Catalog {
		loc := pat.Pattern.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		quantity, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil || quantity <= 0 {
			continue
		}

		spec := pat.DefaultSpec
		start := loc[0] - qualifierWindowBefore
		if start < 0 {
			start = 0
		}
		end := loc[1] + qualifierWindowAfter
		if end > len(text) {
			end = len(text)
		}
		window := strings.ToLower(text[start:end])
		for _, q := range re.Qualifiers {
			if containsAny(window, q.Keywords) {
				spec = q.Spec
				break
			}
		}

		price := pat.UnitPrice
		items = append(items, models.RFPItem{
			Name:           pat.Name,
			Quantity:       quantity,
			Specifications: spec,
			EstimatedPrice: &price,
		})
	}
	return items
}

// extractBudget tries the budget patterns in priority order and accepts
// the first amount above the plausibility threshold.
func (re *RuleExtractor) extractBudget(text string) *float64 {
	for _, pattern := range budgetPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		amount, ok := parseAmount(match[1])
		if ok && amount > re.MinBudget {
			return &amount
		}
	}
	return nil
}

// extractDeadline reads an "N days" phrase as today + N days.
func (re *RuleExtractor) extractDeadline(text string) *time.Time {
	match := daysPattern.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	days, err := strconv.Atoi(match[1])
	if err != nil {
		return nil
	}
	deadline := dateOnly(re.Now().AddDate(0, 0, days))
	return &deadline
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// parseAmount converts a currency token like "29,250" or "1200.50" into
// a float. Tokens without digits are rejected.
func parseAmount(token string) (float64, bool) {
	cleaned := strings.ReplaceAll(token, ",", "")
	if cleaned == "" {
		return 0, false
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}

// dateOnly truncates a timestamp to its UTC calendar date.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
