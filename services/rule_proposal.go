package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"backend/models"
)

// priceTokenPattern matches a currency token like "$1,200" or "29250.00".
var priceTokenPattern = regexp.MustCompile(`\$?([\d,]+(?:\.\d{2})?)`)

// deliveryDayPatterns are tried in order; the first hit wins.
var deliveryDayPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s*days?`),
	regexp.MustCompile(`(?i)delivery[:\s]*(\d+)\s*days?`),
	regexp.MustCompile(`(?i)within\s*(\d+)\s*days?`),
	regexp.MustCompile(`(?i)in\s*(\d+)\s*days?`),
}

var warrantyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)[-\s]?year\s+warranty`),
	regexp.MustCompile(`(?i)warranty[:\s]*(\d+)\s+years?`),
	regexp.MustCompile(`(?i)(\d+)\s*yr\s+warranty`),
}

// categoryKeywords let a reply line match an RFP item by product family
// when the exact item name does not appear.
var categoryKeywords = []string{"laptop", "monitor", "chair", "desk"}

// ExtractProposal parses a vendor reply against its RFP. It never
// returns an error: missing data is recorded on the result instead.
func (re *RuleExtractor) ExtractProposal(ctx context.Context, replyText string, rfp *models.RFP) (*models.ParsedProposal, error) {
	if strings.TrimSpace(replyText) == "" {
		return emptyProposalResult(), nil
	}

	content := strings.ToLower(replyText)
	lines := strings.Split(replyText, "\n")

	totalPrice := extractTotalPrice(lines)
	itemPrices := extractItemPrices(lines, rfp)

	// Sum the line items when no explicit total was quoted.
	if totalPrice == nil && len(itemPrices) > 0 {
		sum := 0.0
		for _, ip := range itemPrices {
			sum += ip.TotalPrice
		}
		totalPrice = &sum
	}

	var deliveryDays *int
	for _, pattern := range deliveryDayPatterns {
		match := pattern.FindStringSubmatch(replyText)
		if match == nil {
			continue
		}
		days, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		deliveryDays = &days
		break
	}
	var parsedDelivery *time.Time
	if deliveryDays != nil {
		d := dateOnly(re.Now().AddDate(0, 0, *deliveryDays))
		parsedDelivery = &d
	}

	warranty := extractWarranty(replyText, content)

	var paymentTerms *string
	switch {
	case strings.Contains(content, "net 30"):
		paymentTerms = strPtr("Net 30")
	case strings.Contains(content, "net 60"):
		paymentTerms = strPtr("Net 60")
	case strings.Contains(content, "net 45"):
		paymentTerms = strPtr("Net 45")
	}

	var deliveryTerms *string
	if parsedDelivery != nil && deliveryDays != nil {
		deliveryTerms = strPtr(fmt.Sprintf("Delivery in %d days", *deliveryDays))
	}

	hasAllItems := false
	if rfp != nil && rfp.Items != nil {
		hasAllItems = len(itemPrices) >= len(rfp.Items)
	}
	isComplete := totalPrice != nil && parsedDelivery != nil &&
		(len(itemPrices) == 0 || hasAllItems)

	parseError := ""
	if totalPrice == nil {
		parseError = models.ParseErrorInsufficientData
	}

	return &models.ParsedProposal{
		TotalPrice:   totalPrice,
		ItemPrices:   itemPrices,
		DeliveryDate: parsedDelivery,
		Warranty:     warranty,
		Terms: models.ProposalTerms{
			PaymentTerms:         paymentTerms,
			DeliveryTerms:        deliveryTerms,
			AdditionalConditions: []string{},
		},
		Summary:    proposalSummary(isComplete, totalPrice, len(itemPrices), parsedDelivery != nil),
		IsComplete: isComplete,
		ParseError: parseError,
	}, nil
}

// extractTotalPrice finds the quoted grand total: the last currency token
// on the first line mentioning "total" or "price:" that is not a
// per-unit line.
func extractTotalPrice(lines []string) *float64 {
	for _, line := range lines {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "total") && !strings.Contains(lower, "price:") {
			continue
		}
		if strings.Contains(lower, "per unit") {
			continue
		}
		tokens := priceTokenPattern.FindAllStringSubmatch(line, -1)
		if len(tokens) == 0 {
			continue
		}
		if amount, ok := parseWholeAmount(tokens[len(tokens)-1][1]); ok {
			return &amount
		}
	}
	return nil
}

// extractItemPrices walks the RFP line items and, for each, scans the
// reply for the first line mentioning it. Two currency tokens on the
// line read as unit and item total; a single token reads as the item
// total with the unit price derived from the requested quantity. The
// first mentioning line settles the item even when it carries no price.
func extractItemPrices(lines []string, rfp *models.RFP) []models.ItemPrice {
	itemPrices := []models.ItemPrice{}
	if rfp == nil {
		return itemPrices
	}

	for _, rfpItem := range rfp.Items {
		itemName := strings.ToLower(rfpItem.Name)
		singular := itemName
		if len(itemName) > 0 {
			singular = itemName[:len(itemName)-1]
		}

		for _, line := range lines {
			lower := strings.ToLower(line)
			if !lineMatchesItem(lower, itemName, singular) {
				continue
			}

			tokens := priceTokenPattern.FindAllStringSubmatch(line, -1)
			if len(tokens) >= 2 {
				unitPrice, okUnit := parseWholeAmount(tokens[0][1])
				totalItemPrice, okTotal := parseWholeAmount(tokens[1][1])
				if okUnit && okTotal {
					itemPrices = append(itemPrices, models.ItemPrice{
						Item:       rfpItem.Name,
						Quantity:   rfpItem.Quantity,
						UnitPrice:  unitPrice,
						TotalPrice: totalItemPrice,
					})
				}
			} else if len(tokens) == 1 {
				if price, ok := parseWholeAmount(tokens[0][1]); ok {
					unit := price
					if rfpItem.Quantity > 0 {
						unit = math.Round(price / float64(rfpItem.Quantity))
					}
					itemPrices = append(itemPrices, models.ItemPrice{
						Item:       rfpItem.Name,
						Quantity:   rfpItem.Quantity,
						UnitPrice:  unit,
						TotalPrice: price,
					})
				}
			}
			break
		}
	}
	return itemPrices
}

func lineMatchesItem(lowerLine, itemName, singular string) bool {
	if strings.Contains(lowerLine, itemName) || strings.Contains(lowerLine, singular) {
		return true
	}
	for _, kw := range categoryKeywords {
		if strings.Contains(itemName, kw) && strings.Contains(lowerLine, kw) {
			return true
		}
	}
	return false
}

func extractWarranty(text, lowerContent string) *string {
	for _, pattern := range warrantyPatterns {
		match := pattern.FindStringSubmatch(text)
		if match != nil {
			return strPtr(match[1] + "-year warranty")
		}
	}
	if strings.Contains(lowerContent, "warranty") {
		return strPtr("Standard warranty included")
	}
	return nil
}

// proposalSummary renders the one-line extraction digest, e.g.
// "Proposal complete: $29,250 total, 2 items priced, delivery date provided".
func proposalSummary(isComplete bool, totalPrice *float64, itemsPriced int, hasDelivery bool) string {
	state := "incomplete"
	if isComplete {
		state = "complete"
	}
	pricePart := "price not found, "
	if totalPrice != nil {
		p := message.NewPrinter(language.English)
		pricePart = p.Sprintf("$%d total, ", int64(*totalPrice))
	}
	deliveryPart := "no delivery date"
	if hasDelivery {
		deliveryPart = "delivery date provided"
	}
	return fmt.Sprintf("Proposal %s: %s%d items priced, %s", state, pricePart, itemsPriced, deliveryPart)
}

// parseWholeAmount parses a currency token to a whole dollar amount,
// dropping any cents. Tokens with no digits are rejected.
func parseWholeAmount(token string) (float64, bool) {
	cleaned := strings.ReplaceAll(token, ",", "")
	if idx := strings.IndexByte(cleaned, '.'); idx >= 0 {
		cleaned = cleaned[:idx]
	}
	if cleaned == "" {
		return 0, false
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}

func strPtr(s string) *string {
	return &s
}
