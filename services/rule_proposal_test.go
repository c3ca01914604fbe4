package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/models"
)

func laptopMonitorRFP() *models.RFP {
	budget := 30000.0
	return &models.RFP{
		ID:    "rfp-1",
		Title: "Equipment Procurement Request",
		Items: models.RFPItemList{
			{Name: "Laptops", Quantity: 20, Specifications: "16GB RAM, 512GB SSD"},
			{Name: "Monitors", Quantity: 10, Specifications: "24-inch LCD"},
		},
		Budget: &budget,
	}
}

const vendorReply = `Hello,

Thank you for the opportunity. Our quote:

Laptops: $1,200 each = $24,000
Monitors: $525 each = $5,250

Total: $29,250
Delivery in 25 days
2-year warranty on all items
Payment terms: Net 30

Regards,
Acme Supplies`

func TestExtractProposalFullReply(t *testing.T) {
	re := testRuleExtractor()

	parsed, err := re.ExtractProposal(context.Background(), vendorReply, laptopMonitorRFP())
	require.NoError(t, err)

	require.NotNil(t, parsed.TotalPrice)
	assert.Equal(t, 29250.0, *parsed.TotalPrice)

	require.Len(t, parsed.ItemPrices, 2)
	assert.Equal(t, "Laptops", parsed.ItemPrices[0].Item)
	assert.Equal(t, 20, parsed.ItemPrices[0].Quantity)
	assert.Equal(t, 1200.0, parsed.ItemPrices[0].UnitPrice)
	assert.Equal(t, 24000.0, parsed.ItemPrices[0].TotalPrice)
	assert.Equal(t, "Monitors", parsed.ItemPrices[1].Item)
	assert.Equal(t, 525.0, parsed.ItemPrices[1].UnitPrice)
	assert.Equal(t, 5250.0, parsed.ItemPrices[1].TotalPrice)

	require.NotNil(t, parsed.DeliveryDate)
	assert.Equal(t, time.Date(2025, 4, 4, 0, 0, 0, 0, time.UTC), *parsed.DeliveryDate)

	require.NotNil(t, parsed.Warranty)
	assert.Equal(t, "2-year warranty", *parsed.Warranty)

	require.NotNil(t, parsed.Terms.PaymentTerms)
	assert.Equal(t, "Net 30", *parsed.Terms.PaymentTerms)
	require.NotNil(t, parsed.Terms.DeliveryTerms)
	assert.Equal(t, "Delivery in 25 days", *parsed.Terms.DeliveryTerms)

	assert.True(t, parsed.IsComplete)
	assert.Empty(t, parsed.ParseError)
	assert.Equal(t, "Proposal complete: $29,250 total, 2 items priced, delivery date provided", parsed.Summary)
}

func TestExtractProposalLowercaseItemLines(t *testing.T) {
	re := testRuleExtractor()

	reply := "laptops $1,200 each = $24,000\nmonitors $350 each = $5,250\nTotal: $29,250"
	parsed, err := re.ExtractProposal(context.Background(), reply, laptopMonitorRFP())
	require.NoError(t, err)

	require.NotNil(t, parsed.TotalPrice)
	assert.Equal(t, 29250.0, *parsed.TotalPrice)
	require.Len(t, parsed.ItemPrices, 2)
	assert.Equal(t, 1200.0, parsed.ItemPrices[0].UnitPrice)
	assert.Equal(t, 24000.0, parsed.ItemPrices[0].TotalPrice)
	assert.Equal(t, 350.0, parsed.ItemPrices[1].UnitPrice)
	assert.Equal(t, 5250.0, parsed.ItemPrices[1].TotalPrice)
}

func TestExtractProposalEmptyContentIsTerminal(t *testing.T) {
	re := testRuleExtractor()

	for _, input := range []string{"", "   \n\t  "} {
		parsed, err := re.ExtractProposal(context.Background(), input, laptopMonitorRFP())
		require.NoError(t, err)
		assert.Nil(t, parsed.TotalPrice)
		assert.Empty(t, parsed.ItemPrices)
		assert.False(t, parsed.IsComplete)
		assert.Equal(t, models.ParseErrorNoContent, parsed.ParseError)
		assert.Equal(t, "Empty or invalid email content", parsed.Summary)
	}
}

func TestExtractProposalNoPricesIsInsufficient(t *testing.T) {
	re := testRuleExtractor()

	parsed, err := re.ExtractProposal(context.Background(),
		"We are interested in bidding. Delivery in 10 days.", laptopMonitorRFP())
	require.NoError(t, err)

	assert.Nil(t, parsed.TotalPrice)
	assert.Equal(t, models.ParseErrorInsufficientData, parsed.ParseError)
	assert.False(t, parsed.IsComplete)
	require.NotNil(t, parsed.DeliveryDate)
}

func TestExtractProposalTotalDerivedFromItems(t *testing.T) {
	re := testRuleExtractor()

	reply := "Laptops: $1,000 each = $20,000\nMonitors: $500 each = $5,000\nShipping within 15 days"
	parsed, err := re.ExtractProposal(context.Background(), reply, laptopMonitorRFP())
	require.NoError(t, err)

	require.NotNil(t, parsed.TotalPrice)
	assert.Equal(t, 25000.0, *parsed.TotalPrice)
	assert.Empty(t, parsed.ParseError)
}

func TestExtractProposalSingleItemPriceDerivesUnit(t *testing.T) {
	re := testRuleExtractor()

	rfp := &models.RFP{
		ID:    "rfp-2",
		Items: models.RFPItemList{{Name: "Monitors", Quantity: 10}},
	}
	parsed, err := re.ExtractProposal(context.Background(),
		"For the monitors we quote $5,250 all in.\nTotal: $5,250", rfp)
	require.NoError(t, err)

	require.Len(t, parsed.ItemPrices, 1)
	assert.Equal(t, 525.0, parsed.ItemPrices[0].UnitPrice)
	assert.Equal(t, 5250.0, parsed.ItemPrices[0].TotalPrice)
}

func TestExtractProposalMissingItemsIncomplete(t *testing.T) {
	re := testRuleExtractor()

	// Only one of the two RFP items is priced.
	reply := "Laptops: $1,200 each = $24,000\nTotal: $24,000\nDelivery in 20 days"
	parsed, err := re.ExtractProposal(context.Background(), reply, laptopMonitorRFP())
	require.NoError(t, err)

	require.NotNil(t, parsed.TotalPrice)
	assert.False(t, parsed.IsComplete)
	require.Len(t, parsed.ItemPrices, 1)
}

func TestExtractProposalBareWarrantyMention(t *testing.T) {
	re := testRuleExtractor()

	parsed, err := re.ExtractProposal(context.Background(),
		"Total: $10,000. Warranty included as standard.", laptopMonitorRFP())
	require.NoError(t, err)

	require.NotNil(t, parsed.Warranty)
	assert.Equal(t, "Standard warranty included", *parsed.Warranty)
}

func TestExtractProposalIdempotent(t *testing.T) {
	re := testRuleExtractor()
	rfp := laptopMonitorRFP()

	first, err := re.ExtractProposal(context.Background(), vendorReply, rfp)
	require.NoError(t, err)
	second, err := re.ExtractProposal(context.Background(), vendorReply, rfp)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
