package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	}
}

func testRuleExtractor() *RuleExtractor {
	re := NewRuleExtractor()
	re.Now = fixedClock()
	return re
}

func TestInterpretRequestFullExample(t *testing.T) {
	re := testRuleExtractor()

	parsed, err := re.InterpretRequest(context.Background(),
		"I need 20 laptops with 16GB RAM, budget $50,000, delivery in 30 days")
	require.NoError(t, err)

	require.Len(t, parsed.Items, 1)
	item := parsed.Items[0]
	assert.Equal(t, "Laptops", item.Name)
	assert.Equal(t, 20, item.Quantity)
	assert.Equal(t, "16GB RAM, Intel i7 processor", item.Specifications)
	require.NotNil(t, item.EstimatedPrice)
	assert.Equal(t, 1500.0, *item.EstimatedPrice)

	require.NotNil(t, parsed.Budget)
	assert.Equal(t, 50000.0, *parsed.Budget)

	require.NotNil(t, parsed.DeliveryDate)
	assert.Equal(t, time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC), *parsed.DeliveryDate)

	assert.Equal(t, "Equipment Procurement Request", parsed.Title)
	assert.Nil(t, parsed.PaymentTerms)
	assert.NotNil(t, parsed.Requirements)
}

func TestInterpretRequestMultipleItems(t *testing.T) {
	re := testRuleExtractor()

	parsed, err := re.InterpretRequest(context.Background(),
		"We need 50 office chairs with ergonomic design and 25 standing desks with electric height adjustment")
	require.NoError(t, err)

	require.Len(t, parsed.Items, 2)
	assert.Equal(t, "Office Chairs", parsed.Items[0].Name)
	assert.Equal(t, 50, parsed.Items[0].Quantity)
	assert.Equal(t, "Ergonomic design with lumbar support", parsed.Items[0].Specifications)
	assert.Equal(t, "Standing Desks", parsed.Items[1].Name)
	assert.Equal(t, 25, parsed.Items[1].Quantity)
}

func TestInterpretRequestNoCatalogMatchSynthesizesGenericItem(t *testing.T) {
	re := testRuleExtractor()

	parsed, err := re.InterpretRequest(context.Background(),
		"Looking for industrial shelving units, budget is $12,000")
	require.NoError(t, err)

	require.Len(t, parsed.Items, 1)
	assert.Equal(t, "General Items", parsed.Items[0].Name)
	assert.Equal(t, 1, parsed.Items[0].Quantity)
	assert.Equal(t, "As described", parsed.Items[0].Specifications)
	require.NotNil(t, parsed.Items[0].EstimatedPrice)
	assert.Equal(t, 12000.0, *parsed.Items[0].EstimatedPrice)
}

func TestInterpretRequestNoBudgetGenericItemDefaultsTo1000(t *testing.T) {
	re := testRuleExtractor()

	parsed, err := re.InterpretRequest(context.Background(), "Need some shelving")
	require.NoError(t, err)

	require.Len(t, parsed.Items, 1)
	require.NotNil(t, parsed.Items[0].EstimatedPrice)
	assert.Equal(t, 1000.0, *parsed.Items[0].EstimatedPrice)
	assert.Nil(t, parsed.Budget)
	assert.Nil(t, parsed.DeliveryDate)
}

func TestInterpretRequestBudgetThresholdRejectsSmallNumbers(t *testing.T) {
	re := testRuleExtractor()

	// "$50" is below the plausibility threshold and must not become
	// the budget.
	parsed, err := re.InterpretRequest(context.Background(), "Small order, about $50 worth")
	require.NoError(t, err)
	assert.Nil(t, parsed.Budget)
}

func TestInterpretRequestNet30Detected(t *testing.T) {
	re := testRuleExtractor()

	parsed, err := re.InterpretRequest(context.Background(),
		"10 monitors, payment on Net 30 terms")
	require.NoError(t, err)
	require.NotNil(t, parsed.PaymentTerms)
	assert.Equal(t, "Net 30", *parsed.PaymentTerms)
}

func TestInterpretRequestDeterministic(t *testing.T) {
	re := testRuleExtractor()
	input := "I need 20 laptops with 16GB RAM, budget $50,000, delivery in 30 days"

	first, err := re.InterpretRequest(context.Background(), input)
	require.NoError(t, err)
	second, err := re.InterpretRequest(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
