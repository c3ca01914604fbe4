package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/models"
)

func comparisonFixture() (*models.RFP, []models.Proposal) {
	budget := 30000.0
	deadline := time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC)
	rfp := &models.RFP{
		ID:           "rfp-1",
		Title:        "Equipment Procurement Request",
		Budget:       &budget,
		DeliveryDate: &deadline,
	}

	priceA := 29250.0
	deliveryA := deadline.AddDate(0, 0, -5)
	warrantyA := "2-year warranty"
	netA := "Net 30"

	priceB := 32000.0
	deliveryB := deadline.AddDate(0, 0, -10)
	warrantyB := "1-year warranty"

	proposals := []models.Proposal{
		{
			ID:           "prop-a",
			RFPID:        rfp.ID,
			VendorID:     "vendor-a",
			TotalPrice:   &priceA,
			DeliveryDate: &deliveryA,
			Warranty:     &warrantyA,
			Terms:        models.TermsJSON{PaymentTerms: &netA},
			IsComplete:   true,
			Status:       models.ProposalStatusParsed,
		},
		{
			ID:           "prop-b",
			RFPID:        rfp.ID,
			VendorID:     "vendor-b",
			TotalPrice:   &priceB,
			DeliveryDate: &deliveryB,
			Warranty:     &warrantyB,
			IsComplete:   true,
			Status:       models.ProposalStatusParsed,
		},
	}
	return rfp, proposals
}

func TestEvaluateProposalsRanksAndScores(t *testing.T) {
	re := testRuleExtractor()
	rfp, proposals := comparisonFixture()

	result, err := re.EvaluateProposals(context.Background(), proposals, rfp)
	require.NoError(t, err)
	require.Len(t, result.Analysis, 2)

	top := result.Analysis[0]
	second := result.Analysis[1]

	assert.Equal(t, "vendor-a", top.VendorID)
	assert.Equal(t, "prop-a", top.ProposalID)
	assert.Equal(t, 1, top.Rank)
	assert.Equal(t, 2, second.Rank)

	// A: budget 14 + relative 20 = 34 price, 25 delivery (5 days
	// early), 8 terms, 10 completeness. The hyphenated "2-year
	// warranty" text does not hit the "2 year" rubric match, so it
	// scores the generic 5.
	assert.Equal(t, 34, top.ScoreBreakdown.Price)
	assert.Equal(t, 25, top.ScoreBreakdown.Delivery)
	assert.Equal(t, 5, top.ScoreBreakdown.Warranty)
	assert.Equal(t, 8, top.ScoreBreakdown.Terms)
	assert.Equal(t, 10, top.ScoreBreakdown.Completeness)
	assert.Equal(t, 82, top.Score)

	// B: over budget (8) and highest quote (0 relative).
	assert.Equal(t, 8, second.ScoreBreakdown.Price)
	assert.Equal(t, 25, second.ScoreBreakdown.Delivery)
	assert.Equal(t, 5, second.ScoreBreakdown.Warranty)
	assert.Equal(t, 0, second.ScoreBreakdown.Terms)
	assert.Equal(t, 48, second.Score)

	assert.Equal(t, models.ComplianceFull, top.ComplianceCheck.OverallCompliance)
	assert.False(t, second.ComplianceCheck.MeetsBudget)
	assert.Equal(t, models.CompliancePartial, second.ComplianceCheck.OverallCompliance)
}

func TestEvaluateProposalsWarrantyTiers(t *testing.T) {
	re := testRuleExtractor()
	rfp, _ := comparisonFixture()

	cases := []struct {
		warranty string
		want     int
	}{
		{"3 year warranty", 15},
		{"36 month coverage", 15},
		{"2 year warranty", 12},
		{"1 year warranty", 8},
		{"12 month limited warranty", 8},
		{"2-year warranty", 5},
		{"lifetime coverage", 5},
	}

	for _, tc := range cases {
		w := tc.warranty
		price := 20000.0
		proposals := []models.Proposal{{
			ID:         "prop-w",
			RFPID:      rfp.ID,
			VendorID:   "vendor-w",
			TotalPrice: &price,
			Warranty:   &w,
			IsComplete: true,
		}}
		result, err := re.EvaluateProposals(context.Background(), proposals, rfp)
		require.NoError(t, err)
		require.Len(t, result.Analysis, 1)
		assert.Equal(t, tc.want, result.Analysis[0].ScoreBreakdown.Warranty, "warranty %q", tc.warranty)
	}
}

func TestEvaluateProposalsScoreEqualsBreakdownSum(t *testing.T) {
	re := testRuleExtractor()
	rfp, proposals := comparisonFixture()

	result, err := re.EvaluateProposals(context.Background(), proposals, rfp)
	require.NoError(t, err)

	for _, a := range result.Analysis {
		assert.Equal(t, a.ScoreBreakdown.Total(), a.Score)
		assert.LessOrEqual(t, a.ScoreBreakdown.Price, 40)
		assert.LessOrEqual(t, a.ScoreBreakdown.Delivery, 25)
		assert.LessOrEqual(t, a.ScoreBreakdown.Warranty, 15)
		assert.LessOrEqual(t, a.ScoreBreakdown.Terms, 10)
		assert.LessOrEqual(t, a.ScoreBreakdown.Completeness, 10)
		assert.LessOrEqual(t, a.Score, 100)
	}
}

func TestEvaluateProposalsRecommendation(t *testing.T) {
	re := testRuleExtractor()
	rfp, proposals := comparisonFixture()

	result, err := re.EvaluateProposals(context.Background(), proposals, rfp)
	require.NoError(t, err)

	rec := result.Recommendation
	assert.Equal(t, "vendor-a", rec.RecommendedVendorID)
	require.NotNil(t, rec.PriceSavings)
	assert.Equal(t, 2750.0, *rec.PriceSavings)
	assert.NotEmpty(t, rec.KeyAdvantages)
	assert.LessOrEqual(t, len(rec.KeyAdvantages), 3)
	assert.NotEmpty(t, rec.Considerations)
	assert.Contains(t, rec.Reasoning, "82/100")

	assert.Contains(t, result.Summary, "Analyzed 2 proposals")
	assert.Contains(t, result.Summary, "$2,750")
}

func TestEvaluateProposalsInputOrderIndependentRanking(t *testing.T) {
	re := testRuleExtractor()
	rfp, proposals := comparisonFixture()

	forward, err := re.EvaluateProposals(context.Background(), proposals, rfp)
	require.NoError(t, err)

	reversed := []models.Proposal{proposals[1], proposals[0]}
	backward, err := re.EvaluateProposals(context.Background(), reversed, rfp)
	require.NoError(t, err)

	require.Len(t, backward.Analysis, 2)
	assert.Equal(t, forward.Analysis[0].VendorID, backward.Analysis[0].VendorID)
	assert.Equal(t, forward.Analysis[0].Score, backward.Analysis[0].Score)
	assert.Equal(t, forward.Recommendation.RecommendedVendorID, backward.Recommendation.RecommendedVendorID)
}

func TestEvaluateProposalsMissingDataDefaults(t *testing.T) {
	re := testRuleExtractor()
	rfp, _ := comparisonFixture()

	price := 15000.0
	proposals := []models.Proposal{
		{
			ID:         "prop-c",
			RFPID:      rfp.ID,
			VendorID:   "vendor-c",
			TotalPrice: &price,
			IsComplete: false,
			Status:     models.ProposalStatusIncomplete,
		},
		{
			ID:       "prop-d",
			RFPID:    rfp.ID,
			VendorID: "vendor-d",
			Status:   models.ProposalStatusIncomplete,
		},
	}

	result, err := re.EvaluateProposals(context.Background(), proposals, rfp)
	require.NoError(t, err)
	require.Len(t, result.Analysis, 2)

	top := result.Analysis[0]
	assert.Equal(t, "vendor-c", top.VendorID)
	// A proposal without a delivery date scores the flat 10.
	assert.Equal(t, 10, top.ScoreBreakdown.Delivery)
	assert.Equal(t, 0, top.ScoreBreakdown.Warranty)
	assert.Equal(t, 5, top.ScoreBreakdown.Completeness)
	assert.False(t, top.ComplianceCheck.MeetsDelivery)
	assert.False(t, top.ComplianceCheck.MeetsWarranty)
	assert.Equal(t, models.ComplianceNonCompliant, top.ComplianceCheck.OverallCompliance)

	// A proposal with no price scores zero in the price category.
	bottom := result.Analysis[1]
	assert.Equal(t, "vendor-d", bottom.VendorID)
	assert.Equal(t, 0, bottom.ScoreBreakdown.Price)
	assert.False(t, bottom.ComplianceCheck.MeetsBudget)
	assert.Contains(t, bottom.RiskFactors, "Over budget - requires additional approval")
}
