package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"backend/models"
)

// defaultBudgetCeiling stands in for a missing RFP budget so the ratio
// steps still resolve. Effectively every quote lands in the lowest step.
const defaultBudgetCeiling = 999999.0

// EvaluateProposals scores every proposal against the RFP on the fixed
// rubric (price 40, delivery 25, warranty 15, terms 10, completeness 10),
// ranks them by descending score and derives the recommendation. The
// result is deterministic for a given input set.
func (re *RuleExtractor) EvaluateProposals(ctx context.Context, proposals []models.Proposal, rfp *models.RFP) (*models.ComparisonResult, error) {
	budget := defaultBudgetCeiling
	var rfpDeadline *time.Time
	if rfp != nil {
		rfpDeadline = rfp.DeliveryDate
		if rfp.Budget != nil {
			budget = *rfp.Budget
		}
	}

	lowest, highest, priced := priceSpread(proposals)

	analysis := make([]models.ProposalAnalysis, 0, len(proposals))
	for _, proposal := range proposals {
		analysis = append(analysis, re.scoreProposal(proposal, budget, rfpDeadline, lowest, highest, priced))
	}

	sort.SliceStable(analysis, func(i, j int) bool {
		return analysis[i].Score > analysis[j].Score
	})
	for i := range analysis {
		analysis[i].Rank = i + 1
	}

	return &models.ComparisonResult{
		Analysis:       analysis,
		Recommendation: buildRecommendation(analysis, proposals),
		Summary:        comparisonSummary(analysis, proposals),
	}, nil
}

// priceSpread returns the lowest and highest quoted totals and how many
// proposals carry one.
func priceSpread(proposals []models.Proposal) (lowest, highest float64, priced int) {
	for _, p := range proposals {
		if p.TotalPrice == nil {
			continue
		}
		if priced == 0 || *p.TotalPrice < lowest {
			lowest = *p.TotalPrice
		}
		if priced == 0 || *p.TotalPrice > highest {
			highest = *p.TotalPrice
		}
		priced++
	}
	return lowest, highest, priced
}

func (re *RuleExtractor) scoreProposal(proposal models.Proposal, budget float64, rfpDeadline *time.Time, lowest, highest float64, priced int) models.ProposalAnalysis {
	var scores models.ScoreBreakdown

	// Price (40): half from the budget ratio, half relative to the
	// other quotes.
	if proposal.TotalPrice != nil {
		ratio := *proposal.TotalPrice / budget
		var budgetScore int
		switch {
		case ratio <= 0.7:
			budgetScore = 20
		case ratio <= 0.8:
			budgetScore = 18
		case ratio <= 0.9:
			budgetScore = 16
		case ratio <= 1.0:
			budgetScore = 14
		case ratio <= 1.1:
			budgetScore = 8
		default:
			budgetScore = 4
		}

		var relativeScore int
		if priced > 1 && highest > lowest {
			relativeScore = int(math.Round((highest - *proposal.TotalPrice) / (highest - lowest) * 20))
		} else if *proposal.TotalPrice == lowest {
			relativeScore = 20
		} else {
			relativeScore = 10
		}

		scores.Price = budgetScore + relativeScore
	}

	// Delivery (25): measured against the RFP deadline when both dates
	// are known, flat 10 otherwise.
	if proposal.DeliveryDate != nil && rfpDeadline != nil {
		daysDiff := int(math.Floor(proposal.DeliveryDate.Sub(*rfpDeadline).Hours() / 24))
		switch {
		case daysDiff <= -5:
			scores.Delivery = 25
		case daysDiff <= 0:
			scores.Delivery = 22
		case daysDiff <= 5:
			scores.Delivery = 15
		default:
			scores.Delivery = 5
		}
	} else {
		scores.Delivery = 10
	}

	// Warranty (15): keyed off the stated duration.
	if proposal.Warranty != nil {
		warrantyText := strings.ToLower(*proposal.Warranty)
		switch {
		case strings.Contains(warrantyText, "3 year") || strings.Contains(warrantyText, "36 month"):
			scores.Warranty = 15
		case strings.Contains(warrantyText, "2 year") || strings.Contains(warrantyText, "24 month"):
			scores.Warranty = 12
		case strings.Contains(warrantyText, "1 year") || strings.Contains(warrantyText, "12 month"):
			scores.Warranty = 8
		default:
			scores.Warranty = 5
		}
	}

	// Terms (10): longer payment windows score higher.
	if proposal.Terms.PaymentTerms != nil {
		terms := strings.ToLower(*proposal.Terms.PaymentTerms)
		switch {
		case strings.Contains(terms, "net 60") || strings.Contains(terms, "net 90"):
			scores.Terms = 10
		case strings.Contains(terms, "net 30"):
			scores.Terms = 8
		default:
			scores.Terms = 5
		}
	}

	// Completeness (10).
	if proposal.IsComplete {
		scores.Completeness = 10
	} else {
		scores.Completeness = 5
	}

	totalScore := scores.Total()

	meetsBudget := proposal.TotalPrice != nil && *proposal.TotalPrice <= budget
	meetsDelivery := proposal.DeliveryDate != nil && rfpDeadline != nil &&
		!proposal.DeliveryDate.After(*rfpDeadline)
	meetsWarranty := proposal.Warranty != nil

	complianceCount := 0
	for _, ok := range []bool{meetsBudget, meetsDelivery, meetsWarranty} {
		if ok {
			complianceCount++
		}
	}
	overallCompliance := models.ComplianceNonCompliant
	switch {
	case complianceCount == 3:
		overallCompliance = models.ComplianceFull
	case complianceCount == 2:
		overallCompliance = models.CompliancePartial
	}

	pros := []string{}
	cons := []string{}
	valueAdds := []string{}
	riskFactors := []string{}

	if scores.Price >= 30 {
		pros = append(pros, "Competitive pricing within budget")
	} else {
		cons = append(cons, "Price exceeds budget or not competitive")
	}
	if scores.Delivery >= 20 {
		pros = append(pros, "Meets or exceeds delivery timeline")
	} else {
		cons = append(cons, "Delivery timeline may not meet requirements")
	}
	if scores.Warranty >= 10 {
		pros = append(pros, "Adequate warranty coverage")
	} else {
		cons = append(cons, "Limited or no warranty information")
	}
	if proposal.IsComplete {
		pros = append(pros, "Complete proposal with all details")
	} else {
		cons = append(cons, "Incomplete proposal - missing information")
	}

	valueAdds = append(valueAdds, proposal.Terms.AdditionalConditions...)

	if !proposal.IsComplete {
		riskFactors = append(riskFactors, "Incomplete information may hide additional costs")
	}
	if !meetsBudget {
		riskFactors = append(riskFactors, "Over budget - requires additional approval")
	}
	if !meetsDelivery {
		riskFactors = append(riskFactors, "Delivery timeline may cause project delays")
	}

	if len(valueAdds) == 0 {
		valueAdds = []string{"Standard offering"}
	}
	if len(riskFactors) == 0 {
		riskFactors = []string{"No significant risks identified"}
	}

	return models.ProposalAnalysis{
		ProposalID:     proposal.ID,
		VendorID:       proposal.VendorID,
		Score:          totalScore,
		ScoreBreakdown: scores,
		Pros:           pros,
		Cons:           cons,
		ComplianceCheck: models.ComplianceCheck{
			MeetsBudget:       meetsBudget,
			MeetsDelivery:     meetsDelivery,
			MeetsWarranty:     meetsWarranty,
			OverallCompliance: overallCompliance,
		},
		ValueAdds:   valueAdds,
		RiskFactors: riskFactors,
		Notes:       fmt.Sprintf("Score: %d/100. %s compliance with RFP requirements.", totalScore, overallCompliance),
	}
}

// buildRecommendation derives the winner's summary from the top-ranked
// analysis. Price savings is the gap to the runner-up when both quoted a
// total.
func buildRecommendation(analysis []models.ProposalAnalysis, proposals []models.Proposal) models.Recommendation {
	if len(analysis) == 0 {
		return models.Recommendation{
			Considerations: []string{"Review final terms before acceptance"},
		}
	}

	top := analysis[0]
	var priceSavings *float64
	if len(analysis) > 1 {
		topPrice := totalPriceByVendor(proposals, top.VendorID)
		secondPrice := totalPriceByVendor(proposals, analysis[1].VendorID)
		if topPrice != nil && secondPrice != nil {
			savings := *secondPrice - *topPrice
			priceSavings = &savings
		}
	}

	keyAdvantages := top.Pros
	if len(keyAdvantages) > 3 {
		keyAdvantages = keyAdvantages[:3]
	}
	considerations := top.RiskFactors
	if len(considerations) == 0 {
		considerations = []string{"Review final terms before acceptance"}
	}

	return models.Recommendation{
		RecommendedVendorID: top.VendorID,
		Reasoning: fmt.Sprintf(
			"Vendor ranks #1 with %d/100 points. %s compliance with RFP requirements. Best overall value considering price (%d/40), delivery (%d/25), warranty (%d/15), and terms (%d/10).",
			top.Score, top.ComplianceCheck.OverallCompliance,
			top.ScoreBreakdown.Price, top.ScoreBreakdown.Delivery,
			top.ScoreBreakdown.Warranty, top.ScoreBreakdown.Terms),
		PriceSavings:   priceSavings,
		KeyAdvantages:  keyAdvantages,
		Considerations: considerations,
	}
}

func comparisonSummary(analysis []models.ProposalAnalysis, proposals []models.Proposal) string {
	if len(analysis) == 0 {
		return "Analyzed 0 proposals."
	}
	top := analysis[0]

	var priceSavings *float64
	if len(analysis) > 1 {
		topPrice := totalPriceByVendor(proposals, top.VendorID)
		secondPrice := totalPriceByVendor(proposals, analysis[1].VendorID)
		if topPrice != nil && secondPrice != nil {
			savings := *secondPrice - *topPrice
			priceSavings = &savings
		}
	}

	tail := "Recommendation based on comprehensive scoring across all criteria."
	if priceSavings != nil {
		p := message.NewPrinter(language.English)
		tail = p.Sprintf("Potential savings of $%d vs next best option.", int64(*priceSavings))
	}

	return fmt.Sprintf("Analyzed %d proposals. Top vendor scores %d/100 with %s compliance. %s",
		len(proposals), top.Score, top.ComplianceCheck.OverallCompliance, tail)
}

func totalPriceByVendor(proposals []models.Proposal, vendorID string) *float64 {
	for _, p := range proposals {
		if p.VendorID == vendorID {
			return p.TotalPrice
		}
	}
	return nil
}
