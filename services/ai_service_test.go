package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/models"
)

// stubExtractor scripts the remote side of the service and counts calls.
type stubExtractor struct {
	interpretFn func(ctx context.Context, freeText string) (*models.ParsedRFP, error)
	extractFn   func(ctx context.Context, replyText string, rfp *models.RFP) (*models.ParsedProposal, error)
	evaluateFn  func(ctx context.Context, proposals []models.Proposal, rfp *models.RFP) (*models.ComparisonResult, error)

	interpretCalls int
	extractCalls   int
	evaluateCalls  int
}

func (s *stubExtractor) InterpretRequest(ctx context.Context, freeText string) (*models.ParsedRFP, error) {
	s.interpretCalls++
	return s.interpretFn(ctx, freeText)
}

func (s *stubExtractor) ExtractProposal(ctx context.Context, replyText string, rfp *models.RFP) (*models.ParsedProposal, error) {
	s.extractCalls++
	return s.extractFn(ctx, replyText, rfp)
}

func (s *stubExtractor) EvaluateProposals(ctx context.Context, proposals []models.Proposal, rfp *models.RFP) (*models.ComparisonResult, error) {
	s.evaluateCalls++
	return s.evaluateFn(ctx, proposals, rfp)
}

func failingStub(err error) *stubExtractor {
	return &stubExtractor{
		interpretFn: func(context.Context, string) (*models.ParsedRFP, error) {
			return nil, err
		},
		extractFn: func(context.Context, string, *models.RFP) (*models.ParsedProposal, error) {
			return nil, err
		},
		evaluateFn: func(context.Context, []models.Proposal, *models.RFP) (*models.ComparisonResult, error) {
			return nil, err
		},
	}
}

func TestAIServiceNoRemoteConfigured(t *testing.T) {
	svc := NewAIServiceWith(nil, testRuleExtractor())

	_, err := svc.ParseNaturalLanguageToRFP(context.Background(), "I need 20 laptops")
	assert.ErrorIs(t, err, ErrAIConfig)

	_, err = svc.CompareProposals(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrAIConfig)

	// Extraction always has the deterministic path.
	parsed, err := svc.ParseProposalEmail(context.Background(), vendorReply, laptopMonitorRFP())
	require.NoError(t, err)
	require.NotNil(t, parsed.TotalPrice)
	assert.Equal(t, 29250.0, *parsed.TotalPrice)
}

func TestAIServiceAuthErrorSurfaces(t *testing.T) {
	authErr := fmt.Errorf("%w: API key not valid", ErrAIAuth)
	stub := failingStub(authErr)
	svc := NewAIServiceWith(stub, testRuleExtractor())

	_, err := svc.ParseNaturalLanguageToRFP(context.Background(), "I need 20 laptops")
	assert.ErrorIs(t, err, ErrAIAuth)

	_, err = svc.CompareProposals(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrAIAuth)

	// Extraction degrades silently even on auth failures.
	parsed, err := svc.ParseProposalEmail(context.Background(), vendorReply, laptopMonitorRFP())
	require.NoError(t, err)
	require.NotNil(t, parsed.TotalPrice)
	assert.Equal(t, 1, stub.extractCalls)
}

func TestAIServiceGenericFailureFallsBack(t *testing.T) {
	stub := failingStub(errors.New("model overloaded"))
	svc := NewAIServiceWith(stub, testRuleExtractor())

	parsedRFP, err := svc.ParseNaturalLanguageToRFP(context.Background(),
		"I need 20 laptops with 16GB RAM, budget $50,000, delivery in 30 days")
	require.NoError(t, err)
	assert.Equal(t, 1, stub.interpretCalls)
	require.Len(t, parsedRFP.Items, 1)
	assert.Equal(t, "Laptops", parsedRFP.Items[0].Name)

	parsed, err := svc.ParseProposalEmail(context.Background(), vendorReply, laptopMonitorRFP())
	require.NoError(t, err)
	assert.Equal(t, 1, stub.extractCalls)
	require.NotNil(t, parsed.TotalPrice)

	rfp, proposals := comparisonFixture()
	result, err := svc.CompareProposals(context.Background(), proposals, rfp)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.evaluateCalls)
	require.Len(t, result.Analysis, 2)
	assert.Equal(t, 1, result.Analysis[0].Rank)
}

func TestAIServiceEmptyReplySkipsRemote(t *testing.T) {
	stub := failingStub(errors.New("should not be called"))
	svc := NewAIServiceWith(stub, testRuleExtractor())

	parsed, err := svc.ParseProposalEmail(context.Background(), "   \n  ", laptopMonitorRFP())
	require.NoError(t, err)
	assert.Equal(t, 0, stub.extractCalls)
	assert.Equal(t, models.ParseErrorNoContent, parsed.ParseError)
	assert.False(t, parsed.IsComplete)
}

func TestAIServiceNormalizesRemoteComparison(t *testing.T) {
	rfp, proposals := comparisonFixture()

	// Remote results arrive unsorted, unranked and without proposal IDs.
	stub := &stubExtractor{
		evaluateFn: func(context.Context, []models.Proposal, *models.RFP) (*models.ComparisonResult, error) {
			return &models.ComparisonResult{
				Analysis: []models.ProposalAnalysis{
					{VendorID: "vendor-b", Score: 48},
					{VendorID: "vendor-a", Score: 82},
				},
				Summary: "remote summary",
			}, nil
		},
	}
	svc := NewAIServiceWith(stub, testRuleExtractor())

	result, err := svc.CompareProposals(context.Background(), proposals, rfp)
	require.NoError(t, err)
	require.Len(t, result.Analysis, 2)

	assert.Equal(t, "vendor-a", result.Analysis[0].VendorID)
	assert.Equal(t, "prop-a", result.Analysis[0].ProposalID)
	assert.Equal(t, 1, result.Analysis[0].Rank)
	assert.Equal(t, "vendor-b", result.Analysis[1].VendorID)
	assert.Equal(t, "prop-b", result.Analysis[1].ProposalID)
	assert.Equal(t, 2, result.Analysis[1].Rank)
}
