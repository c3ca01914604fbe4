package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"

	"backend/models"
)

// AI failure classes that cross the service boundary. Only these two are
// ever surfaced to handlers; every other remote failure is absorbed by
// the rule-based fallback.
var (
	ErrAIConfig = errors.New("AI_CONFIG_ERROR: GEMINI_API_KEY not configured")
	ErrAIAuth   = errors.New("AI_AUTH_ERROR: invalid Gemini API key")
)

// Extractor converts unstructured procurement text into structured data.
// Two implementations exist: GeminiExtractor (remote) and RuleExtractor
// (deterministic, no network). AIService composes them.
type Extractor interface {
	InterpretRequest(ctx context.Context, freeText string) (*models.ParsedRFP, error)
	ExtractProposal(ctx context.Context, replyText string, rfp *models.RFP) (*models.ParsedProposal, error)
	EvaluateProposals(ctx context.Context, proposals []models.Proposal, rfp *models.RFP) (*models.ComparisonResult, error)
}

// AIService is the try-remote-then-fallback policy over the two
// extractors. Request interpretation and proposal comparison surface
// configuration/authentication errors to the caller; proposal extraction
// never does, since it always has the deterministic path.
type AIService struct {
	remote   Extractor
	fallback *RuleExtractor
}

// NewAIService wires the remote extractor from the environment. A missing
// API key leaves the remote side nil; extraction still works through the
// rule-based path, while interpret/compare report AI_CONFIG_ERROR.
func NewAIService() *AIService {
	svc := &AIService{fallback: NewRuleExtractor()}

	remote, err := NewGeminiExtractor(context.Background())
	if err != nil {
		log.Printf("Gemini extractor unavailable: %v. Interpret/compare will report AI_CONFIG_ERROR; extraction uses the rule-based parser.", err)
		return svc
	}
	svc.remote = remote
	return svc
}

// NewAIServiceWith builds a service from explicit parts (tests).
func NewAIServiceWith(remote Extractor, fallback *RuleExtractor) *AIService {
	return &AIService{remote: remote, fallback: fallback}
}

// ParseNaturalLanguageToRFP converts a buyer's free-text description into
// a structured RFP. Configuration and authentication failures are
// returned to the caller; any other remote failure falls back to the
// deterministic interpreter.
func (s *AIService) ParseNaturalLanguageToRFP(ctx context.Context, description string) (*models.ParsedRFP, error) {
	if s.remote == nil {
		return nil, ErrAIConfig
	}

	parsed, err := s.remote.InterpretRequest(ctx, description)
	if err == nil {
		return parsed, nil
	}
	if errors.Is(err, ErrAIConfig) || errors.Is(err, ErrAIAuth) {
		return nil, err
	}

	log.Printf("Gemini interpretation failed, using fallback parsing: %v", err)
	return s.fallback.InterpretRequest(ctx, description)
}

// ParseProposalEmail extracts structured pricing/delivery/terms data from
// a vendor reply. Empty input is terminal: no extraction (remote or
// local) is attempted. All remote failures, including missing
// configuration, silently degrade to the rule-based parser.
func (s *AIService) ParseProposalEmail(ctx context.Context, replyText string, rfp *models.RFP) (*models.ParsedProposal, error) {
	if strings.TrimSpace(replyText) == "" {
		return emptyProposalResult(), nil
	}

	if s.remote != nil {
		parsed, err := s.remote.ExtractProposal(ctx, replyText, rfp)
		if err == nil {
			return parsed, nil
		}
		log.Printf("Gemini proposal extraction failed, using fallback parser: %v", err)
	}

	return s.fallback.ExtractProposal(ctx, replyText, rfp)
}

// CompareProposals scores and ranks proposals against the RFP.
// Configuration and authentication failures surface; any other remote
// failure falls back to the deterministic rubric. The caller is expected
// to pass at least two proposals in PARSED or INCOMPLETE status, but the
// scoring itself handles any non-empty sequence.
func (s *AIService) CompareProposals(ctx context.Context, proposals []models.Proposal, rfp *models.RFP) (*models.ComparisonResult, error) {
	if s.remote == nil {
		return nil, ErrAIConfig
	}

	result, err := s.remote.EvaluateProposals(ctx, proposals, rfp)
	if err == nil {
		finalizeRemoteComparison(result, proposals)
		return result, nil
	}
	if errors.Is(err, ErrAIConfig) || errors.Is(err, ErrAIAuth) {
		return nil, err
	}

	log.Printf("Gemini comparison failed, using fallback scoring: %v", err)
	return s.fallback.EvaluateProposals(ctx, proposals, rfp)
}

// Fallback exposes the deterministic extractor (exports, tests).
func (s *AIService) Fallback() *RuleExtractor {
	return s.fallback
}

// finalizeRemoteComparison normalizes a remote result: analyses reordered
// by descending score, ranks reassigned 1..N, and proposal IDs resolved
// from the vendor IDs the model echoes back.
func finalizeRemoteComparison(result *models.ComparisonResult, proposals []models.Proposal) {
	byVendor := make(map[string]string, len(proposals))
	for _, p := range proposals {
		byVendor[p.VendorID] = p.ID
	}

	sort.SliceStable(result.Analysis, func(i, j int) bool {
		return result.Analysis[i].Score > result.Analysis[j].Score
	})
	for i := range result.Analysis {
		result.Analysis[i].Rank = i + 1
		if result.Analysis[i].ProposalID == "" {
			result.Analysis[i].ProposalID = byVendor[result.Analysis[i].VendorID]
		}
	}
}

// emptyProposalResult is the terminal NO_CONTENT extraction result.
func emptyProposalResult() *models.ParsedProposal {
	return &models.ParsedProposal{
		ItemPrices: []models.ItemPrice{},
		Terms:      models.ProposalTerms{AdditionalConditions: []string{}},
		Summary:    "Empty or invalid email content",
		IsComplete: false,
		ParseError: models.ParseErrorNoContent,
	}
}
