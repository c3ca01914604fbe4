package models

import (
	"time"
)

// RFP lifecycle statuses. An RFP is created as DRAFT, becomes SENT once it
// has been emailed to at least one vendor, and is CLOSED by the maintenance
// job after its delivery deadline passes.
const (
	RFPStatusDraft  = "DRAFT"
	RFPStatusSent   = "SENT"
	RFPStatusClosed = "CLOSED"
)

// Proposal statuses assigned after extraction.
const (
	ProposalStatusParsing    = "PARSING"
	ProposalStatusParsed     = "PARSED"
	ProposalStatusIncomplete = "INCOMPLETE"
	ProposalStatusError      = "ERROR"
)

// Parse error codes for proposal extraction.
const (
	ParseErrorNoContent        = "NO_CONTENT"
	ParseErrorInsufficientData = "INSUFFICIENT_DATA"
)

// Overall compliance verdicts for a proposal against an RFP.
const (
	ComplianceFull         = "FULL"
	CompliancePartial      = "PARTIAL"
	ComplianceNonCompliant = "NON-COMPLIANT"
)

// RFPItem is a single requested line item inside an RFP.
type RFPItem struct {
	Name           string   `json:"name"`
	Quantity       int      `json:"quantity"`
	Specifications string   `json:"specifications"`
	EstimatedPrice *float64 `json:"estimatedPrice,omitempty"`
}

// ItemPrice is the extracted price for one RFP item in a vendor proposal.
type ItemPrice struct {
	Item       string  `json:"item"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
}

// ProposalTerms groups the commercial terms extracted from a proposal.
type ProposalTerms struct {
	PaymentTerms         *string  `json:"paymentTerms"`
	DeliveryTerms        *string  `json:"deliveryTerms"`
	AdditionalConditions []string `json:"additionalConditions"`
}

// ParsedRFP is the structured result of interpreting a free-text
// procurement request, before it is persisted as an RFP.
type ParsedRFP struct {
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Items        []RFPItem         `json:"items"`
	Budget       *float64          `json:"budget"`
	DeliveryDate *time.Time        `json:"deliveryDate"`
	PaymentTerms *string           `json:"paymentTerms"`
	Requirements map[string]string `json:"requirements"`
}

// ParsedProposal is the structured result of extracting a vendor reply.
// Every field except Summary and IsComplete may legitimately be empty;
// the extractor always returns a fully populated struct, never an error.
type ParsedProposal struct {
	TotalPrice   *float64      `json:"totalPrice"`
	ItemPrices   []ItemPrice   `json:"itemPrices"`
	DeliveryDate *time.Time    `json:"deliveryDate"`
	Warranty     *string       `json:"warranty"`
	Terms        ProposalTerms `json:"terms"`
	Summary      string        `json:"summary"`
	IsComplete   bool          `json:"isComplete"`
	ParseError   string        `json:"parseError,omitempty"`
}

// ScoreBreakdown holds the per-category points for one proposal.
// Category caps: price 40, delivery 25, warranty 15, terms 10,
// completeness 10 (total 100).
type ScoreBreakdown struct {
	Price        int `json:"price"`
	Delivery     int `json:"delivery"`
	Warranty     int `json:"warranty"`
	Terms        int `json:"terms"`
	Completeness int `json:"completeness"`
}

// Total sums the category scores.
func (s ScoreBreakdown) Total() int {
	return s.Price + s.Delivery + s.Warranty + s.Terms + s.Completeness
}

// ComplianceCheck records whether a proposal satisfies the hard RFP
// constraints.
type ComplianceCheck struct {
	MeetsBudget       bool   `json:"meetsBudget"`
	MeetsDelivery     bool   `json:"meetsDelivery"`
	MeetsWarranty     bool   `json:"meetsWarranty"`
	OverallCompliance string `json:"overallCompliance"`
}

// ProposalAnalysis is the scored assessment of a single proposal.
type ProposalAnalysis struct {
	ProposalID      string          `json:"proposalId"`
	VendorID        string          `json:"vendorId"`
	Score           int             `json:"score"`
	Rank            int             `json:"rank"`
	ScoreBreakdown  ScoreBreakdown  `json:"scoreBreakdown"`
	Pros            []string        `json:"pros"`
	Cons            []string        `json:"cons"`
	ComplianceCheck ComplianceCheck `json:"complianceCheck"`
	ValueAdds       []string        `json:"valueAdds"`
	RiskFactors     []string        `json:"riskFactors"`
	Notes           string          `json:"notes"`
}

// Recommendation names the winning proposal and why.
type Recommendation struct {
	RecommendedVendorID string   `json:"recommendedVendorId"`
	Reasoning           string   `json:"reasoning"`
	PriceSavings        *float64 `json:"priceSavings"`
	KeyAdvantages       []string `json:"keyAdvantages"`
	Considerations      []string `json:"considerations"`
}

// ComparisonResult is the full output of a proposal comparison. It is
// recomputed on every compare call and never persisted.
type ComparisonResult struct {
	Analysis       []ProposalAnalysis `json:"analysis"`
	Recommendation Recommendation     `json:"recommendation"`
	Summary        string             `json:"summary"`
}

// CreateRFPRequest is the body for POST /api/rfps.
type CreateRFPRequest struct {
	Description string `json:"description" binding:"required"`
}

// SendRFPRequest is the body for POST /api/rfps/:id/send.
type SendRFPRequest struct {
	VendorIDs []string `json:"vendorIds" binding:"required"`
}

// CreateProposalRequest is the body for POST /api/proposals (manual /
// simulated inbound email).
type CreateProposalRequest struct {
	RFPID       string   `json:"rfpId" binding:"required"`
	VendorID    string   `json:"vendorId" binding:"required"`
	RawContent  string   `json:"rawContent" binding:"required"`
	Attachments []string `json:"attachments"`
}

// InboundEmail is a received vendor email, as delivered by the IMAP
// receiver or the inbound webhook. Sender and subject are bookkeeping
// only; extraction works on the body text.
type InboundEmail struct {
	From    string    `json:"from"`
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Text    string    `json:"text"`
	HTML    string    `json:"html"`
	Date    time.Time `json:"date"`
}

// RFPEmailData carries the template variables for an outbound RFP email.
type RFPEmailData struct {
	VendorName   string `json:"vendor_name"`
	VendorEmail  string `json:"vendor_email"`
	RFPTitle     string `json:"rfp_title"`
	SupportEmail string `json:"support_email"`
}

// LoginRequest is the body for POST /api/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned on successful authentication.
type LoginResponse struct {
	Message      string `json:"message"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	SessionID    string `json:"session_id"`
}

// ErrorResponse is the generic error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
