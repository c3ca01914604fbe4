package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"backend/models"
	"backend/repository"
	"backend/services"
)

// proposalView is a proposal joined with a vendor summary for list
// endpoints.
type proposalView struct {
	models.Proposal
	Vendor vendorSummary `json:"vendor"`
}

type vendorSummary struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func withVendors(c *gin.Context, proposals []models.Proposal, vendors *repository.VendorRepository) []proposalView {
	views := make([]proposalView, 0, len(proposals))
	for _, proposal := range proposals {
		view := proposalView{
			Proposal: proposal,
			Vendor:   vendorSummary{Name: "Unknown Vendor"},
		}
		if vendor, err := vendors.GetByID(c.Request.Context(), proposal.VendorID); err == nil {
			view.Vendor = vendorSummary{ID: vendor.ID, Name: vendor.Name, Email: vendor.Email}
		}
		views = append(views, view)
	}
	return views
}

// GetAllProposals lists every proposal across RFPs for the inbox view.
// @Summary List proposals
// @Tags Proposals
// @Produce json
// @Success 200 {array} models.Proposal
// @Failure 500 {object} models.ErrorResponse
// @Router /api/proposals/all [get]
func GetAllProposals(proposals *repository.ProposalRepository, vendors *repository.VendorRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := proposals.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch proposals", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, withVendors(c, list, vendors))
	}
}

// GetProposalsByRFP lists the proposals submitted against one RFP.
// @Summary Proposals for an RFP
// @Tags Proposals
// @Produce json
// @Param rfpId path string true "RFP ID"
// @Success 200 {array} models.Proposal
// @Failure 500 {object} models.ErrorResponse
// @Router /api/proposals/rfp/{rfpId} [get]
func GetProposalsByRFP(proposals *repository.ProposalRepository, vendors *repository.VendorRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := proposals.ListByRFP(c.Request.Context(), c.Param("rfpId"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch proposals", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, withVendors(c, list, vendors))
	}
}

// CreateProposal records a vendor reply and extracts its data. Used for
// manual entry and simulated inbound email. A vendor may only have one
// proposal per RFP.
// @Summary Create proposal
// @Tags Proposals
// @Accept json
// @Produce json
// @Param body body models.CreateProposalRequest true "Proposal content"
// @Success 201 {object} models.Proposal
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/proposals [post]
func CreateProposal(proposals *repository.ProposalRepository, rfps *repository.RFPRepository, ai *services.AIService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateProposalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rfpId, vendorId and rawContent are required", "details": err.Error()})
			return
		}

		if existing, err := proposals.GetByRFPAndVendor(c.Request.Context(), req.RFPID, req.VendorID); err == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":              "A proposal from this vendor already exists for this RFP",
				"existingProposalId": existing.ID,
				"suggestion":         "Update the existing proposal or delete it first",
			})
			return
		}

		rfp, err := rfps.GetByID(c.Request.Context(), req.RFPID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "RFP not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch RFP", "details": err.Error()})
			return
		}

		now := time.Now()
		proposal := models.Proposal{
			ID:          uuid.NewString(),
			RFPID:       req.RFPID,
			VendorID:    req.VendorID,
			RawContent:  req.RawContent,
			Attachments: req.Attachments,
			Status:      models.ProposalStatusParsing,
			ReceivedAt:  now,
		}

		parsed, err := ai.ParseProposalEmail(c.Request.Context(), req.RawContent, rfp)
		if err != nil {
			// Extraction is never supposed to fail, but a saved raw
			// proposal beats a dropped one.
			log.Printf("Error parsing proposal: %v", err)
			proposal.Status = models.ProposalStatusError
			proposal.ParseError = err.Error()
			parsedAt := time.Now()
			proposal.ParsedAt = &parsedAt
			if err := proposals.Create(c.Request.Context(), &proposal); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create proposal", "details": err.Error()})
				return
			}
			c.JSON(http.StatusCreated, gin.H{
				"proposal": proposal,
				"warning":  "Proposal saved but parsing failed. Please review manually.",
			})
			return
		}

		proposal.ApplyParsed(parsed, time.Now())
		if err := proposals.Create(c.Request.Context(), &proposal); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create proposal", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, proposal)
	}
}

// CompareProposals scores and ranks the proposals on an RFP.
// @Summary Compare proposals
// @Description Runs the 100-point scoring rubric over every PARSED or INCOMPLETE proposal on the RFP. Needs at least two. Returns 503 when the AI service is unconfigured or rejects the key.
// @Tags Proposals
// @Produce json
// @Param rfpId path string true "RFP ID"
// @Success 200 {object} models.ComparisonResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /api/proposals/compare/{rfpId} [post]
func CompareProposals(proposals *repository.ProposalRepository, rfps *repository.RFPRepository, ai *services.AIService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfp, err := rfps.GetByID(c.Request.Context(), c.Param("rfpId"))
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "RFP not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch RFP", "details": err.Error()})
			return
		}

		comparable, err := proposals.ListComparable(c.Request.Context(), rfp.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch proposals", "details": err.Error()})
			return
		}
		if len(comparable) < 2 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":        "Need at least 2 proposals to compare",
				"currentCount": len(comparable),
			})
			return
		}

		comparison, err := ai.CompareProposals(c.Request.Context(), comparable, rfp)
		if err != nil {
			if errors.Is(err, services.ErrAIConfig) || errors.Is(err, services.ErrAIAuth) {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"error":   "AI comparison service unavailable. Please check API configuration.",
					"details": err.Error(),
				})
				return
			}
			log.Printf("Error comparing proposals: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compare proposals", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, comparison)
	}
}
