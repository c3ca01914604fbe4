package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"backend/models"
	"backend/repository"
	"backend/services"
)

// CreateRFP turns a free-text procurement request into a structured RFP.
// @Summary Create RFP
// @Description Interprets the free-text description into structured items, budget, deadline and terms, then saves the RFP as DRAFT. Returns 503 when the AI service is unconfigured or rejects the key.
// @Tags RFPs
// @Accept json
// @Produce json
// @Param body body models.CreateRFPRequest true "Request description"
// @Success 201 {object} models.RFP
// @Failure 400 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /api/rfps [post]
func CreateRFP(rfps *repository.RFPRepository, ai *services.AIService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateRFPRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Description is required", "details": err.Error()})
			return
		}

		parsed, err := ai.ParseNaturalLanguageToRFP(c.Request.Context(), req.Description)
		if err != nil {
			if errors.Is(err, services.ErrAIConfig) || errors.Is(err, services.ErrAIAuth) {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"error":   "AI service temporarily unavailable. Please try again or contact support.",
					"details": err.Error(),
				})
				return
			}
			log.Printf("Error interpreting RFP request: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create RFP", "details": err.Error()})
			return
		}

		now := time.Now()
		rfp := models.RFP{
			ID:           uuid.NewString(),
			Title:        parsed.Title,
			Description:  parsed.Description,
			Items:        models.RFPItemList(parsed.Items),
			Budget:       parsed.Budget,
			DeliveryDate: parsed.DeliveryDate,
			PaymentTerms: parsed.PaymentTerms,
			Requirements: models.RequirementsMap(parsed.Requirements),
			Status:       models.RFPStatusDraft,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := rfps.Create(c.Request.Context(), &rfp); err != nil {
			log.Printf("Error creating RFP: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create RFP", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, rfp)
	}
}

// GetRFPs lists all RFPs, newest first.
// @Summary List RFPs
// @Tags RFPs
// @Produce json
// @Success 200 {array} models.RFP
// @Failure 500 {object} models.ErrorResponse
// @Router /api/rfps [get]
func GetRFPs(rfps *repository.RFPRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := rfps.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch RFPs", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// GetRFP fetches one RFP by id.
// @Summary Get RFP
// @Tags RFPs
// @Produce json
// @Param id path string true "RFP ID"
// @Success 200 {object} models.RFP
// @Failure 404 {object} models.ErrorResponse
// @Router /api/rfps/{id} [get]
func GetRFP(rfps *repository.RFPRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfp, err := rfps.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "RFP not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch RFP", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rfp)
	}
}

// SendRFP emails the RFP to the selected vendors and marks it SENT.
// Every vendor gets an individual outcome; a partial failure still
// records the send and reports the split.
// @Summary Send RFP to vendors
// @Tags RFPs
// @Accept json
// @Produce json
// @Param id path string true "RFP ID"
// @Param body body models.SendRFPRequest true "Vendor IDs"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/rfps/{id}/send [post]
func SendRFP(rfps *repository.RFPRepository, vendors *repository.VendorRepository, email *services.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SendRFPRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "vendorIds must be an array", "details": err.Error()})
			return
		}
		if len(req.VendorIDs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "At least one vendor is required"})
			return
		}

		rfp, err := rfps.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "RFP not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch RFP", "details": err.Error()})
			return
		}

		outcomes := make([]services.SendOutcome, 0, len(req.VendorIDs))
		successCount := 0
		failCount := 0
		for _, vendorID := range req.VendorIDs {
			vendor, err := vendors.GetByID(c.Request.Context(), vendorID)
			if err != nil {
				outcomes = append(outcomes, services.SendOutcome{
					Method:    "email",
					Vendor:    vendorID,
					Error:     "Vendor not found",
					ErrorType: services.SendErrorRecipient,
				})
				failCount++
				continue
			}

			outcome := email.SendRFPToVendor(rfp, vendor)
			outcomes = append(outcomes, outcome)
			if outcome.Success {
				successCount++
			} else {
				failCount++
			}
		}

		if err := rfps.MarkSent(c.Request.Context(), rfp.ID, req.VendorIDs, time.Now()); err != nil {
			log.Printf("Error recording RFP send: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record RFP send", "details": err.Error()})
			return
		}

		message := "Failed to send RFP to all vendors"
		if successCount > 0 {
			message = fmt.Sprintf("RFP sent successfully to %d vendor(s)", successCount)
			if failCount > 0 {
				message += fmt.Sprintf(", %d failed", failCount)
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"message":      message,
			"vendorCount":  len(req.VendorIDs),
			"successCount": successCount,
			"failCount":    failCount,
			"emailResults": outcomes,
		})
	}
}

// DeleteRFP removes an RFP together with its proposals and send records.
// @Summary Delete RFP
// @Tags RFPs
// @Produce json
// @Param id path string true "RFP ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /api/rfps/{id} [delete]
func DeleteRFP(rfps *repository.RFPRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := rfps.GetByID(c.Request.Context(), c.Param("id")); err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "RFP not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch RFP", "details": err.Error()})
			return
		}

		if err := rfps.Delete(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete RFP", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "RFP deleted successfully"})
	}
}

// GetRFPQRCode renders a QR code pointing at the RFP detail page, for
// printed tender notices.
// @Summary RFP QR code
// @Tags RFPs
// @Produce png
// @Param id path string true "RFP ID"
// @Success 200 {file} png
// @Failure 404 {object} models.ErrorResponse
// @Router /api/rfps/{id}/qr [get]
func GetRFPQRCode(rfps *repository.RFPRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfp, err := rfps.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "RFP not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch RFP", "details": err.Error()})
			return
		}

		portal := os.Getenv("PORTAL_URL")
		if portal == "" {
			portal = "http://localhost:3000"
		}
		url := fmt.Sprintf("%s/rfps/%s", portal, rfp.ID)

		png, err := qrcode.Encode(url, qrcode.Medium, 256)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code", "details": err.Error()})
			return
		}

		c.Data(http.StatusOK, "image/png", png)
	}
}
