package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"backend/models"
	"backend/services"
)

const defaultPollInterval = 30 * time.Second

// ReceiveEmail is the inbound webhook: an email provider (or a test
// client) posts a vendor reply here instead of the IMAP path. The email
// is matched to a vendor and their latest RFP, then stored as a
// proposal.
// @Summary Receive vendor email
// @Tags Email
// @Accept json
// @Produce json
// @Param body body models.InboundEmail true "Inbound email"
// @Success 200 {object} services.ProcessResult
// @Failure 400 {object} models.ErrorResponse
// @Router /api/email/receive [post]
func ReceiveEmail(receiver *services.EmailReceiver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var email models.InboundEmail
		if err := c.ShouldBindJSON(&email); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email payload", "details": err.Error()})
			return
		}
		if email.From == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Sender address is required"})
			return
		}

		result := receiver.ProcessVendorEmail(c.Request.Context(), email)
		if !result.Success {
			c.JSON(http.StatusOK, gin.H{"message": "Email received but not processed", "reason": result.Reason})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Proposal created from email", "vendor": result.Vendor, "rfpId": result.RFPID})
	}
}

// CheckEmails runs one mailbox poll on demand.
// @Summary Check mailbox once
// @Tags Email
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /api/email/check [post]
func CheckEmails(receiver *services.EmailReceiver) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := receiver.PollOnce(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check emails", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Email check complete", "processedCount": count})
	}
}

// StartPolling begins background mailbox polling.
// @Summary Start email polling
// @Tags Email
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/email/start-polling [post]
func StartPolling(poller *services.Poller) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !poller.Start(defaultPollInterval) {
			c.JSON(http.StatusOK, gin.H{"message": "Email polling already running", "polling": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":  "Email polling started",
			"polling":  true,
			"interval": defaultPollInterval.String(),
		})
	}
}

// StopPolling halts background mailbox polling.
// @Summary Stop email polling
// @Tags Email
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/email/stop-polling [post]
func StopPolling(poller *services.Poller) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !poller.Stop() {
			c.JSON(http.StatusOK, gin.H{"message": "Email polling was not running", "polling": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Email polling stopped", "polling": false})
	}
}

// PollingStatus reports whether background polling is active.
// @Summary Email polling status
// @Tags Email
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/email/polling-status [get]
func PollingStatus(poller *services.Poller) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"polling": poller.Running()})
	}
}
