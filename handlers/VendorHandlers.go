package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"backend/models"
	"backend/repository"
)

// CreateVendor registers a new vendor.
// @Summary Create vendor
// @Description Creates a new vendor. Request body: name, email, phone, address, contactPerson. Email must be unique among active vendors.
// @Tags Vendors
// @Accept json
// @Produce json
// @Param body body models.Vendor true "Vendor data"
// @Success 201 {object} models.Vendor
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/vendors [post]
func CreateVendor(vendors *repository.VendorRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var vendor models.Vendor
		if err := c.ShouldBindJSON(&vendor); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		if vendor.Name == "" || vendor.Email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name and email are required"})
			return
		}

		taken, err := vendors.EmailTaken(c.Request.Context(), vendor.Email, "")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check vendor email", "details": err.Error()})
			return
		}
		if taken {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Vendor with this email already exists"})
			return
		}

		now := time.Now()
		vendor.ID = uuid.NewString()
		vendor.IsActive = true
		vendor.CreatedAt = now
		vendor.UpdatedAt = now

		if err := vendors.Create(c.Request.Context(), &vendor); err != nil {
			log.Printf("Error creating vendor: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create vendor", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, vendor)
	}
}

// GetVendors lists all active vendors.
// @Summary List vendors
// @Tags Vendors
// @Produce json
// @Success 200 {array} models.Vendor
// @Failure 500 {object} models.ErrorResponse
// @Router /api/vendors [get]
func GetVendors(vendors *repository.VendorRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := vendors.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch vendors", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// GetVendor fetches one vendor by id.
// @Summary Get vendor
// @Tags Vendors
// @Produce json
// @Param id path string true "Vendor ID"
// @Success 200 {object} models.Vendor
// @Failure 404 {object} models.ErrorResponse
// @Router /api/vendors/{id} [get]
func GetVendor(vendors *repository.VendorRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		vendor, err := vendors.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch vendor", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, vendor)
	}
}

// UpdateVendor updates a vendor's contact details.
// @Summary Update vendor
// @Tags Vendors
// @Accept json
// @Produce json
// @Param id path string true "Vendor ID"
// @Param body body models.Vendor true "Vendor data"
// @Success 200 {object} models.Vendor
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/vendors/{id} [put]
func UpdateVendor(vendors *repository.VendorRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		vendor, err := vendors.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch vendor", "details": err.Error()})
			return
		}

		var input models.Vendor
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		if input.Email != "" && input.Email != vendor.Email {
			taken, err := vendors.EmailTaken(c.Request.Context(), input.Email, vendor.ID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check vendor email", "details": err.Error()})
				return
			}
			if taken {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Vendor with this email already exists"})
				return
			}
			vendor.Email = input.Email
		}
		if input.Name != "" {
			vendor.Name = input.Name
		}
		if input.Phone != "" {
			vendor.Phone = input.Phone
		}
		if input.Address != "" {
			vendor.Address = input.Address
		}
		if input.ContactPerson != "" {
			vendor.ContactPerson = input.ContactPerson
		}
		vendor.UpdatedAt = time.Now()

		if err := vendors.Update(c.Request.Context(), vendor); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update vendor", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, vendor)
	}
}

// DeleteVendor deactivates a vendor. The row is kept so existing
// proposals stay attributable.
// @Summary Delete vendor
// @Tags Vendors
// @Produce json
// @Param id path string true "Vendor ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /api/vendors/{id} [delete]
func DeleteVendor(vendors *repository.VendorRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		vendor, err := vendors.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch vendor", "details": err.Error()})
			return
		}

		if err := vendors.SoftDelete(c.Request.Context(), vendor.ID, time.Now()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete vendor", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Vendor deleted successfully"})
	}
}
