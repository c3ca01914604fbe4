package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"backend/models"
)

// RFPRepository wraps the rfps table.
type RFPRepository struct {
	db *gorm.DB
}

func NewRFPRepository(db *gorm.DB) *RFPRepository {
	return &RFPRepository{db: db}
}

func (r *RFPRepository) Create(ctx context.Context, rfp *models.RFP) error {
	return r.db.WithContext(ctx).Create(rfp).Error
}

func (r *RFPRepository) GetByID(ctx context.Context, id string) (*models.RFP, error) {
	var rfp models.RFP
	if err := r.db.WithContext(ctx).First(&rfp, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rfp, nil
}

// List returns all RFPs, newest first.
func (r *RFPRepository) List(ctx context.Context) ([]models.RFP, error) {
	var rfps []models.RFP
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rfps).Error; err != nil {
		return nil, err
	}
	return rfps, nil
}

func (r *RFPRepository) Update(ctx context.Context, rfp *models.RFP) error {
	return r.db.WithContext(ctx).Save(rfp).Error
}

// Delete removes an RFP together with its proposals and vendor links.
func (r *RFPRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("rfp_id = ?", id).Delete(&models.Proposal{}).Error; err != nil {
			return err
		}
		if err := tx.Where("rfp_id = ?", id).Delete(&models.RFPVendor{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.RFP{}, "id = ?", id).Error
	})
}

// MarkSent flips the RFP to SENT and records the per-vendor send rows.
func (r *RFPRepository) MarkSent(ctx context.Context, rfpID string, vendorIDs []string, sentAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, vendorID := range vendorIDs {
			link := models.RFPVendor{RFPID: rfpID, VendorID: vendorID, SentAt: sentAt}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.RFP{}).
			Where("id = ?", rfpID).
			Updates(map[string]interface{}{"status": models.RFPStatusSent, "updated_at": sentAt}).Error
	})
}

// CloseExpired closes every SENT RFP whose delivery deadline has passed.
// Returns how many were closed; run daily by the maintenance cron.
func (r *RFPRepository) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.RFP{}).
		Where("status = ? AND delivery_date IS NOT NULL AND delivery_date < ?", models.RFPStatusSent, now).
		Updates(map[string]interface{}{"status": models.RFPStatusClosed, "updated_at": now})
	return result.RowsAffected, result.Error
}
