package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"backend/models"
)

// VendorRepository wraps the vendors table. Vendors are soft deleted so
// historical proposals keep a valid reference.
type VendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

func (r *VendorRepository) Create(ctx context.Context, vendor *models.Vendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}

// List returns all active vendors ordered by name.
func (r *VendorRepository) List(ctx context.Context) ([]models.Vendor, error) {
	var vendors []models.Vendor
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&vendors).Error
	if err != nil {
		return nil, err
	}
	return vendors, nil
}

func (r *VendorRepository) GetByID(ctx context.Context, id string) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).First(&vendor, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

// GetByEmail matches an active vendor by address, case insensitively.
func (r *VendorRepository) GetByEmail(ctx context.Context, email string) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ? AND is_active = ?", strings.ToLower(email), true).
		First(&vendor).Error
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

// EmailTaken reports whether another active vendor already uses the
// address.
func (r *VendorRepository) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Vendor{}).
		Where("LOWER(email) = ? AND is_active = ?", strings.ToLower(email), true)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *VendorRepository) Update(ctx context.Context, vendor *models.Vendor) error {
	return r.db.WithContext(ctx).Save(vendor).Error
}

// SoftDelete deactivates a vendor instead of removing the row.
func (r *VendorRepository) SoftDelete(ctx context.Context, id string, now time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Vendor{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"deleted_at": now,
			"updated_at": now,
		}).Error
}
