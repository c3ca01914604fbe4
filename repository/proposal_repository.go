package repository

import (
	"context"

	"gorm.io/gorm"

	"backend/models"
)

// ProposalRepository wraps the proposals table. One row exists per
// (rfp, vendor) pair.
type ProposalRepository struct {
	db *gorm.DB
}

func NewProposalRepository(db *gorm.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

func (r *ProposalRepository) Create(ctx context.Context, proposal *models.Proposal) error {
	return r.db.WithContext(ctx).Create(proposal).Error
}

func (r *ProposalRepository) Update(ctx context.Context, proposal *models.Proposal) error {
	return r.db.WithContext(ctx).Save(proposal).Error
}

// List returns every proposal, newest first.
func (r *ProposalRepository) List(ctx context.Context) ([]models.Proposal, error) {
	var proposals []models.Proposal
	if err := r.db.WithContext(ctx).Order("received_at DESC").Find(&proposals).Error; err != nil {
		return nil, err
	}
	return proposals, nil
}

// ListByRFP returns the proposals submitted against one RFP.
func (r *ProposalRepository) ListByRFP(ctx context.Context, rfpID string) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := r.db.WithContext(ctx).
		Where("rfp_id = ?", rfpID).
		Order("received_at ASC").
		Find(&proposals).Error
	if err != nil {
		return nil, err
	}
	return proposals, nil
}

func (r *ProposalRepository) GetByID(ctx context.Context, id string) (*models.Proposal, error) {
	var proposal models.Proposal
	if err := r.db.WithContext(ctx).First(&proposal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &proposal, nil
}

// GetByRFPAndVendor fetches the single proposal a vendor has on an RFP.
// Returns gorm.ErrRecordNotFound when the vendor has not replied yet.
func (r *ProposalRepository) GetByRFPAndVendor(ctx context.Context, rfpID, vendorID string) (*models.Proposal, error) {
	var proposal models.Proposal
	err := r.db.WithContext(ctx).
		Where("rfp_id = ? AND vendor_id = ?", rfpID, vendorID).
		First(&proposal).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

// ListComparable returns the proposals on an RFP that carry usable
// extracted data (PARSED or INCOMPLETE).
func (r *ProposalRepository) ListComparable(ctx context.Context, rfpID string) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := r.db.WithContext(ctx).
		Where("rfp_id = ? AND status IN ?", rfpID, []string{models.ProposalStatusParsed, models.ProposalStatusIncomplete}).
		Order("received_at ASC").
		Find(&proposals).Error
	if err != nil {
		return nil, err
	}
	return proposals, nil
}
