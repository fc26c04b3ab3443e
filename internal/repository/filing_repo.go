package repository

import (
	"context"

	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FilingRepository defines the interface for data access of tax filings
type FilingRepository interface {
	Create(ctx context.Context, filing *model.TaxFiling) error
	Save(ctx context.Context, filing *model.TaxFiling) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TaxFiling, error)
	// FindByPeriod returns the filing for one (taxpayer, year, period, type)
	// tuple, preferring a non-draft row when both exist.
	FindByPeriod(ctx context.Context, userID uuid.UUID, taxYear, taxPeriod int, taxType string) (*model.TaxFiling, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.TaxFiling, int64, error)
}

type filingRepository struct {
	db *gorm.DB
}

func NewFilingRepository(db *gorm.DB) FilingRepository {
	return &filingRepository{db: db}
}

func (r *filingRepository) Create(ctx context.Context, filing *model.TaxFiling) error {
	return GetDB(ctx, r.db).Create(filing).Error
}

func (r *filingRepository) Save(ctx context.Context, filing *model.TaxFiling) error {
	return GetDB(ctx, r.db).Save(filing).Error
}

func (r *filingRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TaxFiling, error) {
	var filing model.TaxFiling
	if err := GetDB(ctx, r.db).First(&filing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &filing, nil
}

func (r *filingRepository) FindByPeriod(ctx context.Context, userID uuid.UUID, taxYear, taxPeriod int, taxType string) (*model.TaxFiling, error) {
	var filing model.TaxFiling
	err := GetDB(ctx, r.db).
		Where("user_id = ? AND tax_year = ? AND tax_period = ? AND tax_type = ?",
			userID, taxYear, taxPeriod, taxType).
		Order("CASE WHEN status = 'DRAFT' THEN 1 ELSE 0 END").
		First(&filing).Error
	if err != nil {
		return nil, err
	}
	return &filing, nil
}

func (r *filingRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.TaxFiling, int64, error) {
	var filings []model.TaxFiling
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.TaxFiling{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&filings).Error; err != nil {
		return nil, 0, err
	}

	return filings, total, nil
}
