package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/integration"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/model"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type failingRiskAssessor struct{}

func (failingRiskAssessor) AssessFilingRisk(ctx context.Context, snapshot integration.FilingSnapshot) (*integration.RiskAssessment, error) {
	return nil, errors.New("risk service unavailable")
}

func newFilingService(t *testing.T, db *gorm.DB, risk integration.RiskAssessor) FilingService {
	t.Helper()
	if risk == nil {
		risk = integration.NewAIRiskAssessor("")
	}
	compliance := NewComplianceService(db)
	notification := NewNotificationService(db, nil)
	return NewFilingService(
		repository.NewUserRepository(db),
		repository.NewFilingRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		NewTaxCalculationService(),
		risk,
		integration.NewBlockchainLedger(""),
		compliance,
		notification,
	)
}

func TestSubmitIncomeTax(t *testing.T) {
	db := newTestDB(t)
	svc := newFilingService(t, db, nil)
	user := createTestUser(t, db, model.UserTypeIndividual)
	ctx := context.Background()

	filing, err := svc.SubmitIncomeTax(ctx, user.ID, &IncomeTaxFilingRequest{
		TaxYear:          2025,
		TaxPeriod:        6,
		EmploymentIncome: dec("60000"),
	})
	require.NoError(t, err)

	require.Equal(t, model.FilingSubmitted, filing.Status)
	require.NotNil(t, filing.SubmittedAt)
	assertDecimalEqual(t, dec("60000"), filing.TotalIncome, "total income")
	assertDecimalEqual(t, dec("600"), filing.TaxDue, "tax due")
	assertDecimalEqual(t, dec("1"), filing.EffectiveTaxRate, "effective tax rate")
	require.Equal(t, 0.1, filing.RiskScore) // no deductions, low ratio
	require.NotEmpty(t, filing.LedgerReference)

	// Compliance counters updated
	var score model.ComplianceScore
	require.NoError(t, db.First(&score, "user_id = ?", user.ID).Error)
	require.Equal(t, 1, score.TotalFilings)

	// Confirmation notification stored
	var notifications int64
	require.NoError(t, db.Model(&model.Notification{}).Where("user_id = ?", user.ID).Count(&notifications).Error)
	require.Equal(t, int64(1), notifications)

	// Audit trail written
	var audits int64
	require.NoError(t, db.Model(&model.AuditLog{}).Where("action = ?", model.ActionFilingSubmitted).Count(&audits).Error)
	require.Equal(t, int64(1), audits)
}

func TestSubmitIncomeTax_SaveDraft(t *testing.T) {
	db := newTestDB(t)
	svc := newFilingService(t, db, nil)
	user := createTestUser(t, db, model.UserTypeIndividual)
	ctx := context.Background()

	filing, err := svc.SubmitIncomeTax(ctx, user.ID, &IncomeTaxFilingRequest{
		TaxYear:          2025,
		TaxPeriod:        6,
		EmploymentIncome: dec("60000"),
		SaveDraft:        true,
	})
	require.NoError(t, err)

	require.Equal(t, model.FilingDraft, filing.Status)
	require.Nil(t, filing.SubmittedAt)
	assertDecimalEqual(t, dec("600"), filing.TaxDue, "tax computed even for drafts")

	// Drafts do not touch compliance, ledger or notifications
	var score model.ComplianceScore
	err = db.First(&score, "user_id = ?", user.ID).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.Empty(t, filing.LedgerReference)
}

func TestSubmitIncomeTax_DraftThenSubmitReusesRow(t *testing.T) {
	db := newTestDB(t)
	svc := newFilingService(t, db, nil)
	user := createTestUser(t, db, model.UserTypeIndividual)
	ctx := context.Background()

	draft, err := svc.SubmitIncomeTax(ctx, user.ID, &IncomeTaxFilingRequest{
		TaxYear:          2025,
		TaxPeriod:        6,
		EmploymentIncome: dec("50000"),
		SaveDraft:        true,
	})
	require.NoError(t, err)

	submitted, err := svc.SubmitIncomeTax(ctx, user.ID, &IncomeTaxFilingRequest{
		TaxYear:          2025,
		TaxPeriod:        6,
		EmploymentIncome: dec("60000"),
	})
	require.NoError(t, err)

	require.Equal(t, draft.ID, submitted.ID)
	require.Equal(t, model.FilingSubmitted, submitted.Status)
	assertDecimalEqual(t, dec("600"), submitted.TaxDue, "recalculated on resubmission")

	var count int64
	require.NoError(t, db.Model(&model.TaxFiling{}).Where("user_id = ?", user.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestSubmitIncomeTax_DuplicatePeriodRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newFilingService(t, db, nil)
	user := createTestUser(t, db, model.UserTypeIndividual)
	ctx := context.Background()

	req := &IncomeTaxFilingRequest{TaxYear: 2025, TaxPeriod: 6, EmploymentIncome: dec("60000")}
	_, err := svc.SubmitIncomeTax(ctx, user.ID, req)
	require.NoError(t, err)

	_, err = svc.SubmitIncomeTax(ctx, user.ID, req)
	require.ErrorIs(t, err, ErrDuplicateFiling)
}

// racingFilingRepo simulates the losing side of two concurrent submissions
// for the same period: the duplicate check sees nothing, then the unique
// index rejects the insert.
type racingFilingRepo struct {
	repository.FilingRepository
}

func (racingFilingRepo) FindByPeriod(ctx context.Context, userID uuid.UUID, taxYear, taxPeriod int, taxType string) (*model.TaxFiling, error) {
	return nil, gorm.ErrRecordNotFound
}

func (racingFilingRepo) Create(ctx context.Context, filing *model.TaxFiling) error {
	return gorm.ErrDuplicatedKey
}

func TestSubmitIncomeTax_LosingConcurrentSubmissionLeavesNoTrace(t *testing.T) {
	db := newTestDB(t)
	svc := NewFilingService(
		repository.NewUserRepository(db),
		racingFilingRepo{},
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		NewTaxCalculationService(),
		integration.NewAIRiskAssessor(""),
		integration.NewBlockchainLedger(""),
		NewComplianceService(db),
		NewNotificationService(db, nil),
	)
	user := createTestUser(t, db, model.UserTypeIndividual)

	_, err := svc.SubmitIncomeTax(context.Background(), user.ID, &IncomeTaxFilingRequest{
		TaxYear:          2025,
		TaxPeriod:        6,
		EmploymentIncome: dec("60000"),
	})
	require.ErrorIs(t, err, ErrDuplicateFiling)

	// The rejected submission must not move compliance counters or notify.
	var score model.ComplianceScore
	err = db.First(&score, "user_id = ?", user.ID).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var notifications int64
	require.NoError(t, db.Model(&model.Notification{}).Count(&notifications).Error)
	require.Zero(t, notifications)
}

func TestSubmitIncomeTax_SamePeriodDifferentTaxType(t *testing.T) {
	db := newTestDB(t)
	svc := newFilingService(t, db, nil)
	user := createTestUser(t, db, model.UserTypeBusiness)
	ctx := context.Background()

	_, err := svc.SubmitIncomeTax(ctx, user.ID, &IncomeTaxFilingRequest{
		TaxYear: 2025, TaxPeriod: 6, EmploymentIncome: dec("60000"),
	})
	require.NoError(t, err)

	// VAT for the same period is a separate liability
	_, err = svc.SubmitVat(ctx, user.ID, &VatFilingRequest{
		TaxYear: 2025, TaxPeriod: 6, TotalSales: dec("50000"), TotalPurchases: dec("20000"),
	})
	require.NoError(t, err)
}

func TestSubmitIncomeTax_RiskServiceDownUsesDefault(t *testing.T) {
	db := newTestDB(t)
	svc := newFilingService(t, db, failingRiskAssessor{})
	user := createTestUser(t, db, model.UserTypeIndividual)
	ctx := context.Background()

	filing, err := svc.SubmitIncomeTax(ctx, user.ID, &IncomeTaxFilingRequest{
		TaxYear:          2025,
		TaxPeriod:        6,
		EmploymentIncome: dec("60000"),
	})
	require.NoError(t, err)
	require.Equal(t, model.FilingSubmitted, filing.Status)
	require.Equal(t, defaultRiskScore, filing.RiskScore)
}

func TestSubmitIncomeTax_NegativeAmountRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newFilingService(t, db, nil)
	user := createTestUser(t, db, model.UserTypeIndividual)

	_, err := svc.SubmitIncomeTax(context.Background(), user.ID, &IncomeTaxFilingRequest{
		TaxYear:          2025,
		TaxPeriod:        6,
		EmploymentIncome: dec("-100"),
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestSubmitIncomeTax_InvalidPeriodRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newFilingService(t, db, nil)
	user := createTestUser(t, db, model.UserTypeIndividual)

	_, err := svc.SubmitIncomeTax(context.Background(), user.ID, &IncomeTaxFilingRequest{
		TaxYear:          2025,
		TaxPeriod:        13,
		EmploymentIncome: dec("60000"),
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestSubmitVat(t *testing.T) {
	db := newTestDB(t)
	svc := newFilingService(t, db, nil)
	user := createTestUser(t, db, model.UserTypeBusiness)
	ctx := context.Background()

	filing, err := svc.SubmitVat(ctx, user.ID, &VatFilingRequest{
		TaxYear:        2025,
		TaxPeriod:      6,
		TotalSales:     dec("50000"),
		TotalPurchases: dec("20000"),
	})
	require.NoError(t, err)

	require.Equal(t, model.TaxTypeVAT, filing.TaxType)
	assertDecimalEqual(t, dec("8000"), filing.OutputVat, "output VAT")
	assertDecimalEqual(t, dec("3200"), filing.InputVat, "input VAT")
	assertDecimalEqual(t, dec("4800"), filing.TaxDue, "VAT payable")
	assertDecimalEqual(t, dec("9.6"), filing.EffectiveTaxRate, "effective rate against sales")
	assertDecimalEqual(t, DefaultVatRate, filing.VatRate, "standard rate applied")
}

func TestSubmitVat_CustomRate(t *testing.T) {
	db := newTestDB(t)
	svc := newFilingService(t, db, nil)
	user := createTestUser(t, db, model.UserTypeBusiness)

	filing, err := svc.SubmitVat(context.Background(), user.ID, &VatFilingRequest{
		TaxYear:        2025,
		TaxPeriod:      6,
		TotalSales:     dec("10000"),
		TotalPurchases: dec("0"),
		VatRate:        dec("0.05"),
	})
	require.NoError(t, err)
	assertDecimalEqual(t, dec("500"), filing.TaxDue, "custom rate VAT")
}

func TestGetFilingByID_OwnershipEnforced(t *testing.T) {
	db := newTestDB(t)
	svc := newFilingService(t, db, nil)
	owner := createTestUser(t, db, model.UserTypeIndividual)
	other := createTestUser(t, db, model.UserTypeIndividual)
	ctx := context.Background()

	filing, err := svc.SubmitIncomeTax(ctx, owner.ID, &IncomeTaxFilingRequest{
		TaxYear: 2025, TaxPeriod: 6, EmploymentIncome: dec("60000"),
	})
	require.NoError(t, err)

	_, err = svc.GetFilingByID(ctx, other.ID, false, filing.ID)
	require.ErrorIs(t, err, ErrForbidden)

	// Staff can view any filing
	got, err := svc.GetFilingByID(ctx, other.ID, true, filing.ID)
	require.NoError(t, err)
	require.Equal(t, filing.ID, got.ID)
}

func TestGetPenalty_Overdue(t *testing.T) {
	db := newTestDB(t)
	svc := newFilingService(t, db, nil)
	user := createTestUser(t, db, model.UserTypeIndividual)
	ctx := context.Background()

	filing, err := svc.SubmitIncomeTax(ctx, user.ID, &IncomeTaxFilingRequest{
		TaxYear: 2025, TaxPeriod: 1, EmploymentIncome: dec("86400"),
	})
	require.NoError(t, err)

	// Due 2025-02-18; quote as of 65 days later.
	asOf := FilingDueDate(2025, 1).Add(65*24*time.Hour + time.Second)
	quote, err := svc.GetPenalty(ctx, user.ID, false, filing.ID, asOf)
	require.NoError(t, err)

	require.Equal(t, 65, quote.DaysLate)
	assertDecimalEqual(t, dec("7200"), quote.TaxDue, "tax due")
	// 10% flat + 2 periods at 5% = 20% of 7,200
	assertDecimalEqual(t, dec("1440"), quote.PenaltyAmount, "penalty")
	assertDecimalEqual(t, dec("720"), quote.InterestAmount, "interest")
	assertDecimalEqual(t, dec("9360"), quote.TotalPayable, "total payable")
}

func TestGetPenalty_NotYetDue(t *testing.T) {
	db := newTestDB(t)
	svc := newFilingService(t, db, nil)
	user := createTestUser(t, db, model.UserTypeIndividual)
	ctx := context.Background()

	filing, err := svc.SubmitIncomeTax(ctx, user.ID, &IncomeTaxFilingRequest{
		TaxYear: 2025, TaxPeriod: 1, EmploymentIncome: dec("86400"),
	})
	require.NoError(t, err)

	asOf := FilingDueDate(2025, 1).Add(-24 * time.Hour)
	quote, err := svc.GetPenalty(ctx, user.ID, false, filing.ID, asOf)
	require.NoError(t, err)

	require.Equal(t, 0, quote.DaysLate)
	assertDecimalEqual(t, decimal.Zero, quote.PenaltyAmount, "penalty before due date")
	assertDecimalEqual(t, decimal.Zero, quote.InterestAmount, "interest before due date")
}

func TestReviewFiling_Workflow(t *testing.T) {
	db := newTestDB(t)
	svc := newFilingService(t, db, nil)
	user := createTestUser(t, db, model.UserTypeIndividual)
	staff := createTestUser(t, db, model.UserTypeZraStaff)
	ctx := context.Background()

	filing, err := svc.SubmitIncomeTax(ctx, user.ID, &IncomeTaxFilingRequest{
		TaxYear: 2025, TaxPeriod: 6, EmploymentIncome: dec("60000"),
	})
	require.NoError(t, err)

	// Cannot approve straight from SUBMITTED
	_, err = svc.ReviewFiling(ctx, staff.ID, filing.ID, &ReviewFilingRequest{Status: model.FilingApproved})
	require.ErrorIs(t, err, ErrValidation)

	reviewed, err := svc.ReviewFiling(ctx, staff.ID, filing.ID, &ReviewFilingRequest{Status: model.FilingUnderReview})
	require.NoError(t, err)
	require.Equal(t, model.FilingUnderReview, reviewed.Status)

	approved, err := svc.ReviewFiling(ctx, staff.ID, filing.ID, &ReviewFilingRequest{Status: model.FilingApproved, Notes: "figures consistent"})
	require.NoError(t, err)
	require.Equal(t, model.FilingApproved, approved.Status)
	require.NotNil(t, approved.ProcessedAt)

	// Approval notification delivered to the taxpayer
	var approvedNotices int64
	require.NoError(t, db.Model(&model.Notification{}).
		Where("user_id = ? AND type = ?", user.ID, model.NotifyFilingApproved).
		Count(&approvedNotices).Error)
	require.Equal(t, int64(1), approvedNotices)
}
