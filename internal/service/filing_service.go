package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/integration"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/model"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// defaultRiskScore is used when the risk engine is unreachable. Submission
// must never fail because fraud screening is down.
const defaultRiskScore = 0.1

// --- DTOs ---

type IncomeTaxFilingRequest struct {
	TaxYear   int `json:"tax_year" binding:"required"`
	TaxPeriod int `json:"tax_period" binding:"required,min=1,max=12"`

	EmploymentIncome decimal.Decimal `json:"employment_income"`
	BusinessIncome   decimal.Decimal `json:"business_income"`
	RentalIncome     decimal.Decimal `json:"rental_income"`
	InvestmentIncome decimal.Decimal `json:"investment_income"`
	OtherIncome      decimal.Decimal `json:"other_income"`

	NappsaContributions decimal.Decimal `json:"nappsa_contributions"`
	MedicalExpenses     decimal.Decimal `json:"medical_expenses"`
	EducationExpenses   decimal.Decimal `json:"education_expenses"`
	InsurancePremiums   decimal.Decimal `json:"insurance_premiums"`
	OtherDeductions     decimal.Decimal `json:"other_deductions"`

	SaveDraft bool `json:"save_draft"`
}

type VatFilingRequest struct {
	TaxYear   int `json:"tax_year" binding:"required"`
	TaxPeriod int `json:"tax_period" binding:"required,min=1,max=12"`

	TotalSales     decimal.Decimal `json:"total_sales"`
	TotalPurchases decimal.Decimal `json:"total_purchases"`
	// VatRate overrides the standard rate when positive.
	VatRate decimal.Decimal `json:"vat_rate"`

	SaveDraft bool `json:"save_draft"`
}

type ReviewFilingRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

type PenaltyResponse struct {
	FilingID       uuid.UUID       `json:"filing_id"`
	TaxDue         decimal.Decimal `json:"tax_due"`
	DueDate        time.Time       `json:"due_date"`
	DaysLate       int             `json:"days_late"`
	PenaltyAmount  decimal.Decimal `json:"penalty_amount"`
	InterestAmount decimal.Decimal `json:"interest_amount"`
	TotalPayable   decimal.Decimal `json:"total_payable"`
}

// --- Interface ---

// FilingService handles the tax return lifecycle: submission (income tax and
// VAT), retrieval, penalty quotes and the staff review workflow.
type FilingService interface {
	SubmitIncomeTax(ctx context.Context, userID uuid.UUID, req *IncomeTaxFilingRequest) (*model.TaxFiling, error)
	SubmitVat(ctx context.Context, userID uuid.UUID, req *VatFilingRequest) (*model.TaxFiling, error)
	GetUserFilings(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.TaxFiling, int64, error)
	GetFilingByID(ctx context.Context, userID uuid.UUID, isStaff bool, filingID uuid.UUID) (*model.TaxFiling, error)
	GetPenalty(ctx context.Context, userID uuid.UUID, isStaff bool, filingID uuid.UUID, asOf time.Time) (*PenaltyResponse, error)
	ReviewFiling(ctx context.Context, reviewerID, filingID uuid.UUID, req *ReviewFilingRequest) (*model.TaxFiling, error)
}

type filingService struct {
	userRepo     repository.UserRepository
	filingRepo   repository.FilingRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	calc         *TaxCalculationService
	risk         integration.RiskAssessor
	ledger       integration.LedgerRecorder
	compliance   ComplianceService
	notification NotificationService
}

func NewFilingService(
	userRepo repository.UserRepository,
	filingRepo repository.FilingRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	calc *TaxCalculationService,
	risk integration.RiskAssessor,
	ledger integration.LedgerRecorder,
	compliance ComplianceService,
	notification NotificationService,
) FilingService {
	return &filingService{
		userRepo:     userRepo,
		filingRepo:   filingRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		calc:         calc,
		risk:         risk,
		ledger:       ledger,
		compliance:   compliance,
		notification: notification,
	}
}

// --- Submission ---

func (s *filingService) SubmitIncomeTax(ctx context.Context, userID uuid.UUID, req *IncomeTaxFilingRequest) (*model.TaxFiling, error) {
	if err := validateIncomeTaxRequest(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: taxpayer", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load taxpayer: %w", err)
	}

	existing, err := s.findExistingFiling(ctx, userID, req.TaxYear, req.TaxPeriod, model.TaxTypeIncomeTax)
	if err != nil {
		return nil, err
	}

	result := s.calc.CalculateIncomeTax(IncomeTaxInput{
		EmploymentIncome:    req.EmploymentIncome,
		BusinessIncome:      req.BusinessIncome,
		RentalIncome:        req.RentalIncome,
		InvestmentIncome:    req.InvestmentIncome,
		OtherIncome:         req.OtherIncome,
		NappsaContributions: req.NappsaContributions,
		MedicalExpenses:     req.MedicalExpenses,
		EducationExpenses:   req.EducationExpenses,
		InsurancePremiums:   req.InsurancePremiums,
		OtherDeductions:     req.OtherDeductions,
	})

	filing := &model.TaxFiling{
		ID:        uuid.New(),
		UserID:    userID,
		TaxType:   model.TaxTypeIncomeTax,
		TaxYear:   req.TaxYear,
		TaxPeriod: req.TaxPeriod,
		Status:    model.FilingDraft,

		TotalIncome:      result.TotalIncome,
		TotalDeductions:  result.TotalDeductions,
		TaxableIncome:    result.TaxableIncome,
		TaxDue:           result.TotalTax,
		EffectiveTaxRate: result.EffectiveRate.Round(2),

		EmploymentIncome: req.EmploymentIncome,
		BusinessIncome:   req.BusinessIncome,
		RentalIncome:     req.RentalIncome,
		InvestmentIncome: req.InvestmentIncome,
		OtherIncome:      req.OtherIncome,

		NappsaContributions: req.NappsaContributions,
		MedicalExpenses:     req.MedicalExpenses,
		EducationExpenses:   req.EducationExpenses,
		InsurancePremiums:   req.InsurancePremiums,
		OtherDeductions:     req.OtherDeductions,

		Bracket1Amount: result.Bracket1Amount,
		Bracket2Amount: result.Bracket2Amount,
		Bracket3Amount: result.Bracket3Amount,
		Bracket1Tax:    result.Bracket1Tax,
		Bracket2Tax:    result.Bracket2Tax,
		Bracket3Tax:    result.Bracket3Tax,
	}
	if existing != nil {
		// Re-submission of a draft keeps the original row.
		filing.ID = existing.ID
		filing.CreatedAt = existing.CreatedAt
	}
	if snapshot, err := json.Marshal(req); err == nil {
		filing.FilingData = string(snapshot)
	}

	return s.finalizeFiling(ctx, user, filing, req.SaveDraft, existing != nil)
}

func (s *filingService) SubmitVat(ctx context.Context, userID uuid.UUID, req *VatFilingRequest) (*model.TaxFiling, error) {
	if err := validateVatRequest(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: taxpayer", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load taxpayer: %w", err)
	}

	existing, err := s.findExistingFiling(ctx, userID, req.TaxYear, req.TaxPeriod, model.TaxTypeVAT)
	if err != nil {
		return nil, err
	}

	rate := req.VatRate
	if !rate.IsPositive() {
		rate = DefaultVatRate
	}
	result := s.calc.CalculateVAT(req.TotalSales, req.TotalPurchases, rate)

	filing := &model.TaxFiling{
		ID:        uuid.New(),
		UserID:    userID,
		TaxType:   model.TaxTypeVAT,
		TaxYear:   req.TaxYear,
		TaxPeriod: req.TaxPeriod,
		Status:    model.FilingDraft,

		TotalIncome:      req.TotalSales,
		TaxDue:           result.VatPayable,
		EffectiveTaxRate: vatEffectiveRate(req.TotalSales, result.VatPayable),

		TotalSales:     req.TotalSales,
		TotalPurchases: req.TotalPurchases,
		OutputVat:      result.OutputVat,
		InputVat:       result.InputVat,
		VatRate:        rate,
	}
	if existing != nil {
		filing.ID = existing.ID
		filing.CreatedAt = existing.CreatedAt
	}
	if snapshot, err := json.Marshal(req); err == nil {
		filing.FilingData = string(snapshot)
	}

	return s.finalizeFiling(ctx, user, filing, req.SaveDraft, existing != nil)
}

// findExistingFiling returns the draft for the same period if one exists, or
// ErrDuplicateFiling when a non-draft filing already occupies the period.
func (s *filingService) findExistingFiling(ctx context.Context, userID uuid.UUID, taxYear, taxPeriod int, taxType string) (*model.TaxFiling, error) {
	existing, err := s.filingRepo.FindByPeriod(ctx, userID, taxYear, taxPeriod, taxType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check existing filings: %w", err)
	}
	if existing.Status != model.FilingDraft {
		return nil, ErrDuplicateFiling
	}
	return existing, nil
}

// finalizeFiling runs the post-calculation submission pipeline: risk
// screening, ledger anchoring, the transactional persist with its audit
// entry, then compliance bookkeeping and notification. The compliance
// counters and the notification must not move until the filing row is
// committed: the unique index can still reject the persist when two
// submissions race past the duplicate check, and a rejected filing leaves
// no trace. Risk and ledger failures are logged and absorbed.
func (s *filingService) finalizeFiling(ctx context.Context, user *model.User, filing *model.TaxFiling, saveDraft, overwrite bool) (*model.TaxFiling, error) {
	action := model.ActionFilingDraftSaved
	if !saveDraft {
		action = model.ActionFilingSubmitted
		now := time.Now().UTC()
		filing.Status = model.FilingSubmitted
		filing.SubmittedAt = &now

		s.assessRisk(ctx, filing)
		s.anchorFiling(ctx, user, filing)
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var persistErr error
		if overwrite {
			persistErr = s.filingRepo.Save(txCtx, filing)
		} else {
			persistErr = s.filingRepo.Create(txCtx, filing)
		}
		if persistErr != nil {
			return persistErr
		}

		if auditErr := s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     &user.ID,
			Action:     action,
			EntityID:   filing.ID.String(),
			EntityName: fmt.Sprintf("%s %d-%02d", filing.TaxType, filing.TaxYear, filing.TaxPeriod),
			Details:    auditDetails(map[string]any{"tax_type": filing.TaxType, "tax_year": filing.TaxYear, "tax_period": filing.TaxPeriod, "tax_due": filing.TaxDue.StringFixed(2)}),
		}); auditErr != nil {
			log.Printf("Failed to write audit log for filing %s: %v", filing.ID, auditErr)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateFiling
		}
		return nil, fmt.Errorf("failed to persist tax filing: %w", err)
	}

	if !saveDraft {
		if err := s.compliance.RecordFiling(ctx, filing); err != nil {
			log.Printf("Failed to update compliance score for filing %s: %v", filing.ID, err)
		}
		s.notification.SendFilingConfirmation(ctx, user.ID, filing)
	}

	return filing, nil
}

func (s *filingService) assessRisk(ctx context.Context, filing *model.TaxFiling) {
	assessment, err := s.risk.AssessFilingRisk(ctx, integration.FilingSnapshot{
		FilingID:        filing.ID,
		TotalIncome:     filing.TotalIncome,
		TotalDeductions: filing.TotalDeductions,
		TaxableIncome:   filing.TaxableIncome,
		TaxDue:          filing.TaxDue,
		TaxYear:         filing.TaxYear,
	})
	if err != nil {
		log.Printf("Risk assessment unavailable for filing %s, using default: %v", filing.ID, err)
		filing.RiskScore = defaultRiskScore
		return
	}

	filing.RiskScore = assessment.RiskScore
	if factors, err := json.Marshal(assessment.Factors); err == nil {
		filing.RiskFactors = string(factors)
	}
}

func (s *filingService) anchorFiling(ctx context.Context, user *model.User, filing *model.TaxFiling) {
	reference, err := s.ledger.RecordFiling(ctx, integration.FilingRecord{
		FilingID:  filing.ID,
		Tpin:      user.Tpin,
		TaxYear:   filing.TaxYear,
		TaxDue:    filing.TaxDue,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("Ledger recording failed for filing %s: %v", filing.ID, err)
		return
	}
	filing.LedgerReference = reference
}

// --- Retrieval ---

func (s *filingService) GetUserFilings(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.TaxFiling, int64, error) {
	filings, total, err := s.filingRepo.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tax filings: %w", err)
	}
	return filings, total, nil
}

func (s *filingService) GetFilingByID(ctx context.Context, userID uuid.UUID, isStaff bool, filingID uuid.UUID) (*model.TaxFiling, error) {
	filing, err := s.filingRepo.FindByID(ctx, filingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: tax filing", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch tax filing: %w", err)
	}
	if !isStaff && filing.UserID != userID {
		return nil, ErrForbidden
	}
	return filing, nil
}

func (s *filingService) GetPenalty(ctx context.Context, userID uuid.UUID, isStaff bool, filingID uuid.UUID, asOf time.Time) (*PenaltyResponse, error) {
	filing, err := s.GetFilingByID(ctx, userID, isStaff, filingID)
	if err != nil {
		return nil, err
	}

	dueDate := FilingDueDate(filing.TaxYear, filing.TaxPeriod)
	daysLate := int(asOf.Sub(dueDate).Hours() / 24)
	if daysLate < 0 {
		daysLate = 0
	}

	penalty := s.calc.CalculatePenalty(filing.TaxDue, daysLate)
	interest := s.calc.CalculateInterest(filing.TaxDue, daysLate)

	return &PenaltyResponse{
		FilingID:       filing.ID,
		TaxDue:         filing.TaxDue,
		DueDate:        dueDate,
		DaysLate:       daysLate,
		PenaltyAmount:  penalty,
		InterestAmount: interest,
		TotalPayable:   filing.TaxDue.Add(penalty).Add(interest),
	}, nil
}

// --- Review ---

func (s *filingService) ReviewFiling(ctx context.Context, reviewerID, filingID uuid.UUID, req *ReviewFilingRequest) (*model.TaxFiling, error) {
	filing, err := s.filingRepo.FindByID(ctx, filingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: tax filing", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch tax filing: %w", err)
	}

	if !model.CanTransition(filing.Status, req.Status) {
		return nil, fmt.Errorf("%w: cannot move filing from %s to %s", ErrValidation, filing.Status, req.Status)
	}

	previous := filing.Status
	filing.Status = req.Status
	if req.Status == model.FilingApproved || req.Status == model.FilingRejected {
		now := time.Now().UTC()
		filing.ProcessedAt = &now
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.filingRepo.Save(txCtx, filing); err != nil {
			return err
		}

		if auditErr := s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     &reviewerID,
			Action:     model.ActionFilingReviewed,
			EntityID:   filing.ID.String(),
			EntityName: fmt.Sprintf("%s %d-%02d", filing.TaxType, filing.TaxYear, filing.TaxPeriod),
			Details:    auditDetails(map[string]any{"from": previous, "to": req.Status, "notes": req.Notes}),
		}); auditErr != nil {
			log.Printf("Failed to write audit log for filing review %s: %v", filing.ID, auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update tax filing: %w", err)
	}

	if req.Status == model.FilingApproved || req.Status == model.FilingRejected {
		s.notification.SendFilingReviewed(ctx, filing.UserID, filing, req.Notes)
	}

	return filing, nil
}

// vatEffectiveRate is the VAT payable as a percentage of total sales.
func vatEffectiveRate(totalSales, vatPayable decimal.Decimal) decimal.Decimal {
	if !totalSales.IsPositive() {
		return decimal.Zero
	}
	return vatPayable.Div(totalSales).Mul(decimal.NewFromInt(100)).Round(2)
}

// auditDetails serializes an audit payload, falling back to empty JSON.
func auditDetails(payload map[string]any) string {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}

// --- Validation ---

func validateIncomeTaxRequest(req *IncomeTaxFilingRequest) error {
	amounts := map[string]decimal.Decimal{
		"employment_income":    req.EmploymentIncome,
		"business_income":      req.BusinessIncome,
		"rental_income":        req.RentalIncome,
		"investment_income":    req.InvestmentIncome,
		"other_income":         req.OtherIncome,
		"nappsa_contributions": req.NappsaContributions,
		"medical_expenses":     req.MedicalExpenses,
		"education_expenses":   req.EducationExpenses,
		"insurance_premiums":   req.InsurancePremiums,
		"other_deductions":     req.OtherDeductions,
	}
	for field, amount := range amounts {
		if amount.IsNegative() {
			return fmt.Errorf("%w: %s must not be negative", ErrValidation, field)
		}
	}
	return validatePeriod(req.TaxYear, req.TaxPeriod)
}

func validateVatRequest(req *VatFilingRequest) error {
	if req.TotalSales.IsNegative() {
		return fmt.Errorf("%w: total_sales must not be negative", ErrValidation)
	}
	if req.TotalPurchases.IsNegative() {
		return fmt.Errorf("%w: total_purchases must not be negative", ErrValidation)
	}
	if req.VatRate.IsNegative() {
		return fmt.Errorf("%w: vat_rate must not be negative", ErrValidation)
	}
	return validatePeriod(req.TaxYear, req.TaxPeriod)
}

func validatePeriod(taxYear, taxPeriod int) error {
	if taxYear < 2000 || taxYear > 2100 {
		return fmt.Errorf("%w: tax_year %d is out of range", ErrValidation, taxYear)
	}
	if taxPeriod < 1 || taxPeriod > 12 {
		return fmt.Errorf("%w: tax_period must be between 1 and 12", ErrValidation)
	}
	return nil
}
