package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/integration"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type ProcessPaymentRequest struct {
	TaxFilingID   uuid.UUID       `json:"tax_filing_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod string          `json:"payment_method" binding:"required"`
	PhoneNumber   string          `json:"phone_number"`
	BankName      string          `json:"bank_name"`
	AccountNumber string          `json:"account_number"`
}

// --- Interface ---

// PaymentService settles tax liabilities through the external gateway and
// keeps the payment trail (ledger anchor, compliance counters, notification).
type PaymentService interface {
	ProcessPayment(ctx context.Context, userID uuid.UUID, req *ProcessPaymentRequest) (*model.Payment, error)
	GetUserPayments(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Payment, int64, error)
	GetPaymentByID(ctx context.Context, userID uuid.UUID, isStaff bool, paymentID uuid.UUID) (*model.Payment, error)
}

type paymentService struct {
	db           *gorm.DB
	calc         *TaxCalculationService
	gateway      integration.PaymentGateway
	ledger       integration.LedgerRecorder
	compliance   ComplianceService
	notification NotificationService
}

func NewPaymentService(
	db *gorm.DB,
	calc *TaxCalculationService,
	gateway integration.PaymentGateway,
	ledger integration.LedgerRecorder,
	compliance ComplianceService,
	notification NotificationService,
) PaymentService {
	return &paymentService{
		db:           db,
		calc:         calc,
		gateway:      gateway,
		ledger:       ledger,
		compliance:   compliance,
		notification: notification,
	}
}

// --- Implementation ---

func (s *paymentService) ProcessPayment(ctx context.Context, userID uuid.UUID, req *ProcessPaymentRequest) (*model.Payment, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("failed to load taxpayer: %w", err)
	}

	var filing model.TaxFiling
	err := s.db.WithContext(ctx).First(&filing, "id = ?", req.TaxFilingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: tax filing", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch tax filing: %w", err)
	}
	if filing.UserID != userID {
		return nil, ErrForbidden
	}
	if filing.Status == model.FilingDraft {
		return nil, fmt.Errorf("%w: cannot pay against a draft filing", ErrValidation)
	}

	now := time.Now().UTC()
	dueDate := FilingDueDate(filing.TaxYear, filing.TaxPeriod)
	daysLate := int(now.Sub(dueDate).Hours() / 24)
	if daysLate < 0 {
		daysLate = 0
	}

	payment := &model.Payment{
		ID:             uuid.New(),
		UserID:         userID,
		TaxFilingID:    &filing.ID,
		Amount:         req.Amount,
		PenaltyAmount:  s.calc.CalculatePenalty(filing.TaxDue, daysLate),
		InterestAmount: s.calc.CalculateInterest(filing.TaxDue, daysLate),
		PaymentMethod:  req.PaymentMethod,
		Status:         model.PaymentPending,
	}

	// Reserve the transaction reference and the PENDING row first so a
	// gateway crash still leaves an auditable attempt.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reference, err := generateTransactionReference(tx)
		if err != nil {
			return err
		}
		payment.TransactionReference = reference
		return tx.Create(payment).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	result, err := s.gateway.ProcessPayment(ctx, integration.PaymentInstruction{
		PaymentID:     payment.ID,
		Amount:        payment.Amount,
		PaymentMethod: payment.PaymentMethod,
		PhoneNumber:   req.PhoneNumber,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
	})
	if err != nil || !result.Success {
		payment.Status = model.PaymentFailed
		if err != nil {
			payment.FailureReason = err.Error()
		} else {
			payment.FailureReason = result.Message
		}
		if saveErr := s.db.WithContext(ctx).Save(payment).Error; saveErr != nil {
			return nil, fmt.Errorf("failed to record payment failure: %w", saveErr)
		}
		return payment, nil
	}

	payment.Status = model.PaymentCompleted
	payment.ExternalTransactionID = result.TransactionID
	paidAt := time.Now().UTC()
	payment.PaidAt = &paidAt

	s.anchorPayment(ctx, &user, payment)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(payment).Error; err != nil {
			return err
		}

		audit := model.AuditLog{
			UserID:     &userID,
			Action:     model.ActionPaymentProcessed,
			EntityID:   payment.TransactionReference,
			EntityName: fmt.Sprintf("%s %d-%02d", filing.TaxType, filing.TaxYear, filing.TaxPeriod),
			Details:    auditDetails(map[string]any{"amount": payment.Amount.StringFixed(2), "method": payment.PaymentMethod, "gateway_id": payment.ExternalTransactionID}),
		}
		if err := tx.Create(&audit).Error; err != nil {
			log.Printf("Failed to write audit log for payment %s: %v", payment.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to finalize payment: %w", err)
	}

	onTime := !paidAt.After(dueDate)
	if err := s.compliance.RecordPayment(ctx, userID, onTime); err != nil {
		log.Printf("Failed to update compliance score for payment %s: %v", payment.ID, err)
	}

	s.notification.SendPaymentConfirmation(ctx, userID, payment)

	return payment, nil
}

func (s *paymentService) GetUserPayments(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Payment, int64, error) {
	var payments []model.Payment
	var total int64

	query := s.db.WithContext(ctx).Model(&model.Payment{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&payments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}

	return payments, total, nil
}

func (s *paymentService) GetPaymentByID(ctx context.Context, userID uuid.UUID, isStaff bool, paymentID uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	err := s.db.WithContext(ctx).First(&payment, "id = ?", paymentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: payment", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch payment: %w", err)
	}
	if !isStaff && payment.UserID != userID {
		return nil, ErrForbidden
	}
	return &payment, nil
}

func (s *paymentService) anchorPayment(ctx context.Context, user *model.User, payment *model.Payment) {
	reference, err := s.ledger.RecordPayment(ctx, integration.PaymentRecord{
		PaymentID: payment.ID,
		Tpin:      user.Tpin,
		Amount:    payment.Amount,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("Ledger recording failed for payment %s: %v", payment.ID, err)
		return
	}
	payment.LedgerReference = reference
}

func generateTransactionReference(tx *gorm.DB) (string, error) {
	today := time.Now().Format("20060102")
	prefix := "TXN-" + today + "-"

	// Use advisory lock to prevent concurrent duplicate references
	tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix)

	var count int64
	if err := tx.Model(&model.Payment{}).
		Where("transaction_reference LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}
