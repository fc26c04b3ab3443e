package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/integration"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPaymentService(t *testing.T, db *gorm.DB) PaymentService {
	t.Helper()
	return NewPaymentService(
		db,
		NewTaxCalculationService(),
		integration.NewPaymentGateway(),
		integration.NewBlockchainLedger(""),
		NewComplianceService(db),
		NewNotificationService(db, nil),
	)
}

func createSubmittedFiling(t *testing.T, db *gorm.DB, userID uuid.UUID, taxYear, taxPeriod int) *model.TaxFiling {
	t.Helper()
	now := time.Now().UTC()
	filing := &model.TaxFiling{
		UserID:      userID,
		TaxType:     model.TaxTypeIncomeTax,
		TaxYear:     taxYear,
		TaxPeriod:   taxPeriod,
		Status:      model.FilingSubmitted,
		TaxDue:      dec("600"),
		SubmittedAt: &now,
	}
	require.NoError(t, db.Create(filing).Error)
	return filing
}

func TestProcessPayment_MobileMoney(t *testing.T) {
	db := newTestDB(t)
	svc := newPaymentService(t, db)
	user := createTestUser(t, db, model.UserTypeIndividual)
	filing := createSubmittedFiling(t, db, user.ID, 2025, 6)
	ctx := context.Background()

	payment, err := svc.ProcessPayment(ctx, user.ID, &ProcessPaymentRequest{
		TaxFilingID:   filing.ID,
		Amount:        dec("600"),
		PaymentMethod: model.PaymentMobileMoneyMTN,
		PhoneNumber:   "+260977123456",
	})
	require.NoError(t, err)

	require.Equal(t, model.PaymentCompleted, payment.Status)
	require.NotNil(t, payment.PaidAt)
	require.NotEmpty(t, payment.ExternalTransactionID)
	require.NotEmpty(t, payment.LedgerReference)

	prefix := "TXN-" + time.Now().Format("20060102") + "-"
	require.True(t, strings.HasPrefix(payment.TransactionReference, prefix),
		"reference %s should start with %s", payment.TransactionReference, prefix)

	// Compliance payment counters updated
	var score model.ComplianceScore
	require.NoError(t, db.First(&score, "user_id = ?", user.ID).Error)
	require.Equal(t, 1, score.TotalPayments)

	// Confirmation notification stored
	var notifications int64
	require.NoError(t, db.Model(&model.Notification{}).
		Where("user_id = ? AND type = ?", user.ID, model.NotifyPaymentConfirmed).
		Count(&notifications).Error)
	require.Equal(t, int64(1), notifications)
}

func TestProcessPayment_SequentialReferences(t *testing.T) {
	db := newTestDB(t)
	svc := newPaymentService(t, db)
	user := createTestUser(t, db, model.UserTypeIndividual)
	ctx := context.Background()

	first := createSubmittedFiling(t, db, user.ID, 2025, 1)
	second := createSubmittedFiling(t, db, user.ID, 2025, 2)

	p1, err := svc.ProcessPayment(ctx, user.ID, &ProcessPaymentRequest{
		TaxFilingID: first.ID, Amount: dec("100"), PaymentMethod: model.PaymentCreditCard,
	})
	require.NoError(t, err)
	p2, err := svc.ProcessPayment(ctx, user.ID, &ProcessPaymentRequest{
		TaxFilingID: second.ID, Amount: dec("100"), PaymentMethod: model.PaymentCreditCard,
	})
	require.NoError(t, err)

	require.True(t, strings.HasSuffix(p1.TransactionReference, "-00001"), "got %s", p1.TransactionReference)
	require.True(t, strings.HasSuffix(p2.TransactionReference, "-00002"), "got %s", p2.TransactionReference)
}

func TestProcessPayment_MobileMoneyWithoutPhoneFails(t *testing.T) {
	db := newTestDB(t)
	svc := newPaymentService(t, db)
	user := createTestUser(t, db, model.UserTypeIndividual)
	filing := createSubmittedFiling(t, db, user.ID, 2025, 6)

	payment, err := svc.ProcessPayment(context.Background(), user.ID, &ProcessPaymentRequest{
		TaxFilingID:   filing.ID,
		Amount:        dec("600"),
		PaymentMethod: model.PaymentMobileMoneyAirtel,
	})
	require.NoError(t, err)

	require.Equal(t, model.PaymentFailed, payment.Status)
	require.NotEmpty(t, payment.FailureReason)
	require.Nil(t, payment.PaidAt)

	// Failed attempts never touch the compliance counters
	var score model.ComplianceScore
	err = db.First(&score, "user_id = ?", user.ID).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProcessPayment_DraftFilingRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newPaymentService(t, db)
	user := createTestUser(t, db, model.UserTypeIndividual)

	draft := &model.TaxFiling{
		UserID:    user.ID,
		TaxType:   model.TaxTypeIncomeTax,
		TaxYear:   2025,
		TaxPeriod: 6,
		Status:    model.FilingDraft,
	}
	require.NoError(t, db.Create(draft).Error)

	_, err := svc.ProcessPayment(context.Background(), user.ID, &ProcessPaymentRequest{
		TaxFilingID:   draft.ID,
		Amount:        dec("600"),
		PaymentMethod: model.PaymentCreditCard,
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestProcessPayment_ForeignFilingForbidden(t *testing.T) {
	db := newTestDB(t)
	svc := newPaymentService(t, db)
	owner := createTestUser(t, db, model.UserTypeIndividual)
	other := createTestUser(t, db, model.UserTypeIndividual)
	filing := createSubmittedFiling(t, db, owner.ID, 2025, 6)

	_, err := svc.ProcessPayment(context.Background(), other.ID, &ProcessPaymentRequest{
		TaxFilingID:   filing.ID,
		Amount:        dec("600"),
		PaymentMethod: model.PaymentCreditCard,
	})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestProcessPayment_NonPositiveAmountRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newPaymentService(t, db)
	user := createTestUser(t, db, model.UserTypeIndividual)
	filing := createSubmittedFiling(t, db, user.ID, 2025, 6)

	_, err := svc.ProcessPayment(context.Background(), user.ID, &ProcessPaymentRequest{
		TaxFilingID:   filing.ID,
		Amount:        dec("0"),
		PaymentMethod: model.PaymentCreditCard,
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestGetPaymentByID_OwnershipEnforced(t *testing.T) {
	db := newTestDB(t)
	svc := newPaymentService(t, db)
	owner := createTestUser(t, db, model.UserTypeIndividual)
	other := createTestUser(t, db, model.UserTypeIndividual)
	filing := createSubmittedFiling(t, db, owner.ID, 2025, 6)
	ctx := context.Background()

	payment, err := svc.ProcessPayment(ctx, owner.ID, &ProcessPaymentRequest{
		TaxFilingID:   filing.ID,
		Amount:        dec("600"),
		PaymentMethod: model.PaymentCreditCard,
	})
	require.NoError(t, err)

	_, err = svc.GetPaymentByID(ctx, other.ID, false, payment.ID)
	require.ErrorIs(t, err, ErrForbidden)

	got, err := svc.GetPaymentByID(ctx, other.ID, true, payment.ID)
	require.NoError(t, err)
	require.Equal(t, payment.ID, got.ID)
}
