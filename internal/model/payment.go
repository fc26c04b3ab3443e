package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentMethod enum constants
const (
	PaymentMobileMoneyMTN    = "MOBILE_MONEY_MTN"
	PaymentMobileMoneyAirtel = "MOBILE_MONEY_AIRTEL"
	PaymentBankTransfer      = "BANK_TRANSFER"
	PaymentCreditCard        = "CREDIT_CARD"
	PaymentDebitCard         = "DEBIT_CARD"
	PaymentCash              = "CASH"
)

// PaymentStatus enum constants
const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
	PaymentRefunded  = "REFUNDED"
	PaymentCancelled = "CANCELLED"
)

// Payment records a settlement attempt against a tax filing
type Payment struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User                  *User           `gorm:"foreignKey:UserID" json:"-"`
	TaxFilingID           *uuid.UUID      `gorm:"type:uuid;index" json:"tax_filing_id"`
	TaxFiling             *TaxFiling      `gorm:"foreignKey:TaxFilingID" json:"-"`
	Amount                decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	PenaltyAmount         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"penalty_amount"`
	InterestAmount        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"interest_amount"`
	PaymentMethod         string          `gorm:"type:varchar(30);not null" json:"payment_method"`
	Status                string          `gorm:"type:varchar(20);not null;index" json:"status"`
	TransactionReference  string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"transaction_reference"`
	ExternalTransactionID string          `gorm:"type:varchar(80)" json:"external_transaction_id,omitempty"` // From payment gateway
	LedgerReference       string          `gorm:"type:varchar(80)" json:"ledger_reference,omitempty"`
	FailureReason         string          `gorm:"type:text" json:"failure_reason,omitempty"`
	PaidAt                *time.Time      `json:"paid_at"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
