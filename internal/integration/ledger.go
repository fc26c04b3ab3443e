package integration

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FilingRecord is the payload recorded on the external ledger for a filing.
type FilingRecord struct {
	FilingID  uuid.UUID
	Tpin      string
	TaxYear   int
	TaxDue    decimal.Decimal
	Timestamp time.Time
}

// PaymentRecord is the payload recorded on the external ledger for a payment.
type PaymentRecord struct {
	PaymentID uuid.UUID
	Tpin      string
	Amount    decimal.Decimal
	Timestamp time.Time
}

// LedgerRecorder is the boundary to the immutable external ledger. It returns
// an opaque reference for the recorded entry. The collaborator does not
// guarantee idempotency, so callers must not retry blindly on ambiguous
// failure.
type LedgerRecorder interface {
	RecordFiling(ctx context.Context, record FilingRecord) (string, error)
	RecordPayment(ctx context.Context, record PaymentRecord) (string, error)
	VerifyTransaction(ctx context.Context, reference string) (bool, error)
}

type blockchainLedger struct {
	serviceURL string
}

// NewBlockchainLedger returns the ledger client. Until the external chain
// service is live it issues locally generated references.
func NewBlockchainLedger(serviceURL string) LedgerRecorder {
	return &blockchainLedger{serviceURL: serviceURL}
}

func (b *blockchainLedger) RecordFiling(ctx context.Context, record FilingRecord) (string, error) {
	log.Printf("Recording tax filing on ledger: %s", record.FilingID)
	return newTxReference(), nil
}

func (b *blockchainLedger) RecordPayment(ctx context.Context, record PaymentRecord) (string, error) {
	log.Printf("Recording payment on ledger: %s", record.PaymentID)
	return newTxReference(), nil
}

func (b *blockchainLedger) VerifyTransaction(ctx context.Context, reference string) (bool, error) {
	log.Printf("Verifying ledger transaction: %s", reference)
	return true, nil
}

func newTxReference() string {
	return "0x" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
