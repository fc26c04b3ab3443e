package integration

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentInstruction carries everything the gateway needs to settle a payment.
type PaymentInstruction struct {
	PaymentID     uuid.UUID
	Amount        decimal.Decimal
	PaymentMethod string
	PhoneNumber   string
	BankName      string
	AccountNumber string
}

// GatewayResult is the gateway's verdict on a payment attempt.
type GatewayResult struct {
	Success       bool
	TransactionID string
	Message       string
}

// PaymentGateway is the boundary to the external payment processors
// (mobile money, bank transfer, cards).
type PaymentGateway interface {
	ProcessPayment(ctx context.Context, instruction PaymentInstruction) (*GatewayResult, error)
}

type paymentGateway struct{}

// NewPaymentGateway returns the gateway client. Until the real processor
// integrations are live it settles deterministically.
func NewPaymentGateway() PaymentGateway {
	return &paymentGateway{}
}

func (g *paymentGateway) ProcessPayment(ctx context.Context, in PaymentInstruction) (*GatewayResult, error) {
	log.Printf("Processing payment %s via %s", in.PaymentID, in.PaymentMethod)

	switch in.PaymentMethod {
	case "MOBILE_MONEY_MTN", "MOBILE_MONEY_AIRTEL":
		if in.PhoneNumber == "" {
			return &GatewayResult{Success: false, Message: "phone number required for mobile money"}, nil
		}
		return &GatewayResult{
			Success:       true,
			TransactionID: fmt.Sprintf("MM%d", time.Now().UnixMilli()),
			Message:       "Mobile money payment successful",
		}, nil
	case "BANK_TRANSFER":
		if in.AccountNumber == "" {
			return &GatewayResult{Success: false, Message: "account number required for bank transfer"}, nil
		}
		return &GatewayResult{
			Success:       true,
			TransactionID: fmt.Sprintf("BTX%d", time.Now().UnixMilli()),
			Message:       "Bank transfer initiated",
		}, nil
	case "CREDIT_CARD", "DEBIT_CARD":
		return &GatewayResult{
			Success:       true,
			TransactionID: fmt.Sprintf("CPX%d", time.Now().UnixMilli()),
			Message:       "Card payment processed",
		}, nil
	default:
		return &GatewayResult{Success: false, Message: "Unsupported payment method"}, nil
	}
}
