package integration

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FilingSnapshot carries the financial figures the risk engine scores on.
type FilingSnapshot struct {
	FilingID        uuid.UUID
	TotalIncome     decimal.Decimal
	TotalDeductions decimal.Decimal
	TaxableIncome   decimal.Decimal
	TaxDue          decimal.Decimal
	TaxYear         int
}

// RiskAssessment is the advisory fraud-likelihood result for one filing.
type RiskAssessment struct {
	RiskScore float64           // 0.0 to 1.0
	Factors   map[string]string // factor name -> qualitative label
}

// RiskAssessor is the boundary to the external fraud-screening service.
// Failures are advisory, not a gate: callers fall back to a conservative
// default score instead of aborting submission.
type RiskAssessor interface {
	AssessFilingRisk(ctx context.Context, snapshot FilingSnapshot) (*RiskAssessment, error)
}

type aiRiskAssessor struct {
	serviceURL string
}

// NewAIRiskAssessor returns the risk assessor client. Until the external AI
// service is live it scores deterministically from the deduction ratio.
func NewAIRiskAssessor(serviceURL string) RiskAssessor {
	return &aiRiskAssessor{serviceURL: serviceURL}
}

func (a *aiRiskAssessor) AssessFilingRisk(ctx context.Context, snapshot FilingSnapshot) (*RiskAssessment, error) {
	log.Printf("Assessing fraud risk for filing %s", snapshot.FilingID)

	return &RiskAssessment{
		RiskScore: deductionRatioScore(snapshot),
		Factors: map[string]string{
			"incomeConsistency": "normal",
			"deductionRatio":    "acceptable",
			"historicalPattern": "consistent",
		},
	}, nil
}

// deductionRatioScore flags filings that deduct an outsized share of income.
func deductionRatioScore(snapshot FilingSnapshot) float64 {
	if snapshot.TotalIncome.IsZero() {
		return 0.5
	}

	ratio := snapshot.TotalDeductions.Div(snapshot.TotalIncome)
	switch {
	case ratio.GreaterThan(decimal.NewFromFloat(0.5)):
		return 0.7
	case ratio.GreaterThan(decimal.NewFromFloat(0.3)):
		return 0.4
	default:
		return 0.1
	}
}
