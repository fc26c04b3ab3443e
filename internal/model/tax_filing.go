package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TaxType enum constants
const (
	TaxTypeIncomeTax        = "INCOME_TAX"
	TaxTypeVAT              = "VAT"
	TaxTypeCompanyTax       = "COMPANY_TAX"
	TaxTypeWithholdingTax   = "WITHHOLDING_TAX"
	TaxTypePropertyTransfer = "PROPERTY_TRANSFER_TAX"
)

// FilingStatus enum constants
const (
	FilingDraft       = "DRAFT"
	FilingSubmitted   = "SUBMITTED"
	FilingUnderReview = "UNDER_REVIEW"
	FilingApproved    = "APPROVED"
	FilingRejected    = "REJECTED"
	FilingAmended     = "AMENDED"
)

// filingTransitions defines the review state machine. DRAFT is re-submittable
// and never moves through review directly.
var filingTransitions = map[string][]string{
	FilingSubmitted:   {FilingUnderReview},
	FilingUnderReview: {FilingApproved, FilingRejected},
	FilingApproved:    {FilingAmended},
}

// CanTransition reports whether a filing may move from its current status to next.
func CanTransition(from, to string) bool {
	for _, allowed := range filingTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TaxFiling is a single tax return for one taxpayer and period. Tax-type
// specific figures (income sources, deduction categories, VAT breakdown) live
// on the same row, discriminated by TaxType.
type TaxFiling struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
	TaxType   string    `gorm:"type:varchar(30);not null;index" json:"tax_type"`
	TaxYear   int       `gorm:"not null" json:"tax_year"`
	TaxPeriod int       `gorm:"not null" json:"tax_period"` // Month, 1-12
	Status    string    `gorm:"type:varchar(20);not null;index" json:"status"`

	// Computed totals (ZMW); EffectiveTaxRate is a percentage
	TotalIncome      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_income"`
	TotalDeductions  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_deductions"`
	TaxableIncome    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"taxable_income"`
	TaxDue           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tax_due"`
	EffectiveTaxRate decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"effective_tax_rate"`

	// Income tax: per-source income
	EmploymentIncome decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"employment_income"`
	BusinessIncome   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"business_income"`
	RentalIncome     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"rental_income"`
	InvestmentIncome decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"investment_income"`
	OtherIncome      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"other_income"`

	// Income tax: per-category deductions
	NappsaContributions decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"nappsa_contributions"`
	MedicalExpenses     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"medical_expenses"`
	EducationExpenses   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"education_expenses"`
	InsurancePremiums   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"insurance_premiums"`
	OtherDeductions     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"other_deductions"`

	// Income tax: bracket breakdown
	Bracket1Amount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"bracket1_amount"`
	Bracket2Amount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"bracket2_amount"`
	Bracket3Amount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"bracket3_amount"`
	Bracket1Tax    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"bracket1_tax"`
	Bracket2Tax    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"bracket2_tax"`
	Bracket3Tax    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"bracket3_tax"`

	// VAT breakdown
	TotalSales     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_sales"`
	TotalPurchases decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_purchases"`
	OutputVat      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"output_vat"`
	InputVat       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"input_vat"`
	VatRate        decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"vat_rate"`

	RiskScore       float64    `gorm:"not null;default:0" json:"risk_score"` // 0.0-1.0, set on submission
	RiskFactors     string     `gorm:"type:jsonb" json:"risk_factors,omitempty"`
	LedgerReference string     `gorm:"type:varchar(80)" json:"ledger_reference,omitempty"` // External ledger tx hash
	FilingData      string     `gorm:"type:text" json:"-"`                                 // JSON snapshot of the original request
	SubmittedAt     *time.Time `json:"submitted_at"`
	ProcessedAt     *time.Time `json:"processed_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (f *TaxFiling) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
