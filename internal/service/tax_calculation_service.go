package service

import (
	"time"

	"github.com/shopspring/decimal"
)

// Zambian individual income tax brackets (annual amounts in ZMW).
var (
	bracket1Limit = decimal.NewFromInt(57600) // 0% (4,800 * 12)
	bracket2Limit = decimal.NewFromInt(86400) // 25% (7,200 * 12)
	// Above 86,400 = 30%

	bracket2Rate = decimal.RequireFromString("0.25")
	bracket3Rate = decimal.RequireFromString("0.30")

	// NAPSA contributions are deductible up to 10% of total income.
	maxNappsaDeductionRate = decimal.RequireFromString("0.10")

	// DefaultVatRate is the standard Zambian VAT rate.
	DefaultVatRate = decimal.RequireFromString("0.16")

	penaltyInitialRate  = decimal.RequireFromString("0.10") // flat, once overdue
	penaltyMonthlyRate  = decimal.RequireFromString("0.05") // per elapsed 30-day period
	interestMonthlyRate = decimal.RequireFromString("0.05")

	oneHundred = decimal.NewFromInt(100)
)

// FilingDueDay is the day of the month following the tax period on which
// returns fall due (ZRA return deadline).
const FilingDueDay = 18

// IncomeTaxInput is the per-source income and per-category deduction
// breakdown for one annualized income tax computation. All amounts must be
// non-negative; callers validate before computing.
type IncomeTaxInput struct {
	EmploymentIncome decimal.Decimal
	BusinessIncome   decimal.Decimal
	RentalIncome     decimal.Decimal
	InvestmentIncome decimal.Decimal
	OtherIncome      decimal.Decimal

	NappsaContributions decimal.Decimal
	MedicalExpenses     decimal.Decimal
	EducationExpenses   decimal.Decimal
	InsurancePremiums   decimal.Decimal
	OtherDeductions     decimal.Decimal
}

// IncomeTaxResult is the full bracket breakdown of one computation. Amounts
// are exact; rounding to two decimals happens only at the response boundary.
type IncomeTaxResult struct {
	TotalIncome     decimal.Decimal
	TotalDeductions decimal.Decimal
	TaxableIncome   decimal.Decimal

	Bracket1Amount decimal.Decimal
	Bracket2Amount decimal.Decimal
	Bracket3Amount decimal.Decimal
	Bracket1Tax    decimal.Decimal
	Bracket2Tax    decimal.Decimal
	Bracket3Tax    decimal.Decimal

	TotalTax      decimal.Decimal
	EffectiveRate decimal.Decimal // percent
}

// VatResult is the outcome of one VAT computation.
type VatResult struct {
	OutputVat  decimal.Decimal
	InputVat   decimal.Decimal
	VatPayable decimal.Decimal
}

// TaxCalculationService implements the progressive bracket, VAT and penalty
// arithmetic. It is stateless; every method is a pure function of its inputs.
type TaxCalculationService struct{}

func NewTaxCalculationService() *TaxCalculationService {
	return &TaxCalculationService{}
}

// CalculateIncomeTax computes annual income tax over the progressive
// brackets. The NAPSA deduction is capped at 10% of total income; all other
// deduction categories pass through uncapped.
func (s *TaxCalculationService) CalculateIncomeTax(in IncomeTaxInput) IncomeTaxResult {
	totalIncome := in.EmploymentIncome.
		Add(in.BusinessIncome).
		Add(in.RentalIncome).
		Add(in.InvestmentIncome).
		Add(in.OtherIncome)

	validatedNappsa := decimal.Min(in.NappsaContributions, totalIncome.Mul(maxNappsaDeductionRate))

	totalDeductions := validatedNappsa.
		Add(in.MedicalExpenses).
		Add(in.EducationExpenses).
		Add(in.InsurancePremiums).
		Add(in.OtherDeductions)

	taxableIncome := decimal.Max(decimal.Zero, totalIncome.Sub(totalDeductions))

	result := IncomeTaxResult{
		TotalIncome:     totalIncome,
		TotalDeductions: totalDeductions,
		TaxableIncome:   taxableIncome,
	}

	// Slice taxable income across the three brackets.
	result.Bracket1Amount = decimal.Min(taxableIncome, bracket1Limit)
	result.Bracket2Amount = decimal.Max(decimal.Zero, decimal.Min(taxableIncome, bracket2Limit).Sub(bracket1Limit))
	result.Bracket3Amount = decimal.Max(decimal.Zero, taxableIncome.Sub(bracket2Limit))

	result.Bracket1Tax = decimal.Zero
	result.Bracket2Tax = result.Bracket2Amount.Mul(bracket2Rate)
	result.Bracket3Tax = result.Bracket3Amount.Mul(bracket3Rate)

	result.TotalTax = result.Bracket1Tax.Add(result.Bracket2Tax).Add(result.Bracket3Tax)

	if taxableIncome.IsPositive() {
		result.EffectiveRate = result.TotalTax.Div(taxableIncome).Mul(oneHundred)
	} else {
		result.EffectiveRate = decimal.Zero
	}

	return result
}

// CalculateVAT computes output, input and payable VAT for one period.
// VAT payable never goes negative; excess input VAT is not refunded here.
func (s *TaxCalculationService) CalculateVAT(sales, purchases, rate decimal.Decimal) VatResult {
	outputVat := sales.Mul(rate)
	inputVat := purchases.Mul(rate)

	return VatResult{
		OutputVat:  outputVat,
		InputVat:   inputVat,
		VatPayable: decimal.Max(decimal.Zero, outputVat.Sub(inputVat)),
	}
}

// CalculatePenalty returns the late-filing penalty: a flat 10% of the tax
// due plus 5% per elapsed 30-day period. Zero when not overdue. Each call is
// stateless; penalties never compound across calls.
func (s *TaxCalculationService) CalculatePenalty(taxDue decimal.Decimal, daysLate int) decimal.Decimal {
	if daysLate <= 0 {
		return decimal.Zero
	}

	monthsLate := int64(daysLate / 30)
	initial := taxDue.Mul(penaltyInitialRate)
	monthly := taxDue.Mul(penaltyMonthlyRate).Mul(decimal.NewFromInt(monthsLate))

	return initial.Add(monthly)
}

// CalculateInterest returns interest on an overdue amount at 5% per elapsed
// 30-day period. Zero when not overdue.
func (s *TaxCalculationService) CalculateInterest(amount decimal.Decimal, daysLate int) decimal.Decimal {
	if daysLate <= 0 {
		return decimal.Zero
	}

	months := int64(daysLate / 30)
	return amount.Mul(interestMonthlyRate).Mul(decimal.NewFromInt(months))
}

// FilingDueDate returns the instant a return for the given period falls due:
// end of day on the 18th of the following month. time.Date normalizes a
// December period into January of the next year.
func FilingDueDate(taxYear, taxPeriod int) time.Time {
	return time.Date(taxYear, time.Month(taxPeriod+1), FilingDueDay, 23, 59, 59, 0, time.UTC)
}
