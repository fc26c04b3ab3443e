package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCalculateIncomeTax_FirstBracketOnly(t *testing.T) {
	calc := NewTaxCalculationService()

	result := calc.CalculateIncomeTax(IncomeTaxInput{EmploymentIncome: dec("50000")})

	assertDecimalEqual(t, dec("50000"), result.TaxableIncome, "taxable income")
	assertDecimalEqual(t, decimal.Zero, result.TotalTax, "total tax")
	assertDecimalEqual(t, decimal.Zero, result.EffectiveRate, "effective rate")
}

func TestCalculateIncomeTax_SecondBracket(t *testing.T) {
	calc := NewTaxCalculationService()

	// 60,000: first 57,600 free, remaining 2,400 at 25% = 600.
	result := calc.CalculateIncomeTax(IncomeTaxInput{EmploymentIncome: dec("60000")})

	assertDecimalEqual(t, dec("57600"), result.Bracket1Amount, "bracket 1 amount")
	assertDecimalEqual(t, dec("2400"), result.Bracket2Amount, "bracket 2 amount")
	assertDecimalEqual(t, decimal.Zero, result.Bracket3Amount, "bracket 3 amount")
	assertDecimalEqual(t, dec("600"), result.TotalTax, "total tax")
	assertDecimalEqual(t, dec("1"), result.EffectiveRate, "effective rate")
}

func TestCalculateIncomeTax_AllBrackets(t *testing.T) {
	calc := NewTaxCalculationService()

	// 100,000 across multiple sources: 28,800 at 25% + 13,600 at 30%.
	result := calc.CalculateIncomeTax(IncomeTaxInput{
		EmploymentIncome: dec("80000"),
		BusinessIncome:   dec("15000"),
		RentalIncome:     dec("5000"),
	})

	assertDecimalEqual(t, dec("100000"), result.TotalIncome, "total income")
	assertDecimalEqual(t, dec("28800"), result.Bracket2Amount, "bracket 2 amount")
	assertDecimalEqual(t, dec("13600"), result.Bracket3Amount, "bracket 3 amount")
	assertDecimalEqual(t, dec("7200"), result.Bracket2Tax, "bracket 2 tax")
	assertDecimalEqual(t, dec("4080"), result.Bracket3Tax, "bracket 3 tax")
	assertDecimalEqual(t, dec("11280"), result.TotalTax, "total tax")
}

func TestCalculateIncomeTax_BracketBoundaries(t *testing.T) {
	calc := NewTaxCalculationService()

	atFirstLimit := calc.CalculateIncomeTax(IncomeTaxInput{EmploymentIncome: dec("57600")})
	assertDecimalEqual(t, decimal.Zero, atFirstLimit.TotalTax, "tax at first bracket limit")

	atSecondLimit := calc.CalculateIncomeTax(IncomeTaxInput{EmploymentIncome: dec("86400")})
	assertDecimalEqual(t, dec("7200"), atSecondLimit.TotalTax, "tax at second bracket limit")
	assertDecimalEqual(t, decimal.Zero, atSecondLimit.Bracket3Amount, "bracket 3 at second limit")
}

func TestCalculateIncomeTax_NappsaCappedAtTenPercent(t *testing.T) {
	calc := NewTaxCalculationService()

	// NAPSA claim of 15,000 against 100,000 income is capped at 10,000.
	result := calc.CalculateIncomeTax(IncomeTaxInput{
		EmploymentIncome:    dec("100000"),
		NappsaContributions: dec("15000"),
	})

	assertDecimalEqual(t, dec("10000"), result.TotalDeductions, "capped deductions")
	assertDecimalEqual(t, dec("90000"), result.TaxableIncome, "taxable income")
}

func TestCalculateIncomeTax_OtherDeductionsUncapped(t *testing.T) {
	calc := NewTaxCalculationService()

	result := calc.CalculateIncomeTax(IncomeTaxInput{
		EmploymentIncome: dec("100000"),
		MedicalExpenses:  dec("20000"),
		OtherDeductions:  dec("5000"),
	})

	assertDecimalEqual(t, dec("25000"), result.TotalDeductions, "deductions")
	assertDecimalEqual(t, dec("75000"), result.TaxableIncome, "taxable income")
}

func TestCalculateIncomeTax_DeductionsExceedIncome(t *testing.T) {
	calc := NewTaxCalculationService()

	result := calc.CalculateIncomeTax(IncomeTaxInput{
		EmploymentIncome: dec("30000"),
		MedicalExpenses:  dec("50000"),
	})

	assertDecimalEqual(t, decimal.Zero, result.TaxableIncome, "taxable income floors at zero")
	assertDecimalEqual(t, decimal.Zero, result.TotalTax, "total tax")
}

func TestCalculateIncomeTax_ZeroIncome(t *testing.T) {
	calc := NewTaxCalculationService()

	result := calc.CalculateIncomeTax(IncomeTaxInput{})

	assertDecimalEqual(t, decimal.Zero, result.TotalTax, "total tax")
	assertDecimalEqual(t, decimal.Zero, result.EffectiveRate, "effective rate")
}

func TestCalculateIncomeTax_Deterministic(t *testing.T) {
	calc := NewTaxCalculationService()
	input := IncomeTaxInput{
		EmploymentIncome:    dec("123456.78"),
		NappsaContributions: dec("9999.99"),
	}

	first := calc.CalculateIncomeTax(input)
	second := calc.CalculateIncomeTax(input)

	assertDecimalEqual(t, first.TotalTax, second.TotalTax, "repeat computation")
	assertDecimalEqual(t, first.TaxableIncome, second.TaxableIncome, "repeat taxable income")
}

func TestCalculateVAT(t *testing.T) {
	calc := NewTaxCalculationService()

	result := calc.CalculateVAT(dec("50000"), dec("20000"), dec("0.16"))

	assertDecimalEqual(t, dec("8000"), result.OutputVat, "output VAT")
	assertDecimalEqual(t, dec("3200"), result.InputVat, "input VAT")
	assertDecimalEqual(t, dec("4800"), result.VatPayable, "VAT payable")
}

func TestCalculateVAT_InputExceedsOutput(t *testing.T) {
	calc := NewTaxCalculationService()

	result := calc.CalculateVAT(dec("10000"), dec("30000"), DefaultVatRate)

	assertDecimalEqual(t, decimal.Zero, result.VatPayable, "VAT payable floors at zero")
}

func TestCalculatePenalty(t *testing.T) {
	calc := NewTaxCalculationService()

	tests := []struct {
		name     string
		taxDue   string
		daysLate int
		want     string
	}{
		{"not overdue", "1000", 0, "0"},
		{"future due date", "1000", -10, "0"},
		{"within first month", "1000", 29, "100"},
		{"one full month", "1000", 30, "150"},
		{"two full months", "1000", 65, "200"},
		{"zero tax due", "0", 65, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.CalculatePenalty(dec(tt.taxDue), tt.daysLate)
			assertDecimalEqual(t, dec(tt.want), got, "penalty")
		})
	}
}

func TestCalculatePenalty_Stateless(t *testing.T) {
	calc := NewTaxCalculationService()

	first := calc.CalculatePenalty(dec("1000"), 65)
	second := calc.CalculatePenalty(dec("1000"), 65)

	assertDecimalEqual(t, first, second, "penalty never compounds across calls")
}

func TestCalculateInterest(t *testing.T) {
	calc := NewTaxCalculationService()

	assertDecimalEqual(t, decimal.Zero, calc.CalculateInterest(dec("1000"), 0), "no interest when not overdue")
	assertDecimalEqual(t, dec("50"), calc.CalculateInterest(dec("1000"), 30), "one month interest")
	assertDecimalEqual(t, dec("100"), calc.CalculateInterest(dec("1000"), 65), "two month interest")
}

func TestFilingDueDate(t *testing.T) {
	june := FilingDueDate(2025, 6)
	require.Equal(t, time.Date(2025, time.July, 18, 23, 59, 59, 0, time.UTC), june)

	// December rolls into January of the next year.
	december := FilingDueDate(2025, 12)
	require.Equal(t, time.Date(2026, time.January, 18, 23, 59, 59, 0, time.UTC), december)
}
