package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StageStatusSummary is one bucket of the active-pipeline grouping, keyed by
// (stage, status).
type StageStatusSummary struct {
	Stage       string          `json:"stage"`
	Status      LoanStatus      `json:"status"`
	LoanCount   int             `json:"loanCount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// StatusSummary is one bucket of a status-only loan grouping.
type StatusSummary struct {
	Status      LoanStatus      `json:"status"`
	LoanCount   int             `json:"loanCount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// ClosedLoanRow is a closed loan within the reporting window.
type ClosedLoanRow struct {
	LoanID       string          `json:"loanID"`
	BorrowerName string          `json:"borrowerName"`
	LoanAmount   decimal.Decimal `json:"loanAmount"`
	CreatedAt    time.Time       `json:"createdAt"`
	ClosedAt     time.Time       `json:"closedAt"`
}

// DailyCount is one day of activity.
type DailyCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// MonthlyLoanTrend is one month of loan volume.
type MonthlyLoanTrend struct {
	Month       time.Time       `json:"month"`
	LoanCount   int             `json:"loanCount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// LoanTypeSummary is one bucket of the loan-type breakdown.
type LoanTypeSummary struct {
	LoanType    LoanType        `json:"loanType"`
	LoanCount   int             `json:"loanCount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}
