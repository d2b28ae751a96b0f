package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanType is the mortgage program a loan is underwritten against.
type LoanType string

const (
	LoanConventional LoanType = "CONVENTIONAL"
	LoanFHA          LoanType = "FHA"
	LoanVA           LoanType = "VA"
	LoanUSDA         LoanType = "USDA"
	LoanJumbo        LoanType = "JUMBO"
)

// IsValid reports whether t is a known loan type.
func (t LoanType) IsValid() bool {
	switch t {
	case LoanConventional, LoanFHA, LoanVA, LoanUSDA, LoanJumbo:
		return true
	}
	return false
}

// LoanStatus tracks whether a loan is on schedule.
type LoanStatus string

const (
	LoanOnTrack LoanStatus = "ON_TRACK"
	LoanDelayed LoanStatus = "DELAYED"
	LoanAtRisk  LoanStatus = "AT_RISK"
)

func (s LoanStatus) IsValid() bool {
	switch s {
	case LoanOnTrack, LoanDelayed, LoanAtRisk:
		return true
	}
	return false
}

// Pipeline stage names. CurrentStage is free-form on the wire but new loans
// and lead imports start in StageNewLead, and StageClosed terminates the
// active pipeline for reporting purposes.
const (
	StageNewLead = "New Lead"
	StageClosed  = "Closed"
)

// PipelineStages is the canonical stage ordering used by dashboards.
var PipelineStages = []string{
	StageNewLead,
	"Contacted",
	"Application",
	"Processing",
	"Underwriting",
	"Clear to Close",
	StageClosed,
}

// Loan represents one mortgage application moving through the pipeline.
type Loan struct {
	LoanID          string          `json:"loanID"`
	LoanNumber      string          `json:"loanNumber"` // immutable after creation
	BorrowerName    string          `json:"borrowerName"`
	BorrowerEmail   string          `json:"borrowerEmail,omitempty"`
	BorrowerPhone   string          `json:"borrowerPhone,omitempty"`
	PropertyAddress string          `json:"propertyAddress"`
	LoanType        LoanType        `json:"loanType"`
	LoanAmount      decimal.Decimal `json:"loanAmount"`
	TargetCloseDate time.Time       `json:"targetCloseDate"`
	CurrentStage    string          `json:"currentStage"`
	Status          LoanStatus      `json:"status"`
	Progress        int             `json:"progress"` // 0-100
	TimeInStage     int             `json:"timeInStage"`
	LoanOfficerID   string          `json:"loanOfficerID"`
	AuditFields
}

// StageHistoryEntry is one row per stage occupancy for a loan. At most one
// entry per loan has a nil ExitedAt (the currently open stage).
type StageHistoryEntry struct {
	EntryID   string     `json:"entryID"`
	LoanID    string     `json:"loanID"`
	Stage     string     `json:"stage"`
	EnteredAt time.Time  `json:"enteredAt"`
	ExitedAt  *time.Time `json:"exitedAt,omitempty"`
	Duration  *int       `json:"duration,omitempty"` // days, computed at exit
}

// PipelineStageSummary is one bucket of the pipeline grouping.
type PipelineStageSummary struct {
	Stage       string          `json:"stage"`
	LoanCount   int             `json:"loanCount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}
