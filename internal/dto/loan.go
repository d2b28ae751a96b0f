package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
)

// CreateLoanRequest defines the data needed to open a loan.
type CreateLoanRequest struct {
	BorrowerName    string          `json:"borrowerName" binding:"required"`
	BorrowerEmail   string          `json:"borrowerEmail" binding:"omitempty,email"`
	BorrowerPhone   string          `json:"borrowerPhone"`
	PropertyAddress string          `json:"propertyAddress"`
	LoanType        domain.LoanType `json:"loanType" binding:"omitempty,oneof=CONVENTIONAL FHA VA USDA JUMBO"`
	LoanAmount      decimal.Decimal `json:"loanAmount" binding:"required"`
	TargetCloseDate *time.Time      `json:"targetCloseDate"`
	LoanOfficerID   string          `json:"loanOfficerID"`
}

// ToCreateLoanInput maps the request onto the service input.
func (r CreateLoanRequest) ToCreateLoanInput() portssvc.CreateLoanInput {
	return portssvc.CreateLoanInput{
		BorrowerName:    r.BorrowerName,
		BorrowerEmail:   r.BorrowerEmail,
		BorrowerPhone:   r.BorrowerPhone,
		PropertyAddress: r.PropertyAddress,
		LoanType:        r.LoanType,
		LoanAmount:      r.LoanAmount,
		TargetCloseDate: r.TargetCloseDate,
		LoanOfficerID:   r.LoanOfficerID,
	}
}

// UpdateLoanRequest defines the mutable loan fields. Pointers distinguish
// "not provided" from zero values.
type UpdateLoanRequest struct {
	BorrowerName    *string            `json:"borrowerName"`
	BorrowerEmail   *string            `json:"borrowerEmail" binding:"omitempty,email"`
	BorrowerPhone   *string            `json:"borrowerPhone"`
	PropertyAddress *string            `json:"propertyAddress"`
	LoanType        *domain.LoanType   `json:"loanType" binding:"omitempty,oneof=CONVENTIONAL FHA VA USDA JUMBO"`
	LoanAmount      *decimal.Decimal   `json:"loanAmount"`
	TargetCloseDate *time.Time         `json:"targetCloseDate"`
	CurrentStage    *string            `json:"currentStage"`
	Status          *domain.LoanStatus `json:"status" binding:"omitempty,oneof=ON_TRACK DELAYED AT_RISK"`
	Progress        *int               `json:"progress" binding:"omitempty,min=0,max=100"`
}

// ToLoanPatch maps the request onto the service patch.
func (r UpdateLoanRequest) ToLoanPatch() portssvc.LoanPatch {
	return portssvc.LoanPatch{
		BorrowerName:    r.BorrowerName,
		BorrowerEmail:   r.BorrowerEmail,
		BorrowerPhone:   r.BorrowerPhone,
		PropertyAddress: r.PropertyAddress,
		LoanType:        r.LoanType,
		LoanAmount:      r.LoanAmount,
		TargetCloseDate: r.TargetCloseDate,
		CurrentStage:    r.CurrentStage,
		Status:          r.Status,
		Progress:        r.Progress,
	}
}

// LoanResponse mirrors domain.Loan. Amounts are fixed-point strings so
// clients never see float artifacts.
type LoanResponse struct {
	LoanID          string            `json:"loanID"`
	LoanNumber      string            `json:"loanNumber"`
	BorrowerName    string            `json:"borrowerName"`
	BorrowerEmail   string            `json:"borrowerEmail,omitempty"`
	BorrowerPhone   string            `json:"borrowerPhone,omitempty"`
	PropertyAddress string            `json:"propertyAddress"`
	LoanType        domain.LoanType   `json:"loanType"`
	LoanAmount      string            `json:"loanAmount"`
	TargetCloseDate time.Time         `json:"targetCloseDate"`
	CurrentStage    string            `json:"currentStage"`
	Status          domain.LoanStatus `json:"status"`
	Progress        int               `json:"progress"`
	TimeInStage     int               `json:"timeInStage"`
	LoanOfficerID   string            `json:"loanOfficerID"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// ToLoanResponse converts a domain.Loan to its wire representation.
func ToLoanResponse(l *domain.Loan) LoanResponse {
	return LoanResponse{
		LoanID:          l.LoanID,
		LoanNumber:      l.LoanNumber,
		BorrowerName:    l.BorrowerName,
		BorrowerEmail:   l.BorrowerEmail,
		BorrowerPhone:   l.BorrowerPhone,
		PropertyAddress: l.PropertyAddress,
		LoanType:        l.LoanType,
		LoanAmount:      l.LoanAmount.StringFixed(2),
		TargetCloseDate: l.TargetCloseDate,
		CurrentStage:    l.CurrentStage,
		Status:          l.Status,
		Progress:        l.Progress,
		TimeInStage:     l.TimeInStage,
		LoanOfficerID:   l.LoanOfficerID,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

// ToListLoanResponse converts a slice of loans.
func ToListLoanResponse(loans []domain.Loan) []LoanResponse {
	res := make([]LoanResponse, len(loans))
	for i := range loans {
		res[i] = ToLoanResponse(&loans[i])
	}
	return res
}

// StageHistoryResponse mirrors one stage occupancy row.
type StageHistoryResponse struct {
	EntryID   string     `json:"entryID"`
	LoanID    string     `json:"loanID"`
	Stage     string     `json:"stage"`
	EnteredAt time.Time  `json:"enteredAt"`
	ExitedAt  *time.Time `json:"exitedAt,omitempty"`
	Duration  *int       `json:"duration,omitempty"`
}

// ToListStageHistoryResponse converts a loan's stage history.
func ToListStageHistoryResponse(entries []domain.StageHistoryEntry) []StageHistoryResponse {
	res := make([]StageHistoryResponse, len(entries))
	for i, e := range entries {
		res[i] = StageHistoryResponse{
			EntryID:   e.EntryID,
			LoanID:    e.LoanID,
			Stage:     e.Stage,
			EnteredAt: e.EnteredAt,
			ExitedAt:  e.ExitedAt,
			Duration:  e.Duration,
		}
	}
	return res
}

// PipelineStageResponse is one bucket of the pipeline grouping.
type PipelineStageResponse struct {
	Stage       string `json:"stage"`
	LoanCount   int    `json:"loanCount"`
	TotalAmount string `json:"totalAmount"`
}

// ToListPipelineStageResponse converts the pipeline grouping.
func ToListPipelineStageResponse(summary []domain.PipelineStageSummary) []PipelineStageResponse {
	res := make([]PipelineStageResponse, len(summary))
	for i, s := range summary {
		res[i] = PipelineStageResponse{
			Stage:       s.Stage,
			LoanCount:   s.LoanCount,
			TotalAmount: s.TotalAmount.StringFixed(2),
		}
	}
	return res
}

// ListLoansParams defines query parameters for listing loans.
type ListLoansParams struct {
	ListParams
	Stage         string            `form:"stage"`
	Status        domain.LoanStatus `form:"status" binding:"omitempty,oneof=ON_TRACK DELAYED AT_RISK"`
	LoanOfficerID string            `form:"loanOfficerID"`
}

// ToLoanFilter maps the query parameters onto the repository filter.
func (p ListLoansParams) ToLoanFilter() portsrepo.LoanFilter {
	return portsrepo.LoanFilter{
		Stage:         p.Stage,
		Status:        p.Status,
		LoanOfficerID: p.LoanOfficerID,
		Page:          portsrepo.Page{Limit: p.Limit, Offset: p.Offset()},
	}
}
