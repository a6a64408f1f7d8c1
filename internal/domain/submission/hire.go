package submission

import "time"

type HireRequest struct {
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	ServiceType        string   `json:"serviceType"`
	BusinessType       string   `json:"businessType"`
	ProjectDescription string   `json:"projectDescription"`
	BudgetNGN          Text     `json:"budgetNGN,omitempty"`
	BudgetUSD          Text     `json:"budgetUSD,omitempty"`
	Services           []string `json:"services"`
	CreatedAt          string   `json:"createdAt"`
}

// at least one of the two budgets must be supplied
type CreateHireRequest struct {
	Name               string   `json:"name" binding:"required"`
	Email              string   `json:"email" binding:"required"`
	ServiceType        string   `json:"serviceType" binding:"required"`
	BusinessType       string   `json:"businessType" binding:"required"`
	ProjectDescription string   `json:"projectDescription" binding:"required"`
	BudgetNGN          Text     `json:"budgetNGN" binding:"required_without=BudgetUSD"`
	BudgetUSD          Text     `json:"budgetUSD" binding:"required_without=BudgetNGN"`
	Services           []string `json:"services" binding:"required,min=1"`
}

func NewHireRequest(req CreateHireRequest, now time.Time) HireRequest {
	return HireRequest{
		Name:               req.Name,
		Email:              req.Email,
		ServiceType:        req.ServiceType,
		BusinessType:       req.BusinessType,
		ProjectDescription: req.ProjectDescription,
		BudgetNGN:          req.BudgetNGN,
		BudgetUSD:          req.BudgetUSD,
		Services:           req.Services,
		CreatedAt:          Timestamp(now),
	}
}
