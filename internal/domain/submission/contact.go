package submission

import "time"

// BusinessContact is a message from the "Business Contact Us" form.
type BusinessContact struct {
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	Phone            Text     `json:"phone"`
	BusinessCategory string   `json:"businessCategory"`
	SelectedServices []string `json:"selectedServices"`
	Budget           Text     `json:"budget"`
	Description      string   `json:"description"`
	CreatedAt        string   `json:"createdAt"`
}

type CreateBusinessContactRequest struct {
	Name             string   `json:"name" binding:"required"`
	Email            string   `json:"email" binding:"required"`
	Phone            Text     `json:"phone" binding:"required"`
	BusinessCategory string   `json:"businessCategory" binding:"required"`
	SelectedServices []string `json:"selectedServices" binding:"required,min=1"`
	Budget           Text     `json:"budget" binding:"required"`
	Description      string   `json:"description" binding:"required"`
}

func NewBusinessContact(req CreateBusinessContactRequest, now time.Time) BusinessContact {
	return BusinessContact{
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		BusinessCategory: req.BusinessCategory,
		SelectedServices: req.SelectedServices,
		Budget:           req.Budget,
		Description:      req.Description,
		CreatedAt:        Timestamp(now),
	}
}

// CompanyContact is a message from the "Company Contact Us" form.
type CompanyContact struct {
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	Phone            Text     `json:"phone"`
	CompanyCategory  string   `json:"companyCategory"`
	SelectedServices []string `json:"selectedServices"`
	Budget           Text     `json:"budget"`
	Description      string   `json:"description"`
	CreatedAt        string   `json:"createdAt"`
}

type CreateCompanyContactRequest struct {
	Name             string   `json:"name" binding:"required"`
	Email            string   `json:"email" binding:"required"`
	Phone            Text     `json:"phone" binding:"required"`
	CompanyCategory  string   `json:"companyCategory" binding:"required"`
	SelectedServices []string `json:"selectedServices" binding:"required,min=1"`
	Budget           Text     `json:"budget" binding:"required"`
	Description      string   `json:"description" binding:"required"`
}

func NewCompanyContact(req CreateCompanyContactRequest, now time.Time) CompanyContact {
	return CompanyContact{
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		CompanyCategory:  req.CompanyCategory,
		SelectedServices: req.SelectedServices,
		Budget:           req.Budget,
		Description:      req.Description,
		CreatedAt:        Timestamp(now),
	}
}

// MainContact is a message from the general contact form.
type MainContact struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       Text   `json:"phone"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
}

type CreateMainContactRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Phone       Text   `json:"phone" binding:"required"`
	Description string `json:"description" binding:"required"`
}

func NewMainContact(req CreateMainContactRequest, now time.Time) MainContact {
	return MainContact{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Description: req.Description,
		CreatedAt:   Timestamp(now),
	}
}
