package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/itechteam/formdesk/internal/domain/submission"
	"github.com/itechteam/formdesk/internal/http/handlers"
	"github.com/itechteam/formdesk/internal/intake"
)

type fakeForms struct {
	hireFn     func(ctx context.Context, req submission.CreateHireRequest) (submission.HireRequest, error)
	businessFn func(ctx context.Context, req submission.CreateBusinessContactRequest) (submission.BusinessContact, error)
	companyFn  func(ctx context.Context, req submission.CreateCompanyContactRequest) (submission.CompanyContact, error)
	contactFn  func(ctx context.Context, req submission.CreateMainContactRequest) (submission.MainContact, error)

	calls int
}

func (f *fakeForms) SubmitHireRequest(ctx context.Context, req submission.CreateHireRequest) (submission.HireRequest, error) {
	f.calls++
	if f.hireFn != nil {
		return f.hireFn(ctx, req)
	}
	return submission.NewHireRequest(req, fixedNow), nil
}

func (f *fakeForms) SubmitBusinessContact(ctx context.Context, req submission.CreateBusinessContactRequest) (submission.BusinessContact, error) {
	f.calls++
	if f.businessFn != nil {
		return f.businessFn(ctx, req)
	}
	return submission.NewBusinessContact(req, fixedNow), nil
}

func (f *fakeForms) SubmitCompanyContact(ctx context.Context, req submission.CreateCompanyContactRequest) (submission.CompanyContact, error) {
	f.calls++
	if f.companyFn != nil {
		return f.companyFn(ctx, req)
	}
	return submission.NewCompanyContact(req, fixedNow), nil
}

func (f *fakeForms) SubmitMainContact(ctx context.Context, req submission.CreateMainContactRequest) (submission.MainContact, error) {
	f.calls++
	if f.contactFn != nil {
		return f.contactFn(ctx, req)
	}
	return submission.NewMainContact(req, fixedNow), nil
}

func submissionsRouter(f *fakeForms) *gin.Engine {
	h := handlers.NewSubmissionsHandler(f)

	r := gin.New()
	r.POST("/api/hire", h.Hire)
	r.POST("/api/business", h.Business)
	r.POST("/api/company", h.Company)
	r.POST("/api/contact", h.Contact)
	return r
}

var validBodies = map[string]map[string]any{
	"/api/hire": {
		"name": "Ada", "email": "ada@example.com", "serviceType": "Web",
		"businessType": "Startup", "projectDescription": "Landing page",
		"budgetNGN": "1000", "services": []string{"A", "B"},
	},
	"/api/business": {
		"name": "Ada", "email": "ada@example.com", "phone": "0801",
		"businessCategory": "Retail", "selectedServices": []string{"SEO"},
		"budget": "500", "description": "d",
	},
	"/api/company": {
		"name": "Ada", "email": "ada@example.com", "phone": "0801",
		"companyCategory": "Fintech", "selectedServices": []string{"SEO"},
		"budget": "500", "description": "d",
	},
	"/api/contact": {
		"name": "Ada", "email": "ada@example.com", "phone": "0801", "description": "d",
	},
}

func bodyWithout(path, field string, replacement any, drop bool) string {
	m := map[string]any{}
	for k, v := range validBodies[path] {
		m[k] = v
	}
	if drop {
		delete(m, field)
	} else {
		m[field] = replacement
	}
	b, _ := json.Marshal(m)
	return string(b)
}

func TestSubmissions_MissingOrEmptyFieldsAre400WithoutSideEffects(t *testing.T) {
	for path, valid := range validBodies {
		for field, value := range valid {
			if path == "/api/hire" && field == "budgetNGN" {
				// covered by the budget test below
				continue
			}

			var empty any = ""
			if _, isList := value.([]string); isList {
				empty = []string{}
			}

			variants := []struct {
				name string
				body string
			}{
				{"missing", bodyWithout(path, field, nil, true)},
				{"empty", bodyWithout(path, field, empty, false)},
			}
			if field == "phone" || field == "budget" {
				variants = append(variants, struct {
					name string
					body string
				}{"zero", bodyWithout(path, field, 0, false)})
			}

			for _, variant := range variants {
				t.Run(fmt.Sprintf("%s %s %s", path, variant.name, field), func(t *testing.T) {
					f := &fakeForms{}
					w := doJSON(t, submissionsRouter(f), http.MethodPost, path, variant.body)

					if w.Code != http.StatusBadRequest {
						t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
					}
					if env := decodeError(t, w); env.Error.Code != "invalid_request" {
						t.Fatalf("unexpected code %q", env.Error.Code)
					}
					if f.calls != 0 {
						t.Fatalf("service must not be called on validation failure")
					}
				})
			}
		}
	}
}

func TestHire_EitherBudgetIsEnough(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"ngn only", bodyWithout("/api/hire", "budgetUSD", nil, true), http.StatusCreated},
		{"usd only", strings.Replace(bodyWithout("/api/hire", "budgetNGN", nil, true), `"businessType"`, `"budgetUSD":250,"businessType"`, 1), http.StatusCreated},
		{"neither", bodyWithout("/api/hire", "budgetNGN", nil, true), http.StatusBadRequest},
		{"ngn zero", bodyWithout("/api/hire", "budgetNGN", 0, false), http.StatusBadRequest},
		{"ngn quoted zero", bodyWithout("/api/hire", "budgetNGN", "0", false), http.StatusCreated},
		{"usd zero float", strings.Replace(bodyWithout("/api/hire", "budgetNGN", nil, true), `"businessType"`, `"budgetUSD":0.0,"businessType"`, 1), http.StatusBadRequest},
		{"both empty", strings.Replace(bodyWithout("/api/hire", "budgetNGN", "", false), `"businessType"`, `"budgetUSD":"","businessType"`, 1), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeForms{}
			w := doJSON(t, submissionsRouter(f), http.MethodPost, "/api/hire", tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantCode, w.Body.String())
			}
		})
	}
}

func TestHire_EchoesCreatedRecord(t *testing.T) {
	f := &fakeForms{}
	w := doJSON(t, submissionsRouter(f), http.MethodPost, "/api/hire", bodyWithout("/api/hire", "budgetUSD", nil, true))

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Message     string                 `json:"message"`
		HireRequest submission.HireRequest `json:"hireRequest"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.Message != "Hire request received successfully" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	got := resp.HireRequest
	if got.BudgetNGN != "1000" || len(got.Services) != 2 || got.Services[0] != "A" || got.CreatedAt == "" {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestContact_ResponseShape(t *testing.T) {
	for _, path := range []string{"/api/business", "/api/company", "/api/contact"} {
		t.Run(path, func(t *testing.T) {
			w := doJSON(t, submissionsRouter(&fakeForms{}), http.MethodPost, path, bodyWithout(path, "none", nil, true))
			if w.Code != http.StatusCreated {
				t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
			}

			var resp map[string]json.RawMessage
			_ = json.Unmarshal(w.Body.Bytes(), &resp)
			if string(resp["message"]) != `"Your contact message has been submitted successfully"` {
				t.Fatalf("unexpected message %s", resp["message"])
			}
			if _, ok := resp["contactMessage"]; !ok {
				t.Fatalf("missing contactMessage in %s", w.Body.String())
			}
		})
	}
}

func TestContact_PhoneMayBeANumber(t *testing.T) {
	var got submission.CreateMainContactRequest
	f := &fakeForms{contactFn: func(_ context.Context, req submission.CreateMainContactRequest) (submission.MainContact, error) {
		got = req
		return submission.NewMainContact(req, fixedNow), nil
	}}

	body := `{"name":"Ada","email":"a@b.c","phone":8012345678,"description":"hi"}`
	w := doJSON(t, submissionsRouter(f), http.MethodPost, "/api/contact", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
	if got.Phone != "8012345678" {
		t.Fatalf("phone not kept: %q", got.Phone)
	}
}

func TestSubmit_NotificationFailureIs500(t *testing.T) {
	f := &fakeForms{hireFn: func(_ context.Context, req submission.CreateHireRequest) (submission.HireRequest, error) {
		return submission.NewHireRequest(req, fixedNow), fmt.Errorf("%w: %w", intake.ErrNotification, errors.New("smtp: 535 authentication failed"))
	}}

	w := doJSON(t, submissionsRouter(f), http.MethodPost, "/api/hire", bodyWithout("/api/hire", "budgetUSD", nil, true))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	env := decodeError(t, w)
	if env.Error.Code != "email_failed" || env.Error.Message != "Failed to send email" {
		t.Fatalf("unexpected error %+v", env.Error)
	}
	if string(env.Error.Details) != `"smtp: 535 authentication failed"` {
		t.Fatalf("unexpected details %s", env.Error.Details)
	}
}

func TestSubmit_StoreFailureIs500(t *testing.T) {
	f := &fakeForms{contactFn: func(context.Context, submission.CreateMainContactRequest) (submission.MainContact, error) {
		return submission.MainContact{}, errors.New("disk full")
	}}

	w := doJSON(t, submissionsRouter(f), http.MethodPost, "/api/contact", bodyWithout("/api/contact", "none", nil, true))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
	if env := decodeError(t, w); env.Error.Code != "internal_error" {
		t.Fatalf("unexpected code %q", env.Error.Code)
	}
	if strings.Contains(w.Body.String(), "disk full") {
		t.Fatalf("store errors must not leak to clients")
	}
}
