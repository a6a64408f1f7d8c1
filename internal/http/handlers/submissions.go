package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/itechteam/formdesk/internal/domain/submission"
	"github.com/itechteam/formdesk/internal/intake"
)

const (
	hireReceived     = "Hire request received successfully"
	contactSubmitted = "Your contact message has been submitted successfully"
)

type FormSubmitter interface {
	SubmitHireRequest(ctx context.Context, req submission.CreateHireRequest) (submission.HireRequest, error)
	SubmitBusinessContact(ctx context.Context, req submission.CreateBusinessContactRequest) (submission.BusinessContact, error)
	SubmitCompanyContact(ctx context.Context, req submission.CreateCompanyContactRequest) (submission.CompanyContact, error)
	SubmitMainContact(ctx context.Context, req submission.CreateMainContactRequest) (submission.MainContact, error)
}

type SubmissionsHandler struct {
	forms FormSubmitter
}

func NewSubmissionsHandler(forms FormSubmitter) *SubmissionsHandler {
	return &SubmissionsHandler{forms: forms}
}

// POST /api/hire
func (h *SubmissionsHandler) Hire(ctx *gin.Context) {
	handleSubmit(ctx, "hireRequest", hireReceived, h.forms.SubmitHireRequest)
}

// POST /api/business
func (h *SubmissionsHandler) Business(ctx *gin.Context) {
	handleSubmit(ctx, "contactMessage", contactSubmitted, h.forms.SubmitBusinessContact)
}

// POST /api/company
func (h *SubmissionsHandler) Company(ctx *gin.Context) {
	handleSubmit(ctx, "contactMessage", contactSubmitted, h.forms.SubmitCompanyContact)
}

// POST /api/contact
func (h *SubmissionsHandler) Contact(ctx *gin.Context) {
	handleSubmit(ctx, "contactMessage", contactSubmitted, h.forms.SubmitMainContact)
}

func handleSubmit[Req, Rec any](
	ctx *gin.Context,
	key, message string,
	submit func(context.Context, Req) (Rec, error),
) {
	var req Req
	if !BindJSON(ctx, &req) {
		return
	}

	rec, err := submit(ctx.Request.Context(), req)
	if err != nil {
		_ = ctx.Error(err)

		if errors.Is(err, intake.ErrNotification) {
			// the record is already stored at this point
			RespondError(ctx, http.StatusInternalServerError, "email_failed", "Failed to send email", notificationDetail(err))
			return
		}

		RespondInternal(ctx, "Failed to store submission")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": message,
		key:       rec,
	})
}

func notificationDetail(err error) string {
	return strings.TrimPrefix(err.Error(), intake.ErrNotification.Error()+": ")
}
