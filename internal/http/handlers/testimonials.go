package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/itechteam/formdesk/internal/domain/submission"
)

type TestimonialStore interface {
	Testimonials(ctx context.Context) ([]submission.Testimonial, error)
	AddTestimonial(ctx context.Context, req submission.CreateTestimonialRequest) (submission.Testimonial, error)
}

type TestimonialsHandler struct {
	store TestimonialStore
}

func NewTestimonialsHandler(store TestimonialStore) *TestimonialsHandler {
	return &TestimonialsHandler{store: store}
}

// GET /testimonials
func (h *TestimonialsHandler) List(ctx *gin.Context) {
	list, err := h.store.Testimonials(ctx.Request.Context())
	if err != nil {
		_ = ctx.Error(err)
		RespondInternal(ctx, "Failed to load testimonials")
		return
	}

	if list == nil {
		list = []submission.Testimonial{}
	}

	RespondJSONWithETag(ctx, http.StatusOK, list)
}

// POST /testimonials
func (h *TestimonialsHandler) Create(ctx *gin.Context) {
	var req submission.CreateTestimonialRequest
	if !BindJSON(ctx, &req) {
		return
	}

	t, err := h.store.AddTestimonial(ctx.Request.Context(), req)
	if err != nil {
		_ = ctx.Error(err)
		RespondInternal(ctx, "Failed to store testimonial")
		return
	}

	ctx.JSON(http.StatusCreated, t)
}
