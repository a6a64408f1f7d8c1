package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/itechteam/formdesk/internal/auth"
	"github.com/itechteam/formdesk/internal/domain/submission"
	"github.com/itechteam/formdesk/internal/jobs"
	"github.com/itechteam/formdesk/internal/queue"
	"github.com/itechteam/formdesk/internal/utils"
)

type Authenticator interface {
	Login(email, password string) (string, time.Time, error)
}

type AdminService interface {
	Records(ctx context.Context, kind submission.Kind) ([]json.RawMessage, error)
	DeadNotifications(ctx context.Context) ([]jobs.Job, error)
	RetryNotification(ctx context.Context, id string) (jobs.Job, error)
}

type AdminHandler struct {
	auth Authenticator
	svc  AdminService
}

func NewAdminHandler(authn Authenticator, svc AdminService) *AdminHandler {
	return &AdminHandler{auth: authn, svc: svc}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// POST /api/admin/login
func (h *AdminHandler) Login(ctx *gin.Context) {
	var req LoginRequest
	if !BindJSON(ctx, &req) {
		return
	}

	token, exp, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			RespondUnauthorized(ctx, "invalid_credentials", "Invalid email or password")
			return
		}
		_ = ctx.Error(err)
		RespondInternal(ctx, "Failed to issue token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"accessToken": token,
		"tokenType":   "Bearer",
		"expiresAt":   exp,
	})
}

// GET /api/admin/records/:kind?limit=50&cursor=...
func (h *AdminHandler) Records(ctx *gin.Context) {
	kind, err := submission.ParseKind(strings.TrimSpace(ctx.Param("kind")))
	if err != nil {
		RespondNotFound(ctx, "Unknown record kind")
		return
	}

	limit, ok := parseLimit(ctx)
	if !ok {
		return
	}

	start := 0
	if cursor := ctx.Query("cursor"); cursor != "" {
		c, err := utils.DecodeRecordCursor(cursor, string(kind))
		if err != nil {
			RespondBadRequest(ctx, "cursor is invalid", nil)
			return
		}
		start = c.Position
	}

	records, err := h.svc.Records(ctx.Request.Context(), kind)
	if err != nil {
		_ = ctx.Error(err)
		RespondInternal(ctx, "Failed to load records")
		return
	}

	if records == nil {
		records = []json.RawMessage{}
	}

	start = min(start, len(records))
	end := min(start+limit, len(records))

	var next *string
	if end < len(records) {
		c, err := utils.EncodeRecordCursor(string(kind), end)
		if err != nil {
			RespondInternal(ctx, "Failed to build cursor")
			return
		}
		next = &c
	}

	ctx.JSON(http.StatusOK, gin.H{
		"kind":       kind,
		"count":      len(records),
		"records":    records[start:end],
		"nextCursor": next,
		"hasMore":    next != nil,
	})
}

// GET /api/admin/notifications/dead?limit=50&cursor=...
func (h *AdminHandler) DeadNotifications(ctx *gin.Context) {
	limit, ok := parseLimit(ctx)
	if !ok {
		return
	}

	var after *utils.JobCursor
	if cursor := ctx.Query("cursor"); cursor != "" {
		c, err := utils.DecodeJobCursor(cursor)
		if err != nil {
			RespondBadRequest(ctx, "cursor is invalid", nil)
			return
		}
		after = &c
	}

	// oldest first
	all, err := h.svc.DeadNotifications(ctx.Request.Context())
	if err != nil {
		_ = ctx.Error(err)
		RespondInternal(ctx, "Failed to list dead notifications")
		return
	}

	items := make([]jobs.Job, 0, min(limit, len(all)))
	hasMore := false
	for _, j := range all {
		if after != nil && !after.After(j.UpdatedAt, j.ID) {
			continue
		}
		if len(items) == limit {
			hasMore = true
			break
		}
		items = append(items, j)
	}

	var next *string
	if hasMore {
		last := items[len(items)-1]
		c, err := utils.EncodeJobCursor(last.UpdatedAt, last.ID)
		if err != nil {
			RespondInternal(ctx, "Failed to build cursor")
			return
		}
		next = &c
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items":      items,
		"count":      len(items),
		"nextCursor": next,
		"hasMore":    hasMore,
	})
}

// POST /api/admin/notifications/dead/:id/retry
func (h *AdminHandler) RetryNotification(ctx *gin.Context) {
	id := strings.TrimSpace(ctx.Param("id"))
	if id == "" {
		RespondBadRequest(ctx, "id is required", nil)
		return
	}

	j, err := h.svc.RetryNotification(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, queue.ErrNotFound) {
			RespondNotFound(ctx, "Dead notification not found")
			return
		}
		_ = ctx.Error(err)
		RespondInternal(ctx, "Failed to requeue notification")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"job": j})
}

func parseLimit(ctx *gin.Context) (int, bool) {
	raw := ctx.Query("limit")
	if raw == "" {
		return 50, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 500 {
		RespondBadRequest(ctx, "limit must be between 1 and 500", nil)
		return 0, false
	}
	return n, true
}
