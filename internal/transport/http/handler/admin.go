package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hireloop/engine/internal/domain"
	"github.com/hireloop/engine/internal/usecase"
)

// AdminHandler exposes the operator surface: cross-employer listings,
// funnel stats, and the audited status override.
type AdminHandler struct {
	uc     *usecase.IntroductionUsecase
	logger *slog.Logger
}

func NewAdminHandler(uc *usecase.IntroductionUsecase, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{uc: uc, logger: logger.With("component", "admin_handler")}
}

// GET /api/admin/introductions?status=&cursor=&limit=
func (h *AdminHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	// EmployerID left empty: the admin listing spans all employers.
	result, err := h.uc.List(c.Request.Context(), usecase.ListIntroductionsInput{
		Status: domain.IntroStatus(c.Query("status")),
		Cursor: c.Query("cursor"),
		Limit:  limit,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
			return
		}
		h.logger.Error("admin list introductions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	items := make([]introductionResponse, len(result.Introductions))
	for i, intro := range result.Introductions {
		items[i] = toIntroductionResponse(intro)
	}
	c.JSON(http.StatusOK, gin.H{
		"introductions": items,
		"next_cursor":   result.NextCursor,
	})
}

// GET /api/admin/introductions/:id
func (h *AdminHandler) GetByID(c *gin.Context) {
	id := c.Param("id")

	intro, err := h.uc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrIntroductionNotFound) {
			c.JSON(http.StatusNotFound, errorBody(codeNotFound, errIntroNotFound))
			return
		}
		h.logger.Error("admin get introduction", "introduction_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, toIntroductionResponse(intro))
}

type overrideStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PATCH /api/admin/introductions/:id
func (h *AdminHandler) OverrideStatus(c *gin.Context) {
	var req overrideStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	intro, err := h.uc.SetStatus(c.Request.Context(), id, c.GetString("employerID"), domain.IntroStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrIntroductionNotFound):
			c.JSON(http.StatusNotFound, errorBody(codeNotFound, errIntroNotFound))
		case errors.Is(err, domain.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		case errors.Is(err, domain.ErrInvalidTransition):
			c.JSON(http.StatusConflict, errorBody(codeInvalidTransition, errInvalidTransition))
		default:
			h.logger.Error("admin override status", "introduction_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	c.JSON(http.StatusOK, toIntroductionResponse(intro))
}

// POST /api/admin/introductions/:id/reinvite
func (h *AdminHandler) Reinvite(c *gin.Context) {
	id := c.Param("id")

	if err := h.uc.Reinvite(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, domain.ErrIntroductionNotFound):
			c.JSON(http.StatusNotFound, errorBody(codeNotFound, errIntroNotFound))
		case errors.Is(err, domain.ErrInvalidTransition):
			c.JSON(http.StatusConflict, errorBody(codeInvalidTransition, errInvalidTransition))
		default:
			h.logger.Error("admin reinvite", "introduction_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// GET /api/admin/introductions/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	counts, err := h.uc.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("admin stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{"counts": counts})
}
