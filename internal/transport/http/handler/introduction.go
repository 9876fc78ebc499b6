package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hireloop/engine/internal/domain"
	"github.com/hireloop/engine/internal/usecase"
)

type IntroductionHandler struct {
	uc     *usecase.IntroductionUsecase
	logger *slog.Logger
}

func NewIntroductionHandler(uc *usecase.IntroductionUsecase, logger *slog.Logger) *IntroductionHandler {
	return &IntroductionHandler{uc: uc, logger: logger.With("component", "introduction_handler")}
}

type introductionResponse struct {
	ID                string     `json:"id"`
	CandidateID       string     `json:"candidate_id"`
	EmployerID        string     `json:"employer_id"`
	JobID             *string    `json:"job_id,omitempty"`
	Status            string     `json:"status"`
	CandidateResponse *string    `json:"candidate_response,omitempty"`
	CandidateMessage  *string    `json:"candidate_message,omitempty"`
	ProfileViews      int        `json:"profile_views"`
	ResumeDownloads   int        `json:"resume_downloads"`
	ProfileViewedAt   time.Time  `json:"profile_viewed_at"`
	IntroRequestedAt  *time.Time `json:"intro_requested_at,omitempty"`
	IntroducedAt      *time.Time `json:"introduced_at,omitempty"`
	ProtectionEndsAt  *time.Time `json:"protection_ends_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func toIntroductionResponse(i *domain.Introduction) introductionResponse {
	resp := introductionResponse{
		ID:               i.ID,
		CandidateID:      i.CandidateID,
		EmployerID:       i.EmployerID,
		JobID:            i.JobID,
		Status:           string(i.Status),
		CandidateMessage: i.CandidateMessage,
		ProfileViews:     i.ProfileViews,
		ResumeDownloads:  i.ResumeDownloads,
		ProfileViewedAt:  i.ProfileViewedAt,
		IntroRequestedAt: i.IntroRequestedAt,
		IntroducedAt:     i.IntroducedAt,
		ProtectionEndsAt: i.ProtectionEndsAt,
		CreatedAt:        i.CreatedAt,
		UpdatedAt:        i.UpdatedAt,
	}
	if i.CandidateResponse != nil {
		s := string(*i.CandidateResponse)
		resp.CandidateResponse = &s
	}
	return resp
}

type profileViewRequest struct {
	JobID *string `json:"job_id" binding:"omitempty,max=64"`
}

// POST /api/employer/candidates/:id/view
func (h *IntroductionHandler) RecordProfileView(c *gin.Context) {
	// The body is optional; an empty body means a view without job context.
	var req profileViewRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intro, err := h.uc.RecordProfileView(c.Request.Context(), c.GetString("employerID"), c.Param("id"), req.JobID)
	if err != nil {
		h.logger.Error("record profile view", "candidate_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, toIntroductionResponse(intro))
}

// POST /api/employer/introductions/:id/resume
func (h *IntroductionHandler) RecordResumeDownload(c *gin.Context) {
	id := c.Param("id")

	err := h.uc.RecordResumeDownload(c.Request.Context(), id, c.GetString("employerID"))
	if err != nil {
		if errors.Is(err, domain.ErrIntroductionNotFound) {
			c.JSON(http.StatusNotFound, errorBody(codeNotFound, errIntroNotFound))
			return
		}
		h.logger.Error("record resume download", "introduction_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.Status(http.StatusNoContent)
}

// POST /api/employer/introductions/:id/request
func (h *IntroductionHandler) RequestIntro(c *gin.Context) {
	id := c.Param("id")

	intro, err := h.uc.RequestIntro(c.Request.Context(), id, c.GetString("employerID"))
	if err != nil {
		h.writeTransitionError(c, "request intro", id, err)
		return
	}

	c.JSON(http.StatusOK, toIntroductionResponse(intro))
}

// POST /api/employer/introductions/:id/interviewing
func (h *IntroductionHandler) MarkInterviewing(c *gin.Context) {
	h.advance(c, "mark interviewing", h.uc.MarkInterviewing)
}

// POST /api/employer/introductions/:id/offer
func (h *IntroductionHandler) MarkOfferExtended(c *gin.Context) {
	h.advance(c, "mark offer extended", h.uc.MarkOfferExtended)
}

// POST /api/employer/introductions/:id/hired
func (h *IntroductionHandler) MarkHired(c *gin.Context) {
	h.advance(c, "mark hired", h.uc.MarkHired)
}

func (h *IntroductionHandler) advance(c *gin.Context, op string, fn func(ctx context.Context, id, employerID string) error) {
	id := c.Param("id")

	if err := fn(c.Request.Context(), id, c.GetString("employerID")); err != nil {
		h.writeTransitionError(c, op, id, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GET /api/employer/introductions?status=&cursor=&limit=
func (h *IntroductionHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.uc.List(c.Request.Context(), usecase.ListIntroductionsInput{
		EmployerID: c.GetString("employerID"),
		Status:     domain.IntroStatus(c.Query("status")),
		Cursor:     c.Query("cursor"),
		Limit:      limit,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
			return
		}
		h.logger.Error("list introductions", "error", err)
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

func (h *IntroductionHandler) writeTransitionError(c *gin.Context, op, id string, err error) {
	switch {
	case errors.Is(err, domain.ErrIntroductionNotFound):
		c.JSON(http.StatusNotFound, errorBody(codeNotFound, errIntroNotFound))
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, errorBody(codeInvalidTransition, errInvalidTransition))
	default:
		h.logger.Error(op, "introduction_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	}
}
