package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hireloop/engine/internal/domain"
)

// respondUsecaser is the subset of RespondUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type respondUsecaser interface {
	Resolve(ctx context.Context, rawToken string) (*domain.IntroductionSnapshot, error)
	Consume(ctx context.Context, rawToken string, response domain.CandidateResponse, message *string) (*domain.Introduction, error)
}

// RespondHandler serves the unauthenticated candidate respond flow.
// The raw token in the URL is the only credential.
type RespondHandler struct {
	uc     respondUsecaser
	logger *slog.Logger
}

func NewRespondHandler(uc respondUsecaser, logger *slog.Logger) *RespondHandler {
	return &RespondHandler{uc: uc, logger: logger.With("component", "respond_handler")}
}

type respondPageResponse struct {
	CandidateName string  `json:"candidate_name"`
	EmployerName  string  `json:"employer_name"`
	CompanyName   string  `json:"company_name"`
	JobTitle      *string `json:"job_title,omitempty"`
	Status        string  `json:"status"`
	RequestedAt   *string `json:"requested_at,omitempty"`
}

// GET /api/introductions/respond/:token
func (h *RespondHandler) Resolve(c *gin.Context) {
	snap, err := h.uc.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.writeRespondError(c, err)
		return
	}

	resp := respondPageResponse{
		CandidateName: snap.CandidateName,
		EmployerName:  snap.EmployerName,
		CompanyName:   snap.CompanyName,
		JobTitle:      snap.JobTitle,
		Status:        string(snap.Introduction.Status),
	}
	if at := snap.Introduction.IntroRequestedAt; at != nil {
		s := at.Format(time.RFC3339)
		resp.RequestedAt = &s
	}
	c.JSON(http.StatusOK, resp)
}

type respondRequest struct {
	Response string  `json:"response" binding:"required,oneof=ACCEPTED DECLINED QUESTIONS"`
	Message  *string `json:"message" binding:"omitempty,max=2000"`
}

// POST /api/introductions/respond/:token
func (h *RespondHandler) Respond(c *gin.Context) {
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intro, err := h.uc.Consume(c.Request.Context(), c.Param("token"),
		domain.CandidateResponse(req.Response), req.Message)
	if err != nil {
		h.writeRespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   intro.Status,
		"response": intro.CandidateResponse,
	})
}

func (h *RespondHandler) writeRespondError(c *gin.Context, err error) {
	var already *domain.AlreadyRespondedError
	switch {
	case errors.Is(err, domain.ErrTokenInvalid):
		c.JSON(http.StatusNotFound, errorBody(codeInvalidToken, errTokenInvalid))
	case errors.Is(err, domain.ErrTokenExpired):
		c.JSON(http.StatusGone, errorBody(codeTokenExpired, errTokenExpired))
	case errors.As(err, &already):
		body := errorBody(codeAlreadyResponded, errAlreadyResponded)
		body["response"] = already.Response
		c.JSON(http.StatusConflict, body)
	case errors.Is(err, domain.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, errorBody(codeInvalidTransition, errInvalidTransition))
	case errors.Is(err, domain.ErrInvalidTransition):
		// The token was claimable but the introduction moved on, e.g. an
		// admin closed it mid-flight.
		c.JSON(http.StatusConflict, errorBody(codeInvalidTransition, errInvalidTransition))
	default:
		h.logger.Error("respond flow", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	}
}
