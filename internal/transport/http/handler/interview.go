package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hireloop/engine/internal/domain"
	"github.com/hireloop/engine/internal/usecase"
)

type InterviewHandler struct {
	uc     *usecase.InterviewUsecase
	logger *slog.Logger
}

func NewInterviewHandler(uc *usecase.InterviewUsecase, logger *slog.Logger) *InterviewHandler {
	return &InterviewHandler{uc: uc, logger: logger.With("component", "interview_handler")}
}

type proposalResponse struct {
	ID             string             `json:"id"`
	IntroductionID string             `json:"introduction_id"`
	Status         string             `json:"status"`
	ProposedSlots  []domain.TimeRange `json:"proposed_slots"`
	SelectedSlots  []domain.TimeRange `json:"selected_slots,omitempty"`
	ConfirmedSlot  *domain.TimeRange  `json:"confirmed_slot,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

func toProposalResponse(p *domain.SlotProposal) proposalResponse {
	return proposalResponse{
		ID:             p.ID,
		IntroductionID: p.IntroductionID,
		Status:         string(p.Status),
		ProposedSlots:  p.ProposedSlots,
		SelectedSlots:  p.SelectedSlots,
		ConfirmedSlot:  p.ConfirmedSlot,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

type proposeSlotsRequest struct {
	IntroductionID string             `json:"introduction_id" binding:"required"`
	Slots          []domain.TimeRange `json:"slots"           binding:"required,min=1,max=20"`
}

// POST /api/interviews
func (h *InterviewHandler) Propose(c *gin.Context) {
	var req proposeSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proposal, err := h.uc.ProposeSlots(c.Request.Context(), c.GetString("employerID"), req.IntroductionID, req.Slots)
	if err != nil {
		h.writeProposalError(c, "propose slots", err)
		return
	}

	c.JSON(http.StatusCreated, toProposalResponse(proposal))
}

type selectSlotsRequest struct {
	Slots []domain.TimeRange `json:"slots" binding:"required,min=1"`
}

// POST /api/interviews/:id/select
func (h *InterviewHandler) Select(c *gin.Context) {
	var req selectSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proposal, err := h.uc.SelectSlots(c.Request.Context(), c.Param("id"), req.Slots)
	if err != nil {
		h.writeProposalError(c, "select slots", err)
		return
	}

	c.JSON(http.StatusOK, toProposalResponse(proposal))
}

type confirmSlotRequest struct {
	Slot domain.TimeRange `json:"slot" binding:"required"`
}

// POST /api/interviews/:id/confirm
func (h *InterviewHandler) Confirm(c *gin.Context) {
	var req confirmSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proposal, err := h.uc.ConfirmSlot(c.Request.Context(), c.GetString("employerID"), c.Param("id"), req.Slot)
	if err != nil {
		h.writeProposalError(c, "confirm slot", err)
		return
	}

	c.JSON(http.StatusOK, toProposalResponse(proposal))
}

// POST /api/interviews/:id/complete
func (h *InterviewHandler) Complete(c *gin.Context) {
	err := h.uc.MarkCompleted(c.Request.Context(), c.GetString("employerID"), c.Param("id"))
	if err != nil {
		h.writeProposalError(c, "mark completed", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// POST /api/interviews/:id/cancel
func (h *InterviewHandler) Cancel(c *gin.Context) {
	err := h.uc.Cancel(c.Request.Context(), c.GetString("employerID"), c.Param("id"))
	if err != nil {
		h.writeProposalError(c, "cancel proposal", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GET /api/interviews?status=&limit=
func (h *InterviewHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	proposals, err := h.uc.List(c.Request.Context(), usecase.ListProposalsInput{
		EmployerID: c.GetString("employerID"),
		Status:     domain.ProposalStatus(c.Query("status")),
		Limit:      limit,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
			return
		}
		h.logger.Error("list proposals", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	items := make([]proposalResponse, len(proposals))
	for i, p := range proposals {
		items[i] = toProposalResponse(p)
	}
	c.JSON(http.StatusOK, gin.H{"interviews": items})
}

func (h *InterviewHandler) writeProposalError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrProposalNotFound):
		c.JSON(http.StatusNotFound, errorBody(codeNotFound, errProposalNotFound))
	case errors.Is(err, domain.ErrIntroductionNotFound):
		c.JSON(http.StatusNotFound, errorBody(codeNotFound, errIntroNotFound))
	case errors.Is(err, domain.ErrInvalidSlots):
		c.JSON(http.StatusBadRequest, errorBody(codeInvalidSlots, errInvalidSlots))
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, errorBody(codeInvalidTransition, errInvalidTransition))
	default:
		h.logger.Error(op, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	}
}
