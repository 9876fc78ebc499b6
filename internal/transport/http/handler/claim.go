package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hireloop/engine/internal/domain"
	"github.com/hireloop/engine/internal/usecase"
)

// claimUsecaser is the subset of ClaimUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type claimUsecaser interface {
	SearchUnclaimed(ctx context.Context, input usecase.SearchUnclaimedInput) (usecase.SearchUnclaimedResult, error)
	Claim(ctx context.Context, input usecase.ClaimJobInput) (*domain.Job, error)
	ListClaimed(ctx context.Context, employerID string) ([]*domain.ClaimedJobView, error)
}

type ClaimHandler struct {
	uc     claimUsecaser
	logger *slog.Logger
}

func NewClaimHandler(uc claimUsecaser, logger *slog.Logger) *ClaimHandler {
	return &ClaimHandler{uc: uc, logger: logger.With("component", "claim_handler")}
}

type jobResponse struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Company          string     `json:"company"`
	Location         *string    `json:"location,omitempty"`
	Source           string     `json:"source"`
	Status           string     `json:"status"`
	EmployerID       *string    `json:"employer_id,omitempty"`
	ClaimedAt        *time.Time `json:"claimed_at,omitempty"`
	RoleLevel        *string    `json:"role_level,omitempty"`
	SalaryMin        *int       `json:"salary_min,omitempty"`
	SalaryMax        *int       `json:"salary_max,omitempty"`
	StartDateNeeded  *time.Time `json:"start_date_needed,omitempty"`
	CandidatesNeeded int        `json:"candidates_needed,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func toJobResponse(j *domain.Job) jobResponse {
	return jobResponse{
		ID:               j.ID,
		Title:            j.Title,
		Company:          j.Company,
		Location:         j.Location,
		Source:           j.Source,
		Status:           string(j.Status),
		EmployerID:       j.EmployerID,
		ClaimedAt:        j.ClaimedAt,
		RoleLevel:        j.RoleLevel,
		SalaryMin:        j.SalaryMin,
		SalaryMax:        j.SalaryMax,
		StartDateNeeded:  j.StartDateNeeded,
		CandidatesNeeded: j.CandidatesNeeded,
		CreatedAt:        j.CreatedAt,
	}
}

// GET /api/employer/claim/search?q=&cursor=&limit=
func (h *ClaimHandler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.uc.SearchUnclaimed(c.Request.Context(), usecase.SearchUnclaimedInput{
		Query:  c.Query("q"),
		Cursor: c.Query("cursor"),
		Limit:  limit,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cursor"})
			return
		}
		h.logger.Error("search unclaimed jobs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	items := make([]jobResponse, len(result.Jobs))
	for i, j := range result.Jobs {
		items[i] = toJobResponse(j)
	}
	c.JSON(http.StatusOK, gin.H{
		"jobs":        items,
		"next_cursor": result.NextCursor,
	})
}

type claimJobRequest struct {
	ContactPhone     string     `json:"contact_phone"      binding:"required,max=32"`
	RoleLevel        string     `json:"role_level"         binding:"required,oneof=junior mid senior staff executive"`
	SalaryMin        *int       `json:"salary_min"         binding:"omitempty,min=0"`
	SalaryMax        *int       `json:"salary_max"         binding:"omitempty,min=0"`
	StartDateNeeded  *time.Time `json:"start_date_needed"`
	CandidatesNeeded int        `json:"candidates_needed"  binding:"omitempty,min=1,max=100"`
}

// POST /api/employer/jobs/:id/claim
func (h *ClaimHandler) Claim(c *gin.Context) {
	var req claimJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	job, err := h.uc.Claim(c.Request.Context(), usecase.ClaimJobInput{
		JobID:            id,
		EmployerID:       c.GetString("employerID"),
		ContactPhone:     req.ContactPhone,
		RoleLevel:        req.RoleLevel,
		SalaryMin:        req.SalaryMin,
		SalaryMax:        req.SalaryMax,
		StartDateNeeded:  req.StartDateNeeded,
		CandidatesNeeded: req.CandidatesNeeded,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrJobNotFound):
			c.JSON(http.StatusNotFound, errorBody(codeNotFound, errJobNotFound))
		case errors.Is(err, domain.ErrAlreadyClaimed):
			c.JSON(http.StatusConflict, errorBody(codeAlreadyClaimed, errAlreadyClaimed))
		default:
			h.logger.Error("claim job", "job_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	// The UI contract keys the success body on "message".
	c.JSON(http.StatusOK, gin.H{
		"message": "Job claimed successfully",
		"job":     toJobResponse(job),
	})
}

type claimedJobItem struct {
	jobResponse
	ApplicantsCount     int            `json:"applicants_count"`
	SkillsVerifiedCount int            `json:"skills_verified_count"`
	TierBreakdown       map[string]int `json:"tier_breakdown"`
}

// GET /api/employer/jobs
func (h *ClaimHandler) ListClaimed(c *gin.Context) {
	views, err := h.uc.ListClaimed(c.Request.Context(), c.GetString("employerID"))
	if err != nil {
		h.logger.Error("list claimed jobs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	items := make([]claimedJobItem, len(views))
	for i, v := range views {
		items[i] = claimedJobItem{
			jobResponse:         toJobResponse(v.Job),
			ApplicantsCount:     v.ApplicantsCount,
			SkillsVerifiedCount: v.SkillsVerifiedCount,
			TierBreakdown:       v.TierBreakdown,
		}
	}
	c.JSON(http.StatusOK, gin.H{"jobs": items})
}
