package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/acadops/tuition-api/internal/dto"
	"github.com/acadops/tuition-api/internal/models"
	"github.com/acadops/tuition-api/internal/service"
	appErrors "github.com/acadops/tuition-api/pkg/errors"
	"github.com/acadops/tuition-api/pkg/response"
)

type sessionPlanner interface {
	Regenerate(ctx context.Context, req dto.RegeneratePlanRequest) (*dto.PlanResponse, error)
	ToggleDate(ctx context.Context, planID string, req dto.ToggleDateRequest) (*dto.PlanResponse, error)
	GetPlan(ctx context.Context, planID string) (*dto.PlanResponse, error)
	Plans(ctx context.Context, planID string) ([]models.StudentMonthlyPlan, error)
}

type planCommitter interface {
	Commit(ctx context.Context, plans []models.StudentMonthlyPlan) (*dto.CommitResult, error)
	Statement(ctx context.Context, studentID string, period models.BillingPeriod) ([]models.TuitionLedgerRecord, error)
}

// PlanHandler exposes the session planning and commit endpoints.
type PlanHandler struct {
	planner sessionPlanner
	commits planCommitter
}

// NewPlanHandler constructs the handler.
func NewPlanHandler(planner *service.PlannerService, commits *service.CommitService) *PlanHandler {
	return &PlanHandler{planner: planner, commits: commits}
}

// Regenerate godoc
// @Summary Rebuild the session plan for the current selection
// @Description Recomputes all class segments for the billing period. A response with stale=true means a newer regeneration superseded this one and its output was discarded.
// @Tags Plans
// @Accept json
// @Produce json
// @Param payload body dto.RegeneratePlanRequest true "Regenerate payload"
// @Success 200 {object} response.Envelope
// @Router /plans/regenerate [post]
func (h *PlanHandler) Regenerate(c *gin.Context) {
	var req dto.RegeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid regenerate payload"))
		return
	}
	plan, err := h.planner.Regenerate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Toggle godoc
// @Summary Toggle a single calendar date on the plan
// @Description Removes a manual addition, flips a generated session between scheduled and excluded, or records a makeup date. Never triggers regeneration.
// @Tags Plans
// @Accept json
// @Produce json
// @Param id path string true "Plan ID"
// @Param payload body dto.ToggleDateRequest true "Toggle payload"
// @Success 200 {object} response.Envelope
// @Router /plans/{id}/toggle [post]
func (h *PlanHandler) Toggle(c *gin.Context) {
	var req dto.ToggleDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid toggle payload"))
		return
	}
	plan, err := h.planner.ToggleDate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Get godoc
// @Summary Get the current overlayed plan view
// @Tags Plans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Router /plans/{id} [get]
func (h *PlanHandler) Get(c *gin.Context) {
	plan, err := h.planner.GetPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Commit godoc
// @Summary Commit the plan to the tuition ledger
// @Description Writes one ledger record per billable session per student. Dates already committed are skipped; the batch is not transactional and a mid-batch failure keeps earlier records. Retrying is safe.
// @Tags Plans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Router /plans/{id}/commit [post]
func (h *PlanHandler) Commit(c *gin.Context) {
	plans, err := h.planner.Plans(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.commits.Commit(c.Request.Context(), plans)
	if err != nil {
		// Partial commits are reported alongside the failure so the operator
		// can retry the remainder.
		appErr := appErrors.FromError(err)
		c.JSON(appErr.Status, response.Envelope{Data: result, Error: appErr})
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Statement godoc
// @Summary List a student's committed ledger records for a billing period
// @Tags Plans
// @Produce json
// @Param id path string true "Student ID"
// @Param year query int true "Billing year"
// @Param month query int true "Billing month (1-12)"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/ledger [get]
func (h *PlanHandler) Statement(c *gin.Context) {
	year, errYear := strconv.Atoi(c.Query("year"))
	month, errMonth := strconv.Atoi(c.Query("month"))
	if errYear != nil || errMonth != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year and month query parameters are required"))
		return
	}
	period := models.BillingPeriod{Year: year, Month: time.Month(month)}
	records, err := h.commits.Statement(c.Request.Context(), c.Param("id"), period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
