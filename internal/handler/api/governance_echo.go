package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	models "LoanGate/internal/domain/models"
	domrepo "LoanGate/internal/domain/repository"
	"LoanGate/internal/services/governance"
	"LoanGate/internal/usecase"
	xhttp "LoanGate/pkg/http"
	xlogger "LoanGate/pkg/logger"
	xutil "LoanGate/pkg/util"

	"github.com/labstack/echo/v4"
)

// GovernanceEchoHandler exposes candidate intake, queue review,
// prioritization, and escalation state over HTTP.
type GovernanceEchoHandler struct {
	logger      *xlogger.Logger
	admission   *usecase.Admission
	review      *usecase.Review
	dispatch    *usecase.Dispatch
	escalations domrepo.EscalationStore
	history     domrepo.HistoricalStore
	intake      *usecase.Intake
}

func NewGovernanceEchoHandler(
	logger *xlogger.Logger,
	admission *usecase.Admission,
	review *usecase.Review,
	dispatch *usecase.Dispatch,
	escalations domrepo.EscalationStore,
	history domrepo.HistoricalStore,
	intake *usecase.Intake,
) *GovernanceEchoHandler {
	return &GovernanceEchoHandler{
		logger:      logger,
		admission:   admission,
		review:      review,
		dispatch:    dispatch,
		escalations: escalations,
		history:     history,
		intake:      intake,
	}
}

func (h *GovernanceEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.POST("/candidates", h.Submit)
	g.GET("/queue", h.ListQueue)
	g.GET("/queue/:id", h.GetItem)
	g.POST("/queue/:id/approve", h.Approve)
	g.POST("/queue/:id/reject", h.Reject)
	g.POST("/queue/:id/cancel", h.Cancel)
	g.GET("/prioritization", h.Prioritization)
	g.GET("/escalations/:borrower_id", h.Escalation)
}

func (h *GovernanceEchoHandler) Submit(c echo.Context) error {
	req := &models.SubmitCandidateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cand := candidateFromRequest(req)
	item, err := h.admission.Admit(c.Request().Context(), cand)
	if err != nil {
		var re *models.ResourceExhaustedError
		if errors.As(err, &re) {
			// parked on the deferral queue; tell the caller to back off
			return xhttp.DataResponse(c, http.StatusTooManyRequests, map[string]interface{}{
				"candidate_id": cand.ID,
				"deferred":     true,
				"limit":        re.Limit,
				"max":          re.Max,
			})
		}
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			return xhttp.BadRequestResponse(c, ve.Error())
		}
		h.logger.Error("submit usecase error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.CreatedResponse(c, item)
}

func (h *GovernanceEchoHandler) ListQueue(c echo.Context) error {
	req := &models.QueueListRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	status := models.QueueStatus(req.Status)
	if req.Status == "" {
		status = models.StatusPendingReview
	}

	items, err := h.review.List(c.Request().Context(), status, req.Limit)
	if err != nil {
		h.logger.Error("queue list error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.ListResponse(c, items, int64(len(items)))
}

func (h *GovernanceEchoHandler) GetItem(c echo.Context) error {
	item, err := h.review.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return xhttp.NotFoundResponse(c, err.Error())
	}
	return xhttp.SuccessResponse(c, item)
}

func (h *GovernanceEchoHandler) Approve(c echo.Context) error {
	return h.reviewAction(c, h.review.Approve)
}

func (h *GovernanceEchoHandler) Reject(c echo.Context) error {
	return h.reviewAction(c, h.review.Reject)
}

func (h *GovernanceEchoHandler) Cancel(c echo.Context) error {
	return h.reviewAction(c, h.review.Cancel)
}

func (h *GovernanceEchoHandler) reviewAction(c echo.Context, fn func(ctx context.Context, id, actor string) (*models.QueueItem, error)) error {
	req := &models.ReviewRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	item, err := fn(c.Request().Context(), c.Param("id"), req.Reviewer)
	if err != nil {
		h.logger.Error("review action error",
			xlogger.String("item_id", c.Param("id")),
			xlogger.Error(err))
		return xhttp.BadRequestResponse(c, err.Error())
	}
	return xhttp.SuccessResponse(c, item)
}

func (h *GovernanceEchoHandler) Prioritization(c echo.Context) error {
	req := &models.PrioritizationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	plan, err := h.dispatch.PlanWith(c.Request().Context(), governance.ResourceConstraints{
		MaxSimultaneous:    req.MaxSimultaneous,
		AvailableResources: governance.ResourceLevel(req.Resources),
		UrgencyBias:        req.UrgencyBias,
	})
	if err != nil {
		h.logger.Error("prioritization error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, plan)
}

func (h *GovernanceEchoHandler) Escalation(c echo.Context) error {
	borrowerID := c.Param("borrower_id")
	state, err := h.escalations.Get(c.Request().Context(), borrowerID)
	if err != nil {
		h.logger.Error("escalation lookup error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	if state == nil {
		state = &models.EscalationState{
			BorrowerID: borrowerID,
			Level:      models.EscalationMonitoring,
			RiskLevel:  models.RiskLow,
		}
	}
	return xhttp.SuccessResponse(c, state)
}

func (h *GovernanceEchoHandler) Health(c echo.Context) error {
	status := map[string]interface{}{
		"status": "ok",
		"stream": h.intake != nil && h.intake.IsConnected(),
	}
	if h.history != nil {
		if err := h.history.Health(c.Request().Context()); err != nil {
			status["status"] = "degraded"
			status["history"] = err.Error()
			return xhttp.DataResponse(c, http.StatusServiceUnavailable, status)
		}
		status["history"] = "ok"
	}
	return xhttp.SuccessResponse(c, status)
}

func candidateFromRequest(req *models.SubmitCandidateRequest) *models.ActionCandidate {
	now := time.Now().UTC()
	cand := &models.ActionCandidate{
		ID:                 fmt.Sprintf("cand-%d", now.UnixNano()),
		Type:               models.ActionType(req.Type),
		Urgency:            models.Urgency(req.Urgency),
		BorrowerID:         req.BorrowerID,
		FacilityID:         req.FacilityID,
		ExpectedOutcome:    req.ExpectedOutcome,
		Risks:              req.Risks,
		DeclaredImpact:     models.ImpactLevel(req.DeclaredImpact),
		SignalSeverity:     req.SignalSeverity,
		ExposureBucket:     req.ExposureBucket,
		SuccessProbability: req.SuccessProbability,
		SubmittedAt:        now,
	}
	for _, f := range req.ConfidenceFactors {
		cand.SelfReported = append(cand.SelfReported, models.ConfidenceFactor{
			Name:        f.Name,
			Score:       f.Score,
			Weight:      f.Weight,
			Source:      models.SourceModel,
			Explanation: f.Explanation,
		})
	}
	if t, ok := xutil.ParseTime(req.Deadline); ok {
		cand.Deadline = t
	}
	return cand
}
