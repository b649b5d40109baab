package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"reqflow.io/reqflow/internal/api/middleware"
	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
	"reqflow.io/reqflow/internal/service"
)

type createRequisitionRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Amount      *float64   `json:"amount"`
	Category    string     `json:"category" binding:"required"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

// CreateRequisition handles POST /requisitions.
func (s *Server) CreateRequisition(c *gin.Context) {
	var req createRequisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeInvalidRequestField, err.Error()))
		return
	}

	r, err := s.requisitions.Create(c.Request.Context(), middleware.GetUserID(c.Request.Context()), service.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		Priority:    domain.Priority(req.Priority),
		DueDate:     req.DueDate,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, requisitionToAPI(r))
}

type patchRequisitionRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Amount      *float64   `json:"amount"`
	Category    *string    `json:"category"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

func (r patchRequisitionRequest) toPatch() domain.RequisitionPatch {
	patch := domain.RequisitionPatch{
		Title:       r.Title,
		Description: r.Description,
		Amount:      r.Amount,
		Category:    r.Category,
		DueDate:     r.DueDate,
	}
	if r.Priority != nil {
		p := domain.Priority(*r.Priority)
		patch.Priority = &p
	}
	return patch
}

// UpdateRequisition handles PATCH /requisitions/:id.
func (s *Server) UpdateRequisition(c *gin.Context) {
	var req patchRequisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeInvalidRequestField, err.Error()))
		return
	}

	r, err := s.requisitions.Update(c.Request.Context(), c.Param("id"),
		middleware.GetUserID(c.Request.Context()), req.toPatch())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, requisitionToAPI(r))
}

// DeleteRequisition handles DELETE /requisitions/:id.
func (s *Server) DeleteRequisition(c *gin.Context) {
	err := s.requisitions.Delete(c.Request.Context(), c.Param("id"), middleware.GetUserID(c.Request.Context()))
	if err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetRequisition handles GET /requisitions/:id.
func (s *Server) GetRequisition(c *gin.Context) {
	r, err := s.requisitions.Get(c.Request.Context(), c.Param("id"), middleware.GetUserID(c.Request.Context()))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, requisitionToAPI(r))
}

// ListRequisitions handles GET /requisitions. Filters: status (repeatable),
// priority, category, department_id.
func (s *Server) ListRequisitions(c *gin.Context) {
	filter := domain.RequisitionFilter{
		Priority:     domain.Priority(c.Query("priority")),
		Category:     c.Query("category"),
		DepartmentID: c.Query("department_id"),
	}
	for _, status := range c.QueryArray("status") {
		filter.Statuses = append(filter.Statuses, domain.RequisitionStatus(status))
	}

	list, err := s.requisitions.List(c.Request.Context(), middleware.GetUserID(c.Request.Context()), filter)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": requisitionsToAPI(list)})
}

// SubmitRequisition handles POST /requisitions/:id/submit. Resolves the
// workflow, opens the first level and moves the requisition to pending.
func (s *Server) SubmitRequisition(c *gin.Context) {
	r, err := s.engine.Submit(c.Request.Context(), c.Param("id"), middleware.GetUserID(c.Request.Context()))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, requisitionToAPI(r))
}

// ReviseRequisition handles POST /requisitions/:id/revise. Creates a new
// version of a rejected requisition; submission is a separate call.
func (s *Server) ReviseRequisition(c *gin.Context) {
	var req patchRequisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeInvalidRequestField, err.Error()))
		return
	}

	r, err := s.engine.Revise(c.Request.Context(), c.Param("id"),
		middleware.GetUserID(c.Request.Context()), req.toPatch())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, requisitionToAPI(r))
}

// RequisitionHistory handles GET /requisitions/:id/history: the revision
// lineage, revision numbers ascending.
func (s *Server) RequisitionHistory(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := s.engine.RequisitionHistory(ctx, c.Param("id"),
		middleware.GetUserID(ctx), middleware.GetRole(ctx))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": requisitionsToAPI(list)})
}

// ApprovalHistory handles GET /requisitions/:id/approvals.
func (s *Server) ApprovalHistory(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := s.engine.ApprovalHistory(ctx, c.Param("id"),
		middleware.GetUserID(ctx), middleware.GetRole(ctx))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": approvalsToAPI(list)})
}
