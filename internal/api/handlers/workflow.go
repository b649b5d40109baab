package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "reqflow.io/reqflow/internal/pkg/errors"
	"reqflow.io/reqflow/internal/service"
)

type workflowRequest struct {
	DepartmentID     string  `json:"department_id" binding:"required"`
	Category         string  `json:"category" binding:"required"`
	AmountThreshold  float64 `json:"amount_threshold"`
	ApproverSequence []int   `json:"approver_sequence" binding:"required"`
}

func (r workflowRequest) toInput() service.WorkflowInput {
	return service.WorkflowInput{
		DepartmentID:     r.DepartmentID,
		Category:         r.Category,
		AmountThreshold:  r.AmountThreshold,
		ApproverSequence: r.ApproverSequence,
	}
}

// CreateWorkflow handles POST /admin/workflows.
func (s *Server) CreateWorkflow(c *gin.Context) {
	var req workflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeInvalidRequestField, err.Error()))
		return
	}

	w, err := s.workflows.Create(c.Request.Context(), req.toInput())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, workflowToAPI(w))
}

// UpdateWorkflow handles PUT /admin/workflows/:id.
func (s *Server) UpdateWorkflow(c *gin.Context) {
	var req workflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeInvalidRequestField, err.Error()))
		return
	}

	w, err := s.workflows.Update(c.Request.Context(), c.Param("id"), req.toInput())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, workflowToAPI(w))
}

// GetWorkflow handles GET /admin/workflows/:id.
func (s *Server) GetWorkflow(c *gin.Context) {
	w, err := s.workflows.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, workflowToAPI(w))
}

// ListWorkflows handles GET /admin/workflows.
func (s *Server) ListWorkflows(c *gin.Context) {
	list, err := s.workflows.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	items := make([]workflowResponse, 0, len(list))
	for _, w := range list {
		items = append(items, workflowToAPI(w))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// DeleteWorkflow handles DELETE /admin/workflows/:id.
func (s *Server) DeleteWorkflow(c *gin.Context) {
	if err := s.workflows.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
