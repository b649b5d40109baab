package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reqflow.io/reqflow/internal/api/middleware"
	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

// ListPendingApprovals handles GET /approvals/pending: the caller's open
// records on requisitions currently at the caller's level.
func (s *Server) ListPendingApprovals(c *gin.Context) {
	list, err := s.engine.ListPendingApprovals(c.Request.Context(), middleware.GetUserID(c.Request.Context()))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": approvalsToAPI(list)})
}

type decideRequest struct {
	Decision string `json:"decision" binding:"required"`
	Comment  string `json:"comment"`
}

// DecideApproval handles POST /requisitions/:id/decide.
func (s *Server) DecideApproval(c *gin.Context) {
	var req decideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeInvalidRequestField, err.Error()))
		return
	}

	r, err := s.engine.Decide(c.Request.Context(), c.Param("id"),
		middleware.GetUserID(c.Request.Context()), domain.Decision(req.Decision), req.Comment)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, requisitionToAPI(r))
}
