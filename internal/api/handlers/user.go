package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

// ListUsers handles GET /admin/users.
func (s *Server) ListUsers(c *gin.Context) {
	list, err := s.users.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	items := make([]userResponse, 0, len(list))
	for _, u := range list {
		items = append(items, userToAPI(u))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetUser handles GET /admin/users/:id.
func (s *Server) GetUser(c *gin.Context) {
	u, err := s.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, userToAPI(u))
}

type setRoleRequest struct {
	Role           string `json:"role" binding:"required"`
	AuthorityLevel int    `json:"authority_level"`
}

// SetUserRole handles PUT /admin/users/:id/role. Role and authority level
// move together; the service enforces their pairing.
func (s *Server) SetUserRole(c *gin.Context) {
	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeInvalidRequestField, err.Error()))
		return
	}

	u, err := s.users.SetRole(c.Request.Context(), c.Param("id"), domain.Role(req.Role), req.AuthorityLevel)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, userToAPI(u))
}

type setDepartmentRequest struct {
	DepartmentID string `json:"department_id" binding:"required"`
}

// SetUserDepartment handles PUT /admin/users/:id/department.
func (s *Server) SetUserDepartment(c *gin.Context) {
	var req setDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeInvalidRequestField, err.Error()))
		return
	}

	u, err := s.users.SetDepartment(c.Request.Context(), c.Param("id"), req.DepartmentID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, userToAPI(u))
}
