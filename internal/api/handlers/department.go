package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

type departmentResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func departmentToAPI(d *domain.Department) departmentResponse {
	return departmentResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type departmentRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateDepartment handles POST /admin/departments.
func (s *Server) CreateDepartment(c *gin.Context) {
	var req departmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeInvalidRequestField, err.Error()))
		return
	}

	d, err := s.departments.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, departmentToAPI(d))
}

// UpdateDepartment handles PUT /admin/departments/:id.
func (s *Server) UpdateDepartment(c *gin.Context) {
	var req departmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest(apperrors.CodeInvalidRequestField, err.Error()))
		return
	}

	d, err := s.departments.Update(c.Request.Context(), c.Param("id"), req.Name, req.Description)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, departmentToAPI(d))
}

// GetDepartment handles GET /departments/:id.
func (s *Server) GetDepartment(c *gin.Context) {
	d, err := s.departments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, departmentToAPI(d))
}

// ListDepartments handles GET /departments.
func (s *Server) ListDepartments(c *gin.Context) {
	list, err := s.departments.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	items := make([]departmentResponse, 0, len(list))
	for _, d := range list {
		items = append(items, departmentToAPI(d))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// DeleteDepartment handles DELETE /admin/departments/:id.
func (s *Server) DeleteDepartment(c *gin.Context) {
	if err := s.departments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
