// Package handlers implements the HTTP API. Handlers translate requests
// into service and engine calls; all failures go through c.Error and the
// centralized error handler middleware.
package handlers

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"reqflow.io/reqflow/internal/api/middleware"
	"reqflow.io/reqflow/internal/domain"
	"reqflow.io/reqflow/internal/engine"
	"reqflow.io/reqflow/internal/service"
)

// NotificationStore is the inbox read surface of the API.
type NotificationStore interface {
	ListNotificationsForUser(ctx context.Context, userID string) ([]*domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) error
}

// Server holds all API handler dependencies. Manual DI, no framework.
type Server struct {
	pool          *pgxpool.Pool
	jwtCfg        middleware.JWTConfig
	engine        *engine.Engine
	auth          *service.AuthService
	requisitions  *service.RequisitionService
	users         *service.UserService
	departments   *service.DepartmentService
	workflows     *service.WorkflowAdminService
	notifications NotificationStore
}

// ServerDeps holds all dependencies for creating a Server.
type ServerDeps struct {
	Pool          *pgxpool.Pool // optional, used by the readiness probe
	JWTCfg        middleware.JWTConfig
	Engine        *engine.Engine
	Auth          *service.AuthService
	Requisitions  *service.RequisitionService
	Users         *service.UserService
	Departments   *service.DepartmentService
	Workflows     *service.WorkflowAdminService
	Notifications NotificationStore
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		pool:          deps.Pool,
		jwtCfg:        deps.JWTCfg,
		engine:        deps.Engine,
		auth:          deps.Auth,
		requisitions:  deps.Requisitions,
		users:         deps.Users,
		departments:   deps.Departments,
		workflows:     deps.Workflows,
		notifications: deps.Notifications,
	}
}

// --- response shapes ---

type userResponse struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	AuthorityLevel int    `json:"authority_level"`
	DepartmentID   string `json:"department_id,omitempty"`
}

func userToAPI(u *domain.User) userResponse {
	return userResponse{
		ID:             u.ID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		Role:           string(u.Role),
		AuthorityLevel: u.AuthorityLevel,
		DepartmentID:   u.DepartmentID,
	}
}

type requisitionResponse struct {
	ID                    string     `json:"id"`
	Title                 string     `json:"title"`
	Description           string     `json:"description,omitempty"`
	RequestorID           string     `json:"requestor_id"`
	DepartmentID          string     `json:"department_id"`
	Amount                *float64   `json:"amount,omitempty"`
	Category              string     `json:"category"`
	Priority              string     `json:"priority"`
	DueDate               *time.Time `json:"due_date,omitempty"`
	Status                string     `json:"status"`
	CurrentApproverLevel  int        `json:"current_approver_level"`
	RevisionNumber        int        `json:"revision_number"`
	OriginalRequisitionID string     `json:"original_requisition_id,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func requisitionToAPI(r *domain.Requisition) requisitionResponse {
	return requisitionResponse{
		ID:                    r.ID,
		Title:                 r.Title,
		Description:           r.Description,
		RequestorID:           r.RequestorID,
		DepartmentID:          r.DepartmentID,
		Amount:                r.Amount,
		Category:              r.Category,
		Priority:              string(r.Priority),
		DueDate:               r.DueDate,
		Status:                string(r.Status),
		CurrentApproverLevel:  r.CurrentApproverLevel,
		RevisionNumber:        r.RevisionNumber,
		OriginalRequisitionID: r.OriginalRequisitionID,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

func requisitionsToAPI(rs []*domain.Requisition) []requisitionResponse {
	out := make([]requisitionResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, requisitionToAPI(r))
	}
	return out
}

type approvalResponse struct {
	ID            string     `json:"id"`
	RequisitionID string     `json:"requisition_id"`
	ApproverID    string     `json:"approver_id"`
	ApproverLevel int        `json:"approver_level"`
	Status        string     `json:"status"`
	Comment       string     `json:"comment,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
}

func approvalToAPI(a *domain.Approval) approvalResponse {
	return approvalResponse{
		ID:            a.ID,
		RequisitionID: a.RequisitionID,
		ApproverID:    a.ApproverID,
		ApproverLevel: a.ApproverLevel,
		Status:        string(a.Status),
		Comment:       a.Comment,
		CreatedAt:     a.CreatedAt,
		DecidedAt:     a.DecidedAt,
	}
}

func approvalsToAPI(as []*domain.Approval) []approvalResponse {
	out := make([]approvalResponse, 0, len(as))
	for _, a := range as {
		out = append(out, approvalToAPI(a))
	}
	return out
}

type workflowResponse struct {
	ID               string    `json:"id"`
	DepartmentID     string    `json:"department_id"`
	Category         string    `json:"category"`
	AmountThreshold  float64   `json:"amount_threshold"`
	ApproverSequence []int     `json:"approver_sequence"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func workflowToAPI(w *domain.WorkflowDefinition) workflowResponse {
	return workflowResponse{
		ID:               w.ID,
		DepartmentID:     w.DepartmentID,
		Category:         w.Category,
		AmountThreshold:  w.AmountThreshold,
		ApproverSequence: w.ApproverSequence,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}
}
