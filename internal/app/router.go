package app

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"reqflow.io/reqflow/internal/api/handlers"
	"reqflow.io/reqflow/internal/api/middleware"
	"reqflow.io/reqflow/internal/config"
)

func newRouter(cfg *config.Config, server *handlers.Server, jwtCfg middleware.JWTConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.ErrorHandler())
	router.Use(cors.New(corsConfig(cfg.Server)))

	v1 := router.Group("/api/v1")

	v1.GET("/health/live", server.Liveness)
	v1.GET("/health/ready", server.Readiness)
	v1.POST("/auth/register", server.Register)
	v1.POST("/auth/login", server.Login)

	authed := v1.Group("", middleware.JWTAuth(jwtCfg))
	authed.GET("/auth/me", server.Me)

	authed.POST("/requisitions", server.CreateRequisition)
	authed.GET("/requisitions", server.ListRequisitions)
	authed.GET("/requisitions/:id", server.GetRequisition)
	authed.PATCH("/requisitions/:id", server.UpdateRequisition)
	authed.DELETE("/requisitions/:id", server.DeleteRequisition)
	authed.POST("/requisitions/:id/submit", server.SubmitRequisition)
	authed.POST("/requisitions/:id/revise", server.ReviseRequisition)
	authed.GET("/requisitions/:id/history", server.RequisitionHistory)
	authed.GET("/requisitions/:id/approvals", server.ApprovalHistory)

	authed.GET("/approvals/pending", middleware.RequireApprover(), server.ListPendingApprovals)
	authed.POST("/requisitions/:id/decide", middleware.RequireApprover(), server.DecideApproval)

	authed.GET("/notifications", server.ListNotifications)
	authed.POST("/notifications/:id/read", server.MarkNotificationRead)

	admin := authed.Group("/admin", middleware.RequireAdmin())
	admin.GET("/users", server.ListUsers)
	admin.GET("/users/:id", server.GetUser)
	admin.PUT("/users/:id/role", server.SetUserRole)
	admin.PUT("/users/:id/department", server.SetUserDepartment)
	admin.POST("/departments", server.CreateDepartment)
	admin.GET("/departments", server.ListDepartments)
	admin.GET("/departments/:id", server.GetDepartment)
	admin.PUT("/departments/:id", server.UpdateDepartment)
	admin.DELETE("/departments/:id", server.DeleteDepartment)
	admin.POST("/workflows", server.CreateWorkflow)
	admin.GET("/workflows", server.ListWorkflows)
	admin.GET("/workflows/:id", server.GetWorkflow)
	admin.PUT("/workflows/:id", server.UpdateWorkflow)
	admin.DELETE("/workflows/:id", server.DeleteWorkflow)

	return router
}

func corsConfig(cfg config.ServerConfig) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, "Authorization")
	c.AllowCredentials = cfg.AllowCredentials

	switch {
	case cfg.UnsafeAllowAllOrigins:
		// Credentials cannot be combined with a wildcard origin.
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	case len(cfg.AllowedOrigins) > 0:
		c.AllowOrigins = cfg.AllowedOrigins
	default:
		c.AllowOrigins = []string{"http://localhost:3000"}
	}
	return c
}
