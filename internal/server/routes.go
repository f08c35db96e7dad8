package server

import (
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up the REST API and the board page.
func (s *Server) registerRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")

	// Login endpoints are the only unauthenticated surface.
	api.GET("/login/:provider", s.handleLoginURL)
	api.GET("/callback/:provider", s.handleCallback)

	authed := api.Group("", s.requireAuth())

	authed.GET("/user", s.handleCurrentUser)

	authed.GET("/projects", s.handleListProjects)
	authed.POST("/projects", s.handleCreateProject)
	authed.GET("/projects/:id", s.handleGetProject)
	authed.PUT("/projects/:id", s.handleUpdateProject)
	authed.DELETE("/projects/:id", s.handleDeleteProject)
	authed.POST("/projects/:id/members", s.handleAddMember)

	authed.GET("/statuses", s.handleListStatuses)
	authed.POST("/statuses", s.handleCreateStatus)
	authed.PUT("/statuses/:id", s.handleUpdateStatus)
	authed.DELETE("/statuses/:id", s.handleDeleteStatus)

	authed.GET("/tasks", s.handleListTasks)
	authed.POST("/tasks", s.handleCreateTask)
	authed.GET("/tasks/:id", s.handleGetTask)
	authed.PUT("/tasks/:id", s.handleUpdateTask)
	authed.DELETE("/tasks/:id", s.handleDeleteTask)

	authed.GET("/kanban", s.handleGetKanban)
	authed.PUT("/kanban", s.handleMoveTask)

	authed.POST("/generatedTasks", s.handleGenerateTasks)

	authed.GET("/feedback", s.handleListFeedback)
	authed.POST("/feedback", s.handleCreateFeedback)
	authed.DELETE("/feedback/:id", s.handleDeleteFeedback)

	// Server-rendered read-only board view (cookie auth).
	router.GET("/board/:projectID", s.requireAuth(), s.handleBoardPage)
}
