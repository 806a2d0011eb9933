package server

import (
	"net/http"
	"slices"

	"jobhub/services/dashboard/internal/dashboard"
	"jobhub/services/dashboard/internal/errors"
	"jobhub/services/dashboard/internal/query"
	"jobhub/services/dashboard/internal/urlstate"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterRoutes builds the gin engine with every dashboard endpoint.
func (s *Server) RegisterRoutes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(s.logger))
	r.Use(cors.New(s.corsConfig()))

	r.GET("/health", s.healthHandler)
	r.POST("/refresh", s.refreshHandler)
	r.GET("/view", s.currentViewHandler)
	r.PUT("/view", s.setViewHandler)
	r.POST("/search/tokens", s.searchTokenHandler)

	jobs := r.Group("/jobs")
	{
		jobs.GET("", s.listJobsHandler)
		jobs.GET("/:id", s.getJobHandler)
		jobs.POST("/:id/apply", s.applyHandler)

		recruiter := jobs.Group("")
		recruiter.Use(CheckRole(RoleRecruiter))
		recruiter.POST("", s.createJobHandler)
		recruiter.PUT("/:id", s.updateJobHandler)
		recruiter.DELETE("/:id", s.deleteJobHandler)
	}

	applications := r.Group("/applications")
	{
		applications.GET("", s.listApplicationsHandler)
		applications.GET("/history", s.applicationHistoryHandler)
		applications.DELETE("", s.clearApplicationsHandler)
	}

	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Accept", "Content-Type", RoleHeader},
	}
	if len(s.cfg.AllowedOrigins) == 0 || slices.Contains(s.cfg.AllowedOrigins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.cfg.AllowedOrigins
	}
	return cfg
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// listJobsHandler answers a query string in the shared URL format. It does
// not touch the current view.
func (s *Server) listJobsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.dashboard.View(urlstate.Decode(c.Request.URL.RawQuery)))
}

func (s *Server) currentViewHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.dashboard.CurrentView())
}

// setViewHandler hydrates the current view from a shared link's query
// string.
func (s *Server) setViewHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.dashboard.ViewFromURL(c.Request.URL.RawQuery))
}

func (s *Server) getJobHandler(c *gin.Context) {
	job, ok := s.dashboard.Job(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) createJobHandler(c *gin.Context) {
	var in dashboard.JobInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in.ID = ""

	job, err := s.dashboard.CreateOrUpdateJob(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (s *Server) updateJobHandler(c *gin.Context) {
	var in dashboard.JobInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in.ID = c.Param("id")

	job, err := s.dashboard.CreateOrUpdateJob(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) deleteJobHandler(c *gin.Context) {
	found, err := s.dashboard.DeleteJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no local job with that id"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) applyHandler(c *gin.Context) {
	applied, err := s.dashboard.Apply(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applied": applied})
}

func (s *Server) listApplicationsHandler(c *gin.Context) {
	entries, err := s.dashboard.Applications(c.Request.Context(), query.SortKey(c.Query("sort")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": entries, "total": len(entries)})
}

func (s *Server) applicationHistoryHandler(c *gin.Context) {
	records, err := s.dashboard.ApplicationHistory(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "total": len(records)})
}

func (s *Server) clearApplicationsHandler(c *gin.Context) {
	if err := s.dashboard.ClearApplications(c.Request.Context()); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) refreshHandler(c *gin.Context) {
	if err := s.dashboard.Refresh(c.Request.Context()); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.dashboard.CurrentView())
}

type searchTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// searchTokenHandler appends a clicked tag to the current search.
func (s *Server) searchTokenHandler(c *gin.Context) {
	var req searchTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.dashboard.AddSearchToken(req.Token))
}

func statusFor(err error) int {
	switch errors.TypeOf(err) {
	case errors.ErrTypeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrTypeNotFound:
		return http.StatusNotFound
	case errors.ErrTypeUnauthorized:
		return http.StatusForbidden
	case errors.ErrTypeFetch:
		return http.StatusBadGateway
	case errors.ErrTypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error(), "type": errors.TypeOf(err)})
}
