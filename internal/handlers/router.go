package handlers

import (
	"time"

	"fhirfly-backend/internal/config"
	"fhirfly-backend/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Preview deployments of the front end.
const vercelPreviewOrigin = "https://*.vercel.app"

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(h *Handler, cfg *config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(h.Logger),
		middleware.Logger(h.Logger),
		middleware.Metrics(h.Metrics),
		cors.New(corsConfig(cfg.AllowedOrigins)),
	)

	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}

	auth := middleware.RequireAuth(h.Auth, h.Logger)

	api := r.Group("/api")
	{
		api.POST("/auth/login", h.Login)
		api.POST("/auth/clinician", h.LoginClinician)
		api.POST("/auth/logout", auth, h.Logout)
		api.GET("/auth/me", auth, h.Me)

		api.GET("/terminology", h.SearchTerminology)
		api.GET("/analytics", h.TermAnalytics)
		api.GET("/analytics/top", h.TopTerms)
		api.GET("/dashboard/stats", h.DashboardStats)
		api.POST("/chatbot", h.Chat)

		api.GET("/problem-list", auth, h.ListProblems)
		api.POST("/problem-list", auth, h.AddProblem)
		api.DELETE("/problem-list/:id", auth, h.RemoveProblem)

		api.POST("/bundles", auth, h.UploadBundle)
	}

	v1 := r.Group("/api/v1")
	{
		cs := v1.Group("/codesystems")
		cs.GET("", h.ListCodeSystems)
		cs.POST("", auth, h.CreateCodeSystem)
		cs.GET("/by-url", h.GetCodeSystemByURL)
		cs.GET("/by-name/:name", h.GetCodeSystemByName)
		cs.GET("/:id", h.GetCodeSystem)
		cs.PUT("/:id", auth, h.UpdateCodeSystem)
		cs.DELETE("/:id", auth, h.DeleteCodeSystem)

		concepts := v1.Group("/concepts")
		concepts.GET("", h.ListConcepts)
		concepts.POST("", auth, h.CreateConcept)
		concepts.GET("/by-code/:codesystem_id/:code", h.GetConceptByCode)
		concepts.GET("/codesystem/:codesystem_id", h.ListConceptsByCodeSystem)
		concepts.GET("/:id", h.GetConcept)
		concepts.PUT("/:id", auth, h.UpdateConcept)
		concepts.DELETE("/:id", auth, h.DeleteConcept)

		maps := v1.Group("/conceptmaps")
		maps.GET("", h.ListConceptMaps)
		maps.POST("", auth, h.CreateConceptMap)
		maps.POST("/translate", h.Translate)
		maps.GET("/:id", h.GetConceptMap)
		maps.PUT("/:id", auth, h.UpdateConceptMap)
		maps.DELETE("/:id", auth, h.DeleteConceptMap)

		logs := v1.Group("/audit-logs")
		logs.GET("", h.ListAuditLogs)
		logs.GET("/record/:table_name/:record_id", h.ListAuditLogsByRecord)
		logs.GET("/:id", h.GetAuditLog)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		AllowWildcard:    true,
		MaxAge:           5 * time.Minute,
	}
	if len(origins) == 0 {
		cfg.AllowCredentials = false
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = append(append([]string(nil), origins...), vercelPreviewOrigin)
	return cfg
}
