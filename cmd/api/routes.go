package main

import (
	"net/http"
	"time"

	"github.com/jordanlanch/leadtriage/pkg/api/handlers"
	"github.com/jordanlanch/leadtriage/pkg/app"
	custommiddleware "github.com/jordanlanch/leadtriage/pkg/middleware"
	"github.com/jordanlanch/leadtriage/pkg/storage"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func registerRoutes(e *echo.Echo, a *app.App) {
	checks := map[string]handlers.Pinger{}
	if a.DB != nil {
		checks["database"] = a.DB
	}
	if a.Cache != nil {
		checks["redis"] = a.Cache
	}
	healthHandler := handlers.NewHealthHandler(checks)

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"name":        "Lead Triage API",
			"version":     "0.1.0",
			"status":      "running",
			"environment": a.Config.APIEnvironment,
			"timestamp":   time.Now().Unix(),
		})
	})
	e.GET("/health", healthHandler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})))

	v1 := e.Group("/api/v1")
	if a.Config.OperatorJWTSecret != "" {
		v1.Use(custommiddleware.OperatorAuth(a.Config.OperatorJWTSecret))
	}

	campaignHandler := handlers.NewCampaignHandler(a.Smartlead)
	campaigns := v1.Group("/campaigns")
	{
		campaigns.GET("", campaignHandler.List)
		campaigns.POST("/refresh", campaignHandler.Refresh)
		campaigns.GET("/:id", campaignHandler.Get)
		campaigns.GET("/:id/statistics", campaignHandler.Statistics)
	}

	followUpHandler := handlers.NewFollowUpHandler(a.FollowUps, a.Runner)
	v1.POST("/followups", followUpHandler.Add)

	if a.Directory != nil && a.FilterLeads != nil {
		organizationHandler := handlers.NewOrganizationHandler(a.Directory)
		v1.GET("/organizations", organizationHandler.List)

		filterHandler := handlers.NewFilterSessionHandler(a.FilterLeads, a.Sessions, a.Runner, a.CSV)
		sessions := v1.Group("/filter-sessions")
		{
			sessions.POST("", filterHandler.Create)
			sessions.GET("/:id", filterHandler.Get)
			sessions.DELETE("/:id", filterHandler.Delete)
			sessions.POST("/:id/organization", filterHandler.SelectOrganization)
			sessions.POST("/:id/campaign", filterHandler.SelectCampaign)
			sessions.POST("/:id/classify", filterHandler.Classify, middleware.BodyLimit("12M"))
			sessions.POST("/:id/remove", filterHandler.Remove)
		}
	}

	if local, ok := a.Store.(*storage.LocalStore); ok {
		artifactHandler := handlers.NewArtifactHandler(local)
		v1.GET("/artifacts/:name", artifactHandler.Download)
	}
}
